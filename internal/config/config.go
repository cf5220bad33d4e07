// Package config loads vv8log settings from an optional YAML file and
// VV8LOG_ environment variables.
package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"runtime"
	"strings"
	"sync"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/opal-lang/vv8log/runtime/aggregate"
)

// DefaultFile is read when no --config path is given, if it exists.
const DefaultFile = "vv8log.yaml"

// EnvPrefix marks environment overrides; "__" separates key levels, e.g.
// VV8LOG_POLICY__FILTER_NAMES=false.
const EnvPrefix = "VV8LOG_"

//go:embed schema.json
var schemaJSON []byte

type Config struct {
	Debug  bool         `koanf:"debug" json:"debug"`
	Log    LogConfig    `koanf:"log" json:"log"`
	Read   ReadConfig   `koanf:"read" json:"read"`
	Policy PolicyConfig `koanf:"policy" json:"policy"`
}

type LogConfig struct {
	Level string `koanf:"level" json:"level"`
}

type ReadConfig struct {
	Workers int `koanf:"workers" json:"workers"` // parallel file decodes
}

type PolicyConfig struct {
	InteractionMarker string `koanf:"interaction_marker" json:"interaction_marker"`
	MarkerPrefix      int    `koanf:"marker_prefix" json:"marker_prefix"`
	ReceiverPattern   string `koanf:"receiver_pattern" json:"receiver_pattern"`
	AttributePattern  string `koanf:"attribute_pattern" json:"attribute_pattern"`
	MaxDigitRun       int    `koanf:"max_digit_run" json:"max_digit_run"` // -1 disables the digit check
	FilterNames       bool   `koanf:"filter_names" json:"filter_names"`
}

var defaults = map[string]any{
	"debug":                     false,
	"log.level":                 "info",
	"read.workers":              runtime.GOMAXPROCS(0),
	"policy.interaction_marker": aggregate.DefaultInteractionMarker,
	"policy.marker_prefix":      aggregate.DefaultMarkerPrefix,
	"policy.receiver_pattern":   aggregate.DefaultReceiverPattern,
	"policy.attribute_pattern":  aggregate.DefaultAttributePattern,
	"policy.max_digit_run":      aggregate.DefaultMaxDigitRun,
	"policy.filter_names":       true,
}

// Load reads path (or DefaultFile when path is empty and the file
// exists), then applies environment overrides and defaults. The merged
// result is validated as well, since environment values bypass the file
// check.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	if err := loadFile(k, path); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	}), nil); err != nil {
		return nil, err
	}

	for key, value := range defaults {
		if !k.Exists(key) {
			if err := k.Set(key, value); err != nil {
				return nil, err
			}
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}
	data, err := json.Marshal(&cfg)
	if err != nil {
		return nil, err
	}
	if err := validateJSON(data); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// loadFile validates the YAML file against the embedded schema before
// merging it.
func loadFile(k *koanf.Koanf, path string) error {
	fk := koanf.New(".")
	if err := fk.Load(file.Provider(path), yaml.Parser()); err != nil {
		return fmt.Errorf("load config %s: %w", path, err)
	}
	if err := Validate(fk.Raw()); err != nil {
		return fmt.Errorf("invalid config %s: %w", path, err)
	}
	return k.Merge(fk)
}

var schema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	compiler.AssertFormat = true

	url := "schema://vv8log.json"
	if err := compiler.AddResource(url, bytes.NewReader(schemaJSON)); err != nil {
		return nil, err
	}
	return compiler.Compile(url)
})

// Validate checks raw configuration values against the config schema.
func Validate(raw map[string]any) error {
	// Round-trip through JSON so numbers and maps have the shapes the
	// validator expects.
	data, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return validateJSON(data)
}

func validateJSON(data []byte) error {
	s, err := schema()
	if err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}

	var doc any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return err
	}
	return s.Validate(doc)
}

// LogLevel parses Log.Level; Debug forces slog.LevelDebug.
func (c *Config) LogLevel() (slog.Level, error) {
	if c.Debug {
		return slog.LevelDebug, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

// AggregateOptions builds the aggregation options the policy section
// describes.
func (c *Config) AggregateOptions() ([]aggregate.Option, error) {
	opts := []aggregate.Option{
		aggregate.WithInteractionDetector(aggregate.MarkerDetector{
			Marker:    c.Policy.InteractionMarker,
			PrefixLen: c.Policy.MarkerPrefix,
		}),
	}
	if !c.Policy.FilterNames {
		return append(opts, aggregate.WithNameFilter(aggregate.AcceptAll)), nil
	}
	filter, err := aggregate.NewPatternFilter(c.Policy.ReceiverPattern, c.Policy.AttributePattern, c.Policy.MaxDigitRun)
	if err != nil {
		return nil, fmt.Errorf("policy: %w", err)
	}
	return append(opts, aggregate.WithNameFilter(filter)), nil
}
