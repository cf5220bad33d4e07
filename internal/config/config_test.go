package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opal-lang/vv8log/runtime/aggregate"
	"github.com/opal-lang/vv8log/runtime/parser"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vv8log.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// chdir moves into an empty directory so DefaultFile is absent.
func chdir(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
}

func TestLoadDefaults(t *testing.T) {
	chdir(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, &Config{
		Log:  LogConfig{Level: "info"},
		Read: ReadConfig{Workers: runtime.GOMAXPROCS(0)},
		Policy: PolicyConfig{
			InteractionMarker: aggregate.DefaultInteractionMarker,
			MarkerPrefix:      aggregate.DefaultMarkerPrefix,
			ReceiverPattern:   aggregate.DefaultReceiverPattern,
			AttributePattern:  aggregate.DefaultAttributePattern,
			MaxDigitRun:       aggregate.DefaultMaxDigitRun,
			FilterNames:       true,
		},
	}, cfg)
}

func TestLoadFileAndEnv(t *testing.T) {
	chdir(t)
	path := writeConfig(t, `
log:
  level: warn
read:
  workers: 3
policy:
  interaction_marker: "HORDE"
  marker_prefix: 10
`)
	t.Setenv("VV8LOG_READ__WORKERS", "7")
	t.Setenv("VV8LOG_POLICY__FILTER_NAMES", "false")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 7, cfg.Read.Workers)
	assert.Equal(t, "HORDE", cfg.Policy.InteractionMarker)
	assert.Equal(t, 10, cfg.Policy.MarkerPrefix)
	assert.False(t, cfg.Policy.FilterNames)
	assert.Equal(t, aggregate.DefaultReceiverPattern, cfg.Policy.ReceiverPattern)
}

func TestLoadDefaultFileFromWorkingDirectory(t *testing.T) {
	chdir(t)
	require.NoError(t, os.WriteFile(DefaultFile, []byte("debug: true\n"), 0o644))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.True(t, cfg.Debug)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	chdir(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown key", "colour: red\n"},
		{"bad level", "log:\n  level: loud\n"},
		{"zero workers", "read:\n  workers: 0\n"},
		{"workers not a number", "read:\n  workers: many\n"},
		{"bad regex", "policy:\n  receiver_pattern: \"([\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chdir(t)
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid config")
		})
	}
}

func TestLogLevel(t *testing.T) {
	cfg := &Config{Log: LogConfig{Level: "WARN"}}
	level, err := cfg.LogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)

	cfg.Debug = true
	level, err = cfg.LogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	_, err = (&Config{Log: LogConfig{Level: "loud"}}).LogLevel()
	assert.Error(t, err)
}

func TestAggregateOptions(t *testing.T) {
	chdir(t)
	cfg, err := Load("")
	require.NoError(t, err)

	log := "$1:\"\":x\n!1\nc5:%atob:{1,Window}\nc6:%now:#U\n"
	file := parser.ParseString(log)

	opts, err := cfg.AggregateOptions()
	require.NoError(t, err)
	agg := aggregate.New(opts...)
	require.Empty(t, agg.Fold(file.Entries))
	script, _ := agg.Script(1)
	assert.Len(t, script.Calls, 1)
	assert.Equal(t, 1, script.Filtered)

	cfg.Policy.FilterNames = false
	opts, err = cfg.AggregateOptions()
	require.NoError(t, err)
	agg = aggregate.New(opts...)
	require.Empty(t, agg.Fold(file.Entries))
	script, _ = agg.Script(1)
	assert.Len(t, script.Calls, 2)
}

func TestAggregateOptionsBadPattern(t *testing.T) {
	cfg := &Config{Policy: PolicyConfig{FilterNames: true, ReceiverPattern: "(["}}
	_, err := cfg.AggregateOptions()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate(map[string]any{
		"debug": true,
		"log":   map[string]any{"level": "debug"},
		"read":  map[string]any{"workers": 4},
		"policy": map[string]any{
			"marker_prefix":    50,
			"receiver_pattern": "^[A-Z]+$",
			"max_digit_run":    -1,
		},
	}))

	err := Validate(map[string]any{"read": map[string]any{"workers": 0}})
	assert.Error(t, err)
}

func TestLoadValidFile(t *testing.T) {
	chdir(t)
	path := writeConfig(t, `
debug: false
log:
  level: error
read:
  workers: 1
policy:
  interaction_marker: "gremlins"
  marker_prefix: 0
  receiver_pattern: "^[A-Za-z]{3,}$"
  attribute_pattern: "^[a-z]+$"
  max_digit_run: -1
  filter_names: true
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Log.Level)
	assert.Equal(t, 1, cfg.Read.Workers)
	assert.Equal(t, 0, cfg.Policy.MarkerPrefix)
	assert.Equal(t, -1, cfg.Policy.MaxDigitRun)
}

func TestLoadRejectsInvalidEnv(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"negative marker prefix", "VV8LOG_POLICY__MARKER_PREFIX", "-1"},
		{"zero workers", "VV8LOG_READ__WORKERS", "0"},
		{"digit run below minus one", "VV8LOG_POLICY__MAX_DIGIT_RUN", "-2"},
		{"bad level", "VV8LOG_LOG__LEVEL", "loud"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chdir(t)
			t.Setenv(tt.key, tt.value)
			_, err := Load("")
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid config")
		})
	}
}
