package logfile

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/opal-lang/vv8log/runtime/aggregate"
	"github.com/opal-lang/vv8log/runtime/parser"
)

// LogFile is one decoded trace log.
type LogFile struct {
	Path string
	Info Info
	File *parser.File
}

// Option configures reading
type Option func(*Config)

// Config holds reading options
type Config struct {
	workers     int
	logger      *slog.Logger
	parserOpts  []parser.Option
	includeInfo bool
	debounce    time.Duration
}

// DefaultDebounce is how long a Watcher waits after the last write to a
// file before decoding it.
const DefaultDebounce = 200 * time.Millisecond

// WithWorkers bounds how many files ReadDir decodes at once
func WithWorkers(n int) Option {
	return func(c *Config) {
		c.workers = n
	}
}

// WithLogger sets the logger for skipped files
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.logger = logger
	}
}

// WithParserOptions forwards options to the line parser
func WithParserOptions(opts ...parser.Option) Option {
	return func(c *Config) {
		c.parserOpts = append(c.parserOpts, opts...)
	}
}

// WithDebounce sets how long a Watcher waits for writes to a file to
// settle. Zero or less decodes on every event.
func WithDebounce(d time.Duration) Option {
	return func(c *Config) {
		c.debounce = d
	}
}

// AllowAnyName lets Open decode files whose names are not VV8 log names.
// Their Info is left zero.
func AllowAnyName() Option {
	return func(c *Config) {
		c.includeInfo = false
	}
}

func newConfig(opts []Option) Config {
	c := Config{
		workers:     runtime.GOMAXPROCS(0),
		logger:      slog.Default(),
		includeInfo: true,
		debounce:    DefaultDebounce,
	}
	for _, opt := range opts {
		opt(&c)
	}
	if c.workers < 1 {
		c.workers = 1
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Open decodes the log file at path.
func Open(path string, opts ...Option) (*LogFile, error) {
	return open(path, newConfig(opts))
}

func open(path string, cfg Config) (*LogFile, error) {
	var info Info
	if cfg.includeInfo {
		var err error
		info, err = ParseInfo(filepath.Base(path))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if !stat.Mode().IsRegular() {
		return nil, fmt.Errorf("%s: not a regular file", path)
	}

	return &LogFile{Path: path, Info: info, File: decode(f, path, cfg)}, nil
}

// Read decodes a log stream that has no file name, such as stdin. name is
// used as the Path and Info is left zero.
func Read(r io.Reader, name string, opts ...Option) *LogFile {
	return &LogFile{Path: name, File: decode(r, name, newConfig(opts))}
}

func decode(r io.Reader, path string, cfg Config) *parser.File {
	parserOpts := append([]parser.Option{parser.WithLogger(cfg.logger)}, cfg.parserOpts...)
	file := parser.Parse(r, parserOpts...)
	cfg.logger.Debug("log file decoded",
		"path", path,
		"records", len(file.Entries),
		"failures", len(file.Failures))
	return file
}

// ReadDir decodes every VV8 log file directly inside dir, at most
// WithWorkers files at a time. Files that fail to open are logged and
// skipped. Results are sorted by path.
func ReadDir(ctx context.Context, dir string, opts ...Option) ([]*LogFile, error) {
	cfg := newConfig(opts)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read log directory: %w", err)
	}

	var (
		mu    sync.Mutex
		files []*LogFile
	)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.workers)

	for _, entry := range entries {
		if entry.IsDir() || !IsLogFileName(entry.Name()) {
			cfg.logger.Debug("skipping non-log entry", "name", entry.Name())
			continue
		}
		path := filepath.Join(dir, entry.Name())
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			lf, err := open(path, cfg)
			if err != nil {
				cfg.logger.Warn("skipping log file", "path", path, "error", err)
				return nil
			}
			mu.Lock()
			files = append(files, lf)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	slices.SortFunc(files, func(a, b *LogFile) int {
		return cmp.Compare(a.Path, b.Path)
	})
	return files, nil
}

// Aggregate folds the file's records into a fresh aggregate.
func (lf *LogFile) Aggregate(opts ...aggregate.Option) (*aggregate.Aggregate, []aggregate.Failure) {
	agg := aggregate.New(opts...)
	return agg, agg.Fold(lf.File.Entries)
}
