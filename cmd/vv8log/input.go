package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/opal-lang/vv8log/runtime/logfile"
)

// getInputReader handles the 3 modes of input:
// 1. Explicit stdin with -
// 2. Piped input (auto-detected when no path is given)
// 3. File input
func getInputReader(path string) (io.Reader, func() error, error) {
	// Mode 1: Explicit stdin
	if path == "-" {
		return os.Stdin, func() error { return nil }, nil
	}

	// Mode 2: Piped input
	if path == "" {
		if hasPipedInput() {
			return os.Stdin, func() error { return nil }, nil
		}
		return nil, nil, &CLIError{
			Type:    "input",
			Message: "no log file given",
			Hint:    "pass a path, or - to read from stdin",
		}
	}

	// Mode 3: File input
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("error opening file %s: %w", path, err)
	}

	closeFunc := func() error {
		return f.Close()
	}

	return f, closeFunc, nil
}

// hasPipedInput detects if there's data piped to stdin
func hasPipedInput() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}

	// Check if stdin is not a character device (i.e., it's piped)
	// Note: We don't check Size() > 0 because pipes may not report size correctly
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// loadLogs decodes a directory of VV8 logs, a single file of any name, or
// stdin.
func loadLogs(ctx context.Context, path string, opts ...logfile.Option) ([]*logfile.LogFile, error) {
	if path != "" && path != "-" {
		stat, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		if stat.IsDir() {
			return logfile.ReadDir(ctx, path, opts...)
		}
		if !logfile.IsLogFileName(filepath.Base(path)) {
			opts = append(opts, logfile.AllowAnyName())
		}
		lf, err := logfile.Open(path, opts...)
		if err != nil {
			return nil, err
		}
		return []*logfile.LogFile{lf}, nil
	}

	reader, closeFunc, err := getInputReader(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = closeFunc() }()

	return []*logfile.LogFile{logfile.Read(reader, "-", opts...)}, nil
}
