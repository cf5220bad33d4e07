package parser

import (
	"bufio"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/opal-lang/vv8log/core/types"
)

// File is the decoded content of one log input.
type File struct {
	Entries   []types.Entry
	Failures  []Failure
	Telemetry *Telemetry // nil unless telemetry is enabled
}

// Parse decodes newline-delimited log lines from r.
//
// Lines are numbered from zero. A line that fails to decode is recorded in
// Failures and parsing continues with the next line. A read error is
// recorded as an ErrRead failure and ends the input.
func Parse(r io.Reader, opts ...Option) *File {
	config := newConfig(opts)

	var start time.Time
	file := &File{
		Entries:  make([]types.Entry, 0, 1024),
		Failures: make([]Failure, 0, 16),
	}
	if config.telemetry >= TelemetryBasic {
		file.Telemetry = &Telemetry{Records: make(map[byte]int)}
		if config.telemetry >= TelemetryTiming {
			start = time.Now()
		}
	}

	reader := bufio.NewReaderSize(r, 64*1024)
	var line uint32
	for {
		text, err := reader.ReadString('\n')
		if len(text) > 0 {
			file.add(config, line, trimNewline(text))
			line++
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				config.logger.Warn("reading log line", slog.Any("line", line), slog.String("error", err.Error()))
				file.Failures = append(file.Failures, Failure{Line: line, Text: err.Error(), Err: ErrRead})
				file.Telemetry.readFailed()
			}
			break
		}
	}

	if config.telemetry >= TelemetryTiming {
		file.Telemetry.Elapsed = time.Since(start)
	}
	return file
}

// ParseString decodes log lines held in memory.
func ParseString(input string, opts ...Option) *File {
	return Parse(strings.NewReader(input), opts...)
}

func (f *File) add(config *Config, line uint32, text string) {
	record, err := ParseLine(text)
	if err != nil {
		config.logger.Debug("parsing log line", slog.Any("line", line), slog.String("error", err.Error()))
		f.Failures = append(f.Failures, Failure{Line: line, Text: text, Err: err})
		f.Telemetry.fail()
		return
	}
	f.Entries = append(f.Entries, types.Entry{Line: line, Record: record})
	f.Telemetry.record(record.Tag())
}

func trimNewline(s string) string {
	s = strings.TrimSuffix(s, "\n")
	return strings.TrimSuffix(s, "\r")
}
