// Package logfile locates, reads and watches VV8 trace log files.
package logfile

import (
	"fmt"
	"strconv"
	"strings"
)

// ErrorCode identifies why a file name is not a usable log file name.
type ErrorCode int

const (
	ErrNotLogFileName ErrorCode = iota
	ErrTimestamp
	ErrPID
	ErrTID
)

// Error returns the message for the code
func (c ErrorCode) Error() string {
	switch c {
	case ErrNotLogFileName:
		return "not a VV8 log file name"
	case ErrTimestamp:
		return "invalid timestamp in log file name"
	case ErrPID:
		return "invalid process ID in log file name"
	case ErrTID:
		return "invalid thread ID in log file name"
	default:
		return fmt.Sprintf("logfile error %d", int(c))
	}
}

const (
	namePrefix = "vv8-"
	nameSuffix = ".log"
)

// Info is what VV8 encodes in a log file name:
// vv8-$TIMESTAMP-$PID-$TID-$THREAD.log, e.g.
// vv8-1726285073665-87-87-chrome.0.log.
type Info struct {
	Timestamp uint64 `json:"timestamp" yaml:"timestamp"`
	PID       uint32 `json:"pid" yaml:"pid"`
	TID       uint32 `json:"tid" yaml:"tid"`
	Thread    string `json:"thread" yaml:"thread"`
}

// IsLogFileName reports whether name has the vv8-*.log shape
func IsLogFileName(name string) bool {
	return len(name) >= len(namePrefix)+len(nameSuffix) &&
		strings.HasPrefix(name, namePrefix) &&
		strings.HasSuffix(name, nameSuffix)
}

// ParseInfo decodes a base file name.
func ParseInfo(name string) (Info, error) {
	if !IsLogFileName(name) {
		return Info{}, ErrNotLogFileName
	}
	middle := name[len(namePrefix) : len(name)-len(nameSuffix)]
	parts := strings.Split(middle, "-")
	if len(parts) != 4 {
		return Info{}, fmt.Errorf("%w: %d name parts", ErrNotLogFileName, len(parts))
	}

	timestamp, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return Info{}, fmt.Errorf("%w: %q", ErrTimestamp, parts[0])
	}
	pid, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return Info{}, fmt.Errorf("%w: %q", ErrPID, parts[1])
	}
	tid, err := strconv.ParseUint(parts[2], 10, 32)
	if err != nil {
		return Info{}, fmt.Errorf("%w: %q", ErrTID, parts[2])
	}

	return Info{
		Timestamp: timestamp,
		PID:       uint32(pid),
		TID:       uint32(tid),
		Thread:    parts[3],
	}, nil
}

// FileName renders the info back into a log file name
func (i Info) FileName() string {
	return fmt.Sprintf("%s%d-%d-%d-%s%s", namePrefix, i.Timestamp, i.PID, i.TID, i.Thread, nameSuffix)
}
