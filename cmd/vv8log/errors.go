package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/opal-lang/vv8log/runtime/logfile"
)

// CLIError represents a formatted CLI error with context
type CLIError struct {
	Type    string // "input", "config", "query"
	Message string
	Details string // Additional context
	Hint    string // How to fix it
}

// Error implements the error interface
func (e *CLIError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if e.Details != "" {
		b.WriteString("\n")
		b.WriteString(e.Details)
	}
	if e.Hint != "" {
		b.WriteString("\n")
		b.WriteString(e.Hint)
	}
	return b.String()
}

// FormatError formats an error for CLI output with colors
func FormatError(w io.Writer, err error, useColor bool) {
	if err == nil {
		return
	}

	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		formatCLIError(w, cliErr, useColor)
		return
	}

	var code logfile.ErrorCode
	if errors.As(err, &code) {
		formatCLIError(w, &CLIError{
			Type:    "input",
			Message: err.Error(),
			Hint:    "VV8 log files are named vv8-TIMESTAMP-PID-TID-THREAD.log",
		}, useColor)
		return
	}

	_, _ = fmt.Fprintf(w, "%s%s\n", Colorize("Error: ", ColorRed, useColor), err.Error())
}

// formatCLIError formats CLI errors
func formatCLIError(w io.Writer, err *CLIError, useColor bool) {
	_, _ = fmt.Fprintf(w, "%s%s\n", Colorize("Error: ", ColorRed, useColor), err.Message)

	if err.Details != "" {
		_, _ = fmt.Fprintf(w, "\n%s\n", err.Details)
	}

	if err.Hint != "" {
		_, _ = fmt.Fprintf(w, "%s%s\n", Colorize("Hint: ", ColorYellow, useColor), err.Hint)
	}
}
