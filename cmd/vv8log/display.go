package main

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"gopkg.in/yaml.v3"

	"github.com/opal-lang/vv8log/core/types"
	"github.com/opal-lang/vv8log/runtime/aggregate"
	"github.com/opal-lang/vv8log/runtime/parser"
)

// Output formats for the aggregate command
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatCBOR = "cbor"
)

var formats = []string{FormatText, FormatJSON, FormatYAML, FormatCBOR}

// DisplayParse renders a parse summary, optionally listing every failure
func DisplayParse(w io.Writer, path string, file *parser.File, showFailures, useColor bool) {
	_, _ = fmt.Fprintf(w, "%s: %d records, %s\n",
		Colorize(path, ColorCyan, useColor),
		len(file.Entries),
		failureCount(len(file.Failures), "failures", useColor))

	if file.Telemetry != nil {
		tags := make([]byte, 0, len(file.Telemetry.Records))
		for tag := range file.Telemetry.Records {
			tags = append(tags, tag)
		}
		slices.Sort(tags)
		for _, tag := range tags {
			_, _ = fmt.Fprintf(w, "  %-18s %d\n", types.TagName(tag), file.Telemetry.Records[tag])
		}
	}

	if showFailures {
		for _, f := range file.Failures {
			_, _ = fmt.Fprintf(w, "  %s %v: %s\n",
				Colorize(fmt.Sprintf("line %d:", f.Line+1), ColorGray, useColor),
				f.Err,
				truncate(f.Text, 80))
		}
	}
}

// DisplayReports renders aggregate reports in the given format
func DisplayReports(w io.Writer, reports []fileReport, format string, useColor bool) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(reports)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(reports); err != nil {
			return err
		}
		return enc.Close()
	case FormatCBOR:
		// Canonical encoding keeps the bytes stable across runs
		encMode, err := cbor.CanonicalEncOptions().EncMode()
		if err != nil {
			return fmt.Errorf("failed to create CBOR encoder: %w", err)
		}
		return encMode.NewEncoder(w).Encode(reports)
	case FormatText:
		for _, r := range reports {
			displayReportText(w, r, useColor)
		}
		return nil
	default:
		return &CLIError{
			Type:    "input",
			Message: fmt.Sprintf("unknown format %q", format),
			Hint:    "use one of: " + strings.Join(formats, ", "),
		}
	}
}

func displayReportText(w io.Writer, r fileReport, useColor bool) {
	_, _ = fmt.Fprintf(w, "%s\n", Colorize(r.Path, ColorCyan, useColor))
	if r.Info != nil {
		_, _ = fmt.Fprintf(w, "  pid %d, tid %d, thread %s, timestamp %d\n",
			r.Info.PID, r.Info.TID, r.Info.Thread, r.Info.Timestamp)
	}
	_, _ = fmt.Fprintf(w, "  %d records, %s, %s\n",
		r.Records,
		failureCount(r.ParseFailures, "parse failures", useColor),
		failureCount(r.Rejected, "rejected", useColor))
	_, _ = fmt.Fprintf(w, "  %d scripts (%d injected, %d interaction), %d calls recorded, %d after interaction, %d filtered\n",
		r.Totals.Scripts, r.Totals.Injected, r.Totals.Interaction,
		r.Totals.Recorded, r.Totals.AfterInteraction, r.Totals.Filtered)

	for _, s := range r.Scripts {
		_, _ = fmt.Fprintf(w, "  %s %s %s line %d, %d filtered\n",
			Colorize(fmt.Sprintf("script %d", s.ID), ColorBlue, useColor),
			s.Name,
			injectionLabel(s.Injection, useColor),
			s.Line,
			s.Filtered)
		for i, c := range s.Calls {
			branch := "├─"
			if i == len(s.Calls)-1 {
				branch = "└─"
			}
			_, _ = fmt.Fprintf(w, "    %s %s x%d%s\n", branch, callLabel(c.Kind, c.Receiver, c.Attribute), c.Count, afterLabel(c.AfterInteraction, useColor))
		}
	}
}

// DisplayCalls renders API calls summed across scripts
func DisplayCalls(w io.Writer, usages []callUsage, useColor bool) {
	for _, u := range usages {
		ids := make([]string, len(u.Scripts))
		slices.Sort(u.Scripts)
		for i, id := range u.Scripts {
			ids[i] = fmt.Sprint(id)
		}
		_, _ = fmt.Fprintf(w, "%6d  %s%s %s\n",
			u.Count,
			u.Call,
			afterLabel(u.AfterInteraction, useColor),
			Colorize("scripts "+strings.Join(ids, ","), ColorGray, useColor))
	}
}

func callLabel(kind aggregate.APIKind, receiver, attribute string) string {
	call := aggregate.APICall{Kind: kind, Receiver: receiver, Attribute: attribute, HasAttribute: attribute != ""}
	return call.String()
}

func injectionLabel(t aggregate.InjectionType, useColor bool) string {
	label := "[" + t.String() + "]"
	switch t {
	case aggregate.Injected:
		return Colorize(label, ColorYellow, useColor)
	case aggregate.Interaction:
		return Colorize(label, ColorGreen, useColor)
	default:
		return Colorize(label, ColorGray, useColor)
	}
}

func afterLabel(n int, useColor bool) string {
	if n == 0 {
		return ""
	}
	return Colorize(fmt.Sprintf(" (%d after interaction)", n), ColorGreen, useColor)
}

func failureCount(n int, label string, useColor bool) string {
	text := fmt.Sprintf("%d %s", n, label)
	if n == 0 {
		return text
	}
	return Colorize(text, ColorRed, useColor)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
