package main

import (
	"cmp"
	"slices"

	"github.com/opal-lang/vv8log/runtime/aggregate"
	"github.com/opal-lang/vv8log/runtime/logfile"
)

// Line numbers in reports are one-based.

type fileReport struct {
	Path          string           `json:"path" yaml:"path"`
	Info          *logfile.Info    `json:"info,omitempty" yaml:"info,omitempty"`
	Records       int              `json:"records" yaml:"records"`
	ParseFailures int              `json:"parse_failures" yaml:"parse_failures"`
	Rejected      int              `json:"rejected" yaml:"rejected"`
	Totals        aggregate.Totals `json:"totals" yaml:"totals"`
	Scripts       []scriptReport   `json:"scripts" yaml:"scripts"`
}

type scriptReport struct {
	ID        int32                   `json:"id" yaml:"id"`
	Line      uint32                  `json:"line" yaml:"line"`
	Name      string                  `json:"name" yaml:"name"`
	Hash      string                  `json:"hash" yaml:"hash"`
	Injection aggregate.InjectionType `json:"injection" yaml:"injection"`
	Filtered  int                     `json:"filtered" yaml:"filtered"`
	Calls     []callReport            `json:"calls" yaml:"calls"`
}

type callReport struct {
	Kind             aggregate.APIKind `json:"kind" yaml:"kind"`
	Receiver         string            `json:"receiver" yaml:"receiver"`
	Attribute        string            `json:"attribute,omitempty" yaml:"attribute,omitempty"`
	Count            int               `json:"count" yaml:"count"`
	AfterInteraction int               `json:"after_interaction" yaml:"after_interaction"`
	Lines            []uint32          `json:"lines" yaml:"lines"`
}

func buildReport(lf *logfile.LogFile, agg *aggregate.Aggregate, rejected []aggregate.Failure) fileReport {
	r := fileReport{
		Path:          lf.Path,
		Records:       len(lf.File.Entries),
		ParseFailures: len(lf.File.Failures),
		Rejected:      len(rejected),
		Totals:        agg.Totals(),
		Scripts:       []scriptReport{},
	}
	if lf.Info != (logfile.Info{}) {
		info := lf.Info
		r.Info = &info
	}

	for _, id := range agg.ScriptIDs() {
		script, _ := agg.Script(id)
		sr := scriptReport{
			ID:        id,
			Line:      script.Line + 1,
			Name:      script.Name.String(),
			Hash:      script.SourceHash(),
			Injection: script.Injection,
			Filtered:  script.Filtered,
			Calls:     []callReport{},
		}
		for _, entry := range script.SortedCalls() {
			sr.Calls = append(sr.Calls, callReport{
				Kind:             entry.Call.Kind,
				Receiver:         entry.Call.Receiver,
				Attribute:        entry.Call.Attribute,
				Count:            entry.Lines.Total(),
				AfterInteraction: entry.Lines.AfterInteraction(),
				Lines:            oneBased(entry.Lines.Lines),
			})
		}
		r.Scripts = append(r.Scripts, sr)
	}
	return r
}

func oneBased(lines []uint32) []uint32 {
	out := make([]uint32, len(lines))
	for i, l := range lines {
		out[i] = l + 1
	}
	return out
}

// callUsage is one APICall summed across scripts.
type callUsage struct {
	Call             aggregate.APICall
	Count            int
	AfterInteraction int
	Scripts          []int32
}

func collectCalls(agg *aggregate.Aggregate) []callUsage {
	byCall := map[aggregate.APICall]*callUsage{}
	for _, id := range agg.ScriptIDs() {
		script, _ := agg.Script(id)
		for call, lines := range script.Calls {
			u, ok := byCall[call]
			if !ok {
				u = &callUsage{Call: call}
				byCall[call] = u
			}
			u.Count += lines.Total()
			u.AfterInteraction += lines.AfterInteraction()
			u.Scripts = append(u.Scripts, id)
		}
	}

	usages := make([]callUsage, 0, len(byCall))
	for _, u := range byCall {
		usages = append(usages, *u)
	}
	slices.SortFunc(usages, func(a, b callUsage) int {
		return cmp.Or(
			cmp.Compare(b.Count, a.Count),
			cmp.Compare(a.Call.String(), b.Call.String()),
		)
	})
	return usages
}

func receivers(usages []callUsage) []string {
	seen := map[string]bool{}
	var names []string
	for _, u := range usages {
		if !seen[u.Call.Receiver] {
			seen[u.Call.Receiver] = true
			names = append(names, u.Call.Receiver)
		}
	}
	slices.Sort(names)
	return names
}
