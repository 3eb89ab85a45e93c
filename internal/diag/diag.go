// Package diag implements the two-tier error taxonomy spec.md §7
// describes: Fatal conditions abort the run (plain Go errors,
// typically wrapped with github.com/pkg/errors for context), and
// Recoverable conditions are collected as Diagnostics and reported
// without stopping the analysis. No core package logs or exits
// directly — that keeps the engine a pure, testable function from
// inputs to (graph, []Diagnostic, error).
package diag

import "fmt"

// Severity classifies a Diagnostic. Every Diagnostic in this package
// is "recoverable" by construction (spec.md §7); Severity exists so
// a sink (the driver's logger) can decide how loud to be.
type Severity int

const (
	// Info is a routine note (e.g. an address carrying only tag
	// names was skipped).
	Info Severity = iota
	// Warn is spec.md §7's "Recoverable (diagnostic only)" bucket:
	// missing local usage, LLVM/decoder disagreement, an indirect
	// call with no matching callees, an ambiguous entry point, an
	// indirect call in an untyped function.
	Warn
)

// Diagnostic is one recoverable finding surfaced during analysis.
type Diagnostic struct {
	Severity Severity
	Subject  string // the function or signature this concerns, if any
	Message  string
}

func (d Diagnostic) String() string {
	if d.Subject == "" {
		return d.Message
	}
	return fmt.Sprintf("%s: %s", d.Subject, d.Message)
}

// Sink accumulates Diagnostics in the order they were raised. A
// *Sink is passed by reference through every phase of the pipeline in
// spec.md §5 so that later phases can add to the same list the driver
// eventually prints.
type Sink struct {
	diags []Diagnostic
}

// NewSink returns an empty diagnostic sink.
func NewSink() *Sink {
	return &Sink{}
}

// Warnf records a Warn-severity diagnostic about subject.
func (s *Sink) Warnf(subject, format string, args ...interface{}) {
	s.diags = append(s.diags, Diagnostic{Warn, subject, fmt.Sprintf(format, args...)})
}

// Infof records an Info-severity diagnostic about subject.
func (s *Sink) Infof(subject, format string, args ...interface{}) {
	s.diags = append(s.diags, Diagnostic{Info, subject, fmt.Sprintf(format, args...)})
}

// All returns every diagnostic recorded so far, in order.
func (s *Sink) All() []Diagnostic {
	return s.diags
}

// HasWarnings reports whether any Warn-severity diagnostic was
// recorded.
func (s *Sink) HasWarnings() bool {
	for _, d := range s.diags {
		if d.Severity == Warn {
			return true
		}
	}
	return false
}
