// Package diagnostics implements the core's sole user-visible failure
// channel. The config loader, the request tracker's request execution, and
// the JS transformer all report problems as Diagnostics rather than through
// logging; the host CLI is responsible for rendering them.
package diagnostics

import (
	"fmt"
	"strings"
)

// Severity indicates how a diagnostic affects the operation that produced it.
type Severity int

const (
	// Warning accompanies a successful result (e.g. a transformed asset).
	Warning Severity = iota
	// Error prevents the operation's result from being returned at all.
	Error
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	default:
		return "unknown"
	}
}

// Kind tags the category of failure so callers can branch on it without
// string-matching the message.
type Kind string

const (
	KindNotFound          Kind = "not_found"
	KindParseFailure      Kind = "parse_failure"
	KindResolutionFailure Kind = "resolution_failure"
	KindValidationFailure Kind = "validation_failure"
	KindAnalysisBailout   Kind = "analysis_bailout"
	KindMacroEvaluation   Kind = "macro_evaluation"
	KindMacroExecution    Kind = "macro_execution"
	KindMacroParse        Kind = "macro_parse"
	KindReadFailure       Kind = "read_failure"
	KindCancelled         Kind = "cancelled"
	KindUnknown           Kind = "unknown"
)

// Position is a 1-indexed location within a source file.
type Position struct {
	Line   int
	Column int
}

// Span highlights a range within a CodeFrame's source bytes.
type Span struct {
	Start   Position
	End     Position
	Message string // optional, per-span annotation
}

// CodeFrame points at the offending source so the host can render a snippet.
type CodeFrame struct {
	FilePath string
	Source   []byte
	Spans    []Span
}

// Diagnostic is the structured shape every core-visible failure takes.
type Diagnostic struct {
	Severity        Severity
	Kind            Kind
	Message         string
	Origin          string // the component that produced it, e.g. "pluginconfig"
	DocumentationURL string
	Hints           []string
	CodeFrames      []CodeFrame
}

func (d Diagnostic) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %s", d.Severity, d.Message)
	if len(d.CodeFrames) > 0 {
		fmt.Fprintf(&sb, " (%s)", d.CodeFrames[0].FilePath)
	}
	for _, h := range d.Hints {
		fmt.Fprintf(&sb, "\n  hint: %s", h)
	}
	return sb.String()
}

// New builds an Error-severity diagnostic.
func New(kind Kind, origin, message string) Diagnostic {
	return Diagnostic{Severity: Error, Kind: kind, Origin: origin, Message: message}
}

// Newf is New with fmt.Sprintf-style formatting.
func Newf(kind Kind, origin, format string, args ...any) Diagnostic {
	return New(kind, origin, fmt.Sprintf(format, args...))
}

// Warn builds a Warning-severity diagnostic.
func Warn(kind Kind, origin, message string) Diagnostic {
	return Diagnostic{Severity: Warning, Kind: kind, Origin: origin, Message: message}
}

// WithHint appends a remediation hint and returns the diagnostic for chaining.
func (d Diagnostic) WithHint(hint string) Diagnostic {
	d.Hints = append(d.Hints, hint)
	return d
}

// WithDocs attaches a documentation URL and returns the diagnostic for chaining.
func (d Diagnostic) WithDocs(url string) Diagnostic {
	d.DocumentationURL = url
	return d
}

// WithCodeFrame attaches a code frame and returns the diagnostic for chaining.
func (d Diagnostic) WithCodeFrame(frame CodeFrame) Diagnostic {
	d.CodeFrames = append(d.CodeFrames, frame)
	return d
}

// Bag aggregates diagnostics produced over the course of one operation.
type Bag struct {
	Items []Diagnostic
}

// Add appends one diagnostic.
func (b *Bag) Add(d Diagnostic) {
	b.Items = append(b.Items, d)
}

// HasErrors reports whether any diagnostic in the bag is Error severity.
// An Error-severity diagnostic during transform prevents the asset from
// being returned; warnings and bailouts accompany it instead.
func (b *Bag) HasErrors() bool {
	for _, d := range b.Items {
		if d.Severity == Error {
			return true
		}
	}
	return false
}

// Errors returns only the Error-severity diagnostics.
func (b *Bag) Errors() []Diagnostic {
	return b.filter(Error)
}

// Warnings returns only the Warning-severity diagnostics.
func (b *Bag) Warnings() []Diagnostic {
	return b.filter(Warning)
}

func (b *Bag) filter(sev Severity) []Diagnostic {
	var out []Diagnostic
	for _, d := range b.Items {
		if d.Severity == sev {
			out = append(out, d)
		}
	}
	return out
}

// Merge appends another bag's items onto this one.
func (b *Bag) Merge(other *Bag) {
	if other == nil {
		return
	}
	b.Items = append(b.Items, other.Items...)
}
