package diagnostics

import "fmt"

// Severity classifies how serious a diagnostic entry is.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
	SeverityTrace   Severity = "trace"
)

// Entry is a single diagnostic recorded by an assembly phase: what
// happened, where, how severe, and (optionally) a one-line snippet and fix
// hint. Core fields are immutable once recorded; only the With* methods may
// still be chained onto a freshly recorded Entry.
type Entry struct {
	severity Severity
	phase    string
	kind     string // short machine-stable category, e.g. "undefined-symbol"
	message  string
	location Location
	snippet  string
	hint     string
}

func (e *Entry) Severity() Severity  { return e.severity }
func (e *Entry) Phase() string       { return e.phase }
func (e *Entry) Kind() string        { return e.kind }
func (e *Entry) Message() string     { return e.message }
func (e *Entry) Location() Location  { return e.location }
func (e *Entry) Snippet() string     { return e.snippet }
func (e *Entry) Hint() string        { return e.hint }

// WithSnippet attaches source-line text for inline display.
func (e *Entry) WithSnippet(text string) *Entry {
	e.snippet = text
	return e
}

// WithHint attaches a fix suggestion.
func (e *Entry) WithHint(text string) *Entry {
	e.hint = text
	return e
}

// WithKind attaches a machine-stable category name.
func (e *Entry) WithKind(kind string) *Entry {
	e.kind = kind
	return e
}

func (e *Entry) String() string {
	return fmt.Sprintf("%s [%s] %s: %s", e.severity, e.phase, e.location.String(), e.message)
}
