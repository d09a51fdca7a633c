package diagnostics

import "sync"

// List is a passive, append-only diagnostics collector shared across an
// assembly run. Every phase records into the same *List by reference; it
// never aborts the pass itself (spec §7's "best-effort" design) — the
// pipeline decides whether List.HasErrors() should stop the next phase.
// Thread-safe for concurrent writes, guarded by a mutex per spec §5 (the
// pipeline itself is sequential, but the guard keeps this type safe for
// any future concurrent phase, per the teacher's own debugcontext.Context).
type List struct {
	filePath string
	phase    string
	entries  []*Entry
	mu       sync.Mutex
}

// NewList returns a List for the given primary source file path, with no
// phase set and no entries recorded.
func NewList(filePath string) *List {
	return &List{filePath: filePath, entries: make([]*Entry, 0)}
}

// SetPhase marks subsequent entries as belonging to the named pipeline
// phase, until changed again.
func (l *List) SetPhase(name string) {
	l.mu.Lock()
	l.phase = name
	l.mu.Unlock()
}

func (l *List) Phase() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.phase
}

// Loc builds a Location against this List's primary file path.
func (l *List) Loc(line, column int) Location {
	return Loc(l.filePath, line, column)
}

// LocIn builds a Location against an explicit file path (used for
// diagnostics attributed to an expanded macro body or an included file).
func (l *List) LocIn(filePath string, line, column int) Location {
	return Loc(filePath, line, column)
}

func (l *List) record(severity Severity, location Location, message string) *Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry := &Entry{severity: severity, phase: l.phase, message: message, location: location}
	l.entries = append(l.entries, entry)
	return entry
}

func (l *List) Error(location Location, message string) *Entry {
	return l.record(SeverityError, location, message)
}

func (l *List) Warning(location Location, message string) *Entry {
	return l.record(SeverityWarning, location, message)
}

func (l *List) Info(location Location, message string) *Entry {
	return l.record(SeverityInfo, location, message)
}

func (l *List) Trace(location Location, message string) *Entry {
	return l.record(SeverityTrace, location, message)
}

// Entries returns a snapshot copy of every entry recorded so far, in
// insertion order.
func (l *List) Entries() []*Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	result := make([]*Entry, len(l.entries))
	copy(result, l.entries)
	return result
}

func (l *List) Errors() []*Entry   { return l.filter(SeverityError) }
func (l *List) Warnings() []*Entry { return l.filter(SeverityWarning) }

// HasErrors reports whether at least one error-severity entry has been
// recorded — the pipeline's primary abort signal.
func (l *List) HasErrors() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries {
		if e.severity == SeverityError {
			return true
		}
	}
	return false
}

func (l *List) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func (l *List) FilePath() string { return l.filePath }

func (l *List) filter(severity Severity) []*Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	var result []*Entry
	for _, e := range l.entries {
		if e.severity == severity {
			result = append(result, e)
		}
	}
	return result
}
