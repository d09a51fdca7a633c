// Package linemap tracks how source line numbers shift as the assembler's
// macro-expansion phase rewrites a program, so that a diagnostic raised
// against an expanded line can still be reported against the line the
// programmer actually wrote.
//
// Adapted from the teacher's internal/lineMap package (Tracker/Instance/
// History, "snapshot the source after each transformation, trace a later
// line back to its origin"). The teacher's own Instance.changes performed a
// best-effort textual diff between snapshots to *infer* origins; this
// generalizes that idea to match spec §4.6's macro expander, which already
// knows which output line came from which input line as it rewrites the
// program — so each Snapshot call takes that correspondence directly
// instead of re-deriving it by diffing, removing a whole (unreliable)
// algorithm the spec's pipeline has no need for.
package linemap

// Tracker traces a line number in the most recently recorded snapshot back
// through every prior snapshot to the original source line it originated
// from, or reports that it has no origin (it was inserted by macro
// expansion).
type Tracker struct {
	filePath string
	snapshots []snapshot
}

// snapshot records, for each 1-based line number in a transformed source,
// the corresponding 1-based line number in the *previous* snapshot, or 0
// if the line was newly inserted (e.g. by a macro body) and has no
// predecessor.
type snapshot struct {
	origins []int // origins[i] is the previous-snapshot line for line i+1
}

// New returns a Tracker for filePath with no snapshots recorded yet.
// SnapshotInitial establishes the initial 1:1 mapping.
func New(filePath string) *Tracker {
	return &Tracker{filePath: filePath}
}

// FilePath returns the tracker's primary source file path.
func (t *Tracker) FilePath() string {
	return t.filePath
}

// SnapshotInitial records the unexpanded source's line count, establishing
// the identity mapping every later Origin call is traced through.
func (t *Tracker) SnapshotInitial(lineCount int) {
	origins := make([]int, lineCount)
	for i := range origins {
		origins[i] = i + 1
	}
	t.snapshots = []snapshot{{origins: origins}}
}

// Snapshot records a transformation step: origins[i] gives the line number
// in the previous snapshot that produced line i+1 of the new source, or 0
// if line i+1 was newly introduced (e.g. a line from inside a macro body)
// and has no predecessor.
func (t *Tracker) Snapshot(origins []int) {
	cp := make([]int, len(origins))
	copy(cp, origins)
	t.snapshots = append(t.snapshots, snapshot{origins: cp})
}

// Origin traces lineNumber in the latest snapshot back to its line number
// in the very first (unexpanded) snapshot. Returns 0 if the line has no
// such origin, either because it was inserted during expansion or because
// lineNumber is out of range.
func (t *Tracker) Origin(lineNumber int) int {
	if len(t.snapshots) == 0 {
		return 0
	}
	current := lineNumber
	for i := len(t.snapshots) - 1; i >= 0; i-- {
		origins := t.snapshots[i].origins
		if current < 1 || current > len(origins) {
			return 0
		}
		current = origins[current-1]
		if current == 0 {
			return 0
		}
	}
	return current
}

// Depth returns how many snapshots have been recorded.
func (t *Tracker) Depth() int {
	return len(t.snapshots)
}
