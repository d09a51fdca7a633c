// Package diagnostics implements the best-effort diagnostics list spec §7
// describes: a thread-safe, append-only collection of severity- and
// phase-tagged entries that every pipeline stage records into without
// aborting the pass. Adapted from the teacher's internal/debugcontext
// package (Entry/Location/DebugContext), renamed to the vocabulary spec §7
// and the glossary use ("List", not "DebugContext"; "Kind", not a bare
// phase string duplicated as a message prefix).
package diagnostics

import "fmt"

// Location identifies a position in source code. It is a value type, safe
// to copy and compare.
type Location struct {
	filePath string
	line     int
	column   int
}

// Loc creates a Location from a file path, 1-based line, and 1-based
// column (0 means "entire line").
func Loc(filePath string, line, column int) Location {
	return Location{filePath: filePath, line: line, column: column}
}

func (l Location) FilePath() string { return l.filePath }
func (l Location) Line() int        { return l.line }
func (l Location) Column() int      { return l.column }

func (l Location) String() string {
	if l.column == 0 {
		return fmt.Sprintf("%s:%d", l.filePath, l.line)
	}
	return fmt.Sprintf("%s:%d:%d", l.filePath, l.line, l.column)
}
