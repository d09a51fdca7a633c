package arch

// Formula is an ordered pair of (architecture name, extension names), the
// first extension being the base. It names which extensions compose an
// Architecture.
type Formula struct {
	ArchitectureName string
	Extensions       []string
}

// NewFormula returns a Formula for the given architecture name and ordered
// extension list (base first).
func NewFormula(architectureName string, extensions ...string) Formula {
	return Formula{ArchitectureName: architectureName, Extensions: extensions}
}
