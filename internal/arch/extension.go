package arch

import "github.com/kasm-riscv/kasm/internal/memvalue"

// Extension is a partial, mergeable Architecture fragment, as loaded from an
// extio.Provider record. Optional scalar fields use the *T / bool-set
// convention so that "was this field set?" is queryable, per spec §9's note
// on Optional-valued information fields.
type Extension struct {
	Name string

	Endianness    *memvalue.Endianness
	Alignment     *AlignmentPolicy
	WordSize      *int
	ByteSize      *int

	Units        map[string]Unit
	Instructions map[string]Instruction

	Extends []string

	ResetInstructions bool
	ResetUnits        bool
}

// NewExtension returns an empty Extension ready to be deserialized into or
// merged with dependency results.
func NewExtension(name string) Extension {
	return Extension{
		Name:         name,
		Units:        make(map[string]Unit),
		Instructions: make(map[string]Instruction),
	}
}

// clearInstructions discards every instruction accumulated so far. Used when
// the extension data sets reset-instructions.
func (e *Extension) clearInstructions() {
	e.Instructions = make(map[string]Instruction)
}

// clearUnits discards every unit accumulated so far. Used when the
// extension data sets reset-units.
func (e *Extension) clearUnits() {
	e.Units = make(map[string]Unit)
}

// mergeUnit merges b's registers into a's unit of the same name, taking the
// union of registers; if both define a register with the same id, the
// later (b's) definition wins.
func mergeUnit(a, b Unit) Unit {
	out := Unit{
		Name:      a.Name,
		Registers: make(map[string]Register, len(a.Registers)+len(b.Registers)),
	}
	for id, reg := range a.Registers {
		out.Registers[id] = reg
	}
	for id, reg := range b.Registers {
		out.Registers[id] = reg // later definition wins
	}
	return out
}

// merge merges dependency extension `b` into the receiver `a`, per spec
// §4.2's merge rule: b's optional scalars replace a's when set; b's
// instructions are appended; units are unioned per mergeUnit. The receiver
// is mutated in place.
func (a *Extension) merge(b Extension) {
	if b.Endianness != nil {
		a.Endianness = b.Endianness
	}
	if b.Alignment != nil {
		a.Alignment = b.Alignment
	}
	if b.WordSize != nil {
		a.WordSize = b.WordSize
	}
	if b.ByteSize != nil {
		a.ByteSize = b.ByteSize
	}

	if a.Instructions == nil {
		a.Instructions = make(map[string]Instruction)
	}
	for name, instr := range b.Instructions {
		a.Instructions[name] = instr
	}

	if a.Units == nil {
		a.Units = make(map[string]Unit)
	}
	for name, unit := range b.Units {
		if existing, ok := a.Units[name]; ok {
			a.Units[name] = mergeUnit(existing, unit)
		} else {
			a.Units[name] = unit
		}
	}
}

// extend merges extension e directly into architecture a ("later writes
// win" over whatever a had, since e is assumed to be the next extension in
// formula order). This is the final formula-order merge step of §4.2, after
// every named extension has been independently resolved via merge/hull.
func (a *Architecture) extend(e Extension) {
	if e.Endianness != nil {
		a.Endianness = *e.Endianness
		a.EndiannessSet = true
	}
	if e.Alignment != nil {
		a.Alignment = *e.Alignment
		a.AlignmentSet = true
	}
	if e.WordSize != nil {
		a.WordSize = *e.WordSize
		a.WordSizeSet = true
	}
	if e.ByteSize != nil {
		a.ByteSize = *e.ByteSize
		a.ByteSizeSet = true
	}

	for name, instr := range e.Instructions {
		a.Instructions[name] = instr
	}
	for name, unit := range e.Units {
		if existing, ok := a.Units[name]; ok {
			a.Units[name] = mergeUnit(existing, unit)
		} else {
			a.Units[name] = unit
		}
	}
}
