// Package arch implements the modular ISA description: Architecture, Unit,
// Register, Instruction, Extension, and the ExtensionAssembler that resolves
// an ExtensionFormula into a validated Architecture.
package arch

import "github.com/kasm-riscv/kasm/internal/memvalue"

// AlignmentPolicy selects how strictly instruction/data alignment is
// enforced.
type AlignmentPolicy int

const (
	Strict AlignmentPolicy = iota
	Relaxed
)

// RegisterType classifies what a register is used for.
type RegisterType int

const (
	IntegerRegister RegisterType = iota
	FloatRegister
	VectorRegister
	FlagRegister
	LinkRegister
	ProgramCounterRegister
)

// Constituent describes a sub-register exposed by bit-range inside an
// enclosing register.
type Constituent struct {
	ChildID        string
	BitOffsetInEnclosing int
}

// Register describes one architectural register.
type Register struct {
	ID           string
	Name         string
	Aliases      []string
	Width        int
	Type         RegisterType
	Hardwired    *memvalue.MemoryValue // nil unless the register is constant
	Enclosing    string                // "" if this register has no enclosing register
	Constituents []Constituent
}

// IsHardwired reports whether this register always reads a fixed constant
// and silently discards writes.
func (r Register) IsHardwired() bool {
	return r.Hardwired != nil
}

// Unit is a named collection of registers (e.g. "cpu", "fpu").
type Unit struct {
	Name      string
	Registers map[string]Register // keyed by Register.ID
}

// Instruction is an architecture-level instruction descriptor: a mnemonic
// plus an opaque key (opcode/function fields) carried through from the
// extension data without interpretation by this package.
type Instruction struct {
	Name string
	Key  map[string]any
}

// Architecture is the assembled, immutable ISA description produced by the
// Assembler. It is either "open" (mutable, fields being filled in during
// assembly) or "validated" (frozen, invariants checked) — modeled here as
// the same struct with an internal `validated` flag rather than two
// distinct Go types, per spec §9's note that either modeling satisfies the
// Builder/Validate contract.
type Architecture struct {
	Name                 string
	Endianness           memvalue.Endianness
	EndiannessSet        bool
	Alignment            AlignmentPolicy
	AlignmentSet         bool
	SignedRepresentation memvalue.SignedRepresentation
	WordSize             int // bits
	WordSizeSet          bool
	ByteSize             int // bits
	ByteSizeSet          bool

	Units        map[string]Unit
	Instructions map[string]Instruction

	validated bool
}

// NewOpenArchitecture returns an empty, mutable Architecture ready to be
// extended by merging in Extensions.
func NewOpenArchitecture(name string) Architecture {
	return Architecture{
		Name:         name,
		Units:        make(map[string]Unit),
		Instructions: make(map[string]Instruction),
	}
}

// IsValidated reports whether Validate has succeeded on this Architecture.
func (a Architecture) IsValidated() bool {
	return a.validated
}

// RegisterByID searches every unit for a register with the given id.
func (a Architecture) RegisterByID(id string) (Register, bool) {
	for _, unit := range a.Units {
		if reg, ok := unit.Registers[id]; ok {
			return reg, true
		}
	}
	return Register{}, false
}

// RegisterByName searches every unit for a register with the given name or
// alias.
func (a Architecture) RegisterByName(name string) (Register, bool) {
	for _, unit := range a.Units {
		for _, reg := range unit.Registers {
			if reg.Name == name {
				return reg, true
			}
			for _, alias := range reg.Aliases {
				if alias == name {
					return reg, true
				}
			}
		}
	}
	return Register{}, false
}

// IsRegisterName reports whether name refers to a known register (by name
// or alias).
func (a Architecture) IsRegisterName(name string) bool {
	_, ok := a.RegisterByName(name)
	return ok
}

// InstructionByName looks up an instruction descriptor by mnemonic.
func (a Architecture) InstructionByName(name string) (Instruction, bool) {
	instr, ok := a.Instructions[name]
	return instr, ok
}
