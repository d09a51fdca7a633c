// Package ir implements the intermediate representation the parser
// produces and the macro/symbol expansion and memory-allocation phases
// consume: one Operation per logical source line, plus the PositionedString
// values (spec §3) that track each token back to its origin for
// diagnostics.
//
// Grounded on the teacher's v0/kasm/ast.go Statement/Operand sum types
// (InstructionStmt/LabelStmt/DirectiveStmt + Register/Immediate/
// Identifier/String/MemoryOperand), collapsed into one tagged Operation
// struct and one tagged Operand struct per spec.md §9's "replacing deep
// inheritance" note — the same move already made for internal/ast.Node.
package ir

import "github.com/kasm-riscv/kasm/internal/linemap"

// PositionedString is a token's literal text plus the source position it
// came from, threaded through every pipeline phase so a late-stage
// diagnostic (bad register name, undefined symbol) can still point at the
// line the programmer wrote, per spec §3.
type PositionedString struct {
	Text   string
	Line   int
	Column int
}

// Kind identifies which Operation variant an Operation is.
type Kind int

const (
	KindLabel Kind = iota
	KindDirective
	KindMacroInvocation
	KindInstruction
)

func (k Kind) String() string {
	switch k {
	case KindLabel:
		return "label"
	case KindDirective:
		return "directive"
	case KindMacroInvocation:
		return "macro-invocation"
	case KindInstruction:
		return "instruction"
	default:
		return "unknown"
	}
}

// OperandKind identifies which Operand variant an instruction argument is.
type OperandKind int

const (
	OperandRegister OperandKind = iota
	OperandImmediate
	OperandIdentifier
	OperandString
	OperandMemory
)

// Operand is a single instruction/macro-invocation argument. Which fields
// are meaningful depends on OperandKind:
//   - OperandRegister/OperandIdentifier/OperandString: Text.
//   - OperandImmediate: Text holds the literal digits (with an optional
//     "0x" prefix); numeric conversion happens during expression
//     compilation (internal/expr), not here.
//   - OperandMemory: Components holds the operand's sub-tokens in order.
//     An "offset(base)" operand holds exactly [offset, base] (parentheses
//     dropped); any other multi-token operand holds every raw token,
//     operators included.
type Operand struct {
	Kind       OperandKind
	Text       PositionedString
	Components []PositionedString
}

// Operation is the single IR node type for every variant spec §3/§4.6
// describe: label declarations, assembler directives, macro invocations,
// and instruction statements.
type Operation struct {
	Kind Kind

	// Mnemonic is the instruction mnemonic (KindInstruction) or the macro
	// name (KindMacroInvocation). Empty otherwise.
	Mnemonic PositionedString

	// Label is the declared label name (KindLabel only).
	Label PositionedString

	// DirectiveName and DirectiveArgs describe a KindDirective node (e.g.
	// ".section text" -> DirectiveName=".section", DirectiveArgs=["text"]).
	DirectiveName PositionedString
	DirectiveArgs []PositionedString

	// Operands holds the instruction/macro-invocation argument list
	// (KindInstruction/KindMacroInvocation only).
	Operands []Operand

	// Line is the 1-based line this operation occupies in the source
	// snapshot it was parsed from (before any macro expansion).
	Line int
}

// Origin traces this operation's Line back through tracker to the line
// number in the original, unexpanded source, or 0 if it has no origin
// (the operation was introduced by macro expansion).
func (op Operation) Origin(tracker *linemap.Tracker) int {
	if tracker == nil {
		return op.Line
	}
	return tracker.Origin(op.Line)
}
