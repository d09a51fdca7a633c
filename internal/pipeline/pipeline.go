// Package pipeline implements spec §4.6's four-phase assembly driver:
// precompile, macro expansion, memory allocation, and execute-into-final-
// representation, wiring internal/parser, internal/macrotable,
// internal/symtab, internal/allocator, and internal/syntaxgen together
// into one Assemble entry point, plus a Run loop (SPEC_FULL's "kasm run")
// that steps the resulting AST against a Store.
//
// Grounded on the teacher's v0/kasm/codegen.go Generate/codegen_passes.go
// (a fixed sequence of named passes over the parsed program, a current
// section tracked across statements, defaulting unlabeled instructions to
// ".text" per its own FR-3.2), adapted from "emit machine code bytes" to
// "build validated AST nodes against a Store" since kasm interprets rather
// than encodes.
package pipeline

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kasm-riscv/kasm/internal/allocator"
	"github.com/kasm-riscv/kasm/internal/arch"
	"github.com/kasm-riscv/kasm/internal/ast"
	"github.com/kasm-riscv/kasm/internal/diagnostics"
	"github.com/kasm-riscv/kasm/internal/expr"
	"github.com/kasm-riscv/kasm/internal/ir"
	"github.com/kasm-riscv/kasm/internal/macrotable"
	"github.com/kasm-riscv/kasm/internal/memvalue"
	"github.com/kasm-riscv/kasm/internal/parser"
	"github.com/kasm-riscv/kasm/internal/store"
	"github.com/kasm-riscv/kasm/internal/symtab"
	"github.com/kasm-riscv/kasm/internal/syntaxgen"
)

// dataDirectiveWidths maps each data directive to its item width in bytes.
var dataDirectiveWidths = map[string]int{
	".byte":  1,
	".half":  2,
	".word":  4,
	".dword": 8,
}

// sectionDirectives are bare directives that switch the current section
// without taking a name argument, mirroring the teacher's "section .text"/
// "section .data" statements collapsed into their own mnemonics.
var sectionDirectives = map[string]bool{
	".text": true,
	".data": true,
	".bss":  true,
}

// defaultSection is where every instruction lands, whatever section
// directive precedes it, and where labels land until a section directive
// switches the current section (the teacher's FR-3.2). Data directives
// always land in ".data".
const defaultSection = ".text"

// Instruction is one instruction operation placed at a concrete address.
type Instruction struct {
	Node    *ast.Node
	Address uint64
	Line    int
}

// FinalRepresentation is the product of Assemble: a validated architecture,
// a Store sized and laid out per the program's sections, the ordered,
// addressed instruction nodes, and every diagnostic accumulated along the
// way.
type FinalRepresentation struct {
	Architecture arch.Architecture
	Store        *store.Store
	Instructions []Instruction
	Labels       map[string]uint64
	Diagnostics  *diagnostics.List

	byAddress map[uint64]int
	entry     uint64
}

// Assemble runs every phase of spec §4.6 over source against architecture,
// producing a FinalRepresentation with a Store backed by memorySize bytes
// of main memory. Per-operation errors are recorded into the returned
// FinalRepresentation.Diagnostics and the offending operation is skipped;
// Assemble itself only returns an error when symtab reports an unresolved
// forward reference.
func Assemble(architecture arch.Architecture, filePath, source string, memorySize int) (*FinalRepresentation, error) {
	diags := diagnostics.NewList(filePath)

	ops := parser.Parse(source, diags)
	ops = macrotable.Expand(ops, diags)

	symbols := symtab.New()
	alloc := allocator.New(0)

	body := precompileConstants(ops, symbols, diags)
	labelTokens, instrTokens, dataOps := allocateMemory(body, alloc, diags)

	alloc.Finalize()

	for name, token := range labelTokens {
		addr, err := alloc.Address(token)
		if err != nil {
			diags.Error(diags.Loc(0, 1), err.Error())
			continue
		}
		if err := symbols.Define(name, symtab.KindLabel, addr); err != nil {
			diags.Error(diags.Loc(0, 1), err.Error())
		}
	}
	if err := symbols.ResolveForwardReferences(); err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}

	st := store.New(architecture, memorySize)

	diags.SetPhase("execute")
	writeDataOperations(dataOps, alloc, symbols, architecture, st, diags)

	fr := &FinalRepresentation{
		Architecture: architecture,
		Store:        st,
		Labels:       snapshotLabels(symbols, labelTokens, alloc),
		Diagnostics:  diags,
		byAddress:    make(map[uint64]int),
	}

	textBase, err := alloc.SectionAddress(defaultSection)
	if err == nil {
		fr.entry = textBase
	}

	for i, pending := range instrTokens {
		addr, err := alloc.Address(pending.token)
		if err != nil {
			diags.Error(diags.Loc(pending.op.Line, 1), err.Error())
			continue
		}
		node, err := generateInstruction(pending.op, addr, symbols, architecture, st)
		if err != nil {
			diags.Error(diags.Loc(pending.op.Line, 1), fmt.Sprintf("execute: %s", err))
			continue
		}
		fr.byAddress[addr] = len(fr.Instructions)
		fr.Instructions = append(fr.Instructions, Instruction{Node: node, Address: addr, Line: pending.op.Line})
		_ = i
	}

	return fr, nil
}

func snapshotLabels(symbols *symtab.Table, tokens map[string]int, alloc *allocator.Allocator) map[string]uint64 {
	out := make(map[string]uint64, len(tokens))
	for name := range tokens {
		if v, err := symbols.Get(name); err == nil {
			out[name] = v
		}
	}
	return out
}

// precompileConstants implements phase 1: every ".equ" directive registers
// a constant (resolved via a bounded fixed point so one constant may refer
// to another), and every remaining non-definition operation is returned
// for the later phases.
func precompileConstants(ops []ir.Operation, symbols *symtab.Table, diags *diagnostics.List) []ir.Operation {
	diags.SetPhase("precompile")

	var rest []ir.Operation
	pending := make(map[string]func(*symtab.Table) (uint64, error))

	for _, op := range ops {
		if op.Kind == ir.KindDirective && op.DirectiveName.Text == ".equ" {
			if len(op.DirectiveArgs) < 2 {
				diags.Error(diags.Loc(op.Line, 1), ".equ requires a name and a value")
				continue
			}
			name := op.DirectiveArgs[0].Text
			exprTokens := op.DirectiveArgs[1:]
			pending[name] = func(t *symtab.Table) (uint64, error) {
				text := joinSubstituted(exprTokens, t)
				value, err := expr.Compile(text)
				if err != nil {
					return 0, err
				}
				return uint64(value), nil
			}
			continue
		}
		rest = append(rest, op)
	}

	if err := symbols.ResolveConstants(pending); err != nil {
		diags.Error(diags.Loc(0, 1), err.Error())
	}
	return rest
}

// joinSubstituted rebuilds tokens into one expression string, replacing any
// token that names an already-resolved symbol with its decimal value, so
// expr.Compile never has to know about identifiers.
func joinSubstituted(tokens []ir.PositionedString, symbols *symtab.Table) string {
	parts := make([]string, len(tokens))
	for i, tok := range tokens {
		parts[i] = resolveText(tok.Text, symbols, nil)
	}
	return strings.Join(parts, " ")
}

// resolveText substitutes text with its resolved symbol value (as decimal
// digits) if text is an identifier naming a defined symtab entry that is
// not a register of architecture (nil architecture skips the register
// check, used by .equ resolution where no architecture is in scope yet).
// Anything else — a register name, a number, an operator, an unresolved
// identifier — passes through unchanged.
func resolveText(text string, symbols *symtab.Table, architecture *arch.Architecture) string {
	if text == "" || !isIdentifierStart(rune(text[0])) {
		return text
	}
	if architecture != nil && architecture.IsRegisterName(text) {
		return text
	}
	sym, ok := symbols.Lookup(text)
	if !ok || !sym.Defined {
		return text
	}
	return strconv.FormatUint(sym.Value, 10)
}

func isIdentifierStart(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_'
}

type pendingInstruction struct {
	token int
	op    ir.Operation
}

type pendingData struct {
	token     int
	op        ir.Operation
	width     int
	itemCount int
}

// allocateMemory implements phase 3: walks body in order, tracking the
// current section (spec §4.6's ".text"/".data" target), reserving space
// for every label (a zero-size reservation, capturing its exact offset),
// instruction (4 bytes, 1-byte aligned), and data directive (one
// reservation of width*itemCount bytes, aligned to width).
func allocateMemory(body []ir.Operation, alloc *allocator.Allocator, diags *diagnostics.List) (map[string]int, []pendingInstruction, []pendingData) {
	diags.SetPhase("memory-allocation")

	section := defaultSection
	labelTokens := make(map[string]int)
	var instrTokens []pendingInstruction
	var dataOps []pendingData

	for _, op := range body {
		switch op.Kind {
		case ir.KindLabel:
			token, err := alloc.Reserve(section, 0, 1)
			if err != nil {
				diags.Error(diags.Loc(op.Line, 1), err.Error())
				continue
			}
			if _, exists := labelTokens[op.Label.Text]; exists {
				diags.Error(diags.Loc(op.Line, op.Label.Column), fmt.Sprintf("label %q is already defined", op.Label.Text))
				continue
			}
			labelTokens[op.Label.Text] = token

		case ir.KindDirective:
			name := op.DirectiveName.Text
			switch {
			case sectionDirectives[name]:
				section = name
			case name == ".section":
				if len(op.DirectiveArgs) == 0 {
					diags.Error(diags.Loc(op.Line, 1), ".section requires a name")
					continue
				}
				section = op.DirectiveArgs[0].Text
			case dataDirectiveWidths[name] != 0:
				width := dataDirectiveWidths[name]
				if len(op.DirectiveArgs) == 0 {
					diags.Error(diags.Loc(op.Line, 1), fmt.Sprintf("%s requires at least one value", name))
					continue
				}
				token, err := alloc.Reserve(".data", width*len(op.DirectiveArgs), width)
				if err != nil {
					diags.Error(diags.Loc(op.Line, 1), err.Error())
					continue
				}
				dataOps = append(dataOps, pendingData{token: token, op: op, width: width, itemCount: len(op.DirectiveArgs)})
			default:
				diags.Error(diags.Loc(op.Line, 1), fmt.Sprintf("unknown directive %q", name))
			}

		case ir.KindInstruction:
			token, err := alloc.Reserve(defaultSection, 4, 1)
			if err != nil {
				diags.Error(diags.Loc(op.Line, 1), err.Error())
				continue
			}
			instrTokens = append(instrTokens, pendingInstruction{token: token, op: op})

		case ir.KindMacroInvocation:
			diags.Error(diags.Loc(op.Line, 1), fmt.Sprintf("unresolved macro invocation %q", op.Mnemonic.Text))
		}
	}

	return labelTokens, instrTokens, dataOps
}

// writeDataOperations evaluates each data directive's items (resolving any
// symbol references against the now-final symtab) and writes the bytes
// into st at the address allocateMemory reserved for it.
func writeDataOperations(dataOps []pendingData, alloc *allocator.Allocator, symbols *symtab.Table, architecture arch.Architecture, st *store.Store, diags *diagnostics.List) {
	for _, pd := range dataOps {
		addr, err := alloc.Address(pd.token)
		if err != nil {
			diags.Error(diags.Loc(pd.op.Line, 1), err.Error())
			continue
		}
		for i, arg := range pd.op.DirectiveArgs {
			text := resolveText(arg.Text, symbols, &architecture)
			value, err := expr.Compile(text)
			if err != nil {
				diags.Error(diags.Loc(pd.op.Line, arg.Column), fmt.Sprintf("%s: %s", pd.op.DirectiveName.Text, err))
				continue
			}
			mv, err := memvalue.FromInteger(value, pd.width*8, memvalue.LittleEndian, memvalue.TwosComplement)
			if err != nil {
				diags.Error(diags.Loc(pd.op.Line, arg.Column), err.Error())
				continue
			}
			if err := st.PutAt(int(addr)+i*pd.width, mv); err != nil {
				diags.Error(diags.Loc(pd.op.Line, arg.Column), err.Error())
			}
		}
	}
}

// pcRelativeOperand reports which operand index of mnemonic carries a
// branch/jump target written in the source's halfword-multiple convention
// (internal/ast's execBranch/execJump double it back into a byte offset),
// so a label reference at that position must be resolved to
// (target-current)/2 rather than to its raw absolute address.
func pcRelativeOperand(mnemonic string) (index int, ok bool) {
	switch mnemonic {
	case "beq", "bne", "blt", "bge", "bltu", "bgeu":
		return 2, true
	case "jal":
		return 1, true
	case "j":
		return 0, true
	default:
		return 0, false
	}
}

// generateInstruction resolves op's symbol-reference operands against
// symbols (pc-relative for a branch/jump target, absolute otherwise) and
// hands the result to internal/syntaxgen.
func generateInstruction(op ir.Operation, address uint64, symbols *symtab.Table, architecture arch.Architecture, st *store.Store) (*ast.Node, error) {
	pcIndex, isPCRelative := pcRelativeOperand(op.Mnemonic.Text)

	resolved := op
	resolved.Operands = make([]ir.Operand, len(op.Operands))
	for i, operand := range op.Operands {
		relative := isPCRelative && i == pcIndex
		newOperand, err := resolveOperand(operand, symbols, architecture, address, relative)
		if err != nil {
			return nil, err
		}
		resolved.Operands[i] = newOperand
	}

	return syntaxgen.Generate(resolved, st)
}

// resolveOperand substitutes any symbol reference inside operand with its
// literal numeric text: a bare identifier that names a label or constant
// (not a register) becomes an OperandImmediate; a memory operand's
// "offset(base)" components, or a generic multi-token expression operand,
// get their identifier sub-tokens substituted the same way joinSubstituted
// does for .equ. pcRelative selects (target-current)/2 instead of the
// absolute value, for a branch/jump's target operand.
func resolveOperand(operand ir.Operand, symbols *symtab.Table, architecture arch.Architecture, current uint64, pcRelative bool) (ir.Operand, error) {
	switch operand.Kind {
	case ir.OperandIdentifier:
		if architecture.IsRegisterName(operand.Text.Text) {
			return operand, nil
		}
		value, err := resolveSymbolValue(operand.Text.Text, symbols, current, pcRelative)
		if err != nil {
			return operand, err
		}
		return ir.Operand{Kind: ir.OperandImmediate, Text: ir.PositionedString{
			Text: strconv.FormatInt(value, 10), Line: operand.Text.Line, Column: operand.Text.Column,
		}}, nil

	case ir.OperandMemory:
		out := operand
		out.Components = make([]ir.PositionedString, len(operand.Components))
		for i, c := range operand.Components {
			out.Components[i] = ir.PositionedString{
				Text: resolveText(c.Text, symbols, &architecture), Line: c.Line, Column: c.Column,
			}
		}
		return out, nil

	default:
		return operand, nil
	}
}

func resolveSymbolValue(name string, symbols *symtab.Table, current uint64, pcRelative bool) (int64, error) {
	value, err := symbols.Get(name)
	if err != nil {
		return 0, err
	}
	if !pcRelative {
		return int64(value), nil
	}
	delta := int64(value) - int64(current)
	if delta%2 != 0 {
		return 0, fmt.Errorf("pipeline: branch/jump target %q is not 2-byte aligned relative to its instruction", name)
	}
	return delta / 2, nil
}

// Run steps the final representation starting at its ".text" section's
// base address, executing one instruction per iteration by calling its
// node's GetValue and writing the result back into "pc": branch/jump
// families return the new program counter directly; every other family
// returns a placeholder, so Run advances by 4 bytes itself (spec §4.4).
// Run halts and returns nil when pc no longer names a known instruction
// address (the program has run off the end); after maxSteps iterations
// without halting it stops and returns an error.
func (fr *FinalRepresentation) Run(maxSteps int) error {
	if err := fr.Store.PutRegister("pc", zeroFor(fr.Architecture.WordSize, fr.entry)); err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}

	for step := 0; step < maxSteps; step++ {
		pcv, err := fr.Store.GetRegister("pc")
		if err != nil {
			return fmt.Errorf("pipeline: %w", err)
		}
		pc, err := memvalue.ToUnsigned(pcv, memvalue.LittleEndian)
		if err != nil {
			return fmt.Errorf("pipeline: %w", err)
		}

		idx, ok := fr.byAddress[pc]
		if !ok {
			return nil // ran off the end of the program: halt
		}
		instr := fr.Instructions[idx]

		result, err := instr.Node.GetValue(fr.Store)
		if err != nil {
			return fmt.Errorf("pipeline: instruction at line %d: %w", instr.Line, err)
		}

		var nextPC uint64
		switch instr.Node.Family {
		case ast.FamilyBranch, ast.FamilyJump:
			nextPC, err = memvalue.ToUnsigned(result, memvalue.LittleEndian)
			if err != nil {
				return fmt.Errorf("pipeline: %w", err)
			}
		default:
			nextPC = pc + 4
		}

		pcValue, err := memvalue.FromInteger(int64(nextPC), fr.Architecture.WordSize, memvalue.LittleEndian, memvalue.TwosComplement)
		if err != nil {
			return fmt.Errorf("pipeline: %w", err)
		}
		if err := fr.Store.PutRegister("pc", pcValue); err != nil {
			return fmt.Errorf("pipeline: %w", err)
		}
	}
	return fmt.Errorf("pipeline: exceeded %d steps without halting", maxSteps)
}

func zeroFor(width int, value uint64) memvalue.MemoryValue {
	mv, err := memvalue.FromInteger(int64(value), width, memvalue.LittleEndian, memvalue.TwosComplement)
	if err != nil {
		// width/value come from Assemble's own architecture and allocator;
		// a mismatch here means the architecture was never validated.
		panic(err)
	}
	return mv
}
