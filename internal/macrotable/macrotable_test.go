package macrotable

import (
	"testing"

	"github.com/kasm-riscv/kasm/internal/diagnostics"
	"github.com/kasm-riscv/kasm/internal/ir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func directive(name string, args ...string) ir.Operation {
	argOps := make([]ir.PositionedString, len(args))
	for i, a := range args {
		argOps[i] = ir.PositionedString{Text: a}
	}
	return ir.Operation{Kind: ir.KindDirective, DirectiveName: ir.PositionedString{Text: name}, DirectiveArgs: argOps}
}

func instruction(mnemonic string, operands ...ir.Operand) ir.Operation {
	return ir.Operation{Kind: ir.KindInstruction, Mnemonic: ir.PositionedString{Text: mnemonic}, Operands: operands}
}

func ident(name string) ir.Operand {
	return ir.Operand{Kind: ir.OperandIdentifier, Text: ir.PositionedString{Text: name}}
}

func TestExpandsSimpleMacroCall(t *testing.T) {
	ops := []ir.Operation{
		directive(".macro", "double", "dst", "src"),
		instruction("add", ident("dst"), ident("src"), ident("src")),
		directive(".endmacro"),
		instruction("double", ident("x1"), ident("x2")),
	}
	diags := diagnostics.NewList("prog.s")
	out := Expand(ops, diags)

	require.False(t, diags.HasErrors())
	require.Len(t, out, 1)
	assert.Equal(t, "add", out[0].Mnemonic.Text)
	assert.Equal(t, "x1", out[0].Operands[0].Text.Text)
	assert.Equal(t, "x2", out[0].Operands[1].Text.Text)
	assert.Equal(t, "x2", out[0].Operands[2].Text.Text)
}

func TestNonMacroInstructionsPassThrough(t *testing.T) {
	ops := []ir.Operation{instruction("add", ident("x1"), ident("x2"), ident("x3"))}
	diags := diagnostics.NewList("prog.s")
	out := Expand(ops, diags)

	require.Len(t, out, 1)
	assert.Equal(t, "add", out[0].Mnemonic.Text)
}

func TestRecursiveMacroReportsErrorAndLeavesCallUnexpanded(t *testing.T) {
	ops := []ir.Operation{
		directive(".macro", "loopy", "x"),
		instruction("loopy", ident("x")),
		directive(".endmacro"),
		instruction("loopy", ident("x1")),
	}
	diags := diagnostics.NewList("prog.s")
	out := Expand(ops, diags)

	assert.True(t, diags.HasErrors())
	require.Len(t, out, 1)
	assert.Equal(t, "loopy", out[0].Mnemonic.Text)
}

func TestMutualRecursionIsDetected(t *testing.T) {
	ops := []ir.Operation{
		directive(".macro", "a", "x"),
		instruction("b", ident("x")),
		directive(".endmacro"),
		directive(".macro", "b", "x"),
		instruction("a", ident("x")),
		directive(".endmacro"),
		instruction("a", ident("x1")),
	}
	diags := diagnostics.NewList("prog.s")
	Expand(ops, diags)

	assert.True(t, diags.HasErrors())
}

func TestDuplicateMacroDefinitionIsAnError(t *testing.T) {
	ops := []ir.Operation{
		directive(".macro", "dup"),
		instruction("nop"),
		directive(".endmacro"),
		directive(".macro", "dup"),
		instruction("nop"),
		directive(".endmacro"),
	}
	diags := diagnostics.NewList("prog.s")
	Expand(ops, diags)

	assert.True(t, diags.HasErrors())
}

func TestWrongArgumentCountWithoutDefaultIsAnError(t *testing.T) {
	ops := []ir.Operation{
		directive(".macro", "needs2", "a", "b"),
		instruction("add", ident("a"), ident("b"), ident("b")),
		directive(".endmacro"),
		instruction("needs2", ident("x1")),
	}
	diags := diagnostics.NewList("prog.s")
	out := Expand(ops, diags)

	assert.True(t, diags.HasErrors())
	require.Len(t, out, 1)
	assert.Equal(t, "needs2", out[0].Mnemonic.Text)
}

func TestDefaultParameterFillsOmittedArgument(t *testing.T) {
	def := ident("x0")
	table := New()
	require.NoError(t, table.Define(Macro{
		Name: "incr",
		Parameters: []Parameter{
			{Name: "dst"},
			{Name: "amount", Default: &def},
		},
		Body: []ir.Operation{instruction("addi", ident("dst"), ident("dst"), ident("amount"))},
	}))

	call := instruction("incr", ident("x1"))
	expanded, err := table.expandCall(call, mustLookup(t, table, "incr"), map[string]bool{"incr": true})
	require.NoError(t, err)
	require.Len(t, expanded, 1)
	assert.Equal(t, "x0", expanded[0].Operands[2].Text.Text)
}

func mustLookup(t *testing.T, table *Table, name string) Macro {
	t.Helper()
	m, ok := table.Lookup(name)
	require.True(t, ok)
	return m
}
