package parser

import (
	"testing"

	"github.com/kasm-riscv/kasm/internal/diagnostics"
	"github.com/kasm-riscv/kasm/internal/ir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsesInstructionWithRegisterOperands(t *testing.T) {
	diags := diagnostics.NewList("prog.s")
	ops := Parse("add x1, x2, x3", diags)

	require.Len(t, ops, 1)
	assert.Equal(t, ir.KindInstruction, ops[0].Kind)
	assert.Equal(t, "add", ops[0].Mnemonic.Text)
	require.Len(t, ops[0].Operands, 3)
	assert.Equal(t, ir.OperandIdentifier, ops[0].Operands[0].Kind)
	assert.Equal(t, "x1", ops[0].Operands[0].Text.Text)
	assert.False(t, diags.HasErrors())
}

func TestParsesImmediateOperand(t *testing.T) {
	diags := diagnostics.NewList("prog.s")
	ops := Parse("addi x1, x2, -3", diags)

	require.Len(t, ops, 1)
	require.Len(t, ops[0].Operands, 3)
	assert.Equal(t, ir.OperandImmediate, ops[0].Operands[2].Kind)
	assert.Equal(t, "-3", ops[0].Operands[2].Text.Text)
}

func TestParsesLabelAloneOnLine(t *testing.T) {
	diags := diagnostics.NewList("prog.s")
	ops := Parse("loop:", diags)

	require.Len(t, ops, 1)
	assert.Equal(t, ir.KindLabel, ops[0].Kind)
	assert.Equal(t, "loop", ops[0].Label.Text)
}

func TestParsesLabelFollowedByInstructionOnSameLine(t *testing.T) {
	diags := diagnostics.NewList("prog.s")
	ops := Parse("loop: addi x1, x1, 1", diags)

	require.Len(t, ops, 2)
	assert.Equal(t, ir.KindLabel, ops[0].Kind)
	assert.Equal(t, ir.KindInstruction, ops[1].Kind)
	assert.Equal(t, "addi", ops[1].Mnemonic.Text)
}

func TestParsesDirectiveWithArgs(t *testing.T) {
	diags := diagnostics.NewList("prog.s")
	ops := Parse(".section data", diags)

	require.Len(t, ops, 1)
	assert.Equal(t, ir.KindDirective, ops[0].Kind)
	assert.Equal(t, ".section", ops[0].DirectiveName.Text)
	require.Len(t, ops[0].DirectiveArgs, 1)
	assert.Equal(t, "data", ops[0].DirectiveArgs[0].Text)
}

func TestParsesMemoryOperand(t *testing.T) {
	diags := diagnostics.NewList("prog.s")
	ops := Parse("lw x1, 8(x2)", diags)

	require.Len(t, ops, 1)
	require.Len(t, ops[0].Operands, 2)
	mem := ops[0].Operands[1]
	assert.Equal(t, ir.OperandMemory, mem.Kind)
	require.Len(t, mem.Components, 2)
	assert.Equal(t, "8", mem.Components[0].Text)
	assert.Equal(t, "x2", mem.Components[1].Text)
}

func TestSkipsBlankAndCommentLines(t *testing.T) {
	diags := diagnostics.NewList("prog.s")
	ops := Parse("\n   \n; just a comment\nadd x1, x2, x3 ; trailing comment\n", diags)

	require.Len(t, ops, 1)
	assert.Equal(t, "add", ops[0].Mnemonic.Text)
}

func TestMalformedLineRecordsDiagnosticAndContinues(t *testing.T) {
	diags := diagnostics.NewList("prog.s")
	ops := Parse("add x1, , x3\nsub x1, x2, x3", diags)

	assert.True(t, diags.HasErrors())
	require.Len(t, ops, 1)
	assert.Equal(t, "sub", ops[0].Mnemonic.Text)
}

func TestLineAndColumnAreRecorded(t *testing.T) {
	diags := diagnostics.NewList("prog.s")
	ops := Parse("add x1, x2, x3\nsub x4, x5, x6", diags)

	require.Len(t, ops, 2)
	assert.Equal(t, 1, ops[0].Line)
	assert.Equal(t, 2, ops[1].Line)
	assert.Equal(t, 1, ops[0].Mnemonic.Column)
}
