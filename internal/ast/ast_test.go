package ast

import (
	"testing"

	"github.com/kasm-riscv/kasm/internal/arch"
	"github.com/kasm-riscv/kasm/internal/memvalue"
	"github.com/kasm-riscv/kasm/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T, wordSize int) *store.Store {
	t.Helper()
	a := arch.NewOpenArchitecture("test")
	zero := memvalue.New(wordSize)
	a.Units = map[string]arch.Unit{
		"cpu": {
			Name: "cpu",
			Registers: map[string]arch.Register{
				"x0": {ID: "x0", Name: "x0", Width: wordSize, Type: arch.IntegerRegister, Hardwired: &zero},
				"x1": {ID: "x1", Name: "x1", Width: wordSize, Type: arch.IntegerRegister},
				"x2": {ID: "x2", Name: "x2", Width: wordSize, Type: arch.IntegerRegister},
				"x3": {ID: "x3", Name: "x3", Width: wordSize, Type: arch.IntegerRegister},
				"pc": {ID: "pc", Name: "pc", Width: wordSize, Type: arch.ProgramCounterRegister},
			},
		},
	}
	return store.New(a, 4096)
}

func setReg(t *testing.T, s *store.Store, name string, value uint64, width int) {
	t.Helper()
	v, err := memvalue.FromUnsigned(value, width, memvalue.LittleEndian)
	require.NoError(t, err)
	require.NoError(t, s.PutRegister(name, v))
}

func getRegUint(t *testing.T, s *store.Store, name string) uint64 {
	t.Helper()
	v, err := s.GetRegister(name)
	require.NoError(t, err)
	u, err := memvalue.ToUnsigned(v, memvalue.LittleEndian)
	require.NoError(t, err)
	return u
}

func imm32(t *testing.T, n int64) *Node {
	t.Helper()
	v, err := memvalue.FromInteger(n, 32, memvalue.LittleEndian, memvalue.TwosComplement)
	require.NoError(t, err)
	return NewImmediate(v)
}

func TestAddRegisterRegister(t *testing.T) {
	s := testStore(t, 32)
	setReg(t, s, "x1", 10, 32)
	setReg(t, s, "x2", 32, 32)

	add := NewInstruction("add", FamilyIntRR, 32)
	add.AddChild(NewRegister("x3"))
	add.AddChild(NewRegister("x1"))
	add.AddChild(NewRegister("x2"))

	require.NoError(t, add.Validate(s))
	_, err := add.GetValue(s)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), getRegUint(t, s, "x3"))
}

func TestAddiImmediate(t *testing.T) {
	s := testStore(t, 32)
	setReg(t, s, "x1", 5, 32)

	addi := NewInstruction("addi", FamilyIntRI, 32)
	addi.AddChild(NewRegister("x2"))
	addi.AddChild(NewRegister("x1"))
	addi.AddChild(imm32(t, -3))

	require.NoError(t, addi.Validate(s))
	_, err := addi.GetValue(s)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), getRegUint(t, s, "x2"))
}

func TestDivByZeroReturnsAllOnes(t *testing.T) {
	s := testStore(t, 32)
	setReg(t, s, "x1", 7, 32)
	setReg(t, s, "x2", 0, 32)

	div := NewInstruction("div", FamilyIntRR, 32)
	div.AddChild(NewRegister("x3"))
	div.AddChild(NewRegister("x1"))
	div.AddChild(NewRegister("x2"))

	require.NoError(t, div.Validate(s))
	_, err := div.GetValue(s)
	require.NoError(t, err)
	assert.Equal(t, uint64(0xFFFFFFFF), getRegUint(t, s, "x3"))
}

func TestDivOverflowIntMinByMinusOne(t *testing.T) {
	s := testStore(t, 32)
	setReg(t, s, "x1", 0x80000000, 32) // INT32_MIN
	setReg(t, s, "x2", 0xFFFFFFFF, 32) // -1

	div := NewInstruction("div", FamilyIntRR, 32)
	div.AddChild(NewRegister("x3"))
	div.AddChild(NewRegister("x1"))
	div.AddChild(NewRegister("x2"))

	_, err := div.GetValue(s)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x80000000), getRegUint(t, s, "x3"))
}

func TestRemByZeroReturnsDividend(t *testing.T) {
	s := testStore(t, 32)
	setReg(t, s, "x1", 13, 32)
	setReg(t, s, "x2", 0, 32)

	rem := NewInstruction("rem", FamilyIntRR, 32)
	rem.AddChild(NewRegister("x3"))
	rem.AddChild(NewRegister("x1"))
	rem.AddChild(NewRegister("x2"))

	_, err := rem.GetValue(s)
	require.NoError(t, err)
	assert.Equal(t, uint64(13), getRegUint(t, s, "x3"))
}

func TestMulhSignedSigned(t *testing.T) {
	s := testStore(t, 32)
	// -2 * -2 = 4; high 32 bits of the 64-bit product of two negatives is 0.
	setReg(t, s, "x1", 0xFFFFFFFE, 32) // -2
	setReg(t, s, "x2", 0xFFFFFFFE, 32) // -2

	mulh := NewInstruction("mulh", FamilyIntRR, 32)
	mulh.AddChild(NewRegister("x3"))
	mulh.AddChild(NewRegister("x1"))
	mulh.AddChild(NewRegister("x2"))

	_, err := mulh.GetValue(s)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), getRegUint(t, s, "x3"))
}

func TestAddwSignExtendsOn64Bit(t *testing.T) {
	s := testStore(t, 64)
	setReg(t, s, "x1", 0x7FFFFFFF, 64)
	setReg(t, s, "x2", 1, 64)

	addw := NewInstruction("addw", FamilyIntRR, 64)
	addw.AddChild(NewRegister("x3"))
	addw.AddChild(NewRegister("x1"))
	addw.AddChild(NewRegister("x2"))

	require.NoError(t, addw.Validate(s))
	_, err := addw.GetValue(s)
	require.NoError(t, err)
	// 0x7FFFFFFF + 1 = 0x80000000, a negative 32-bit value, sign-extended
	// to all-ones in the upper 32 bits.
	assert.Equal(t, uint64(0xFFFFFFFF80000000), getRegUint(t, s, "x3"))
}

func TestAddwRejectedOn32BitArchitecture(t *testing.T) {
	s := testStore(t, 32)
	addw := NewInstruction("addw", FamilyIntRR, 32)
	addw.AddChild(NewRegister("x3"))
	addw.AddChild(NewRegister("x1"))
	addw.AddChild(NewRegister("x2"))

	assert.Error(t, addw.Validate(s))
}

func TestBranchTakenAdvancesByOffset(t *testing.T) {
	s := testStore(t, 32)
	setReg(t, s, "pc", 0x100, 32)
	setReg(t, s, "x1", 5, 32)
	setReg(t, s, "x2", 5, 32)

	beq := NewInstruction("beq", FamilyBranch, 32)
	beq.AddChild(NewRegister("x1"))
	beq.AddChild(NewRegister("x2"))
	beq.AddChild(imm32(t, 16))

	require.NoError(t, beq.Validate(s))
	newPC, err := beq.GetValue(s)
	require.NoError(t, err)
	got, err := memvalue.ToUnsigned(newPC, memvalue.LittleEndian)
	require.NoError(t, err)
	// The immediate is in multiples of two: pc + 16*2.
	assert.Equal(t, uint64(0x120), got)
}

func TestBranchNotTakenFallsThrough(t *testing.T) {
	s := testStore(t, 32)
	setReg(t, s, "pc", 0x100, 32)
	setReg(t, s, "x1", 5, 32)
	setReg(t, s, "x2", 6, 32)

	beq := NewInstruction("beq", FamilyBranch, 32)
	beq.AddChild(NewRegister("x1"))
	beq.AddChild(NewRegister("x2"))
	beq.AddChild(imm32(t, 16))

	newPC, err := beq.GetValue(s)
	require.NoError(t, err)
	got, err := memvalue.ToUnsigned(newPC, memvalue.LittleEndian)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x104), got)
}

func TestJalSavesReturnAddressAndJumps(t *testing.T) {
	s := testStore(t, 32)
	setReg(t, s, "pc", 0x200, 32)

	jal := NewInstruction("jal", FamilyJump, 32)
	jal.AddChild(NewRegister("x1"))
	jal.AddChild(imm32(t, 64))

	newPC, err := jal.GetValue(s)
	require.NoError(t, err)
	got, err := memvalue.ToUnsigned(newPC, memvalue.LittleEndian)
	require.NoError(t, err)
	// The immediate is in multiples of two: pc + 64*2.
	assert.Equal(t, uint64(0x280), got)
	assert.Equal(t, uint64(0x204), getRegUint(t, s, "x1"))
}

func TestJalrClearsLowBit(t *testing.T) {
	s := testStore(t, 32)
	setReg(t, s, "pc", 0x200, 32)
	setReg(t, s, "x1", 0x33, 32)

	jalr := NewInstruction("jalr", FamilyJump, 32)
	jalr.AddChild(NewRegister("x2"))
	jalr.AddChild(NewRegister("x1"))
	jalr.AddChild(imm32(t, 4))

	newPC, err := jalr.GetValue(s)
	require.NoError(t, err)
	got, err := memvalue.ToUnsigned(newPC, memvalue.LittleEndian)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x36), got)
}

func TestLuiPlacesImmediateInUpperBits(t *testing.T) {
	s := testStore(t, 32)
	lui := NewInstruction("lui", FamilyUpper, 32)
	lui.AddChild(NewRegister("x1"))
	lui.AddChild(imm32(t, 1))

	require.NoError(t, lui.Validate(s))
	_, err := lui.GetValue(s)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x1000), getRegUint(t, s, "x1"))
}

func TestAuipcAddsToProgramCounter(t *testing.T) {
	s := testStore(t, 32)
	setReg(t, s, "pc", 0x1000, 32)
	auipc := NewInstruction("auipc", FamilyUpper, 32)
	auipc.AddChild(NewRegister("x1"))
	auipc.AddChild(imm32(t, 1))

	_, err := auipc.GetValue(s)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x2000), getRegUint(t, s, "x1"))
}

func TestStoreThenLoadWord(t *testing.T) {
	s := testStore(t, 32)
	setReg(t, s, "x1", 0xDEADBEEF, 32)
	setReg(t, s, "x2", 0, 32)

	sw := NewInstruction("sw", FamilyLoadStore, 32)
	sw.AddChild(NewRegister("x1"))
	sw.AddChild(NewRegister("x2"))
	sw.AddChild(imm32(t, 8))

	require.NoError(t, sw.Validate(s))
	_, err := sw.GetValue(s)
	require.NoError(t, err)

	lw := NewInstruction("lw", FamilyLoadStore, 32)
	lw.AddChild(NewRegister("x3"))
	lw.AddChild(NewRegister("x2"))
	lw.AddChild(imm32(t, 8))

	_, err = lw.GetValue(s)
	require.NoError(t, err)
	assert.Equal(t, uint64(0xDEADBEEF), getRegUint(t, s, "x3"))
}

func TestLoadByteSignExtends(t *testing.T) {
	s := testStore(t, 32)
	setReg(t, s, "x1", 0xFF, 32) // -1 as a byte
	setReg(t, s, "x2", 0, 32)

	sb := NewInstruction("sb", FamilyLoadStore, 32)
	sb.AddChild(NewRegister("x1"))
	sb.AddChild(NewRegister("x2"))
	sb.AddChild(imm32(t, 0))
	_, err := sb.GetValue(s)
	require.NoError(t, err)

	lb := NewInstruction("lb", FamilyLoadStore, 32)
	lb.AddChild(NewRegister("x3"))
	lb.AddChild(NewRegister("x2"))
	lb.AddChild(imm32(t, 0))
	_, err = lb.GetValue(s)
	require.NoError(t, err)
	assert.Equal(t, uint64(0xFFFFFFFF), getRegUint(t, s, "x3"))

	lbu := NewInstruction("lbu", FamilyLoadStore, 32)
	lbu.AddChild(NewRegister("x3"))
	lbu.AddChild(NewRegister("x2"))
	lbu.AddChild(imm32(t, 0))
	_, err = lbu.GetValue(s)
	require.NoError(t, err)
	assert.Equal(t, uint64(0xFF), getRegUint(t, s, "x3"))
}

func TestLoadOutOfRangeFails(t *testing.T) {
	s := testStore(t, 32)
	setReg(t, s, "x2", 0, 32)

	lw := NewInstruction("lw", FamilyLoadStore, 32)
	lw.AddChild(NewRegister("x3"))
	lw.AddChild(NewRegister("x2"))
	lw.AddChild(imm32(t, 1<<20))

	_, err := lw.GetValue(s)
	assert.Error(t, err)
}

func TestX0WriteIsDiscarded(t *testing.T) {
	s := testStore(t, 32)
	setReg(t, s, "x1", 99, 32)

	add := NewInstruction("add", FamilyIntRR, 32)
	add.AddChild(NewRegister("x0"))
	add.AddChild(NewRegister("x1"))
	add.AddChild(NewRegister("x1"))

	_, err := add.GetValue(s)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), getRegUint(t, s, "x0"))
}

func TestValidateRejectsWrongOperandKind(t *testing.T) {
	s := testStore(t, 32)
	add := NewInstruction("add", FamilyIntRR, 32)
	add.AddChild(NewRegister("x1"))
	add.AddChild(NewRegister("x1"))
	add.AddChild(imm32(t, 1))

	assert.Error(t, add.Validate(s))
}

func TestValidateRejectsUnknownRegister(t *testing.T) {
	s := testStore(t, 32)
	reg := NewRegister("x99")
	assert.Error(t, reg.Validate(s))
}

func TestValidateRejectsOutOfRangeIntRIImmediate(t *testing.T) {
	s := testStore(t, 32)
	addi := NewInstruction("addi", FamilyIntRI, 32)
	addi.AddChild(NewRegister("x1"))
	addi.AddChild(NewRegister("x2"))
	addi.AddChild(imm32(t, 1<<11))

	assert.Error(t, addi.Validate(s))
}

func TestValidateAcceptsMinAndMaxIntRIImmediate(t *testing.T) {
	s := testStore(t, 32)
	for _, v := range []int64{-(1 << 11), 1<<11 - 1} {
		addi := NewInstruction("addi", FamilyIntRI, 32)
		addi.AddChild(NewRegister("x1"))
		addi.AddChild(NewRegister("x2"))
		addi.AddChild(imm32(t, v))
		assert.NoError(t, addi.Validate(s))
	}
}

func TestValidateRejectsOutOfRangeShiftAmount(t *testing.T) {
	s := testStore(t, 32)
	slli := NewInstruction("slli", FamilyIntRI, 32)
	slli.AddChild(NewRegister("x1"))
	slli.AddChild(NewRegister("x2"))
	slli.AddChild(imm32(t, 32))

	assert.Error(t, slli.Validate(s))
}

func TestValidateAcceptsMaxShiftAmount(t *testing.T) {
	s := testStore(t, 32)
	slli := NewInstruction("slli", FamilyIntRI, 32)
	slli.AddChild(NewRegister("x1"))
	slli.AddChild(NewRegister("x2"))
	slli.AddChild(imm32(t, 31))

	assert.NoError(t, slli.Validate(s))
}

func TestValidateRejectsOutOfRangeBranchOffset(t *testing.T) {
	s := testStore(t, 32)
	beq := NewInstruction("beq", FamilyBranch, 32)
	beq.AddChild(NewRegister("x1"))
	beq.AddChild(NewRegister("x2"))
	beq.AddChild(imm32(t, 1<<11))

	assert.Error(t, beq.Validate(s))
}

func TestValidateRejectsOutOfRangeJalOffset(t *testing.T) {
	s := testStore(t, 32)
	jal := NewInstruction("jal", FamilyJump, 32)
	jal.AddChild(NewRegister("x1"))
	jal.AddChild(imm32(t, 1<<19))

	assert.Error(t, jal.Validate(s))
}

func TestValidateAcceptsMaxJalOffset(t *testing.T) {
	s := testStore(t, 32)
	jal := NewInstruction("jal", FamilyJump, 32)
	jal.AddChild(NewRegister("x1"))
	jal.AddChild(imm32(t, 1<<19-1))

	assert.NoError(t, jal.Validate(s))
}

func TestValidateRejectsOutOfRangeJalrOffset(t *testing.T) {
	s := testStore(t, 32)
	jalr := NewInstruction("jalr", FamilyJump, 32)
	jalr.AddChild(NewRegister("x1"))
	jalr.AddChild(NewRegister("x2"))
	jalr.AddChild(imm32(t, 1<<11))

	assert.Error(t, jalr.Validate(s))
}

func TestValidateRejectsOutOfRangeJOffset(t *testing.T) {
	s := testStore(t, 32)
	j := NewInstruction("j", FamilyJump, 32)
	j.AddChild(imm32(t, -(1 << 19) - 1))

	assert.Error(t, j.Validate(s))
}

func TestValidateRejectsOutOfRangeLoadStoreOffset(t *testing.T) {
	s := testStore(t, 32)
	lw := NewInstruction("lw", FamilyLoadStore, 32)
	lw.AddChild(NewRegister("x1"))
	lw.AddChild(NewRegister("x2"))
	lw.AddChild(imm32(t, -(1<<11) - 1))

	assert.Error(t, lw.Validate(s))
}

func TestValidateRejectsOutOfRangeUpperImmediate(t *testing.T) {
	s := testStore(t, 32)
	lui := NewInstruction("lui", FamilyUpper, 32)
	lui.AddChild(NewRegister("x1"))
	lui.AddChild(imm32(t, 1<<20))

	assert.Error(t, lui.Validate(s))
}

func TestValidateAcceptsMaxUpperImmediate(t *testing.T) {
	s := testStore(t, 32)
	auipc := NewInstruction("auipc", FamilyUpper, 32)
	auipc.AddChild(NewRegister("x1"))
	auipc.AddChild(imm32(t, 1<<20-1))

	assert.NoError(t, auipc.Validate(s))
}

// jal with a large positive offset that doubles past the 32-bit address
// space produces a runtime out-of-range error rather than silently
// wrapping (spec §4.4 Jump: "no unsigned wraparound").
func TestJalWrapsAddressSpaceFailsAtExecution(t *testing.T) {
	s := testStore(t, 32)
	setReg(t, s, "pc", 0xFFFFFFF0, 32)

	jal := NewInstruction("jal", FamilyJump, 32)
	jal.AddChild(NewRegister("x1"))
	jal.AddChild(imm32(t, 64))

	require.NoError(t, jal.Validate(s))
	_, err := jal.GetValue(s)
	assert.Error(t, err)
}

// jalr with a negative computed target (rs1+offset < 0) fails at
// execution (spec §4.4 Jump: "no negative result as unsigned").
func TestJalrNegativeTargetFailsAtExecution(t *testing.T) {
	s := testStore(t, 32)
	setReg(t, s, "pc", 0x200, 32)
	setReg(t, s, "x1", 4, 32)

	jalr := NewInstruction("jalr", FamilyJump, 32)
	jalr.AddChild(NewRegister("x2"))
	jalr.AddChild(NewRegister("x1"))
	jalr.AddChild(imm32(t, -8))

	require.NoError(t, jalr.Validate(s))
	_, err := jalr.GetValue(s)
	assert.Error(t, err)
}

func TestFamilyOfAndConstructor(t *testing.T) {
	f, ok := FamilyOf("mulhsu")
	require.True(t, ok)
	assert.Equal(t, FamilyIntRR, f)

	_, ok = FamilyOf("notreal")
	assert.False(t, ok)

	n, err := NewInstructionForMnemonic("jalr", 32)
	require.NoError(t, err)
	assert.Equal(t, FamilyJump, n.Family)
}
