package ast

import "fmt"

// mnemonicFamilies maps every supported RV32I/RV64I/RV32M/RV64M mnemonic
// to its semantic Family (spec §4.4). Node factories (spec §4.7) consult
// this table instead of hard-coding per-mnemonic branches.
var mnemonicFamilies = map[string]Family{
	"add": FamilyIntRR, "sub": FamilyIntRR, "and": FamilyIntRR, "or": FamilyIntRR,
	"xor": FamilyIntRR, "sll": FamilyIntRR, "srl": FamilyIntRR, "sra": FamilyIntRR,
	"slt": FamilyIntRR, "sltu": FamilyIntRR,
	"mul": FamilyIntRR, "mulh": FamilyIntRR, "mulhu": FamilyIntRR, "mulhsu": FamilyIntRR,
	"div": FamilyIntRR, "divu": FamilyIntRR, "rem": FamilyIntRR, "remu": FamilyIntRR,
	"addw": FamilyIntRR, "subw": FamilyIntRR,
	"sllw": FamilyIntRR, "srlw": FamilyIntRR, "sraw": FamilyIntRR,
	"mulw": FamilyIntRR, "divw": FamilyIntRR, "divuw": FamilyIntRR,
	"remw": FamilyIntRR, "remuw": FamilyIntRR,

	"addi": FamilyIntRI, "andi": FamilyIntRI, "ori": FamilyIntRI, "xori": FamilyIntRI,
	"slli": FamilyIntRI, "srli": FamilyIntRI, "srai": FamilyIntRI,
	"slti": FamilyIntRI, "sltiu": FamilyIntRI,

	"beq": FamilyBranch, "bne": FamilyBranch, "blt": FamilyBranch,
	"bge": FamilyBranch, "bltu": FamilyBranch, "bgeu": FamilyBranch,

	"jal": FamilyJump, "jalr": FamilyJump, "j": FamilyJump,

	"lui": FamilyUpper, "auipc": FamilyUpper,

	"lb": FamilyLoadStore, "lbu": FamilyLoadStore, "lh": FamilyLoadStore, "lhu": FamilyLoadStore,
	"lw": FamilyLoadStore, "lwu": FamilyLoadStore, "ld": FamilyLoadStore,
	"sb": FamilyLoadStore, "sh": FamilyLoadStore, "sw": FamilyLoadStore, "sd": FamilyLoadStore,
}

// FamilyOf returns the Family a mnemonic belongs to, or false if the
// mnemonic is unrecognized.
func FamilyOf(mnemonic string) (Family, bool) {
	f, ok := mnemonicFamilies[mnemonic]
	return f, ok
}

// NewInstructionForMnemonic is a convenience constructor that looks up
// mnemonic's Family automatically; it fails for mnemonics this package
// does not know about.
func NewInstructionForMnemonic(mnemonic string, wordSize int) (*Node, error) {
	family, ok := FamilyOf(mnemonic)
	if !ok {
		return nil, fmt.Errorf("ast: unknown mnemonic %q", mnemonic)
	}
	return NewInstruction(mnemonic, family, wordSize), nil
}
