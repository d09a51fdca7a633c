package ast

import (
	"fmt"

	"github.com/kasm-riscv/kasm/internal/memvalue"
	"github.com/kasm-riscv/kasm/internal/store"
)

// Integer register-register instructions (add/sub/and/or/xor/sll/srl/sra/
// slt/sltu/mul/mulh/mulhu/mulhsu/div/divu/rem/remu and their *w variants)
// take three register operands: destination, rs1, rs2 (spec §4.4).

func (n *Node) validateIntRR() error {
	if err := n.requireChildCount(3); err != nil {
		return err
	}
	for i := 0; i < 3; i++ {
		if err := n.childKind(i, KindRegister); err != nil {
			return err
		}
	}
	if n.isWVariant() && n.WordSize != 64 {
		return fmt.Errorf("ast: %q is only valid on a 64-bit architecture", n.Identifier)
	}
	return nil
}

func (n *Node) execIntRR(s *store.Store) (memvalue.MemoryValue, error) {
	dest, rs1, rs2 := n.Children[0], n.Children[1], n.Children[2]

	rs1v, err := rs1.GetValue(s)
	if err != nil {
		return memvalue.MemoryValue{}, err
	}
	rs2v, err := rs2.GetValue(s)
	if err != nil {
		return memvalue.MemoryValue{}, err
	}
	rs1u, err := asUnsigned(rs1v)
	if err != nil {
		return memvalue.MemoryValue{}, err
	}
	rs2u, err := asUnsigned(rs2v)
	if err != nil {
		return memvalue.MemoryValue{}, err
	}

	width := n.operandWidth()
	result, err := evalIntegerOp(baseMnemonic(n.Identifier), rs1u, rs2u, width)
	if err != nil {
		return memvalue.MemoryValue{}, err
	}

	destWidth := n.WordSize
	var resultValue memvalue.MemoryValue
	if n.isWVariant() {
		resultValue, err = fromUnsignedWidth(truncate64(uint64(signExtend64(result, 32)), destWidth), destWidth)
	} else {
		resultValue, err = fromUnsignedWidth(result, destWidth)
	}
	if err != nil {
		return memvalue.MemoryValue{}, err
	}
	if err := s.PutRegister(dest.Identifier, resultValue); err != nil {
		return memvalue.MemoryValue{}, err
	}
	return memvalue.New(destWidth), nil
}

// Integer register-immediate instructions (addi/andi/ori/xori/slli/srli/
// srai/slti/sltiu) take destination, rs1, and an immediate operand (spec
// §4.4). No immediate "*w" forms (addiw, slliw, ...) are recognized.

func (n *Node) validateIntRI() error {
	if err := n.requireChildCount(3); err != nil {
		return err
	}
	if err := n.childKind(0, KindRegister); err != nil {
		return err
	}
	if err := n.childKind(1, KindRegister); err != nil {
		return err
	}
	if err := n.childKind(2, KindImmediate); err != nil {
		return err
	}
	if n.isWVariant() && n.WordSize != 64 {
		return fmt.Errorf("ast: %q is only valid on a 64-bit architecture", n.Identifier)
	}
	imm := n.Children[2].Immediate
	switch n.Identifier {
	case "slli", "srli", "srai":
		return checkUnsignedImmediate(imm, shiftAmountBits(n.WordSize), n.Identifier)
	default:
		return checkSignedImmediate(imm, 12, n.Identifier)
	}
}

func (n *Node) execIntRI(s *store.Store) (memvalue.MemoryValue, error) {
	dest, rs1, imm := n.Children[0], n.Children[1], n.Children[2]

	rs1v, err := rs1.GetValue(s)
	if err != nil {
		return memvalue.MemoryValue{}, err
	}
	rs1u, err := asUnsigned(rs1v)
	if err != nil {
		return memvalue.MemoryValue{}, err
	}
	immv, err := imm.GetValue(s)
	if err != nil {
		return memvalue.MemoryValue{}, err
	}
	immSigned, err := memvalue.ToInteger(immv, memvalue.LittleEndian, memvalue.TwosComplement)
	if err != nil {
		return memvalue.MemoryValue{}, err
	}

	width := n.operandWidth()
	immu := truncate64(uint64(immSigned), width)

	result, err := evalIntegerOp(baseMnemonic(n.Identifier), rs1u, immu, width)
	if err != nil {
		return memvalue.MemoryValue{}, err
	}

	destWidth := n.WordSize
	var resultValue memvalue.MemoryValue
	if n.isWVariant() {
		resultValue, err = fromUnsignedWidth(truncate64(uint64(signExtend64(result, 32)), destWidth), destWidth)
	} else {
		resultValue, err = fromUnsignedWidth(result, destWidth)
	}
	if err != nil {
		return memvalue.MemoryValue{}, err
	}
	if err := s.PutRegister(dest.Identifier, resultValue); err != nil {
		return memvalue.MemoryValue{}, err
	}
	return memvalue.New(destWidth), nil
}
