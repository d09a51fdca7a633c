package ast

import (
	"fmt"

	"github.com/kasm-riscv/kasm/internal/memvalue"
	"github.com/kasm-riscv/kasm/internal/store"
)

// Jump instructions transfer control unconditionally and optionally save a
// return address (spec §4.4):
//
//	jal  rd, offset        rd = pc+4; pc = pc+offset*2
//	jalr rd, rs1, offset   rd = pc+4; pc = (rs1+offset) with bit 0 cleared
//	j    offset            pseudo-op for "jal x0, offset" (no return saved)

func (n *Node) validateJump() error {
	switch n.Identifier {
	case "jal":
		if err := n.requireChildCount(2); err != nil {
			return err
		}
		if err := n.childKind(0, KindRegister); err != nil {
			return err
		}
		if err := n.childKind(1, KindImmediate); err != nil {
			return err
		}
		return checkSignedImmediate(n.Children[1].Immediate, 20, n.Identifier)
	case "jalr":
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
		return checkSignedImmediate(n.Children[2].Immediate, 12, n.Identifier)
	case "j":
		if err := n.requireChildCount(1); err != nil {
			return err
		}
		if err := n.childKind(0, KindImmediate); err != nil {
			return err
		}
		return checkSignedImmediate(n.Children[0].Immediate, 20, n.Identifier)
	default:
		return fmt.Errorf("ast: unknown jump mnemonic %q", n.Identifier)
	}
}

func (n *Node) execJump(s *store.Store) (memvalue.MemoryValue, error) {
	width := n.WordSize

	pcv, err := s.GetRegister("pc")
	if err != nil {
		return memvalue.MemoryValue{}, err
	}
	pc, err := asUnsigned(pcv)
	if err != nil {
		return memvalue.MemoryValue{}, err
	}

	switch n.Identifier {
	case "j":
		// Pseudo-op for "jal x0, offset": no return address saved.
		offv, err := n.Children[0].GetValue(s)
		if err != nil {
			return memvalue.MemoryValue{}, err
		}
		offset, err := memvalue.ToInteger(offv, memvalue.LittleEndian, memvalue.TwosComplement)
		if err != nil {
			return memvalue.MemoryValue{}, err
		}
		// The immediate specifies an offset in multiples of two, relative to pc.
		target := int64(pc) + offset*2
		if err := checkAddressInRange(target, width, n.Identifier); err != nil {
			return memvalue.MemoryValue{}, err
		}
		return fromUnsignedWidth(truncate64(uint64(target), width), width)

	case "jal":
		dest, offsetNode := n.Children[0], n.Children[1]
		offv, err := offsetNode.GetValue(s)
		if err != nil {
			return memvalue.MemoryValue{}, err
		}
		offset, err := memvalue.ToInteger(offv, memvalue.LittleEndian, memvalue.TwosComplement)
		if err != nil {
			return memvalue.MemoryValue{}, err
		}
		retAddr, err := fromUnsignedWidth(truncate64(pc+instructionBytes, width), width)
		if err != nil {
			return memvalue.MemoryValue{}, err
		}
		if err := s.PutRegister(dest.Identifier, retAddr); err != nil {
			return memvalue.MemoryValue{}, err
		}
		// The immediate specifies an offset in multiples of two, relative to pc.
		target := int64(pc) + offset*2
		if err := checkAddressInRange(target, width, n.Identifier); err != nil {
			return memvalue.MemoryValue{}, err
		}
		return fromUnsignedWidth(truncate64(uint64(target), width), width)

	case "jalr":
		dest, rs1, offsetNode := n.Children[0], n.Children[1], n.Children[2]
		rs1v, err := rs1.GetValue(s)
		if err != nil {
			return memvalue.MemoryValue{}, err
		}
		rs1u, err := asUnsigned(rs1v)
		if err != nil {
			return memvalue.MemoryValue{}, err
		}
		offv, err := offsetNode.GetValue(s)
		if err != nil {
			return memvalue.MemoryValue{}, err
		}
		offset, err := memvalue.ToInteger(offv, memvalue.LittleEndian, memvalue.TwosComplement)
		if err != nil {
			return memvalue.MemoryValue{}, err
		}
		rawTarget := int64(rs1u) + offset
		if err := checkAddressInRange(rawTarget, width, n.Identifier); err != nil {
			return memvalue.MemoryValue{}, err
		}
		target := truncate64(uint64(rawTarget), width) &^ 1
		retAddr, err := fromUnsignedWidth(truncate64(pc+instructionBytes, width), width)
		if err != nil {
			return memvalue.MemoryValue{}, err
		}
		if err := s.PutRegister(dest.Identifier, retAddr); err != nil {
			return memvalue.MemoryValue{}, err
		}
		return fromUnsignedWidth(target, width)

	default:
		return memvalue.MemoryValue{}, fmt.Errorf("ast: unknown jump mnemonic %q", n.Identifier)
	}
}
