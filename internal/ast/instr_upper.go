package ast

import (
	"fmt"

	"github.com/kasm-riscv/kasm/internal/memvalue"
	"github.com/kasm-riscv/kasm/internal/store"
)

// Upper-immediate instructions place a 20-bit immediate into bits
// [31:12] of the destination, either as-is (lui) or added to the program
// counter (auipc), then sign-extended to the architecture's word size
// (spec §4.4).

func (n *Node) validateUpper() error {
	if err := n.requireChildCount(2); err != nil {
		return err
	}
	if err := n.childKind(0, KindRegister); err != nil {
		return err
	}
	if err := n.childKind(1, KindImmediate); err != nil {
		return err
	}
	imm := n.Children[1].Immediate
	if err := checkUnsignedImmediate(imm, 20, n.Identifier); err != nil {
		return err
	}
	switch n.Identifier {
	case "lui", "auipc":
		return nil
	default:
		return fmt.Errorf("ast: unknown upper-immediate mnemonic %q", n.Identifier)
	}
}

func (n *Node) execUpper(s *store.Store) (memvalue.MemoryValue, error) {
	dest, immNode := n.Children[0], n.Children[1]
	width := n.WordSize

	immv, err := immNode.GetValue(s)
	if err != nil {
		return memvalue.MemoryValue{}, err
	}
	imm, err := asUnsigned(immv)
	if err != nil {
		return memvalue.MemoryValue{}, err
	}
	shifted := uint64(signExtend64(imm<<12, 32))

	var base uint64
	switch n.Identifier {
	case "lui":
		base = 0
	case "auipc":
		pcv, err := s.GetRegister("pc")
		if err != nil {
			return memvalue.MemoryValue{}, err
		}
		pc, err := asUnsigned(pcv)
		if err != nil {
			return memvalue.MemoryValue{}, err
		}
		base = pc
	default:
		return memvalue.MemoryValue{}, fmt.Errorf("ast: unknown upper-immediate mnemonic %q", n.Identifier)
	}

	result := truncate64(base+shifted, width)
	resultValue, err := fromUnsignedWidth(result, width)
	if err != nil {
		return memvalue.MemoryValue{}, err
	}
	if err := s.PutRegister(dest.Identifier, resultValue); err != nil {
		return memvalue.MemoryValue{}, err
	}
	return memvalue.New(width), nil
}
