package ast

import (
	"fmt"

	"github.com/kasm-riscv/kasm/internal/memvalue"
	"github.com/kasm-riscv/kasm/internal/store"
)

// instructionBytes is the fixed encoded size of a RISC-V base-ISA
// instruction (C-extension compressed forms are out of scope, spec §1
// Non-goals), used to compute the fall-through program counter.
const instructionBytes = 4

// Branch instructions (beq/bne/blt/bge/bltu/bgeu) compare two registers and
// take a signed, pc-relative immediate offset. GetValue returns the new
// program counter either way: pc+offset*2 if the condition holds (the
// offset counts multiples of two bytes), pc+4 otherwise (spec §4.4).

func (n *Node) validateBranch() error {
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
	switch n.Identifier {
	case "beq", "bne", "blt", "bge", "bltu", "bgeu":
		return checkSignedImmediate(n.Children[2].Immediate, 12, n.Identifier)
	default:
		return fmt.Errorf("ast: unknown branch mnemonic %q", n.Identifier)
	}
}

func branchTaken(mnemonic string, rs1u, rs2u uint64, width int) bool {
	switch mnemonic {
	case "beq":
		return rs1u == rs2u
	case "bne":
		return rs1u != rs2u
	case "blt":
		return signExtend64(rs1u, width) < signExtend64(rs2u, width)
	case "bge":
		return signExtend64(rs1u, width) >= signExtend64(rs2u, width)
	case "bltu":
		return rs1u < rs2u
	case "bgeu":
		return rs1u >= rs2u
	default:
		return false
	}
}

func (n *Node) execBranch(s *store.Store) (memvalue.MemoryValue, error) {
	rs1, rs2, offsetNode := n.Children[0], n.Children[1], n.Children[2]

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

	pcv, err := s.GetRegister("pc")
	if err != nil {
		return memvalue.MemoryValue{}, err
	}
	pc, err := asUnsigned(pcv)
	if err != nil {
		return memvalue.MemoryValue{}, err
	}

	width := n.WordSize
	if !branchTaken(n.Identifier, rs1u, rs2u, width) {
		return fromUnsignedWidth(truncate64(pc+instructionBytes, width), width)
	}

	offv, err := offsetNode.GetValue(s)
	if err != nil {
		return memvalue.MemoryValue{}, err
	}
	offset, err := memvalue.ToInteger(offv, memvalue.LittleEndian, memvalue.TwosComplement)
	if err != nil {
		return memvalue.MemoryValue{}, err
	}
	// The immediate specifies an offset in multiples of two, relative to pc.
	target := uint64(int64(pc) + offset*2)
	return fromUnsignedWidth(truncate64(target, width), width)
}
