package ast

import (
	"fmt"
	"strings"

	"github.com/kasm-riscv/kasm/internal/memvalue"
	"github.com/kasm-riscv/kasm/internal/store"
)

// loadStoreWidths maps each load/store mnemonic to the number of bits it
// transfers and whether a load sign-extends (false means zero-extend; the
// flag is unused for stores). "d" widths (ld/sd) are 64-bit-architecture
// only, checked separately in validateLoadStore.
var loadStoreWidths = map[string]struct {
	bits   int
	signed bool
}{
	"lb": {8, true}, "lbu": {8, false},
	"lh": {16, true}, "lhu": {16, false},
	"lw": {32, true}, "lwu": {32, false},
	"ld": {64, true},
	"sb": {8, false}, "sh": {16, false}, "sw": {32, false}, "sd": {64, false},
}

func isLoad(mnemonic string) bool {
	return strings.HasPrefix(mnemonic, "l")
}

// Load/store instructions take (for loads) a destination register, a base
// register, and a signed byte offset, or (for stores) a source register, a
// base register, and a signed byte offset (spec §4.4). The effective
// address is base+offset; out-of-range addresses fail at execution time
// per spec §7, not at validation time.

func (n *Node) validateLoadStore() error {
	widths, ok := loadStoreWidths[n.Identifier]
	if !ok {
		return fmt.Errorf("ast: unknown load/store mnemonic %q", n.Identifier)
	}
	if widths.bits == 64 && n.WordSize != 64 {
		return fmt.Errorf("ast: %q is only valid on a 64-bit architecture", n.Identifier)
	}
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
}

func (n *Node) execLoadStore(s *store.Store) (memvalue.MemoryValue, error) {
	widths := loadStoreWidths[n.Identifier]
	regOrValue, base, offsetNode := n.Children[0], n.Children[1], n.Children[2]

	basev, err := base.GetValue(s)
	if err != nil {
		return memvalue.MemoryValue{}, err
	}
	baseu, err := asUnsigned(basev)
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
	address := int(int64(baseu) + offset)

	width := n.WordSize
	if isLoad(n.Identifier) {
		raw, err := s.GetAt(address, widths.bits/8)
		if err != nil {
			return memvalue.MemoryValue{}, err
		}
		rawu, err := asUnsigned(raw)
		if err != nil {
			return memvalue.MemoryValue{}, err
		}
		var extended uint64
		if widths.signed {
			extended = truncate64(uint64(signExtend64(rawu, widths.bits)), width)
		} else {
			extended = truncate64(rawu, width)
		}
		result, err := fromUnsignedWidth(extended, width)
		if err != nil {
			return memvalue.MemoryValue{}, err
		}
		if err := s.PutRegister(regOrValue.Identifier, result); err != nil {
			return memvalue.MemoryValue{}, err
		}
		return memvalue.New(width), nil
	}

	srcv, err := regOrValue.GetValue(s)
	if err != nil {
		return memvalue.MemoryValue{}, err
	}
	srcu, err := asUnsigned(srcv)
	if err != nil {
		return memvalue.MemoryValue{}, err
	}
	toWrite, err := fromUnsignedWidth(truncate64(srcu, widths.bits), widths.bits)
	if err != nil {
		return memvalue.MemoryValue{}, err
	}
	if err := s.PutAt(address, toWrite); err != nil {
		return memvalue.MemoryValue{}, err
	}
	return memvalue.New(width), nil
}
