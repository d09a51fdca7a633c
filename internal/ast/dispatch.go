package ast

import (
	"fmt"

	"github.com/kasm-riscv/kasm/internal/memvalue"
	"github.com/kasm-riscv/kasm/internal/store"
)

// validateInstruction checks an instruction node's shape (child count and
// kind) against its Family, without touching a Store — pure structural and
// range checks per spec §4.4/§4.5. Runtime failures (bad register name,
// out-of-range memory) surface later from GetValue.
func (n *Node) validateInstruction() error {
	switch n.Family {
	case FamilyIntRR:
		return n.validateIntRR()
	case FamilyIntRI:
		return n.validateIntRI()
	case FamilyBranch:
		return n.validateBranch()
	case FamilyJump:
		return n.validateJump()
	case FamilyUpper:
		return n.validateUpper()
	case FamilyLoadStore:
		return n.validateLoadStore()
	default:
		return fmt.Errorf("ast: instruction %q has no recognized family", n.Identifier)
	}
}

// executeInstruction runs an instruction node against s, mutating
// registers/memory as a side effect and returning the instruction's
// result value: the new program counter for branch/jump nodes, or the
// zero value for everything else (spec §4.4).
func (n *Node) executeInstruction(s *store.Store) (memvalue.MemoryValue, error) {
	switch n.Family {
	case FamilyIntRR:
		return n.execIntRR(s)
	case FamilyIntRI:
		return n.execIntRI(s)
	case FamilyBranch:
		return n.execBranch(s)
	case FamilyJump:
		return n.execJump(s)
	case FamilyUpper:
		return n.execUpper(s)
	case FamilyLoadStore:
		return n.execLoadStore(s)
	default:
		return memvalue.MemoryValue{}, fmt.Errorf("ast: instruction %q has no recognized family", n.Identifier)
	}
}

// childKind fails unless n.Children[i] has the given Kind; used by every
// family's validate method to check operand shape.
func (n *Node) childKind(i int, want Kind) error {
	if i >= len(n.Children) {
		return fmt.Errorf("ast: %q expects a child at index %d, has %d", n.Identifier, i, len(n.Children))
	}
	got := n.Children[i].Kind
	if got != want {
		return fmt.Errorf("ast: %q expects a %s operand at index %d, got %s", n.Identifier, want, i, got)
	}
	return nil
}

func (n *Node) requireChildCount(want int) error {
	if len(n.Children) != want {
		return fmt.Errorf("ast: %q expects %d operand(s), has %d", n.Identifier, want, len(n.Children))
	}
	return nil
}

// baseMnemonic strips a 64-bit "*w" suffix variant down to its 32-bit base
// operation name, e.g. "addw" -> "add". Non-"*w" mnemonics are returned
// unchanged.
func baseMnemonic(mnemonic string) string {
	if base, ok := wVariants[mnemonic]; ok {
		return base
	}
	return mnemonic
}

func (n *Node) isWVariant() bool {
	_, ok := wVariants[n.Identifier]
	return ok
}

// operandWidth returns the bit width operands of this instruction are
// evaluated at: 32 for "*w" variants regardless of architecture word size,
// else the architecture's word size.
func (n *Node) operandWidth() int {
	if n.isWVariant() {
		return 32
	}
	return n.WordSize
}

func asUnsigned(v memvalue.MemoryValue) (uint64, error) {
	return memvalue.ToUnsigned(v, memvalue.LittleEndian)
}

// checkSignedImmediate verifies imm's numeric value fits in a signed field
// of the given width (spec §4.4's per-family "offset fits in N signed
// bits" checks). imm is always 32-bit storage (syntaxgen builds every
// immediate that way), so the value is read via ToInteger rather than
// imm's own BitCount, which would just report 32 every time.
func checkSignedImmediate(imm memvalue.MemoryValue, bits int, mnemonic string) error {
	value, err := memvalue.ToInteger(imm, memvalue.LittleEndian, memvalue.TwosComplement)
	if err != nil {
		return err
	}
	lo := -(int64(1) << uint(bits-1))
	hi := int64(1)<<uint(bits-1) - 1
	if value < lo || value > hi {
		return fmt.Errorf("ast: %q immediate must fit in %d signed bits, got %d", mnemonic, bits, value)
	}
	return nil
}

// checkUnsignedImmediate verifies imm's numeric value, read as unsigned,
// fits in an unsigned field of the given width.
func checkUnsignedImmediate(imm memvalue.MemoryValue, bits int, mnemonic string) error {
	value, err := asUnsigned(imm)
	if err != nil {
		return err
	}
	if value >= uint64(1)<<uint(bits) {
		return fmt.Errorf("ast: %q immediate must fit in unsigned %d bits, got %d", mnemonic, bits, value)
	}
	return nil
}

// checkAddressInRange verifies a computed jump target is representable as
// an unsigned address of the given width before it gets truncated into
// one: negative (spec §4.4 Jump: "no negative result as unsigned") and
// overflowing (spec §4.4 Jump: "no unsigned wraparound") targets are
// runtime errors, not silently wrapped addresses.
func checkAddressInRange(target int64, width int, mnemonic string) error {
	if target < 0 {
		return fmt.Errorf("ast: %q jump target %d is negative", mnemonic, target)
	}
	if width < 64 && uint64(target) >= uint64(1)<<uint(width) {
		return fmt.Errorf("ast: %q jump target %d exceeds %d-bit address space", mnemonic, target, width)
	}
	return nil
}

func fromUnsignedWidth(value uint64, width int) (memvalue.MemoryValue, error) {
	return memvalue.FromUnsigned(value, width, memvalue.LittleEndian)
}
