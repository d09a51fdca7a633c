// Package store implements SimulatedStore: the register file and
// byte-addressed main memory that every AST node reads and writes during
// execution. Grounded on spec.md §4.3; bounds-checking and error phrasing
// follow lookbusy1344-arm_emulator/vm/memory.go's findSegment/permission
// pattern, collapsed from a segmented model to the spec's single
// fixed-size buffer.
package store

import (
	"fmt"

	"github.com/kasm-riscv/kasm/internal/arch"
	"github.com/kasm-riscv/kasm/internal/memvalue"
)

// Store is the simulated register file + main memory: the observable
// side-effect surface of instruction execution. It is strictly
// single-threaded; operations are not reordered across calls (spec §4.3,
// §5).
type Store struct {
	architecture arch.Architecture
	registers    map[string]memvalue.MemoryValue
	memory       []byte
}

// New returns a Store for architecture with a flat memory buffer of
// memorySize bytes, with every register initialized to its zero value (or
// its hardwired constant, for registers that carry one).
func New(architecture arch.Architecture, memorySize int) *Store {
	s := &Store{
		architecture: architecture,
		registers:    make(map[string]memvalue.MemoryValue),
		memory:       make([]byte, memorySize),
	}
	for _, unit := range architecture.Units {
		for id, reg := range unit.Registers {
			if reg.IsHardwired() {
				s.registers[id] = *reg.Hardwired
			} else {
				s.registers[id] = memvalue.New(reg.Width)
			}
		}
	}
	return s
}

// GetRegister reads the named register's current value.
func (s *Store) GetRegister(name string) (memvalue.MemoryValue, error) {
	reg, ok := s.architecture.RegisterByName(name)
	if !ok {
		return memvalue.MemoryValue{}, fmt.Errorf("store: unknown register %q", name)
	}
	if reg.IsHardwired() {
		return *reg.Hardwired, nil
	}
	v, ok := s.registers[reg.ID]
	if !ok {
		return memvalue.MemoryValue{}, fmt.Errorf("store: register %q has no backing value", name)
	}
	return v, nil
}

// PutRegister writes value into the named register. value's width must
// match the register's declared size. Writes to a hardwired register
// (e.g. x0) are silently discarded, per spec §3/§4.3.
func (s *Store) PutRegister(name string, value memvalue.MemoryValue) error {
	reg, ok := s.architecture.RegisterByName(name)
	if !ok {
		return fmt.Errorf("store: unknown register %q", name)
	}
	if reg.IsHardwired() {
		return nil
	}
	if value.BitCount() != reg.Width {
		return fmt.Errorf("store: register %q is %d bit(s) wide, got a %d-bit value", name, reg.Width, value.BitCount())
	}
	s.registers[reg.ID] = value
	return nil
}

// MemorySize returns the size, in bytes, of main memory.
func (s *Store) MemorySize() int {
	return len(s.memory)
}

// GetAt returns a MemoryValue of length bytes read from main memory
// starting at address. Out-of-range access fails.
func (s *Store) GetAt(address int, length int) (memvalue.MemoryValue, error) {
	if address < 0 || length < 0 || address+length > len(s.memory) {
		return memvalue.MemoryValue{}, fmt.Errorf("store: memory read of %d byte(s) at address 0x%X is out of range [0, %d)", length, address, len(s.memory))
	}
	return memvalue.FromBytes(s.memory[address:address+length], length*8)
}

// PutAt writes value's bytes into main memory starting at address.
// address + value's byte length must not exceed the memory size.
func (s *Store) PutAt(address int, value memvalue.MemoryValue) error {
	length := len(value.Bytes())
	if address < 0 || address+length > len(s.memory) {
		return fmt.Errorf("store: memory write of %d byte(s) at address 0x%X is out of range [0, %d)", length, address, len(s.memory))
	}
	copy(s.memory[address:address+length], value.Bytes())
	return nil
}

// Architecture returns the architecture this store was built for.
func (s *Store) Architecture() arch.Architecture {
	return s.architecture
}
