// Package allocator implements spec §4.8's MemoryAllocator: named
// sections (".text", ".data", ...), each with its own alignment, that
// grow as the assembler reserves space for instructions and data, and
// are finally laid out back-to-back in a deterministic order to produce
// concrete addresses.
//
// Grounded on the teacher's v0/kasm/codegen_sections.go (sectionBuffer,
// the .text/.data/.bss sectionOrder map, deterministic concatenation),
// generalized from "accumulate emitted bytes directly" (x86_64 byte
// emission) to "accumulate a reservation size per section, then assign
// base addresses" — kasm does not emit machine code, so sections track
// sizes and per-reservation offsets rather than byte buffers.
package allocator

import (
	"fmt"
	"sort"
)

// defaultOrder mirrors the teacher's sectionOrder: known sections lay out
// in this order; unknown section names sort alphabetically after them.
var defaultOrder = map[string]int{
	".text": 0,
	".data": 1,
	".bss":  2,
}

type section struct {
	name      string
	alignment int // in bytes; 1 means unaligned
	size      int
}

// reservation records one reserve() call's offset within its section, so
// Finalize can later translate it into an absolute address.
type reservation struct {
	section string
	offset  int
}

// Allocator accumulates section reservations during the assembly pass and
// assigns final addresses once layout is fixed.
type Allocator struct {
	sections     map[string]*section
	order        []string // first-seen declaration order; Finalize does not consult it (ties sort alphabetically)
	reservations []reservation
	base         uint64 // address the first section starts at
	finalized    bool
	addresses    map[string]uint64 // section name -> base address, set by Finalize
}

// New returns an Allocator whose first section begins at base.
func New(base uint64) *Allocator {
	return &Allocator{sections: make(map[string]*section), base: base}
}

// Section creates the named section (if it does not already exist) with
// the given byte alignment. Calling Section again for an existing name is
// a no-op as long as the alignment matches; a conflicting re-declaration
// is an error.
func (a *Allocator) Section(name string, alignment int) error {
	if alignment < 1 {
		return fmt.Errorf("allocator: section %q alignment must be >= 1, got %d", name, alignment)
	}
	if existing, ok := a.sections[name]; ok {
		if existing.alignment != alignment {
			return fmt.Errorf("allocator: section %q already declared with alignment %d, got %d", name, existing.alignment, alignment)
		}
		return nil
	}
	a.sections[name] = &section{name: name, alignment: alignment}
	a.order = append(a.order, name)
	return nil
}

// Reserve reserves size bytes in the named section (implicitly declaring
// it with 1-byte alignment if Section was never called for it), rounding
// the section's current offset up to alignment first — spec §4.6's
// "per-operation alignment" (1 byte for instructions, per-type for
// .byte/.half/.word/.dword data directives all sharing one ".data"
// section). Pass 1 for no extra alignment beyond byte-granularity.
// Returns a token identifying the reservation; call Address after
// Finalize to get its absolute address. Reservation order within a
// section is preserved, so addresses only grow.
func (a *Allocator) Reserve(sectionName string, size int, alignment int) (int, error) {
	if size < 0 {
		return 0, fmt.Errorf("allocator: cannot reserve a negative size in section %q", sectionName)
	}
	if alignment < 1 {
		return 0, fmt.Errorf("allocator: reservation alignment must be >= 1, got %d", alignment)
	}
	sec, ok := a.sections[sectionName]
	if !ok {
		if err := a.Section(sectionName, 1); err != nil {
			return 0, err
		}
		sec = a.sections[sectionName]
	}
	offset := int(alignUp(uint64(sec.size), uint64(alignment)))
	sec.size = offset + size
	a.reservations = append(a.reservations, reservation{section: sectionName, offset: offset})
	return len(a.reservations) - 1, nil
}

// Finalize lays out every declared section back-to-back, in
// defaultOrder's sequence (unknown sections sorted alphabetically after
// the known ones), each section's start address rounded up to its
// declared alignment. It must be called before Address.
func (a *Allocator) Finalize() {
	names := make([]string, 0, len(a.sections))
	for name := range a.sections {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		oi, oki := defaultOrder[names[i]]
		oj, okj := defaultOrder[names[j]]
		if !oki {
			oi = len(defaultOrder)
		}
		if !okj {
			oj = len(defaultOrder)
		}
		if oi != oj {
			return oi < oj
		}
		return names[i] < names[j]
	})

	addresses := make(map[string]uint64, len(names))
	cursor := a.base
	for _, name := range names {
		sec := a.sections[name]
		cursor = alignUp(cursor, uint64(sec.alignment))
		addresses[name] = cursor
		cursor += uint64(sec.size)
	}
	a.addresses = addresses
	a.finalized = true
}

// Address returns the absolute address of the reservation identified by
// token (as returned by Reserve). Finalize must have been called first.
func (a *Allocator) Address(token int) (uint64, error) {
	if !a.finalized {
		return 0, fmt.Errorf("allocator: Finalize has not been called yet")
	}
	if token < 0 || token >= len(a.reservations) {
		return 0, fmt.Errorf("allocator: invalid reservation token %d", token)
	}
	r := a.reservations[token]
	return a.addresses[r.section] + uint64(r.offset), nil
}

// SectionAddress returns the base address assigned to a named section.
// Finalize must have been called first.
func (a *Allocator) SectionAddress(name string) (uint64, error) {
	if !a.finalized {
		return 0, fmt.Errorf("allocator: Finalize has not been called yet")
	}
	addr, ok := a.addresses[name]
	if !ok {
		return 0, fmt.Errorf("allocator: unknown section %q", name)
	}
	return addr, nil
}

// SectionSize returns how many bytes have been reserved in a section.
func (a *Allocator) SectionSize(name string) int {
	sec, ok := a.sections[name]
	if !ok {
		return 0
	}
	return sec.size
}

func alignUp(v, alignment uint64) uint64 {
	if alignment <= 1 {
		return v
	}
	remainder := v % alignment
	if remainder == 0 {
		return v
	}
	return v + (alignment - remainder)
}
