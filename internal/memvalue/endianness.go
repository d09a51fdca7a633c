package memvalue

// Endianness selects the byte order used when a MemoryValue is interpreted
// as, or built from, an integer. Bit order within a single backing byte is
// always little-endian-by-bit (bit 0 is the least significant bit of that
// byte) regardless of the chosen Endianness.
type Endianness int

const (
	// LittleEndian: byte 0 holds bits [0, 8) of the integer.
	LittleEndian Endianness = iota
	// BigEndian: byte 0 holds bits [8*(n-1), 8*n) of the integer.
	BigEndian
	// Mixed and Bi are carried from the architecture description (spec
	// §3/§6) for completeness; the core conversion routines treat them as
	// little-endian, matching how the spec's base RV32I/RV64I extensions
	// are always declared.
	Mixed
	Bi
)

// SignedRepresentation selects how a signed integer's sign is encoded.
type SignedRepresentation int

const (
	SignBit SignedRepresentation = iota
	OnesComplement
	TwosComplement
)

// byteOrder returns the backing-byte indices in integer-significance order,
// least significant first, for the given endianness.
func byteOrder(n int, e Endianness) []int {
	order := make([]int, n)
	switch e {
	case BigEndian:
		for i := 0; i < n; i++ {
			order[i] = n - 1 - i
		}
	default:
		for i := 0; i < n; i++ {
			order[i] = i
		}
	}
	return order
}
