package memvalue

import "fmt"

// ToUnsigned interprets v as an unsigned integer using the given byte
// endianness. v's bit count must be a multiple of 8 and fit in 64 bits.
func ToUnsigned(v MemoryValue, e Endianness) (uint64, error) {
	if v.count%8 != 0 {
		return 0, fmt.Errorf("memvalue: ToUnsigned requires a byte-aligned value, got %d bits", v.count)
	}
	if v.count > 64 {
		return 0, fmt.Errorf("memvalue: ToUnsigned does not support values wider than 64 bits, got %d", v.count)
	}
	n := len(v.bits)
	order := byteOrder(n, e)
	var result uint64
	for i, srcIdx := range order {
		result |= uint64(v.bits[srcIdx]) << uint(8*i)
	}
	return result, nil
}

// FromUnsigned packs n into a MemoryValue of byteSizeBits bits using the
// given byte endianness.
func FromUnsigned(n uint64, byteSizeBits int, e Endianness) (MemoryValue, error) {
	if byteSizeBits%8 != 0 {
		return MemoryValue{}, fmt.Errorf("memvalue: FromUnsigned requires a byte-aligned width, got %d bits", byteSizeBits)
	}
	numBytes := byteSizeBits / 8
	data := make([]byte, numBytes)
	order := byteOrder(numBytes, e)
	for i, dstIdx := range order {
		data[dstIdx] = byte(n >> uint(8*i))
	}
	return FromBytes(data, byteSizeBits)
}

// ToInteger interprets v as a signed integer using the given endianness and
// signed representation. The unsigned conversion gives the magnitude-bearing
// bits, then the signed representation is applied as post-processing, per
// spec.
func ToInteger(v MemoryValue, e Endianness, sr SignedRepresentation) (int64, error) {
	u, err := ToUnsigned(v, e)
	if err != nil {
		return 0, err
	}
	width := uint(v.count)
	signMask := uint64(1) << (width - 1)
	negative := u&signMask != 0

	switch sr {
	case SignBit:
		magnitude := u &^ signMask
		if negative {
			return -int64(magnitude), nil
		}
		return int64(magnitude), nil
	case OnesComplement:
		if negative {
			inverted := (^u) & fullMask(width)
			return -int64(inverted), nil
		}
		return int64(u), nil
	case TwosComplement:
		if negative {
			return int64(u) - int64(uint64(1)<<width), nil
		}
		return int64(u), nil
	default:
		return 0, fmt.Errorf("memvalue: unknown signed representation %d", sr)
	}
}

// FromInteger produces a MemoryValue of byteSizeBits bits packing n using
// the given byte endianness and signed representation.
func FromInteger(n int64, byteSizeBits int, e Endianness, sr SignedRepresentation) (MemoryValue, error) {
	width := uint(byteSizeBits)
	var u uint64
	if n >= 0 {
		u = uint64(n)
	} else {
		switch sr {
		case SignBit:
			u = uint64(-n) | (uint64(1) << (width - 1))
		case OnesComplement:
			magnitude := uint64(-n)
			u = (^magnitude) & fullMask(width)
		case TwosComplement:
			u = uint64(int64(uint64(1)<<width) + n)
		default:
			return MemoryValue{}, fmt.Errorf("memvalue: unknown signed representation %d", sr)
		}
	}
	u &= fullMask(width)
	return FromUnsigned(u, byteSizeBits, e)
}

// fullMask returns a mask with the low `width` bits set (width <= 64).
func fullMask(width uint) uint64 {
	if width >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << width) - 1
}
