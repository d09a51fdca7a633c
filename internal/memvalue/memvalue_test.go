package memvalue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIsZeroed(t *testing.T) {
	v := New(12)
	assert.Equal(t, 12, v.BitCount())
	assert.Len(t, v.Bytes(), 2)
	for i := 0; i < 12; i++ {
		bit, err := v.Get(i)
		require.NoError(t, err)
		assert.False(t, bit)
	}
}

func TestFromBytesMasksTrailingBits(t *testing.T) {
	v, err := FromBytes([]byte{0xFF}, 4)
	require.NoError(t, err)
	assert.Equal(t, byte(0x0F), v.Bytes()[0])
}

func TestFromBytesWrongLength(t *testing.T) {
	_, err := FromBytes([]byte{0x00}, 9)
	assert.Error(t, err)
}

func TestPutGetFlip(t *testing.T) {
	v := New(8)
	require.NoError(t, v.Put(0, true))
	bit, err := v.Get(0)
	require.NoError(t, err)
	assert.True(t, bit)

	after, err := v.Flip(0)
	require.NoError(t, err)
	assert.False(t, after)
}

func TestOutOfRangeAccess(t *testing.T) {
	v := New(4)
	_, err := v.Get(4)
	assert.Error(t, err)
	assert.Error(t, v.Put(4, true))
}

func TestSubSetConsistency(t *testing.T) {
	v, err := FromBytes([]byte{0b10110100}, 8)
	require.NoError(t, err)

	for a := 0; a < 8; a++ {
		for b := a; b <= 8; b++ {
			sub, err := v.SubSet(a, b)
			require.NoError(t, err)
			for i := 0; i < b-a; i++ {
				want, _ := v.Get(a + i)
				got, _ := sub.Get(i)
				assert.Equalf(t, want, got, "sub[%d] at range [%d,%d)", i, a, b)
			}
		}
	}
}

func TestWriteOverflowFails(t *testing.T) {
	v := New(4)
	other := New(8)
	assert.Error(t, v.Write(other, 0))
}

func TestWriteAndConcat(t *testing.T) {
	a, _ := FromBytes([]byte{0x0F}, 8)
	b, _ := FromBytes([]byte{0xF0}, 8)
	cat := Concat(a, b)
	require.Equal(t, 16, cat.BitCount())

	sub, _ := cat.SubSet(0, 8)
	assert.True(t, sub.Equals(a))
	sub2, _ := cat.SubSet(8, 16)
	assert.True(t, sub2.Equals(b))
}

func TestIterator(t *testing.T) {
	v, _ := FromBytes([]byte{0b00000101}, 8)
	it := v.Iter()
	var bits []bool
	for {
		bit, ok := it.Next()
		if !ok {
			break
		}
		bits = append(bits, bit)
	}
	assert.Equal(t, []bool{true, false, true, false, false, false, false, false}, bits)
}

func TestRoundTripLittleEndianUnsigned(t *testing.T) {
	values := []uint64{0, 1, 42, 255, 256, 65535, 0xDEADBEEF}
	for _, n := range values {
		v, err := FromUnsigned(n, 32, LittleEndian)
		require.NoError(t, err)
		got, err := ToUnsigned(v, LittleEndian)
		require.NoError(t, err)
		assert.Equal(t, n, got)
	}
}

func TestRoundTripBigEndianUnsigned(t *testing.T) {
	n := uint64(0x01020304)
	v, err := FromUnsigned(n, 32, BigEndian)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x02, 0x03, 0x04}, v.Bytes())
	got, err := ToUnsigned(v, BigEndian)
	require.NoError(t, err)
	assert.Equal(t, n, got)
}

func TestLittleEndianByteOrder(t *testing.T) {
	n := uint64(0x01020304)
	v, err := FromUnsigned(n, 32, LittleEndian)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x04, 0x03, 0x02, 0x01}, v.Bytes())
}

func TestRoundTripSignedRepresentations(t *testing.T) {
	reps := []SignedRepresentation{SignBit, OnesComplement, TwosComplement}
	values := []int64{0, 1, -1, 42, -42, 127, -127}
	for _, sr := range reps {
		for _, n := range values {
			v, err := FromInteger(n, 16, LittleEndian, sr)
			require.NoError(t, err)
			got, err := ToInteger(v, LittleEndian, sr)
			require.NoError(t, err)
			assert.Equalf(t, n, got, "sr=%d n=%d", sr, n)
		}
	}
}

func TestTwosComplementMinValueRoundTrips(t *testing.T) {
	// -128 cannot be represented by sign-bit or ones'-complement in 8 bits
	// (their range is [-127, 127]); only two's complement covers INT_MIN.
	v, err := FromInteger(-128, 8, LittleEndian, TwosComplement)
	require.NoError(t, err)
	got, err := ToInteger(v, LittleEndian, TwosComplement)
	require.NoError(t, err)
	assert.Equal(t, int64(-128), got)
}

func TestSignumAndSignBit(t *testing.T) {
	v, _ := FromInteger(-1, 8, LittleEndian, TwosComplement)
	assert.True(t, Signum(v))
	sb := SignBitOf(v)
	bit, _ := sb.Get(7)
	assert.True(t, bit)
	for i := 0; i < 7; i++ {
		bit, _ := sb.Get(i)
		assert.False(t, bit)
	}
}

func TestOnesAndTwosComplement(t *testing.T) {
	v, _ := FromBytes([]byte{0x0F}, 8)
	ones := FlipAllBits(v)
	assert.Equal(t, byte(0xF0), ones.Bytes()[0])

	twos := NegateTwosComplement(v)
	assert.Equal(t, byte(0xF1), twos.Bytes()[0])
}

func TestSignExtendAndZeroExtend(t *testing.T) {
	neg, _ := FromInteger(-1, 8, LittleEndian, TwosComplement)
	ext, err := SignExtend(neg, 16)
	require.NoError(t, err)
	n, err := ToInteger(ext, LittleEndian, TwosComplement)
	require.NoError(t, err)
	assert.Equal(t, int64(-1), n)

	pos, _ := FromUnsigned(0xFF, 8, LittleEndian)
	zext, err := ZeroExtend(pos, 16)
	require.NoError(t, err)
	u, err := ToUnsigned(zext, LittleEndian)
	require.NoError(t, err)
	assert.Equal(t, uint64(0xFF), u)
}

func TestPermute(t *testing.T) {
	v, _ := FromBytes([]byte{0x01, 0x02, 0x03, 0x04}, 32)
	out, err := Permute(v, 4, []int{3, 2, 1, 0})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x04, 0x03, 0x02, 0x01}, out.Bytes())
}
