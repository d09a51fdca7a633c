package ast

import "math/big"

// mask64 returns a mask with the low `width` bits set (width <= 64).
func mask64(width int) uint64 {
	if width >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << uint(width)) - 1
}

// truncate64 returns v with only its low `width` bits kept.
func truncate64(v uint64, width int) uint64 {
	return v & mask64(width)
}

// signExtend64 interprets the low `width` bits of v as a two's-complement
// signed integer and sign-extends it to a full int64.
func signExtend64(v uint64, width int) int64 {
	v = truncate64(v, width)
	if width >= 64 {
		return int64(v)
	}
	signBit := uint64(1) << uint(width-1)
	if v&signBit != 0 {
		return int64(v) - int64(uint64(1)<<uint(width))
	}
	return int64(v)
}

// shiftAmountBits returns log2(wordSize): the number of low bits of a shift
// operand that are significant (5 for 32-bit words, 6 for 64-bit words).
func shiftAmountBits(wordSize int) int {
	switch wordSize {
	case 64:
		return 6
	default:
		return 5
	}
}

// wVariants maps each 64-bit-only "*w" mnemonic to the 32-bit base
// operation it performs before sign-extending its result.
var wVariants = map[string]string{
	"addw": "add", "subw": "sub",
	"sllw": "sll", "srlw": "srl", "sraw": "sra",
	"mulw": "mul",
	"divw": "div", "divuw": "divu",
	"remw": "rem", "remuw": "remu",
}

// bigFromBits interprets the low `width` bits of v as a big.Int, signed or
// unsigned per the `signed` flag.
func bigFromBits(v uint64, width int, signed bool) *big.Int {
	if !signed {
		return new(big.Int).SetUint64(truncate64(v, width))
	}
	return big.NewInt(signExtend64(v, width))
}

// mulHigh computes the high `width` bits of the 2*width-bit product of the
// low `width` bits of rs1 and rs2, interpreted as signed or unsigned per
// signed1/signed2 — this is mulh/mulhu/mulhsu's shared computation (spec
// §4.4).
func mulHigh(rs1, rs2 uint64, width int, signed1, signed2 bool) uint64 {
	a := bigFromBits(rs1, width, signed1)
	b := bigFromBits(rs2, width, signed2)
	product := new(big.Int).Mul(a, b)
	shifted := new(big.Int).Rsh(product, uint(width))
	maskBig := new(big.Int).SetUint64(mask64(width))
	masked := new(big.Int).And(shifted, maskBig)
	return masked.Uint64()
}

// evalIntegerOp evaluates one RV32I/RV64I/M-extension arithmetic or
// logical operation named by mnemonic (register-register or
// register-immediate — the caller supplies rs2 either way) at the given
// bit width, per spec §4.4's register-register and register-immediate
// subsections including the M-extension division semantics.
func evalIntegerOp(mnemonic string, rs1u, rs2u uint64, width int) (uint64, error) {
	rs1u = truncate64(rs1u, width)
	rs2u = truncate64(rs2u, width)

	switch mnemonic {
	case "add", "addi":
		return truncate64(rs1u+rs2u, width), nil
	case "sub":
		return truncate64(rs1u-rs2u, width), nil
	case "and", "andi":
		return rs1u & rs2u, nil
	case "or", "ori":
		return rs1u | rs2u, nil
	case "xor", "xori":
		return rs1u ^ rs2u, nil
	case "sll", "slli":
		shamt := rs2u & mask64(shiftAmountBits(width))
		return truncate64(rs1u<<uint(shamt), width), nil
	case "srl", "srli":
		shamt := rs2u & mask64(shiftAmountBits(width))
		return truncate64(rs1u, width) >> uint(shamt), nil
	case "sra", "srai":
		shamt := rs2u & mask64(shiftAmountBits(width))
		s1 := signExtend64(rs1u, width)
		return truncate64(uint64(s1>>uint(shamt)), width), nil
	case "slt", "slti":
		s1, s2 := signExtend64(rs1u, width), signExtend64(rs2u, width)
		if s1 < s2 {
			return 1, nil
		}
		return 0, nil
	case "sltu", "sltiu":
		if rs1u < rs2u {
			return 1, nil
		}
		return 0, nil
	case "mul":
		return truncate64(rs1u*rs2u, width), nil
	case "mulh":
		return mulHigh(rs1u, rs2u, width, true, true), nil
	case "mulhu":
		return mulHigh(rs1u, rs2u, width, false, false), nil
	case "mulhsu":
		return mulHigh(rs1u, rs2u, width, true, false), nil
	case "div":
		return evalDiv(rs1u, rs2u, width), nil
	case "divu":
		return evalDivu(rs1u, rs2u, width), nil
	case "rem":
		return evalRem(rs1u, rs2u, width), nil
	case "remu":
		return evalRemu(rs1u, rs2u, width), nil
	default:
		return 0, unknownMnemonic(mnemonic)
	}
}

// evalDiv implements signed division per spec §4.4: x/0 = -1 (all ones);
// INT_MIN/-1 overflows to INT_MIN.
func evalDiv(rs1u, rs2u uint64, width int) uint64 {
	s1, s2 := signExtend64(rs1u, width), signExtend64(rs2u, width)
	if s2 == 0 {
		return mask64(width) // all ones == -1 in width bits
	}
	intMin := int64(-1) << uint(width-1)
	if s1 == intMin && s2 == -1 {
		return truncate64(uint64(intMin), width)
	}
	return truncate64(uint64(s1/s2), width)
}

// evalRem implements signed remainder per spec §4.4: x%0 = x; INT_MIN%-1 = 0.
func evalRem(rs1u, rs2u uint64, width int) uint64 {
	s1, s2 := signExtend64(rs1u, width), signExtend64(rs2u, width)
	if s2 == 0 {
		return truncate64(rs1u, width)
	}
	intMin := int64(-1) << uint(width-1)
	if s1 == intMin && s2 == -1 {
		return 0
	}
	return truncate64(uint64(s1%s2), width)
}

// evalDivu implements unsigned division: x/0 = 2^W - 1.
func evalDivu(rs1u, rs2u uint64, width int) uint64 {
	if rs2u == 0 {
		return mask64(width)
	}
	return truncate64(rs1u/rs2u, width)
}

// evalRemu implements unsigned remainder: x%0 = x.
func evalRemu(rs1u, rs2u uint64, width int) uint64 {
	if rs2u == 0 {
		return rs1u
	}
	return truncate64(rs1u%rs2u, width)
}

func unknownMnemonic(mnemonic string) error {
	return &unknownMnemonicError{mnemonic}
}

type unknownMnemonicError struct{ mnemonic string }

func (e *unknownMnemonicError) Error() string {
	return "ast: unknown mnemonic " + e.mnemonic
}
