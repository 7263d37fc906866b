package basisu

import "math/bits"

func unorm16ToSF16(p uint16) uint16 {
	if p == 0xFFFF {
		return 0x3C00 // FP16 1.0
	}
	if p < 4 {
		// Small values are handled with a simple shift which is exact.
		return p << 8
	}

	// lz is clz(p) - 16. For p in [0x0004, 0xFFFE], this is in [0, 13].
	lz := bits.LeadingZeros32(uint32(p)) - 16

	// p = p * 2^(lz+1), kept in 16-bit range.
	p32 := uint32(p) * (1 << uint(lz+1))
	p32 &= 0xFFFF
	p32 >>= 6

	// Exponent bits.
	exp := uint32(14 - lz)
	p32 |= exp << 10
	return uint16(p32)
}

// unorm8ToSF16 converts an 8-bit normalized channel to FP16 bits.
func unorm8ToSF16(v uint8) uint16 {
	return unorm16ToSF16(uint16(v) * 257)
}
