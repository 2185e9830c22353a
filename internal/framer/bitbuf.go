/*
DESCRIPTION
  bitbuf.go provides bit-aligned search and slicing over a byte buffer. Since
  every device read returns whole bytes, the rolling buffer's bit-length is
  always a multiple of 8; addressing is still done in bits because the
  preamble need not fall on a byte boundary within that buffer.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package framer

// bitLen returns the number of addressable bits in buf.
func bitLen(buf []byte) int {
	return len(buf) * 8
}

// bitAt returns the bit at position i of buf (bit 0 is the MSB of buf[0]).
func bitAt(buf []byte, i int) byte {
	return (buf[i/8] >> uint(7-i%8)) & 1
}

// reversedBits returns a copy of pattern's bits in reverse order, repacked
// into the same number of bytes, matching the source's Bits(preamble)[::-1].
func reversedBits(pattern []byte) []byte {
	n := bitLen(pattern)
	out := make([]byte, len(pattern))
	for i := 0; i < n; i++ {
		b := bitAt(pattern, n-1-i)
		if b != 0 {
			out[i/8] |= 1 << uint(7-i%8)
		}
	}
	return out
}

// findAll returns every non-overlapping bit position in buf at which pattern
// (patternBits bits long) matches, in ascending order.
func findAll(buf []byte, pattern []byte, patternBits int) []int {
	var positions []int
	total := bitLen(buf)
	if patternBits == 0 || patternBits > total {
		return positions
	}
	i := 0
	for i <= total-patternBits {
		if matchAt(buf, pattern, i, patternBits) {
			positions = append(positions, i)
			i += patternBits
			continue
		}
		i++
	}
	return positions
}

func matchAt(buf, pattern []byte, start, patternBits int) bool {
	for j := 0; j < patternBits; j++ {
		if bitAt(buf, start+j) != bitAt(pattern, j) {
			return false
		}
	}
	return true
}

// sliceBits extracts the bits [startBit, stopBit) of buf into a new byte
// slice, starting at a byte boundary of the result. The range need not be a
// multiple of 8 bits long; a final partial byte is zero-padded in its
// low-order bits.
func sliceBits(buf []byte, startBit, stopBit int) []byte {
	n := stopBit - startBit
	out := make([]byte, (n+7)/8)
	for i := 0; i < n; i++ {
		if bitAt(buf, startBit+i) != 0 {
			out[i/8] |= 1 << uint(7-i%8)
		}
	}
	return out
}
