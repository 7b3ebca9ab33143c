// Package hashid provides the deterministic, non-cryptographic string digest
// every canvas address is derived from. The same input always produces the
// same 53-bit value, on any machine and in any process.
package hashid

import "unicode/utf16"

// MaxDigest is the exclusive upper bound of Digest's output.
const MaxDigest uint64 = 1 << 53

const (
	seedA = 0xdeadbeef
	seedB = 0x41c6ce57

	mulA = 2654435761
	mulB = 1597334677

	mixA = 2246822507
	mixB = 3266489909
)

// Digest hashes input into a value in [0, 2^53). The seed is truncated to
// 32 bits. Input is consumed as UTF-16 code units so that non-ASCII strings
// hash the same way a browser computes them.
func Digest(input string, seed int64) uint64 {
	s := uint32(seed)
	h1 := uint32(seedA) ^ s
	h2 := uint32(seedB) ^ s

	for _, r := range input {
		if r < 0x10000 {
			h1, h2 = step(h1, h2, uint32(r))
			continue
		}
		// Surrogate pairs are fed as two code units.
		hi, lo := utf16.EncodeRune(r)
		h1, h2 = step(h1, h2, uint32(hi))
		h1, h2 = step(h1, h2, uint32(lo))
	}

	h1 = (h1^(h1>>16))*mixA ^ (h2^(h2>>13))*mixB
	h2 = (h2^(h2>>16))*mixA ^ (h1^(h1>>13))*mixB

	return uint64(h2&0x1fffff)<<32 | uint64(h1)
}

// DigestString is Digest with a zero seed.
func DigestString(input string) uint64 {
	return Digest(input, 0)
}

func step(h1, h2, ch uint32) (uint32, uint32) {
	return (h1 ^ ch) * mulA, (h2 ^ ch) * mulB
}
