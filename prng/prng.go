// Package prng implements the seedable generator that drives canvas
// synthesis and address discovery.
//
// The generator is mulberry32: a single 32-bit state word, advanced by a fixed
// odd increment and scrambled with two xor-shift/multiply rounds. All
// arithmetic wraps at 32 bits, so a stream is bit-for-bit reproducible from
// its seed.
package prng

const increment = 0x6D2B79F5

// Stream is a restartable sequence of floats in [0,1). The same seed always
// yields the same sequence; to restart, call New again. A Stream is not safe
// for concurrent use.
type Stream struct {
	state uint32
}

// New opens a stream. Only the low 32 bits of seed are significant.
func New(seed uint64) *Stream {
	return &Stream{state: uint32(seed)}
}

// Uint32 returns the next raw 32-bit output.
func (s *Stream) Uint32() uint32 {
	s.state += increment
	t := s.state
	t = (t ^ t>>15) * (t | 1)
	t ^= t + (t^t>>7)*(t|61)
	return t ^ t>>14
}

// Float64 returns the next value in [0,1).
func (s *Stream) Float64() float64 {
	return float64(s.Uint32()) / (1 << 32)
}

// Intn returns floor(Float64() * n). n must be positive.
func (s *Stream) Intn(n int) int {
	return int(s.Float64() * float64(n))
}
