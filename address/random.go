package address

import (
	"crypto/rand"
	"fmt"
	"io"
)

// Source yields integers uniformly in [0, n). prng.Stream satisfies it, so
// the same seed always draws the same sector.
type Source interface {
	Intn(n int) int
}

// RandomSector draws length characters independently from the alphabet.
func RandomSector(src Source, length int) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = Alphabet[src.Intn(len(Alphabet))]
	}
	return string(b)
}

// NewSector returns a fresh sector id from crypto/rand. Sectors picked this
// way are not reproducible; they only start a new exploration.
func NewSector() (string, error) {
	return readSector(rand.Reader)
}

// readSector maps one byte of r to each character. The alphabet has 16
// symbols, so the low nibble is uniform.
func readSector(r io.Reader) (string, error) {
	buf := make([]byte, SectorLength)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("random sector: %w", err)
	}
	for i, c := range buf {
		buf[i] = Alphabet[c&0x0f]
	}
	return string(buf), nil
}
