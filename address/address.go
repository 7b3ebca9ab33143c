// Package address implements the canvas addressing scheme: sectors, slots,
// their canonical keys, and the seeds derived from those keys.
//
// A sector is any 1024-character string over a 16-symbol alphabet. There is
// no registry; validity is purely structural. Each sector holds 1000 slots.
package address

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/DarlingtonDeveloper/CanvasBabel/hashid"
)

const (
	// Alphabet is the set of symbols a sector id may contain.
	Alphabet = "abcdef0123456789"
	// SectorLength is the exact length of a sector id.
	SectorLength = 1024
	// SlotsPerSector is the number of canvas slots in every sector.
	SlotsPerSector = 1000

	keyPrefix = "sector-"
	keyInfix  = ":canvas-"
)

var (
	ErrInvalidSector = errors.New("invalid sector id")
	ErrInvalidIndex  = errors.New("invalid canvas index")
	ErrInvalidKey    = errors.New("invalid canvas key")
)

// Slot is one addressable (sector, index) position.
type Slot struct {
	Sector string `json:"sector"`
	Index  int    `json:"index"`
}

// Key returns the slot's canonical key.
func (s Slot) Key() string {
	return CanonicalKey(s.Sector, s.Index)
}

// Seed returns the generation seed for the slot.
func (s Slot) Seed() uint64 {
	return DeriveSeed(s.Key())
}

// Validate checks both the sector and the index.
func (s Slot) Validate() error {
	if err := ValidateSector(s.Sector); err != nil {
		return err
	}
	return ValidateIndex(s.Index)
}

// CanonicalKey joins sector and index into the string that is hashed to seed
// the slot. ':' never appears in the alphabet, so the join is injective.
func CanonicalKey(sector string, index int) string {
	var b strings.Builder
	b.Grow(len(keyPrefix) + len(sector) + len(keyInfix) + 4)
	b.WriteString(keyPrefix)
	b.WriteString(sector)
	b.WriteString(keyInfix)
	b.WriteString(strconv.Itoa(index))
	return b.String()
}

// ParseKey is the inverse of CanonicalKey. It does not validate the sector
// beyond requiring that it contain no ':'.
func ParseKey(key string) (Slot, error) {
	rest, ok := strings.CutPrefix(key, keyPrefix)
	if !ok {
		return Slot{}, fmt.Errorf("%w: missing %q prefix", ErrInvalidKey, keyPrefix)
	}
	i := strings.LastIndex(rest, keyInfix)
	if i < 0 {
		return Slot{}, fmt.Errorf("%w: missing %q separator", ErrInvalidKey, keyInfix)
	}
	sector := rest[:i]
	if strings.ContainsRune(sector, ':') {
		return Slot{}, fmt.Errorf("%w: sector contains ':'", ErrInvalidKey)
	}
	index, err := ParseIndex(rest[i+len(keyInfix):])
	if err != nil {
		return Slot{}, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return Slot{Sector: sector, Index: index}, nil
}

// DeriveSeed returns the digest of a canonical key.
func DeriveSeed(key string) uint64 {
	return hashid.DigestString(key)
}

// ValidateSector reports whether s is a structurally valid sector id.
func ValidateSector(s string) error {
	if len(s) != SectorLength {
		return fmt.Errorf("%w: must be %d characters long, got %d", ErrInvalidSector, SectorLength, len(s))
	}
	for i := 0; i < len(s); i++ {
		if strings.IndexByte(Alphabet, s[i]) < 0 {
			return fmt.Errorf("%w: character %q at position %d is not one of %q", ErrInvalidSector, s[i], i, Alphabet)
		}
	}
	return nil
}

// ValidateIndex reports whether i addresses a slot within a sector.
func ValidateIndex(i int) error {
	if i < 0 || i >= SlotsPerSector {
		return fmt.Errorf("%w: %d is outside [0, %d)", ErrInvalidIndex, i, SlotsPerSector)
	}
	return nil
}

// ParseIndex parses a decimal, non-negative canvas index. Range is checked
// separately by ValidateIndex.
func ParseIndex(s string) (int, error) {
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidIndex)
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, fmt.Errorf("%w: %q is not a non-negative integer", ErrInvalidIndex, s)
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrInvalidIndex, s, err)
	}
	return n, nil
}

// ShortSector abbreviates a sector id for display: first 10 and last 10
// characters joined by "...".
func ShortSector(s string) string {
	if len(s) <= 23 {
		return s
	}
	return s[:10] + "..." + s[len(s)-10:]
}
