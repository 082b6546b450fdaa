// Package word implements Z_{2^64}, a convenience scalar type that feeds
// into pkg/ring: Go's native uint64 wraparound already is arithmetic
// modulo 2^64, so Word is a thin, explicitly-named wrapper rather than a
// bignum type.
package word

import (
	"encoding/base64"
	"encoding/binary"

	"github.com/luxfi/fliop/pkg/errs"
	"github.com/luxfi/fliop/pkg/ring"
)

// Word is an element of Z_{2^64}.
type Word uint64

// Random draws a uniform Word from a cryptographically strong source.
func Random() (Word, error) {
	e, err := ring.Random()
	if err != nil {
		return 0, err
	}
	return Word(e.Coeff(0)), nil
}

// Add returns w + other mod 2^64.
func (w Word) Add(other Word) Word { return w + other }

// Sub returns w - other mod 2^64.
func (w Word) Sub(other Word) Word { return w - other }

// Neg returns -w mod 2^64.
func (w Word) Neg() Word { return -w }

// Mul returns w * other mod 2^64.
func (w Word) Mul(other Word) Word { return w * other }

// Lift places w at the ring element's constant term, zeros elsewhere,
// matching Z2kElement.to_galois_ring.
func (w Word) Lift() ring.Element {
	return ring.FromUint64(uint64(w))
}

// String serializes w as 8 little-endian bytes, base64-encoded, matching
// Z2kElement.to_string.
func (w Word) String() string {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(w))
	return base64.StdEncoding.EncodeToString(buf[:])
}

// FromString is the inverse of String.
func FromString(s string) (Word, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return 0, errs.Wrap(errs.BadFormat, err)
	}
	if len(raw) != 8 {
		return 0, errs.Newf(errs.BadFormat, "word: decoded %d bytes, want 8", len(raw))
	}
	return Word(binary.LittleEndian.Uint64(raw)), nil
}
