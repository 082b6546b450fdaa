// Package ring implements arithmetic in GR(2^64, 64): the Galois ring of
// polynomials of degree less than 64 over Z_{2^64}, reduced by
// f(x) = x^64 - x^4 - x^3 - x - 1. The reduction polynomial's -1
// coefficients sit at positions 0, 1, 3, and 4, which is what lets Mul
// fold a high coefficient back in with four multiply-adds instead of a
// general polynomial division.
package ring

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/binary"

	"github.com/luxfi/fliop/pkg/errs"
)

// D is the ring's degree: the number of uint64 coefficients in an Element.
const D = 64

// reducerPositions holds the indices of f's non-zero low coefficients
// (all equal to -1 mod 2^64, i.e. ^uint64(0)).
var reducerPositions = [4]int{0, 1, 3, 4}

const reducerValue = ^uint64(0)

// Element is a value of GR(2^64, 64): an ordered sequence of exactly D
// coefficients, each reduced mod 2^64 by Go's native uint64 wraparound.
// Element is an immutable value type; every operation returns a fresh one.
type Element struct {
	coeffs [D]uint64
}

// Zero is the additive identity: all coefficients zero.
func Zero() Element { return Element{} }

// One is the multiplicative identity: coefficient 0 set to 1, rest zero.
func One() Element {
	var e Element
	e.coeffs[0] = 1
	return e
}

// FromCoeffs builds an Element from exactly D coefficients, in order from
// the constant term up. It returns ShapeMismatch if len(coeffs) != D.
func FromCoeffs(coeffs []uint64) (Element, error) {
	if len(coeffs) != D {
		return Element{}, errs.Newf(errs.ShapeMismatch, "ring: expected %d coefficients, got %d", D, len(coeffs))
	}
	var e Element
	copy(e.coeffs[:], coeffs)
	return e, nil
}

// FromUint64 lifts a single scalar into the ring at the constant term,
// mirroring Z2kElement.to_galois_ring.
func FromUint64(v uint64) Element {
	var e Element
	e.coeffs[0] = v
	return e
}

// Coeffs returns a copy of the element's D coefficients.
func (e Element) Coeffs() [D]uint64 { return e.coeffs }

// Coeff returns the i-th coefficient.
func (e Element) Coeff(i int) uint64 { return e.coeffs[i] }

// Random draws an Element whose coefficients are each independently
// uniform over [0, 2^64) from a cryptographically strong source.
func Random() (Element, error) {
	var buf [D * 8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return Element{}, errs.Wrap(errs.NetworkError, err)
	}
	var e Element
	for i := 0; i < D; i++ {
		e.coeffs[i] = binary.LittleEndian.Uint64(buf[i*8 : i*8+8])
	}
	return e, nil
}

// MustRandom is Random but panics on entropy-source failure, for use in
// tests and other contexts that cannot propagate an error.
func MustRandom() Element {
	e, err := Random()
	if err != nil {
		panic(err)
	}
	return e
}

// Add returns e + other, pointwise modulo 2^64.
func (e Element) Add(other Element) Element {
	var out Element
	for i := 0; i < D; i++ {
		out.coeffs[i] = e.coeffs[i] + other.coeffs[i]
	}
	return out
}

// Sub returns e - other, pointwise modulo 2^64.
func (e Element) Sub(other Element) Element {
	var out Element
	for i := 0; i < D; i++ {
		out.coeffs[i] = e.coeffs[i] - other.coeffs[i]
	}
	return out
}

// Neg returns -e, i.e. Zero().Sub(e).
func (e Element) Neg() Element {
	var out Element
	for i := 0; i < D; i++ {
		out.coeffs[i] = -e.coeffs[i]
	}
	return out
}

// Mul returns e * other: schoolbook multiplication into a length-(2D-1)
// accumulator followed by reduction by f(x) = x^D - x^4 - x^3 - x - 1.
func (e Element) Mul(other Element) Element {
	var product [2*D - 1]uint64

	for i := 0; i < D; i++ {
		if e.coeffs[i] == 0 {
			continue
		}
		ci := e.coeffs[i]
		for j := 0; j < D; j++ {
			product[i+j] += ci * other.coeffs[j]
		}
	}

	for i := 2*D - 2; i >= D; i-- {
		c := product[i]
		if c == 0 {
			continue
		}
		base := i - D
		for _, pos := range reducerPositions {
			product[base+pos] -= c * reducerValue
		}
	}

	var out Element
	copy(out.coeffs[:], product[:D])
	return out
}

// Equal reports whether e and other have identical coefficients.
func (e Element) Equal(other Element) bool {
	return e.coeffs == other.coeffs
}

// IsZero reports whether every coefficient is zero.
func (e Element) IsZero() bool {
	return e.coeffs == [D]uint64{}
}

// String serializes e as little-endian 8-byte limbs concatenated and
// base64-encoded, matching GaloisRingElement.to_string.
func (e Element) String() string {
	var buf [D * 8]byte
	for i := 0; i < D; i++ {
		binary.LittleEndian.PutUint64(buf[i*8:i*8+8], e.coeffs[i])
	}
	return base64.StdEncoding.EncodeToString(buf[:])
}

// FromString is the inverse of String. It returns BadFormat if s is not
// valid base64 or does not decode to exactly 8*D bytes.
func FromString(s string) (Element, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return Element{}, errs.Wrap(errs.BadFormat, err)
	}
	if len(raw) != D*8 {
		return Element{}, errs.Newf(errs.BadFormat, "ring: decoded %d bytes, want %d", len(raw), D*8)
	}
	var e Element
	for i := 0; i < D; i++ {
		e.coeffs[i] = binary.LittleEndian.Uint64(raw[i*8 : i*8+8])
	}
	return e, nil
}

// MarshalJSON implements json.Marshaler by encoding the element's String
// form, so Elements embed naturally into the wire packets of pkg/net.
func (e Element) MarshalJSON() ([]byte, error) {
	return []byte(`"` + e.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *Element) UnmarshalJSON(data []byte) error {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return errs.New(errs.BadFormat, "ring: element must be a JSON string")
	}
	parsed, err := FromString(string(data[1 : len(data)-1]))
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}
