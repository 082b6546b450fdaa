// Package share implements the additive secret share S over pkg/ring:
// party i holds a value x_i such that summing every party's share
// reconstructs the secret x. Grounded on
// Datetype/LinearSecretShare.py's ASSecretShare/ASSProtocol.
package share

import (
	"github.com/luxfi/fliop/pkg/ring"
)

// Share is a single party's additive share of a ring element.
type Share struct {
	V ring.Element
}

// New wraps a ring element as a share.
func New(v ring.Element) Share { return Share{V: v} }

// Add returns the share of x+y given shares of x and y.
func (s Share) Add(other Share) Share { return Share{V: s.V.Add(other.V)} }

// Sub returns the share of x-y given shares of x and y.
func (s Share) Sub(other Share) Share { return Share{V: s.V.Sub(other.V)} }

// Neg returns the share of -x given a share of x.
func (s Share) Neg() Share { return Share{V: s.V.Neg()} }

// ScalarMul returns the share of c*x for a public scalar c.
func (s Share) ScalarMul(c ring.Element) Share { return Share{V: s.V.Mul(c)} }

// Distribute splits secret additively across n parties: n-1 uniformly
// random shares and a final share that makes the sum equal secret,
// matching ASSProtocol.share_secret.
func Distribute(secret ring.Element, n int) ([]Share, error) {
	shares := make([]Share, n)
	sum := ring.Zero()
	for i := 0; i < n-1; i++ {
		r, err := ring.Random()
		if err != nil {
			return nil, err
		}
		shares[i] = Share{V: r}
		sum = sum.Add(r)
	}
	shares[n-1] = Share{V: secret.Sub(sum)}
	return shares, nil
}

// Reconstruct sums every party's share to recover the secret, matching
// ASSProtocol.reconstruct.
func Reconstruct(shares []Share) ring.Element {
	vals := make([]ring.Element, len(shares))
	for i, s := range shares {
		vals[i] = s.V
	}
	return ring.SumAll(ring.Zero(), vals)
}
