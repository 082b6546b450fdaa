package verifier_test

import (
	"testing"

	"github.com/montanaflynn/stats"
	"github.com/stretchr/testify/require"

	itest "github.com/luxfi/fliop/internal/test"
	"github.com/luxfi/fliop/pkg/ring"
)

// randomVector returns m independent random ring elements.
func randomVector(t *testing.T, m int) []ring.Element {
	t.Helper()
	vec := make([]ring.Element, m)
	for i := range vec {
		e, err := ring.Random()
		require.NoError(t, err)
		vec[i] = e
	}
	return vec
}

func plaintextDot(a, b []ring.Element) ring.Element {
	sum := ring.Zero()
	for i := range a {
		sum = sum.Add(a[i].Mul(b[i]))
	}
	return sum
}

// TestLargeVectorCompleteness runs the M=1024 case with an honestly
// computed claim and expects every party to accept it (spec.md §8).
func TestLargeVectorCompleteness(t *testing.T) {
	const m = 1024
	ids := itest.PartyIDs(4)

	a := randomVector(t, m)
	b := randomVector(t, m)
	c := plaintextDot(a, b)

	aPerParty := distributeVector(t, a, len(ids))
	bPerParty := distributeVector(t, b, len(ids))
	cPerParty := distributeVector(t, []ring.Element{c}, len(ids))

	errs := runVerify(t, ids, aPerParty, bPerParty, cPerParty)
	for _, err := range errs {
		require.NoError(t, err)
	}
}

// TestLargeVectorSoundness tampers a single coefficient of a single
// party's share of a[0] (so the claimed c no longer matches any
// consistent opening) over 100 independent trials and asserts the
// fold-and-check protocol rejects it in at least 99/100 trials, per
// spec.md §8's "soundness error at most 2^-64 per round" property —
// at M=1024 scale the empirical rejection rate should be overwhelming.
func TestLargeVectorSoundness(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping 100-trial soundness sweep in -short mode")
	}
	const m = 1024
	const trials = 100
	ids := itest.PartyIDs(4)

	outcomes := make([]float64, 0, trials)
	for trial := 0; trial < trials; trial++ {
		a := randomVector(t, m)
		b := randomVector(t, m)
		c := plaintextDot(a, b)

		aPerParty := distributeVector(t, a, len(ids))
		bPerParty := distributeVector(t, b, len(ids))
		cPerParty := distributeVector(t, []ring.Element{c}, len(ids))

		tampered := aPerParty[0][0]
		coeffs := tampered.V.Coeffs()
		coeffs[0] ^= 1
		flipped, err := ring.FromCoeffs(coeffs[:])
		require.NoError(t, err)
		aPerParty[0][0].V = flipped

		errs := runVerify(t, ids, aPerParty, bPerParty, cPerParty)
		rejected := false
		for _, err := range errs {
			if err != nil {
				rejected = true
				break
			}
		}
		if rejected {
			outcomes = append(outcomes, 1)
		} else {
			outcomes = append(outcomes, 0)
		}
	}

	rejectRate, err := stats.Mean(outcomes)
	require.NoError(t, err)
	require.GreaterOrEqualf(t, rejectRate, 0.99, "expected >=99/100 trials to reject a tampered claim, got rate %.3f", rejectRate)
}
