package verifier_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	itest "github.com/luxfi/fliop/internal/test"
	"github.com/luxfi/fliop/pkg/party"
	"github.com/luxfi/fliop/pkg/ring"
	"github.com/luxfi/fliop/pkg/share"
	"github.com/luxfi/fliop/pkg/verifier"
)

// distributeVector splits each element of vals additively across n
// parties and returns, per party, the slice of shares for the whole
// vector (partyShares[i][k] is party i's share of vals[k]).
func distributeVector(t *testing.T, vals []ring.Element, n int) [][]share.Share {
	t.Helper()
	perParty := make([][]share.Share, n)
	for i := range perParty {
		perParty[i] = make([]share.Share, len(vals))
	}
	for k, v := range vals {
		shares, err := share.Distribute(v, n)
		require.NoError(t, err)
		for i := 0; i < n; i++ {
			perParty[i][k] = shares[i]
		}
	}
	return perParty
}

// runVerify runs Verifier.Run once per party concurrently over
// in-process loopback fabrics and returns each party's error (nil on
// success).
func runVerify(t *testing.T, ids []party.ID, aPerParty, bPerParty, cPerParty [][]share.Share) []error {
	t.Helper()
	fabrics, cleanup := itest.NewFabrics(t, ids)
	defer cleanup()

	_, errs := itest.RunAll(ids, func(id party.ID) (struct{}, error) {
		return struct{}{}, fabrics[id].Barrier()
	})
	for _, err := range errs {
		require.NoError(t, err)
	}

	_, errs = itest.RunAll(ids, func(id party.ID) (struct{}, error) {
		v := verifier.New(fabrics[id])
		var cShare share.Share
		if len(cPerParty[id]) == 1 {
			cShare = cPerParty[id][0]
		}
		return struct{}{}, v.Run(aPerParty[id], bPerParty[id], cShare)
	})
	return errs
}

func gElement(v uint64) ring.Element {
	return ring.FromUint64(v)
}
