package mac_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	itest "github.com/luxfi/fliop/internal/test"
	"github.com/luxfi/fliop/pkg/mac"
	"github.com/luxfi/fliop/pkg/party"
	"github.com/luxfi/fliop/pkg/ring"
)

func newCommitters(t *testing.T, ids []party.ID) (map[party.ID]*mac.Committer, func()) {
	t.Helper()
	fabrics, cleanup := itest.NewFabrics(t, ids)

	_, errs := itest.RunAll(ids, func(id party.ID) (struct{}, error) {
		return struct{}{}, fabrics[id].Barrier()
	})
	for _, err := range errs {
		require.NoError(t, err)
	}

	committers := make(map[party.ID]*mac.Committer, len(ids))
	for _, id := range ids {
		c, err := mac.NewCommitter(fabrics[id])
		require.NoError(t, err)
		committers[id] = c
	}
	return committers, cleanup
}

func TestCommitOpenAndVerify(t *testing.T) {
	ids := itest.PartyIDs(4)
	committers, cleanup := newCommitters(t, ids)
	defer cleanup()

	secret := ring.FromUint64(42)

	shares, errs := itest.RunAll(ids, func(id party.ID) (mac.Share, error) {
		if id == 0 {
			return committers[id].Commit(secret, 0)
		}
		return committers[id].Commit(ring.Zero(), 0)
	})
	for _, err := range errs {
		require.NoError(t, err)
	}

	results, errs := itest.RunAll(ids, func(id party.ID) (ring.Element, error) {
		idx := indexOf(ids, id)
		return committers[id].OpenAndVerify(shares[idx])
	})
	for _, err := range errs {
		require.NoError(t, err)
	}
	for _, got := range results {
		assert.True(t, secret.Equal(got))
	}
}

func TestShareLinearityPreservesMAC(t *testing.T) {
	ids := itest.PartyIDs(4)
	committers, cleanup := newCommitters(t, ids)
	defer cleanup()

	x := ring.FromUint64(7)
	y := ring.FromUint64(35)

	xShares, errs := itest.RunAll(ids, func(id party.ID) (mac.Share, error) {
		if id == 0 {
			return committers[id].Commit(x, 0)
		}
		return committers[id].Commit(ring.Zero(), 0)
	})
	for _, err := range errs {
		require.NoError(t, err)
	}
	yShares, errs := itest.RunAll(ids, func(id party.ID) (mac.Share, error) {
		if id == 1 {
			return committers[id].Commit(y, 1)
		}
		return committers[id].Commit(ring.Zero(), 1)
	})
	for _, err := range errs {
		require.NoError(t, err)
	}

	sums := make(map[party.ID]mac.Share, len(ids))
	for i, id := range ids {
		sums[id] = xShares[i].Add(yShares[i])
	}

	results, errs := itest.RunAll(ids, func(id party.ID) (ring.Element, error) {
		return committers[id].OpenAndVerify(sums[id])
	})
	for _, err := range errs {
		require.NoError(t, err)
	}
	for _, got := range results {
		assert.True(t, x.Add(y).Equal(got))
	}
}

func TestMacForgeryDetection(t *testing.T) {
	ids := itest.PartyIDs(4)
	committers, cleanup := newCommitters(t, ids)
	defer cleanup()

	secret := ring.FromUint64(9)

	shares, errs := itest.RunAll(ids, func(id party.ID) (mac.Share, error) {
		if id == 0 {
			return committers[id].Commit(secret, 0)
		}
		return committers[id].Commit(ring.Zero(), 0)
	})
	for _, err := range errs {
		require.NoError(t, err)
	}

	// Flip one coefficient of party 1's MAC share before opening.
	tampered := make(map[party.ID]mac.Share, len(ids))
	for i, id := range ids {
		tampered[id] = shares[i]
	}
	coeffs := tampered[1].M.Coeffs()
	coeffs[0] ^= 1
	flipped, err := ring.FromCoeffs(coeffs[:])
	require.NoError(t, err)
	tampered[1] = mac.Share{V: tampered[1].V, M: flipped}

	_, errs = itest.RunAll(ids, func(id party.ID) (ring.Element, error) {
		return committers[id].OpenAndVerify(tampered[id])
	})
	failures := 0
	for _, err := range errs {
		if err != nil {
			failures++
		}
	}
	assert.Equal(t, len(ids), failures, "every party should observe the MAC check fail")
}

func indexOf(ids []party.ID, id party.ID) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}
