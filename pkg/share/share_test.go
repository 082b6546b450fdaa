package share_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/fliop/pkg/ring"
	"github.com/luxfi/fliop/pkg/share"
)

func TestDistributeReconstruct(t *testing.T) {
	secret := ring.MustRandom()
	shares, err := share.Distribute(secret, 4)
	require.NoError(t, err)
	require.Len(t, shares, 4)

	got := share.Reconstruct(shares)
	assert.True(t, secret.Equal(got))
}

func TestLinearity(t *testing.T) {
	x := ring.MustRandom()
	y := ring.MustRandom()
	c := ring.MustRandom()

	xShares, err := share.Distribute(x, 4)
	require.NoError(t, err)
	yShares, err := share.Distribute(y, 4)
	require.NoError(t, err)

	sumShares := make([]share.Share, 4)
	scaledShares := make([]share.Share, 4)
	for i := range xShares {
		sumShares[i] = xShares[i].Add(yShares[i])
		scaledShares[i] = xShares[i].ScalarMul(c)
	}

	assert.True(t, x.Add(y).Equal(share.Reconstruct(sumShares)))
	assert.True(t, x.Mul(c).Equal(share.Reconstruct(scaledShares)))
}
