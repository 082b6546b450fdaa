package offline

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/fliop/pkg/errs"
	"github.com/luxfi/fliop/pkg/party"
	"github.com/luxfi/fliop/pkg/ring"
)

func TestCheckMacDeltaZeroAlwaysPasses(t *testing.T) {
	require.NoError(t, checkMacDelta(false, ring.Zero(), nil))
	require.NoError(t, checkMacDelta(true, ring.Zero(), nil))
}

func TestCheckMacDeltaNonZeroFailsUnlessIgnored(t *testing.T) {
	nonZero := ring.MustRandom()
	culprits := []party.ID{1, 2}

	err := checkMacDelta(false, nonZero, culprits)
	require.Error(t, err)
	kind, ok := errs.KindOf(err)
	require.True(t, ok)
	require.Equal(t, errs.MacCheckFailed, kind)

	require.NoError(t, checkMacDelta(true, nonZero, culprits))
}
