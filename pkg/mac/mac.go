// Package mac implements A: the MAC-authenticated share layer. An
// authenticated share is a pair (v, m) of ring elements satisfying the
// global invariant Σv_i = x, Σm_i = α·x for the globally shared MAC key
// α = Σα_i. Grounded on Protocols/mac_pure.py's pure-network
// VOLEProtocol (the OLE-backed Mac_Protocol.py variant is out of scope).
//
// The strategy implemented here — reconstructing α at the committer so
// the committer alone can compute the MAC — is named explicitly per
// spec.md §9 so a drop-in VOLE-based alternative could replace it
// without the verifier needing to change: "trusted-committer MAC
// distribution".
package mac

import (
	"encoding/json"
	"errors"

	"github.com/luxfi/fliop/pkg/errs"
	"github.com/luxfi/fliop/pkg/net"
	"github.com/luxfi/fliop/pkg/party"
	"github.com/luxfi/fliop/pkg/protocol"
	"github.com/luxfi/fliop/pkg/ring"
)

// Strategy names the MAC-key-distribution approach a Committer uses.
type Strategy string

// TrustedCommitter is the only strategy implemented here: the party
// committing a value reconstructs the global MAC key to compute its MAC.
const TrustedCommitter Strategy = "trusted-committer"

// Share is an authenticated share (v, m) of a secret x: V sums to x and M
// sums to alpha*x across all parties.
type Share struct {
	V ring.Element
	M ring.Element
}

// Add returns the authenticated share of x+y given authenticated shares
// of x and y.
func (s Share) Add(other Share) Share {
	return Share{V: s.V.Add(other.V), M: s.M.Add(other.M)}
}

// Sub returns the authenticated share of x-y.
func (s Share) Sub(other Share) Share {
	return Share{V: s.V.Sub(other.V), M: s.M.Sub(other.M)}
}

// Neg returns the authenticated share of -x.
func (s Share) Neg() Share {
	return Share{V: s.V.Neg(), M: s.M.Neg()}
}

// ScalarMul returns the authenticated share of c*x for public c.
func (s Share) ScalarMul(c ring.Element) Share {
	return Share{V: s.V.Mul(c), M: s.M.Mul(c)}
}

// shareWire is the JSON shape of a single (v, m) distribution entry.
type shareWire struct {
	V string `json:"v"`
	M string `json:"m"`
}

func (s Share) toWire() shareWire {
	return shareWire{V: s.V.String(), M: s.M.String()}
}

func (w shareWire) toShare() (Share, error) {
	v, err := ring.FromString(w.V)
	if err != nil {
		return Share{}, err
	}
	m, err := ring.FromString(w.M)
	if err != nil {
		return Share{}, err
	}
	return Share{V: v, M: m}, nil
}

// Committer runs the trusted-committer MAC protocol over a Fabric: it
// holds this party's MAC-key share alpha_i and a private round counter so
// repeated Commit/OpenAndVerify calls never collide on round ids.
type Committer struct {
	Fabric     *net.Fabric
	AlphaShare ring.Element
	rounds     *protocol.RoundCounter
}

// NewCommitter creates a Committer with a freshly sampled MAC-key share.
func NewCommitter(fabric *net.Fabric) (*Committer, error) {
	alpha, err := ring.Random()
	if err != nil {
		return nil, err
	}
	return &Committer{
		Fabric:     fabric,
		AlphaShare: alpha,
		rounds:     protocol.NewRoundCounter(protocol.RoundMacCommit),
	}, nil
}

// Commit distributes an authenticated sharing of value, a secret known
// only to src. Parties other than src pass value=ring.Zero() (or any
// value — it's ignored) and receive their share of the committer's
// secret. Matches VOLEProtocol.commit.
func (c *Committer) Commit(value ring.Element, src party.ID) (Share, error) {
	self := c.Fabric.Self()
	n := len(c.Fabric.Peers()) + 1

	alphaRound := c.rounds.Next()
	var globalAlpha ring.Element
	if self != src {
		if err := c.Fabric.Send(src, alphaRound, c.AlphaShare.String()); err != nil {
			return Share{}, err
		}
	} else {
		globalAlpha = c.AlphaShare
		received, err := c.Fabric.ReceiveRound(alphaRound, c.Fabric.Peers())
		if err != nil {
			return Share{}, err
		}
		for _, raw := range received {
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				return Share{}, errs.Wrap(errs.BadFormat, err)
			}
			part, err := ring.FromString(s)
			if err != nil {
				return Share{}, err
			}
			globalAlpha = globalAlpha.Add(part)
		}
	}

	distRound := c.rounds.Next()

	if self == src {
		valShares, myVal, err := distributeRandomSum(c.Fabric.Peers(), value)
		if err != nil {
			return Share{}, err
		}
		globalMAC := globalAlpha.Mul(value)
		macShares, myMAC, err := distributeRandomSum(c.Fabric.Peers(), globalMAC)
		if err != nil {
			return Share{}, err
		}

		dist := make(map[string]shareWire, n)
		for _, peer := range c.Fabric.Peers() {
			dist[idKey(peer)] = Share{V: valShares[peer], M: macShares[peer]}.toWire()
		}
		mine := Share{V: myVal, M: myMAC}
		dist[idKey(self)] = mine.toWire()

		if err := c.Fabric.Broadcast(distRound, dist); err != nil {
			return Share{}, err
		}
		return mine, nil
	}

	incoming, err := c.Fabric.ReceiveRound(distRound, []party.ID{src})
	if err != nil {
		return Share{}, err
	}
	raw, ok := incoming[src]
	if !ok {
		return Share{}, errs.Newf(errs.NetworkError, "mac: no commitment received from %d", src)
	}
	var dist map[string]shareWire
	if err := json.Unmarshal(raw, &dist); err != nil {
		return Share{}, errs.Wrap(errs.BadFormat, err)
	}
	wire, ok := dist[idKey(self)]
	if !ok {
		return Share{}, errs.Newf(errs.BadFormat, "mac: commitment missing entry for %d", self)
	}
	return wire.toShare()
}

// OpenAndVerify reconstructs share's plaintext value and checks the MAC:
// each party computes sigma_i = m_i - alpha_i*x, broadcasts it, and the
// check passes iff the coefficient-wise sum of every sigma_i is zero.
// Matches VOLEProtocol.open_and_verify.
func (c *Committer) OpenAndVerify(share Share) (ring.Element, error) {
	valRound := c.rounds.Next()
	if err := c.Fabric.Broadcast(valRound, share.V.String()); err != nil {
		return ring.Element{}, err
	}
	valShares, err := c.Fabric.ReceiveRound(valRound, c.Fabric.Peers())
	if err != nil {
		return ring.Element{}, err
	}
	reconstructed := share.V
	for _, raw := range valShares {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ring.Element{}, errs.Wrap(errs.BadFormat, err)
		}
		part, err := ring.FromString(s)
		if err != nil {
			return ring.Element{}, err
		}
		reconstructed = reconstructed.Add(part)
	}

	term := c.AlphaShare.Mul(reconstructed)
	delta := share.M.Sub(term)

	deltaRound := c.rounds.Next()
	if err := c.Fabric.Broadcast(deltaRound, delta.String()); err != nil {
		return ring.Element{}, err
	}
	deltaShares, err := c.Fabric.ReceiveRound(deltaRound, c.Fabric.Peers())
	if err != nil {
		return ring.Element{}, err
	}
	totalDelta := delta
	var culprits []party.ID
	for src, raw := range deltaShares {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ring.Element{}, errs.Wrap(errs.BadFormat, err)
		}
		part, err := ring.FromString(s)
		if err != nil {
			return ring.Element{}, err
		}
		totalDelta = totalDelta.Add(part)
		culprits = append(culprits, src)
	}

	if !totalDelta.IsZero() {
		return ring.Element{}, errs.Wrap(errs.MacCheckFailed, errMacMismatch, culprits...)
	}
	return reconstructed, nil
}

// distributeRandomSum samples a uniform share for each id in peers and
// returns them alongside the complementary share that makes the full
// sum (peers plus the committer itself) equal total, matching
// VOLEProtocol.commit's val_shares/mac_shares construction.
func distributeRandomSum(peers []party.ID, total ring.Element) (map[party.ID]ring.Element, ring.Element, error) {
	shares := make(map[party.ID]ring.Element, len(peers))
	sum := ring.Zero()
	for _, peer := range peers {
		r, err := ring.Random()
		if err != nil {
			return nil, ring.Element{}, err
		}
		shares[peer] = r
		sum = sum.Add(r)
	}
	return shares, total.Sub(sum), nil
}

func idKey(id party.ID) string {
	return id.String()
}

var errMacMismatch = errors.New("mac: sigma sum is non-zero")
