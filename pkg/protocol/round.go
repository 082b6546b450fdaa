// Package protocol provides the round-id plumbing shared by the mac,
// verifier, and offline layers. It generalizes the teacher's
// round.Session/round.Number machinery: since this system's network
// fabric already serializes rounds by (round_id, src), a full round-FSM
// abstraction is unnecessary. What remains is a monotonic allocator with
// named base offsets that give the protocol phases separate ranges of
// round ids over the same fabric.
package protocol

import "sync/atomic"

// RoundID tags one synchronization unit on the fabric.
type RoundID int

// Named base offsets, one per protocol phase, mirroring the numeric
// "zones" Protocols/FLIOP.py hardcodes (1000, 9000, 2000, 3500, 4000,
// 5000), plus 6000 and 7000 for the mac layer. The offline helper and
// the verifier both start their coin-toss counters at RoundCoinToss, so
// their coin-toss round ids coincide; every other phase has its own base.
const (
	RoundCoinToss     RoundID = 1000
	RoundAlpha        RoundID = 9000
	RoundOfflineDelta RoundID = 2000
	RoundOfflineBlind RoundID = 3500
	RoundOfflineOpen  RoundID = 4000
	RoundOnlineOpen   RoundID = 5000
	RoundMacCommit    RoundID = 6000
	RoundMacOpen      RoundID = 7000
)

// RoundCounter allocates strictly increasing round ids within a zone,
// generalizing VOLEProtocol's self.round_counter / self._next_round.
type RoundCounter struct {
	next int64
}

// NewRoundCounter creates a counter whose first allocation is base.
func NewRoundCounter(base RoundID) *RoundCounter {
	return &RoundCounter{next: int64(base)}
}

// Next returns the next round id in this counter's zone.
func (c *RoundCounter) Next() RoundID {
	return RoundID(atomic.AddInt64(&c.next, 1) - 1)
}
