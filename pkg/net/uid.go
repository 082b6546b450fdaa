package net

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"

	"github.com/zeebo/blake3"

	"github.com/luxfi/fliop/pkg/party"
)

// blake3FragmentID derives a collision-resistant fragment message id from
// the sender, a per-fabric monotonic counter, and a fresh random nonce,
// replacing the Python prototype's uuid.uuid4() while staying
// deterministic-free of any global PRNG state.
func blake3FragmentID(self party.ID, counter uint64) string {
	var nonce [16]byte
	_, _ = rand.Read(nonce[:])

	var counterBytes [8]byte
	binary.LittleEndian.PutUint64(counterBytes[:], counter)

	h := blake3.New()
	_, _ = h.Write([]byte{byte(self), byte(self >> 8), byte(self >> 16), byte(self >> 24)})
	_, _ = h.Write(counterBytes[:])
	_, _ = h.Write(nonce[:])

	sum := h.Sum(nil)
	return hex.EncodeToString(sum[:16])
}
