package protocol

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// TranscriptDigest hashes a sequence of wire strings into a single
// collision-resistant checksum, generalizing the teacher's pkg/hash
// broadcast-hash check (pkg/protocol/handler.go) down to what this
// system needs: a cheap way for a broadcaster to let every receiver
// confirm it reconstructed the same ordered batch of values, without
// re-sending the whole batch a second time.
func TranscriptDigest(parts ...string) string {
	h := blake3.New()
	for _, p := range parts {
		_, _ = h.Write([]byte(p))
		_, _ = h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
