// Package test provides the in-process multi-party harness used by
// pkg/net, pkg/mac, pkg/verifier, and pkg/offline's integration tests:
// real loopback UDP fabrics on ephemeral ports, one per simulated party.
// Adapted from the teacher's internal/test package shape
// (test.PartyIDs(n), test.NewNetwork(ids)) but built on real sockets,
// since this system's fragmentation and forward-buffering properties are
// properties of an actual UDP fabric rather than a virtual one.
package test

import (
	"net"
	"testing"

	fnet "github.com/luxfi/fliop/pkg/net"
	"github.com/luxfi/fliop/pkg/party"
)

// PartyIDs returns the ids {0, ..., n-1}.
func PartyIDs(n int) []party.ID {
	ids := make([]party.ID, n)
	for i := range ids {
		ids[i] = party.ID(i)
	}
	return ids
}

// NewFabrics binds one Fabric per id in ids on distinct ephemeral
// loopback ports and returns them keyed by id, along with a cleanup func
// that closes every socket.
func NewFabrics(t *testing.T, ids []party.ID) (map[party.ID]*fnet.Fabric, func()) {
	t.Helper()

	table := make(party.Table, len(ids))
	for _, id := range ids {
		table[id] = freePort(t)
	}

	fabrics := make(map[party.ID]*fnet.Fabric, len(ids))
	for _, id := range ids {
		f, err := fnet.NewFabric(id, table)
		if err != nil {
			t.Fatalf("test: NewFabric(%d): %v", id, err)
		}
		fabrics[id] = f
	}

	cleanup := func() {
		for _, f := range fabrics {
			_ = f.Close()
		}
	}
	return fabrics, cleanup
}

// freePort asks the OS for an unused loopback UDP port.
func freePort(t *testing.T) int {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0})
	if err != nil {
		t.Fatalf("test: freePort: %v", err)
	}
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).Port
}
