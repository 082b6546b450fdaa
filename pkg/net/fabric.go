// Package net implements N: a best-effort, loopback UDP messaging fabric
// providing round-tagged, sender-addressed delivery, application-level
// fragmentation, forward-buffering of out-of-order future-round messages,
// and a barrier. Grounded line-for-line on Network/Party.py.
package net

import (
	"encoding/json"
	"fmt"
	gonet "net"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/luxfi/fliop/pkg/errs"
	"github.com/luxfi/fliop/pkg/party"
	"github.com/luxfi/fliop/pkg/protocol"
)

// MaxUDPPayload is the per-datagram fragmentation threshold, matching
// Network/Party.py's MAX_UDP_PAYLOAD = 32 * 1024.
const MaxUDPPayload = 32 * 1024

// pollTimeout is the soft poll timeout used while waiting on the socket;
// there is no overall deadline, only this per-iteration one, per spec.md §5.
const pollTimeout = time.Second

// recvBufSize is the minimum UDP receive buffer size required by the
// external interface contract (spec.md §6).
const recvBufSize = 1024 * 1024

type forwardKey struct {
	round protocol.RoundID
	src   party.ID
}

type fragmentEntry struct {
	total  int
	chunks map[int][]byte
}

// Fabric is one party's view of the network: its socket, its peer table,
// and the bookkeeping state (fragment reassembly table, forward buffer)
// spec.md §3 requires.
type Fabric struct {
	self  party.ID
	table party.Table
	peers []party.ID
	conn  *gonet.UDPConn

	mu        sync.Mutex
	forward   map[forwardKey]json.RawMessage
	fragments map[string]*fragmentEntry

	uidCounter uint64
}

// NewFabric binds a UDP socket on self's assigned loopback port and
// returns a Fabric ready to send and receive.
func NewFabric(self party.ID, table party.Table) (*Fabric, error) {
	port, ok := table.Port(self)
	if !ok {
		return nil, errs.Newf(errs.ShapeMismatch, "net: party %d not present in table", self)
	}
	addr := &gonet.UDPAddr{IP: gonet.IPv4(127, 0, 0, 1), Port: port}
	conn, err := gonet.ListenUDP("udp", addr)
	if err != nil {
		return nil, errs.Wrap(errs.NetworkError, err)
	}
	if err := conn.SetReadBuffer(recvBufSize); err != nil {
		// Not fatal: some platforms reject oversized requests or run in
		// containers without CAP_NET_ADMIN; the fabric still functions,
		// just with the OS default buffer.
		_ = err
	}
	return &Fabric{
		self:      self,
		table:     table,
		peers:     table.Peers(self),
		conn:      conn,
		forward:   make(map[forwardKey]json.RawMessage),
		fragments: make(map[string]*fragmentEntry),
	}, nil
}

// Close releases the underlying socket.
func (f *Fabric) Close() error {
	return f.conn.Close()
}

// Self returns this fabric's own party id.
func (f *Fabric) Self() party.ID { return f.self }

// Peers returns every other party id in the table.
func (f *Fabric) Peers() []party.ID { return f.peers }

func (f *Fabric) peerAddr(id party.ID) (*gonet.UDPAddr, error) {
	port, ok := f.table.Port(id)
	if !ok {
		return nil, errs.Newf(errs.ShapeMismatch, "net: unknown peer %d", id)
	}
	return &gonet.UDPAddr{IP: gonet.IPv4(127, 0, 0, 1), Port: port}, nil
}

func (f *Fabric) nextUID() string {
	f.mu.Lock()
	f.uidCounter++
	n := f.uidCounter
	f.mu.Unlock()
	return fragmentUID(f.self, n)
}

// sendRaw writes data to target. The would-block case never reaches this
// code: Go's runtime poller waits and retries it internally. Any other
// write error is returned as NetworkError.
func (f *Fabric) sendRaw(target party.ID, data []byte) error {
	addr, err := f.peerAddr(target)
	if err != nil {
		return err
	}
	if _, err := f.conn.WriteToUDP(data, addr); err != nil {
		return errs.Wrap(errs.NetworkError, err)
	}
	return nil
}

// sendPacket JSON-encodes payload and fragments it if it exceeds
// MaxUDPPayload, matching _send_packet.
func (f *Fabric) sendPacket(target party.ID, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return errs.Wrap(errs.BadFormat, err)
	}
	if len(data) <= MaxUDPPayload {
		return f.sendRaw(target, data)
	}

	uid := f.nextUID()
	numChunks := (len(data) + MaxUDPPayload - 1) / MaxUDPPayload
	for i := 0; i < numChunks; i++ {
		start := i * MaxUDPPayload
		end := start + MaxUDPPayload
		if end > len(data) {
			end = len(data)
		}
		frag := fragment{
			Frag: true,
			UID:  uid,
			I:    i,
			N:    numChunks,
			D:    latin1Encode(data[start:end]),
		}
		fragBytes, err := json.Marshal(frag)
		if err != nil {
			return errs.Wrap(errs.BadFormat, err)
		}
		if err := f.sendRaw(target, fragBytes); err != nil {
			return err
		}
	}
	return nil
}

// Send delivers value to a single peer, tagged with round, without going
// through every other peer — used by mac.Commit for the private
// MAC-key-share exchange with the committer.
func (f *Fabric) Send(target party.ID, round protocol.RoundID, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return errs.Wrap(errs.BadFormat, err)
	}
	env := envelope{T: tagData, R: int(round), Src: uint32(f.self), Val: raw}
	return f.sendPacket(target, env)
}

// Broadcast delivers value to every peer, tagged with round. Each peer is
// sent to on its own goroutine via errgroup, so ordering of fragments
// addressed to a given peer is preserved by construction (spec.md §5
// permits concurrent emission provided per-(round_id, src) ordering
// holds), matching the teacher's use of golang.org/x/sync/errgroup for
// concurrent per-party fan-out.
func (f *Fabric) Broadcast(round protocol.RoundID, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return errs.Wrap(errs.BadFormat, err)
	}
	env := envelope{T: tagData, R: int(round), Src: uint32(f.self), Val: raw}

	var g errgroup.Group
	for _, peer := range f.peers {
		peer := peer
		g.Go(func() error {
			return f.sendPacket(peer, env)
		})
	}
	return g.Wait()
}

// handleRecvData parses one received datagram, reassembling fragments as
// needed. It returns the decoded envelope and true once a complete
// message is available, matching _handle_recv_data.
func (f *Fabric) handleRecvData(data []byte) (envelope, bool) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return envelope{}, false
	}

	if fragRaw, ok := probe["__frag"]; ok && string(fragRaw) == "true" {
		var frag fragment
		if err := json.Unmarshal(data, &frag); err != nil {
			return envelope{}, false
		}
		chunk := latin1Decode(frag.D)

		f.mu.Lock()
		entry, ok := f.fragments[frag.UID]
		if !ok {
			entry = &fragmentEntry{total: frag.N, chunks: make(map[int][]byte)}
			f.fragments[frag.UID] = entry
		}
		if _, seen := entry.chunks[frag.I]; !seen {
			entry.chunks[frag.I] = chunk
		}
		complete := len(entry.chunks) == entry.total
		var full []byte
		if complete {
			for i := 0; i < entry.total; i++ {
				full = append(full, entry.chunks[i]...)
			}
			delete(f.fragments, frag.UID)
		}
		f.mu.Unlock()

		if !complete {
			return envelope{}, false
		}
		var env envelope
		if err := json.Unmarshal(full, &env); err != nil {
			return envelope{}, false
		}
		return env, true
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return envelope{}, false
	}
	return env, true
}

// Barrier sends READY to every peer and collects READY from every peer,
// retrying until all have been seen, matching Network/Party.py's barrier.
// READY packets are not tagged with a round id and are invisible to
// ReceiveRound.
func (f *Fabric) Barrier() error {
	ready := make(map[party.ID]bool, len(f.peers))
	buf := make([]byte, 65535)

	for len(ready) < len(f.peers) {
		readyEnv := envelope{T: tagReady, Src: uint32(f.self)}
		for _, peer := range f.peers {
			_ = f.sendPacket(peer, readyEnv)
		}

		if err := f.conn.SetReadDeadline(time.Now().Add(pollTimeout)); err != nil {
			return errs.Wrap(errs.NetworkError, err)
		}
		n, _, err := f.conn.ReadFromUDP(buf)
		if err != nil {
			if ne, ok := err.(gonet.Error); ok && ne.Timeout() {
				continue
			}
			continue
		}
		env, complete := f.handleRecvData(buf[:n])
		if complete && env.T == tagReady {
			ready[party.ID(env.Src)] = true
		}
	}
	return nil
}

// ReceiveRound blocks until every party in expectedSenders has produced a
// complete message for round, returning sender -> raw payload. It drains
// the forward buffer first, then polls the socket, forward-buffering
// messages for rounds greater than round and dropping messages for
// rounds less than round, matching receive_round.
func (f *Fabric) ReceiveRound(round protocol.RoundID, expectedSenders []party.ID) (map[party.ID]json.RawMessage, error) {
	if expectedSenders == nil {
		expectedSenders = f.peers
	}

	received := make(map[party.ID]json.RawMessage, len(expectedSenders))

	f.mu.Lock()
	for _, pid := range expectedSenders {
		key := forwardKey{round: round, src: pid}
		if val, ok := f.forward[key]; ok {
			received[pid] = val
			delete(f.forward, key)
		}
	}
	f.mu.Unlock()

	buf := make([]byte, 65535)
	wantSet := make(map[party.ID]bool, len(expectedSenders))
	for _, pid := range expectedSenders {
		wantSet[pid] = true
	}

	for len(received) < len(expectedSenders) {
		if err := f.conn.SetReadDeadline(time.Now().Add(pollTimeout)); err != nil {
			return nil, errs.Wrap(errs.NetworkError, err)
		}
		n, _, err := f.conn.ReadFromUDP(buf)
		if err != nil {
			if ne, ok := err.(gonet.Error); ok && ne.Timeout() {
				continue
			}
			return nil, errs.Wrap(errs.NetworkError, err)
		}

		env, complete := f.handleRecvData(buf[:n])
		if !complete {
			continue
		}
		if env.T != tagData {
			continue
		}
		src := party.ID(env.Src)

		switch {
		case env.R == int(round):
			if wantSet[src] {
				if _, already := received[src]; !already {
					received[src] = env.Val
				}
			}
		case env.R > int(round):
			f.mu.Lock()
			f.forward[forwardKey{round: protocol.RoundID(env.R), src: src}] = env.Val
			f.mu.Unlock()
		default:
			// env.R < round: stale message, dropped silently.
		}
	}

	return received, nil
}

func fragmentUID(self party.ID, counter uint64) string {
	return fmt.Sprintf("%s-%d", blake3FragmentID(self, counter), counter)
}
