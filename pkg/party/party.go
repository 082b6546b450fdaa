// Package party defines party identities and the static port table that
// the messaging fabric uses to address them on loopback UDP.
package party

import (
	"encoding/json"
	"sort"
)

// ID identifies one of the n participants in a protocol run.
type ID uint32

// Table maps a party ID to the UDP port it listens on. It is the only
// "configuration" this system has: there is no persisted state beyond it.
type Table map[ID]int

// DefaultTable is the reasonable default named in the external interface
// contract: four parties on consecutive loopback ports starting at 5000.
func DefaultTable() Table {
	return Table{
		0: 5000,
		1: 5001,
		2: 5002,
		3: 5003,
	}
}

// IDs returns the table's party IDs in ascending order.
func (t Table) IDs() []ID {
	ids := make([]ID, 0, len(t))
	for id := range t {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Peers returns every ID in the table other than self, in ascending order.
func (t Table) Peers(self ID) []ID {
	peers := make([]ID, 0, len(t)-1)
	for _, id := range t.IDs() {
		if id != self {
			peers = append(peers, id)
		}
	}
	return peers
}

// N returns the number of parties in the table.
func (t Table) N() int { return len(t) }

// Port returns the loopback port assigned to id, and whether id is present.
func (t Table) Port(id ID) (int, bool) {
	p, ok := t[id]
	return p, ok
}

// String renders the ID as its decimal value, used as a JSON object key
// wherever a share distribution map is keyed by party id.
func (id ID) String() string {
	return idKey(id)
}

// tableJSON is the on-the-wire shape for Table: string keys, since JSON
// object keys must be strings, matching the teacher's config.marshal.go
// convention of explicit wire structs around otherwise-numeric keys.
type tableJSON map[string]int

// MarshalJSON implements json.Marshaler.
func (t Table) MarshalJSON() ([]byte, error) {
	wire := make(tableJSON, len(t))
	for id, port := range t {
		wire[idKey(id)] = port
	}
	return json.Marshal(wire)
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Table) UnmarshalJSON(data []byte) error {
	var wire tableJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	out := make(Table, len(wire))
	for k, port := range wire {
		id, err := parseIDKey(k)
		if err != nil {
			return err
		}
		out[id] = port
	}
	*t = out
	return nil
}
