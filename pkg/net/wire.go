package net

import "encoding/json"

// envelope is the non-fragment packet shape: {t, r, src, val}, per
// spec.md §4.5. Val carries any JSON-serializable payload verbatim.
type envelope struct {
	T   string          `json:"t"`
	R   int             `json:"r"`
	Src uint32          `json:"src"`
	Val json.RawMessage `json:"val"`
}

// fragment is the chunked-payload packet shape: {__frag, uid, i, n, d}.
// D holds the chunk bytes latin1-encoded into a string of code points
// 0-255, matching Network/Party.py's `chunk_data.decode('latin1')`
// (Go has no latin1 string type, so latin1Encode/latin1Decode reproduce
// the same byte<->codepoint mapping while staying valid UTF-8/JSON).
type fragment struct {
	Frag bool   `json:"__frag"`
	UID  string `json:"uid"`
	I    int    `json:"i"`
	N    int    `json:"n"`
	D    string `json:"d"`
}

// tag for a received READY barrier packet.
const tagReady = "READY"

// tag for an ordinary round-data packet.
const tagData = "DATA"

func latin1Encode(b []byte) string {
	runes := make([]rune, len(b))
	for i, c := range b {
		runes[i] = rune(c)
	}
	return string(runes)
}

func latin1Decode(s string) []byte {
	runes := []rune(s)
	out := make([]byte, len(runes))
	for i, r := range runes {
		out[i] = byte(r)
	}
	return out
}
