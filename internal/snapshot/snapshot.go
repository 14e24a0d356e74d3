// Package snapshot encodes a scan's observable behavior — the ordered
// token stream plus the scanner's final serialized state — as deterministic
// CBOR, for diffing against a golden file across commits. This is a
// development-time regression format layered on top of the scanner's own
// bit-exact wire layout, not a replacement for it.
package snapshot

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/go-cmp/cmp"

	"github.com/zshscan/zshscan/runtime/driver"
)

// TokenRecord is one token as stored in a snapshot, with the kind flattened
// to its debug name so goldens stay readable (and stable) even if the
// numeric kind order ever shifts.
type TokenRecord struct {
	Kind  string `cbor:"kind"`
	Start int    `cbor:"start"`
	End   int    `cbor:"end"`
	Text  string `cbor:"text"`
}

// Snapshot is the golden record of one file's scan.
type Snapshot struct {
	Tokens          []TokenRecord `cbor:"tokens"`
	State           []byte        `cbor:"state"`
	PendingHeredocs []string      `cbor:"pendingHeredocs,omitempty"`
}

// Capture builds a Snapshot from a completed file scan.
func Capture(fs *driver.FileScan) *Snapshot {
	snap := &Snapshot{
		State:           fs.FinalState,
		PendingHeredocs: fs.PendingHeredocs,
	}
	for _, t := range fs.Tokens {
		snap.Tokens = append(snap.Tokens, TokenRecord{
			Kind:  t.Kind.String(),
			Start: t.Start,
			End:   t.End,
			Text:  t.Text,
		})
	}
	return snap
}

// MarshalBinary produces deterministic CBOR encoding of the snapshot,
// byte-for-byte stable across runs.
func (s *Snapshot) MarshalBinary() ([]byte, error) {
	encMode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		return nil, fmt.Errorf("create CBOR encoder: %w", err)
	}

	// Type alias so CBOR doesn't call MarshalBinary recursively.
	type snapshotAlias Snapshot
	data, err := encMode.Marshal((*snapshotAlias)(s))
	if err != nil {
		return nil, fmt.Errorf("CBOR encoding failed: %w", err)
	}
	return data, nil
}

// Decode parses a snapshot previously produced by MarshalBinary.
func Decode(data []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := cbor.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}

// Diff returns a human-readable diff between the golden snapshot and the
// observed one, or "" when they match.
func Diff(golden, observed *Snapshot) string {
	return cmp.Diff(golden, observed)
}
