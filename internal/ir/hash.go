package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
)

// DomainSlots separates slot-set digests from any other hash.
const DomainSlots = "spread/slots/v1"

// snapshotPrecision is the number of decimals kept in snapshots so digests
// don't depend on the last bits of float arithmetic.
const snapshotPrecision = 1e6

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Round trims f to snapshot precision.
func Round(f float64) float64 {
	r := math.Round(f*snapshotPrecision) / snapshotPrecision
	if r == 0 {
		return 0
	}
	return r
}

// SlotSnapshot returns a canonical, order-independent view of a session's
// tagged objects: sorted by index, with rounded matrices. Object ids and
// names are omitted: both are assigned by the scene, so snapshots of the same
// placement in different scenes compare equal.
func SlotSnapshot(objs []Object) []any {
	tagged := make([]Object, 0, len(objs))
	for _, o := range objs {
		if o.Tag != nil {
			tagged = append(tagged, o)
		}
	}
	sort.Slice(tagged, func(i, j int) bool {
		return tagged[i].Tag.Index < tagged[j].Tag.Index
	})

	out := make([]any, len(tagged))
	for i, o := range tagged {
		rows := make([]any, 0, 3)
		for r := 0; r < 3; r++ {
			row := make([]any, 4)
			for c := 0; c < 4; c++ {
				row[c] = Round(o.Matrix[r][c])
			}
			rows = append(rows, row)
		}
		out[i] = map[string]any{
			"index":  o.Tag.Index,
			"mesh":   o.Mesh,
			"matrix": rows,
		}
	}
	return out
}

// SlotDigest hashes the canonical snapshot of objs.
func SlotDigest(objs []Object) (string, error) {
	data, err := MarshalCanonical(SlotSnapshot(objs))
	if err != nil {
		return "", fmt.Errorf("SlotDigest: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainSlots, data), nil
}
