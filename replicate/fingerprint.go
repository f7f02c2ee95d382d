package replicate

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
)

// Fingerprint computes a stable hash over a set of (name, value) pairs.
// The result is independent of iteration order and changes if and only if at
// least one pair changes. An empty set yields an empty fingerprint.
//
// Fingerprints let staleness be detected by comparing the stored hash against
// a freshly computed one, without a network round-trip.
func Fingerprint(pairs map[string]string) string {
	if len(pairs) == 0 {
		return ""
	}

	names := make([]string, 0, len(pairs))
	for name := range pairs {
		names = append(names, name)
	}
	sort.Strings(names)

	h := sha256.New()
	for _, name := range names {
		// NUL separators keep (a, bc) and (ab, c) distinct.
		h.Write([]byte(name))
		h.Write([]byte{0})
		h.Write([]byte(pairs[name]))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
