// Package candidates merges candidate batches discovered on the hiring platform.
package candidates

import (
	"log"

	"github.com/jonathan/recruiter-agent/internal/types"
)

// Merge appends incoming to existing, dropping entries whose canonical key
// (every field, sorted-key JSON) was already seen. First-seen order is kept.
// Neither input slice is modified.
func Merge(existing []types.Candidate, incoming ...types.Candidate) []types.Candidate {
	out := make([]types.Candidate, 0, len(existing)+len(incoming))
	seen := make(map[string]struct{}, len(existing)+len(incoming))

	add := func(c types.Candidate) {
		key := c.CanonicalKey()
		if _, dup := seen[key]; dup {
			log.Printf("[DEDUP] dropping duplicate candidate %q (%s)", c.Name, c.ThreadKey())
			return
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}

	for _, c := range existing {
		add(c)
	}
	for _, c := range incoming {
		add(c)
	}
	return out
}

// Find returns the most recently discovered candidate in list with the same
// platform identity as c. A refreshed recommendation list can put a new
// person at an index seen before.
func Find(list []types.Candidate, c types.Candidate) (types.Candidate, bool) {
	for i := len(list) - 1; i >= 0; i-- {
		if list[i].SameIdentity(c) {
			return list[i], true
		}
	}
	return types.Candidate{}, false
}
