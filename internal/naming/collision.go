package naming

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
)

// CollisionResolver tracks target paths claimed by source files. A collision
// here always means two sibling files share a basename but differ in
// container extension (e.g. "movie.mp4" and "movie.mkv" both extracting to
// "movie.mp3"), so the disambiguator is the source's own extension rather
// than an arbitrary counter: the second claimant becomes "movie (mkv).mp3".
// A numeric tiebreaker only kicks in if that source-extension suffix is
// itself already taken, which needs three-or-more same-basename siblings
// sharing an extension pairing. Safe for concurrent use.
type CollisionResolver struct {
	mu       sync.Mutex
	owners   map[string]string // target path → source path that owns it
	counters map[string]int    // extension-suffixed target → next tiebreaker
}

// NewCollisionResolver creates a ready-to-use resolver.
func NewCollisionResolver() *CollisionResolver {
	return &CollisionResolver{
		owners:   make(map[string]string),
		counters: make(map[string]int),
	}
}

// Resolve returns the final target path for source, handling collisions.
// If requestedTarget is unclaimed (or already owned by source), it is
// returned as-is. Otherwise a variant naming source's own extension is
// generated, falling back to a numeric tiebreaker if that's also taken.
func (cr *CollisionResolver) Resolve(source, requestedTarget string) string {
	cr.mu.Lock()
	defer cr.mu.Unlock()

	owner, exists := cr.owners[requestedTarget]
	if !exists || owner == source {
		cr.owners[requestedTarget] = source
		return requestedTarget
	}

	dir := filepath.Dir(requestedTarget)
	base := filepath.Base(requestedTarget)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	srcExt := strings.TrimPrefix(strings.ToLower(filepath.Ext(source)), ".")
	if srcExt == "" {
		srcExt = "src"
	}
	candidate := filepath.Join(dir, fmt.Sprintf("%s (%s)%s", stem, srcExt, ext))

	cOwner, cExists := cr.owners[candidate]
	if !cExists || cOwner == source {
		cr.owners[candidate] = source
		return candidate
	}

	counter := cr.counters[candidate]
	for {
		counter++
		alt := filepath.Join(dir, fmt.Sprintf("%s (%s-%d)%s", stem, srcExt, counter, ext))
		aOwner, aExists := cr.owners[alt]
		if !aExists || aOwner == source {
			cr.counters[candidate] = counter
			cr.owners[alt] = source
			return alt
		}
	}
}
