package naming

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
)

// CollisionResolver tracks paths claimed by source files and resolves
// duplicates by appending " - dupN" suffixes. All methods are goroutine-safe.
type CollisionResolver struct {
	mu     sync.Mutex
	owners map[string]string // claimed path → source that owns it
}

// NewCollisionResolver creates a ready-to-use resolver.
func NewCollisionResolver() *CollisionResolver {
	return &CollisionResolver{
		owners: make(map[string]string),
	}
}

// Resolve returns the final file path for source. If requested is unclaimed
// (or already owned by source) it is returned as-is; otherwise the suffix is
// inserted before the extension.
func (cr *CollisionResolver) Resolve(source, requested string) string {
	return cr.claim(source, requested, true)
}

// ResolvePrefix is Resolve for extensionless prefixes such as pass-log
// paths; the suffix is always appended at the end.
func (cr *CollisionResolver) ResolvePrefix(source, requested string) string {
	return cr.claim(source, requested, false)
}

func (cr *CollisionResolver) claim(source, requested string, splitExt bool) string {
	cr.mu.Lock()
	defer cr.mu.Unlock()

	owner, exists := cr.owners[requested]
	if !exists || owner == source {
		cr.owners[requested] = source
		return requested
	}

	dir := filepath.Dir(requested)
	stem, ext := filepath.Base(requested), ""
	if splitExt {
		ext = filepath.Ext(stem)
		stem = strings.TrimSuffix(stem, ext)
	}

	// Scan from dup1 so a source that already holds a slot gets it back.
	for counter := 1; ; counter++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s - dup%d%s", stem, counter, ext))
		cOwner, cExists := cr.owners[candidate]
		if !cExists || cOwner == source {
			cr.owners[candidate] = source
			return candidate
		}
	}
}
