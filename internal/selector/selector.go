// Package selector implements the template waterfall: a deterministic,
// short-circuiting search for the most specific template matching a
// content path.
package selector

import (
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/conneroisu/mdserve/internal/cache"
	"github.com/conneroisu/mdserve/internal/cms"
	"github.com/conneroisu/mdserve/internal/inflect"
)

// Fallback is the template every site must provide; the waterfall ends
// here and its absence is a configuration error, not a 404.
const Fallback = "page.html"

// rootIndex is tried first for the site root only.
const rootIndex = "index.html"

// Selector picks templates from a single template root.
type Selector struct {
	root     string
	singular *inflect.Singularizer
}

// New creates a Selector over the given template root.
func New(root string, singular *inflect.Singularizer) *Selector {
	if singular == nil {
		singular = inflect.New()
	}
	return &Selector{root: root, singular: singular}
}

// Candidates returns the ordered, deduplicated candidate list for a
// logical content path, most specific first. The logical path is slash
// separated with no leading slash; empty string denotes the site root.
// isSection marks directory-index content: its exact match is the
// section's own name, and singular "item" candidates are skipped at
// every level: a section listing is never an item view.
func (s *Selector) Candidates(logical string, isSection bool) []string {
	var out []string
	seen := make(map[string]struct{})
	add := func(name string) {
		if _, dup := seen[name]; dup {
			return
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}

	parts := splitLogical(logical)

	if len(parts) == 0 {
		add(rootIndex)
		add(Fallback)
		return out
	}

	// Exact match. For a section the leaf is the directory's own name,
	// so this coincides with its plural candidate below and dedupes.
	add(strings.Join(parts, "/") + ".html")
	if !isSection {
		parts = parts[:len(parts)-1]
	}

	// Recursive upward search: singular-of-this-level, then plural,
	// then strip a segment and repeat.
	for len(parts) > 0 {
		current := parts[len(parts)-1]
		parent := parts[:len(parts)-1]

		if !isSection {
			singular := append(append([]string{}, parent...), s.singular.Singular(current))
			add(strings.Join(singular, "/") + ".html")
		}
		add(strings.Join(parts, "/") + ".html")

		parts = parts[:len(parts)-1]
	}

	add(Fallback)
	return out
}

// Select runs the waterfall and returns the first candidate whose
// backing file exists. Every probe, hits and misses alike, is tracked
// in the snapshot: a template created later that would have won an
// earlier-tried candidate must invalidate the cached result. Exhaustion
// including the fallback yields ErrNoTemplate.
func (s *Selector) Select(logical string, isSection bool, snap *cache.Snapshot) (string, error) {
	for _, candidate := range s.Candidates(logical, isSection) {
		file := filepath.Join(s.root, filepath.FromSlash(candidate))
		if snap != nil {
			snap.Track(file)
		}
		if info, err := os.Stat(file); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	return "", cms.ErrNoTemplate
}

// TemplatePath returns the absolute path of a template identifier.
func (s *Selector) TemplatePath(name string) string {
	return filepath.Join(s.root, filepath.FromSlash(name))
}

// Root returns the template root directory.
func (s *Selector) Root() string {
	return s.root
}

func splitLogical(logical string) []string {
	logical = strings.Trim(path.Clean("/"+logical), "/")
	if logical == "" {
		return nil
	}
	return strings.Split(logical, "/")
}
