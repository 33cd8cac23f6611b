// Package resolver maps request paths to confined filesystem locations.
// It is the single point of truth for path safety: every user-controlled
// segment that reaches the filesystem goes through Resolve first.
package resolver

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/conneroisu/mdserve/internal/cms"
)

// Resolver confines request paths to a single root directory.
type Resolver struct {
	root string
}

// New creates a Resolver for the given root. The root is canonicalized
// once (symlinks resolved) so containment checks compare like with like.
func New(root string) (*Resolver, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving root %s: %w", root, err)
	}
	canonical, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("canonicalizing root %s: %w", root, err)
	}
	return &Resolver{root: canonical}, nil
}

// Root returns the canonical confinement root.
func (r *Resolver) Root() string {
	return r.root
}

// Normalize collapses a raw request path into its logical form: slash
// separated, no leading or trailing slash, no dot segments. The empty
// string denotes the root. Paths that normalize above the root return
// ErrPathEscape.
func Normalize(requestPath string) (string, error) {
	if strings.ContainsRune(requestPath, 0) {
		return "", cms.ErrPathEscape
	}

	// Clean a relative path, not a rooted one. Cleaning "/"+p would
	// swallow leading ".." segments before the escape check sees them.
	trimmed := strings.Trim(strings.TrimSpace(requestPath), "/")
	logical := path.Clean(trimmed)
	if logical == "." {
		return "", nil
	}
	if logical == ".." || strings.HasPrefix(logical, "../") {
		return "", cms.ErrPathEscape
	}
	return logical, nil
}

// Resolve maps a request path to an absolute filesystem path guaranteed
// to sit inside the root. The returned logical path is the normalized
// request path used as the cache key. Any containment failure,
// including one introduced by a symlink, yields ErrPathEscape.
func (r *Resolver) Resolve(requestPath string) (confined string, logical string, err error) {
	logical, err = Normalize(requestPath)
	if err != nil {
		return "", "", err
	}

	candidate := filepath.Join(r.root, filepath.FromSlash(logical))
	resolved, err := resolveExisting(candidate)
	if err != nil {
		return "", "", fmt.Errorf("resolving %s: %w", requestPath, err)
	}

	if !r.contains(resolved) {
		return "", "", cms.ErrPathEscape
	}
	return resolved, logical, nil
}

// Contains reports whether an absolute path sits inside the root. Used
// by callers that derive sibling paths (index probes, extension
// suffixes) from an already-confined location.
func (r *Resolver) Contains(abs string) bool {
	resolved, err := resolveExisting(abs)
	if err != nil {
		return false
	}
	return r.contains(resolved)
}

func (r *Resolver) contains(resolved string) bool {
	if resolved == r.root {
		return true
	}
	return strings.HasPrefix(resolved, r.root+string(filepath.Separator))
}

// resolveExisting canonicalizes a path that may not exist yet: the
// longest existing ancestor is resolved through EvalSymlinks and the
// non-existent remainder is re-joined lexically. A symlinked ancestor
// pointing outside the root therefore still lands outside it.
func resolveExisting(p string) (string, error) {
	remainder := ""
	current := filepath.Clean(p)

	for {
		resolved, err := filepath.EvalSymlinks(current)
		if err == nil {
			if remainder == "" {
				return resolved, nil
			}
			return filepath.Join(resolved, remainder), nil
		}
		if !os.IsNotExist(err) {
			return "", err
		}

		parent := filepath.Dir(current)
		if parent == current {
			return "", err
		}
		if remainder == "" {
			remainder = filepath.Base(current)
		} else {
			remainder = filepath.Join(filepath.Base(current), remainder)
		}
		current = parent
	}
}
