// Package cms defines the shared error taxonomy and site-wide data
// types consumed across the resolution engine and the HTTP boundary.
package cms

import "errors"

// Sentinel errors for the resolution pipeline. The HTTP layer maps
// ErrPathEscape and ErrNotFound to 404 responses and ErrNoTemplate to
// 500: a missing fallback template is an operator bug, not a user
// navigation event.
var (
	// ErrPathEscape indicates a request path that would resolve outside
	// its confinement root, including via symlink indirection.
	ErrPathEscape = errors.New("path escapes confinement root")

	// ErrNotFound indicates no content document resolves for a path, or
	// a directory without an index document.
	ErrNotFound = errors.New("content not found")

	// ErrNoTemplate indicates the template waterfall exhausted every
	// candidate including the fallback.
	ErrNoTemplate = errors.New("no template matched, fallback missing")

	// ErrParse indicates a malformed frontmatter block. Loaders degrade
	// to empty frontmatter and log a warning rather than failing the
	// request; ErrParse surfaces only from strict validation paths such
	// as the check command.
	ErrParse = errors.New("malformed frontmatter")
)
