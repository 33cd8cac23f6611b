package content

import (
	"html/template"
	"sync"
	"time"
)

// NodeKind distinguishes leaf documents from directory sections.
type NodeKind int

const (
	// KindLeaf is a single content document (posts/post-1.md).
	KindLeaf NodeKind = iota
	// KindSection is a directory made addressable by its index document.
	KindSection
)

// Node is one addressable unit of content. Nodes are immutable after
// construction apart from the lazily rendered body; invalidation
// rebuilds the whole node rather than mutating it in place, so readers
// never need a lock.
type Node struct {
	LogicalPath string
	SourceFile  string
	Kind        NodeKind
	Frontmatter map[string]any
	Title       string
	RawBody     []byte
	ModTime     time.Time

	renderOnce sync.Once
	rendered   template.HTML
}

// IsSection reports whether the node is a directory section.
func (n *Node) IsSection() bool {
	return n.Kind == KindSection
}

// URL returns the site-relative URL of the node.
func (n *Node) URL() string {
	if n.LogicalPath == "" {
		return "/"
	}
	return "/" + n.LogicalPath
}

// HTML returns the rendered body, producing it on first call and
// reusing the result for the node's lifetime.
func (n *Node) HTML(render func([]byte) template.HTML) template.HTML {
	n.renderOnce.Do(func() {
		n.rendered = render(n.RawBody)
	})
	return n.rendered
}

// NavEntry is one sibling or child shown in menus.
type NavEntry struct {
	Name      string
	URL       string
	IsActive  bool
	IsSection bool
}

// Breadcrumb is one step in the root-to-node trail.
type Breadcrumb struct {
	Name string
	URL  string
}
