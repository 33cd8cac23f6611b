package server

import (
	"html"
	"html/template"

	"github.com/conneroisu/mdserve/internal/cache"
	"github.com/conneroisu/mdserve/internal/content"
)

// Page is one fully resolved request: the content node, the winning
// template, and the navigation structures derived around it. Pages are
// immutable once computed, which is what lets the cache hand them to
// concurrent readers without locks.
type Page struct {
	Node        *content.Node
	Template    string
	Nav         []content.NavEntry
	Breadcrumbs []content.Breadcrumb
	// Meta is the frontmatter after sandboxed expression expansion.
	Meta map[string]any
}

// Title returns the display title after expression expansion.
func (p *Page) Title() string {
	if title, ok := p.Meta["title"].(string); ok && title != "" {
		return title
	}
	return p.Node.Title
}

// resolvePage maps a request path to a Page, through the cache outside
// development mode. In development every lookup recomputes so edits are
// immediately visible.
func (s *Server) resolvePage(requestPath string) (*Page, error) {
	confined, logical, err := s.resolver.Resolve(requestPath)
	if err != nil {
		return nil, err
	}

	if s.config.Development() {
		return s.computePage(confined, logical, cache.NewSnapshot())
	}

	value, err := s.cache.GetOrCompute(logical, func(snap *cache.Snapshot) (any, error) {
		return s.computePage(confined, logical, snap)
	})
	if err != nil {
		return nil, err
	}
	return value.(*Page), nil
}

// computePage runs the full resolution pipeline, tracking every
// filesystem path consulted in snap.
func (s *Server) computePage(confined, logical string, snap *cache.Snapshot) (*Page, error) {
	node, err := s.store.Load(confined, logical, snap)
	if err != nil {
		return nil, err
	}

	winner, err := s.selector.Select(logical, node.IsSection(), snap)
	if err != nil {
		return nil, err
	}

	return &Page{
		Node:        node,
		Template:    winner,
		Nav:         s.store.Nav(node, snap),
		Breadcrumbs: s.store.Breadcrumbs(node, snap),
		Meta:        s.sandbox.ExpandMeta(node.Frontmatter),
	}, nil
}

// renderBody produces the page HTML: Markdown first, then sandboxed
// expression evaluation over the result. The node memoizes the output
// for its lifetime.
func (s *Server) renderBody(page *Page) template.HTML {
	return page.Node.HTML(func(raw []byte) template.HTML {
		rendered, err := s.markdown.Render(raw)
		if err != nil {
			s.logger.Warn("markdown render failed", "file", page.Node.SourceFile, "error", err)
			return template.HTML("<pre>" + html.EscapeString(string(raw)) + "</pre>")
		}
		return template.HTML(s.sandbox.Render(string(rendered), page.Meta))
	})
}
