// Package markdown wraps goldmark with the extension set used for
// content documents: GFM tables and task lists, emoji shortcodes, and
// fenced-code syntax highlighting.
package markdown

import (
	"bytes"
	"fmt"

	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark"
	emoji "github.com/yuin/goldmark-emoji"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
)

// Renderer converts Markdown to HTML. It is stateless, so a single
// instance is shared across requests without locking.
type Renderer struct {
	engine goldmark.Markdown
}

// Options configures the renderer.
type Options struct {
	// HighlightStyle is the chroma style name for code blocks.
	HighlightStyle string
	// Unsafe permits raw HTML in documents. Content authors are
	// trusted here (they own the filesystem), so this defaults on.
	Unsafe bool
}

// DefaultOptions returns the options used for site content.
func DefaultOptions() Options {
	return Options{
		HighlightStyle: "github",
		Unsafe:         true,
	}
}

// New constructs a Renderer.
func New(opts Options) *Renderer {
	if opts.HighlightStyle == "" {
		opts.HighlightStyle = "github"
	}

	rendererOptions := []renderer.Option{}
	if opts.Unsafe {
		rendererOptions = append(rendererOptions, html.WithUnsafe())
	}

	engine := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.TaskList,
			emoji.Emoji,
			highlighting.NewHighlighting(
				highlighting.WithStyle(opts.HighlightStyle),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(rendererOptions...),
	)

	return &Renderer{engine: engine}
}

// Render converts Markdown source to HTML.
func (r *Renderer) Render(source []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.engine.Convert(source, &buf); err != nil {
		return nil, fmt.Errorf("markdown render: %w", err)
	}
	return buf.Bytes(), nil
}
