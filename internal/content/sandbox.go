package content

import (
	"log/slog"
	"strings"
	"text/template"

	"github.com/conneroisu/mdserve/internal/cms"
	"github.com/conneroisu/mdserve/internal/filters"
)

// Sandbox evaluates template expressions embedded in content documents
// under a capability-restricted context: the only reachable names are
// site_data, site_code, metadata, and the pure filter functions. Go
// templates cannot reach the host object model beyond the data handed
// in, so document authors get formatting power without code execution.
type Sandbox struct {
	site   cms.SiteData
	code   cms.SiteCode
	funcs  template.FuncMap
	logger *slog.Logger
}

// NewSandbox creates a Sandbox bound to the site-wide data.
func NewSandbox(site cms.SiteData, code cms.SiteCode, logger *slog.Logger) *Sandbox {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sandbox{
		site:   site,
		code:   code,
		funcs:  filters.FuncMap(),
		logger: logger,
	}
}

// Render evaluates expressions in text against the node metadata.
// Text without template markers passes through untouched. Evaluation
// failure degrades to the raw text with a logged warning: a broken
// expression must never take a page down.
func (sb *Sandbox) Render(text string, metadata map[string]any) string {
	if !strings.Contains(text, "{{") {
		return text
	}

	tmpl, err := template.New("embedded").Funcs(sb.funcs).Parse(text)
	if err != nil {
		sb.logger.Warn("embedded expression parse failed", "error", err)
		return text
	}

	data := map[string]any{
		"site_data": sb.site,
		"site_code": sb.code,
		"metadata":  metadata,
	}

	var out strings.Builder
	if err := tmpl.Execute(&out, data); err != nil {
		sb.logger.Warn("embedded expression evaluation failed", "error", err)
		return text
	}
	return out.String()
}

// ExpandMeta returns a copy of metadata with every string value passed
// through Render, so frontmatter can reference site data.
func (sb *Sandbox) ExpandMeta(metadata map[string]any) map[string]any {
	out := make(map[string]any, len(metadata))
	for k, v := range metadata {
		if s, ok := v.(string); ok {
			out[k] = sb.Render(s, metadata)
			continue
		}
		out[k] = v
	}
	return out
}
