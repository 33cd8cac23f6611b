package server

import (
	"errors"
	"html/template"
	"net/http"
	"os"
	"path/filepath"

	"github.com/conneroisu/mdserve/internal/cms"
	"github.com/conneroisu/mdserve/internal/content"
	"github.com/conneroisu/mdserve/internal/filters"
	"github.com/conneroisu/mdserve/internal/seo"
)

// templateData is the context handed to page templates.
type templateData struct {
	Content     template.HTML
	Title       string
	Meta        map[string]any
	NavItems    []content.NavEntry
	Breadcrumbs []content.Breadcrumb
	SiteData    cms.SiteData
	SiteCode    cms.SiteCode
	SEO         template.HTML
	URL         string
	IsSection   bool
	// TemplateUsed names the waterfall winner, handy when debugging
	// template inheritance.
	TemplateUsed string
	DevMode      bool
}

// handleContent is the catch-all: every request path goes through the
// resolution pipeline. PathEscape and NotFound surface as 404,
// NoTemplate as 500.
func (s *Server) handleContent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	page, err := s.resolvePage(r.URL.Path)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	data := templateData{
		Content:     s.renderBody(page),
		Title:       page.Title(),
		Meta:        page.Meta,
		NavItems:    page.Nav,
		Breadcrumbs: page.Breadcrumbs,
		SiteData:    s.siteData,
		SiteCode:    s.siteCode,
		SEO: seo.Tags(s.siteData, seo.FromFrontmatter(
			page.Title(), page.Node.URL(), page.Meta)),
		URL:          page.Node.URL(),
		IsSection:    page.Node.IsSection(),
		TemplateUsed: page.Template,
		DevMode:      s.config.Development(),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.renderTemplate(w, page.Template, data); err != nil {
		s.logger.Error("template execution failed",
			"template", page.Template, "path", r.URL.Path, "error", err)
	}
}

// renderTemplate parses and executes the winning template together with
// any shared partials. Parsing per request keeps template edits live
// without coupling template files into the resolution cache.
func (s *Server) renderTemplate(w http.ResponseWriter, name string, data templateData) error {
	tmpl := template.New(filepath.Base(name)).Funcs(filters.FuncMap())

	files := []string{s.selector.TemplatePath(name)}
	partials, err := filepath.Glob(filepath.Join(s.selector.Root(), "partials", "*.html"))
	if err == nil {
		files = append(files, partials...)
	}

	tmpl, err = tmpl.ParseFiles(files...)
	if err != nil {
		return err
	}
	return tmpl.ExecuteTemplate(w, filepath.Base(name), data)
}

// renderError maps pipeline errors onto status codes and the site's
// error templates (404.html, 500.html) when they exist.
func (s *Server) renderError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, cms.ErrPathEscape):
		// Security relevant: always log escape attempts.
		s.logger.Warn("path escape attempt rejected", "path", r.URL.Path, "remote", r.RemoteAddr)
		status = http.StatusNotFound
	case errors.Is(err, cms.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, cms.ErrNoTemplate):
		// Operator bug, not a navigation event.
		s.logger.Error("no template matched and fallback is missing", "path", r.URL.Path)
	default:
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
	}

	errorTemplate := "500.html"
	if status == http.StatusNotFound {
		errorTemplate = "404.html"
	}

	if _, statErr := os.Stat(s.selector.TemplatePath(errorTemplate)); statErr == nil {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		data := templateData{
			Title:    http.StatusText(status),
			SiteData: s.siteData,
			SiteCode: s.siteCode,
			DevMode:  s.config.Development(),
		}
		if renderErr := s.renderTemplate(w, errorTemplate, data); renderErr == nil {
			return
		}
	}

	http.Error(w, http.StatusText(status), status)
}
