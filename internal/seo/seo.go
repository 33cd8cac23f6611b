// Package seo renders document-head metadata tags from site data and
// page frontmatter.
package seo

import (
	"fmt"
	"html"
	"html/template"
	"strings"

	"github.com/conneroisu/mdserve/internal/cms"
)

// Page carries the per-page inputs for tag generation.
type Page struct {
	Title       string
	Description string
	URL         string
	Image       string
}

// Tags renders the meta and OpenGraph tags for a page. Page values win
// over site-wide defaults.
func Tags(site cms.SiteData, page Page) template.HTML {
	description := page.Description
	if description == "" {
		description = site.Description
	}
	image := page.Image
	if image == "" {
		image = site.OpenGraph.Image
	}

	title := page.Title
	if site.Name != "" && title != "" {
		title = fmt.Sprintf("%s — %s", title, site.Name)
	} else if title == "" {
		title = site.Name
	}

	// html.EscapeString escapes double quotes, so plain quoted
	// attributes are safe. Go-syntax %q quoting is not HTML escaping.
	var b strings.Builder
	meta := func(name, content string) {
		if content == "" {
			return
		}
		fmt.Fprintf(&b, "<meta name=\"%s\" content=\"%s\">\n", name, html.EscapeString(content))
	}
	property := func(name, content string) {
		if content == "" {
			return
		}
		fmt.Fprintf(&b, "<meta property=\"%s\" content=\"%s\">\n", name, html.EscapeString(content))
	}

	if title != "" {
		fmt.Fprintf(&b, "<title>%s</title>\n", html.EscapeString(title))
	}
	meta("description", description)
	meta("author", site.Author)
	if len(site.Keywords) > 0 {
		meta("keywords", strings.Join(site.Keywords, ", "))
	}

	property("og:title", title)
	property("og:description", description)
	property("og:image", image)
	if page.URL != "" && site.BaseURL != "" {
		property("og:url", strings.TrimRight(site.BaseURL, "/")+page.URL)
	}

	return template.HTML(b.String())
}

// FromFrontmatter extracts the per-page SEO inputs from frontmatter.
func FromFrontmatter(title, url string, meta map[string]any) Page {
	page := Page{Title: title, URL: url}
	if d, ok := meta["description"].(string); ok {
		page.Description = d
	}
	if img, ok := meta["image"].(string); ok {
		page.Image = img
	}
	return page
}
