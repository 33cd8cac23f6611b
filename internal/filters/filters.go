// Package filters provides the pure formatting helpers exposed to page
// templates and to the sandboxed expression evaluator. Every filter is
// side-effect free: no filesystem or network access, so cached rendered
// output stays valid.
package filters

import (
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/goliatone/go-slug"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// FuncMap returns the filter set as a template FuncMap. The same map
// backs both the page templates and the sandbox, keeping the two
// rendering contexts consistent.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"fancydate": FancyDate,
		"titleize":  Titleize,
		"humanize":  Humanize,
		"truncate":  Truncate,
		"slugify":   Slugify,
		"currency":  Currency,
		"lower":     strings.ToLower,
		"upper":     strings.ToUpper,
		"safe":      Safe,
	}
}

// FancyDate formats a time for display, e.g. "January 2, 2006".
// Accepts time.Time or an RFC3339/date string; anything else comes back
// via fmt.Sprint.
func FancyDate(v any) string {
	switch t := v.(type) {
	case time.Time:
		return t.Format("January 2, 2006")
	case string:
		for _, layout := range []string{time.RFC3339, "2006-01-02", "2006-01-02 15:04:05"} {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed.Format("January 2, 2006")
			}
		}
		return t
	default:
		return fmt.Sprint(v)
	}
}

// Titleize upper-cases the first letter of each word.
func Titleize(s string) string {
	return titleCaser.String(s)
}

// Humanize turns a file or directory name into a display name:
// hyphens and underscores become spaces, then title case.
func Humanize(s string) string {
	s = strings.NewReplacer("-", " ", "_", " ").Replace(s)
	return titleCaser.String(s)
}

// Truncate shortens s to at most n runes, appending an ellipsis when
// anything was cut.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return strings.TrimRight(string(runes[:n]), " ") + "…"
}

// Slugify normalizes s into a URL slug.
func Slugify(s string) string {
	normalized, err := slug.Normalize(s)
	if err != nil {
		return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", "-"))
	}
	return normalized
}

// Currency formats an amount with a currency symbol and two decimals,
// grouping thousands.
func Currency(symbol string, amount float64) string {
	whole := int64(amount)
	frac := amount - float64(whole)
	if frac < 0 {
		frac = -frac
	}

	sign := ""
	if whole < 0 {
		sign = "-"
		whole = -whole
	}

	digits := fmt.Sprintf("%d", whole)
	var grouped strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			grouped.WriteByte(',')
		}
		grouped.WriteRune(d)
	}

	return fmt.Sprintf("%s%s%s.%02d", sign, symbol, grouped.String(), int(frac*100+0.5))
}

// Safe marks a string as trusted HTML.
func Safe(s string) template.HTML {
	return template.HTML(s)
}
