// Package content locates and parses Markdown documents and derives
// the navigation structures (sibling menus, breadcrumbs) from the
// directory tree around them.
package content

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/adrg/frontmatter"
	"github.com/goliatone/go-slug"

	"github.com/conneroisu/mdserve/internal/cache"
	"github.com/conneroisu/mdserve/internal/cms"
	"github.com/conneroisu/mdserve/internal/filters"
)

// Extension is the content document extension.
const Extension = ".md"

// IndexDocument is the document that makes a directory a section.
// A directory without it is structurally absent: invisible to
// navigation and NotFound on direct resolution.
const IndexDocument = "index" + Extension

// Store loads content nodes from a single content root.
type Store struct {
	root   string
	logger *slog.Logger
}

// NewStore creates a Store over the canonical content root.
func NewStore(root string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{root: root, logger: logger}
}

// Root returns the content root directory.
func (s *Store) Root() string {
	return s.root
}

// Load resolves a confined path to a content node. Directories resolve
// through their index document; plain paths gain the content extension.
// Every consulted path is tracked in the snapshot when one is supplied.
func (s *Store) Load(confined, logical string, snap *cache.Snapshot) (*Node, error) {
	track := func(p string) {
		if snap != nil {
			snap.Track(p)
		}
	}

	var (
		source string
		kind   NodeKind
	)

	track(confined)
	if info, err := os.Stat(confined); err == nil && info.IsDir() {
		source = filepath.Join(confined, IndexDocument)
		kind = KindSection
	} else {
		source = confined + Extension
		kind = KindLeaf
	}
	track(source)

	info, err := os.Stat(source)
	if err != nil {
		return nil, cms.ErrNotFound
	}

	raw, err := os.ReadFile(source)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", source, err)
	}

	meta, body := s.parseFrontmatter(source, raw)
	enrichFrontmatter(meta, source, info)

	node := &Node{
		LogicalPath: logical,
		SourceFile:  source,
		Kind:        kind,
		Frontmatter: meta,
		Title:       displayTitle(meta, source, kind),
		RawBody:     body,
		ModTime:     info.ModTime(),
	}
	return node, nil
}

// parseFrontmatter splits a document into metadata and body. Malformed
// frontmatter degrades to empty metadata with a logged warning; a
// document is never unreachable because its header is broken.
func (s *Store) parseFrontmatter(source string, raw []byte) (map[string]any, []byte) {
	meta := map[string]any{}
	body, err := frontmatter.Parse(bytes.NewReader(raw), &meta)
	if err != nil {
		s.logger.Warn("malformed frontmatter, serving document without metadata",
			"file", source, "error", err)
		return map[string]any{}, raw
	}
	if meta == nil {
		meta = map[string]any{}
	}
	return meta, body
}

// ParseStrict splits a document and reports malformed frontmatter as
// ErrParse. Used by the check command, not by the serving path.
func ParseStrict(raw []byte) (map[string]any, []byte, error) {
	meta := map[string]any{}
	body, err := frontmatter.Parse(bytes.NewReader(raw), &meta)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", cms.ErrParse, err)
	}
	return meta, body, nil
}

// enrichFrontmatter injects derived metadata: the slugified file stem
// and the file timestamps.
func enrichFrontmatter(meta map[string]any, source string, info os.FileInfo) {
	if _, set := meta["slug"]; !set {
		meta["slug"] = slugify(stem(source))
	}
	meta["date"] = map[string]any{
		"created": info.ModTime(),
		"updated": info.ModTime(),
	}
}

func displayTitle(meta map[string]any, source string, kind NodeKind) string {
	if title, ok := meta["title"].(string); ok && title != "" {
		return title
	}
	name := stem(source)
	if kind == KindSection {
		name = filepath.Base(filepath.Dir(source))
	}
	return filters.Humanize(name)
}

func stem(source string) string {
	return strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
}

func slugify(s string) string {
	normalized, err := slug.Normalize(s)
	if err != nil {
		return strings.ToLower(s)
	}
	return normalized
}

// Nav lists the navigable entries of the directory containing node:
// content files plus sections holding an index document, hidden entries
// and the directory's own index excluded. Directories sort first, then
// an optional integer weight frontmatter key, then name.
func (s *Store) Nav(node *Node, snap *cache.Snapshot) []NavEntry {
	folder := filepath.Dir(node.SourceFile)
	track := func(p string) {
		if snap != nil {
			snap.Track(p)
		}
	}
	track(folder)

	dirEntries, err := os.ReadDir(folder)
	if err != nil {
		s.logger.Warn("listing navigation folder", "folder", folder, "error", err)
		return nil
	}

	type navItem struct {
		entry  NavEntry
		weight int
		hasW   bool
	}
	var items []navItem

	for _, de := range dirEntries {
		name := de.Name()
		if strings.HasPrefix(name, ".") || name == IndexDocument {
			continue
		}

		full := filepath.Join(folder, name)
		metaSource := full

		if de.IsDir() {
			metaSource = filepath.Join(full, IndexDocument)
			track(metaSource)
			if _, err := os.Stat(metaSource); err != nil {
				// Section without index: structurally absent.
				continue
			}
		} else if filepath.Ext(name) != Extension {
			continue
		} else {
			track(full)
		}

		rel, err := filepath.Rel(s.root, full)
		if err != nil {
			continue
		}
		url := "/" + filepath.ToSlash(strings.TrimSuffix(rel, Extension))

		meta := s.readMeta(metaSource)
		display := ""
		if title, ok := meta["title"].(string); ok {
			display = title
		}
		if display == "" {
			display = filters.Humanize(strings.TrimSuffix(name, Extension))
		}

		weight, hasWeight := intValue(meta["weight"])

		items = append(items, navItem{
			entry: NavEntry{
				Name:      display,
				URL:       url,
				IsActive:  url == node.URL(),
				IsSection: de.IsDir(),
			},
			weight: weight,
			hasW:   hasWeight,
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.entry.IsSection != b.entry.IsSection {
			return a.entry.IsSection
		}
		if a.hasW != b.hasW {
			return a.hasW
		}
		if a.hasW && a.weight != b.weight {
			return a.weight < b.weight
		}
		return a.entry.Name < b.entry.Name
	})

	entries := make([]NavEntry, len(items))
	for i, item := range items {
		entries[i] = item.entry
	}
	return entries
}

// Breadcrumbs walks from the root to node. Ancestor names come from
// their index document's title, defaulting to the humanized directory
// name; the trail always starts at Home.
func (s *Store) Breadcrumbs(node *Node, snap *cache.Snapshot) []Breadcrumb {
	crumbs := []Breadcrumb{{Name: "Home", URL: "/"}}
	if node.LogicalPath == "" {
		return crumbs
	}

	segments := strings.Split(node.LogicalPath, "/")
	current := ""
	for i, segment := range segments {
		current += "/" + segment

		if i == len(segments)-1 {
			crumbs = append(crumbs, Breadcrumb{Name: node.Title, URL: current})
			break
		}

		name := filters.Humanize(segment)
		index := filepath.Join(s.root, filepath.FromSlash(strings.TrimPrefix(current, "/")), IndexDocument)
		if snap != nil {
			snap.Track(index)
		}
		if meta := s.readMeta(index); meta != nil {
			if title, ok := meta["title"].(string); ok && title != "" {
				name = title
			}
		}

		crumbs = append(crumbs, Breadcrumb{Name: name, URL: current})
	}
	return crumbs
}

// readMeta reads just the frontmatter of a document, tolerating every
// failure with nil.
func (s *Store) readMeta(path string) map[string]any {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	meta := map[string]any{}
	if _, err := frontmatter.Parse(bytes.NewReader(raw), &meta); err != nil {
		return nil
	}
	return meta
}

func intValue(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
