package content

import (
	"html/template"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/mdserve/internal/cache"
	"github.com/conneroisu/mdserve/internal/cms"
)

// contentRoot builds a fixture tree:
//
//	index.md
//	about.md
//	posts/index.md  (title: Writing, weight on children)
//	posts/post-1.md (title: First Post)
//	posts/post-2.md (weight: 1)
//	docs/guide.md   (docs has no index.md)
func contentRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	write := func(rel, content string) {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}

	write("index.md", "---\ntitle: Welcome\n---\n# Home\n")
	write("about.md", "# About\n")
	write("posts/index.md", "---\ntitle: Writing\n---\nAll posts.\n")
	write("posts/post-1.md", "---\ntitle: First Post\n---\nBody one.\n")
	write("posts/post-2.md", "---\nweight: 1\n---\nBody two.\n")
	write("docs/guide.md", "Orphaned guide.\n")

	return root
}

func TestLoadLeaf(t *testing.T) {
	root := contentRoot(t)
	store := NewStore(root, nil)

	node, err := store.Load(filepath.Join(root, "posts", "post-1"), "posts/post-1", nil)
	require.NoError(t, err)

	assert.Equal(t, KindLeaf, node.Kind)
	assert.Equal(t, "First Post", node.Title)
	assert.Equal(t, "post-1", node.Frontmatter["slug"])
	assert.Contains(t, string(node.RawBody), "Body one.")
	assert.Equal(t, "/posts/post-1", node.URL())
	assert.Contains(t, node.Frontmatter, "date")
}

func TestLoadSection(t *testing.T) {
	root := contentRoot(t)
	store := NewStore(root, nil)

	node, err := store.Load(filepath.Join(root, "posts"), "posts", nil)
	require.NoError(t, err)

	assert.True(t, node.IsSection())
	assert.Equal(t, "Writing", node.Title)
	assert.Equal(t, filepath.Join(root, "posts", "index.md"), node.SourceFile)
}

func TestLoadSectionWithoutIndexIsNotFound(t *testing.T) {
	root := contentRoot(t)
	store := NewStore(root, nil)

	_, err := store.Load(filepath.Join(root, "docs"), "docs", nil)
	assert.ErrorIs(t, err, cms.ErrNotFound)
}

func TestLoadMissingIsNotFound(t *testing.T) {
	root := contentRoot(t)
	store := NewStore(root, nil)

	_, err := store.Load(filepath.Join(root, "nope"), "nope", nil)
	assert.ErrorIs(t, err, cms.ErrNotFound)
}

func TestLoadMalformedFrontmatterDegrades(t *testing.T) {
	root := t.TempDir()
	bad := "---\ntitle: [unclosed\n---\nBody.\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, "bad.md"), []byte(bad), 0o644))

	store := NewStore(root, nil)
	node, err := store.Load(filepath.Join(root, "bad"), "bad", nil)
	require.NoError(t, err, "malformed frontmatter must not hide the document")
	assert.Equal(t, "Bad", node.Title)
}

func TestNavListsSiblingsAndSections(t *testing.T) {
	root := contentRoot(t)
	store := NewStore(root, nil)

	node, err := store.Load(filepath.Join(root, "about"), "about", nil)
	require.NoError(t, err)

	nav := store.Nav(node, nil)

	var urls []string
	for _, e := range nav {
		urls = append(urls, e.URL)
	}

	// posts (section with index) first, then files by name; docs has no
	// index.md and must be invisible; index.md itself is skipped.
	assert.Equal(t, []string{"/posts", "/about"}, urls)
	assert.True(t, nav[0].IsSection)
	assert.Equal(t, "Writing", nav[0].Name, "section name comes from its index title")
	assert.True(t, nav[1].IsActive)
}

func TestNavWeightOrdering(t *testing.T) {
	root := contentRoot(t)
	store := NewStore(root, nil)

	node, err := store.Load(filepath.Join(root, "posts", "post-1"), "posts/post-1", nil)
	require.NoError(t, err)

	nav := store.Nav(node, nil)
	require.Len(t, nav, 2)

	// post-2 carries weight:1 and beats the unweighted post-1.
	assert.Equal(t, "/posts/post-2", nav[0].URL)
	assert.Equal(t, "/posts/post-1", nav[1].URL)
	assert.True(t, nav[1].IsActive)
}

func TestNavTracksConsultedPaths(t *testing.T) {
	root := contentRoot(t)
	store := NewStore(root, nil)

	node, err := store.Load(filepath.Join(root, "about"), "about", nil)
	require.NoError(t, err)

	snap := cache.NewSnapshot()
	store.Nav(node, snap)
	assert.Greater(t, snap.Len(), 1, "nav must track the folder and sibling probes")

	// Adding an index to docs/ changes nav output, so the snapshot must
	// go stale. The docs/index.md probe was a tracked miss.
	require.NoError(t, os.WriteFile(filepath.Join(root, "docs", "index.md"), []byte("x"), 0o644))
	assert.False(t, snap.Valid())
}

func TestBreadcrumbs(t *testing.T) {
	root := contentRoot(t)
	store := NewStore(root, nil)

	node, err := store.Load(filepath.Join(root, "posts", "post-1"), "posts/post-1", nil)
	require.NoError(t, err)

	crumbs := store.Breadcrumbs(node, nil)
	require.Len(t, crumbs, 3, "depth + 1 including root")

	assert.Equal(t, Breadcrumb{Name: "Home", URL: "/"}, crumbs[0])
	assert.Equal(t, Breadcrumb{Name: "Writing", URL: "/posts"}, crumbs[1], "ancestor name from index title")
	assert.Equal(t, Breadcrumb{Name: "First Post", URL: "/posts/post-1"}, crumbs[2])
}

func TestBreadcrumbsRoot(t *testing.T) {
	root := contentRoot(t)
	store := NewStore(root, nil)

	node, err := store.Load(root, "", nil)
	require.NoError(t, err)

	crumbs := store.Breadcrumbs(node, nil)
	assert.Equal(t, []Breadcrumb{{Name: "Home", URL: "/"}}, crumbs)
}

func TestNodeHTMLRendersOnce(t *testing.T) {
	root := contentRoot(t)
	store := NewStore(root, nil)

	node, err := store.Load(filepath.Join(root, "about"), "about", nil)
	require.NoError(t, err)

	calls := 0
	got := node.HTML(func(raw []byte) template.HTML { calls++; return "<p>x</p>" })
	again := node.HTML(func(raw []byte) template.HTML { calls++; return "<p>y</p>" })

	assert.Equal(t, got, again)
	assert.Equal(t, 1, calls)
}
