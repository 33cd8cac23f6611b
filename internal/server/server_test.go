package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/mdserve/internal/config"
)

// newTestServer builds a Server over fixture content and template
// roots. Extra files are written as rel=content pairs under the
// respective root before construction.
func newTestServer(t *testing.T, mode string) (*Server, string, string) {
	t.Helper()

	contentRoot := t.TempDir()
	templateRoot := t.TempDir()

	write := func(root, rel, content string) {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}

	write(contentRoot, "index.md", "---\ntitle: Welcome\n---\n# Home\n")
	write(contentRoot, "about.md", "---\ntitle: About Us\n---\nHello *world*.\n")
	write(contentRoot, "posts/index.md", "---\ntitle: Writing\n---\nAll posts.\n")
	write(contentRoot, "posts/post-1.md", "---\ntitle: First Post\n---\nBody one.\n")
	write(contentRoot, "docs/orphan.md", "No section index here.\n")

	write(templateRoot, "page.html",
		`<html><head>{{ .SEO }}</head><body><h1>{{ .Title }}</h1>{{ .Content }}<span data-template="{{ .TemplateUsed }}"></span></body></html>`)
	write(templateRoot, "post.html",
		`<html><body><article>{{ .Content }}</article><span data-template="{{ .TemplateUsed }}"></span></body></html>`)
	write(templateRoot, "404.html",
		`<html><body>custom not found</body></html>`)

	cfg := &config.Config{
		Server: config.Server{Host: "localhost", Port: 0},
		Dirs: config.Dirs{
			Content:   contentRoot,
			Templates: templateRoot,
			SiteData:  filepath.Join(contentRoot, "no-site.yml"),
		},
		Cache: config.Cache{TTL: time.Hour, MaxEntries: 64},
		Mode:  mode,
	}

	s, err := New(cfg, nil)
	require.NoError(t, err)
	return s, contentRoot, templateRoot
}

func get(t *testing.T, s *Server, path string) (int, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	s.handleContent(rec, httptest.NewRequest(http.MethodGet, path, nil))
	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	return rec.Result().StatusCode, string(body)
}

func TestServeLeafPicksSingularTemplate(t *testing.T) {
	s, _, _ := newTestServer(t, config.ModeProduction)

	status, body := get(t, s, "/posts/post-1")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "<article>")
	assert.Contains(t, body, "Body one.")
	assert.Contains(t, body, "post.html", "singular parent template wins without an exact match")
}

func TestServeFallbackTemplate(t *testing.T) {
	s, _, _ := newTestServer(t, config.ModeProduction)

	status, body := get(t, s, "/about")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "<h1>About Us</h1>")
	assert.Contains(t, body, "<em>world</em>", "markdown is rendered")
	assert.Contains(t, body, "page.html")
}

func TestServeSectionWithoutIndexIs404(t *testing.T) {
	s, _, _ := newTestServer(t, config.ModeProduction)

	status, body := get(t, s, "/docs")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Contains(t, body, "custom not found")
}

func TestServeEscapeAttemptIs404(t *testing.T) {
	s, _, _ := newTestServer(t, config.ModeProduction)

	status, _ := get(t, s, "/../../etc/passwd")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestServeMissingFallbackIs500(t *testing.T) {
	s, _, templateRoot := newTestServer(t, config.ModeProduction)
	require.NoError(t, os.Remove(filepath.Join(templateRoot, "page.html")))
	require.NoError(t, os.Remove(filepath.Join(templateRoot, "post.html")))

	status, _ := get(t, s, "/about")
	assert.Equal(t, http.StatusInternalServerError, status,
		"missing fallback is an operator error, not a 404")
}

func TestProductionCachesResolution(t *testing.T) {
	s, _, _ := newTestServer(t, config.ModeProduction)

	get(t, s, "/about")
	get(t, s, "/about")

	assert.Equal(t, int64(1), s.cache.Computes())
	assert.Equal(t, int64(1), s.cache.Hits())
}

func TestProductionCacheSeesFileEdits(t *testing.T) {
	s, contentRoot, _ := newTestServer(t, config.ModeProduction)

	_, body := get(t, s, "/about")
	assert.Contains(t, body, "Hello")

	file := filepath.Join(contentRoot, "about.md")
	require.NoError(t, os.WriteFile(file, []byte("---\ntitle: About Us\n---\nUpdated text.\n"), 0o644))
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(file, future, future))

	_, body = get(t, s, "/about")
	assert.Contains(t, body, "Updated text.", "mtime advance must defeat the cache before TTL expiry")
}

func TestDevelopmentNeverCaches(t *testing.T) {
	s, contentRoot, _ := newTestServer(t, config.ModeDevelopment)

	get(t, s, "/about")
	get(t, s, "/about")
	assert.Zero(t, s.cache.Computes(), "development mode bypasses the cache entirely")

	// Edits are immediately visible even with identical mtimes.
	require.NoError(t, os.WriteFile(filepath.Join(contentRoot, "about.md"), []byte("Fresh.\n"), 0o644))
	_, body := get(t, s, "/about")
	assert.Contains(t, body, "Fresh.")
}

func TestRootServesIndexDocument(t *testing.T) {
	s, _, _ := newTestServer(t, config.ModeProduction)

	status, body := get(t, s, "/")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Welcome")
}

func TestSEOTagsPresent(t *testing.T) {
	s, _, _ := newTestServer(t, config.ModeProduction)

	_, body := get(t, s, "/about")
	assert.Contains(t, body, "<title>About Us</title>")
}
