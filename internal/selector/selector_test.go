package selector

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/mdserve/internal/cache"
	"github.com/conneroisu/mdserve/internal/cms"
)

// writeTemplates lays out a template root with the given relative files.
func writeTemplates(t *testing.T, files ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, f := range files {
		full := filepath.Join(root, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte("<html>"), 0o644))
	}
	return root
}

func TestCandidatesOrder(t *testing.T) {
	s := New(t.TempDir(), nil)

	testCases := []struct {
		name      string
		logical   string
		isSection bool
		want      []string
	}{
		{
			name:    "leaf under one directory",
			logical: "posts/post-1",
			want: []string{
				"posts/post-1.html",
				"post.html",
				"posts.html",
				"page.html",
			},
		},
		{
			name:    "leaf under nested directories",
			logical: "posts/stories/my-story",
			want: []string{
				"posts/stories/my-story.html",
				"posts/story.html",
				"posts/stories.html",
				"post.html",
				"posts.html",
				"page.html",
			},
		},
		{
			name:      "section uses its own name, skips singular",
			logical:   "posts/stories",
			isSection: true,
			want: []string{
				"posts/stories.html",
				"posts.html",
				"page.html",
			},
		},
		{
			name:    "root",
			logical: "",
			want:    []string{"index.html", "page.html"},
		},
		{
			name:    "top level leaf",
			logical: "about",
			want:    []string{"about.html", "page.html"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, s.Candidates(tc.logical, tc.isSection))
		})
	}
}

func TestSelectExactBeatsFallback(t *testing.T) {
	root := writeTemplates(t, "posts/post-1.html", "page.html")
	s := New(root, nil)

	winner, err := s.Select("posts/post-1", false, nil)
	require.NoError(t, err)
	assert.Equal(t, "posts/post-1.html", winner)
}

func TestSelectSingularParent(t *testing.T) {
	root := writeTemplates(t, "post.html", "page.html")
	s := New(root, nil)

	winner, err := s.Select("posts/post-1", false, nil)
	require.NoError(t, err)
	assert.Equal(t, "post.html", winner)
}

func TestSelectFallbackOnly(t *testing.T) {
	root := writeTemplates(t, "page.html")
	s := New(root, nil)

	for _, logical := range []string{"posts/post-1", "a/b/c/d", "about", ""} {
		winner, err := s.Select(logical, false, nil)
		require.NoError(t, err)
		assert.Equal(t, "page.html", winner, "logical %q", logical)
	}
}

func TestSelectNoTemplate(t *testing.T) {
	s := New(t.TempDir(), nil)

	_, err := s.Select("posts/post-1", false, nil)
	assert.ErrorIs(t, err, cms.ErrNoTemplate)
}

func TestSelectTracksProbeMisses(t *testing.T) {
	root := writeTemplates(t, "page.html")
	s := New(root, nil)

	snap := cache.NewSnapshot()
	winner, err := s.Select("posts/post-1", false, snap)
	require.NoError(t, err)
	assert.Equal(t, "page.html", winner)

	// Every candidate was probed and tracked.
	assert.Equal(t, 4, snap.Len())
	assert.True(t, snap.Valid())

	// A later-created file that would have won an earlier candidate
	// must invalidate the snapshot.
	require.NoError(t, os.MkdirAll(filepath.Join(root, "posts"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "posts", "post-1.html"), []byte("<html>"), 0o644))
	assert.False(t, snap.Valid())
}
