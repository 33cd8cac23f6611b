package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventTypeString(t *testing.T) {
	testCases := []struct {
		eventType EventType
		expected  string
	}{
		{EventTypeCreated, "created"},
		{EventTypeModified, "modified"},
		{EventTypeDeleted, "deleted"},
		{EventTypeRenamed, "renamed"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.eventType.String())
		})
	}
}

func TestFilters(t *testing.T) {
	assert.False(t, NoHidden("/content/.hidden.md"))
	assert.True(t, NoHidden("/content/visible.md"))
	assert.False(t, NoEditorArtifacts("/content/page.md~"))
	assert.False(t, NoEditorArtifacts("/content/.page.md.swp"))
	assert.True(t, NoEditorArtifacts("/content/page.md"))
}

func TestWatcherDeliversDebouncedBatch(t *testing.T) {
	dir := t.TempDir()

	w, err := New(50*time.Millisecond, nil)
	require.NoError(t, err)
	defer w.Stop()

	var (
		mu      sync.Mutex
		batches [][]ChangeEvent
	)
	w.AddFilter(NoHidden)
	w.AddHandler(func(events []ChangeEvent) error {
		mu.Lock()
		defer mu.Unlock()
		batches = append(batches, events)
		return nil
	})

	require.NoError(t, w.AddRecursive(dir))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	file := filepath.Join(dir, "page.md")
	require.NoError(t, os.WriteFile(file, []byte("one"), 0o644))
	require.NoError(t, os.WriteFile(file, []byte("two"), 0o644))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(batches) > 0
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	// Rapid writes to the same path collapse into one event per batch.
	assert.Len(t, batches[0], 1)
	assert.Equal(t, file, batches[0][0].Path)
}

func TestWatcherIgnoresFilteredPaths(t *testing.T) {
	dir := t.TempDir()

	w, err := New(30*time.Millisecond, nil)
	require.NoError(t, err)
	defer w.Stop()

	var (
		mu    sync.Mutex
		count int
	)
	w.AddFilter(NoHidden)
	w.AddHandler(func(events []ChangeEvent) error {
		mu.Lock()
		defer mu.Unlock()
		count += len(events)
		return nil
	})

	require.NoError(t, w.AddRecursive(dir))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden.md"), []byte("x"), 0o644))

	time.Sleep(150 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Zero(t, count)
}
