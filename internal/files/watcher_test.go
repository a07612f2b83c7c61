package files

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"filmstats/internal/shared/testutil"
)

func TestWatcherDebouncesInputChanges(t *testing.T) {
	dir := t.TempDir()
	logger, _ := testutil.NewTestLogger(t)
	w := NewWatcher(logger, dir, 100*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := make(chan []string, 4)
	done := make(chan error, 1)
	go func() {
		done <- w.Watch(ctx, func(_ context.Context, changed []string) {
			calls <- changed
		})
	}()

	// give the watcher time to register the directory
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ratings.csv"), []byte("a"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "movies.csv"), []byte("a"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ratings.csv"), []byte("b"), 0644))

	select {
	case changed := <-calls:
		assert.Equal(t, []string{"movies.csv", "ratings.csv"}, changed)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not report the change")
	}

	select {
	case extra := <-calls:
		t.Fatalf("unexpected second batch: %v", extra)
	case <-time.After(300 * time.Millisecond):
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatcherMissingDirectory(t *testing.T) {
	w := NewWatcher(nil, filepath.Join(t.TempDir(), "absent"), time.Second)
	err := w.Watch(context.Background(), func(context.Context, []string) {})
	assert.Error(t, err)
}

func TestNewWatcherDefaults(t *testing.T) {
	w := NewWatcher(nil, "data", 0)
	assert.Equal(t, 2*time.Second, w.debounce)
	assert.True(t, w.match("users.csv"))
}
