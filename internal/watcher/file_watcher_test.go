package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for FileWatcher:
// - NewFileWatcher creates watcher successfully with valid directories
// - NewFileWatcher returns error with a missing path
// - Single file change fires callback after debounce
// - Filter drops paths it rejects
// - Pause accumulates, Resume fires
// - A file location is watched directly
// - Concurrent Stop() calls are safe

func collect(t *testing.T) (func(files []string), func() []string, chan struct{}) {
	t.Helper()
	var mu sync.Mutex
	var got []string
	called := make(chan struct{}, 10)
	callback := func(files []string) {
		mu.Lock()
		got = append(got, files...)
		mu.Unlock()
		called <- struct{}{}
	}
	snapshot := func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), got...)
	}
	return callback, snapshot, called
}

func waitCalled(t *testing.T, called chan struct{}) {
	t.Helper()
	select {
	case <-called:
	case <-time.After(3 * time.Second):
		t.Fatal("Callback not called after timeout")
	}
}

func TestNewFileWatcher_Success(t *testing.T) {
	t.Parallel()

	watcher, err := NewFileWatcher([]string{t.TempDir()}, Options{})
	require.NoError(t, err)
	require.NotNil(t, watcher)
	require.NoError(t, watcher.Stop())
}

func TestNewFileWatcher_MissingPath(t *testing.T) {
	t.Parallel()

	watcher, err := NewFileWatcher([]string{filepath.Join(t.TempDir(), "nonexistent")}, Options{})
	assert.Error(t, err)
	assert.Nil(t, watcher)
}

func TestFileWatcher_SingleFileChange(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	watcher, err := NewFileWatcher([]string{tempDir}, Options{Debounce: 100 * time.Millisecond})
	require.NoError(t, err)
	defer watcher.Stop()

	callback, snapshot, called := collect(t)
	require.NoError(t, watcher.Start(context.Background(), callback))
	time.Sleep(100 * time.Millisecond)

	testFile := filepath.Join(tempDir, "Main.java")
	require.NoError(t, os.WriteFile(testFile, []byte("class Main {}"), 0644))

	waitCalled(t, called)
	assert.Contains(t, snapshot(), testFile)
}

func TestFileWatcher_Filter(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	watcher, err := NewFileWatcher([]string{tempDir}, Options{
		Debounce: 100 * time.Millisecond,
		Filter:   func(path string) bool { return strings.HasSuffix(path, ".c") },
	})
	require.NoError(t, err)
	defer watcher.Stop()

	callback, snapshot, called := collect(t)
	require.NoError(t, watcher.Start(context.Background(), callback))
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "lines.csv"), []byte("x"), 0644))
	kept := filepath.Join(tempDir, "a.c")
	require.NoError(t, os.WriteFile(kept, []byte("int x;"), 0644))

	waitCalled(t, called)
	for _, f := range snapshot() {
		assert.Equal(t, kept, f)
	}
}

func TestFileWatcher_PauseResume(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	watcher, err := NewFileWatcher([]string{tempDir}, Options{Debounce: 50 * time.Millisecond})
	require.NoError(t, err)
	defer watcher.Stop()

	callback, snapshot, called := collect(t)
	require.NoError(t, watcher.Start(context.Background(), callback))
	time.Sleep(100 * time.Millisecond)

	watcher.Pause()
	testFile := filepath.Join(tempDir, "a.py")
	require.NoError(t, os.WriteFile(testFile, []byte("x = 1"), 0644))

	// Debounce expires while paused: nothing fires
	time.Sleep(300 * time.Millisecond)
	assert.Empty(t, snapshot())

	watcher.Resume()
	waitCalled(t, called)
	assert.Contains(t, snapshot(), testFile)
}

func TestFileWatcher_WatchesFileLocation(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	testFile := filepath.Join(tempDir, "single.c")
	require.NoError(t, os.WriteFile(testFile, []byte("v1"), 0644))

	watcher, err := NewFileWatcher([]string{testFile}, Options{Debounce: 50 * time.Millisecond})
	require.NoError(t, err)
	defer watcher.Stop()

	callback, snapshot, called := collect(t)
	require.NoError(t, watcher.Start(context.Background(), callback))
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(testFile, []byte("v2"), 0644))
	waitCalled(t, called)
	assert.Contains(t, snapshot(), testFile)
}

func TestFileWatcher_ConcurrentStop(t *testing.T) {
	t.Parallel()

	watcher, err := NewFileWatcher([]string{t.TempDir()}, Options{})
	require.NoError(t, err)
	require.NoError(t, watcher.Start(context.Background(), func([]string) {}))

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = watcher.Stop()
		}()
	}
	wg.Wait()
}
