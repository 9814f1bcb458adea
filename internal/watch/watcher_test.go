package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWatcher(t *testing.T, opts Options) *Watcher {
	t.Helper()
	if opts.Dir == "" {
		opts.Dir = t.TempDir()
	}
	w, err := New(opts, func(context.Context) error { return nil })
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })
	return w
}

func write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestWatcher_Handle(t *testing.T) {
	w := newTestWatcher(t, Options{})
	dir := w.opts.Dir
	goFile := filepath.Join(dir, "app.go")
	write(t, goFile, source)
	require.NoError(t, w.addTree(dir))

	// Each step runs against the state left by the previous one.
	steps := []struct {
		name  string
		edit  func()
		event fsnotify.Event
		want  bool
	}{
		{
			name:  "unchanged write",
			event: fsnotify.Event{Name: goFile, Op: fsnotify.Write},
			want:  false,
		},
		{
			name:  "unmarked edit",
			edit:  func() { write(t, goFile, strings.Replace(source, "plain.txt", "plain.md", 1)) },
			event: fsnotify.Event{Name: goFile, Op: fsnotify.Write},
			want:  false,
		},
		{
			name:  "marked edit",
			edit:  func() { write(t, goFile, strings.NewReplacer("plain.txt", "plain.md", "index.html", "home.html").Replace(source)) },
			event: fsnotify.Event{Name: goFile, Op: fsnotify.Write},
			want:  true,
		},
		{
			name:  "chmod",
			event: fsnotify.Event{Name: goFile, Op: fsnotify.Chmod},
			want:  false,
		},
		{
			name:  "resource written",
			edit:  func() { write(t, filepath.Join(dir, "assets", "icon.png"), "png") },
			event: fsnotify.Event{Name: filepath.Join(dir, "assets", "icon.png"), Op: fsnotify.Create},
			want:  true,
		},
		{
			name:  "hidden directory",
			event: fsnotify.Event{Name: filepath.Join(dir, ".git", "index"), Op: fsnotify.Write},
			want:  false,
		},
		{
			name:  "outside the module",
			event: fsnotify.Event{Name: filepath.Join(filepath.Dir(dir), "elsewhere.png"), Op: fsnotify.Create},
			want:  false,
		},
		{
			name:  "go file removed",
			edit:  func() { require.NoError(t, os.Remove(goFile)) },
			event: fsnotify.Event{Name: goFile, Op: fsnotify.Remove},
			want:  true,
		},
		{
			name:  "go file created",
			edit:  func() { write(t, goFile, source) },
			event: fsnotify.Event{Name: goFile, Op: fsnotify.Create},
			want:  true,
		},
	}
	for _, step := range steps {
		if step.edit != nil {
			step.edit()
		}
		assert.Equal(t, step.want, w.Handle(step.event), step.name)
	}
}

func TestWatcher_HandleAlways(t *testing.T) {
	w := newTestWatcher(t, Options{Always: true})
	goFile := filepath.Join(w.opts.Dir, "app.go")
	write(t, goFile, source)
	require.NoError(t, w.addTree(w.opts.Dir))

	write(t, goFile, strings.Replace(source, "plain.txt", "plain.md", 1))
	assert.True(t, w.Handle(fsnotify.Event{Name: goFile, Op: fsnotify.Write}))
}

func TestWatcher_Run(t *testing.T) {
	if testing.Short() {
		t.Skip("uses file system notifications")
	}
	dir := t.TempDir()
	var checks atomic.Int32
	w, err := New(Options{Dir: dir, Delay: 10 * time.Millisecond}, func(context.Context) error {
		checks.Add(1)
		return nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool { return checks.Load() == 1 }, 5*time.Second, 10*time.Millisecond, "initial check")
	write(t, filepath.Join(dir, "assets", "new.png"), "png")
	require.Eventually(t, func() bool { return checks.Load() >= 2 }, 5*time.Second, 10*time.Millisecond, "check after change")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop")
	}
}
