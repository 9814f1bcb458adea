package watch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/tinylru"
)

const (
	DefaultDelay     = 300 * time.Millisecond
	DefaultCacheSize = 512
)

// Options configures a Watcher.
type Options struct {
	Dir       string        // module root, watched recursively
	Always    bool          // re-check on every Go file write, skipping the relevance filter
	Delay     time.Duration // quiet period before a re-check
	CacheSize int           // Go file snapshots kept for edit ranges
}

// Watcher re-runs a check after relevant changes under a directory.
type Watcher struct {
	opts      Options
	check     func(ctx context.Context) error
	fsw       *fsnotify.Watcher
	snapshots tinylru.LRU
	debounced func(f func())
	trigger   chan struct{}
}

// New creates a Watcher calling check. Nothing is watched until Run.
func New(opts Options, check func(ctx context.Context) error) (*Watcher, error) {
	if opts.Delay <= 0 {
		opts.Delay = DefaultDelay
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = DefaultCacheSize
	}
	dir, err := filepath.Abs(opts.Dir)
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", opts.Dir, err)
	}
	opts.Dir = dir

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	w := &Watcher{
		opts:      opts,
		check:     check,
		fsw:       fsw,
		debounced: debounce.New(opts.Delay),
		trigger:   make(chan struct{}, 1),
	}
	w.snapshots.Resize(opts.CacheSize)
	return w, nil
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// Run checks once, then re-checks after each relevant change until ctx is done.
// Check errors are logged and do not stop the loop.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.Close()
	if err := w.addTree(w.opts.Dir); err != nil {
		return err
	}
	w.runCheck(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := w.addTree(ev.Name); err != nil {
						log.WithField("dir", ev.Name).Warnf("respath: %v", err)
					}
				}
			}
			if w.Handle(ev) {
				w.schedule()
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			log.Warnf("respath: watch: %v", err)
		case <-w.trigger:
			w.runCheck(ctx)
		}
	}
}

func (w *Watcher) schedule() {
	w.debounced(func() {
		select {
		case w.trigger <- struct{}{}:
		default:
		}
	})
}

func (w *Watcher) runCheck(ctx context.Context) {
	if err := w.check(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Errorf("respath: %v", err)
	}
}

// addTree watches dir and its subdirectories and snapshots their Go files.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // vanished while walking
		}
		if d.IsDir() {
			if path != dir && skipDir(d.Name()) {
				return filepath.SkipDir
			}
			if err := w.fsw.Add(path); err != nil {
				return fmt.Errorf("watch %s: %w", path, err)
			}
			return nil
		}
		if isGoFile(path) {
			if data, err := os.ReadFile(path); err == nil {
				w.snapshots.Set(path, data)
			}
		}
		return nil
	})
}

// Handle reports whether ev warrants a re-check, updating the snapshot of
// the Go file it concerns.
func (w *Watcher) Handle(ev fsnotify.Event) bool {
	if w.ignored(ev.Name) {
		return false
	}
	changed := ev.Has(fsnotify.Create) || ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename)
	if !isGoFile(ev.Name) {
		// a resource may have appeared or disappeared
		return changed || ev.Has(fsnotify.Write)
	}
	if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
		w.snapshots.Delete(ev.Name)
		return true
	}
	if !changed && !ev.Has(fsnotify.Write) {
		return false
	}

	after, err := os.ReadFile(ev.Name)
	if err != nil {
		return true
	}
	prev, ok := w.snapshots.Set(ev.Name, after)
	if changed || !ok {
		return true
	}
	before := prev.([]byte)
	if bytes.Equal(before, after) {
		return false
	}
	if w.opts.Always {
		return true
	}
	relevant := RelevantEdit(ev.Name, before, after)
	log.WithField("file", ev.Name).WithField("relevant", relevant).Debug("respath: go file changed")
	return relevant
}

// RelevantEdit reports whether replacing before with after is a relevant edit
// in either version of the file. A file that does not parse is relevant.
func RelevantEdit(filename string, before, after []byte) bool {
	start, beforeEnd, afterEnd := EditRange(before, after)
	return relevantIn(filename, before, start, beforeEnd) || relevantIn(filename, after, start, afterEnd)
}

func relevantIn(filename string, src []byte, start, end int) bool {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filename, src, parser.ParseComments|parser.SkipObjectResolution)
	if err != nil {
		return true
	}
	tf := fset.File(file.Pos())
	if tf == nil || end > tf.Size() {
		return true
	}
	return Relevant(file, tf.Pos(start), tf.Pos(end))
}

func (w *Watcher) ignored(path string) bool {
	rel, err := filepath.Rel(w.opts.Dir, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return true
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if skipDir(part) {
			return true
		}
	}
	return false
}

func skipDir(name string) bool {
	return len(name) > 1 && strings.HasPrefix(name, ".")
}

func isGoFile(path string) bool {
	return strings.HasSuffix(path, ".go")
}
