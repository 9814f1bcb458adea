// Package checker resolves marked expressions and reports resource paths
// that do not exist.
package checker

import (
	"cmp"
	"context"
	"fmt"
	"go/token"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"sync"

	cmap "github.com/orcaman/concurrent-map/v2"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/podhmo/respath/internal/interpreter"
	"github.com/podhmo/respath/internal/metadata"
)

// Finder is the path-existence collaborator, see resource.Finder.
type Finder interface {
	Exists(path string, expectDir bool) bool
}

// Options configures a Checker.
type Options struct {
	Severity     metadata.Severity // missing resources
	BaseSeverity metadata.Severity // invalid base directories
	Concurrency  int               // resolutions running at once, GOMAXPROCS if <= 0
}

// Checker turns targets into diagnostics.
type Checker struct {
	fset   *token.FileSet
	finder Finder
	opts   Options
	exists cmap.ConcurrentMap[string, bool]
}

// New creates a Checker. Existence answers are cached for the Checker's lifetime.
func New(fset *token.FileSet, finder Finder, opts Options) *Checker {
	if opts.Concurrency <= 0 {
		opts.Concurrency = runtime.GOMAXPROCS(0)
	}
	return &Checker{fset: fset, finder: finder, opts: opts, exists: cmap.New[bool]()}
}

func (c *Checker) lookup(path string, expectDir bool) bool {
	key := strconv.FormatBool(expectDir) + ":" + path
	if ok, found := c.exists.Get(key); found {
		return ok
	}
	ok := c.finder.Exists(path, expectDir)
	c.exists.Set(key, ok)
	return ok
}

// Check validates every marker's base once, then resolves the targets
// concurrently and checks each resolved value. Diagnostics are sorted by
// position.
func (c *Checker) Check(ctx context.Context, targets []*metadata.Target) ([]*metadata.Diagnostic, error) {
	var (
		mu    sync.Mutex
		diags []*metadata.Diagnostic
	)
	report := func(d *metadata.Diagnostic) {
		mu.Lock()
		defer mu.Unlock()
		diags = append(diags, d)
	}

	invalid := map[*metadata.Marker]bool{}
	for _, t := range targets {
		m := t.Marker
		if _, done := invalid[m]; done {
			continue
		}
		invalid[m] = m.Base != "" && !c.lookup(m.Base, true)
		if invalid[m] {
			pos := m.BasePos
			if !pos.IsValid() {
				pos = m.Pos
			}
			report(&metadata.Diagnostic{
				Kind:     metadata.InvalidBase,
				Severity: c.opts.BaseSeverity,
				Pos:      c.fset.Position(pos),
				End:      c.fset.Position(pos + token.Pos(len(m.Base))),
				Message:  fmt.Sprintf("invalid base directory %q", m.Base),
				Path:     m.Base,
				Origin:   m.Origin,
			})
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Concurrency)
	for _, t := range targets {
		if invalid[t.Marker] {
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			for _, d := range c.checkTarget(t) {
				report(d)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("check: %w", err)
	}

	Sort(diags)
	log.WithField("targets", len(targets)).WithField("diagnostics", len(diags)).Debug("respath: check done")
	return diags, nil
}

func (c *Checker) checkTarget(t *metadata.Target) []*metadata.Diagnostic {
	var diags []*metadata.Diagnostic
	for _, value := range interpreter.Sorted(interpreter.Resolve(t.Expr)) {
		if strings.TrimSpace(value) == "" {
			continue
		}
		full := t.Marker.FullPath(value)
		if c.lookup(full, t.Marker.Dir) {
			continue
		}
		kind := "file"
		if t.Marker.Dir {
			kind = "directory"
		}
		diags = append(diags, &metadata.Diagnostic{
			Kind:     metadata.MissingResource,
			Severity: c.opts.Severity,
			Pos:      c.fset.Position(t.Node.Pos()),
			End:      c.fset.Position(t.Node.End()),
			Message:  fmt.Sprintf("missing resource %s %q", kind, full),
			Path:     full,
			Origin:   t.Marker.Origin,
		})
	}
	return diags
}

// Sort orders diagnostics by file, offset and message.
func Sort(diags []*metadata.Diagnostic) {
	slices.SortStableFunc(diags, func(a, b *metadata.Diagnostic) int {
		return cmp.Or(
			cmp.Compare(a.Pos.Filename, b.Pos.Filename),
			cmp.Compare(a.Pos.Offset, b.Pos.Offset),
			cmp.Compare(a.Message, b.Message),
		)
	})
}
