// Package resource answers whether a resource path names an existing file or
// directory under one of the project's source roots.
package resource

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	log "github.com/sirupsen/logrus"
)

// DefaultRoots is used when no root is configured: the module root itself.
var DefaultRoots = []string{"."}

// Finder looks resource paths up under an ordered list of roots.
// A Finder is safe for concurrent use.
type Finder struct {
	fs    billy.Filesystem
	roots []string // slash-separated, relative to the filesystem root
}

// NewOSFinder returns a Finder over the directory dir of the host filesystem.
func NewOSFinder(dir string, patterns []string, exclude []string) (*Finder, error) {
	return NewFinder(osfs.New(dir), patterns, exclude)
}

// NewFinder expands the root patterns against fsys. A pattern is a doublestar
// glob relative to the filesystem root (`src/*/resources`, `**/assets`); a
// pattern without glob syntax names one directory and is kept even if it
// does not exist yet. Directories matching an exclude pattern are skipped.
func NewFinder(fsys billy.Filesystem, patterns []string, exclude []string) (*Finder, error) {
	if len(patterns) == 0 {
		patterns = DefaultRoots
	}
	for _, p := range append(append([]string{}, patterns...), exclude...) {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid root pattern %q: %w", p, doublestar.ErrBadPattern)
		}
	}

	f := &Finder{fs: fsys}
	seen := map[string]bool{}
	add := func(root string) {
		if !seen[root] {
			seen[root] = true
			f.roots = append(f.roots, root)
		}
	}
	for _, pattern := range patterns {
		pattern = cleanPath(pattern)
		if !hasMeta(pattern) {
			add(pattern)
			continue
		}
		matches, err := f.glob(pattern, exclude)
		if err != nil {
			return nil, fmt.Errorf("expanding root pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			log.WithField("pattern", pattern).Warn("respath: root pattern matches no directory")
		}
		for _, m := range matches {
			add(m)
		}
	}
	return f, nil
}

// Roots returns the expanded roots, in lookup order.
func (f *Finder) Roots() []string {
	return append([]string(nil), f.roots...)
}

// glob returns the directories matching pattern, in walk order.
func (f *Finder) glob(pattern string, exclude []string) ([]string, error) {
	var matches []string
	err := util.Walk(f.fs, "/", func(p string, info fs.FileInfo, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if !info.IsDir() {
			return nil
		}
		rel := cleanPath(filepath.ToSlash(p))
		if rel != "." && excluded(rel, exclude) {
			return filepath.SkipDir
		}
		if doublestar.MatchUnvalidated(pattern, rel) {
			matches = append(matches, rel)
		}
		return nil
	})
	return matches, err
}

// Exists reports whether p names an entry under the first root containing it,
// and whether that entry is a directory exactly when expectDir is set.
// A blank path always exists; backslashes are read as separators.
func (f *Finder) Exists(p string, expectDir bool) bool {
	if strings.TrimSpace(p) == "" {
		return true
	}
	p = strings.ReplaceAll(p, `\`, "/")
	for _, root := range f.roots {
		info, err := f.fs.Stat(path.Join("/", root, p))
		if err != nil {
			continue
		}
		return info.IsDir() == expectDir
	}
	return false
}

func excluded(rel string, exclude []string) bool {
	for _, pattern := range exclude {
		if doublestar.MatchUnvalidated(pattern, rel) {
			return true
		}
	}
	return false
}

// cleanPath returns a slash-separated path relative to the filesystem root.
func cleanPath(p string) string {
	p = strings.TrimPrefix(path.Clean("/"+strings.ReplaceAll(p, `\`, "/")), "/")
	if p == "" {
		return "."
	}
	return p
}

func hasMeta(p string) bool {
	return strings.ContainsAny(p, "*?[{")
}
