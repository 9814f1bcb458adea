// Package watch re-runs the check when source files or resources change.
package watch

import (
	"go/ast"
	"go/token"

	"golang.org/x/tools/go/ast/astutil"

	"github.com/podhmo/respath/internal/analyzer"
)

// Relevant reports whether an edit of file between start and end can change
// a check result: the innermost node enclosing the edit sits under a marked
// declaration and is, or has within two levels below it, a string literal.
func Relevant(file *ast.File, start, end token.Pos) bool {
	if file == nil || !start.IsValid() {
		return false
	}
	if end < start {
		start, end = end, start
	}
	path, _ := astutil.PathEnclosingInterval(file, start, end)
	if len(path) == 0 {
		return false
	}
	if !hasStringLit(path[0], 2) {
		return false
	}
	for _, n := range path {
		if analyzer.IsMarked(file, n) {
			return true
		}
	}
	return false
}

func hasStringLit(n ast.Node, depth int) bool {
	if lit, ok := n.(*ast.BasicLit); ok && lit.Kind == token.STRING {
		return true
	}
	if depth == 0 {
		return false
	}
	for _, c := range children(n) {
		if hasStringLit(c, depth-1) {
			return true
		}
	}
	return false
}

func children(n ast.Node) []ast.Node {
	var out []ast.Node
	ast.Inspect(n, func(c ast.Node) bool {
		if c == nil {
			return false
		}
		if c == n {
			return true
		}
		out = append(out, c)
		return false
	})
	return out
}

// EditRange returns the byte range that differs between before and after:
// bytes [start, beforeEnd) of before were replaced by [start, afterEnd) of after.
func EditRange(before, after []byte) (start, beforeEnd, afterEnd int) {
	n := min(len(before), len(after))
	for start < n && before[start] == after[start] {
		start++
	}
	suffix := 0
	for suffix < n-start && before[len(before)-1-suffix] == after[len(after)-1-suffix] {
		suffix++
	}
	return start, len(before) - suffix, len(after) - suffix
}
