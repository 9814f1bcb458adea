// Package vet exposes the resource-path check as a go/analysis Analyzer.
package vet

import (
	"context"
	"fmt"
	"go/token"
	"path/filepath"
	"strings"

	"golang.org/x/tools/go/analysis"

	"github.com/podhmo/respath/internal/analyzer"
	"github.com/podhmo/respath/internal/checker"
	"github.com/podhmo/respath/internal/loader"
	"github.com/podhmo/respath/internal/metadata"
	"github.com/podhmo/respath/internal/resource"
)

const doc = `check that marked string values name existing resource files

The respath analyzer resolves every value a marked string expression can
take (struct fields tagged respath:"...", //respath: directives and
respath.Path calls) and reports the values that do not exist under the
resource roots of the module.`

var (
	roots        string
	exclude      string
	severity     string
	baseSeverity string
)

// Analyzer reports missing resource files.
var Analyzer = &analysis.Analyzer{
	Name: "respath",
	Doc:  doc,
	URL:  "https://pkg.go.dev/github.com/podhmo/respath/internal/vet",
	Run:  run,
}

func init() {
	Analyzer.Flags.StringVar(&roots, "roots", ".", "comma-separated resource roots (doublestar patterns relative to the module root)")
	Analyzer.Flags.StringVar(&exclude, "exclude", "", "comma-separated doublestar patterns of directories never used as roots")
	Analyzer.Flags.StringVar(&severity, "severity", "error", "severity of missing resources")
	Analyzer.Flags.StringVar(&baseSeverity, "base-severity", "error", "severity of invalid base directories")
}

func run(pass *analysis.Pass) (any, error) {
	if len(pass.Files) == 0 {
		return nil, nil
	}
	sev, baseSev, err := severities()
	if err != nil {
		return nil, err
	}
	unit := &analyzer.Unit{Fset: pass.Fset, Files: pass.Files, Info: pass.TypesInfo, Pkg: pass.Pkg}
	a, err := analyzer.Analyze(pass.Fset, []*analyzer.Unit{unit})
	if err != nil {
		return nil, err
	}
	if len(a.Targets) == 0 {
		return nil, nil
	}

	dir := filepath.Dir(pass.Fset.File(pass.Files[0].Pos()).Name())
	root, err := loader.FindModuleRoot(dir)
	if err != nil {
		root = dir
	}
	finder, err := resource.NewOSFinder(root, split(roots), split(exclude))
	if err != nil {
		return nil, fmt.Errorf("respath: %w", err)
	}

	c := checker.New(pass.Fset, finder, checker.Options{Severity: sev, BaseSeverity: baseSev})
	diags, err := c.Check(context.Background(), a.Targets)
	if err != nil {
		return nil, err
	}
	for _, d := range diags {
		pass.Report(analysis.Diagnostic{
			Pos:      position(pass, d.Pos),
			End:      position(pass, d.End),
			Category: d.Severity.String(),
			Message:  d.Message,
		})
	}
	return nil, nil
}

// severities parses the -severity and -base-severity flags.
func severities() (sev, base metadata.Severity, err error) {
	if sev, err = metadata.ParseSeverity(severity); err != nil {
		return sev, base, fmt.Errorf("respath: -severity: %w", err)
	}
	if base, err = metadata.ParseSeverity(baseSeverity); err != nil {
		return sev, base, fmt.Errorf("respath: -base-severity: %w", err)
	}
	return sev, base, nil
}

// position maps a resolved position back into the pass's file set.
func position(pass *analysis.Pass, p token.Position) token.Pos {
	for _, f := range pass.Files {
		tf := pass.Fset.File(f.Pos())
		if tf != nil && tf.Name() == p.Filename && p.Offset <= tf.Size() {
			return tf.Pos(p.Offset)
		}
	}
	return token.NoPos
}

func split(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
