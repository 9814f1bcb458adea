// Package loader loads and type-checks the packages of a Go module.
package loader

import (
	"context"
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"strings"

	log "github.com/sirupsen/logrus"
	"golang.org/x/tools/go/packages"

	"github.com/podhmo/respath/internal/analyzer"
)

const loadMode = packages.NeedName | packages.NeedFiles | packages.NeedSyntax |
	packages.NeedTypes | packages.NeedTypesInfo | packages.NeedImports | packages.NeedModule

// Config configures Load.
type Config struct {
	Dir        string   // directory the patterns are relative to
	Tests      bool     // include _test.go files
	BuildFlags []string // passed to the build system, e.g. -tags
}

// Result is a set of loaded packages.
type Result struct {
	Fset   *token.FileSet
	Module *Module
	Units  []*analyzer.Unit
}

// Load loads the packages matching patterns ("./..." if none) with full type
// information. Type errors are logged and the package is kept; a package
// that fails to list or parse makes Load fail.
func Load(ctx context.Context, cfg Config, patterns ...string) (*Result, error) {
	if len(patterns) == 0 {
		patterns = []string{"./..."}
	}
	mod, err := ReadModule(dirOrDot(cfg.Dir))
	if err != nil {
		return nil, err
	}

	fset := token.NewFileSet()
	pkgs, err := packages.Load(&packages.Config{
		Context:    ctx,
		Mode:       loadMode,
		Dir:        cfg.Dir,
		Fset:       fset,
		Tests:      cfg.Tests,
		BuildFlags: cfg.BuildFlags,
		ParseFile: func(fset *token.FileSet, filename string, src []byte) (*ast.File, error) {
			return parser.ParseFile(fset, filename, src, parser.ParseComments|parser.SkipObjectResolution)
		},
	}, patterns...)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", strings.Join(patterns, " "), err)
	}
	if len(pkgs) == 0 {
		return nil, &PackageNotFoundError{Pattern: strings.Join(patterns, " ")}
	}

	res := &Result{Fset: fset, Module: mod}
	for _, pkg := range selectVariants(pkgs) {
		if err := checkErrors(pkg); err != nil {
			return nil, err
		}
		if pkg.Types == nil || pkg.TypesInfo == nil || len(pkg.Syntax) == 0 {
			log.WithField("package", pkg.PkgPath).Debug("respath: package without syntax skipped")
			continue
		}
		res.Units = append(res.Units, &analyzer.Unit{
			Fset:  fset,
			Files: pkg.Syntax,
			Info:  pkg.TypesInfo,
			Pkg:   pkg.Types,
		})
	}
	log.WithField("module", mod.Path).WithField("packages", len(res.Units)).Debug("respath: packages loaded")
	return res, nil
}

// checkErrors turns list and parse errors into typed errors and logs type errors.
func checkErrors(pkg *packages.Package) error {
	for _, e := range pkg.Errors {
		switch e.Kind {
		case packages.ListError:
			if strings.Contains(e.Msg, "cannot find") || strings.Contains(e.Msg, "no Go files") || strings.Contains(e.Msg, "not in std") {
				return &PackageNotFoundError{Pattern: pkg.PkgPath}
			}
			return fmt.Errorf("listing %s: %w", pkg.PkgPath, errors.New(e.Msg))
		case packages.ParseError:
			return &ParseError{Path: errorFile(e), Err: errors.New(e.Msg)}
		default:
			log.WithField("package", pkg.PkgPath).Warnf("respath: %s", e)
		}
	}
	return nil
}

func errorFile(e packages.Error) string {
	if i := strings.Index(e.Pos, ":"); i > 0 {
		return e.Pos[:i]
	}
	return e.Pos
}

// selectVariants drops the synthesized test mains and, when a package has a
// test variant, the variant without tests, so every file is analyzed once.
func selectVariants(pkgs []*packages.Package) []*packages.Package {
	hasTestVariant := map[string]bool{}
	for _, pkg := range pkgs {
		if isTestVariant(pkg) {
			hasTestVariant[pkg.PkgPath] = true
		}
	}
	var out []*packages.Package
	for _, pkg := range pkgs {
		if strings.HasSuffix(pkg.ID, ".test") {
			continue
		}
		if hasTestVariant[pkg.PkgPath] && !isTestVariant(pkg) {
			continue
		}
		out = append(out, pkg)
	}
	return out
}

func isTestVariant(pkg *packages.Package) bool {
	return strings.Contains(pkg.ID, " [")
}

// ParseFile parses one Go source file, src may be nil to read filename.
func ParseFile(fset *token.FileSet, filename string, src []byte) (*ast.File, error) {
	file, err := parser.ParseFile(fset, filename, src, parser.ParseComments|parser.SkipObjectResolution)
	if err != nil {
		return file, &ParseError{Path: filename, Err: err}
	}
	return file, nil
}

func dirOrDot(dir string) string {
	if dir == "" {
		return "."
	}
	return dir
}
