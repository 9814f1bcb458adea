package analyzer

import (
	"fmt"
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/podhmo/respath/internal/interpreter"
	"github.com/podhmo/respath/internal/metadata"
	"github.com/podhmo/respath/internal/model"
)

// markerSource mirrors the exported API of the root package.
const markerSource = `package respath

type PathOption interface{ isPathOption() }

type BaseOption struct{ Dir string }

func (BaseOption) isPathOption() {}

func Base(dir string) PathOption { return BaseOption{Dir: dir} }

type DirOption struct{}

func (DirOption) isPathOption() {}

func Dir() PathOption { return DirOption{} }

func Path[T ~string](path T, options ...PathOption) T { return path }
`

type testImporter struct {
	pkgs     map[string]*types.Package
	fallback types.Importer
}

func (i *testImporter) Import(path string) (*types.Package, error) {
	if pkg, ok := i.pkgs[path]; ok {
		return pkg, nil
	}
	return i.fallback.Import(path)
}

// testProgram type-checks inline packages against each other, the marker
// package and the standard library.
type testProgram struct {
	fset  *token.FileSet
	imp   *testImporter
	units []*Unit
}

func newProgram(t *testing.T) *testProgram {
	t.Helper()
	fset := token.NewFileSet()
	p := &testProgram{
		fset: fset,
		imp:  &testImporter{pkgs: map[string]*types.Package{}, fallback: importer.ForCompiler(fset, "source", nil)},
	}
	p.check(t, MarkerPackage, markerSource)
	return p
}

func (p *testProgram) check(t *testing.T, path string, sources ...string) *Unit {
	t.Helper()
	var files []*ast.File
	for i, src := range sources {
		f, err := parser.ParseFile(p.fset, fmt.Sprintf("%s/file%d.go", path, i), src, parser.ParseComments)
		require.NoError(t, err)
		files = append(files, f)
	}
	info := &types.Info{
		Types:      map[ast.Expr]types.TypeAndValue{},
		Defs:       map[*ast.Ident]types.Object{},
		Uses:       map[*ast.Ident]types.Object{},
		Selections: map[*ast.SelectorExpr]*types.Selection{},
		Instances:  map[*ast.Ident]types.Instance{},
	}
	conf := types.Config{Importer: p.imp}
	pkg, err := conf.Check(path, p.fset, files, info)
	require.NoError(t, err)
	p.imp.pkgs[path] = pkg
	return &Unit{Fset: p.fset, Files: files, Info: info, Pkg: pkg}
}

// add type-checks a package and includes it in the analysis.
func (p *testProgram) add(t *testing.T, path string, sources ...string) *Unit {
	t.Helper()
	u := p.check(t, path, sources...)
	p.units = append(p.units, u)
	return u
}

func (p *testProgram) analyze(t *testing.T) *Analysis {
	t.Helper()
	a, err := Analyze(p.fset, p.units)
	require.NoError(t, err)
	return a
}

// resolveVar resolves a package-level variable of u.
func resolveVar(t *testing.T, b *Builder, u *Unit, name string) []string {
	t.Helper()
	obj := u.Pkg.Scope().Lookup(name)
	require.NotNil(t, obj, "no package-level %s", name)
	return interpreter.Sorted(interpreter.Resolve(&model.NameRef{Name: name, Target: b.declOf(obj)}))
}

func values(target *metadata.Target) []string {
	return interpreter.Sorted(interpreter.Resolve(target.Expr))
}

// resolved returns the values of every target, in target order.
func resolved(a *Analysis) [][]string {
	out := make([][]string, len(a.Targets))
	for i, target := range a.Targets {
		out[i] = values(target)
	}
	return out
}
