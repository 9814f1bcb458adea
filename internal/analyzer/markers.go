package analyzer

import (
	"errors"
	"fmt"
	"go/ast"
	"go/constant"
	"go/token"
	"go/types"
	"reflect"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/podhmo/respath/internal/metadata"
	"github.com/podhmo/respath/internal/utils/astutils"
)

const (
	// MarkerPackage is the import path of the package declaring respath.Path.
	MarkerPackage = "github.com/podhmo/respath"
	// TagKey is the struct tag key marking a field.
	TagKey = "respath"
	// DirectivePrefix introduces //respath:param, //respath:result and //respath:path.
	DirectivePrefix = "respath"
)

// Directive names.
const (
	DirectiveParam  = "param"
	DirectiveResult = "result"
	DirectivePath   = "path"
)

var errUnknownOption = errors.New("unknown marker option")

func normalizeBase(base string) string {
	return strings.TrimSuffix(strings.ReplaceAll(base, `\`, "/"), "/")
}

// parseOptions reads `base=<dir>` and `dir` options. pos returns the
// position of the i-th option.
func parseOptions(m *metadata.Marker, options []string, pos func(i int) token.Pos) error {
	for i, opt := range options {
		opt = strings.TrimSpace(opt)
		switch {
		case opt == "":
		case opt == "dir":
			m.Dir = true
		case strings.HasPrefix(opt, "base="):
			base := strings.TrimPrefix(opt, "base=")
			if unquoted, err := strconv.Unquote(base); err == nil {
				base = unquoted
			}
			m.Base = normalizeBase(base)
			m.BasePos = pos(i) + token.Pos(len("base="))
		default:
			return fmt.Errorf("%w %q", errUnknownOption, opt)
		}
	}
	return nil
}

// markerIndex holds the markers attached to declarations of all loaded packages.
type markerIndex struct {
	fset    *token.FileSet
	params  map[*types.Func]map[int]*metadata.Marker
	results map[*types.Func]*metadata.Marker
	fields  map[*types.Var]*metadata.Marker
}

func newMarkerIndex(fset *token.FileSet, units []*Unit) *markerIndex {
	m := &markerIndex{
		fset:    fset,
		params:  map[*types.Func]map[int]*metadata.Marker{},
		results: map[*types.Func]*metadata.Marker{},
		fields:  map[*types.Var]*metadata.Marker{},
	}
	for _, u := range units {
		for _, f := range u.Files {
			for _, decl := range f.Decls {
				if fd, ok := decl.(*ast.FuncDecl); ok {
					m.indexFunc(u, fd)
				}
			}
		}
	}
	return m
}

func (m *markerIndex) warn(pos token.Pos, err error) {
	log.WithField("pos", m.fset.Position(pos)).Warnf("respath: %v", err)
}

func (m *markerIndex) indexFunc(u *Unit, fd *ast.FuncDecl) {
	directives := astutils.Directives(fd.Doc, DirectivePrefix)
	if len(directives) == 0 {
		return
	}
	fn, ok := u.Info.Defs[fd.Name].(*types.Func)
	if !ok {
		return
	}
	name := funcName(fd)

	for _, d := range directives {
		marker := &metadata.Marker{Pos: d.Pos}
		var options []string
		offset := 0
		switch d.Name {
		case DirectiveParam:
			if len(d.Args) == 0 {
				m.warn(d.Pos, fmt.Errorf("%s directive without a parameter name", DirectiveParam))
				continue
			}
			idx := paramIndex(fd, d.Args[0])
			if idx < 0 {
				m.warn(d.Pos, fmt.Errorf("%s has no parameter %q", name, d.Args[0]))
				continue
			}
			marker.Origin = fmt.Sprintf("param %s of %s", d.Args[0], name)
			options, offset = d.Args[1:], 1
			if m.params[fn] == nil {
				m.params[fn] = map[int]*metadata.Marker{}
			}
			m.params[fn][idx] = marker
		case DirectiveResult:
			marker.Origin = "result of " + name
			options = d.Args
			m.results[fn] = marker
		default:
			m.warn(d.Pos, fmt.Errorf("unknown directive %q on %s", d.Name, name))
			continue
		}
		if err := parseOptions(marker, options, func(i int) token.Pos { return d.ArgPos(i + offset) }); err != nil {
			m.warn(d.Pos, err)
		}
	}
}

// param returns the marker of the i-th argument of a call to fn.
func (m *markerIndex) param(fn *types.Func, i int) *metadata.Marker {
	markers := m.params[fn]
	if markers == nil {
		return nil
	}
	sig := fn.Type().(*types.Signature)
	if n := sig.Params().Len(); sig.Variadic() && i >= n-1 {
		i = n - 1
	}
	return markers[i]
}

// field returns the marker of a struct field, nil if its tag has none.
func (m *markerIndex) field(owner string, v *types.Var, tag string) *metadata.Marker {
	if marker, ok := m.fields[v]; ok {
		return marker
	}
	value, ok := reflect.StructTag(tag).Lookup(TagKey)
	if !ok {
		m.fields[v] = nil
		return nil
	}
	marker := &metadata.Marker{Pos: v.Pos(), Origin: fmt.Sprintf("field %s.%s", owner, v.Name())}
	if err := parseOptions(marker, strings.Split(value, ","), func(int) token.Pos { return v.Pos() }); err != nil {
		m.warn(v.Pos(), err)
	}
	if marker.Base != "" {
		marker.BasePos = v.Pos()
	}
	m.fields[v] = marker
	return marker
}

// spec returns the marker of a var or const spec carrying //respath:path,
// either on the spec or on its single-spec declaration.
func (m *markerIndex) spec(gen *ast.GenDecl, vs *ast.ValueSpec) *metadata.Marker {
	doc := vs.Doc
	if doc == nil && len(gen.Specs) == 1 {
		doc = gen.Doc
	}
	for _, d := range astutils.Directives(doc, DirectivePrefix) {
		if d.Name != DirectivePath {
			continue
		}
		names := make([]string, len(vs.Names))
		for i, n := range vs.Names {
			names[i] = n.Name
		}
		marker := &metadata.Marker{Pos: d.Pos, Origin: fmt.Sprintf("%s %s", gen.Tok, strings.Join(names, ", "))}
		if err := parseOptions(marker, d.Args, d.ArgPos); err != nil {
			m.warn(d.Pos, err)
		}
		return marker
	}
	return nil
}

// call returns the marker of a respath.Path call. ok is false when the call
// is not a marker call; a marker call whose options cannot be read
// statically returns nil and true.
func (m *markerIndex) call(u *Unit, f *ast.File, call *ast.CallExpr) (*metadata.Marker, bool) {
	if !isMarkerCall(f, call.Fun, "Path") || len(call.Args) == 0 {
		return nil, false
	}
	marker := &metadata.Marker{Pos: call.Pos(), Origin: "respath.Path call"}
	for _, arg := range call.Args[1:] {
		opt, ok := ast.Unparen(arg).(*ast.CallExpr)
		switch {
		case ok && isMarkerCall(f, opt.Fun, "Dir"):
			marker.Dir = true
		case ok && isMarkerCall(f, opt.Fun, "Base") && len(opt.Args) == 1:
			tv, found := u.Info.Types[opt.Args[0]]
			if !found || tv.Value == nil || tv.Value.Kind() != constant.String {
				m.warn(opt.Args[0].Pos(), errors.New("base must be a constant string"))
				return nil, true
			}
			marker.Base = normalizeBase(constant.StringVal(tv.Value))
			marker.BasePos = opt.Args[0].Pos()
		default:
			m.warn(arg.Pos(), errors.New("marker option is not a respath.Base or respath.Dir call"))
			return nil, true
		}
	}
	return marker, true
}

// isMarkerCall reports whether fun is `<alias>.name` with alias importing
// the marker package.
func isMarkerCall(f *ast.File, fun ast.Expr, name string) bool {
	fname, alias := astutils.GetFullFunctionName(fun)
	if fname != name {
		return false
	}
	if alias == "" {
		return false
	}
	return astutils.GetImportPath(f, alias) == MarkerPackage
}

func isMarkerFunc(fn *types.Func, name string) bool {
	return fn.Pkg() != nil && fn.Pkg().Path() == MarkerPackage && fn.Name() == name
}

func funcName(fd *ast.FuncDecl) string {
	if fd.Recv != nil && len(fd.Recv.List) == 1 {
		return fmt.Sprintf("(%s).%s", astutils.ExprToTypeName(fd.Recv.List[0].Type), fd.Name.Name)
	}
	return fd.Name.Name
}

// paramIndex returns the position of the parameter called name, or -1.
func paramIndex(fd *ast.FuncDecl, name string) int {
	i := 0
	for _, field := range fd.Type.Params.List {
		if len(field.Names) == 0 {
			i++
			continue
		}
		for _, n := range field.Names {
			if n.Name == name {
				return i
			}
			i++
		}
	}
	return -1
}

// IsMarked reports whether n carries a marker on its own, judging by syntax
// only: a func or var/const declaration with a respath directive, a field
// with a respath tag, or a respath.Path call.
func IsMarked(f *ast.File, n ast.Node) bool {
	switch n := n.(type) {
	case *ast.FuncDecl:
		return len(astutils.Directives(n.Doc, DirectivePrefix)) > 0
	case *ast.GenDecl:
		return (n.Tok == token.VAR || n.Tok == token.CONST) && hasPathDirective(n.Doc)
	case *ast.ValueSpec:
		return hasPathDirective(n.Doc)
	case *ast.Field:
		if n.Tag == nil {
			return false
		}
		tag, err := strconv.Unquote(n.Tag.Value)
		if err != nil {
			return false
		}
		_, ok := reflect.StructTag(tag).Lookup(TagKey)
		return ok
	case *ast.CallExpr:
		return isMarkerCall(f, n.Fun, "Path")
	}
	return false
}

func hasPathDirective(doc *ast.CommentGroup) bool {
	for _, d := range astutils.Directives(doc, DirectivePrefix) {
		if d.Name == DirectivePath {
			return true
		}
	}
	return false
}
