package analyzer

import (
	"go/ast"
	"go/token"
	"go/types"

	"golang.org/x/tools/go/types/typeutil"

	"github.com/podhmo/respath/internal/metadata"
)

// traversal collects the marked expressions of the loaded packages.
type traversal struct {
	builder *Builder
	markers *markerIndex
	seen    map[ast.Expr]bool
	targets []*metadata.Target
}

func (t *traversal) add(u *Unit, m *metadata.Marker, node ast.Expr) {
	if m == nil || node == nil {
		return
	}
	node = ast.Unparen(node)
	if t.seen[node] {
		return
	}
	t.seen[node] = true
	t.targets = append(t.targets, &metadata.Target{Marker: m, Node: node, Expr: t.builder.Lower(u, node)})
}

func (t *traversal) file(u *Unit, f *ast.File) {
	ast.Inspect(f, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.CompositeLit:
			t.compositeLit(u, n)
		case *ast.AssignStmt:
			t.assign(u, n)
		case *ast.GenDecl:
			t.genDecl(u, n)
		case *ast.FuncDecl:
			t.results(u, n)
		case *ast.CallExpr:
			t.call(u, f, n)
		}
		return true
	})
}

// compositeLit targets the elements of tagged fields, `Config{Icon: "a.png"}`.
func (t *traversal) compositeLit(u *Unit, lit *ast.CompositeLit) {
	named, st := namedStruct(u.Info.TypeOf(lit))
	if st == nil {
		return
	}
	for i, elt := range lit.Elts {
		field, value := element(st, i, elt)
		idx := fieldIndex(st, field)
		if idx < 0 {
			continue
		}
		t.add(u, t.markers.field(named.Obj().Name(), st.Field(idx), st.Tag(idx)), value)
	}
}

// assign targets `x.Icon = expr` for tagged fields, promoted fields included.
func (t *traversal) assign(u *Unit, s *ast.AssignStmt) {
	if s.Tok != token.ASSIGN || len(s.Lhs) != len(s.Rhs) {
		return
	}
	for i, lhs := range s.Lhs {
		sel, ok := ast.Unparen(lhs).(*ast.SelectorExpr)
		if !ok {
			continue
		}
		selection := u.Info.Selections[sel]
		if selection == nil || selection.Kind() != types.FieldVal {
			continue
		}
		owner, field, tag, ok := fieldByPath(selection.Recv(), selection.Index())
		if !ok {
			continue
		}
		t.add(u, t.markers.field(owner, field, tag), s.Rhs[i])
	}
}

// genDecl targets the values of var and const specs carrying //respath:path.
func (t *traversal) genDecl(u *Unit, gen *ast.GenDecl) {
	if gen.Tok != token.VAR && gen.Tok != token.CONST {
		return
	}
	for _, spec := range gen.Specs {
		vs := spec.(*ast.ValueSpec)
		m := t.markers.spec(gen, vs)
		if m == nil {
			continue
		}
		for _, value := range vs.Values {
			t.add(u, m, value)
		}
	}
}

// results targets the returned expressions of //respath:result functions.
func (t *traversal) results(u *Unit, fd *ast.FuncDecl) {
	if fd.Body == nil {
		return
	}
	fn, ok := u.Info.Defs[fd.Name].(*types.Func)
	if !ok {
		return
	}
	m := t.markers.results[fn]
	if m == nil {
		return
	}
	ast.Inspect(fd.Body, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.FuncLit:
			return false
		case *ast.ReturnStmt:
			if len(n.Results) > 0 {
				t.add(u, m, n.Results[0])
			}
		}
		return true
	})
}

// call targets the first argument of respath.Path calls and the arguments
// passed to marked parameters.
func (t *traversal) call(u *Unit, f *ast.File, call *ast.CallExpr) {
	if m, ok := t.markers.call(u, f, call); ok {
		t.add(u, m, call.Args[0])
		return
	}
	fn := typeutil.StaticCallee(u.Info, call)
	if fn == nil {
		return
	}
	fn = fn.Origin()
	for i, arg := range call.Args {
		if call.Ellipsis.IsValid() && i == len(call.Args)-1 {
			break // f(xs...)
		}
		t.add(u, t.markers.param(fn, i), arg)
	}
}

// fieldByPath follows a selection index path through embedded structs and
// returns the selected field, its tag and the name of the struct declaring it.
func fieldByPath(recv types.Type, index []int) (owner string, field *types.Var, tag string, ok bool) {
	t := recv
	for _, i := range index {
		t = types.Unalias(t)
		if p, isPtr := t.(*types.Pointer); isPtr {
			t = types.Unalias(p.Elem())
		}
		if n, isNamed := t.(*types.Named); isNamed {
			owner = n.Obj().Name()
		}
		st, isStruct := t.Underlying().(*types.Struct)
		if !isStruct || i >= st.NumFields() {
			return "", nil, "", false
		}
		field, tag = st.Field(i), st.Tag(i)
		t = field.Type()
	}
	return owner, field, tag, field != nil
}
