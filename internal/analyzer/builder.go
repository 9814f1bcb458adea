package analyzer

import (
	"fmt"
	"go/ast"
	"go/constant"
	"go/token"
	"go/types"

	log "github.com/sirupsen/logrus"
	"golang.org/x/tools/go/types/typeutil"

	"github.com/podhmo/respath/internal/model"
	"github.com/podhmo/respath/internal/utils/astutils"
)

// foldable maps the functions of package strings the folder understands to
// their model method names. The first argument is the receiver.
var foldable = map[string]string{
	"ToUpper":    model.MethodToUpper,
	"ToLower":    model.MethodToLower,
	"TrimSpace":  model.MethodTrimSpace,
	"TrimPrefix": model.MethodTrimPrefix,
	"TrimSuffix": model.MethodTrimSuffix,
	"Replace":    model.MethodReplace,
	"ReplaceAll": model.MethodReplaceAll,
}

type funcSource struct {
	unit *Unit
	decl *ast.FuncDecl
}

type varSource struct {
	unit  *Unit
	value ast.Expr // nil for `var x T` and multi-value specs
}

// Builder lowers type-checked Go syntax into the Expression Model.
//
// Declarations are lowered on first use and memoized per types.Object, so a
// declaration has exactly one *model.Decl however many packages refer to it.
// A Builder is not safe for concurrent use; the model it returns is
// read-only once lowering is over.
type Builder struct {
	funcs   map[*types.Func]funcSource
	vars    map[*types.Var]varSource
	decls   map[types.Object]*model.Decl
	mutated map[types.Object]bool
}

// NewBuilder indexes the declarations and mutations of the units.
func NewBuilder(units ...*Unit) *Builder {
	b := &Builder{
		funcs:   map[*types.Func]funcSource{},
		vars:    map[*types.Var]varSource{},
		decls:   map[types.Object]*model.Decl{},
		mutated: map[types.Object]bool{},
	}
	for _, u := range units {
		b.index(u)
	}
	return b
}

// Lower returns the model of an expression of u, nil if it has none.
func (b *Builder) Lower(u *Unit, e ast.Expr) model.Expr {
	return b.lower(u, e)
}

func (b *Builder) index(u *Unit) {
	for _, f := range u.Files {
		for _, decl := range f.Decls {
			switch decl := decl.(type) {
			case *ast.FuncDecl:
				if fn, ok := u.Info.Defs[decl.Name].(*types.Func); ok {
					b.funcs[fn] = funcSource{unit: u, decl: decl}
				}
			case *ast.GenDecl:
				if decl.Tok != token.VAR {
					continue
				}
				for _, spec := range decl.Specs {
					vs := spec.(*ast.ValueSpec)
					for i, name := range vs.Names {
						v, ok := u.Info.Defs[name].(*types.Var)
						if !ok {
							continue
						}
						src := varSource{unit: u}
						if len(vs.Values) == len(vs.Names) {
							src.value = vs.Values[i]
						}
						b.vars[v] = src
					}
				}
			}
		}
		b.scanMutations(u, f)
	}
}

// scanMutations records every variable that may change after its declaration.
// A pointer method call marks its operand even when the operand is itself a
// pointer, since the method can write through it.
func (b *Builder) scanMutations(u *Unit, f *ast.File) {
	mark := func(e ast.Expr) {
		id := astutils.RootIdent(e)
		if id == nil {
			return
		}
		if obj := u.Info.Uses[id]; obj != nil {
			b.mutated[origin(obj)] = true
		}
	}
	ast.Inspect(f, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.AssignStmt:
			for _, lhs := range n.Lhs {
				if n.Tok == token.DEFINE {
					// `a, err := ...` redeclares err
					if id, ok := lhs.(*ast.Ident); ok && u.Info.Defs[id] == nil {
						mark(id)
					}
					continue
				}
				mark(lhs)
			}
		case *ast.IncDecStmt:
			mark(n.X)
		case *ast.UnaryExpr:
			if n.Op == token.AND {
				mark(n.X)
			}
		case *ast.RangeStmt:
			if n.Tok == token.ASSIGN {
				if n.Key != nil {
					mark(n.Key)
				}
				if n.Value != nil {
					mark(n.Value)
				}
			}
		case *ast.CallExpr:
			sel, ok := ast.Unparen(n.Fun).(*ast.SelectorExpr)
			if !ok {
				break
			}
			s := u.Info.Selections[sel]
			if s == nil || s.Kind() != types.MethodVal {
				break
			}
			sig, ok := s.Obj().Type().(*types.Signature)
			if !ok || sig.Recv() == nil {
				break
			}
			if isPointer(sig.Recv().Type()) {
				mark(sel.X)
			}
		}
		return true
	})
}

func origin(obj types.Object) types.Object {
	switch o := obj.(type) {
	case *types.Func:
		return o.Origin()
	case *types.Var:
		return o.Origin()
	}
	return obj
}

func (b *Builder) declOf(obj types.Object) *model.Decl {
	if obj == nil {
		return nil
	}
	obj = origin(obj)
	if d, ok := b.decls[obj]; ok {
		return d
	}
	switch o := obj.(type) {
	case *types.Func:
		return b.funcDecl(o)
	case *types.Var:
		return b.varDecl(o)
	}
	return nil
}

func (b *Builder) varDecl(v *types.Var) *model.Decl {
	d := &model.Decl{Kind: model.LocalDecl, Name: v.Name(), Pos: v.Pos(), Mutable: b.mutated[v]}
	b.decls[v] = d

	switch {
	case v.IsField():
		d.Kind = model.FieldDecl
	case isPackageLevel(v):
		d.Kind = model.FieldDecl
		src, ok := b.vars[v]
		if !ok || src.value == nil {
			break
		}
		if !d.Mutable && b.enumConst(d, v, src) {
			break
		}
		d.Init = b.lower(src.unit, src.value)
	}
	return d
}

func (b *Builder) funcDecl(fn *types.Func) *model.Decl {
	d := &model.Decl{Kind: model.FuncDecl, Name: fn.Name(), Pos: fn.Pos()}
	b.decls[fn] = d
	if sig, ok := fn.Type().(*types.Signature); ok {
		d.Variadic = sig.Variadic()
	}

	src, ok := b.funcs[fn]
	if !ok || src.decl.Body == nil {
		return d
	}
	u := src.unit
	if recv := src.decl.Recv; recv != nil && len(recv.List) == 1 && len(recv.List[0].Names) == 1 {
		d.Recv = b.param(u, recv.List[0].Names[0])
	}
	for _, field := range src.decl.Type.Params.List {
		if len(field.Names) == 0 {
			d.Params = append(d.Params, &model.Decl{Kind: model.ParamDecl, Name: "_", Pos: field.Pos()})
			continue
		}
		for _, name := range field.Names {
			d.Params = append(d.Params, b.param(u, name))
		}
	}
	body := &model.Body{}
	b.lowerStmts(u, src.decl.Body.List, body)
	d.Body = body
	return d
}

func (b *Builder) param(u *Unit, id *ast.Ident) *model.Decl {
	v, ok := u.Info.Defs[id].(*types.Var)
	if !ok {
		return &model.Decl{Kind: model.ParamDecl, Name: id.Name, Pos: id.Pos()}
	}
	d := b.declOf(v)
	d.Kind = model.ParamDecl
	return d
}

// enumConst turns d into an enum constant when v is an unmodified package
// variable of a named struct type built by a constructor call or a
// composite literal.
func (b *Builder) enumConst(d *model.Decl, v *types.Var, src varSource) bool {
	named, st := namedStruct(v.Type())
	if named == nil {
		return false
	}
	u := src.unit
	value := unwrapAddr(src.value)

	switch x := value.(type) {
	case *ast.CallExpr:
		fn := typeutil.StaticCallee(u.Info, x)
		if fn == nil {
			return false
		}
		if sig, ok := fn.Type().(*types.Signature); !ok || sig.Recv() != nil {
			return false
		}
		d.Ctor = b.declOf(fn)
		d.Args = b.lowerArgs(u, x.Args)
	case *ast.CompositeLit:
		d.Ctor, d.Args = b.literalCtor(u, x, st)
	default:
		return false
	}

	enum := &model.Enum{Name: named.Obj().Name()}
	for i := 0; i < st.NumFields(); i++ {
		enum.Fields = append(enum.Fields, st.Field(i).Name())
	}
	d.Kind = model.EnumConstDecl
	d.Enum = enum
	return true
}

// literalCtor builds a constructor equivalent to a composite literal:
// one parameter per element, each assigned to its field.
func (b *Builder) literalCtor(u *Unit, lit *ast.CompositeLit, st *types.Struct) (*model.Decl, []model.Expr) {
	ctor := &model.Decl{Kind: model.FuncDecl, Name: "literal", Pos: lit.Lbrace, Body: &model.Body{}}
	var args []model.Expr
	for i, elt := range lit.Elts {
		field, value := element(st, i, elt)
		if field == "" {
			continue
		}
		p := &model.Decl{Kind: model.ParamDecl, Name: field, Pos: elt.Pos()}
		ctor.Params = append(ctor.Params, p)
		ctor.Body.Stmts = append(ctor.Body.Stmts, &model.Assign{
			Field: field,
			Value: &model.NameRef{NamePos: elt.Pos(), Name: field, Target: p},
		})
		args = append(args, b.lower(u, value))
	}
	return ctor, args
}

func (b *Builder) lowerStmts(u *Unit, stmts []ast.Stmt, out *model.Body) {
	for _, s := range stmts {
		b.lowerStmt(u, s, out)
	}
}

// lowerStmt flattens s into out in source order. Nested blocks are entered,
// function literals are not.
func (b *Builder) lowerStmt(u *Unit, s ast.Stmt, out *model.Body) {
	switch s := s.(type) {
	case *ast.DeclStmt:
		gen, ok := s.Decl.(*ast.GenDecl)
		if !ok || gen.Tok != token.VAR {
			return
		}
		group := &model.DeclGroup{DeclPos: gen.Pos()}
		for _, spec := range gen.Specs {
			vs := spec.(*ast.ValueSpec)
			for i, name := range vs.Names {
				var init ast.Expr
				if len(vs.Values) == len(vs.Names) {
					init = vs.Values[i]
				}
				if spec := b.local(u, name, init); spec != nil {
					group.Specs = append(group.Specs, spec)
				}
				if init != nil {
					b.literalAssigns(u, name.Name, init, out)
				}
			}
		}
		if len(group.Specs) > 0 {
			out.Stmts = append(out.Stmts, group)
		}
	case *ast.AssignStmt:
		b.lowerAssign(u, s, out)
	case *ast.ReturnStmt:
		if len(s.Results) != 1 {
			return
		}
		out.Stmts = append(out.Stmts, &model.Return{Result: b.lower(u, s.Results[0])})
		b.literalAssigns(u, "", s.Results[0], out)
	case *ast.BlockStmt:
		b.lowerStmts(u, s.List, out)
	case *ast.IfStmt:
		if s.Init != nil {
			b.lowerStmt(u, s.Init, out)
		}
		b.lowerStmts(u, s.Body.List, out)
		if s.Else != nil {
			b.lowerStmt(u, s.Else, out)
		}
	case *ast.ForStmt:
		if s.Init != nil {
			b.lowerStmt(u, s.Init, out)
		}
		b.lowerStmts(u, s.Body.List, out)
	case *ast.RangeStmt:
		b.lowerStmts(u, s.Body.List, out)
	case *ast.SwitchStmt:
		if s.Init != nil {
			b.lowerStmt(u, s.Init, out)
		}
		for _, clause := range s.Body.List {
			b.lowerStmts(u, clause.(*ast.CaseClause).Body, out)
		}
	case *ast.TypeSwitchStmt:
		if s.Init != nil {
			b.lowerStmt(u, s.Init, out)
		}
		for _, clause := range s.Body.List {
			b.lowerStmts(u, clause.(*ast.CaseClause).Body, out)
		}
	case *ast.SelectStmt:
		for _, clause := range s.Body.List {
			b.lowerStmts(u, clause.(*ast.CommClause).Body, out)
		}
	case *ast.LabeledStmt:
		b.lowerStmt(u, s.Stmt, out)
	}
}

func (b *Builder) lowerAssign(u *Unit, s *ast.AssignStmt, out *model.Body) {
	if s.Tok == token.DEFINE {
		group := &model.DeclGroup{DeclPos: s.Pos()}
		for i, lhs := range s.Lhs {
			id, ok := lhs.(*ast.Ident)
			if !ok || u.Info.Defs[id] == nil {
				continue
			}
			var init ast.Expr
			if len(s.Lhs) == len(s.Rhs) {
				init = s.Rhs[i]
			}
			if spec := b.local(u, id, init); spec != nil {
				group.Specs = append(group.Specs, spec)
			}
			if init != nil {
				b.literalAssigns(u, id.Name, init, out)
			}
		}
		if len(group.Specs) > 0 {
			out.Stmts = append(out.Stmts, group)
		}
		return
	}
	if s.Tok != token.ASSIGN || len(s.Lhs) != len(s.Rhs) {
		return
	}
	for i, lhs := range s.Lhs {
		sel, ok := ast.Unparen(lhs).(*ast.SelectorExpr)
		if !ok {
			continue
		}
		recv, ok := sel.X.(*ast.Ident)
		if !ok {
			continue
		}
		if sl := u.Info.Selections[sel]; sl == nil || sl.Kind() != types.FieldVal {
			continue
		}
		out.Stmts = append(out.Stmts, &model.Assign{Recv: recv.Name, Field: sel.Sel.Name, Value: b.lower(u, s.Rhs[i])})
	}
}

// literalAssigns emits one Assign per element of a struct composite literal
// stored in recv, `s := &Status{icon: icon}` gives `s.icon = icon`.
func (b *Builder) literalAssigns(u *Unit, recv string, e ast.Expr, out *model.Body) {
	lit, ok := unwrapAddr(e).(*ast.CompositeLit)
	if !ok {
		return
	}
	_, st := namedStruct(u.Info.TypeOf(lit))
	if st == nil {
		return
	}
	for i, elt := range lit.Elts {
		field, value := element(st, i, elt)
		if field == "" {
			continue
		}
		out.Stmts = append(out.Stmts, &model.Assign{Recv: recv, Field: field, Value: b.lower(u, value)})
	}
}

func (b *Builder) local(u *Unit, id *ast.Ident, init ast.Expr) *model.VarSpec {
	v, ok := u.Info.Defs[id].(*types.Var)
	if !ok {
		return nil
	}
	d := b.declOf(v)
	d.Kind = model.LocalDecl
	if init != nil {
		d.Init = b.lower(u, init)
	}
	return &model.VarSpec{Name: id.Name, Init: d.Init, Decl: d}
}

func (b *Builder) lower(u *Unit, e ast.Expr) model.Expr {
	if e == nil {
		return nil
	}
	e = ast.Unparen(e)
	if tv, ok := u.Info.Types[e]; ok && tv.Value != nil {
		return literal(e.Pos(), tv.Value)
	}

	switch x := e.(type) {
	case *ast.Ident:
		return b.nameRef(u, x, x)
	case *ast.SelectorExpr:
		if s, ok := u.Info.Selections[x]; ok {
			if s.Kind() != types.FieldVal {
				return nil
			}
			return &model.QualifiedAccess{Receiver: b.lower(u, x.X), Member: x.Sel.Name, MemberPos: x.Sel.Pos()}
		}
		return b.nameRef(u, x.Sel, x) // pkg.Name
	case *ast.BinaryExpr:
		if x.Op != token.ADD || !isString(u.Info.TypeOf(x)) {
			return nil
		}
		c := &model.Concat{OpPos: x.OpPos}
		for _, op := range astutils.FlattenBinary(x, token.ADD) {
			c.Operands = append(c.Operands, b.lower(u, op))
		}
		return c
	case *ast.CallExpr:
		return b.lowerCall(u, x)
	case *ast.SliceExpr:
		if x.Slice3 || !isString(u.Info.TypeOf(x.X)) {
			return nil
		}
		low := model.Expr(&model.Literal{ValuePos: x.Lbrack, Kind: model.IntLit, Value: "0"})
		if x.Low != nil {
			low = b.lower(u, x.Low)
		}
		args := []model.Expr{low}
		if x.High != nil {
			args = append(args, b.lower(u, x.High))
		}
		return &model.Call{Lparen: x.Lbrack, Receiver: b.lower(u, x.X), Method: model.MethodSlice, Args: args}
	}
	log.WithField("type", fmt.Sprintf("%T", e)).Debug("respath: expression not lowered")
	return nil
}

func (b *Builder) nameRef(u *Unit, id *ast.Ident, node ast.Expr) model.Expr {
	v, ok := u.Info.Uses[id].(*types.Var)
	if !ok {
		return nil
	}
	return &model.NameRef{NamePos: node.Pos(), Name: id.Name, Target: b.declOf(v)}
}

func (b *Builder) lowerCall(u *Unit, call *ast.CallExpr) model.Expr {
	fun := ast.Unparen(call.Fun)
	if tv, ok := u.Info.Types[fun]; ok && tv.IsType() {
		// string conversions keep the value
		if len(call.Args) == 1 && isString(tv.Type) && isString(u.Info.TypeOf(call.Args[0])) {
			return b.lower(u, call.Args[0])
		}
		return nil
	}

	fn := typeutil.StaticCallee(u.Info, call)
	if fn == nil {
		return nil
	}
	if isMarkerFunc(fn, "Path") && len(call.Args) > 0 {
		return b.lower(u, call.Args[0])
	}
	if fn.Pkg() != nil && fn.Pkg().Path() == "strings" {
		method, ok := foldable[fn.Name()]
		if !ok || len(call.Args) == 0 || isMethod(fn) {
			return nil
		}
		return &model.Call{
			Lparen:   call.Lparen,
			Receiver: b.lower(u, call.Args[0]),
			Method:   method,
			Args:     b.lowerArgs(u, call.Args[1:]),
		}
	}

	c := &model.Call{
		Lparen: call.Lparen,
		Method: fn.Name(),
		Args:   b.lowerArgs(u, call.Args),
		Target: b.declOf(fn),
	}
	if sel, ok := fun.(*ast.SelectorExpr); ok {
		if s := u.Info.Selections[sel]; s != nil && s.Kind() == types.MethodVal {
			c.Receiver = b.lower(u, sel.X)
		}
	}
	return c
}

func (b *Builder) lowerArgs(u *Unit, args []ast.Expr) []model.Expr {
	out := make([]model.Expr, len(args))
	for i, arg := range args {
		out[i] = b.lower(u, arg)
	}
	return out
}

func literal(pos token.Pos, v constant.Value) model.Expr {
	switch v.Kind() {
	case constant.String:
		return &model.Literal{ValuePos: pos, Kind: model.StringLit, Value: constant.StringVal(v)}
	case constant.Int:
		return &model.Literal{ValuePos: pos, Kind: model.IntLit, Value: v.ExactString()}
	}
	return nil
}

// element returns the field name and value of the i-th element of a struct
// composite literal.
func element(st *types.Struct, i int, elt ast.Expr) (string, ast.Expr) {
	if kv, ok := elt.(*ast.KeyValueExpr); ok {
		if key, ok := kv.Key.(*ast.Ident); ok {
			return key.Name, kv.Value
		}
		return "", nil
	}
	if i < st.NumFields() {
		return st.Field(i).Name(), elt
	}
	return "", nil
}

// fieldIndex returns the index of the field called name, or -1.
func fieldIndex(st *types.Struct, name string) int {
	for i := 0; i < st.NumFields(); i++ {
		if st.Field(i).Name() == name {
			return i
		}
	}
	return -1
}

func unwrapAddr(e ast.Expr) ast.Expr {
	e = ast.Unparen(e)
	if un, ok := e.(*ast.UnaryExpr); ok && un.Op == token.AND {
		return ast.Unparen(un.X)
	}
	return e
}

// namedStruct returns the named struct type behind t, dereferencing one pointer.
func namedStruct(t types.Type) (*types.Named, *types.Struct) {
	if t == nil {
		return nil, nil
	}
	t = types.Unalias(t)
	if p, ok := t.(*types.Pointer); ok {
		t = types.Unalias(p.Elem())
	}
	named, ok := t.(*types.Named)
	if !ok {
		return nil, nil
	}
	st, ok := named.Underlying().(*types.Struct)
	if !ok {
		return nil, nil
	}
	return named, st
}

func isString(t types.Type) bool {
	if t == nil {
		return false
	}
	basic, ok := t.Underlying().(*types.Basic)
	return ok && basic.Info()&types.IsString != 0
}

func isPointer(t types.Type) bool {
	_, ok := t.Underlying().(*types.Pointer)
	return ok
}

func isMethod(fn *types.Func) bool {
	sig, ok := fn.Type().(*types.Signature)
	return ok && sig.Recv() != nil
}

func isPackageLevel(v *types.Var) bool {
	return v.Pkg() != nil && v.Parent() == v.Pkg().Scope()
}
