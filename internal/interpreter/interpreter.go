package interpreter

import (
	"fmt"
	"slices"

	log "github.com/sirupsen/logrus"

	"github.com/podhmo/respath/internal/model"
)

// MaxValues bounds the size of a concatenation product. Combinations beyond
// it are dropped, which only loses values and never invents one.
const MaxValues = 4096

// Resolve computes the set of literal strings e can produce at runtime.
// Every call starts with a fresh guard and an empty scope, so independent
// resolutions can run concurrently over the same model.
func Resolve(e model.Expr) *Values {
	return Eval(e, NewGuard(), NewScope())
}

// Eval resolves e under the given guard and scope.
func Eval(e model.Expr, guard *Guard, scope *Scope) *Values {
	switch x := e.(type) {
	case nil:
		return newValues()
	case *model.Literal:
		if x.Kind != model.StringLit {
			return newValues()
		}
		return newValues(x.Value)
	case *model.Concat:
		return evalConcat(x, guard, scope)
	case *model.NameRef:
		return evalNameRef(x, guard, scope)
	case *model.Call:
		return evalCall(x, guard, scope)
	case *model.QualifiedAccess:
		return ResolveQualifiedField(x, guard, scope)
	case *model.DeclGroup:
		result := newValues()
		for _, spec := range x.Specs {
			if spec.Init == nil {
				continue
			}
			result.InsertSlice(Eval(spec.Init, guard, scope).Slice())
		}
		return result
	default:
		log.WithField("type", fmt.Sprintf("%T", e)).Debug("respath: unsupported expression node")
		return newValues()
	}
}

// evalConcat builds the Cartesian product of the operands' values, left to right.
// An operand without values makes the whole concatenation unknown.
func evalConcat(x *model.Concat, guard *Guard, scope *Scope) *Values {
	acc := []string{""}
	for _, op := range x.Operands {
		vals := Eval(op, guard, scope)
		if vals.Size() == 0 {
			return newValues()
		}
		next := make([]string, 0, len(acc)*vals.Size())
	product:
		for _, prefix := range acc {
			for _, v := range Sorted(vals) {
				if len(next) == MaxValues {
					log.WithField("limit", MaxValues).Debug("respath: concatenation product truncated")
					break product
				}
				next = append(next, prefix+v)
			}
		}
		acc = next
	}
	return newValues(acc...)
}

func evalNameRef(x *model.NameRef, guard *Guard, scope *Scope) *Values {
	if vals, ok := scope.Lookup(x.Name, x.Target); ok {
		return newValues(vals.Slice()...)
	}
	d := x.Target
	if !d.Inlinable() {
		return newValues()
	}
	if !guard.Enter(d) {
		return newValues()
	}
	defer guard.Leave(d)
	return Eval(d.Init, guard, scope)
}

func evalCall(x *model.Call, guard *Guard, scope *Scope) *Values {
	if v, ok := Fold(x); ok {
		return newValues(v)
	}

	d := x.Target
	if d == nil || d.Body == nil {
		return newValues()
	}
	if !guard.Enter(d) {
		log.WithField("func", d.Name).Debug("respath: recursive call cut")
		return newValues()
	}
	defer guard.Leave(d)

	// arguments are evaluated in the caller's scope
	child := NewScope()
	limit := len(d.Params)
	if d.Variadic {
		limit--
	}
	for i := 0; i < min(len(x.Args), limit); i++ {
		bindParam(child, d.Params[i], Eval(x.Args[i], guard, scope))
	}
	if d.Recv != nil && x.Receiver != nil {
		bindParam(child, d.Recv, Eval(x.Receiver, guard, scope))
	}

	for _, stmt := range d.Body.Stmts {
		group, ok := stmt.(*model.DeclGroup)
		if !ok {
			continue
		}
		for _, spec := range group.Specs {
			vals := newValues()
			if spec.Init != nil && (spec.Decl == nil || !spec.Decl.Mutable) {
				vals = Eval(spec.Init, guard, child)
			}
			child.Bind(spec.Name, spec.Decl, vals)
		}
	}

	result := newValues()
	for _, stmt := range d.Body.Stmts {
		ret, ok := stmt.(*model.Return)
		if !ok || ret.Result == nil {
			continue
		}
		result.InsertSlice(Eval(ret.Result, guard, child).Slice())
	}
	return result
}

func bindParam(scope *Scope, p *model.Decl, vals *Values) {
	if p.Mutable {
		vals = newValues()
	}
	scope.Bind(p.Name, p, vals)
}

// Sorted returns the values in lexical order.
func Sorted(v *Values) []string {
	if v == nil {
		return nil
	}
	s := v.Slice()
	slices.Sort(s)
	return s
}
