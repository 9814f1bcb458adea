package interpreter

import (
	log "github.com/sirupsen/logrus"

	"github.com/podhmo/respath/internal/model"
)

// ResolveQualifiedField resolves `EnumConstant.field`.
//
// The receiver must name an enum constant declaration directly. The
// constructor body must store a bare parameter into the field of the value it
// returns, once, and the constant's argument at that parameter's position is
// resolved in the caller's guard and scope, since it was written at the
// constant's declaration site. Any other shape resolves to nothing; so does an
// assignment that transforms the parameter (`path: prefix + icon`).
func ResolveQualifiedField(access *model.QualifiedAccess, guard *Guard, scope *Scope) *Values {
	ref, ok := access.Receiver.(*model.NameRef)
	if !ok || ref.Target == nil || ref.Target.Kind != model.EnumConstDecl {
		return newValues()
	}
	constant := ref.Target
	if !constant.Enum.HasField(access.Member) {
		return newValues()
	}
	ctor := constant.Ctor
	if ctor == nil || ctor.Body == nil {
		return newValues()
	}

	index := boundParam(ctor, access.Member)
	if index < 0 || index >= len(constant.Args) {
		log.WithField("enum", constant.Name).WithField("field", access.Member).Debug("respath: no direct field binding in constructor")
		return newValues()
	}

	if !guard.Enter(constant) {
		return newValues()
	}
	defer guard.Leave(constant)
	return Eval(constant.Args[index], guard, scope)
}

// boundParam returns the index of the constructor parameter assigned as is to
// field, or -1. Only stores into the value the constructor returns count, and
// the field must be stored exactly once: a later store would overwrite the
// parameter.
func boundParam(ctor *model.Decl, field string) int {
	built := map[string]bool{"": true}
	for _, stmt := range ctor.Body.Stmts {
		if ret, ok := stmt.(*model.Return); ok {
			if ref, ok := ret.Result.(*model.NameRef); ok {
				built[ref.Name] = true
			}
		}
	}

	var bound *model.Assign
	for _, stmt := range ctor.Body.Stmts {
		assign, ok := stmt.(*model.Assign)
		if !ok || assign.Field != field || !built[assign.Recv] {
			continue
		}
		if bound != nil {
			return -1
		}
		bound = assign
	}
	if bound == nil {
		return -1
	}
	ref, ok := bound.Value.(*model.NameRef)
	if !ok {
		return -1
	}
	for i, p := range ctor.Params {
		if ref.Target == p || (ref.Target == nil && ref.Name == p.Name) {
			return i
		}
	}
	return -1
}
