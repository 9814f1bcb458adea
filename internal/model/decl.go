package model

import (
	"go/token"
	"slices"
)

// Stmt is a statement of a function body.
// Implementations: *DeclGroup, *Return, *Assign.
type Stmt interface {
	stmtNode()
}

// Return is `return Result`.
type Return struct {
	Result Expr // nil for bare returns and multi-value returns
}

// Assign stores Value into the field named Field,
// `s.icon = icon` or the element `icon: icon` of a composite literal.
type Assign struct {
	Recv  string // variable holding the struct, empty for a returned or synthesized literal
	Field string
	Value Expr
}

func (*DeclGroup) stmtNode() {}
func (*Return) stmtNode()    {}
func (*Assign) stmtNode()    {}

// Body is the ordered statement list of a function.
type Body struct {
	Stmts []Stmt
}

// DeclKind is the kind of a Decl.
type DeclKind int

const (
	LocalDecl DeclKind = iota
	FieldDecl
	ParamDecl
	FuncDecl
	EnumConstDecl
)

func (k DeclKind) String() string {
	switch k {
	case LocalDecl:
		return "local"
	case FieldDecl:
		return "field"
	case ParamDecl:
		return "param"
	case FuncDecl:
		return "func"
	case EnumConstDecl:
		return "enum-const"
	default:
		return "unknown"
	}
}

// Decl is a named binding. Identity is the pointer.
type Decl struct {
	Kind DeclKind
	Name string
	Pos  token.Pos

	// variables
	Mutable bool
	Init    Expr

	// functions and constructors
	Recv     *Decl
	Params   []*Decl
	Variadic bool
	Body     *Body // nil when there is no body to inline

	// enum constants
	Enum *Enum
	Args []Expr
	Ctor *Decl
}

// Inlinable reports whether a variable's initializer may stand for its value.
func (d *Decl) Inlinable() bool {
	if d == nil || d.Mutable || d.Init == nil {
		return false
	}
	return d.Kind == LocalDecl || d.Kind == FieldDecl
}

// ParamIndex returns the position of p among d's parameters, or -1.
func (d *Decl) ParamIndex(p *Decl) int {
	return slices.Index(d.Params, p)
}

// Enum is the named struct type an enum constant belongs to.
type Enum struct {
	Name   string
	Fields []string
}

// HasField reports whether the enum type declares the field.
func (e *Enum) HasField(name string) bool {
	return e != nil && slices.Contains(e.Fields, name)
}
