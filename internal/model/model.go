// Package model defines the Expression Model the interpreter evaluates.
//
// The model is a closed set of expression variants lowered from Go syntax:
// Literal, Concat, NameRef, Call, QualifiedAccess and DeclGroup. Nodes are
// built once by the analyzer and never modified afterwards, so they can be
// shared by concurrent resolutions.
package model

import "go/token"

// Expr is one expression node. The set of implementations is closed.
// A nil Expr stands for an expression the lowering could not represent.
type Expr interface {
	Pos() token.Pos
	exprNode()
}

// LiteralKind distinguishes string literals from integer literals.
type LiteralKind int

const (
	StringLit LiteralKind = iota
	IntLit
)

func (k LiteralKind) String() string {
	switch k {
	case StringLit:
		return "string"
	case IntLit:
		return "int"
	default:
		return "unknown"
	}
}

// Literal is a constant. Value holds the unquoted string, or the decimal
// representation of an integer constant.
type Literal struct {
	ValuePos token.Pos
	Kind     LiteralKind
	Value    string
}

// Concat is a `+` chain of at least two operands, in source order.
type Concat struct {
	OpPos    token.Pos
	Operands []Expr
}

// NameRef is a use of a local variable, parameter or package-level variable.
type NameRef struct {
	NamePos token.Pos
	Name    string
	Target  *Decl // nil if the reference could not be resolved
}

// Call is a function or method call, or one of the string operations the
// folder knows (see Method constants), in which case Receiver is the string
// being transformed.
type Call struct {
	Lparen   token.Pos
	Receiver Expr // optional
	Method   string
	Args     []Expr
	Target   *Decl // nil for calls without a declaration in the loaded packages
}

// QualifiedAccess is a field selection on a value, `StatusOK.Icon`.
type QualifiedAccess struct {
	Receiver  Expr
	Member    string
	MemberPos token.Pos
}

// VarSpec is one name declared by a DeclGroup.
type VarSpec struct {
	Name string
	Init Expr // optional
	Decl *Decl
}

// DeclGroup declares one or more variables: `var a, b = x, y` or `a := x`.
// It is both an expression and a statement.
type DeclGroup struct {
	DeclPos token.Pos
	Specs   []*VarSpec
}

func (x *Literal) Pos() token.Pos         { return x.ValuePos }
func (x *Concat) Pos() token.Pos          { return x.OpPos }
func (x *NameRef) Pos() token.Pos         { return x.NamePos }
func (x *Call) Pos() token.Pos            { return x.Lparen }
func (x *QualifiedAccess) Pos() token.Pos { return x.MemberPos }
func (x *DeclGroup) Pos() token.Pos       { return x.DeclPos }

func (*Literal) exprNode()         {}
func (*Concat) exprNode()          {}
func (*NameRef) exprNode()         {}
func (*Call) exprNode()            {}
func (*QualifiedAccess) exprNode() {}
func (*DeclGroup) exprNode()       {}

// Names of the string operations understood by the call-chain folder.
const (
	MethodToUpper    = "ToUpper"
	MethodToLower    = "ToLower"
	MethodTrimSpace  = "TrimSpace"
	MethodTrimPrefix = "TrimPrefix"
	MethodTrimSuffix = "TrimSuffix"
	MethodReplace    = "Replace"
	MethodReplaceAll = "ReplaceAll"
	MethodSlice      = "Slice" // s[i:j], or s[i:] with a single argument
)

// Str returns a string literal node.
func Str(s string) *Literal { return &Literal{Kind: StringLit, Value: s} }

// Int returns an integer literal node.
func Int(s string) *Literal { return &Literal{Kind: IntLit, Value: s} }
