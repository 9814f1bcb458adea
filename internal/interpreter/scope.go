package interpreter

import (
	"github.com/hashicorp/go-set/v2"

	"github.com/podhmo/respath/internal/model"
)

// Values is the set of literal strings an expression can produce.
// An empty set means "unknown", never "the empty string".
type Values = set.Set[string]

func newValues(items ...string) *Values {
	s := set.New[string](len(items))
	s.InsertSlice(items)
	return s
}

// Binding is a name bound in a Scope together with the declaration it stands for.
type Binding struct {
	Decl   *model.Decl // nil if unknown
	Values *Values
}

// Scope maps local names to already resolved value sets.
// A Scope belongs to one inlining frame of one top-level resolution.
type Scope struct {
	store map[string]Binding
}

// NewScope creates an empty scope.
func NewScope() *Scope {
	return &Scope{store: make(map[string]Binding)}
}

// Bind binds name to values. A later Bind of the same name replaces the earlier one.
func (s *Scope) Bind(name string, decl *model.Decl, values *Values) {
	s.store[name] = Binding{Decl: decl, Values: values}
}

// Lookup returns the values bound to name, if the binding stands for target.
// A binding for a different declaration of the same name (a shadowed variable
// in a flattened body) does not match.
func (s *Scope) Lookup(name string, target *model.Decl) (*Values, bool) {
	b, ok := s.store[name]
	if !ok {
		return nil, false
	}
	if b.Decl != nil && target != nil && b.Decl != target {
		return nil, false
	}
	return b.Values, true
}

// Guard is the set of declarations being expanded on the active path.
type Guard struct {
	active map[*model.Decl]struct{}
}

// NewGuard creates an empty guard.
func NewGuard() *Guard {
	return &Guard{active: make(map[*model.Decl]struct{})}
}

// Enter marks d as being expanded. It returns false if d is already on the path,
// in which case the caller must not expand it again.
func (g *Guard) Enter(d *model.Decl) bool {
	if _, ok := g.active[d]; ok {
		return false
	}
	g.active[d] = struct{}{}
	return true
}

// Leave removes d from the active path.
func (g *Guard) Leave(d *model.Decl) {
	delete(g.active, d)
}

// Contains reports whether d is being expanded.
func (g *Guard) Contains(d *model.Decl) bool {
	_, ok := g.active[d]
	return ok
}
