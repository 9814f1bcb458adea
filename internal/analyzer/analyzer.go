// Package analyzer finds resource-path markers in type-checked Go packages
// and lowers every marked expression into the Expression Model.
package analyzer

import (
	"errors"
	"fmt"
	"go/ast"
	"go/token"
	"go/types"

	log "github.com/sirupsen/logrus"

	"github.com/podhmo/respath/internal/metadata"
)

// Unit is one type-checked package.
type Unit struct {
	Fset  *token.FileSet
	Files []*ast.File
	Info  *types.Info
	Pkg   *types.Package
}

// Path returns the import path of the package.
func (u *Unit) Path() string {
	if u.Pkg == nil {
		return ""
	}
	return u.Pkg.Path()
}

// Analysis is the result of Analyze.
type Analysis struct {
	Fset    *token.FileSet
	Units   []*Unit
	Builder *Builder
	Targets []*metadata.Target
}

// Markers returns the distinct markers of the targets, in target order.
func (a *Analysis) Markers() []*metadata.Marker {
	seen := map[*metadata.Marker]bool{}
	var markers []*metadata.Marker
	for _, t := range a.Targets {
		if seen[t.Marker] {
			continue
		}
		seen[t.Marker] = true
		markers = append(markers, t.Marker)
	}
	return markers
}

// Analyze collects the marked expressions of the units.
// - fset: Token FileSet shared by all units.
// - units: type-checked packages; markers on declarations of one unit apply to uses in any other.
func Analyze(fset *token.FileSet, units []*Unit) (*Analysis, error) {
	if fset == nil {
		return nil, errors.New("analyze: nil file set")
	}
	for _, u := range units {
		if u.Info == nil {
			return nil, fmt.Errorf("analyze: package %q has no type information", u.Path())
		}
	}

	b := NewBuilder(units...)
	t := &traversal{
		builder: b,
		markers: newMarkerIndex(fset, units),
		seen:    map[ast.Expr]bool{},
	}
	for _, u := range units {
		for _, f := range u.Files {
			t.file(u, f)
		}
		log.WithField("package", u.Path()).Debug("respath: package analyzed")
	}
	log.WithField("targets", len(t.targets)).Debug("respath: analysis done")

	return &Analysis{Fset: fset, Units: units, Builder: b, Targets: t.targets}, nil
}
