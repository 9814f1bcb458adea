package astutils

import (
	"fmt"
	"go/ast"
	"go/token"
	"strconv"
	"strings"
)

// ExprToTypeName converts an ast.Expr (representing a type) to its string representation.
func ExprToTypeName(expr ast.Expr) string {
	if expr == nil {
		return ""
	}
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.SelectorExpr: // For types like `pkg.Type`
		return fmt.Sprintf("%s.%s", ExprToTypeName(t.X), t.Sel.Name)
	case *ast.StarExpr: // For pointer types like `*Type`
		return "*" + ExprToTypeName(t.X)
	case *ast.ArrayType:
		return "[]" + ExprToTypeName(t.Elt)
	case *ast.MapType:
		return fmt.Sprintf("map[%s]%s", ExprToTypeName(t.Key), ExprToTypeName(t.Value))
	case *ast.IndexExpr: // generic receiver, `List[T]`
		return ExprToTypeName(t.X)
	case *ast.IndexListExpr:
		return ExprToTypeName(t.X)
	default:
		return fmt.Sprintf("<unsupported_type_expr: %T>", expr)
	}
}

// GetFullFunctionName extracts package alias and function name from a call expression's Fun field.
// Example: for `pkg.MyFunc()`, returns ("MyFunc", "pkg"). For `MyFunc()`, returns ("MyFunc", "").
func GetFullFunctionName(funExpr ast.Expr) (name string, pkgAlias string) {
	switch f := ast.Unparen(funExpr).(type) {
	case *ast.Ident: // Local function call
		return f.Name, ""
	case *ast.SelectorExpr: // Package function call (e.g. respath.Path)
		if xIdent, ok := f.X.(*ast.Ident); ok {
			return f.Sel.Name, xIdent.Name
		}
	}
	return "", ""
}

// GetImportPath returns the import path for a given alias (import name) in the file.
// Supports blank imports (_), dot imports (.), and normal/aliased imports.
func GetImportPath(file *ast.File, alias string) string {
	for _, imp := range file.Imports {
		path := importPath(imp)
		if imp.Name != nil {
			switch imp.Name.Name {
			case "_", ".":
				if alias == lastPathPart(path) {
					return path
				}
			default:
				// explicit alias
				if alias == imp.Name.Name {
					return path
				}
			}
		} else {
			// normal import: alias is the last part of the import path
			if alias == lastPathPart(path) {
				return path
			}
		}
	}
	return ""
}

// Imports reports whether the file imports path, under any name.
func Imports(file *ast.File, path string) bool {
	for _, imp := range file.Imports {
		if importPath(imp) == path {
			return true
		}
	}
	return false
}

func importPath(imp *ast.ImportSpec) string {
	if p, err := strconv.Unquote(imp.Path.Value); err == nil {
		return p
	}
	return strings.Trim(imp.Path.Value, "`\"")
}

// lastPathPart returns the last element of a slash-separated path.
// A trailing major version element (`/v2`) is skipped.
func lastPathPart(path string) string {
	parts := strings.Split(path, "/")
	last := parts[len(parts)-1]
	if len(parts) > 1 && isMajorVersion(last) {
		return parts[len(parts)-2]
	}
	return last
}

func isMajorVersion(s string) bool {
	if len(s) < 2 || s[0] != 'v' {
		return false
	}
	_, err := strconv.Atoi(s[1:])
	return err == nil
}

// RootIdent returns the variable at the root of a selector, index, slice,
// star or paren chain: `a` for `a.b[i].c`, `*a` and `(a)`. It returns nil
// when the chain does not start with an identifier (e.g. `f().x`).
func RootIdent(expr ast.Expr) *ast.Ident {
	for {
		switch x := expr.(type) {
		case *ast.Ident:
			return x
		case *ast.ParenExpr:
			expr = x.X
		case *ast.SelectorExpr:
			expr = x.X
		case *ast.IndexExpr:
			expr = x.X
		case *ast.SliceExpr:
			expr = x.X
		case *ast.StarExpr:
			expr = x.X
		default:
			return nil
		}
	}
}

// FlattenBinary returns the operands of a left- or right-nested chain of op,
// in source order. `a + (b + c) + d` gives [a b c d] for token.ADD.
func FlattenBinary(expr ast.Expr, op token.Token) []ast.Expr {
	expr = ast.Unparen(expr)
	bin, ok := expr.(*ast.BinaryExpr)
	if !ok || bin.Op != op {
		return []ast.Expr{expr}
	}
	return append(FlattenBinary(bin.X, op), FlattenBinary(bin.Y, op)...)
}

// Directive is a `//prefix:name args...` comment line.
type Directive struct {
	Name string
	Args []string
	Pos  token.Pos // position of the comment

	argOffsets []int
}

// ArgPos returns the position of the i-th argument.
func (d *Directive) ArgPos(i int) token.Pos {
	if i < 0 || i >= len(d.argOffsets) {
		return token.NoPos
	}
	return d.Pos + token.Pos(d.argOffsets[i])
}

// Directives returns the `//prefix:` lines of a comment group. The space
// after "//" is not allowed, as for //go: directives.
func Directives(cg *ast.CommentGroup, prefix string) []*Directive {
	if cg == nil {
		return nil
	}
	head := "//" + prefix + ":"
	var out []*Directive
	for _, c := range cg.List {
		if !strings.HasPrefix(c.Text, head) {
			continue
		}
		fields, offsets := fieldsWithOffsets(c.Text, len(head))
		if len(fields) == 0 {
			continue
		}
		out = append(out, &Directive{
			Name:       fields[0],
			Args:       fields[1:],
			Pos:        c.Slash,
			argOffsets: offsets[1:],
		})
	}
	return out
}

// fieldsWithOffsets splits s[from:] around spaces like strings.Fields and
// returns the byte offset in s of every field.
func fieldsWithOffsets(s string, from int) ([]string, []int) {
	var fields []string
	var offsets []int
	i := from
	for i < len(s) {
		for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
			i++
		}
		j := i
		for j < len(s) && s[j] != ' ' && s[j] != '\t' {
			j++
		}
		if j > i {
			fields = append(fields, s[i:j])
			offsets = append(offsets, i)
		}
		i = j
	}
	return fields, offsets
}
