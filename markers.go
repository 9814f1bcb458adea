// Package respath provides marker functions used by the `respath` tool
// to find string values that must name an existing resource file.
// These functions are intended to be wrapped around path expressions in user code.
// The `respath` tool parses the AST and identifies calls to these functions,
// resolves every string value the wrapped expression can take, and reports
// values that do not exist under the configured source roots.
// At runtime the functions only return their input.
package respath

// PathOption represents an option for the Path marker.
type PathOption interface {
	isPathOption() // Ensures only defined PathOption types can be used.
}

// -- PathOption implementations --

// BaseOption sets the folder under which the marked path is resolved.
type BaseOption struct {
	Dir string
}

func (BaseOption) isPathOption() {}

// Base returns a PathOption that resolves the marked path under dir.
// dir must be a constant string; it must itself exist as a directory.
func Base(dir string) PathOption {
	return BaseOption{Dir: dir}
}

// DirOption indicates that the marked path must name a directory instead of a file.
type DirOption struct{}

func (DirOption) isPathOption() {}

// Dir returns a PathOption that expects the marked path to be a directory.
func Dir() PathOption {
	return DirOption{}
}

// Path marks a string expression as a resource path.
// It is used for analysis purposes only and returns the passed `path` as is at runtime.
// Type parameter T allows named string types (e.g. `type Icon string`).
func Path[T ~string](path T, options ...PathOption) T {
	// Options are for the static analyzer.
	// At runtime, this function simply returns the path.
	return path
}
