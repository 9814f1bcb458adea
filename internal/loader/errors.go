package loader

import (
	"errors"
	"fmt"
)

// ErrModuleNotFound is returned when no go.mod exists in or above a directory.
var ErrModuleNotFound = errors.New("go.mod not found")

// PackageNotFoundError is returned when a pattern matches no loadable package.
type PackageNotFoundError struct {
	Pattern string
}

func (e *PackageNotFoundError) Error() string {
	return fmt.Sprintf("no package matches %q", e.Pattern)
}

// ParseError wraps a syntax error in a Go file or a go.mod file.
type ParseError struct {
	Path string // file that failed to parse
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
