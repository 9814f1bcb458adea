package metadata

import (
	"errors"
	"fmt"
	"go/ast"
	"go/token"

	"github.com/podhmo/respath/internal/model"
	"github.com/podhmo/respath/internal/utils/stringutils"
)

// Marker describes one resource-path marker found in source code:
// a struct tag, a //respath: directive, or a respath.Path call.
type Marker struct {
	Base    string    // Folder the value is resolved under ("" for the root)
	Dir     bool      // True if the value must name a directory
	Pos     token.Pos // Position of the marker itself
	BasePos token.Pos // Position of the base value, NoPos if the marker has none
	Origin  string    // What the marker is attached to (e.g. "field Config.Icon")
}

// FullPath joins the marker's base folder and a resolved value.
func (m *Marker) FullPath(value string) string {
	if m.Base == "" {
		return value
	}
	return m.Base + "/" + value
}

// Target is one expression whose values must name existing resources.
type Target struct {
	Marker *Marker
	Node   ast.Expr   // Source expression, diagnostics are reported here
	Expr   model.Expr // Lowered expression, nil if it could not be represented
}

// DiagnosticKind classifies a diagnostic.
type DiagnosticKind string

const (
	MissingResource DiagnosticKind = "missing-resource"
	InvalidBase     DiagnosticKind = "invalid-base"
)

// Diagnostic is one reported problem.
type Diagnostic struct {
	Kind     DiagnosticKind `json:"kind"`
	Severity Severity       `json:"severity"`
	Pos      token.Position `json:"pos"`
	End      token.Position `json:"end"`
	Message  string         `json:"message"`
	Path     string         `json:"path"`             // Resource path that was checked
	Origin   string         `json:"origin,omitempty"` // Marker the value flowed into
}

func (d *Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s", d.Pos, d.Severity, d.Message)
}

// Severity is the highlight level of a diagnostic.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityWeakWarning
	SeverityGenericWarning
	SeverityInformation
)

// ErrUnknownSeverity is returned by ParseSeverity for names it does not know.
var ErrUnknownSeverity = errors.New("unknown severity")

var severityNames = map[Severity]string{
	SeverityError:          "error",
	SeverityWarning:        "warning",
	SeverityWeakWarning:    "weak-warning",
	SeverityGenericWarning: "generic-warning",
	SeverityInformation:    "information",
}

// Severities lists every severity, most severe first.
var Severities = []Severity{SeverityError, SeverityWarning, SeverityGenericWarning, SeverityWeakWarning, SeverityInformation}

func (s Severity) String() string {
	if name, ok := severityNames[s]; ok {
		return name
	}
	return fmt.Sprintf("severity(%d)", int(s))
}

// rank orders severities, higher is more severe.
func (s Severity) rank() int {
	switch s {
	case SeverityError:
		return 4
	case SeverityWarning:
		return 3
	case SeverityGenericWarning:
		return 2
	case SeverityWeakWarning:
		return 1
	default:
		return 0
	}
}

// AtLeast reports whether s is as severe as other or more.
func (s Severity) AtLeast(other Severity) bool {
	return s.rank() >= other.rank()
}

// ParseSeverity parses a severity name. Names are matched case-insensitively and
// accept kebab, snake and camel case ("weak-warning", "WEAK_WARNING", "WeakWarning").
// Unknown names yield SeverityWeakWarning together with ErrUnknownSeverity.
func ParseSeverity(name string) (Severity, error) {
	switch stringutils.NormalizeName(name) {
	case "error":
		return SeverityError, nil
	case "warning":
		return SeverityWarning, nil
	case "weak-warning":
		return SeverityWeakWarning, nil
	case "generic-warning", "generic-error-or-warning", "generic-server-error-or-warning":
		return SeverityGenericWarning, nil
	case "information", "info":
		return SeverityInformation, nil
	default:
		return SeverityWeakWarning, fmt.Errorf("%w: %q", ErrUnknownSeverity, name)
	}
}

func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Severity) UnmarshalText(text []byte) error {
	v, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
