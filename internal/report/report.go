// Package report renders diagnostics as colored text or JSON.
package report

import (
	"fmt"
	"go/token"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/podhmo/respath/internal/metadata"
)

// Options controls rendering.
type Options struct {
	Color bool   // ANSI colors in text output
	Dir   string // filenames are shown relative to Dir when set
}

// ColorEnabled reports whether f is a terminal and NO_COLOR is unset.
func ColorEnabled(f *os.File) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// Write renders diags in format ("text" or "json").
func Write(w io.Writer, format string, diags []*metadata.Diagnostic, opts Options) error {
	switch format {
	case "json":
		return JSON(w, diags, opts)
	case "text", "":
		return Text(w, diags, opts)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

// Text writes one line per diagnostic followed by a summary:
//
//	app/config.go:12:8: error: missing resource file "assets/x.png" (field Config.Icon)
//	1 problem (1 error)
func Text(w io.Writer, diags []*metadata.Diagnostic, opts Options) error {
	p := newPainter(w, opts.Color)
	counts := map[metadata.Severity]int{}
	for _, d := range diags {
		counts[d.Severity]++
		fmt.Fprintf(w, "%s: %s: %s", p.bold(position(d.Pos, opts.Dir)), p.severity(d.Severity), d.Message)
		if d.Origin != "" {
			fmt.Fprint(w, p.faint(" ("+d.Origin+")"))
		}
		fmt.Fprintln(w)
	}
	if len(diags) == 0 {
		_, err := fmt.Fprintln(w, "no problems")
		return err
	}

	var parts []string
	for _, s := range metadata.Severities {
		if n := counts[s]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, s))
		}
	}
	_, err := fmt.Fprintf(w, "%d %s (%s)\n", len(diags), plural(len(diags), "problem"), strings.Join(parts, ", "))
	return err
}

type jsonPosition struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
}

type jsonDiagnostic struct {
	Kind     metadata.DiagnosticKind `json:"kind"`
	Severity metadata.Severity       `json:"severity"`
	Start    jsonPosition            `json:"start"`
	End      jsonPosition            `json:"end"`
	Message  string                  `json:"message"`
	Path     string                  `json:"path"`
	Origin   string                  `json:"origin,omitempty"`
}

// JSON writes the diagnostics as an indented JSON array.
func JSON(w io.Writer, diags []*metadata.Diagnostic, opts Options) error {
	out := make([]jsonDiagnostic, 0, len(diags))
	for _, d := range diags {
		out = append(out, jsonDiagnostic{
			Kind:     d.Kind,
			Severity: d.Severity,
			Start:    jsonPosition{File: relative(d.Pos.Filename, opts.Dir), Line: d.Pos.Line, Column: d.Pos.Column},
			End:      jsonPosition{File: relative(d.End.Filename, opts.Dir), Line: d.End.Line, Column: d.End.Column},
			Message:  d.Message,
			Path:     d.Path,
			Origin:   d.Origin,
		})
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("encode diagnostics: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}

func position(pos token.Position, dir string) string {
	pos.Filename = relative(pos.Filename, dir)
	return pos.String()
}

func relative(filename, dir string) string {
	if dir == "" || filename == "" {
		return filename
	}
	rel, err := filepath.Rel(dir, filename)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filename
	}
	return filepath.ToSlash(rel)
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

type painter struct {
	out   *termenv.Output
	color bool
}

func newPainter(w io.Writer, color bool) *painter {
	return &painter{out: termenv.NewOutput(w, termenv.WithProfile(termenv.ANSI)), color: color}
}

func (p *painter) style(s string, f func(termenv.Style) termenv.Style) string {
	if !p.color {
		return s
	}
	return f(p.out.String(s)).String()
}

func (p *painter) bold(s string) string {
	return p.style(s, termenv.Style.Bold)
}

func (p *painter) faint(s string) string {
	return p.style(s, termenv.Style.Faint)
}

func (p *painter) severity(s metadata.Severity) string {
	var color string
	switch s {
	case metadata.SeverityError:
		color = "1" // red
	case metadata.SeverityWarning, metadata.SeverityGenericWarning:
		color = "3" // yellow
	case metadata.SeverityWeakWarning:
		color = "6" // cyan
	default:
		color = "4" // blue
	}
	return p.style(s.String(), func(st termenv.Style) termenv.Style {
		return st.Foreground(p.out.Color(color))
	})
}
