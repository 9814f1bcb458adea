package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/podhmo/respath/internal/config"
	"github.com/podhmo/respath/internal/interpreter"
)

// resolved is one target of the resolve command.
type resolved struct {
	Pos    string   `json:"pos"`
	Origin string   `json:"origin"`
	Base   string   `json:"base,omitempty"`
	Dir    bool     `json:"dir,omitempty"`
	Values []string `json:"values"`
}

func newResolveCmd(g *globalOptions) *cobra.Command {
	var (
		fl config.Flags
		at string
	)
	cmd := &cobra.Command{
		Use:   "resolve [packages]",
		Short: "Print the values every marked expression can take",
		Long: `Resolve prints, for each marked expression, the set of string values it can
take without checking them. --at file:line restricts the output to the marked
expressions on that line.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, mod, err := configure(g, &fl, cmd.Flags())
			if err != nil {
				return err
			}
			s, err := analyze(cmd.Context(), g, cfg, mod, args)
			if err != nil {
				return err
			}
			filter, err := parseAt(at)
			if err != nil {
				return err
			}

			var out []resolved
			for _, t := range s.Analysis.Targets {
				pos := s.Loaded.Fset.Position(t.Node.Pos())
				if !filter(pos.Filename, pos.Line) {
					continue
				}
				pos.Filename = relative(mod.Dir, pos.Filename)
				values := interpreter.Sorted(interpreter.Resolve(t.Expr))
				if values == nil {
					values = []string{}
				}
				out = append(out, resolved{
					Pos:    pos.String(),
					Origin: t.Marker.Origin,
					Base:   t.Marker.Base,
					Dir:    t.Marker.Dir,
					Values: values,
				})
			}
			return writeResolved(cmd.OutOrStdout(), cfg.Format, out)
		},
	}
	fl.Register(cmd.Flags())
	cmd.Flags().StringVar(&at, "at", "", "only expressions at file:line")
	return cmd
}

func writeResolved(w io.Writer, format string, out []resolved) error {
	if format == config.FormatJSON {
		if out == nil {
			out = []resolved{}
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("encode targets: %w", err)
		}
		_, err = fmt.Fprintf(w, "%s\n", data)
		return err
	}
	for _, r := range out {
		quoted := make([]string, len(r.Values))
		for i, v := range r.Values {
			quoted[i] = strconv.Quote(v)
		}
		origin := r.Origin
		if r.Base != "" {
			origin += " base=" + r.Base
		}
		if r.Dir {
			origin += " dir"
		}
		if _, err := fmt.Fprintf(w, "%s: %s: {%s}\n", r.Pos, origin, strings.Join(quoted, ", ")); err != nil {
			return err
		}
	}
	return nil
}

// parseAt turns "file:line" into a position filter, "" matches everything.
func parseAt(at string) (func(filename string, line int) bool, error) {
	if at == "" {
		return func(string, int) bool { return true }, nil
	}
	i := strings.LastIndexByte(at, ':')
	if i <= 0 {
		return nil, fmt.Errorf("--at %q: want file:line", at)
	}
	line, err := strconv.Atoi(at[i+1:])
	if err != nil {
		return nil, fmt.Errorf("--at %q: %w", at, err)
	}
	file := filepath.Clean(at[:i])
	return func(filename string, l int) bool {
		if l != line {
			return false
		}
		return filename == file || strings.HasSuffix(filename, string(filepath.Separator)+file)
	}, nil
}

func relative(dir, filename string) string {
	rel, err := filepath.Rel(dir, filename)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filename
	}
	return filepath.ToSlash(rel)
}
