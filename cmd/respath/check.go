package main

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/podhmo/respath/internal/config"
	"github.com/podhmo/respath/internal/loader"
	"github.com/podhmo/respath/internal/metadata"
	"github.com/podhmo/respath/internal/report"
)

// ErrDiagnostics is returned by check when a diagnostic reaches --fail-on.
var ErrDiagnostics = errors.New("resource problems found")

func newCheckCmd(g *globalOptions) *cobra.Command {
	var fl config.Flags
	cmd := &cobra.Command{
		Use:   "check [packages]",
		Short: "Report marked values naming missing resources",
		Long: `Check loads the packages (./... by default), resolves every value a marked
string expression can take and reports the values that do not exist under the
resource roots. The exit status is 1 when a diagnostic is at least as severe
as --fail-on.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, mod, err := configure(g, &fl, cmd.Flags())
			if err != nil {
				return err
			}
			diags, err := runCheck(cmd.Context(), g, cfg, mod, args, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if failed(diags, cfg.FailOn) {
				return ErrDiagnostics
			}
			return nil
		},
	}
	fl.Register(cmd.Flags())
	return cmd
}

func runCheck(ctx context.Context, g *globalOptions, cfg *config.Config, mod *loader.Module, patterns []string, w io.Writer) ([]*metadata.Diagnostic, error) {
	s, err := analyze(ctx, g, cfg, mod, patterns)
	if err != nil {
		return nil, err
	}
	diags, err := s.check(ctx)
	if err != nil {
		return nil, err
	}
	opts := report.Options{Dir: mod.Dir, Color: cfg.Format == config.FormatText && isColorTerminal(w)}
	if err := report.Write(w, cfg.Format, diags, opts); err != nil {
		return nil, err
	}
	return diags, nil
}

func failed(diags []*metadata.Diagnostic, failOn metadata.Severity) bool {
	for _, d := range diags {
		if d.Severity.AtLeast(failOn) {
			return true
		}
	}
	return false
}

func isColorTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && report.ColorEnabled(f)
}
