package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/podhmo/respath/internal/config"
	"github.com/podhmo/respath/internal/watch"
)

func newWatchCmd(g *globalOptions) *cobra.Command {
	var (
		fl     config.Flags
		always bool
		delay  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "watch [packages]",
		Short: "Check again whenever a relevant file changes",
		Long: `Watch runs check, then runs it again after a Go file edit touches a string
literal under a marked declaration, after a Go file is created or removed, and
after any other file in the module changes. Stop it with Ctrl-C.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, mod, err := configure(g, &fl, cmd.Flags())
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			w, err := watch.New(watch.Options{Dir: mod.Dir, Always: always, Delay: delay}, func(ctx context.Context) error {
				diags, err := runCheck(ctx, g, cfg, mod, args, out)
				if err != nil {
					return err
				}
				log.WithField("diagnostics", len(diags)).Debug("respath: watch check done")
				return nil
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "watching %s\n", mod.Dir)
			return w.Run(ctx)
		},
	}
	fl.Register(cmd.Flags())
	cmd.Flags().BoolVar(&always, "always", false, "check after every Go file write, not only relevant edits")
	cmd.Flags().DurationVar(&delay, "delay", watch.DefaultDelay, "quiet period before checking again")
	return cmd
}
