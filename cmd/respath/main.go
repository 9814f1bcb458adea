// Command respath reports string values that must name resource files which do not exist.
//
// Usage:
//
//	respath check [flags] [packages]
//	respath watch [flags] [packages]
//	respath resolve [flags] [packages]
//	respath version
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// version is set with -ldflags "-X main.version=..." by release builds.
var version string

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		if !errors.Is(err, ErrDiagnostics) {
			fmt.Fprintf(os.Stderr, "respath: %v\n", err)
		}
		os.Exit(1)
	}
}

type globalOptions struct {
	Dir     string
	Verbose bool
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var g globalOptions
	root := &cobra.Command{
		Use:           "respath",
		Short:         "Check that marked string values name existing resource files.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging(stderr, g.Verbose)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVarP(&g.Dir, "dir", "C", ".", "directory inside the module to analyze")
	root.PersistentFlags().BoolVarP(&g.Verbose, "verbose", "v", false, "increase logging verbosity")

	root.AddCommand(
		newCheckCmd(&g),
		newWatchCmd(&g),
		newResolveCmd(&g),
		newVersionCmd(),
	)
	return root
}

// setupLogging logs at info level, debug with --verbose or when DEBUG is set.
func setupLogging(w io.Writer, verbose bool) {
	log.SetOutput(w)
	log.SetFormatter(&log.TextFormatter{DisableTimestamp: true})
	level := log.InfoLevel
	if _, ok := os.LookupEnv("DEBUG"); ok || verbose {
		level = log.DebugLevel
	}
	log.SetLevel(level)
}
