package main

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version of respath",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			w := cmd.OutOrStdout()
			fmt.Fprint(w, "respath ")
			if version != "" {
				// release build
				fmt.Fprint(w, version)
			} else if info, ok := debug.ReadBuildInfo(); ok {
				// go install
				fmt.Fprint(w, info.Main.Version)
			} else {
				fmt.Fprint(w, "(unknown version)")
			}
			fmt.Fprintln(w)
		},
	}
}
