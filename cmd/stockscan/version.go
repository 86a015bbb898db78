package main

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Set with -ldflags "-X main.Version=... -X main.GitCommit=...".
var (
	Version   = "dev"
	GitCommit = ""
	BuildTime = ""
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		commit, built := buildStamp()
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "stockscan %s (%s)\n", Version, runtime.Version())
		fmt.Fprintf(out, "  commit: %s\n", commit)
		fmt.Fprintf(out, "  built:  %s\n", built)
	},
}

// buildStamp falls back to the VCS stamp the go tool embeds.
func buildStamp() (commit, built string) {
	commit, built = GitCommit, BuildTime
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			switch {
			case s.Key == "vcs.revision" && commit == "":
				commit = s.Value
			case s.Key == "vcs.time" && built == "":
				built = s.Value
			}
		}
	}
	if commit == "" {
		commit = "unknown"
	}
	if built == "" {
		built = "unknown"
	}
	return commit, built
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
