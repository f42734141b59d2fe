package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ┬ ┬┌─┐┌─┐┌┬┐
  │││├┤ ├┤  │
  └┴┘└─┘└   ┴
`

func main() {
	rootCmd := &cobra.Command{
		Use:   "weft",
		Short: "Incremental tree reconciliation for Go",
		Long: `Weft keeps a live tree of UI nodes synchronized with a declarative
description of what that tree should look like.

The engine diffs each render against the committed tree, applies the
difference through a pluggable renderer, and slices the work so large
updates never block the host. The CLI hosts trees over websockets and
benchmarks the engine:

  • weft serve:   run the demo live server
  • weft bench:   run reconciliation benchmarks
  • weft version: print version information`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		serveCmd(),
		benchCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "\033[31mError:\033[0m %s\n", err)
		os.Exit(1)
	}
}

// printBanner prints the weft ASCII art banner.
func printBanner() {
	fmt.Print(banner)
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}
