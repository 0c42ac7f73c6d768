package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/vango-dev/hookrt/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ╦ ╦┌─┐┌─┐┬┌─┬─┐┌┬┐
  ╠═╣│ ││ │├┴┐├┬┘ │
  ╩ ╩└─┘└─┘┴ ┴┴└─ ┴
`

func main() {
	var configDir string

	rootCmd := &cobra.Command{
		Use:   "hookrt",
		Short: "Hook runtime for Go components",
		Long: `hookrt runs function components with hooks: state, reducers,
effects, memos, refs and context.

The command drives a small demo tree, serves runtime devtools
(event stream, instance snapshots, metrics) and manages hookrt.yaml.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configDir, "config", "c", ".", "Directory containing hookrt.yaml")

	rootCmd.AddCommand(
		demoCmd(),
		serveCmd(&configDir),
		configCmd(&configDir),
		errorsCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		errors.Fprint(os.Stderr, err)
		os.Exit(1)
	}
}

// printBanner prints the ASCII art banner.
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

// warn prints a warning message.
func warn(format string, args ...any) {
	fmt.Printf("\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}
