package main

import (
	"encoding/json"
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/vango-dev/hookrt/internal/config"
)

// buildInfo describes this hookrt binary.
type buildInfo struct {
	Version  string `json:"version"`
	Commit   string `json:"commit"`
	Built    string `json:"built"`
	Go       string `json:"go"`
	Platform string `json:"platform"`
	Config   string `json:"config"`
}

func currentBuild() buildInfo {
	return buildInfo{
		Version:  version,
		Commit:   commit,
		Built:    date,
		Go:       runtime.Version(),
		Platform: runtime.GOOS + "/" + runtime.GOARCH,
		Config:   config.ConfigFileName,
	}
}

func versionCmd() *cobra.Command {
	var (
		short  bool
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the hookrt build",
		Long: `Print which hookrt runtime build this is: release, source commit,
toolchain and platform, plus the config file name it looks for.

Examples:
  hookrt version
  hookrt version --short
  hookrt version --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch {
			case short:
				fmt.Fprintln(out, version)
				return nil
			case asJSON:
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(currentBuild())
			}
			printBuild(out, currentBuild())
			return nil
		},
	}

	cmd.Flags().BoolVarP(&short, "short", "s", false, "Print only the release")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the build as JSON")

	return cmd
}

func printBuild(w io.Writer, b buildInfo) {
	fmt.Fprint(w, banner)
	fmt.Fprintf(w, "\n  hook runtime %s (%s, built %s)\n", b.Version, b.Commit, b.Built)
	fmt.Fprintf(w, "  %s on %s\n", b.Go, b.Platform)
	fmt.Fprintf(w, "  reads %s from --config\n\n", b.Config)
}
