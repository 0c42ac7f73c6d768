package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/vango-dev/hookrt/internal/config"
	"github.com/vango-dev/hookrt/internal/errors"
	"gopkg.in/yaml.v3"
)

func configCmd(configDir *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage hookrt.yaml",
	}

	cmd.AddCommand(
		configInitCmd(configDir),
		configShowCmd(configDir),
		configValidateCmd(configDir),
	)

	return cmd
}

func configInitCmd(configDir *string) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default hookrt.yaml",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := filepath.Join(*configDir, config.ConfigFileName)
			if _, err := os.Stat(path); err == nil && !force {
				return errors.Newf(errors.CategoryCLI, "%s already exists", path).
					WithSuggestion("Use --force to overwrite it.")
			}
			if err := config.New().SaveTo(path); err != nil {
				return err
			}
			success("Wrote %s", path)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")

	return cmd
}

func configShowCmd(configDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOrDefault(*configDir)
			if err != nil {
				return err
			}
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if cfg.Path() == "" {
				fmt.Fprintln(out, "# defaults")
			} else {
				fmt.Fprintf(out, "# %s\n", cfg.Path())
			}
			_, err = out.Write(data)
			return err
		},
	}
}

func configValidateCmd(configDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check hookrt.yaml for errors",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configDir)
			if err != nil {
				return err
			}
			success("%s is valid", cfg.Path())
			return nil
		},
	}
}
