package main

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/vango-dev/hookrt/internal/demo"
	"github.com/vango-dev/hookrt/pkg/driver"
)

func demoCmd() *cobra.Command {
	var pause time.Duration

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run a scripted demo and print the tree after each step",
		Long: `Run the demo component tree through a fixed script of store
updates and print every instance's output after each step.

Examples:
  hookrt demo
  hookrt demo --pause=500ms`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(cmd.OutOrStdout(), pause)
		},
	}

	cmd.Flags().DurationVarP(&pause, "pause", "p", 0, "Pause between steps")

	return cmd
}

type demoStep struct {
	name string
	do   func()
}

func runDemo(w io.Writer, pause time.Duration) error {
	app := demo.New(0)
	d := driver.New(driver.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	root, err := d.Mount("App", app.Root, nil)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "mount")
	demo.Print(w, d, root)

	var first, second int
	steps := []demoStep{
		{"add three todos", func() {
			first = app.Add("write the runtime")
			second = app.Add("write the tests")
			app.Add("write the docs")
		}},
		{"complete the first todo", func() { app.Toggle(first) }},
		{"switch to the dark theme", app.ToggleTheme},
		{"remove the second todo", func() { app.Remove(second) }},
		{"advance the clock", func() {
			app.Clock.Update(func(n int) int { return n + 90 })
		}},
	}

	for i, step := range steps {
		if pause > 0 {
			time.Sleep(pause)
		}
		if err := d.Act(step.do); err != nil {
			return err
		}
		fmt.Fprintf(w, "\n%d. %s (%d renders so far)\n", i+1, step.name, d.Renders())
		demo.Print(w, d, root)
	}

	if err := d.Unmount(); err != nil {
		return err
	}
	if errs := d.Errors(); len(errs) > 0 {
		return fmt.Errorf("demo reported %d effect errors: %w", len(errs), errs[0])
	}
	return nil
}
