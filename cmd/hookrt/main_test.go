package main

import (
	"bytes"
	stderrors "errors"
	"strings"
	"testing"

	"github.com/vango-dev/hookrt/internal/config"
	"github.com/vango-dev/hookrt/internal/errors"
)

func TestRunDemo(t *testing.T) {
	var buf bytes.Buffer
	if err := runDemo(&buf, 0); err != nil {
		t.Fatalf("runDemo() error = %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"mount\nApp: app light\n",
		"1. add three todos",
		"  header: [dark] 1 open, peak 3\n",
		"    3: [ ] WRITE THE DOCS",
		"  clock: uptime 1m30s\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out[strings.Index(out, "4. remove"):], "WRITE THE TESTS") {
		t.Error("removed todo still printed")
	}
}

func TestErrorsCommand(t *testing.T) {
	errors.DisableColors()
	defer errors.EnableColors()

	tests := []struct {
		name    string
		args    []string
		want    string
		errCode string
	}{
		{name: "list", args: []string{}, want: "H001  hooks"},
		{name: "explain", args: []string{"h040"}, want: "No provider for required context"},
		{name: "unknown", args: []string{"X999"}, errCode: "C021"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := errorsCmd()
			var buf bytes.Buffer
			cmd.SetOut(&buf)
			cmd.SetArgs(tt.args)

			err := cmd.Execute()
			if tt.errCode != "" {
				var ce *errors.Error
				if !stderrors.As(err, &ce) || ce.Code != tt.errCode {
					t.Fatalf("Execute() error = %v, want code %s", err, tt.errCode)
				}
				return
			}
			if err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("output = %q, want it to contain %q", buf.String(), tt.want)
			}
		})
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	dir := t.TempDir()

	validate := configValidateCmd(&dir)
	validate.SetArgs([]string{})
	var ce *errors.Error
	if err := validate.Execute(); !stderrors.As(err, &ce) || ce.Code != "C003" {
		t.Fatalf("validate before init: error = %v, want C003", err)
	}

	initCmd := configInitCmd(&dir)
	initCmd.SetArgs([]string{})
	if err := initCmd.Execute(); err != nil {
		t.Fatalf("init error = %v", err)
	}
	cfg, err := config.Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Devtools.Addr != config.DefaultDevtoolsAddr {
		t.Errorf("Devtools.Addr = %q", cfg.Devtools.Addr)
	}

	again := configInitCmd(&dir)
	again.SetArgs([]string{})
	if err := again.Execute(); err == nil {
		t.Error("second init without --force succeeded")
	}

	force := configInitCmd(&dir)
	force.SetArgs([]string{"--force"})
	if err := force.Execute(); err != nil {
		t.Errorf("init --force error = %v", err)
	}

	validate = configValidateCmd(&dir)
	validate.SetArgs([]string{})
	if err := validate.Execute(); err != nil {
		t.Errorf("validate error = %v", err)
	}

	var buf bytes.Buffer
	show := configShowCmd(&dir)
	show.SetOut(&buf)
	show.SetArgs([]string{})
	if err := show.Execute(); err != nil {
		t.Fatalf("show error = %v", err)
	}
	if !strings.Contains(buf.String(), "maxRenders: 1000") {
		t.Errorf("show output = %q", buf.String())
	}
}

func TestVersionCommand(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "default", args: []string{}, want: "hook runtime dev (none, built unknown)"},
		{name: "short", args: []string{"--short"}, want: "dev\n"},
		{name: "json", args: []string{"--json"}, want: `"config": "hookrt.yaml"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := versionCmd()
			var buf bytes.Buffer
			cmd.SetOut(&buf)
			cmd.SetArgs(tt.args)
			if err := cmd.Execute(); err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("output = %q, want it to contain %q", buf.String(), tt.want)
			}
		})
	}
}
