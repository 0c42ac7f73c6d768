package demo

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/vango-dev/hookrt/pkg/driver"
)

func newDriver() *driver.Driver {
	return driver.New(driver.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func TestDemoScript(t *testing.T) {
	app := New(0)
	d := newDriver()
	root, err := d.Mount("App", app.Root, nil)
	if err != nil {
		t.Fatal(err)
	}
	get := func(path ...string) any {
		t.Helper()
		id, ok := d.Find(root, path...)
		if !ok {
			t.Fatalf("no instance at %v", path)
		}
		return d.Output(id)
	}
	update := func() {
		t.Helper()
		if _, err := d.Update(context.Background()); err != nil {
			t.Fatal(err)
		}
	}

	if got := get("header"); got != "[light] 0 open, peak 0" {
		t.Errorf("header = %v", got)
	}

	first := app.Add("write tests")
	app.Add("ship it")
	app.Add("relax")
	update()

	if got := get("todos"); got != "3 items" {
		t.Errorf("todos = %v", got)
	}
	if got := get("header"); got != "[light] 3 open, peak 3" {
		t.Errorf("header = %v", got)
	}

	app.Toggle(first)
	update()
	if got := get("header"); got != "[light] 2 open, peak 3" {
		t.Errorf("header after toggle = %v", got)
	}
	if got := get("todos", "1"); !strings.HasPrefix(got.(string), "[x] write tests") {
		t.Errorf("item = %v", got)
	}

	app.ToggleTheme()
	update()
	if got := get(); got != "app dark" {
		t.Errorf("root = %v", got)
	}
	if got := get("todos", "2"); !strings.HasPrefix(got.(string), "[ ] SHIP IT") {
		t.Errorf("item = %v", got)
	}

	app.Remove(first)
	update()
	if _, ok := d.Find(root, "todos", "1"); ok {
		t.Error("removed todo still mounted")
	}
	if got := get("todos"); got != "2 items" {
		t.Errorf("todos = %v", got)
	}

	var buf bytes.Buffer
	Print(&buf, d, root)
	for _, want := range []string{"App: app dark\n", "  header: [dark] 2 open, peak 3\n", "    3: [ ] RELAX"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("Print output missing %q:\n%s", want, buf.String())
		}
	}

	if err := d.Unmount(); err != nil {
		t.Fatal(err)
	}
	for name, n := range map[string]int{
		"todos": app.Todos.Subscribers(),
		"theme": app.Theme.Subscribers(),
		"clock": app.Clock.Subscribers(),
	} {
		if n != 0 {
			t.Errorf("%s store has %d subscribers after unmount", name, n)
		}
	}
	if errs := d.Errors(); len(errs) != 0 {
		t.Errorf("effect errors: %v", errs)
	}
}

func TestClockTicksUntilUnmount(t *testing.T) {
	app := New(2 * time.Millisecond)
	d := newDriver()
	root, err := d.Mount("App", app.Root, nil)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for app.Clock.Get() < 3 {
		if time.Now().After(deadline) {
			t.Fatal("clock did not tick")
		}
		time.Sleep(time.Millisecond)
	}
	cancel()
	<-done

	if _, ok := d.Find(root, "clock"); !ok {
		t.Fatal("clock not mounted")
	}
	if err := d.Unmount(); err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond)
	stopped := app.Clock.Get()
	time.Sleep(20 * time.Millisecond)
	if app.Clock.Get() != stopped {
		t.Error("ticker kept running after unmount")
	}
}
