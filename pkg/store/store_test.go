package store

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/vango-dev/hookrt/pkg/driver"
	"github.com/vango-dev/hookrt/pkg/hooks"
)

func TestStoreGetSet(t *testing.T) {
	s := New(1)
	if s.Get() != 1 {
		t.Errorf("Expected 1, got %d", s.Get())
	}

	var seen []int
	unsubscribe := s.Subscribe(func(v int) { seen = append(seen, v) })

	s.Set(2)
	s.Set(2)
	s.Update(func(n int) int { return n * 5 })
	s.Update(func(n int) int { return n })

	if len(seen) != 2 || seen[0] != 2 || seen[1] != 10 {
		t.Errorf("seen = %v, want [2 10]", seen)
	}
	if s.Version() != 2 {
		t.Errorf("Version() = %d, want 2", s.Version())
	}

	unsubscribe()
	unsubscribe()
	s.Set(3)
	if len(seen) != 2 {
		t.Errorf("notified after unsubscribe: %v", seen)
	}
	if s.Subscribers() != 0 {
		t.Errorf("Subscribers() = %d", s.Subscribers())
	}
}

func TestStoreNotifiesInSubscriptionOrder(t *testing.T) {
	s := New("")
	var order []int
	for i := 0; i < 5; i++ {
		i := i
		s.Subscribe(func(string) { order = append(order, i) })
	}
	s.Set("x")
	for i, v := range order {
		if v != i {
			t.Fatalf("order = %v", order)
		}
	}
}

func TestStoreConcurrentUpdates(t *testing.T) {
	s := New(0)
	var mu sync.Mutex
	notified := 0
	s.Subscribe(func(int) {
		mu.Lock()
		notified++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Update(func(n int) int { return n + 1 })
		}()
	}
	wg.Wait()

	if s.Get() != 100 {
		t.Errorf("Get() = %d, want 100", s.Get())
	}
	if notified != 100 {
		t.Errorf("notified = %d, want 100", notified)
	}
}

func newDriver() *driver.Driver {
	return driver.New(driver.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func TestUseStore(t *testing.T) {
	s := New(1)
	view := func(r *hooks.Render, _ any) driver.View {
		return driver.View{Value: UseStore(r, s)}
	}

	d := newDriver()
	id, err := d.Mount("View", view, nil)
	if err != nil {
		t.Fatal(err)
	}
	if s.Subscribers() != 1 {
		t.Fatalf("Subscribers() = %d, want 1", s.Subscribers())
	}

	s.Set(7)
	if _, err := d.Update(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := d.Output(id); got != 7 {
		t.Errorf("output = %v, want 7", got)
	}

	if err := d.Unmount(); err != nil {
		t.Fatal(err)
	}
	if s.Subscribers() != 0 {
		t.Errorf("Subscribers() after unmount = %d", s.Subscribers())
	}
}

func TestUseStoreSeesChangeBeforeSubscription(t *testing.T) {
	s := New("a")
	view := func(r *hooks.Render, _ any) driver.View {
		v := UseStore(r, s)
		if v == "a" {
			// Changed after this render read the store, before the effect
			// subscribed.
			s.Set("b")
		}
		return driver.View{Value: v}
	}

	d := newDriver()
	id, err := d.Mount("View", view, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := d.Output(id); got != "b" {
		t.Errorf("output = %v, want b", got)
	}
}

type profile struct {
	Name   string
	Visits int
}

func TestUseSelectorSkipsUnrelatedChanges(t *testing.T) {
	s := New(profile{Name: "ada"})
	renders := 0
	view := func(r *hooks.Render, _ any) driver.View {
		renders++
		name := UseSelector(r, s, func(p profile) string { return p.Name })
		return driver.View{Value: name}
	}

	d := newDriver()
	id, err := d.Mount("Name", view, nil)
	if err != nil {
		t.Fatal(err)
	}

	s.Update(func(p profile) profile { p.Visits++; return p })
	if _, err := d.Update(context.Background()); err != nil {
		t.Fatal(err)
	}
	if renders != 1 {
		t.Errorf("renders = %d, want 1", renders)
	}

	s.Update(func(p profile) profile { p.Name = "grace"; return p })
	if _, err := d.Update(context.Background()); err != nil {
		t.Fatal(err)
	}
	if renders != 2 || d.Output(id) != "grace" {
		t.Errorf("renders = %d, output = %v", renders, d.Output(id))
	}
}

func TestBind(t *testing.T) {
	s := New("light")
	theme := hooks.CreateContext("")

	button := func(r *hooks.Render, _ any) driver.View {
		return driver.View{Value: "btn-" + theme.Use(r)}
	}
	app := func(r *hooks.Render, _ any) driver.View {
		Bind(r, s, theme)
		return driver.View{Children: []driver.Element{driver.El("button", button, nil)}}
	}

	d := newDriver()
	root, err := d.Mount("App", app, nil)
	if err != nil {
		t.Fatal(err)
	}
	id, ok := d.Find(root, "button")
	if !ok {
		t.Fatal("button not mounted")
	}
	if got := d.Output(id); got != "btn-light" {
		t.Errorf("output = %v", got)
	}

	s.Set("dark")
	if _, err := d.Update(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := d.Output(id); got != "btn-dark" {
		t.Errorf("output = %v, want btn-dark", got)
	}
}
