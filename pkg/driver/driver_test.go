package driver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/vango-dev/hookrt/pkg/hooks"
)

func newTestDriver(opts ...Option) *Driver {
	base := []Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}
	return New(append(base, opts...)...)
}

// emitter is a minimal external event source.
type emitter struct {
	mu     sync.Mutex
	subs   map[int]func()
	next   int
	unsubs int
}

func (e *emitter) subscribe(fn func()) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.subs == nil {
		e.subs = make(map[int]func())
	}
	id := e.next
	e.next++
	e.subs[id] = fn
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.subs, id)
		e.unsubs++
	}
}

func (e *emitter) emit() {
	e.mu.Lock()
	fns := make([]func(), 0, len(e.subs))
	for _, fn := range e.subs {
		fns = append(fns, fn)
	}
	e.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func TestSubscriptionScenario(t *testing.T) {
	src := &emitter{}
	setups := 0

	counter := func(r *hooks.Render, _ any) View {
		count, set := hooks.UseState(r, 0)
		hooks.UseEffect(r, func() hooks.Cleanup {
			setups++
			return src.subscribe(func() {
				set.Update(func(n int) int { return n + 1 })
			})
		}, hooks.Once())
		return View{Value: count}
	}

	d := newTestDriver()
	id, err := d.Mount("Counter", counter, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := d.Output(id); got != 0 {
		t.Fatalf("initial output = %v", got)
	}

	src.emit()
	src.emit()
	if _, err := d.Update(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := d.Output(id); got != 2 {
		t.Errorf("output = %v, want 2", got)
	}
	if setups != 1 {
		t.Errorf("effect setups = %d, want 1", setups)
	}

	if err := d.Unmount(); err != nil {
		t.Fatal(err)
	}
	if src.unsubs != 1 {
		t.Errorf("unsubscribes = %d, want 1", src.unsubs)
	}
}

func TestActBatchesUpdates(t *testing.T) {
	var set *hooks.Setter[int]
	renders := 0
	counter := func(r *hooks.Render, _ any) View {
		renders++
		var n int
		n, set = hooks.UseState(r, 0)
		return View{Value: n}
	}

	d := newTestDriver()
	id, err := d.Mount("Counter", counter, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Act(func() {
		set.Set(1)
		set.Update(func(n int) int { return n * 10 })
	}); err != nil {
		t.Fatal(err)
	}
	if got := d.Output(id); got != 10 {
		t.Errorf("output = %v, want 10", got)
	}
	if renders != 2 {
		t.Errorf("renders = %d, want 2", renders)
	}
}

func TestActSkipsRenderWhenStateUnchanged(t *testing.T) {
	var set *hooks.Setter[int]
	renders := 0
	counter := func(r *hooks.Render, _ any) View {
		renders++
		var n int
		n, set = hooks.UseState(r, 5)
		return View{Value: n}
	}

	d := newTestDriver()
	if _, err := d.Mount("Counter", counter, nil); err != nil {
		t.Fatal(err)
	}
	if err := d.Act(func() {
		set.Set(6)
		set.Set(5)
	}); err != nil {
		t.Fatal(err)
	}
	if renders != 1 {
		t.Errorf("renders = %d, want 1", renders)
	}
}

func TestChildrenReconcileByKey(t *testing.T) {
	var cleanups []string
	item := func(r *hooks.Render, props any) View {
		label := props.(string)
		hooks.UseEffect(r, func() hooks.Cleanup {
			return func() { cleanups = append(cleanups, label) }
		}, hooks.Once())
		return View{Value: label}
	}

	var setItems *hooks.Setter[[]string]
	list := func(r *hooks.Render, _ any) View {
		items, set := hooks.UseState(r, []string{"a", "b", "c"})
		setItems = set
		view := View{Value: len(items)}
		for _, it := range items {
			view.Children = append(view.Children, El(it, item, strings.ToUpper(it)))
		}
		return view
	}

	d := newTestDriver()
	root, err := d.Mount("List", list, nil)
	if err != nil {
		t.Fatal(err)
	}
	b, ok := d.Find(root, "b")
	if !ok || d.Output(b) != "B" {
		t.Fatalf("child b missing: %v %v", ok, d.Output(b))
	}

	if err := d.Act(func() { setItems.Set([]string{"c", "a"}) }); err != nil {
		t.Fatal(err)
	}
	if len(cleanups) != 1 || cleanups[0] != "B" {
		t.Errorf("cleanups = %v, want [B]", cleanups)
	}
	if _, ok := d.Find(root, "b"); ok {
		t.Error("b still mounted")
	}
	if a, ok := d.Find(root, "a"); !ok || d.Output(a) != "A" {
		t.Error("a lost its instance")
	}
	if got := d.Output(root); got != 2 {
		t.Errorf("root output = %v", got)
	}

	// Teardown follows the current key order [c a], last first.
	if err := d.Unmount(); err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(cleanups, ","); got != "B,A,C" {
		t.Errorf("cleanups = %s, want B,A,C", got)
	}
}

func TestChildEffectsRunBeforeParent(t *testing.T) {
	var order []string
	effect := func(name string) Component {
		return func(r *hooks.Render, _ any) View {
			hooks.UseEffect(r, func() hooks.Cleanup {
				order = append(order, name)
				return nil
			}, hooks.Once())
			return View{}
		}
	}
	parent := func(r *hooks.Render, _ any) View {
		hooks.UseEffect(r, func() hooks.Cleanup {
			order = append(order, "parent")
			return nil
		}, hooks.Once())
		return View{Children: []Element{El("x", effect("x"), nil), El("y", effect("y"), nil)}}
	}

	d := newTestDriver()
	if _, err := d.Mount("Parent", parent, nil); err != nil {
		t.Fatal(err)
	}
	want := "x,y,parent"
	if got := strings.Join(order, ","); got != want {
		t.Errorf("order = %s, want %s", got, want)
	}
}

func TestContextFlowsThroughTree(t *testing.T) {
	theme := hooks.CreateContext("light")
	var setTheme *hooks.Setter[string]
	consumerRenders := 0

	consumer := func(r *hooks.Render, _ any) View {
		consumerRenders++
		return View{Value: "btn-" + theme.Use(r)}
	}
	middle := func(r *hooks.Render, _ any) View {
		hooks.UseMemo(r, func() int { return 0 }, hooks.Once())
		return View{Children: []Element{El("button", consumer, nil)}}
	}
	app := func(r *hooks.Render, _ any) View {
		v, set := hooks.UseState(r, "dark")
		setTheme = set
		theme.Provide(r, v)
		return View{Children: []Element{El("middle", middle, nil)}}
	}

	d := newTestDriver()
	root, err := d.Mount("App", app, nil)
	if err != nil {
		t.Fatal(err)
	}
	button, _ := d.Find(root, "middle", "button")
	if got := d.Output(button); got != "btn-dark" {
		t.Fatalf("output = %v", got)
	}

	if err := d.Act(func() { setTheme.Set("blue") }); err != nil {
		t.Fatal(err)
	}
	if got := d.Output(button); got != "btn-blue" {
		t.Errorf("output = %v, want btn-blue", got)
	}
	if consumerRenders != 2 {
		t.Errorf("consumer renders = %d, want 2", consumerRenders)
	}
}

func TestHookErrorIsolatedToInstance(t *testing.T) {
	broken := false
	flaky := func(r *hooks.Render, _ any) View {
		if broken {
			hooks.UseRef(r, 0)
		} else {
			hooks.UseState(r, 0)
		}
		return View{Value: "flaky"}
	}
	stable := func(r *hooks.Render, _ any) View {
		n, _ := hooks.UseState(r, 1)
		return View{Value: n}
	}
	var rerender *hooks.Setter[int]
	app := func(r *hooks.Render, _ any) View {
		n, set := hooks.UseState(r, 0)
		rerender = set
		return View{Value: n, Children: []Element{El("flaky", flaky, nil), El("stable", stable, nil)}}
	}

	d := newTestDriver()
	root, err := d.Mount("App", app, nil)
	if err != nil {
		t.Fatal(err)
	}

	broken = true
	err = d.Act(func() { rerender.Set(1) })
	if !errors.Is(err, hooks.ErrSlotOrderMismatch) {
		t.Fatalf("Act error = %v, want ErrSlotOrderMismatch", err)
	}
	flakyID, _ := d.Find(root, "flaky")
	stableID, _ := d.Find(root, "stable")
	if d.Output(flakyID) != "flaky" {
		t.Error("failed render replaced the committed output")
	}
	if d.Output(stableID) != 1 {
		t.Error("sibling output lost")
	}
	if d.Output(root) != 1 {
		t.Errorf("root output = %v", d.Output(root))
	}
}

func TestEffectErrorsCollected(t *testing.T) {
	c := func(r *hooks.Render, _ any) View {
		hooks.UseEffect(r, func() hooks.Cleanup { panic("boom") }, hooks.Once())
		return View{}
	}
	d := newTestDriver()
	if _, err := d.Mount("Boom", c, nil); err != nil {
		t.Fatal(err)
	}
	errs := d.Errors()
	if len(errs) != 1 || !errors.Is(errs[0], hooks.ErrEffectExecution) {
		t.Errorf("errors = %v", errs)
	}
}

func TestRenderLimit(t *testing.T) {
	loop := func(r *hooks.Render, _ any) View {
		n, set := hooks.UseState(r, 0)
		hooks.UseEffect(r, func() hooks.Cleanup {
			set.Set(n + 1)
			return nil
		}, hooks.Always())
		return View{Value: n}
	}

	d := newTestDriver(WithMaxRenders(5))
	_, err := d.Mount("Loop", loop, nil)
	if !errors.Is(err, ErrRenderLimit) {
		t.Errorf("Mount error = %v, want ErrRenderLimit", err)
	}
}

func TestDuplicateKeys(t *testing.T) {
	leaf := func(r *hooks.Render, _ any) View { return View{} }
	app := func(r *hooks.Render, _ any) View {
		return View{Children: []Element{El("a", leaf, nil), El("a", leaf, nil)}}
	}
	d := newTestDriver()
	root, err := d.Mount("App", app, nil)
	if err == nil || !strings.Contains(err.Error(), "duplicate key") {
		t.Errorf("err = %v", err)
	}
	if _, ok := d.Find(root, "a"); !ok {
		t.Error("first keyed child not mounted")
	}
}

func TestRunProcessesDispatchedWork(t *testing.T) {
	var set *hooks.Setter[int]
	counter := func(r *hooks.Render, _ any) View {
		var n int
		n, set = hooks.UseState(r, 0)
		return View{Value: n}
	}

	d := newTestDriver()
	id, err := d.Mount("Counter", counter, nil)
	if err != nil {
		t.Fatal(err)
	}

	rendered := make(chan any, 16)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	for i := 1; i <= 3; i++ {
		i := i
		d.Runtime().Dispatch(func() {
			set.Set(i)
			d.Runtime().Dispatch(func() { rendered <- i })
		})
	}

	deadline := time.After(2 * time.Second)
	for got := 0; got < 3; {
		select {
		case <-rendered:
			got++
		case <-deadline:
			t.Fatal("dispatched work not processed")
		}
	}
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Run = %v", err)
	}
	if got := fmt.Sprint(d.Output(id)); got != "3" {
		t.Errorf("output = %s, want 3", got)
	}
}

func TestWalk(t *testing.T) {
	leaf := func(r *hooks.Render, _ any) View { return View{} }
	mid := func(r *hooks.Render, _ any) View {
		return View{Children: []Element{El("c", leaf, nil)}}
	}
	app := func(r *hooks.Render, _ any) View {
		return View{Children: []Element{El("a", mid, nil), El("b", leaf, nil)}}
	}

	d := newTestDriver()
	root, err := d.Mount("App", app, nil)
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	d.Walk(root, func(depth int, key string, _ hooks.InstanceID) {
		got = append(got, fmt.Sprintf("%d:%s", depth, key))
	})
	if want := "0:App 1:a 2:c 1:b"; strings.Join(got, " ") != want {
		t.Errorf("walk = %v, want %s", got, want)
	}
}
