// Package demo is a small component tree used by the hookrt command to
// exercise the runtime: a theme bound from a store into a context, a keyed
// todo list, and a clock driven by an effect-owned ticker.
package demo

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/vango-dev/hookrt/pkg/driver"
	"github.com/vango-dev/hookrt/pkg/hooks"
	"github.com/vango-dev/hookrt/pkg/store"
)

// Theme carries the current theme name to every component.
var Theme = hooks.CreateContext("light")

// Todo is one list entry.
type Todo struct {
	ID    int
	Title string
	Done  bool
}

// App holds the stores the demo components read.
type App struct {
	Todos *store.Store[[]Todo]
	Theme *store.Store[string]
	Clock *store.Store[int]

	// Tick is the clock interval. Zero disables the ticker.
	Tick time.Duration

	nextID int
}

// New creates an App with an empty list.
func New(tick time.Duration) *App {
	return &App{
		Todos: store.New([]Todo(nil)),
		Theme: store.New("light"),
		Clock: store.New(0),
		Tick:  tick,
	}
}

// Add appends a todo.
func (a *App) Add(title string) int {
	a.nextID++
	id := a.nextID
	a.Todos.Update(func(ts []Todo) []Todo {
		next := make([]Todo, len(ts), len(ts)+1)
		copy(next, ts)
		return append(next, Todo{ID: id, Title: title})
	})
	return id
}

// Toggle flips the done flag of a todo.
func (a *App) Toggle(id int) {
	a.Todos.Update(func(ts []Todo) []Todo {
		next := append([]Todo(nil), ts...)
		for i := range next {
			if next[i].ID == id {
				next[i].Done = !next[i].Done
			}
		}
		return next
	})
}

// Remove deletes a todo.
func (a *App) Remove(id int) {
	a.Todos.Update(func(ts []Todo) []Todo {
		next := make([]Todo, 0, len(ts))
		for _, t := range ts {
			if t.ID != id {
				next = append(next, t)
			}
		}
		return next
	})
}

// ToggleTheme switches between light and dark.
func (a *App) ToggleTheme() {
	a.Theme.Update(func(s string) string {
		if s == "light" {
			return "dark"
		}
		return "light"
	})
}

// Root is the top component.
func (a *App) Root(r *hooks.Render, _ any) driver.View {
	theme := store.Bind(r, a.Theme, Theme)
	return driver.View{
		Value: "app " + theme,
		Children: []driver.Element{
			driver.El("header", a.header, nil),
			driver.El("todos", a.list, nil),
			driver.El("clock", a.clock, nil),
		},
	}
}

func (a *App) header(r *hooks.Render, _ any) driver.View {
	theme := Theme.Use(r)
	open := store.UseSelector(r, a.Todos, func(ts []Todo) int {
		n := 0
		for _, t := range ts {
			if !t.Done {
				n++
			}
		}
		return n
	})
	peak, observe := hooks.UseReducer(r, func(peak, n int) int {
		if n > peak {
			return n
		}
		return peak
	}, 0)
	hooks.UseEffect(r, func() hooks.Cleanup {
		observe(open)
		return nil
	}, hooks.On(open))

	return driver.View{Value: fmt.Sprintf("[%s] %d open, peak %d", theme, open, peak)}
}

func (a *App) list(r *hooks.Render, _ any) driver.View {
	todos := store.UseStore(r, a.Todos)
	view := driver.View{Value: fmt.Sprintf("%d items", len(todos))}
	for _, t := range todos {
		view.Children = append(view.Children, driver.El(strconv.Itoa(t.ID), item, t))
	}
	return view
}

func item(r *hooks.Render, props any) driver.View {
	t := props.(Todo)
	theme := Theme.Use(r)
	renders := hooks.UseRef(r, 0)
	renders.Set(renders.Current() + 1)

	box := "[ ]"
	if t.Done {
		box = "[x]"
	}
	label := t.Title
	if theme == "dark" {
		label = strings.ToUpper(label)
	}
	return driver.View{Value: fmt.Sprintf("%s %s (render %d)", box, label, renders.Current())}
}

func (a *App) clock(r *hooks.Render, _ any) driver.View {
	seconds := store.UseStore(r, a.Clock)
	elapsed := hooks.UseMemo(r, func() string {
		return (time.Duration(seconds) * time.Second).String()
	}, hooks.On(seconds))

	hooks.UseEffect(r, func() hooks.Cleanup {
		if a.Tick <= 0 {
			return nil
		}
		ticker := time.NewTicker(a.Tick)
		done := make(chan struct{})
		go func() {
			for {
				select {
				case <-ticker.C:
					a.Clock.Update(func(n int) int { return n + 1 })
				case <-done:
					return
				}
			}
		}()
		return func() {
			ticker.Stop()
			close(done)
		}
	}, hooks.Once())

	return driver.View{Value: "uptime " + elapsed}
}

// Print writes the tree under root with each instance's output.
func Print(w io.Writer, d *driver.Driver, root hooks.InstanceID) {
	d.Walk(root, func(depth int, key string, id hooks.InstanceID) {
		fmt.Fprintf(w, "%s%s: %v\n", strings.Repeat("  ", depth), key, d.Output(id))
	})
}
