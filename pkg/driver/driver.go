package driver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/vango-dev/hookrt/pkg/hooks"
)

// ErrRenderLimit is returned when a single Update exceeds the configured
// number of renders, which usually means a component sets state on every
// render.
var ErrRenderLimit = errors.New("driver: render limit exceeded")

// Component renders one instance. It returns the instance's output value and
// the children to mount beneath it.
type Component func(r *hooks.Render, props any) View

// View is what a component returns.
type View struct {
	Value    any
	Children []Element
}

// Element describes a child. Children are matched to the previous render by
// Key; a child whose Key disappears is unmounted.
type Element struct {
	Key       string
	Name      string
	Component Component
	Props     any
}

// El is shorthand for an Element whose name is its key.
func El(key string, c Component, props any) Element {
	return Element{Key: key, Name: key, Component: c, Props: props}
}

// Option configures a Driver.
type Option func(*Driver)

// WithLogger sets the logger for the driver and its runtime.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Driver) {
		d.logger = logger
	}
}

// WithRuntimeOptions passes options through to hooks.New.
func WithRuntimeOptions(opts ...hooks.Option) Option {
	return func(d *Driver) {
		d.rtOpts = append(d.rtOpts, opts...)
	}
}

// WithMaxRenders bounds the renders performed by one Update.
// Default: 1000.
func WithMaxRenders(n int) Option {
	return func(d *Driver) {
		if n > 0 {
			d.maxRenders = n
		}
	}
}

// node is a mounted component.
type node struct {
	id        hooks.InstanceID
	key       string
	name      string
	component Component
	props     any
	parent    *node
	children  []*node
}

// Driver renders a component tree on a hooks.Runtime. Mount, Update, Act,
// Unmount and Run must be called from one goroutine.
type Driver struct {
	rt         *hooks.Runtime
	logger     *slog.Logger
	rtOpts     []hooks.Option
	maxRenders int

	nodes map[hooks.InstanceID]*node
	roots []*node

	mu      sync.Mutex
	errs    []error
	renders int
}

// New creates a Driver and its runtime.
func New(opts ...Option) *Driver {
	d := &Driver{
		maxRenders: 1000,
		nodes:      make(map[hooks.InstanceID]*node),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}

	rtOpts := []hooks.Option{
		hooks.WithLogger(d.logger),
		hooks.WithErrorReporter(hooks.ErrorReporterFunc(d.report)),
	}
	d.rt = hooks.New(append(rtOpts, d.rtOpts...)...)
	return d
}

// Runtime returns the driver's runtime.
func (d *Driver) Runtime() *hooks.Runtime {
	return d.rt
}

// Mount mounts c as a new root, renders the tree below it and flushes
// effects. A render error is returned but the root stays mounted.
func (d *Driver) Mount(name string, c Component, props any) (hooks.InstanceID, error) {
	n, err := d.mount(nil, Element{Key: name, Name: name, Component: c, Props: props})
	if err != nil {
		return 0, err
	}
	d.roots = append(d.roots, n)

	renderErr := d.render(n)
	d.rt.FlushEffects(context.Background())
	if _, err := d.Update(context.Background()); err != nil {
		renderErr = errors.Join(renderErr, err)
	}
	return n.id, renderErr
}

// Update drains dispatched work, then re-renders dirty instances parents
// first and flushes effects until no instance is dirty. It returns the
// number of renders performed.
func (d *Driver) Update(ctx context.Context) (int, error) {
	d.rt.Drain()

	renders := 0
	var errs []error
	for {
		n := d.nextDirty()
		if n == nil {
			if d.rt.Pending() == 0 {
				break
			}
			d.rt.FlushEffects(ctx)
			d.rt.Drain()
			continue
		}
		if renders >= d.maxRenders {
			errs = append(errs, fmt.Errorf("%w: %d renders", ErrRenderLimit, renders))
			break
		}

		need, err := d.rt.Prepare(n.id)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if need {
			if err := d.render(n); err != nil {
				errs = append(errs, err)
			}
			renders++
		}
		d.rt.FlushEffects(ctx)
		d.rt.Drain()
	}

	d.mu.Lock()
	d.renders += renders
	d.mu.Unlock()
	return renders, errors.Join(errs...)
}

// Act runs fn in a batch and then updates the tree, the way an event handler
// would.
func (d *Driver) Act(fn func()) error {
	d.rt.Batch(fn)
	_, err := d.Update(context.Background())
	return err
}

// Run updates the tree whenever the runtime wakes, until ctx is done. Render
// errors are logged and do not stop the loop.
func (d *Driver) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-d.rt.Wake():
			if _, err := d.Update(ctx); err != nil {
				d.logger.Error("update failed", slog.Any("error", err))
			}
		}
	}
}

// Unmount unmounts every root.
func (d *Driver) Unmount() error {
	var errs []error
	for i := len(d.roots) - 1; i >= 0; i-- {
		if err := d.unmount(d.roots[i]); err != nil {
			errs = append(errs, err)
		}
	}
	d.roots = nil
	return errors.Join(errs...)
}

// Output returns the committed output of an instance.
func (d *Driver) Output(id hooks.InstanceID) any {
	return d.rt.Output(id)
}

// Find returns the instance reached from root by following child keys.
func (d *Driver) Find(root hooks.InstanceID, path ...string) (hooks.InstanceID, bool) {
	n, ok := d.nodes[root]
	if !ok {
		return 0, false
	}
	for _, key := range path {
		var next *node
		for _, c := range n.children {
			if c.key == key {
				next = c
				break
			}
		}
		if next == nil {
			return 0, false
		}
		n = next
	}
	return n.id, true
}

// Walk visits the subtree under root depth first, parents before children,
// in child order.
func (d *Driver) Walk(root hooks.InstanceID, fn func(depth int, key string, id hooks.InstanceID)) {
	n, ok := d.nodes[root]
	if !ok {
		return
	}
	var visit func(n *node, depth int)
	visit = func(n *node, depth int) {
		fn(depth, n.key, n.id)
		for _, c := range n.children {
			visit(c, depth+1)
		}
	}
	visit(n, 0)
}

// Errors returns the effect errors reported so far.
func (d *Driver) Errors() []error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]error(nil), d.errs...)
}

// Renders returns the number of renders performed by Update.
func (d *Driver) Renders() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.renders
}

// nextDirty returns the dirty node with the lowest ID. Parents are mounted
// before their descendants, so a parent is rendered first and its render
// also clears the requests of the children it re-renders.
func (d *Driver) nextDirty() *node {
	for _, id := range d.rt.Dirty() {
		if n, ok := d.nodes[id]; ok {
			return n
		}
	}
	return nil
}

func (d *Driver) report(id hooks.InstanceID, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.errs = append(d.errs, err)
}

func (d *Driver) mount(parent *node, el Element) (*node, error) {
	var pid hooks.InstanceID
	if parent != nil {
		pid = parent.id
	}
	name := el.Name
	if name == "" {
		name = el.Key
	}
	id, err := d.rt.Mount(pid, name)
	if err != nil {
		return nil, err
	}
	n := &node{
		id:        id,
		key:       el.Key,
		name:      name,
		component: el.Component,
		props:     el.Props,
		parent:    parent,
	}
	d.nodes[id] = n
	return n, nil
}

func (d *Driver) unmount(n *node) error {
	err := d.rt.Unmount(n.id)
	d.forget(n)
	if n.parent != nil {
		for i, c := range n.parent.children {
			if c == n {
				n.parent.children = append(n.parent.children[:i], n.parent.children[i+1:]...)
				break
			}
		}
	}
	return err
}

func (d *Driver) forget(n *node) {
	for _, c := range n.children {
		d.forget(c)
	}
	delete(d.nodes, n.id)
}

// render renders n, reconciles and renders its children, then commits n.
// Children commit before their parent, so their effects run first. A failed
// render keeps the instance's previous output and children.
func (d *Driver) render(n *node) error {
	out, err := d.rt.Render(n.id, func(r *hooks.Render) any {
		return n.component(r, n.props)
	})
	if err != nil {
		return err
	}
	view, _ := out.(View)

	errs := []error{d.reconcile(n, view.Children)}
	if err := d.rt.Commit(n.id, view.Value); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (d *Driver) reconcile(n *node, elements []Element) error {
	var errs []error

	keep := make(map[string]Element, len(elements))
	for _, el := range elements {
		if _, dup := keep[el.Key]; dup {
			errs = append(errs, fmt.Errorf("driver: duplicate key %q under %s", el.Key, n.name))
			continue
		}
		keep[el.Key] = el
	}

	// Removed children go first, last first.
	for i := len(n.children) - 1; i >= 0; i-- {
		c := n.children[i]
		if _, ok := keep[c.key]; ok {
			continue
		}
		if err := d.unmount(c); err != nil {
			errs = append(errs, err)
		}
	}

	existing := make(map[string]*node, len(n.children))
	for _, c := range n.children {
		existing[c.key] = c
	}

	children := make([]*node, 0, len(keep))
	for _, el := range elements {
		if _, ok := keep[el.Key]; !ok {
			continue
		}
		delete(keep, el.Key)

		c, ok := existing[el.Key]
		if !ok {
			var err error
			if c, err = d.mount(n, el); err != nil {
				errs = append(errs, err)
				continue
			}
		} else {
			c.component = el.Component
			c.props = el.Props
		}
		children = append(children, c)
	}
	n.children = children

	ids := make([]hooks.InstanceID, len(children))
	for i, c := range children {
		ids[i] = c.id
	}
	if err := d.rt.SetChildOrder(n.id, ids); err != nil {
		errs = append(errs, err)
	}

	for _, c := range children {
		if err := d.render(c); err != nil {
			errs = append(errs, err)
		}
	}

	d.logger.Debug("reconciled",
		slog.Uint64("instance", uint64(n.id)),
		slog.String("name", n.name),
		slog.Int("children", len(children)),
	)
	return errors.Join(errs...)
}
