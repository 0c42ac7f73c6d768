// Package driver is a reference render driver for the hooks runtime.
//
// A Driver owns a hooks.Runtime and a tree of keyed component nodes. It
// renders a node, reconciles the children the node returned by key, commits,
// and flushes effects, re-rendering dirty instances until the tree is stable.
//
//	d := driver.New()
//	root, err := d.Mount("Counter", Counter, nil)
//	...
//	d.Act(func() { setCount.Set(3) })
//	fmt.Println(d.Output(root))
//
// Run drives the same loop from a goroutine, waking on render requests and
// dispatched work:
//
//	go d.Run(ctx)
//	d.Runtime().Dispatch(func() { setCount.Update(inc) })
//
// The driver produces no UI of its own. Whatever a component returns as
// View.Value is stored as the instance output.
package driver
