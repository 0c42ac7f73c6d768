// Package store provides observable state that lives outside any component
// and bridges it into the hooks runtime.
//
// A Store is safe for concurrent use. Components read it through UseStore or
// UseSelector, which subscribe after commit and re-render the instance when
// the value (or the selected part of it) changes:
//
//	var Cart = store.New([]Item{})
//
//	func CartBadge(r *hooks.Render, _ any) driver.View {
//	    n := store.UseSelector(r, Cart, func(items []Item) int { return len(items) })
//	    return driver.View{Value: n}
//	}
//
// Bind publishes a store's value through a Context, so descendants consume it
// with Context.Use:
//
//	var CartCtx = hooks.CreateContext([]Item(nil))
//
//	func App(r *hooks.Render, _ any) driver.View {
//	    store.Bind(r, Cart, CartCtx)
//	    ...
//	}
//
// Values are compared with hooks.Equal. Replace slices and maps instead of
// mutating them in place, or subscribers will not observe the change.
package store
