package store

import "github.com/vango-dev/hookrt/pkg/hooks"

// UseStore returns the store's current value and re-renders the instance
// whenever it changes. The subscription is made after commit and removed on
// unmount or when s changes.
func UseStore[T any](r *hooks.Render, s *Store[T]) T {
	return UseSelector(r, s, identity[T])
}

// UseSelector returns selector applied to the store's value. The instance
// re-renders only when the selected value changes under hooks.Equal. The
// latest selector is always used, so it may be an inline closure.
func UseSelector[T, V any](r *hooks.Render, s *Store[T], selector func(T) V) V {
	selected, set := hooks.UseStateLazy(r, func() V {
		return selector(s.Get())
	})
	latest := hooks.UseRef(r, selector)
	latest.Set(selector)

	hooks.UseEffect(r, func() hooks.Cleanup {
		unsubscribe := s.Subscribe(func(v T) {
			set.Set(latest.Current()(v))
		})
		// Catch changes made between render and subscription.
		set.Set(latest.Current()(s.Get()))
		return unsubscribe
	}, hooks.On(s))

	return selected
}

// Bind provides the store's value through ctx to the instance's descendants
// and keeps it current. It is a hook.
func Bind[T any](r *hooks.Render, s *Store[T], ctx *hooks.Context[T]) T {
	v := UseStore(r, s)
	ctx.Provide(r, v)
	return v
}

func identity[T any](v T) T {
	return v
}
