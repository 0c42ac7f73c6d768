package hooks

// Batch groups state updates so that every render request raised while fn
// runs is delivered once, deduplicated, when the outermost batch completes.
// Update values are never merged; only the scheduling requests are.
//
// Render, FlushEffects, Unmount and Drain batch implicitly.
//
// Example:
//
//	rt.Batch(func() {
//	    setFirst.Set("Ada")
//	    setLast.Set("Lovelace")
//	})  // one render request for the owning instance
func (rt *Runtime) Batch(fn func()) {
	rt.mu.Lock()
	rt.batchDepth++
	rt.mu.Unlock()

	defer func() {
		rt.mu.Lock()
		rt.batchDepth--
		var ids []InstanceID
		if rt.batchDepth == 0 {
			seen := make(map[InstanceID]bool, len(rt.deferred))
			for _, id := range rt.deferred {
				if _, dirty := rt.dirty[id]; dirty && !seen[id] {
					seen[id] = true
					ids = append(ids, id)
				}
			}
			rt.deferred = nil
		}
		rt.mu.Unlock()

		rt.requestRender(ids)
	}()

	fn()
}
