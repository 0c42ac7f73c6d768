package hooks

import "sync/atomic"

// globalIDCounter is the source of unique instance IDs.
var globalIDCounter uint64

// nextID returns the next unique ID. IDs are monotonically increasing and
// never reused, so a parent always has a smaller ID than its descendants.
func nextID() uint64 {
	return atomic.AddUint64(&globalIDCounter, 1)
}
