package reactive

import "sync/atomic"

// globalIDCounter is the source of unique effect IDs.
var globalIDCounter uint64

// nextID returns the next effect ID. IDs increase monotonically, so sorting by
// ID yields creation order.
func nextID() uint64 {
	return atomic.AddUint64(&globalIDCounter, 1)
}
