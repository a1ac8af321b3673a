package domain

import (
	"sync/atomic"
	"time"
)

var lastSequence atomic.Int64

// NextSequence returns a value from the wall clock in nanoseconds that is
// strictly greater than any value it returned before in this process. It
// orders table rows and stamps change events.
func NextSequence() int64 {
	for {
		last := lastSequence.Load()
		next := time.Now().UnixNano()
		if next <= last {
			next = last + 1
		}
		if lastSequence.CompareAndSwap(last, next) {
			return next
		}
	}
}
