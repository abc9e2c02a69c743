package extract

import "sync/atomic"

// CancelFlag is the polled cancellation signal spec.md §5 describes: set
// from any goroutine, checked by the driver between parts rather than
// mid-part. A zero CancelFlag is ready to use.
type CancelFlag struct {
	flag atomic.Bool
}

// Cancel raises the flag. Safe to call more than once or concurrently.
func (c *CancelFlag) Cancel() {
	c.flag.Store(true)
}

// Cancelled reports whether Cancel has been called.
func (c *CancelFlag) Cancelled() bool {
	return c.flag.Load()
}
