package errors

import "sync"

// Reporter receives diagnostics as they are produced. Implementations must be
// safe for concurrent use; lazy resolution reports from whichever goroutine
// first forces a value.
type Reporter interface {
	Report(err *CompilerError)
}

// ReporterFunc adapts a function to the Reporter interface.
type ReporterFunc func(err *CompilerError)

// Report calls f(err).
func (f ReporterFunc) Report(err *CompilerError) { f(err) }

// Discard drops every diagnostic.
var Discard Reporter = ReporterFunc(func(*CompilerError) {})

// Collector accumulates diagnostics in report order.
type Collector struct {
	mu   sync.Mutex
	list ErrorList
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Report appends err. Nil diagnostics are ignored.
func (c *Collector) Report(err *CompilerError) {
	if err == nil {
		return
	}
	c.mu.Lock()
	c.list = append(c.list, err)
	c.mu.Unlock()
}

// Errors returns a snapshot of the collected diagnostics.
func (c *Collector) Errors() ErrorList {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(ErrorList, len(c.list))
	copy(out, c.list)
	return out
}

// Len returns the number of collected diagnostics.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.list)
}

// Reset discards everything collected so far.
func (c *Collector) Reset() {
	c.mu.Lock()
	c.list = nil
	c.mu.Unlock()
}
