package sync

import "sync/atomic"

// Counter is a monotonically growing byte count.
type Counter interface {
	Get() int64
	Add(n int) int64
}

type CounterImpl struct {
	value int64
}

func NewCounter() Counter {
	return &CounterImpl{}
}

func (c *CounterImpl) Get() int64 {
	return atomic.LoadInt64(&c.value)
}

// Add adds n and returns the new total. Negative n is ignored.
func (c *CounterImpl) Add(n int) int64 {
	if n <= 0 {
		return c.Get()
	}
	return atomic.AddInt64(&c.value, int64(n))
}
