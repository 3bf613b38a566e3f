package event

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_Dispatch(t *testing.T) {
	t.Run("delivers to matching listeners in order", func(t *testing.T) {
		bus := NewBus()
		var got []string

		bus.Subscribe(Read, ListenerFunc(func(name string, _ Payload) {
			got = append(got, "first:"+name)
		}))
		bus.Subscribe(Write, ListenerFunc(func(name string, _ Payload) {
			got = append(got, "write-only:"+name)
		}))
		bus.Subscribe(All, ListenerFunc(func(name string, _ Payload) {
			got = append(got, "all:"+name)
		}))

		bus.Dispatch(Read, Payload{KeyRead: []byte("x")})

		assert.Equal(t, []string{"first:read", "all:read"}, got)
	})

	t.Run("payload is passed through", func(t *testing.T) {
		bus := NewBus()
		var got Payload
		bus.Subscribe(Progress, ListenerFunc(func(_ string, p Payload) { got = p }))

		p := Payload{KeyDownloaded: int64(5)}
		bus.Dispatch(Progress, p)

		assert.Equal(t, p, got)
	})

	t.Run("no listeners", func(t *testing.T) {
		bus := NewBus()
		assert.NotPanics(t, func() { bus.Dispatch(Write, nil) })
	})
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus()
	calls := 0
	unsubscribe := bus.Subscribe(All, ListenerFunc(func(string, Payload) { calls++ }))
	keep := bus.Subscribe(Read, ListenerFunc(func(string, Payload) {}))
	require.Equal(t, 2, bus.Len())

	bus.Dispatch(Read, nil)
	unsubscribe()
	unsubscribe()
	bus.Dispatch(Read, nil)

	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, bus.Len())

	keep()
	assert.Equal(t, 0, bus.Len())
}

func TestBus_Subscribe_NilListenerPanics(t *testing.T) {
	assert.Panics(t, func() { NewBus().Subscribe(Read, nil) })
}

func TestBus_ConcurrentUse(t *testing.T) {
	bus := NewBus()
	var (
		mu    sync.Mutex
		count int
	)
	bus.Subscribe(All, ListenerFunc(func(string, Payload) {
		mu.Lock()
		count++
		mu.Unlock()
	}))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			bus.Dispatch(Progress, nil)
		}()
		go func() {
			defer wg.Done()
			bus.Subscribe(Write, ListenerFunc(func(string, Payload) {}))()
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, count)
}
