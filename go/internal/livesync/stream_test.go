package livesync

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStream_StartsEmpty(t *testing.T) {
	s := NewStream[int]("numbers")
	assert.Equal(t, []int{}, s.Current())
	assert.Equal(t, uint64(0), s.Version())
	assert.Equal(t, "numbers", s.Name())
}

func TestStream_SubscribeReplaysCurrent(t *testing.T) {
	s := NewStream[int]("numbers")
	s.publish([]int{1, 2})

	var got [][]int
	cancel := s.Subscribe(func(items []int) { got = append(got, items) })
	defer cancel()

	s.publish([]int{3})
	require.Len(t, got, 2)
	assert.Equal(t, []int{1, 2}, got[0])
	assert.Equal(t, []int{3}, got[1])

	items, version := s.Snapshot()
	assert.Equal(t, []int{3}, items)
	assert.Equal(t, uint64(2), version)
}

func TestStream_NilPublishesEmptyList(t *testing.T) {
	s := NewStream[string]("names")
	s.publish(nil)
	assert.NotNil(t, s.Current())
	assert.Empty(t, s.Current())
	assert.Equal(t, uint64(1), s.Version())
}

func TestStream_CancelStopsDelivery(t *testing.T) {
	s := NewStream[int]("numbers")
	calls := 0
	cancel := s.Subscribe(func([]int) { calls++ })
	cancel()
	cancel()

	s.publish([]int{1})
	assert.Equal(t, 1, calls)
}

func TestStream_CancelFromCallback(t *testing.T) {
	s := NewStream[int]("numbers")
	calls := 0
	var cancel func()
	cancel = s.Subscribe(func(items []int) {
		calls++
		if len(items) > 0 {
			cancel()
		}
	})

	s.publish([]int{1})
	s.publish([]int{2})
	assert.Equal(t, 2, calls)
}

func TestStream_DeliveryIsMonotonicPerSubscriber(t *testing.T) {
	s := NewStream[int]("numbers")

	var wg sync.WaitGroup
	const subscribers = 8
	violations := make([]int, subscribers)
	for i := 0; i < subscribers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			last := -1
			s.Subscribe(func(items []int) {
				v := -1
				if len(items) > 0 {
					v = items[0]
				}
				if v < last {
					violations[i]++
				}
				last = v
			})
		}(i)
	}

	for n := 0; n < 200; n++ {
		s.publish([]int{n})
	}
	wg.Wait()

	for i, v := range violations {
		assert.Zerof(t, v, "subscriber %d saw an older list after a newer one", i)
	}
}

func TestStream_SubscribeVersionedPairsListWithItsVersion(t *testing.T) {
	s := NewStream[int]("numbers")

	var (
		mu         sync.Mutex
		mismatches int
		delivered  int
	)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for n := 0; n < 500; n++ {
			// version n+1 carries [n]
			s.publish([]int{n})
		}
	}()

	var cancels []func()
	for i := 0; i < 20; i++ {
		cancels = append(cancels, s.SubscribeVersioned(func(items []int, version uint64) {
			mu.Lock()
			defer mu.Unlock()
			delivered++
			if version == 0 {
				if len(items) != 0 {
					mismatches++
				}
				return
			}
			if len(items) != 1 || uint64(items[0])+1 != version {
				mismatches++
			}
		}))
	}
	<-done
	for _, cancel := range cancels {
		cancel()
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Positive(t, delivered)
	assert.Zero(t, mismatches)
}
