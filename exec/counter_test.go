package exec

import (
	"sort"
	"sync"
	"testing"

	"go.viam.com/test"

	"github.com/robosense/depthcloud/tensor"
)

func testCounterSlots(t *testing.T, c Counter) {
	t.Helper()
	const n = 2048
	slots := make([]int32, n)
	var mu sync.Mutex
	i := 0

	Pool{}.Launch(n, func(_ int) {
		slot := c.Add(1)
		mu.Lock()
		slots[i] = slot
		i++
		mu.Unlock()
	})

	test.That(t, c.Value(), test.ShouldEqual, int32(n))

	// every claim got a unique, densely packed slot
	sort.Slice(slots, func(a, b int) bool { return slots[a] < slots[b] })
	for want := 0; want < n; want++ {
		test.That(t, slots[want], test.ShouldEqual, int32(want))
	}
}

func TestAtomicCounter(t *testing.T) {
	c := NewCounter()
	test.That(t, c.Value(), test.ShouldEqual, int32(0))
	test.That(t, c.Add(1), test.ShouldEqual, int32(0))
	test.That(t, c.Add(1), test.ShouldEqual, int32(1))
	test.That(t, c.Value(), test.ShouldEqual, int32(2))

	testCounterSlots(t, NewCounter())
}

func TestTensorBackedCounter(t *testing.T) {
	c, storage := NewCounterOn(tensor.CPU)
	test.That(t, storage.Dtype(), test.ShouldEqual, tensor.Int32)
	test.That(t, storage.NumElements(), test.ShouldEqual, 1)

	test.That(t, c.Add(1), test.ShouldEqual, int32(0))
	// the count is readable straight from the backing tensor
	test.That(t, storage.Int32s()[0], test.ShouldEqual, int32(1))

	c2, _ := NewCounterOn(tensor.CPU)
	testCounterSlots(t, c2)
}
