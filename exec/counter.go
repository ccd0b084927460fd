package exec

import (
	"sync/atomic"

	"github.com/robosense/depthcloud/tensor"
)

// Counter is the shared fetch-and-add integer kernels use to claim output
// slots during stream compaction. Add returns the value before the add, so
// every accepted element gets a unique, densely packed index no matter which
// worker runs when.
type Counter interface {
	Add(delta int32) int32
	Value() int32
}

// NewCounter returns a zeroed in-process atomic counter, the right form when
// the launched workers are host goroutines.
func NewCounter() Counter {
	return &atomicCounter{}
}

type atomicCounter struct {
	n atomic.Int32
}

func (c *atomicCounter) Add(delta int32) int32 {
	return c.n.Add(delta) - delta
}

func (c *atomicCounter) Value() int32 {
	return c.n.Load()
}

// NewCounterOn places the counter's storage in a single-element Int32 tensor
// allocated on the given device, the form a device-resident backend needs:
// workers can only atomically update memory in their own address space. The
// tensor is returned alongside so callers can read it back off-device.
func NewCounterOn(device tensor.Device) (Counter, *tensor.Tensor) {
	t := tensor.New([]int{1}, tensor.Int32, device)
	return &tensorCounter{cell: t.Int32s()}, t
}

type tensorCounter struct {
	cell []int32
}

func (c *tensorCounter) Add(delta int32) int32 {
	return atomic.AddInt32(&c.cell[0], delta) - delta
}

func (c *tensorCounter) Value() int32 {
	return atomic.LoadInt32(&c.cell[0])
}
