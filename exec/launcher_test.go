package exec

import (
	"sync/atomic"
	"testing"

	"go.viam.com/test"
)

func TestSerialLaunch(t *testing.T) {
	var got []int
	Serial{}.Launch(5, func(i int) {
		got = append(got, i)
	})
	test.That(t, got, test.ShouldResemble, []int{0, 1, 2, 3, 4})

	got = nil
	Serial{}.Launch(0, func(i int) {
		got = append(got, i)
	})
	test.That(t, got, test.ShouldBeNil)
}

func TestPoolLaunchRunsEachIndexOnce(t *testing.T) {
	const n = 4096
	hits := make([]int32, n)
	Pool{}.Launch(n, func(i int) {
		atomic.AddInt32(&hits[i], 1)
	})
	for i := 0; i < n; i++ {
		test.That(t, hits[i], test.ShouldEqual, int32(1))
	}
}

func TestPoolLaunchSmallN(t *testing.T) {
	// fewer units than workers
	hits := make([]int32, 3)
	Pool{}.Launch(3, func(i int) {
		atomic.AddInt32(&hits[i], 1)
	})
	test.That(t, hits, test.ShouldResemble, []int32{1, 1, 1})

	Pool{}.Launch(0, func(i int) {
		t.Error("unit should not run for n = 0")
	})
}

func TestPoolLaunchBarrier(t *testing.T) {
	// Launch must not return until every unit has finished.
	const n = 1000
	var done atomic.Int32
	Pool{}.Launch(n, func(i int) {
		done.Add(1)
	})
	test.That(t, done.Load(), test.ShouldEqual, int32(n))
}
