// Package exec provides the execution primitives the kernels are written
// against: a parallel-for launcher and a shared atomic counter. Kernel bodies
// are plain per-index closures; which launcher runs them decides serial or
// data-parallel execution without the kernel knowing.
package exec

import (
	"math"
	"runtime"
	"sync"

	"go.viam.com/utils"
)

// ParallelFactor controls the max level of parallelization. This might be useful
// to set in tests where too much parallelism actually slows tests down in
// aggregate.
var ParallelFactor = runtime.GOMAXPROCS(0)

func init() {
	if ParallelFactor <= 0 {
		ParallelFactor = 1
	}
}

// Launcher runs n independent units of work, indexed [0, n). Launch does not
// return until every unit has finished; that barrier is the only
// synchronization a kernel may rely on. No ordering is guaranteed between
// units.
type Launcher interface {
	Launch(n int, unit func(i int))
}

// Serial runs every unit in index order on the calling goroutine.
type Serial struct{}

// Launch implements Launcher.
func (Serial) Launch(n int, unit func(i int)) {
	for i := 0; i < n; i++ {
		unit(i)
	}
}

// Pool fans units out across ParallelFactor worker goroutines, each taking a
// contiguous block of indices. The zero value is ready to use.
type Pool struct{}

// Launch implements Launcher.
func (Pool) Launch(n int, unit func(i int)) {
	if n <= 0 {
		return
	}
	numGroups := ParallelFactor
	if numGroups > n {
		numGroups = n
	}
	groupSize := int(math.Floor(float64(n) / float64(numGroups)))
	extra := n % numGroups

	var wait sync.WaitGroup
	wait.Add(numGroups)
	for groupNum := 0; groupNum < numGroups; groupNum++ {
		groupNumCopy := groupNum
		utils.PanicCapturingGo(func() {
			defer wait.Done()
			groupNum := groupNumCopy

			from := groupSize * groupNum
			to := groupSize * (groupNum + 1)
			if groupNum == numGroups-1 {
				to += extra
			}
			for i := from; i < to; i++ {
				unit(i)
			}
		})
	}
	wait.Wait()
}

// Default is the launcher kernels use when the caller does not pick one.
func Default() Launcher {
	return Pool{}
}
