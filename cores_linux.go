//go:build linux

package detexec

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// AvailableParallelism reports the CPU count a task running inside a
// simulated node should observe. Inside a polled task it returns that
// node's configured Cores, via sched_getaffinity-equivalent interposition
// as described for the syscall shim; outside any task it falls through to
// the real affinity mask reported by the kernel.
func AvailableParallelism() int {
	if info := currentNode.Load(); info != nil {
		return info.Cores
	}
	var set unix.CPUSet
	if err := unix.SchedGetaffinity(0, &set); err == nil {
		return set.Count()
	}
	return runtime.NumCPU()
}
