//go:build !linux

package detexec

import "runtime"

// AvailableParallelism reports the CPU count a task running inside a
// simulated node should observe. Outside Linux there is no portable
// sched_getaffinity-equivalent shimmed here, so the real fallback is
// runtime.NumCPU.
func AvailableParallelism() int {
	if info := currentNode.Load(); info != nil {
		return info.Cores
	}
	return runtime.NumCPU()
}
