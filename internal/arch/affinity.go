package arch

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// PinSingleCore locks the calling goroutine to its current OS thread and
// restricts that thread to a single logical CPU, mirroring the
// single-core assumption the context-switch gate itself relies on: with
// more than one OS thread able to enter Core's critical sections
// concurrently, "one goroutine runs at a time" would no longer hold.
// Call this once, from the same goroutine that calls RTOSStart, before
// the first task runs. Not fatal if the host denies the affinity call
// (containers without CAP_SYS_NICE, non-Linux hosts); the caller keeps
// running unpinned and logs the reason.
func PinSingleCore(cpu int) error {
	runtime.LockOSThread()
	var mask unix.CPUSet
	mask.Set(cpu)
	return unix.SchedSetaffinity(0, &mask)
}
