package sched

import "errors"

// Sentinel errors returned by the scheduler core. The public rtos package
// maps these onto the structured rtos.Error taxonomy; they are kept plain
// here so this package has no dependency on the root package (which
// imports sched, not the other way around).
var (
	ErrNilEntry        = errors.New("sched: entry function is nil")
	ErrPriorityRange   = errors.New("sched: priority out of range")
	ErrNoMem           = errors.New("sched: allocation failed")
	ErrHeapDisabled    = errors.New("sched: heap allocation disabled")
	ErrNotTaskContext  = errors.New("sched: call only valid from task context")
	ErrSchedulerFault  = errors.New("sched: scheduler fault")
)
