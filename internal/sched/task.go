package sched

import "github.com/ehrlich-b/go-rtos/internal/arch"

// TaskID identifies a task to both the scheduler and the context-switch
// gate (internal/arch.Core). The scheduler is the sole owner of task
// storage; every other package only ever holds a TaskID, never a pointer
// into the table, so the table can be resized or reaped freely.
type TaskID = arch.TaskID

// noTask is the invalid/none TaskID, used as a list sentinel and as the
// return value of GetActiveTask before the scheduler has started.
const noTask TaskID = 0

// State is a task's position in the scheduler's lifecycle.
type State int

const (
	StateExited State = iota
	StateBlocked
	StateReady
	StateActive
)

func (s State) String() string {
	switch s {
	case StateExited:
		return "exited"
	case StateBlocked:
		return "blocked"
	case StateReady:
		return "ready"
	case StateActive:
		return "active"
	default:
		return "unknown"
	}
}

// BlockReason tags why a task is suspended. ReasonNone is the only value
// valid for a task that is not Blocked; drivers define their own reason
// values starting at reasonUserBase to avoid colliding with future core
// reasons.
type BlockReason int

const (
	ReasonNone BlockReason = iota
	// ReasonTimer is used by SleepUntil, a timed-wait facility layered on
	// top of systick rather than a primitive the core scheduler loop
	// depends on.
	ReasonTimer
	// reasonUserBase is the first value available to driver packages
	// (UART_TX_FULL, UART_RX_EMPTY, ...).
	reasonUserBase
)

// ReasonUserBase is the first BlockReason value a driver package may use
// for its own block reasons.
const ReasonUserBase = reasonUserBase

// task is the scheduler's internal task control block. Only the scheduler
// ever dereferences it; everyone else holds a TaskID.
type task struct {
	id TaskID

	// Stack bookkeeping. stackStart is the high (initial) address,
	// stackEnd the low sentinel; the stack grows down, so stackStart >
	// stackEnd. stackPtr is the simulated saved stack pointer, a byte
	// offset into stack, valid only while the task is not Active.
	stack          []byte
	stackStart     int
	stackEnd       int
	stackPtr       int
	stackAllocated bool
	pooledBucket   int // 0 if not from the stack pool

	entry func(arg any)
	arg   any
	name  string

	state       State
	blockReason BlockReason
	priority    int

	// Intrusive list linkage. A task is in at most one of ready[priority],
	// blocked, or exited at a time; noTask means "not linked".
	prev, next TaskID
	inList     bool
}
