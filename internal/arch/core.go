package arch

import "sync"

// TaskID identifies a schedulable unit to the core gate. It is opaque to
// this package; the scheduler package is the only thing that interprets
// it further.
type TaskID uint32

// Core is the hosted-target stand-in for the two naked exception handlers
// (SVCall / PendSV) that save and restore processor context on real
// silicon. There is exactly one goroutine "running" at a time: every other
// registered task goroutine is parked on its own gate channel. StartFirstTask
// and ContextSwitch are the same two entry points the design notes call
// out for the architecture module; the only data dependency the rest of
// the core has on this package is a TaskID, not a raw stack pointer.
type Core struct {
	mu    sync.Mutex
	gates map[TaskID]chan struct{}
}

// NewCore creates an empty context-switch gate.
func NewCore() *Core {
	return &Core{gates: make(map[TaskID]chan struct{})}
}

// Register creates the run-gate for a new task. Must be called before the
// task's goroutine calls Wait, and before any ContextSwitch can target it.
func (c *Core) Register(id TaskID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gates[id] = make(chan struct{}, 1)
}

// Unregister removes a task's gate once it has exited and been reaped.
func (c *Core) Unregister(id TaskID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.gates, id)
}

func (c *Core) gate(id TaskID) chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gates[id]
}

// Wait blocks the calling goroutine (a task's own goroutine) until the
// core schedules it to run, i.e. until some other call releases its gate.
// A freshly created task calls this immediately so it never runs before
// the scheduler decides to, mirroring a task sitting in a ready list with
// its context not yet restored.
func (c *Core) Wait(id TaskID) {
	<-c.gate(id)
}

// StartFirstTask resets control to the named task and never returns to its
// caller, mirroring the SVCall handler's exception return into thread
// mode. Call this once, from the goroutine that calls rtos_start.
func (c *Core) StartFirstTask(id TaskID) {
	c.release(id)
	select {} // the boot goroutine never regains control
}

// ContextSwitch is the PendSV-handler equivalent: release the incoming
// task's gate, then park the outgoing task until it is scheduled again.
// Call this from a task's own goroutine; it returns once that task has
// been selected to run again.
func (c *Core) ContextSwitch(from, to TaskID) {
	c.release(to)
	c.Wait(from)
}

// Release unblocks a task's gate without parking the caller. Used when the
// caller never runs again on this path, e.g. the task-exit trampoline
// handing off to the next task before its own goroutine returns for good.
func (c *Core) Release(to TaskID) {
	c.release(to)
}

func (c *Core) release(id TaskID) {
	g := c.gate(id)
	select {
	case g <- struct{}{}:
	default:
		// Gate already has a pending release queued; a task can only be
		// scheduled to run once before it actually runs, so this is safe
		// to drop.
	}
}
