// Package sched implements the scheduler core: task control blocks,
// priority-indexed ready lists, the create/destroy/yield/block/unblock
// operations, select_active_task, the idle task, and the systick handler.
// It owns all task storage; callers outside this package only ever hold a
// TaskID.
package sched

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/ehrlich-b/go-rtos/internal/arch"
	"github.com/ehrlich-b/go-rtos/internal/config"
	"github.com/ehrlich-b/go-rtos/internal/logging"
	"github.com/google/btree"
)

// Handle is the opaque task handle returned to callers, matching
// task_handle_t in the original API.
type Handle = TaskID

// Observer receives scheduler events for metrics collection. A nil
// Observer is valid; all hooks become no-ops.
type Observer interface {
	ObserveContextSwitch()
	ObserveReadyDepth(priority int, depth int)
	ObserveBlock(reason BlockReason)
	ObserveUnblock(reason BlockReason)
}

// TaskConfig mirrors task_config_t. A nil *TaskConfig to TaskCreate means
// "use every default".
type TaskConfig struct {
	Priority    int // ignored unless HasPriority
	HasPriority bool
	Stack       []byte // caller-supplied stack; used in place if non-nil
	StackSize   int    // used when Stack is nil; 0 means DefaultStackSize
	Name        string
}

// Scheduler is the single scheduler instance for a running system. The
// design notes describe this as a singleton with interior mutability
// guarded by interrupt masking; mu is that guard, standing in for the
// brief cpsid/cpsie sections the original takes around list mutation.
type Scheduler struct {
	mu  sync.Mutex
	cfg *config.Config
	log *logging.Logger
	obs Observer

	core *arch.Core

	tasks  map[TaskID]*task
	nextID TaskID

	ready   []taskList
	blocked taskList
	exited  taskList
	active  TaskID

	started bool
	idle    TaskID

	// timers backs SleepUntil; lazily created on first use so a system
	// that never sleeps never pays for it.
	timers  *btree.BTreeG[wakeEntry]
	clockFn func() time.Time

	// pendingPreempt is set by the systick handler when a strictly
	// higher-priority task becomes ready than the one currently active,
	// and cleared by PreemptionPoint when a task voluntarily checks it.
	// There is no way to interrupt a running goroutine from the outside,
	// so preemption here is cooperative rather than asynchronous.
	pendingPreempt atomic.Bool
	systickStop    chan struct{}
}

// New creates a scheduler that has not yet been started.
func New(cfg *config.Config, log *logging.Logger, obs Observer) *Scheduler {
	if cfg == nil {
		cfg = config.Default()
	}
	if log == nil {
		log = logging.Default()
	}
	return &Scheduler{
		cfg:    cfg,
		log:    log,
		obs:    obs,
		core:   arch.NewCore(),
		tasks:  make(map[TaskID]*task),
		ready:  make([]taskList, cfg.RTOSPriorityCount),
		nextID: noTask + 1,
	}
}

func (s *Scheduler) observeBlock(r BlockReason) {
	if s.obs != nil {
		s.obs.ObserveBlock(r)
	}
}

func (s *Scheduler) observeUnblock(r BlockReason) {
	if s.obs != nil {
		s.obs.ObserveUnblock(r)
	}
}

func (s *Scheduler) observeSwitch() {
	if s.obs != nil {
		s.obs.ObserveContextSwitch()
	}
}

func (s *Scheduler) observeReadyDepth(priority int) {
	if s.obs != nil {
		s.obs.ObserveReadyDepth(priority, s.ready[priority].len)
	}
}

// TaskCreate creates a new task, in Ready state, appended to its priority
// level's ready queue. It does not run until the scheduler selects it.
func (s *Scheduler) TaskCreate(entry func(arg any), arg any, cfg *TaskConfig) (Handle, error) {
	if entry == nil {
		return noTask, ErrNilEntry
	}

	priority := s.cfg.DefaultPriority
	stackSize := s.cfg.DefaultStackSize
	var callerStack []byte
	name := ""
	if cfg != nil {
		if cfg.HasPriority {
			priority = cfg.Priority
		}
		if cfg.StackSize > 0 {
			stackSize = cfg.StackSize
		}
		callerStack = cfg.Stack
		name = cfg.Name
	}
	if priority < 0 || priority >= s.cfg.RTOSPriorityCount {
		return noTask, ErrPriorityRange
	}

	var stack []byte
	allocated := false
	bucket := 0
	if callerStack != nil {
		stack = callerStack
	} else {
		if s.cfg.SysHeapSize == 0 {
			return noTask, ErrHeapDisabled
		}
		stack, bucket = getStack(stackSize)
		allocated = true
	}

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	t := &task{
		id:             id,
		stack:          stack,
		stackStart:     len(stack),
		stackEnd:       0,
		stackAllocated: allocated,
		pooledBucket:   bucket,
		entry:          entry,
		arg:            arg,
		name:           name,
		state:          StateReady,
		blockReason:    ReasonNone,
		priority:       priority,
	}
	sp, _ := arch.BootstrapStack(stack, t.stackStart, uint32(id), 0, uint32(id))
	t.stackPtr = sp
	s.tasks[id] = t
	s.core.Register(id)
	s.listAppend(&s.ready[priority], id)
	s.observeReadyDepth(priority)
	s.mu.Unlock()

	go s.runTask(id)

	return id, nil
}

// runTask is the goroutine body backing every task, including the idle
// task: park on the core gate until scheduled, run the entry function,
// then fall through to the exit trampoline exactly as a natural return
// through the seeded link register would.
func (s *Scheduler) runTask(id TaskID) {
	s.core.Wait(id)
	s.mu.Lock()
	t := s.tasks[id]
	entry, arg := t.entry, t.arg
	s.mu.Unlock()

	entry(arg)

	s.taskExitTrampoline(id)
}

// taskExitTrampoline runs when a task's entry function returns naturally.
// It must never itself return: task_destroy performs an exception-mediated
// context switch and parks this goroutine for good.
func (s *Scheduler) taskExitTrampoline(id TaskID) {
	s.mu.Lock()
	name := s.tasks[id].name
	s.mu.Unlock()
	s.log.WithTask(name).Info("exited")
	s.TaskDestroy(id)
}

// RTOSStart creates the idle task and starts the scheduler. It never
// returns; if the context-switch gate somehow returns control to this
// goroutine, that is a scheduler fault.
func (s *Scheduler) RTOSStart() error {
	if err := arch.PinSingleCore(0); err != nil {
		s.log.Debugf("single-core affinity pin unavailable, continuing unpinned: %v", err)
	}

	idleCfg := &TaskConfig{
		HasPriority: true,
		Priority:    s.cfg.IdleTaskPriority,
		StackSize:   s.cfg.IdleTaskStackSize,
		Name:        "Idle Task",
	}
	idleID, err := s.TaskCreate(s.idleEntry, nil, idleCfg)
	if err != nil {
		s.log.Errorf("could not create idle task: %v", err)
		return ErrSchedulerFault
	}

	s.mu.Lock()
	s.idle = idleID
	s.mu.Unlock()

	s.selectActiveTask()

	s.mu.Lock()
	first := s.active
	s.mu.Unlock()

	s.started = true
	s.core.StartFirstTask(first) // never returns
	s.log.Errorf("scheduler returned without starting RTOS")
	return ErrSchedulerFault
}

// GetActiveTask returns the currently running task, or noTask before the
// scheduler has started.
func (s *Scheduler) GetActiveTask() Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// TaskYield marks the active task Ready and triggers a context switch.
// Legal only from task context (i.e. while some task is active).
func (s *Scheduler) TaskYield() error {
	s.mu.Lock()
	self := s.active
	if self == noTask {
		s.mu.Unlock()
		return ErrNotTaskContext
	}
	s.tasks[self].state = StateReady
	s.mu.Unlock()

	s.contextSwitch(self)
	return nil
}

// BlockActiveTask blocks the active task with the given reason and
// triggers a context switch. Returns once the task has been unblocked and
// rescheduled.
func (s *Scheduler) BlockActiveTask(reason BlockReason) error {
	s.mu.Lock()
	self := s.active
	if self == noTask {
		s.mu.Unlock()
		return ErrNotTaskContext
	}
	s.tasks[self].state = StateBlocked
	s.tasks[self].blockReason = reason
	s.mu.Unlock()
	s.observeBlock(reason)

	s.contextSwitch(self)
	return nil
}

// UnblockTask clears a task's block state and moves it to its ready queue,
// but only if it is currently Blocked with exactly this reason. Stale
// wakeups (wrong reason, or already unblocked) are a silent no-op.
func (s *Scheduler) UnblockTask(h Handle, reason BlockReason) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[h]
	if !ok || t.state != StateBlocked || t.blockReason != reason {
		return
	}
	t.state = StateReady
	t.blockReason = ReasonNone
	s.listRemove(&s.blocked, h)
	s.listAppend(&s.ready[t.priority], h)
	s.observeReadyDepth(t.priority)
	s.observeUnblock(reason)
}

// TaskDestroy stops a task. If it is the active task, it is moved to the
// exited list and a context switch is triggered; the idle task reaps it
// later. Otherwise it is removed from its current list and its resources
// freed immediately.
func (s *Scheduler) TaskDestroy(h Handle) {
	s.mu.Lock()
	t, ok := s.tasks[h]
	if !ok {
		s.mu.Unlock()
		return
	}

	if h == s.active {
		s.listAppend(&s.exited, h)
		s.active = noTask
		s.mu.Unlock()

		s.selectActiveTask()
		s.mu.Lock()
		next := s.active
		s.mu.Unlock()
		s.core.ContextSwitch(h, next)
		return
	}

	switch t.state {
	case StateBlocked:
		s.listRemove(&s.blocked, h)
	case StateReady:
		s.listRemove(&s.ready[t.priority], h)
	default:
		s.log.WithTask(t.name).Warnf("destroyed task was not in blocked or ready list (state=%s)", t.state)
	}
	s.freeTask(t)
	s.mu.Unlock()
}

// freeTask releases a task's resources. Caller must hold s.mu.
func (s *Scheduler) freeTask(t *task) {
	if t.stackAllocated {
		putStack(t.stack, t.pooledBucket)
	}
	delete(s.tasks, t.id)
	s.core.Unregister(t.id)
}

// contextSwitch triggers a PendSV-equivalent switch away from self: select
// a new active task, then hand off via the core gate. Blocks the calling
// goroutine until self is scheduled to run again.
func (s *Scheduler) contextSwitch(self TaskID) {
	s.selectActiveTask()
	s.mu.Lock()
	next := s.active
	s.mu.Unlock()
	s.observeSwitch()
	s.core.ContextSwitch(self, next)
}

// selectActiveTask scans ready queues from the highest priority down to 1,
// then falls back to priority 0, and installs the head of the first
// non-empty level found as the new active task (see the scan-order note
// below). The outgoing active task, if any, is re-linked first: Blocked
// tasks go to the blocked list, everything else goes to the tail of its
// ready queue (round robin among equals).
func (s *Scheduler) selectActiveTask() {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Mirrors the original scan exactly: walk priorities P-1 down to 1
	// looking for a non-empty ready queue, then fall back to checking
	// priority 0 once the loop bottoms out. This means priority 0 is only
	// ever selected when nothing at 1..P-1 is ready - a deliberate fit for
	// an idle task living there, not a level skipped outright. See
	// DESIGN.md for the open-question resolution.
	p := len(s.ready) - 1
	for ; p > 0; p-- {
		if s.ready[p].head != noTask {
			break
		}
	}
	if s.ready[p].head == noTask {
		// Nothing ready anywhere; the task that called in keeps running.
		// TaskYield already flipped it to Ready before calling here on the
		// assumption a switch would follow; since none did, undo that or
		// it ends up Ready but in no ready queue, violating the invariant
		// that every non-active task lives in exactly one list. A task
		// that called in via BlockActiveTask is left alone: it really is
		// Blocked, and leaving no task runnable is this package's caller's
		// problem, not selectActiveTask's to paper over.
		if s.active != noTask && s.tasks[s.active].state == StateReady {
			s.tasks[s.active].state = StateActive
		}
		return
	}
	next := s.ready[p].head
	s.listRemove(&s.ready[p], next)

	if s.active != noTask {
		outgoing := s.tasks[s.active]
		if outgoing.state == StateBlocked {
			s.listAppend(&s.blocked, s.active)
		} else {
			s.listAppend(&s.ready[outgoing.priority], s.active)
		}
	}

	s.active = next
	s.tasks[next].state = StateActive
}

// idleEntry is the idle task body: reap exited tasks, then yield, forever.
func (s *Scheduler) idleEntry(arg any) {
	for {
		s.log.Debugf("idle loop")
		s.reapExited()
		_ = s.TaskYield()
	}
}

// reapExited frees every task currently on the exited list.
func (s *Scheduler) reapExited() {
	for {
		s.mu.Lock()
		id := s.exited.head
		if id == noTask {
			s.mu.Unlock()
			return
		}
		t := s.tasks[id]
		s.listRemove(&s.exited, id)
		s.log.WithTask(t.name).Debug("reaped")
		s.freeTask(t)
		s.mu.Unlock()
	}
}

// PriorityCount returns the configured number of priority levels, P.
func (s *Scheduler) PriorityCount() int {
	return s.cfg.RTOSPriorityCount
}

// TaskState returns a snapshot of a task's state and priority, used by
// tests and diagnostics; not part of the original API surface.
func (s *Scheduler) TaskState(h Handle) (state State, priority int, reason BlockReason, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, exists := s.tasks[h]
	if !exists {
		return 0, 0, 0, false
	}
	return t.state, t.priority, t.blockReason, true
}
