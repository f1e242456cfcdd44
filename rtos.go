package rtos

import (
	"errors"

	"github.com/ehrlich-b/go-rtos/internal/config"
	"github.com/ehrlich-b/go-rtos/internal/hal"
	"github.com/ehrlich-b/go-rtos/internal/logging"
	"github.com/ehrlich-b/go-rtos/internal/sched"
	"github.com/ehrlich-b/go-rtos/internal/syscalls"
	"github.com/ehrlich-b/go-rtos/internal/uart"
)

// Public aliases so callers never need to import an internal package
// directly to hold one of these values.
type (
	Handle      = sched.Handle
	BlockReason = sched.BlockReason
	TaskConfig  = sched.TaskConfig
	Peripheral  = hal.Peripheral
	UARTConfig  = uart.Config
	Registers   = uart.Registers
	Driver      = uart.Driver
	Clock       = hal.Clock
)

const (
	ReasonNone    = sched.ReasonNone
	ReasonTimer   = sched.ReasonTimer
	ReasonTXFull  = uart.ReasonTXFull
	ReasonRXEmpty = uart.ReasonRXEmpty
)

const (
	LPUART1 = hal.LPUART1
	USART1  = hal.USART1
	USART2  = hal.USART2
	USART3  = hal.USART3
)

// System is a single running RTOS instance: the scheduler, the UART
// peripheral table, the syscall facade, and the metrics they all feed.
// There is normally exactly one per process, but nothing here is a
// package-level singleton, so tests can run several in parallel.
type System struct {
	cfg     *config.Config
	log     *logging.Logger
	Metrics *Metrics

	sched *sched.Scheduler
	uarts *uart.Table
	sys   *syscalls.Facade
}

// New creates a System from cfg, or DefaultConfig() if cfg is nil.
func New(cfg *Config) *System {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	log := logging.NewLogger(&logging.Config{Level: logging.LogLevel(cfg.SysLogLevel)})
	metrics := NewMetrics()
	s := sched.New(cfg, log, metrics)
	return &System{
		cfg:     cfg,
		log:     log,
		Metrics: metrics,
		sched:   s,
		uarts:   uart.NewTable(s, metrics),
		sys:     syscalls.NewFacade(cfg, metrics),
	}
}

// TaskCreate creates a new task in Ready state. See internal/sched for the
// full set of TaskConfig semantics.
func (sys *System) TaskCreate(entry func(arg any), arg any, cfg *TaskConfig) (Handle, error) {
	h, err := sys.sched.TaskCreate(entry, arg, cfg)
	if err != nil {
		return h, translateSchedErr("task_create", err)
	}
	return h, nil
}

// Start creates the idle task and starts the scheduler. It never returns.
func (sys *System) Start() error {
	if err := sys.sched.RTOSStart(); err != nil {
		return translateSchedErr("rtos_start", err)
	}
	return nil
}

// Yield marks the active task Ready and triggers a context switch.
func (sys *System) Yield() error {
	if err := sys.sched.TaskYield(); err != nil {
		return translateSchedErr("task_yield", err)
	}
	return nil
}

// Block suspends the active task with the given reason until Unblock is
// called against it with a matching reason.
func (sys *System) Block(reason BlockReason) error {
	if err := sys.sched.BlockActiveTask(reason); err != nil {
		return translateSchedErr("block_active_task", err)
	}
	return nil
}

// Unblock wakes h if it is currently Blocked with exactly this reason; a
// stale or mismatched wakeup is a silent no-op.
func (sys *System) Unblock(h Handle, reason BlockReason) {
	sys.sched.UnblockTask(h, reason)
}

// ActiveTask returns the currently running task.
func (sys *System) ActiveTask() Handle {
	return sys.sched.GetActiveTask()
}

// Destroy stops a task; see internal/sched.TaskDestroy for the active vs.
// inactive task semantics.
func (sys *System) Destroy(h Handle) {
	sys.sched.TaskDestroy(h)
}

// PreemptionPoint yields the active task if a pending tick-driven
// preemption has been latched since the last call, and is a no-op
// otherwise.
func (sys *System) PreemptionPoint() error {
	if err := sys.sched.PreemptionPoint(); err != nil {
		return translateSchedErr("preemption_point", err)
	}
	return nil
}

// EnableSystick starts the periodic tick against clk's current core
// clock frequency.
func (sys *System) EnableSystick(clk Clock) error {
	if err := sys.sched.EnableSystick(clk); err != nil {
		return New("enable_systick", CodeBadParam, err.Error())
	}
	return nil
}

// DispatchUART routes a pending interrupt on p to its open driver. This is
// the entry point a real InterruptController's SetUARTISR dispatcher
// calls on every UART/LPUART vector; a peripheral with no open driver is
// a silent no-op.
func (sys *System) DispatchUART(p Peripheral) {
	sys.uarts.Dispatch(p)
}

// OpenUART opens and configures a UART/LPUART peripheral.
func (sys *System) OpenUART(p Peripheral, cfg UARTConfig, regs Registers) (*Driver, error) {
	d, err := sys.uarts.Open(p, cfg, regs)
	if err != nil {
		return nil, translateUARTErr("UART_open", err)
	}
	return d, nil
}

// SetLogSink installs the destination for fd 1/2 writes. The System's own
// logger is not redirected; it keeps writing to stderr.
func (sys *System) SetLogSink(sink syscalls.LogSink) {
	sys.sys.SetLogSink(sink)
}

// Write implements the _write syscall: fd, buffer in, bytes written out.
func (sys *System) Write(fd int, p []byte) (int, error) {
	return sys.sys.Write(fd, p)
}

// Sbrk implements the _sbrk syscall.
func (sys *System) Sbrk(incr int) (int, error) {
	return sys.sys.Sbrk(incr)
}

// Exit implements the _exit syscall. Never returns.
func (sys *System) Exit(code int) {
	sys.sys.Exit(code)
}

func translateSchedErr(op string, err error) *Error {
	switch {
	case errors.Is(err, sched.ErrNilEntry), errors.Is(err, sched.ErrPriorityRange):
		return New(op, CodeBadParam, err.Error())
	case errors.Is(err, sched.ErrNoMem), errors.Is(err, sched.ErrHeapDisabled):
		return New(op, CodeNoMem, err.Error())
	case errors.Is(err, sched.ErrNotTaskContext), errors.Is(err, sched.ErrSchedulerFault):
		return New(op, CodeScheduler, err.Error())
	default:
		return Wrap(op, err)
	}
}

func translateUARTErr(op string, err error) *Error {
	switch {
	case errors.Is(err, uart.ErrBadParam):
		return New(op, CodeBadParam, err.Error())
	case errors.Is(err, uart.ErrInUse):
		return New(op, CodeInUse, err.Error())
	case errors.Is(err, uart.ErrUnsupportedBaud):
		return New(op, CodeUnsupported, err.Error())
	case errors.Is(err, uart.ErrNotOpen), errors.Is(err, uart.ErrClosed):
		return New(op, CodeScheduler, err.Error())
	default:
		return Wrap(op, err)
	}
}
