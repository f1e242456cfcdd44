// Package syscalls implements the POSIX-shaped facade a libc/newlib port
// expects from the platform: _write, _sbrk, _exit, and the trivial stubs
// for everything else a hosted toolchain links against but this target
// does not support.
package syscalls

import (
	"fmt"
	"sync"
	"syscall"

	"github.com/ehrlich-b/go-rtos/internal/config"
)

// LogSink is the destination _write(fd, ...) delegates to for fd 1 and 2.
// UART and semihost sinks are the two the original hardware supports;
// a discarding sink is used until SetLogSink installs one. Writes to any
// fd other than stdout/stderr fail with EBADF and never reach a sink.
type LogSink interface {
	WriteLog(p []byte) (int, error)
}

// discardSink implements LogSink by dropping everything, used when the log
// sink is configured disabled or not yet initialized.
type discardSink struct{}

func (discardSink) WriteLog(p []byte) (int, error) { return len(p), nil }

// Observer receives syscall facade events for metrics collection.
type Observer interface {
	RecordSyscallWrite(n int)
	RecordSbrk(n int, ok bool)
}

// Facade is the stateful side of the syscall surface: the current log
// sink, the heap break, and the configured policies that govern _exit and
// _sbrk. One Facade per running RTOS instance.
type Facade struct {
	mu       sync.Mutex
	cfg      *config.Config
	sink     LogSink
	obs      Observer
	heapSize int
	brk      int

	// lowestStackFloor is the lowest address any live task stack
	// currently occupies, consulted by Sbrk's collision check. A stack
	// pool has no linker-provided symbol for this on a hosted target, so
	// the scheduler reports it explicitly via SetLowestStackFloor.
	lowestStackFloor int
	haveStackFloor   bool

	exited     bool
	exitCode   int
}

// NewFacade creates a syscall facade bound to cfg's heap size and exit
// policy; cfg.SysLog is not read. SetLogSink must be called before any
// _write(1, ...) or _write(2, ...) will actually reach a destination;
// until then writes are silently discarded and reported as written.
func NewFacade(cfg *config.Config, obs Observer) *Facade {
	return &Facade{
		cfg:      cfg,
		sink:     discardSink{},
		obs:      obs,
		heapSize: cfg.SysHeapSize,
	}
}

// SetLogSink installs the destination for fd 1/2 writes, e.g. a UART
// driver opened on the peripheral config.LogSinkLPUART1 names.
func (f *Facade) SetLogSink(sink LogSink) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if sink == nil {
		sink = discardSink{}
	}
	f.sink = sink
}

// SetLowestStackFloor records the lowest address any live task stack
// currently reaches, so Sbrk can refuse a heap growth that would collide
// with it.
func (f *Facade) SetLowestStackFloor(addr int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lowestStackFloor = addr
	f.haveStackFloor = true
}

// Write implements _write(fd, buf, len). Only fd 1 (stdout) and 2
// (stderr) are meaningful; anything else fails with EBADF.
func (f *Facade) Write(fd int, p []byte) (int, error) {
	if fd != 1 && fd != 2 {
		return -1, syscall.EBADF
	}
	f.mu.Lock()
	sink := f.sink
	f.mu.Unlock()

	n, err := sink.WriteLog(p)
	if f.obs != nil {
		f.obs.RecordSyscallWrite(n)
	}
	if err != nil {
		return -1, syscall.EIO
	}
	return n, nil
}

// Sbrk implements _sbrk(incr): a bump allocator against a heap ceiling of
// cfg.SysHeapSize bytes, refusing to grow past that ceiling or collide
// with the lowest live task stack once one has been reported.
func (f *Facade) Sbrk(incr int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.heapSize == 0 {
		if f.obs != nil {
			f.obs.RecordSbrk(0, false)
		}
		return -1, syscall.ENOMEM
	}

	newBrk := f.brk + incr
	if newBrk < 0 || newBrk > f.heapSize {
		if f.obs != nil {
			f.obs.RecordSbrk(0, false)
		}
		return -1, syscall.ENOMEM
	}
	if f.haveStackFloor && newBrk > f.lowestStackFloor {
		if f.obs != nil {
			f.obs.RecordSbrk(0, false)
		}
		return -1, syscall.ENOMEM
	}

	prevBrk := f.brk
	f.brk = newBrk
	if f.obs != nil {
		f.obs.RecordSbrk(incr, true)
	}
	return prevBrk, nil
}

// Exit implements _exit(code): spin forever under ExitMin, or report the
// code to the log sink and halt under ExitFull. Halting on a hosted
// target means parking the calling goroutine for good; callers in task
// context should treat this call as non-returning.
func (f *Facade) Exit(code int) {
	f.mu.Lock()
	policy := f.cfg.SysExit
	sink := f.sink
	f.mu.Unlock()

	if policy == config.ExitFull {
		_, _ = sink.WriteLog([]byte(fmt.Sprintf("rtos: exit %d\n", code)))
	}

	f.mu.Lock()
	f.exited = true
	f.exitCode = code
	f.mu.Unlock()

	select {}
}

// Exited reports whether Exit has been called and with what code, for
// tests that cannot observe the real spin-forever/halt behavior directly.
func (f *Facade) Exited() (exited bool, code int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.exited, f.exitCode
}
