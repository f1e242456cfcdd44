package rtos

import (
	"sync/atomic"
	"time"

	"github.com/ehrlich-b/go-rtos/internal/sched"
)

// Metrics tracks scheduler and driver activity for a running RTOS instance.
// Every field is an atomic counter so it can be read from any goroutine,
// including a monitoring task, without taking the scheduler's lock.
type Metrics struct {
	// Scheduling activity.
	ContextSwitches atomic.Uint64
	TasksBlocked    atomic.Uint64
	TasksUnblocked  atomic.Uint64

	// ReadyDepthSamples/ReadyDepthTotal back an average ready-queue depth,
	// the same running-mean trick the original latency tracking uses.
	ReadyDepthSamples atomic.Uint64
	ReadyDepthTotal   atomic.Uint64
	MaxReadyDepth     atomic.Uint32

	// Per-reason block counters, keyed by BlockReason value. Sized
	// generously; reasons beyond this range are still counted in
	// BlockedOther so a wide driver reason space never panics here.
	blockByReason [32]atomic.Uint64
	BlockedOther  atomic.Uint64

	// UART driver counters, updated by internal/uart.
	UARTBytesTX     atomic.Uint64
	UARTBytesRX     atomic.Uint64
	UARTRXOverflows atomic.Uint64
	UARTFramingErrs atomic.Uint64

	// Syscall facade counters, updated by internal/syscalls.
	SyscallWrites atomic.Uint64
	SbrkBytes     atomic.Uint64
	SbrkFailures  atomic.Uint64

	StartTime atomic.Int64
}

// NewMetrics creates a metrics instance with its start time set to now.
func NewMetrics() *Metrics {
	m := &Metrics{}
	m.StartTime.Store(time.Now().UnixNano())
	return m
}

// ObserveContextSwitch implements sched.Observer.
func (m *Metrics) ObserveContextSwitch() {
	m.ContextSwitches.Add(1)
}

// ObserveReadyDepth implements sched.Observer.
func (m *Metrics) ObserveReadyDepth(_ int, depth int) {
	m.ReadyDepthSamples.Add(1)
	m.ReadyDepthTotal.Add(uint64(depth))
	for {
		current := m.MaxReadyDepth.Load()
		if uint32(depth) <= current {
			break
		}
		if m.MaxReadyDepth.CompareAndSwap(current, uint32(depth)) {
			break
		}
	}
}

// ObserveBlock implements sched.Observer.
func (m *Metrics) ObserveBlock(reason sched.BlockReason) {
	m.TasksBlocked.Add(1)
	if int(reason) >= 0 && int(reason) < len(m.blockByReason) {
		m.blockByReason[reason].Add(1)
	} else {
		m.BlockedOther.Add(1)
	}
}

// ObserveUnblock implements sched.Observer.
func (m *Metrics) ObserveUnblock(reason sched.BlockReason) {
	m.TasksUnblocked.Add(1)
}

// RecordUARTTransmit records bytes pushed onto a UART's TX ring.
func (m *Metrics) RecordUARTTransmit(n int) {
	m.UARTBytesTX.Add(uint64(n))
}

// RecordUARTReceive records bytes pulled off a UART's RX ring.
func (m *Metrics) RecordUARTReceive(n int) {
	m.UARTBytesRX.Add(uint64(n))
}

// RecordUARTOverflow records a byte dropped because the RX ring was full.
func (m *Metrics) RecordUARTOverflow() {
	m.UARTRXOverflows.Add(1)
}

// RecordUARTFramingError records a hardware framing/parity/noise error.
func (m *Metrics) RecordUARTFramingError() {
	m.UARTFramingErrs.Add(1)
}

// RecordSyscallWrite records a _write call through the log sink.
func (m *Metrics) RecordSyscallWrite(n int) {
	m.SyscallWrites.Add(1)
}

// RecordSbrk records a successful or failed heap growth request.
func (m *Metrics) RecordSbrk(n int, ok bool) {
	if ok {
		m.SbrkBytes.Add(uint64(n))
	} else {
		m.SbrkFailures.Add(1)
	}
}

// Snapshot is a point-in-time, non-atomic copy of Metrics suitable for
// logging or serializing.
type Snapshot struct {
	ContextSwitches   uint64
	TasksBlocked      uint64
	TasksUnblocked    uint64
	AvgReadyDepth     float64
	MaxReadyDepth     uint32
	UARTBytesTX       uint64
	UARTBytesRX       uint64
	UARTRXOverflows   uint64
	UARTFramingErrors uint64
	SyscallWrites     uint64
	SbrkBytes         uint64
	SbrkFailures      uint64
	UptimeNs          uint64
}

// Snapshot takes a consistent-enough read of every counter.
func (m *Metrics) Snapshot() Snapshot {
	snap := Snapshot{
		ContextSwitches:   m.ContextSwitches.Load(),
		TasksBlocked:      m.TasksBlocked.Load(),
		TasksUnblocked:    m.TasksUnblocked.Load(),
		MaxReadyDepth:     m.MaxReadyDepth.Load(),
		UARTBytesTX:       m.UARTBytesTX.Load(),
		UARTBytesRX:       m.UARTBytesRX.Load(),
		UARTRXOverflows:   m.UARTRXOverflows.Load(),
		UARTFramingErrors: m.UARTFramingErrs.Load(),
		SyscallWrites:     m.SyscallWrites.Load(),
		SbrkBytes:         m.SbrkBytes.Load(),
		SbrkFailures:      m.SbrkFailures.Load(),
		UptimeNs:          uint64(time.Now().UnixNano() - m.StartTime.Load()),
	}
	if samples := m.ReadyDepthSamples.Load(); samples > 0 {
		snap.AvgReadyDepth = float64(m.ReadyDepthTotal.Load()) / float64(samples)
	}
	return snap
}

// Compile-time interface check: Metrics satisfies sched.Observer.
var _ sched.Observer = (*Metrics)(nil)
