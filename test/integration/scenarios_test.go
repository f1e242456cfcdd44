// Package integration exercises the end-to-end scenarios a full build of
// the RTOS core is expected to satisfy, wiring the scheduler and UART
// packages together through the public rtos package rather than any one
// package's internals.
package integration

import (
	"sync"
	"testing"
	"time"

	"github.com/ehrlich-b/go-rtos"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIntegrationSystem(t *testing.T, priorityCount int) *rtos.System {
	t.Helper()
	cfg := rtos.DefaultConfig()
	cfg.RTOSPriorityCount = priorityCount
	cfg.SysLogLevel = 3
	return rtos.New(cfg)
}

// Scenario 1: two equal-priority tasks round-robin, each logging its name
// three times before exiting; the interleave alternates and both reach
// the exit trampoline.
func TestScenarioRoundRobin(t *testing.T) {
	sys := newIntegrationSystem(t, 8)

	var mu sync.Mutex
	var logLines []string
	exited := make(chan struct{}, 2)

	body := func(name string) func(any) {
		return func(any) {
			for i := 0; i < 3; i++ {
				mu.Lock()
				logLines = append(logLines, name)
				mu.Unlock()
				require.NoError(t, sys.Yield())
			}
			exited <- struct{}{}
		}
	}

	_, err := sys.TaskCreate(body("A"), nil, &rtos.TaskConfig{HasPriority: true, Priority: 5, Name: "A"})
	require.NoError(t, err)
	_, err = sys.TaskCreate(body("B"), nil, &rtos.TaskConfig{HasPriority: true, Priority: 5, Name: "B"})
	require.NoError(t, err)

	go func() { _ = sys.Start() }()

	for i := 0; i < 2; i++ {
		select {
		case <-exited:
		case <-time.After(3 * time.Second):
			t.Fatal("tasks never exited")
		}
	}

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []string{"A", "B", "A", "B", "A", "B"}, logLines)
}

type integrationClock struct{ hz uint32 }

func (c integrationClock) HCLKFreq() uint32 { return c.hz }

// Scenario 2: a low-priority task spins while a high-priority task is
// blocked; once unblocked, it preempts the spinner within one tick.
func TestScenarioPreemption(t *testing.T) {
	sys := newIntegrationSystem(t, 8)
	require.NoError(t, sys.EnableSystick(integrationClock{hz: 80_000_000}))

	order := make(chan string, 2)
	lowSpinning := make(chan struct{})

	var highHandle rtos.Handle
	highReady := make(chan struct{})
	_, err := sys.TaskCreate(func(any) {
		highHandle = sys.ActiveTask()
		close(highReady)
		require.NoError(t, sys.Block(rtos.ReasonRXEmpty))
		order <- "high"
	}, nil, &rtos.TaskConfig{HasPriority: true, Priority: 7, Name: "H"})
	require.NoError(t, err)

	_, err = sys.TaskCreate(func(any) {
		close(lowSpinning)
		for deadline := time.Now().Add(2 * time.Second); time.Now().Before(deadline); {
			if err := sys.PreemptionPoint(); err != nil {
				return
			}
		}
		order <- "low"
	}, nil, &rtos.TaskConfig{HasPriority: true, Priority: 2, Name: "L"})
	require.NoError(t, err)

	go func() { _ = sys.Start() }()

	<-highReady
	<-lowSpinning
	time.Sleep(20 * time.Millisecond) // let H actually reach Blocked
	sys.Unblock(highHandle, rtos.ReasonRXEmpty)

	select {
	case first := <-order:
		assert.Equal(t, "high", first)
	case <-time.After(3 * time.Second):
		t.Fatal("high-priority task never ran after unblock")
	}
}

// Scenario 3: UART loopback. Write the byte sequence 0x00..0x09, read it
// back, and confirm the rings both end up empty.
func TestScenarioUARTLoopback(t *testing.T) {
	sys := newIntegrationSystem(t, 8)
	regs := rtos.NewFakeRegisters()
	regs.Loopback = true

	drv, err := sys.OpenUART(rtos.USART2, rtos.UARTConfig{BaudRate: 7}, regs)
	require.NoError(t, err)

	want := make([]byte, 10)
	for i := range want {
		want[i] = byte(i)
	}
	got := make([]byte, 0, len(want))
	readDone := make(chan error, 1)

	_, err = sys.TaskCreate(func(any) {
		_, werr := drv.Write(want)
		require.NoError(t, werr)
	}, nil, &rtos.TaskConfig{HasPriority: true, Priority: 3, Name: "writer"})
	require.NoError(t, err)

	_, err = sys.TaskCreate(func(any) {
		for len(got) < len(want) {
			buf := make([]byte, len(want)-len(got))
			n, rerr := drv.Read(buf)
			if rerr != nil {
				readDone <- rerr
				return
			}
			got = append(got, buf[:n]...)
		}
		readDone <- nil
	}, nil, &rtos.TaskConfig{HasPriority: true, Priority: 3, Name: "reader"})
	require.NoError(t, err)

	go func() { _ = sys.Start() }()

	deadline := time.Now().Add(3 * time.Second)
	for {
		regs.DriveTX()
		sys.DispatchUART(rtos.USART2)
		select {
		case err := <-readDone:
			require.NoError(t, err)
			assert.Equal(t, want, got)
			return
		default:
		}
		if time.Now().After(deadline) {
			t.Fatal("loopback never completed")
		}
		time.Sleep(time.Millisecond)
	}
}

// Scenario 4: write 200 bytes into an 80-byte TX ring with a slow drain,
// one byte per simulated TX-empty interrupt. The writer blocks and
// unblocks repeatedly but every byte arrives, in order.
func TestScenarioBlockingWritePastBuffer(t *testing.T) {
	sys := newIntegrationSystem(t, 8)
	regs := rtos.NewFakeRegisters()

	drv, err := sys.OpenUART(rtos.USART1, rtos.UARTConfig{BaudRate: 7}, regs)
	require.NoError(t, err)

	const total = 200
	payload := make([]byte, total)
	for i := range payload {
		payload[i] = byte(i)
	}

	writeDone := make(chan struct{})
	var written int
	var writeErr error
	_, err = sys.TaskCreate(func(any) {
		written, writeErr = drv.Write(payload)
		close(writeDone)
	}, nil, &rtos.TaskConfig{HasPriority: true, Priority: 1, Name: "writer"})
	require.NoError(t, err)

	go func() { _ = sys.Start() }()

	deadline := time.Now().Add(5 * time.Second)
	for len(regs.TXData) < total {
		regs.DriveTX()
		sys.DispatchUART(rtos.USART1)
		if time.Now().After(deadline) {
			t.Fatalf("drain stalled at %d/%d bytes", len(regs.TXData), total)
		}
		time.Sleep(time.Millisecond)
	}

	select {
	case <-writeDone:
	case <-time.After(3 * time.Second):
		t.Fatal("writer never finished")
	}

	require.NoError(t, writeErr)
	assert.Equal(t, total, written)
	assert.Equal(t, payload, regs.TXData)
}

// Scenario 5: with heap allocation disabled and no caller-supplied stack,
// task_create fails cleanly rather than leaking a half-built task.
func TestScenarioCreateFailureNoHeap(t *testing.T) {
	cfg := rtos.DefaultConfig()
	cfg.SysHeapSize = 0
	sys := rtos.New(cfg)

	_, err := sys.TaskCreate(func(any) {}, nil, nil)
	require.Error(t, err)
	assert.True(t, rtos.IsCode(err, rtos.CodeNoMem))
}

// Scenario 6: a stale unblock with the wrong reason leaves a task
// Blocked; the matching reason wakes it.
func TestScenarioStaleUnblock(t *testing.T) {
	sys := newIntegrationSystem(t, 8)

	var self rtos.Handle
	ready := make(chan struct{})
	woken := make(chan struct{})
	_, err := sys.TaskCreate(func(any) {
		self = sys.ActiveTask()
		close(ready)
		require.NoError(t, sys.Block(rtos.ReasonTXFull))
		close(woken)
	}, nil, &rtos.TaskConfig{HasPriority: true, Priority: 4, Name: "T"})
	require.NoError(t, err)

	go func() { _ = sys.Start() }()

	<-ready
	time.Sleep(20 * time.Millisecond) // let the task actually reach Blocked
	sys.Unblock(self, rtos.ReasonRXEmpty) // mismatched reason, stale
	select {
	case <-woken:
		t.Fatal("task woke on mismatched reason")
	case <-time.After(100 * time.Millisecond):
	}

	sys.Unblock(self, rtos.ReasonTXFull) // matching reason
	select {
	case <-woken:
	case <-time.After(2 * time.Second):
		t.Fatal("task never woke on matching reason")
	}
}
