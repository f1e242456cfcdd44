package sched

import (
	"time"

	"github.com/ehrlich-b/go-rtos/internal/config"
	"github.com/ehrlich-b/go-rtos/internal/hal"
)

// EnableSystick starts the periodic tick that drives timer expiry and
// preemption detection, at the configured SystickFreq derived against
// clk's current core clock. An oversized reload value is fatal, matching
// the original's treatment of a 24-bit systick reload overflow.
func (s *Scheduler) EnableSystick(clk hal.Clock) error {
	if _, err := s.cfg.SystickReload(clk.HCLKFreq()); err != nil {
		return err
	}

	s.mu.Lock()
	if s.systickStop != nil {
		s.mu.Unlock()
		return nil
	}
	stop := make(chan struct{})
	s.systickStop = stop
	s.mu.Unlock()

	period := time.Second / time.Duration(s.cfg.SystickFreq)
	go func() {
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				s.tick()
			}
		}
	}()
	return nil
}

// DisableSystick stops the periodic tick started by EnableSystick. Safe to
// call if systick was never enabled.
func (s *Scheduler) DisableSystick() {
	s.mu.Lock()
	stop := s.systickStop
	s.systickStop = nil
	s.mu.Unlock()
	if stop != nil {
		close(stop)
	}
}

// tick is the systick handler body: expire due timers, then evaluate
// whether a higher-priority task than the one currently active has become
// ready, latching pendingPreempt if so. With SysUsePreemption disabled it
// only expires timers and never latches. It never performs the context
// switch itself; that only happens when the active task calls
// PreemptionPoint, since nothing here can safely interrupt whatever code
// that task is currently running.
func (s *Scheduler) tick() {
	s.expireTimers()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == noTask || s.cfg.SysUsePreemption != config.PreemptionEnabled {
		return
	}
	activePriority := s.tasks[s.active].priority
	for p := len(s.ready) - 1; p > activePriority; p-- {
		if s.ready[p].head != noTask {
			s.pendingPreempt.Store(true)
			return
		}
	}
}

// PreemptionPoint yields the active task if systick has latched a pending
// preemption since the last check, and is a no-op otherwise. Task code is
// expected to call this from loops that might otherwise run for a long
// time without naturally blocking or yielding; the scheduler cannot
// preempt a running goroutine on its own.
func (s *Scheduler) PreemptionPoint() error {
	if !s.pendingPreempt.CompareAndSwap(true, false) {
		return nil
	}
	return s.TaskYield()
}
