package sched

import (
	"time"

	"github.com/google/btree"
)

// wakeEntry is one pending timed wait, ordered by deadline so systick only
// has to peek the minimum instead of scanning every blocked task.
type wakeEntry struct {
	deadline time.Time
	id       TaskID
}

func wakeEntryLess(a, b wakeEntry) bool {
	if a.deadline.Equal(b.deadline) {
		return a.id < b.id
	}
	return a.deadline.Before(b.deadline)
}

// SleepUntil blocks the active task until the given duration has elapsed.
// It is layered on BlockActiveTask/UnblockTask rather than adding a new
// scheduler primitive; systick drives expireTimers to wake due sleepers.
func (s *Scheduler) SleepUntil(d time.Duration) error {
	s.mu.Lock()
	self := s.active
	if self == noTask {
		s.mu.Unlock()
		return ErrNotTaskContext
	}
	deadline := s.now().Add(d)
	if s.timers == nil {
		s.timers = btree.NewG(2, wakeEntryLess)
	}
	s.timers.ReplaceOrInsert(wakeEntry{deadline: deadline, id: self})
	s.tasks[self].state = StateBlocked
	s.tasks[self].blockReason = ReasonTimer
	s.mu.Unlock()
	s.observeBlock(ReasonTimer)

	s.contextSwitch(self)
	return nil
}

// now is overridable in tests so sleep deadlines do not depend on the wall
// clock.
func (s *Scheduler) now() time.Time {
	if s.clockFn != nil {
		return s.clockFn()
	}
	return time.Now()
}

// expireTimers wakes every task whose deadline has passed. Called from the
// systick handler.
func (s *Scheduler) expireTimers() {
	now := s.now()
	for {
		s.mu.Lock()
		if s.timers == nil || s.timers.Len() == 0 {
			s.mu.Unlock()
			return
		}
		min, _ := s.timers.Min()
		if min.deadline.After(now) {
			s.mu.Unlock()
			return
		}
		s.timers.Delete(min)
		s.mu.Unlock()
		s.UnblockTask(min.id, ReasonTimer)
	}
}
