package nav

import (
	"sync"
	"time"
)

// Timer is a pending delayed call.
type Timer interface {
	// Stop cancels the call. It reports whether the call was still pending.
	Stop() bool
}

// Scheduler runs a function after a delay.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// TimerScheduler schedules on real timers and can wait for everything it
// scheduled to either run or be stopped.
type TimerScheduler struct {
	wg sync.WaitGroup
}

// AfterFunc schedules f on its own goroutine after d.
func (s *TimerScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.wg.Add(1)
	t := &realTimer{wg: &s.wg}
	t.timer = time.AfterFunc(d, func() {
		defer t.done()
		f()
	})
	return t
}

// Wait blocks until every scheduled call has run or been stopped.
func (s *TimerScheduler) Wait() {
	s.wg.Wait()
}

type realTimer struct {
	timer *time.Timer
	wg    *sync.WaitGroup
	once  sync.Once
}

func (t *realTimer) Stop() bool {
	stopped := t.timer.Stop()
	if stopped {
		t.done()
	}
	return stopped
}

func (t *realTimer) done() {
	t.once.Do(t.wg.Done)
}

// ManualScheduler queues calls until Fire is called. It is meant for tests.
type ManualScheduler struct {
	mu      sync.Mutex
	pending []*manualTimer
}

// AfterFunc queues f; d is recorded but not waited for.
func (s *ManualScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &manualTimer{delay: d, f: f}
	s.pending = append(s.pending, t)
	return t
}

// Pending returns the delays of the calls not yet fired or stopped.
func (s *ManualScheduler) Pending() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []time.Duration
	for _, t := range s.pending {
		if !t.isStopped() {
			out = append(out, t.delay)
		}
	}
	return out
}

// Fire runs every pending call in scheduling order and returns how many ran.
func (s *ManualScheduler) Fire() int {
	s.mu.Lock()
	queue := s.pending
	s.pending = nil
	s.mu.Unlock()

	n := 0
	for _, t := range queue {
		if t.claim() {
			t.f()
			n++
		}
	}
	return n
}

type manualTimer struct {
	mu      sync.Mutex
	delay   time.Duration
	f       func()
	stopped bool
}

func (t *manualTimer) Stop() bool {
	return t.claim()
}

// claim marks the timer as consumed; only the first caller wins.
func (t *manualTimer) claim() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return false
	}
	t.stopped = true
	return true
}

func (t *manualTimer) isStopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}
