package canopy

import (
	"slices"
	"sort"
	"time"
)

// Timer is a one-shot deferred callback registered with AddTimer.
type Timer struct {
	deadline  time.Duration
	fn        func()
	queue     *timerQueue
	owner     *Base // component whose Init added it, if any
	cancelled bool
	fired     bool
}

// Deadline returns the clock reading at which the timer becomes due.
func (t *Timer) Deadline() time.Duration { return t.deadline }

// Cancel prevents the timer from firing and removes it from the pending
// timers. No-op once it has fired.
func (t *Timer) Cancel() {
	if t.cancelled || t.fired {
		return
	}
	t.cancelled = true
	t.queue.remove(t)
}

// Fired reports whether the callback has run.
func (t *Timer) Fired() bool { return t.fired }

// timerQueue holds timers sorted by non-decreasing deadline.
type timerQueue struct {
	timers []*Timer
	due    []*Timer // reused buffer for expire
}

// add inserts t after every timer with a deadline <= t.deadline, so timers
// sharing a deadline fire in registration order.
func (q *timerQueue) add(t *Timer) {
	i := sort.Search(len(q.timers), func(i int) bool {
		return q.timers[i].deadline > t.deadline
	})
	q.timers = append(q.timers, nil)
	copy(q.timers[i+1:], q.timers[i:])
	q.timers[i] = t
}

// expire detaches every timer due at now and runs the callbacks in deadline
// order. Timers added by a callback wait for the next expire call.
func (q *timerQueue) expire(now time.Duration) int {
	n := 0
	for n < len(q.timers) && q.timers[n].deadline <= now {
		n++
	}
	if n == 0 {
		return 0
	}
	q.due = append(q.due[:0], q.timers[:n]...)
	copy(q.timers, q.timers[n:])
	for i := len(q.timers) - n; i < len(q.timers); i++ {
		q.timers[i] = nil
	}
	q.timers = q.timers[:len(q.timers)-n]

	fired := 0
	for i, t := range q.due {
		q.due[i] = nil
		if t.cancelled {
			continue
		}
		t.fired = true
		fired++
		t.fn()
	}
	return fired
}

// remove takes t out of the queue. Timers already detached by expire are not
// found; their cancelled flag keeps them from firing.
func (q *timerQueue) remove(t *Timer) {
	if i := slices.Index(q.timers, t); i >= 0 {
		q.timers = slices.Delete(q.timers, i, i+1)
	}
}

// drop cancels and removes every timer owned by a component in owners.
func (q *timerQueue) drop(owners map[*Base]bool) {
	q.timers = slices.DeleteFunc(q.timers, func(t *Timer) bool {
		if t.owner != nil && owners[t.owner] {
			t.cancelled = true
			return true
		}
		return false
	})
}

func (q *timerQueue) len() int { return len(q.timers) }

// AddTimer schedules fn to run once, at the first timer check at or after
// interval from now. A timer that is already overdue fires on the next check.
func (a *App) AddTimer(interval time.Duration, fn func()) *Timer {
	if fn == nil {
		panic("canopy: cannot add nil timer callback")
	}
	t := &Timer{
		deadline: a.clock.Now() + interval,
		fn:       fn,
		queue:    &a.timers,
		owner:    a.initOwner(),
	}
	a.timers.add(t)
	return t
}

// PendingTimers returns the number of timers waiting to fire. Cancelled
// timers are not counted.
func (a *App) PendingTimers() int {
	return a.timers.len()
}
