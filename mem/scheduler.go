package mem

import (
	"sort"
	"sync"
	"time"

	"bsid.es/despertador"
)

// DefaultMaxTimerDelay bounds a single timer sleep. Platform timers are not
// trusted with arbitrarily long delays; a pending firing further away than
// this sleeps in capped slices and re-checks the true target on each wake.
const DefaultMaxTimerDelay = 24 * time.Hour

// Scheduler keeps one pending firing per armed alarm id and invokes the
// trigger callback when an alarm's instant is reached. A repeating alarm is
// re-armed after every firing; a one-shot alarm becomes unscheduled.
//
// Now and MaxTimerDelay may be replaced before the first Arm call.
type Scheduler struct {
	Now           func() time.Time
	MaxTimerDelay time.Duration

	onFire despertador.TriggerFunc

	mu      sync.Mutex
	pending map[string]*pending
}

// pending is one armed alarm: the snapshot taken at Arm time, the instant
// it will fire at, and the channel that aborts its wait goroutine. An entry
// stays in the map while its callback runs so that Cancel and Arm calls
// made from inside the callback are observed by the fire path.
type pending struct {
	alarm  despertador.Alarm
	target time.Time
	stop   chan struct{}
}

func NewScheduler(onFire despertador.TriggerFunc) *Scheduler {
	return &Scheduler{
		Now:           time.Now,
		MaxTimerDelay: DefaultMaxTimerDelay,
		onFire:        onFire,
		pending:       make(map[string]*pending),
	}
}

var _ despertador.Scheduler = (*Scheduler)(nil)

// Arm (re)schedules the alarm's next occurrence. If the id is already
// pending, the prior timer is cancelled first, so at most one firing stays
// pending per id. An inactive alarm is treated as a cancellation.
func (s *Scheduler) Arm(alarm despertador.Alarm) {
	if !alarm.Active {
		s.Cancel(alarm.ID)
		return
	}
	target := alarm.NextOccurrence(s.Now())

	s.mu.Lock()
	defer s.mu.Unlock()
	s.replaceLocked(alarm, target)
}

// Cancel clears any pending firing for id. Unknown ids are a no-op. Safe to
// call from inside the trigger callback; cancelling the firing alarm there
// suppresses its re-arm.
func (s *Scheduler) Cancel(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(id)
}

// CancelAll releases every pending timer.
func (s *Scheduler) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.pending {
		s.removeLocked(id)
	}
}

// PendingIDs returns the ids with a pending firing, sorted.
func (s *Scheduler) PendingIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.pending))
	for id := range s.pending {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// PendingAt returns the instant the pending firing for id targets.
func (s *Scheduler) PendingAt(id string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.pending[id]; ok {
		return p.target, true
	}
	return time.Time{}, false
}

// replaceLocked atomically swaps any prior entry for the alarm's id with a
// freshly armed one. Must be called with s.mu held.
func (s *Scheduler) replaceLocked(alarm despertador.Alarm, target time.Time) {
	s.removeLocked(alarm.ID)
	p := &pending{
		alarm:  alarm,
		target: target,
		stop:   make(chan struct{}),
	}
	s.pending[alarm.ID] = p
	go s.wait(p)
}

// removeLocked drops the entry for id, if any, and aborts its wait
// goroutine. Must be called with s.mu held. Entries are only ever closed
// here, right as they leave the map, so stop is never closed twice.
func (s *Scheduler) removeLocked(id string) {
	if p, ok := s.pending[id]; ok {
		delete(s.pending, id)
		close(p.stop)
	}
}

// wait sleeps until p's target instant, capping each individual timer at
// MaxTimerDelay and re-checking the remaining delay on every wake. The
// callback runs only once the true delay has fully elapsed; a past-due
// target fires immediately.
func (s *Scheduler) wait(p *pending) {
	for {
		remaining := p.target.Sub(s.Now())
		if remaining <= 0 {
			break
		}
		if remaining > s.MaxTimerDelay {
			remaining = s.MaxTimerDelay
		}
		timer := time.NewTimer(remaining)
		select {
		case <-p.stop:
			timer.Stop()
			return
		case <-timer.C:
		}
	}
	s.fire(p)
}

func (s *Scheduler) fire(p *pending) {
	id := p.alarm.ID

	s.mu.Lock()
	if s.pending[id] != p {
		// Superseded by a re-arm, or cancelled while waking up.
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	s.trigger(p.alarm)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending[id] != p {
		// The callback cancelled or re-armed this id; its decision wins.
		return
	}
	delete(s.pending, id)
	close(p.stop)

	if p.alarm.Repeat == despertador.RepeatNone {
		return
	}

	// Re-arm the subsequent occurrence. The computation anchors at the
	// original trigger time, not at "now", so late or slow firings don't
	// accumulate drift.
	ref := p.target
	if now := s.Now(); now.After(ref) {
		ref = now
	}
	s.replaceLocked(p.alarm, despertador.NextOccurrence(p.alarm.TriggerTime, p.alarm.Repeat, ref))
}

// trigger invokes the callback, confining any panic to the firing alarm so
// one failing notification can't unschedule the rest of the collection.
func (s *Scheduler) trigger(alarm despertador.Alarm) {
	defer func() {
		_ = recover()
	}()
	if s.onFire != nil {
		s.onFire(alarm)
	}
}
