package despertador

import (
	"time"
)

// RepeatType governs the recurrence arithmetic of an alarm.
type RepeatType string

const (
	RepeatNone    RepeatType = "none"
	RepeatDaily   RepeatType = "daily"
	RepeatWeekly  RepeatType = "weekly"
	RepeatMonthly RepeatType = "monthly"
)

func (r RepeatType) Valid() bool {
	switch r {
	case RepeatNone, RepeatDaily, RepeatWeekly, RepeatMonthly:
		return true
	}
	return false
}

// Alarm is the unit the scheduler works with. Title and Description are
// opaque display strings. TriggerTime is the first (or most recently
// defined) occurrence; recurring occurrences are derived from it.
type Alarm struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	TriggerTime  time.Time  `json:"triggerTime"`
	Repeat       RepeatType `json:"repeatType"`
	RepeatValue  int        `json:"repeatValue,omitempty"` // reserved
	SoundEnabled bool       `json:"soundEnabled"`
	Active       bool       `json:"isActive"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

func (a *Alarm) Validate() (err error) {
	switch {
	case a.ID == "":
		return Errorf(ErrInvalid, "alarm id is empty")
	case a.TriggerTime.IsZero():
		return Errorf(ErrInvalid, "trigger time is not set")
	case !a.Repeat.Valid():
		return Errorf(ErrInvalid, "unknown repeat type %q", a.Repeat)
	}
	return nil
}

// NextOccurrence returns the alarm's next occurrence strictly after now.
// See the package-level NextOccurrence for the exact semantics.
func (a Alarm) NextOccurrence(now time.Time) time.Time {
	return NextOccurrence(a.TriggerTime, a.Repeat, now)
}

// NextOccurrence computes the first occurrence of the repetition rule that
// is strictly after now.
//
// For RepeatNone the trigger time is returned unchanged, past or future;
// detecting the past-due case is the caller's job. Unrecognized repeat
// types behave like RepeatNone so the function stays total; repeat types
// are validated at the data-entry boundary instead.
//
// Recurring occurrences are anchored at trigger: the n-th occurrence is
// trigger advanced by n whole periods, never an intermediate result
// advanced again, so wall-clock hour/minute and the monthly day-of-month
// anchor are preserved without cumulative drift. Months use calendar
// semantics via time.AddDate, which normalizes overflow: a day-31 alarm
// stepping into a shorter month rolls into the next month (Jan 31 plus
// one month is Mar 2 or 3), then returns to the 31st on later steps.
func NextOccurrence(trigger time.Time, repeat RepeatType, now time.Time) time.Time {
	if trigger.After(now) {
		return trigger
	}

	var occurrence func(n int) time.Time
	switch repeat {
	case RepeatDaily:
		occurrence = func(n int) time.Time { return trigger.AddDate(0, 0, n) }
	case RepeatWeekly:
		occurrence = func(n int) time.Time { return trigger.AddDate(0, 0, 7*n) }
	case RepeatMonthly:
		occurrence = func(n int) time.Time { return trigger.AddDate(0, n, 0) }
	default:
		return trigger
	}

	// Skip ahead using an overestimate of the period length, then walk
	// forward to the first strictly-future occurrence. Starting below the
	// true step count keeps the result minimal.
	n := stepEstimate(trigger, repeat, now)
	for !occurrence(n).After(now) {
		n++
	}
	return occurrence(n)
}

func stepEstimate(trigger time.Time, repeat RepeatType, now time.Time) int {
	elapsed := now.Sub(trigger)
	if elapsed <= 0 {
		return 0
	}
	var period time.Duration
	switch repeat {
	case RepeatDaily:
		period = 25 * time.Hour
	case RepeatWeekly:
		period = 7*24*time.Hour + time.Hour
	case RepeatMonthly:
		period = 32 * 24 * time.Hour
	}
	return int(elapsed / period)
}

// Occurrences lists up to count occurrences of the alarm strictly after
// now, in order. A one-shot alarm yields at most one entry, and none at
// all once its trigger time has passed.
func Occurrences(a Alarm, now time.Time, count int) []time.Time {
	var out []time.Time
	ref := now
	for len(out) < count {
		next := a.NextOccurrence(ref)
		if !next.After(ref) {
			break
		}
		out = append(out, next)
		if a.Repeat == RepeatNone {
			break
		}
		ref = next
	}
	return out
}
