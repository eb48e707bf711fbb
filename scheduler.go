package despertador

import (
	"context"
)

// TriggerFunc is invoked once per alarm occurrence. The alarm value is the
// snapshot that was armed, not a live record.
type TriggerFunc func(alarm Alarm)

// Scheduler keeps at most one pending firing per alarm id and invokes its
// trigger callback when an alarm's instant is reached. Implementations live
// in the mem package.
type Scheduler interface {
	// Arm (re)schedules the alarm's next occurrence. Arming an id that is
	// already pending replaces the prior timer, so Arm is idempotent and
	// safe to call repeatedly during reconciliation.
	Arm(alarm Alarm)

	// Cancel clears any pending firing for id. Unknown ids are a no-op.
	Cancel(id string)

	// CancelAll releases every pending timer. Meant for teardown.
	CancelAll()

	// PendingIDs returns the ids with a pending firing, sorted.
	PendingIDs() []string
}

// Store is the alarm persistence adapter. The scheduler itself never touches
// it; the owning layer loads records from a Store and hands them to the
// scheduler.
type Store interface {
	Alarms(ctx context.Context) ([]Alarm, error)
	Alarm(ctx context.Context, id string) (Alarm, error)
	CreateAlarm(ctx context.Context, alarm *Alarm) error
	UpdateAlarm(ctx context.Context, alarm *Alarm) error
	DeleteAlarm(ctx context.Context, id string) error
	SetAlarmActive(ctx context.Context, id string, active bool) error
}

// Reconcile brings the scheduler's pending set back in sync with the given
// alarm collection: pending firings for removed or deactivated ids are
// cancelled and every active alarm is (re)armed. Afterwards the pending set
// equals exactly the set of active ids, each at its true next occurrence.
func Reconcile(sched Scheduler, alarms []Alarm) {
	active := make(map[string]bool, len(alarms))
	for _, a := range alarms {
		if a.Active {
			active[a.ID] = true
		}
	}
	for _, id := range sched.PendingIDs() {
		if !active[id] {
			sched.Cancel(id)
		}
	}
	for _, a := range alarms {
		if a.Active {
			sched.Arm(a)
		}
	}
}
