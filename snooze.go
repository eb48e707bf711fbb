package despertador

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Snooze retires the given alarm and replaces it with a one-shot alarm due
// at now+d. The original record is deactivated (its pending firing, if any,
// cancelled) and a fresh record carrying the same title, description and
// sound setting is created and armed. From the scheduler's point of view
// this is plain cancel-old / arm-new; there is no snooze state.
func Snooze(ctx context.Context, store Store, sched Scheduler, id string, d time.Duration, now time.Time) (Alarm, error) {
	orig, err := store.Alarm(ctx, id)
	if err != nil {
		return Alarm{}, err
	}
	if err := store.SetAlarmActive(ctx, id, false); err != nil {
		return Alarm{}, err
	}
	sched.Cancel(id)

	snoozed := Alarm{
		ID:           uuid.NewString(),
		Title:        orig.Title,
		Description:  orig.Description,
		TriggerTime:  now.Add(d),
		Repeat:       RepeatNone,
		SoundEnabled: orig.SoundEnabled,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := store.CreateAlarm(ctx, &snoozed); err != nil {
		return Alarm{}, err
	}
	sched.Arm(snoozed)
	return snoozed, nil
}
