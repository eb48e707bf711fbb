package mem_test

import (
	"context"
	"testing"
	"time"

	"bsid.es/despertador"
	"bsid.es/despertador/mem"
)

var storeNow = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

func newTestStore() *mem.Store {
	s := mem.NewStore()
	s.Now = func() time.Time { return storeNow }
	return s
}

func TestStoreCRUD(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	alarm := despertador.Alarm{
		ID:           "a1",
		Title:        "wake up",
		TriggerTime:  storeNow.Add(time.Hour),
		Repeat:       despertador.RepeatDaily,
		SoundEnabled: true,
		Active:       true,
	}
	if err := s.CreateAlarm(ctx, &alarm); err != nil {
		t.Fatal(err)
	}
	if alarm.CreatedAt.IsZero() || alarm.UpdatedAt.IsZero() {
		t.Error("audit timestamps not stamped on create")
	}
	if err := s.CreateAlarm(ctx, &alarm); despertador.ErrorCode(err) != despertador.ErrInvalid {
		t.Errorf("duplicate create: wrong error %v", err)
	}

	got, err := s.Alarm(ctx, "a1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "wake up" {
		t.Errorf("wrong title %q", got.Title)
	}

	got.Title = "wake up!!"
	if err := s.UpdateAlarm(ctx, &got); err != nil {
		t.Fatal(err)
	}
	got, err = s.Alarm(ctx, "a1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "wake up!!" {
		t.Errorf("update not persisted, title %q", got.Title)
	}

	if err := s.SetAlarmActive(ctx, "a1", false); err != nil {
		t.Fatal(err)
	}
	got, _ = s.Alarm(ctx, "a1")
	if got.Active {
		t.Error("alarm still active after SetAlarmActive(false)")
	}

	if err := s.DeleteAlarm(ctx, "a1"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Alarm(ctx, "a1"); despertador.ErrorCode(err) != despertador.ErrNotFound {
		t.Errorf("wrong error after delete: %v", err)
	}
	if err := s.DeleteAlarm(ctx, "a1"); despertador.ErrorCode(err) != despertador.ErrNotFound {
		t.Errorf("double delete: wrong error %v", err)
	}
}

func TestStoreListOrder(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	late := despertador.Alarm{ID: "late", TriggerTime: storeNow.Add(2 * time.Hour), Repeat: despertador.RepeatNone}
	early := despertador.Alarm{ID: "early", TriggerTime: storeNow.Add(time.Hour), Repeat: despertador.RepeatNone}
	if err := s.CreateAlarm(ctx, &late); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateAlarm(ctx, &early); err != nil {
		t.Fatal(err)
	}

	alarms, err := s.Alarms(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(alarms) != 2 || alarms[0].ID != "early" || alarms[1].ID != "late" {
		t.Errorf("wrong order: %v", alarms)
	}
}

func TestStorePurgeInactiveBefore(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	old := despertador.Alarm{ID: "old", TriggerTime: storeNow.AddDate(0, 0, -30), Repeat: despertador.RepeatNone}
	recent := despertador.Alarm{ID: "recent", TriggerTime: storeNow.AddDate(0, 0, -1), Repeat: despertador.RepeatNone}
	repeating := despertador.Alarm{ID: "rep", TriggerTime: storeNow.AddDate(0, 0, -30), Repeat: despertador.RepeatDaily}
	for _, a := range []*despertador.Alarm{&old, &recent, &repeating} {
		if err := s.CreateAlarm(ctx, a); err != nil {
			t.Fatal(err)
		}
	}

	cutoff := storeNow.AddDate(0, 0, -7)
	n, err := s.PurgeInactiveBefore(ctx, cutoff)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("purged %d alarms, want 1", n)
	}
	if _, err := s.Alarm(ctx, "old"); despertador.ErrorCode(err) != despertador.ErrNotFound {
		t.Error("old one-shot alarm survived the purge")
	}
	if _, err := s.Alarm(ctx, "recent"); err != nil {
		t.Error("recent alarm was purged")
	}
	if _, err := s.Alarm(ctx, "rep"); err != nil {
		t.Error("repeating alarm was purged")
	}
}
