package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"crawshaw.io/sqlite/sqlitex"

	"bsid.es/despertador"
	dsqlite "bsid.es/despertador/sqlite"
	"bsid.es/despertador/sqlite/migration"
)

var storeNow = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

func newTestStore(tb testing.TB) *dsqlite.Store {
	tb.Helper()
	pool, err := sqlitex.Open(filepath.Join(tb.TempDir(), "alarms.db"), 0, 2)
	if err != nil {
		tb.Fatal(err)
	}
	tb.Cleanup(func() {
		if err := pool.Close(); err != nil {
			tb.Error(err)
		}
	})

	conn := pool.Get(context.Background())
	err = dsqlite.Migrate(conn, migration.Scripts)
	pool.Put(conn)
	if err != nil {
		tb.Fatal(err)
	}

	store := dsqlite.NewStore(pool)
	store.Now = func() time.Time { return storeNow }
	return store
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	loc := time.FixedZone("CET", 60*60)
	alarm := despertador.Alarm{
		ID:           "a1",
		Title:        "wake up",
		Description:  "first coffee",
		TriggerTime:  time.Date(2025, 3, 1, 7, 30, 0, 0, loc),
		Repeat:       despertador.RepeatWeekly,
		RepeatValue:  0,
		SoundEnabled: true,
		Active:       true,
	}
	if err := store.CreateAlarm(ctx, &alarm); err != nil {
		t.Fatal(err)
	}

	got, err := store.Alarm(ctx, "a1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != alarm.Title || got.Description != alarm.Description {
		t.Errorf("wrong strings\ngot:  %q %q\nwant: %q %q", got.Title, got.Description, alarm.Title, alarm.Description)
	}
	if !got.TriggerTime.Equal(alarm.TriggerTime) {
		t.Errorf("wrong trigger time\ngot:  %v\nwant: %v", got.TriggerTime, alarm.TriggerTime)
	}
	// The zone offset must survive the round trip; recurrence preserves
	// the wall clock in the trigger's own zone.
	if _, gotOff := got.TriggerTime.Zone(); gotOff != 60*60 {
		t.Errorf("zone offset lost: %d", gotOff)
	}
	if got.Repeat != despertador.RepeatWeekly || !got.SoundEnabled || !got.Active {
		t.Errorf("wrong flags: %+v", got)
	}
	if !got.CreatedAt.Equal(storeNow) || !got.UpdatedAt.Equal(storeNow) {
		t.Errorf("wrong audit timestamps: %v %v", got.CreatedAt, got.UpdatedAt)
	}
}

func TestStoreUpdateDelete(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	alarm := despertador.Alarm{
		ID:          "a1",
		Title:       "stretch",
		TriggerTime: storeNow.Add(time.Hour),
		Repeat:      despertador.RepeatNone,
		Active:      true,
	}
	if err := store.CreateAlarm(ctx, &alarm); err != nil {
		t.Fatal(err)
	}

	alarm.Title = "stretch properly"
	alarm.Repeat = despertador.RepeatDaily
	if err := store.UpdateAlarm(ctx, &alarm); err != nil {
		t.Fatal(err)
	}
	got, err := store.Alarm(ctx, "a1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "stretch properly" || got.Repeat != despertador.RepeatDaily {
		t.Errorf("update not persisted: %+v", got)
	}

	missing := despertador.Alarm{
		ID:          "missing",
		Title:       "x",
		TriggerTime: storeNow,
		Repeat:      despertador.RepeatNone,
	}
	if err := store.UpdateAlarm(ctx, &missing); despertador.ErrorCode(err) != despertador.ErrNotFound {
		t.Errorf("update of unknown alarm: wrong error %v", err)
	}

	if err := store.DeleteAlarm(ctx, "a1"); err != nil {
		t.Fatal(err)
	}
	if err := store.DeleteAlarm(ctx, "a1"); despertador.ErrorCode(err) != despertador.ErrNotFound {
		t.Errorf("double delete: wrong error %v", err)
	}
	if _, err := store.Alarm(ctx, "a1"); despertador.ErrorCode(err) != despertador.ErrNotFound {
		t.Errorf("get after delete: wrong error %v", err)
	}
}

func TestStoreSetAlarmActive(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	alarm := despertador.Alarm{
		ID:          "a1",
		Title:       "nap over",
		TriggerTime: storeNow.Add(time.Hour),
		Repeat:      despertador.RepeatNone,
		Active:      true,
	}
	if err := store.CreateAlarm(ctx, &alarm); err != nil {
		t.Fatal(err)
	}

	if err := store.SetAlarmActive(ctx, "a1", false); err != nil {
		t.Fatal(err)
	}
	got, err := store.Alarm(ctx, "a1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Active {
		t.Error("alarm still active")
	}

	if err := store.SetAlarmActive(ctx, "missing", true); despertador.ErrorCode(err) != despertador.ErrNotFound {
		t.Errorf("toggle of unknown alarm: wrong error %v", err)
	}
}

func TestStorePurgeInactiveBefore(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	alarms := []despertador.Alarm{
		{ID: "old", Title: "x", TriggerTime: storeNow.AddDate(0, 0, -30), Repeat: despertador.RepeatNone},
		{ID: "recent", Title: "x", TriggerTime: storeNow.AddDate(0, 0, -1), Repeat: despertador.RepeatNone},
		{ID: "rep", Title: "x", TriggerTime: storeNow.AddDate(0, 0, -30), Repeat: despertador.RepeatDaily},
		{ID: "live", Title: "x", TriggerTime: storeNow.AddDate(0, 0, -30), Repeat: despertador.RepeatNone, Active: true},
	}
	for i := range alarms {
		if err := store.CreateAlarm(ctx, &alarms[i]); err != nil {
			t.Fatal(err)
		}
	}

	n, err := store.PurgeInactiveBefore(ctx, storeNow.AddDate(0, 0, -7))
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("purged %d rows, want 1", n)
	}

	left, err := store.Alarms(ctx)
	if err != nil {
		t.Fatal(err)
	}
	for _, a := range left {
		if a.ID == "old" {
			t.Error("old one-shot alarm survived the purge")
		}
	}
	if len(left) != 3 {
		t.Errorf("%d alarms left, want 3", len(left))
	}
}
