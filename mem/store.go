package mem

import (
	"context"
	"sort"
	"sync"
	"time"

	"bsid.es/despertador"
)

// Store is a map-backed alarm store. It backs tests and ephemeral setups;
// durable storage lives in the sqlite package.
type Store struct {
	Now func() time.Time

	mu     sync.RWMutex
	alarms map[string]despertador.Alarm
}

func NewStore() *Store {
	return &Store{
		Now:    time.Now,
		alarms: make(map[string]despertador.Alarm),
	}
}

var _ despertador.Store = (*Store)(nil)

func (s *Store) Alarms(ctx context.Context) ([]despertador.Alarm, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	alarms := make([]despertador.Alarm, 0, len(s.alarms))
	for _, a := range s.alarms {
		alarms = append(alarms, a)
	}
	sort.Slice(alarms, func(i, j int) bool {
		if !alarms[i].TriggerTime.Equal(alarms[j].TriggerTime) {
			return alarms[i].TriggerTime.Before(alarms[j].TriggerTime)
		}
		return alarms[i].ID < alarms[j].ID
	})
	return alarms, nil
}

func (s *Store) Alarm(ctx context.Context, id string) (despertador.Alarm, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.alarms[id]
	if !ok {
		return despertador.Alarm{}, despertador.Errorf(despertador.ErrNotFound, "alarm %q not found", id)
	}
	return a, nil
}

func (s *Store) CreateAlarm(ctx context.Context, alarm *despertador.Alarm) error {
	if err := alarm.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.alarms[alarm.ID]; ok {
		return despertador.Errorf(despertador.ErrInvalid, "alarm %q already exists", alarm.ID)
	}
	now := s.Now()
	if alarm.CreatedAt.IsZero() {
		alarm.CreatedAt = now
	}
	alarm.UpdatedAt = now
	s.alarms[alarm.ID] = *alarm
	return nil
}

func (s *Store) UpdateAlarm(ctx context.Context, alarm *despertador.Alarm) error {
	if err := alarm.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.alarms[alarm.ID]
	if !ok {
		return despertador.Errorf(despertador.ErrNotFound, "alarm %q not found", alarm.ID)
	}
	alarm.CreatedAt = prev.CreatedAt
	alarm.UpdatedAt = s.Now()
	s.alarms[alarm.ID] = *alarm
	return nil
}

func (s *Store) DeleteAlarm(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.alarms[id]; !ok {
		return despertador.Errorf(despertador.ErrNotFound, "alarm %q not found", id)
	}
	delete(s.alarms, id)
	return nil
}

func (s *Store) SetAlarmActive(ctx context.Context, id string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.alarms[id]
	if !ok {
		return despertador.Errorf(despertador.ErrNotFound, "alarm %q not found", id)
	}
	a.Active = active
	a.UpdatedAt = s.Now()
	s.alarms[id] = a
	return nil
}

// PurgeInactiveBefore removes retired one-shot alarms whose trigger time is
// before cutoff and reports how many were dropped.
func (s *Store) PurgeInactiveBefore(ctx context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, a := range s.alarms {
		if !a.Active && a.Repeat == despertador.RepeatNone && a.TriggerTime.Before(cutoff) {
			delete(s.alarms, id)
			n++
		}
	}
	return n, nil
}
