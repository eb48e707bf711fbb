package sqlite

import (
	"context"
	"time"

	"crawshaw.io/sqlite"
	"crawshaw.io/sqlite/sqlitex"

	"bsid.es/despertador"
)

// Store persists alarms in a sqlite database. Times are stored as RFC 3339
// text so that the trigger time's zone offset survives a round trip.
type Store struct {
	Now func() time.Time

	pool *sqlitex.Pool
}

func NewStore(pool *sqlitex.Pool) *Store {
	return &Store{
		Now:  time.Now,
		pool: pool,
	}
}

var _ despertador.Store = (*Store)(nil)

const alarmColumns = "id, title, description, trigger_time, repeat, repeat_value, sound_enabled, active, created_at, updated_at"

func (s *Store) Alarms(ctx context.Context) ([]despertador.Alarm, error) {
	conn := s.pool.Get(ctx)
	if conn == nil {
		return nil, ctx.Err()
	}
	defer s.pool.Put(conn)

	var alarms []despertador.Alarm
	err := sqlitex.Exec(conn,
		"select "+alarmColumns+" from alarm order by trigger_time, id",
		func(stmt *sqlite.Stmt) error {
			a, err := scanAlarm(stmt)
			if err != nil {
				return err
			}
			alarms = append(alarms, a)
			return nil
		})
	if err != nil {
		return nil, despertador.Errorf(despertador.ErrInternal, "list alarms: %v", err)
	}
	return alarms, nil
}

func (s *Store) Alarm(ctx context.Context, id string) (despertador.Alarm, error) {
	conn := s.pool.Get(ctx)
	if conn == nil {
		return despertador.Alarm{}, ctx.Err()
	}
	defer s.pool.Put(conn)

	var alarm despertador.Alarm
	found := false
	err := sqlitex.Exec(conn,
		"select "+alarmColumns+" from alarm where id = ?",
		func(stmt *sqlite.Stmt) error {
			a, err := scanAlarm(stmt)
			if err != nil {
				return err
			}
			alarm, found = a, true
			return nil
		}, id)
	if err != nil {
		return despertador.Alarm{}, despertador.Errorf(despertador.ErrInternal, "get alarm %q: %v", id, err)
	}
	if !found {
		return despertador.Alarm{}, despertador.Errorf(despertador.ErrNotFound, "alarm %q not found", id)
	}
	return alarm, nil
}

func (s *Store) CreateAlarm(ctx context.Context, alarm *despertador.Alarm) error {
	if err := alarm.Validate(); err != nil {
		return err
	}
	conn := s.pool.Get(ctx)
	if conn == nil {
		return ctx.Err()
	}
	defer s.pool.Put(conn)

	now := s.Now()
	if alarm.CreatedAt.IsZero() {
		alarm.CreatedAt = now
	}
	alarm.UpdatedAt = now

	err := sqlitex.Exec(conn,
		"insert into alarm ("+alarmColumns+") values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		nil,
		alarm.ID,
		alarm.Title,
		alarm.Description,
		formatTime(alarm.TriggerTime),
		string(alarm.Repeat),
		alarm.RepeatValue,
		boolInt(alarm.SoundEnabled),
		boolInt(alarm.Active),
		formatTime(alarm.CreatedAt),
		formatTime(alarm.UpdatedAt),
	)
	if err != nil {
		return despertador.Errorf(despertador.ErrInternal, "create alarm %q: %v", alarm.ID, err)
	}
	return nil
}

func (s *Store) UpdateAlarm(ctx context.Context, alarm *despertador.Alarm) error {
	if err := alarm.Validate(); err != nil {
		return err
	}
	conn := s.pool.Get(ctx)
	if conn == nil {
		return ctx.Err()
	}
	defer s.pool.Put(conn)

	alarm.UpdatedAt = s.Now()
	err := sqlitex.Exec(conn,
		`update alarm set
			title = ?, description = ?, trigger_time = ?, repeat = ?,
			repeat_value = ?, sound_enabled = ?, active = ?, updated_at = ?
		where id = ?`,
		nil,
		alarm.Title,
		alarm.Description,
		formatTime(alarm.TriggerTime),
		string(alarm.Repeat),
		alarm.RepeatValue,
		boolInt(alarm.SoundEnabled),
		boolInt(alarm.Active),
		formatTime(alarm.UpdatedAt),
		alarm.ID,
	)
	if err != nil {
		return despertador.Errorf(despertador.ErrInternal, "update alarm %q: %v", alarm.ID, err)
	}
	if conn.Changes() == 0 {
		return despertador.Errorf(despertador.ErrNotFound, "alarm %q not found", alarm.ID)
	}
	return nil
}

func (s *Store) DeleteAlarm(ctx context.Context, id string) error {
	conn := s.pool.Get(ctx)
	if conn == nil {
		return ctx.Err()
	}
	defer s.pool.Put(conn)

	if err := sqlitex.Exec(conn, "delete from alarm where id = ?", nil, id); err != nil {
		return despertador.Errorf(despertador.ErrInternal, "delete alarm %q: %v", id, err)
	}
	if conn.Changes() == 0 {
		return despertador.Errorf(despertador.ErrNotFound, "alarm %q not found", id)
	}
	return nil
}

func (s *Store) SetAlarmActive(ctx context.Context, id string, active bool) error {
	conn := s.pool.Get(ctx)
	if conn == nil {
		return ctx.Err()
	}
	defer s.pool.Put(conn)

	err := sqlitex.Exec(conn,
		"update alarm set active = ?, updated_at = ? where id = ?",
		nil, boolInt(active), formatTime(s.Now()), id)
	if err != nil {
		return despertador.Errorf(despertador.ErrInternal, "toggle alarm %q: %v", id, err)
	}
	if conn.Changes() == 0 {
		return despertador.Errorf(despertador.ErrNotFound, "alarm %q not found", id)
	}
	return nil
}

// PurgeInactiveBefore removes retired one-shot alarms whose trigger time is
// before cutoff and reports how many rows were dropped.
func (s *Store) PurgeInactiveBefore(ctx context.Context, cutoff time.Time) (int, error) {
	conn := s.pool.Get(ctx)
	if conn == nil {
		return 0, ctx.Err()
	}
	defer s.pool.Put(conn)

	err := sqlitex.Exec(conn,
		"delete from alarm where active = 0 and repeat = ? and trigger_time < ?",
		nil, string(despertador.RepeatNone), formatTime(cutoff))
	if err != nil {
		return 0, despertador.Errorf(despertador.ErrInternal, "purge alarms: %v", err)
	}
	return conn.Changes(), nil
}

func scanAlarm(stmt *sqlite.Stmt) (despertador.Alarm, error) {
	triggerTime, err := parseTime(stmt.ColumnText(3))
	if err != nil {
		return despertador.Alarm{}, err
	}
	createdAt, err := parseTime(stmt.ColumnText(8))
	if err != nil {
		return despertador.Alarm{}, err
	}
	updatedAt, err := parseTime(stmt.ColumnText(9))
	if err != nil {
		return despertador.Alarm{}, err
	}
	return despertador.Alarm{
		ID:           stmt.ColumnText(0),
		Title:        stmt.ColumnText(1),
		Description:  stmt.ColumnText(2),
		TriggerTime:  triggerTime,
		Repeat:       despertador.RepeatType(stmt.ColumnText(4)),
		RepeatValue:  stmt.ColumnInt(5),
		SoundEnabled: stmt.ColumnInt(6) != 0,
		Active:       stmt.ColumnInt(7) != 0,
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}, nil
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
