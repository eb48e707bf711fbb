// Package notify delivers fired alarms to the user. Notifiers are invoked
// by the owning layer's trigger callback; a failing notifier never reaches
// back into the schedule.
package notify

import (
	"context"
	"errors"
	"log/slog"

	"bsid.es/despertador"
)

// Notifier delivers one fired alarm.
type Notifier interface {
	Notify(ctx context.Context, alarm despertador.Alarm) error
}

// LogNotifier writes firings to the structured log.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n *LogNotifier) Notify(ctx context.Context, alarm despertador.Alarm) error {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("alarm fired",
		"id", alarm.ID,
		"title", alarm.Title,
		"at", alarm.TriggerTime,
		"repeat", alarm.Repeat,
	)
	return nil
}

// Multi fans a firing out to several notifiers. Every notifier is attempted;
// errors are joined.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, alarm despertador.Alarm) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, alarm); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
