// Command despertador runs the alarm service: a sqlite-backed alarm store,
// the in-process firing schedule, notification playback and the REST API
// the web UI talks to.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crawshaw.io/sqlite/sqlitex"
	"github.com/robfig/cron/v3"

	"bsid.es/despertador"
	"bsid.es/despertador/config"
	"bsid.es/despertador/httpapi"
	"bsid.es/despertador/mem"
	"bsid.es/despertador/notify"
	dsqlite "bsid.es/despertador/sqlite"
	"bsid.es/despertador/sqlite/migration"
)

func main() {
	configPath := flag.String("config", "despertador.yaml", "path to the configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("despertador exited", "err", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := sqlitex.Open(cfg.Database, 0, 10)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer pool.Close()

	if err := migrate(ctx, pool); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	store := dsqlite.NewStore(pool)

	notifier := notify.Multi{&notify.LogNotifier{Logger: logger}}
	if !cfg.Mute {
		notifier = append(notifier, notify.NewSoundPlayer())
	}

	sched := mem.NewScheduler(func(alarm despertador.Alarm) {
		if err := notifier.Notify(ctx, alarm); err != nil {
			logger.Error("notify failed", "id", alarm.ID, "err", err)
		}
		if alarm.Repeat == despertador.RepeatNone {
			// One-shot alarms are done once they fire; retire the record
			// so a restart doesn't fire it again.
			if err := store.SetAlarmActive(ctx, alarm.ID, false); err != nil {
				logger.Error("retire fired alarm", "id", alarm.ID, "err", err)
			}
		}
	})
	defer sched.CancelAll()

	alarms, err := store.Alarms(ctx)
	if err != nil {
		return fmt.Errorf("load alarms: %w", err)
	}
	despertador.Reconcile(sched, alarms)
	logger.Info("schedule loaded", "alarms", len(alarms), "pending", len(sched.PendingIDs()))

	cr := cron.New()
	if _, err := cr.AddFunc(cfg.Maintenance, func() {
		maintain(ctx, store, sched, cfg.RetentionDays, logger)
	}); err != nil {
		return fmt.Errorf("maintenance schedule %q: %w", cfg.Maintenance, err)
	}
	cr.Start()
	defer cr.Stop()

	api := httpapi.NewServer(store, sched, logger, httpapi.Config{
		Debug:         cfg.Debug,
		EnableCORS:    true,
		DefaultSnooze: time.Duration(cfg.SnoozeMinutes) * time.Minute,
	})
	srv := &http.Server{Addr: cfg.Listen, Handler: api.Handler()}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("listening", "addr", cfg.Listen)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func migrate(ctx context.Context, pool *sqlitex.Pool) error {
	conn := pool.Get(ctx)
	if conn == nil {
		return ctx.Err()
	}
	defer pool.Put(conn)
	return dsqlite.Migrate(conn, migration.Scripts)
}

// maintain purges retired one-shot alarms past the retention window and
// re-syncs the schedule with the store.
func maintain(ctx context.Context, store *dsqlite.Store, sched despertador.Scheduler, retentionDays int, logger *slog.Logger) {
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	if n, err := store.PurgeInactiveBefore(ctx, cutoff); err != nil {
		logger.Error("maintenance: purge", "err", err)
	} else if n > 0 {
		logger.Info("maintenance: purged retired alarms", "count", n)
	}

	alarms, err := store.Alarms(ctx)
	if err != nil {
		logger.Error("maintenance: list alarms", "err", err)
		return
	}
	despertador.Reconcile(sched, alarms)
}
