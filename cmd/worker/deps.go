package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"

	"team_pulse_worker/internal/app"
	"team_pulse_worker/internal/infra/config"
	idb "team_pulse_worker/internal/infra/database"
	"team_pulse_worker/internal/infra/logger"
	"team_pulse_worker/internal/infra/scheduler"
	"team_pulse_worker/internal/infra/telegram"
)

// worker holds everything a subcommand needs, wired once.
type worker struct {
	cfg       *config.AppConfig
	log       *logrus.Logger
	db        *sql.DB
	bot       *telebot.Bot // nil without TELEGRAM_TOKEN
	cycles    *app.CycleManager
	alerts    *app.AlertEngine
	admin     *app.AdminService
	prefs     *app.PreferenceService
	scheduler *scheduler.Scheduler
}

func bootstrap(ctx context.Context) (*worker, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("could not load application configuration: %w", err)
	}
	log := logger.Init(cfg)
	log.WithFields(logrus.Fields{
		"environment": cfg.Environment,
		"cron_spec":   cfg.CronSpecTick,
		"workers":     cfg.WorkerConcurrency,
	}).Info("Configuration loaded")

	db, err := idb.NewPostgresConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("could not connect to database: %w", err)
	}
	log.Info("Database connection established successfully.")

	w := &worker{cfg: cfg, log: log, db: db}

	goalRepo := idb.NewPostgresGoalRepository(db)
	clientRepo := idb.NewPostgresClientRepository(db)
	directory := idb.NewPostgresSubscriberDirectory(db)
	ledger := idb.NewPostgresNotificationRepository(db)

	var dispatcher app.Dispatcher
	if cfg.TelegramToken != "" {
		w.bot, err = newBot(cfg.TelegramToken, logger.ForComponent("telebot"))
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("could not create Telegram bot: %w", err)
		}
		dispatcher = telegram.NewNotificationDispatcher(telegram.NewTelebotAdapter(w.bot), logger.ForComponent("dispatcher"))
		log.Info("Telegram push delivery enabled.")
	} else {
		log.Info("TELEGRAM_TOKEN not set, notifications stay in the inbox only.")
	}

	w.cycles = app.NewCycleManager(goalRepo, logger.ForComponent("cycle_manager"), cfg.WorkerConcurrency)
	w.alerts = app.NewAlertEngine(clientRepo, directory, ledger, dispatcher, cfg.AlertRules,
		logger.ForComponent("alert_engine"), cfg.WorkerConcurrency)
	w.admin = app.NewAdminService(w.cycles, w.alerts, cfg.AdminTelegramID)
	w.prefs = app.NewPreferenceService(directory)
	w.scheduler = scheduler.NewScheduler(w.cycles, w.alerts, logger.ForComponent("scheduler"),
		cfg.CronSpecTick, cfg.PassTimeout)
	return w, nil
}

func (w *worker) Close() {
	if err := w.db.Close(); err != nil {
		w.log.WithError(err).Warn("Failed to close database connection")
	}
}

func newBot(token string, log *logrus.Entry) (*telebot.Bot, error) {
	return telebot.NewBot(telebot.Settings{
		Token:  token,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c telebot.Context) {
			entry := log.WithError(err)
			if c != nil && c.Sender() != nil {
				entry = entry.WithField("sender_id", c.Sender().ID)
			}
			entry.Error("Telegram handler error")
		},
	})
}
