package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"

	"study-planner/internal/api"
	"study-planner/internal/bot"
	"study-planner/internal/config"
	"study-planner/internal/logger"
	"study-planner/internal/oracle/gemini"
	"study-planner/internal/planner"
	"study-planner/internal/repository"
	"study-planner/internal/repository/mongostore"
	"study-planner/internal/service"
)

const (
	jobTimeout      = 5 * time.Minute
	shutdownTimeout = 10 * time.Second
	noOracleModel   = "none"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Fatalf("%+v", err)
	}
	log.Println("Shutdown complete.")
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "config")
	}

	appLog := newLogger(cfg)
	if r, ok := appLog.(*logger.RollbarLogger); ok {
		defer r.Flush()
	}

	stores, closeStores, err := openStores(ctx, cfg, appLog)
	if err != nil {
		return errors.Wrap(err, "store")
	}
	defer closeStores()

	clock := planner.SystemClock(cfg.Location)
	oracle, aiModel := planner.UnavailableOracle, noOracleModel
	if cfg.OracleEnabled() {
		g, err := gemini.New(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.OracleTimeout)
		if err != nil {
			return errors.Wrap(err, "gemini")
		}
		oracle, aiModel = g, g.Model()
	} else {
		appLog.Warn("GEMINI_API_KEY is not set, plans use the fallback schedule")
	}
	synth := planner.NewSynthesizer(oracle, planner.WithLogger(appLog))

	users := service.NewUserService(stores, clock, cfg.JWTSecret, appLog)
	assignments := service.NewAssignmentService(stores.Assignments, clock)
	plans := service.NewPlanService(service.PlanServiceOptions{
		Plans:       stores.Plans,
		Users:       stores.Users,
		Assignments: stores.Assignments,
		Synthesizer: synth,
		Clock:       clock,
		AIModel:     aiModel,
		Logger:      appLog,
	})
	reminders := service.NewReminderService(stores, plans, clock, appLog)

	var telegramBot *bot.Bot
	if cfg.TelegramToken != "" {
		telegramBot, err = bot.New(cfg.TelegramToken, bot.Services{
			Users:       users,
			Assignments: assignments,
			Plans:       plans,
			Reminders:   reminders,
			Clock:       clock,
			Logger:      appLog,
		})
		if err != nil {
			return errors.Wrap(err, "bot")
		}
		reminders.SetNotifier(telegramBot)
	}

	scheduler := service.NewSchedulerService(cfg.Location)
	if _, err := scheduler.ScheduleDaily(cfg.ReminderTime, func() {
		jobCtx, cancel := context.WithTimeout(ctx, jobTimeout)
		defer cancel()
		n, err := reminders.CheckDeadlines(jobCtx)
		if err != nil {
			appLog.Error("deadline check failed", err)
			return
		}
		appLog.Info("deadline check done", n)
		if telegramBot != nil {
			if err := telegramBot.SendDailySummaries(jobCtx); err != nil {
				appLog.Error("daily summaries failed", err)
			}
		}
	}); err != nil {
		return errors.Wrap(err, "schedule deadline check")
	}
	if _, err := scheduler.ScheduleWeekly(time.Sunday, cfg.HabitsTime, func() {
		jobCtx, cancel := context.WithTimeout(ctx, jobTimeout)
		defer cancel()
		n, err := users.RefreshAllHabits(jobCtx)
		if err != nil {
			appLog.Error("habit analysis failed", err)
			return
		}
		appLog.Info("habit analysis done", n)
	}); err != nil {
		return errors.Wrap(err, "schedule habit analysis")
	}
	scheduler.Start()
	defer scheduler.Stop()

	srv := api.NewServer(&api.Options{
		Address:     cfg.HTTPAddr,
		Debug:       cfg.Debug,
		Secret:      cfg.JWTSecret,
		Users:       users,
		Assignments: assignments,
		Plans:       plans,
		Reminders:   reminders,
		Clock:       clock,
		Logger:      appLog,
	})
	errs := make(chan error, 2)
	go func() {
		appLog.Info("http server listening", cfg.HTTPAddr)
		errs <- errors.Wrap(srv.Start(), "http server")
	}()
	if telegramBot != nil {
		go func() {
			errs <- errors.Wrap(telegramBot.Start(ctx), "bot")
		}()
	}

	appLog.Info("study planner started")
	select {
	case <-ctx.Done():
	case err = <-errs:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if stopErr := srv.Stop(shutdownCtx); stopErr != nil {
		appLog.Error("http shutdown", stopErr)
	}
	return err
}

func newLogger(cfg config.Config) logger.Logger {
	local := logger.New(os.Stdout, cfg.Debug)
	if cfg.RollbarToken == "" {
		return local
	}
	host, _ := os.Hostname()
	return logger.NewRollbar(local, logger.RollbarOptions{
		Token:       cfg.RollbarToken,
		Environment: cfg.Env,
		Host:        host,
	})
}

// openStores connects the configured backend. The returned func releases it.
func openStores(ctx context.Context, cfg config.Config, appLog logger.Logger) (repository.Stores, func(), error) {
	switch cfg.DatabaseDriver {
	case config.DriverMongo:
		client, db, err := mongostore.Open(ctx, cfg.DatabaseURL, cfg.MongoDatabase)
		if err != nil {
			return repository.Stores{}, nil, err
		}
		return mongostore.NewStores(db), func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			_ = client.Disconnect(disconnectCtx)
		}, nil
	default:
		db, err := repository.NewDB(cfg.DatabaseURL, appLog)
		if err != nil {
			return repository.Stores{}, nil, err
		}
		return repository.NewGormStores(db), func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}, nil
	}
}
