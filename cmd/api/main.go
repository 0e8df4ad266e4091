package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"realty_backend/internal/model"
	"realty_backend/internal/server"
	"realty_backend/internal/service"
	"realty_backend/internal/store"
	"realty_backend/pkg/cache"
	"realty_backend/pkg/config"
	"realty_backend/pkg/cron"
	"realty_backend/pkg/database"
	"realty_backend/pkg/email"
	"realty_backend/pkg/logging"
	"realty_backend/pkg/seed"
	"realty_backend/pkg/utils/jwt"
	"realty_backend/pkg/utils/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Invalid configuration")
	}
	log := logging.New(cfg.Log.Level, cfg.IsProduction())

	db, err := database.Open(cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("Could not connect to database")
	}
	if err := database.Migrate(db, log, model.All()...); err != nil {
		log.WithError(err).Fatal("Migration failed")
	}
	if cfg.SeedSampleData {
		if err := seed.SeedProperties(db, log); err != nil {
			log.WithError(err).Warn("Seeding sample data failed")
		}
	}

	ctx := context.Background()
	stores := store.New(db)

	tokens := jwt.NewManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	auth, err := service.NewAdminAuth(cfg.Auth, tokens, stores.Sessions, log)
	if err != nil {
		log.WithError(err).Fatal("Could not initialize admin auth")
	}

	files, err := storage.New(ctx, cfg.Upload)
	if err != nil {
		log.WithError(err).Fatal("Could not initialize file storage")
	}

	var readCache *cache.Cache
	if cfg.Cache.RedisAddr != "" {
		readCache, err = cache.New(ctx, cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.TTL)
		if err != nil {
			log.WithError(err).Warn("Redis unavailable, read cache disabled")
			readCache = nil
		}
	}

	var notifier *email.Notifier
	if cfg.Email.ResendAPIKey != "" {
		notifier, err = email.NewNotifier(email.NewResendSender(cfg.Email.ResendAPIKey), cfg.Email.From, cfg.Email.NotifyTo, log)
		if err != nil {
			log.WithError(err).Warn("Email notifications disabled")
			notifier = nil
		}
	}

	type job struct {
		name, spec string
		fn         func(context.Context) error
	}
	scheduler := cron.NewScheduler(log)
	jobs := []job{
		{"analytics-retention", cfg.Analytics.CleanupSchedule, cron.AnalyticsRetentionJob(stores.Analytics, cfg.Analytics.RetentionDays, log)},
		{"session-cleanup", "@hourly", cron.SessionCleanupJob(stores.Sessions, log)},
	}
	if notifier != nil {
		digest := service.NewDashboard(stores)
		jobs = append(jobs, job{"stats-digest", cfg.Analytics.DigestSchedule, cron.StatsDigestJob(digest.Digest, notifier, "weekly", 7)})
	}
	for _, j := range jobs {
		if err := scheduler.Add(j.name, j.spec, j.fn); err != nil {
			log.WithError(err).WithField("job", j.name).Fatal("Invalid cron schedule")
		}
	}
	scheduler.Start()

	app := server.New(server.Deps{
		Config:   cfg,
		Log:      log,
		DB:       db,
		Stores:   stores,
		Auth:     auth,
		Files:    files,
		Cache:    readCache,
		Notifier: notifier,
	})

	go func() {
		log.WithField("port", cfg.Port).Info("Server is running")
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.WithError(err).Fatal("Server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.WithError(err).Warn("HTTP shutdown incomplete")
	}
	scheduler.Stop(shutdownCtx)
	if err := readCache.Close(); err != nil {
		log.WithError(err).Warn("Closing redis failed")
	}
	if err := database.Close(db); err != nil {
		log.WithError(err).Warn("Closing database failed")
	}
}
