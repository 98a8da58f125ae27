package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rentacar/internal/app"
	"rentacar/internal/app/schedule"
	authsvc "rentacar/internal/app/services/auth"
	domainreviews "rentacar/internal/domain/reviews"
	"rentacar/internal/infra/config"
	ginserver "rentacar/internal/infra/http/gin"
	"rentacar/internal/infra/obs"
	"rentacar/internal/infra/security"
	"rentacar/internal/infra/validation"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Env, cfg.LogLevel)
	slog.SetDefault(logger)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("service stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("service stopped")
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	engine, err := newPricingEngine(cfg)
	if err != nil {
		return err
	}
	infra, err := buildInfrastructure(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer infra.close(logger)

	if cfg.SeedFixtures {
		n, err := seedFixtures(ctx, infra.factory)
		if err != nil {
			logger.Warn("fixture seeding failed", "error", err)
		} else if n > 0 {
			logger.Info("fixtures seeded", "cars", n)
		}
	}

	feed := domainreviews.NewFeed()
	buses := app.NewBuses(app.Deps{
		UoWFactory:      infra.factory,
		Outbox:          infra.outbox,
		Pricing:         engine,
		Uploader:        infra.uploader,
		Feed:            feed,
		Idempotency:     infra.idempotency,
		Validator:       validation.New(),
		CommitRetries:   cfg.CommitRetries,
		Logger:          logger,
		QueryMiddleware: infra.queryMiddleware,
	})

	auth := &authsvc.Service{
		Users:       infra.users,
		Sessions:    infra.sessions,
		Passwords:   security.BcryptHasher{},
		Tokens:      security.RandomTokenGenerator{},
		SessionTTL:  cfg.SessionTTL,
		AdminEmails: cfg.AdminEmails,
		Logger:      logger,
	}

	scheduler := schedule.New(logger)
	if err := scheduler.Add(schedule.OutboxRelayJob(infra.relay, cfg.OutboxPollInterval)); err != nil {
		return err
	}
	if err := scheduler.Add(schedule.CompleteFinishedJob(buses.Commands, cfg.CompleteSchedule, logger)); err != nil {
		return err
	}
	scheduler.Start()
	defer scheduler.Stop()

	if infra.consumer != nil {
		go func() {
			if err := infra.consumer.run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("catalog consumer stopped", "error", err)
			}
		}()
	}

	obsMW := obs.Middleware{Logger: logger}
	server := ginserver.NewServer(cfg, obsMW, obs.HealthHandlers{Checks: infra.checks, Timeout: 2 * time.Second}, ginserver.Handlers{
		Auth:     ginserver.AuthHandler{Service: auth, Logger: logger},
		Cars:     ginserver.CarsHandler{Queries: buses.Queries, Logger: logger},
		Bookings: ginserver.BookingHandler{Commands: buses.Commands, Queries: buses.Queries, Logger: logger},
		Reviews:  ginserver.ReviewsHandler{Commands: buses.Commands, Queries: buses.Queries, Logger: logger},
		Admin:    ginserver.AdminHandler{Commands: buses.Commands, Queries: buses.Queries, Feed: feed, Logger: logger},
		Session:  ginserver.SessionMiddleware{Resolver: auth, Logger: logger}.Handle,
	})

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "storage", cfg.StorageMode)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
