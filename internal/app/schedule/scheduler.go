// Package schedule runs the periodic background jobs of the service.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"rentacar/internal/app/commands"
	bookingapp "rentacar/internal/app/handlers/booking"
)

var ErrJobInvalid = errors.New("schedule: job needs a name, a spec and a run func")

// Job is one periodic task. Spec uses cron syntax or descriptors such as
// "@every 15m".
type Job struct {
	Name string
	Spec string
	Run  func(ctx context.Context) error
}

// Scheduler runs jobs in UTC. A job still running when its next tick fires
// is skipped for that tick.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

func New(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	cl := cronLogger{logger: logger}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(time.UTC), cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

func (s *Scheduler) Add(job Job) error {
	if job.Name == "" || job.Spec == "" || job.Run == nil {
		return ErrJobInvalid
	}
	_, err := s.cron.AddFunc(job.Spec, func() {
		started := time.Now()
		if err := job.Run(s.ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("scheduled job failed", "job", job.Name, "error", err)
			return
		}
		s.logger.Debug("scheduled job finished", "job", job.Name, "duration", time.Since(started))
	})
	if err != nil {
		return fmt.Errorf("schedule: add %s: %w", job.Name, err)
	}
	s.logger.Info("job scheduled", "job", job.Name, "spec", job.Spec)
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop cancels running jobs and waits for them to return.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
}

// CompleteFinishedJob closes confirmed bookings whose return date passed.
func CompleteFinishedJob(bus commands.Bus, spec string, logger *slog.Logger) Job {
	return Job{
		Name: "booking.complete_finished",
		Spec: spec,
		Run: func(ctx context.Context) error {
			res, err := commands.Dispatch[bookingapp.CompleteFinishedCommand, bookingapp.CompleteResult](ctx, bus, bookingapp.CompleteFinishedCommand{})
			if err != nil {
				return err
			}
			if len(res.Completed) > 0 && logger != nil {
				logger.InfoContext(ctx, "finished bookings completed", "booking_ids", res.Completed)
			}
			return nil
		},
	}
}

// Relay is the outbox relay seen from the scheduler.
type Relay interface {
	RunOnce(ctx context.Context) (int, error)
}

// OutboxRelayJob drains the outbox every interval.
func OutboxRelayJob(relay Relay, interval time.Duration) Job {
	if interval < time.Second {
		interval = time.Second
	}
	return Job{
		Name: "outbox.relay",
		Spec: "@every " + interval.String(),
		Run: func(ctx context.Context) error {
			_, err := relay.RunOnce(ctx)
			return err
		},
	}
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
