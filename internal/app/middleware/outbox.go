package middleware

import (
	"context"
	"log/slog"

	"rentacar/internal/app/commands"
	"rentacar/internal/app/outbox"
)

// OutboxFlush nudges the outbox after each successful command. The records
// were stored by the committed unit, so a failed flush only logs; the relay
// still delivers them.
func OutboxFlush(box outbox.Outbox, logger *slog.Logger) CommandMiddleware {
	if box == nil {
		panic("middleware: outbox required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			res, err := next.Dispatch(ctx, cmd)
			if err != nil {
				return nil, err
			}
			if err := box.Flush(ctx); err != nil {
				logger.WarnContext(ctx, "outbox flush failed", "command", cmd.Key(), "error", err)
			}
			return res, nil
		})
	}
}
