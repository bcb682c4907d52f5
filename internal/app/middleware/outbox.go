package middleware

import (
	"context"
	"log/slog"

	"carrental/internal/app/commands"
	"carrental/internal/app/outbox"
)

// OutboxFlush flushes recorded events after a successful command. By then the rental
// backend has already applied the change, so a flush failure is logged and the result
// is still returned.
func OutboxFlush(box outbox.Outbox, logger *slog.Logger) CommandMiddleware {
	if box == nil {
		panic("middleware: outbox required")
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			res, err := next.Dispatch(ctx, cmd)
			if err != nil {
				return nil, err
			}
			if err := box.Flush(ctx); err != nil && logger != nil {
				logger.Error("outbox flush failed", "key", cmd.Key(), "error", err)
			}
			return res, nil
		})
	}
}
