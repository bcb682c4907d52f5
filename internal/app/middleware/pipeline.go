package middleware

import (
	"context"

	"carrental/internal/app/commands"
	"carrental/internal/app/queries"
)

// CommandMiddleware decorates the command bus. The service stacks observe, authorization,
// validation, idempotency and outbox flush, in that order.
type CommandMiddleware func(next commands.Bus) commands.Bus

// QueryMiddleware decorates the query bus; reads only go through observe, authorization
// and validation.
type QueryMiddleware func(next queries.Bus) queries.Bus

// ChainCommands returns base behind mws. The first middleware sees a command first.
func ChainCommands(base commands.Bus, mws ...CommandMiddleware) commands.Bus {
	return chain(base, mws)
}

// ChainQueries returns base behind mws. The first middleware sees a query first.
func ChainQueries(base queries.Bus, mws ...QueryMiddleware) queries.Bus {
	return chain(base, mws)
}

func chain[B any, M ~func(B) B](base B, mws []M) B {
	for i := len(mws) - 1; i >= 0; i-- {
		base = mws[i](base)
	}
	return base
}

type commandFunc func(ctx context.Context, cmd commands.Command) (any, error)

func (f commandFunc) Dispatch(ctx context.Context, cmd commands.Command) (any, error) {
	return f(ctx, cmd)
}

type queryFunc func(ctx context.Context, q queries.Query) (any, error)

func (f queryFunc) Ask(ctx context.Context, q queries.Query) (any, error) {
	return f(ctx, q)
}
