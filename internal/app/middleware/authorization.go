package middleware

import (
	"context"
	"time"

	"carrental/internal/app/commands"
	"carrental/internal/app/queries"
	domainauth "carrental/internal/domain/auth"
)

type Authorizer interface {
	Authorize(ctx context.Context, message any) error
}

// SessionScoped is implemented by messages issued on behalf of a signed-in user.
type SessionScoped interface {
	CurrentSession() domainauth.Session
}

// SessionAuthorizer rejects session scoped messages whose session is missing or expired.
type SessionAuthorizer struct {
	Now func() time.Time
}

func (a SessionAuthorizer) Authorize(_ context.Context, message any) error {
	scoped, ok := message.(SessionScoped)
	if !ok {
		return nil
	}
	now := time.Now
	if a.Now != nil {
		now = a.Now
	}
	return scoped.CurrentSession().Check(now())
}

func Authorization(a Authorizer) CommandMiddleware {
	if a == nil {
		panic("middleware: authorizer required")
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			if err := a.Authorize(ctx, cmd); err != nil {
				return nil, err
			}
			return next.Dispatch(ctx, cmd)
		})
	}
}

func QueryAuthorization(a Authorizer) QueryMiddleware {
	if a == nil {
		panic("middleware: authorizer required")
	}
	return func(next queries.Bus) queries.Bus {
		return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
			if err := a.Authorize(ctx, q); err != nil {
				return nil, err
			}
			return next.Ask(ctx, q)
		})
	}
}
