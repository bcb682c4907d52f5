package middleware

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carrental/internal/app/commands"
	appoutbox "carrental/internal/app/outbox"
	domainauth "carrental/internal/domain/auth"
)

type bookCommand struct {
	Session domainauth.Session
	Ref     string
	IdemKey string
}

func (bookCommand) Key() string                          { return "test.book" }
func (c bookCommand) CurrentSession() domainauth.Session { return c.Session }
func (c bookCommand) IdempotencyKey() string             { return c.IdemKey }
func (bookCommand) ResultPrototype() any                 { return &bookResult{} }

func (c bookCommand) Validate() error {
	if c.Ref == "" {
		return errors.New("ref required")
	}
	return nil
}

type bookResult struct {
	ID string `json:"id"`
}

type mapIdempotency struct {
	mu    sync.Mutex
	items map[string]IdempotencyRecord
}

func (m *mapIdempotency) Get(_ context.Context, key string) (IdempotencyRecord, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.items[key]
	return rec, ok, nil
}

func (m *mapIdempotency) Save(_ context.Context, rec IdempotencyRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[rec.Key] = rec
	return nil
}

type failingOutbox struct{ flushes int }

func (*failingOutbox) Add(context.Context, appoutbox.EventRecord) error { return nil }
func (o *failingOutbox) Flush(context.Context) error {
	o.flushes++
	return errors.New("mongo down")
}

var session = domainauth.Session{Token: "t", UserID: "cust-1", ExpiresAt: time.Now().Add(time.Hour)}

func newBus(calls *int, err error) *commands.InMemoryBus {
	bus := commands.NewInMemoryBus()
	commands.RegisterFunc(bus, func(_ context.Context, cmd bookCommand) (*bookResult, error) {
		*calls++
		if err != nil {
			return nil, err
		}
		return &bookResult{ID: "bk-" + cmd.Ref}, nil
	})
	return bus
}

func TestIdempotencyReplaysStoredResult(t *testing.T) {
	calls := 0
	store := &mapIdempotency{items: map[string]IdempotencyRecord{}}
	bus := ChainCommands(newBus(&calls, nil), Idempotency(store, nil, nil))
	cmd := bookCommand{Session: session, Ref: "1", IdemKey: "abc"}

	first, err := commands.Dispatch[bookCommand, *bookResult](context.Background(), bus, cmd)
	require.NoError(t, err)
	second, err := commands.Dispatch[bookCommand, *bookResult](context.Background(), bus, cmd)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)
	_, ok := store.items["test.book:cust-1:abc"]
	assert.True(t, ok)
}

func TestIdempotencyDoesNotRecordFailures(t *testing.T) {
	calls := 0
	store := &mapIdempotency{items: map[string]IdempotencyRecord{}}
	bus := ChainCommands(newBus(&calls, errors.New("backend down")), Idempotency(store, nil, nil))
	cmd := bookCommand{Session: session, Ref: "1", IdemKey: "abc"}

	_, err := bus.Dispatch(context.Background(), cmd)
	require.Error(t, err)
	_, err = bus.Dispatch(context.Background(), cmd)
	require.Error(t, err)

	assert.Equal(t, 2, calls)
	assert.Empty(t, store.items)
}

type brokenIdempotency struct{ saves int }

func (*brokenIdempotency) Get(context.Context, string) (IdempotencyRecord, bool, error) {
	return IdempotencyRecord{}, false, nil
}

func (b *brokenIdempotency) Save(context.Context, IdempotencyRecord) error {
	b.saves++
	return errors.New("mongo down")
}

func TestIdempotencySaveFailureKeepsAppliedResult(t *testing.T) {
	calls := 0
	store := &brokenIdempotency{}
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	bus := ChainCommands(newBus(&calls, nil), Idempotency(store, nil, logger))

	res, err := commands.Dispatch[bookCommand, *bookResult](context.Background(), bus,
		bookCommand{Session: session, Ref: "9", IdemKey: "abc"})
	require.NoError(t, err)
	assert.Equal(t, "bk-9", res.ID)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, store.saves)
	assert.Contains(t, logs.String(), "idempotency record not saved")
}

func TestChainRunsFirstMiddlewareOutermost(t *testing.T) {
	var order []string
	tag := func(name string) CommandMiddleware {
		return func(next commands.Bus) commands.Bus {
			return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
				order = append(order, name)
				return next.Dispatch(ctx, cmd)
			})
		}
	}
	calls := 0
	bus := ChainCommands(newBus(&calls, nil), tag("observe"), tag("authorize"), tag("validate"))

	_, err := bus.Dispatch(context.Background(), bookCommand{Session: session, Ref: "1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"observe", "authorize", "validate"}, order)
	assert.Equal(t, 1, calls)
}

func TestValidationAndAuthorizationStopBeforeHandler(t *testing.T) {
	calls := 0
	bus := ChainCommands(newBus(&calls, nil), Authorization(SessionAuthorizer{}), Validation(MessageValidator{}))

	_, err := bus.Dispatch(context.Background(), bookCommand{Session: session})
	assert.EqualError(t, err, "ref required")

	_, err = bus.Dispatch(context.Background(), bookCommand{Ref: "1"})
	assert.Error(t, err)
	assert.Equal(t, 0, calls)
}

func TestOutboxFlushFailureKeepsResult(t *testing.T) {
	calls := 0
	box := &failingOutbox{}
	bus := ChainCommands(newBus(&calls, nil), OutboxFlush(box, nil))

	res, err := commands.Dispatch[bookCommand, *bookResult](context.Background(), bus, bookCommand{Session: session, Ref: "7"})
	require.NoError(t, err)
	assert.Equal(t, "bk-7", res.ID)
	assert.Equal(t, 1, box.flushes)
}
