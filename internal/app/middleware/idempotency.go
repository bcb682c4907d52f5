package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"carrental/internal/app/commands"
)

// IdempotentCommand is implemented by commands that must not be applied twice when a
// client retries with the same Idempotency-Key.
type IdempotentCommand interface {
	commands.Command
	IdempotencyKey() string
	// ResultPrototype returns a pointer of the handler's result type to decode into.
	ResultPrototype() any
}

// IdempotencyRecord is the stored result of a successful command.
type IdempotencyRecord struct {
	Key      string
	Result   []byte
	StoredAt time.Time
}

type IdempotencyStore interface {
	Get(ctx context.Context, key string) (IdempotencyRecord, bool, error)
	Save(ctx context.Context, rec IdempotencyRecord) error
}

type ResultCodec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, out any) error
}

type JSONResultCodec struct{}

func (JSONResultCodec) Encode(v any) ([]byte, error)      { return json.Marshal(v) }
func (JSONResultCodec) Decode(data []byte, out any) error { return json.Unmarshal(data, out) }

var errMissingPrototype = errors.New("middleware: idempotent command requires result prototype")

// Idempotency replays the stored result of a command already applied under the same key.
// Keys are scoped by command type and, for session scoped commands, by user. Failed
// commands are not recorded, so a retry runs them again. A record that cannot be saved
// is logged and the applied result still returned.
func Idempotency(store IdempotencyStore, codec ResultCodec, logger *slog.Logger) CommandMiddleware {
	if store == nil {
		panic("middleware: idempotency store required")
	}
	if codec == nil {
		codec = JSONResultCodec{}
	}
	rp := replayer{store: store, codec: codec, now: time.Now}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			idCmd, ok := cmd.(IdempotentCommand)
			if !ok {
				return next.Dispatch(ctx, cmd)
			}
			key := scopedKey(idCmd)
			if key == "" {
				return next.Dispatch(ctx, cmd)
			}
			if result, found, err := rp.replay(ctx, key, idCmd.ResultPrototype()); err != nil || found {
				return result, err
			}
			result, err := next.Dispatch(ctx, cmd)
			if err != nil {
				return nil, err
			}
			if err := rp.remember(ctx, key, result); err != nil && logger != nil {
				logger.Warn("idempotency record not saved", "command", cmd.Key(), "error", err)
			}
			return result, nil
		})
	}
}

type replayer struct {
	store IdempotencyStore
	codec ResultCodec
	now   func() time.Time
}

func (r replayer) replay(ctx context.Context, key string, proto any) (any, bool, error) {
	rec, found, err := r.store.Get(ctx, key)
	if err != nil || !found {
		return nil, false, err
	}
	if proto == nil {
		return nil, true, errMissingPrototype
	}
	if len(rec.Result) > 0 {
		if err := r.codec.Decode(rec.Result, proto); err != nil {
			return nil, true, fmt.Errorf("decode stored result for %s: %w", key, err)
		}
	}
	return proto, true, nil
}

func (r replayer) remember(ctx context.Context, key string, result any) error {
	rec := IdempotencyRecord{Key: key, StoredAt: r.now().UTC()}
	if result != nil {
		payload, err := r.codec.Encode(result)
		if err != nil {
			return err
		}
		rec.Result = payload
	}
	return r.store.Save(ctx, rec)
}

func scopedKey(cmd IdempotentCommand) string {
	raw := strings.TrimSpace(cmd.IdempotencyKey())
	if raw == "" {
		return ""
	}
	parts := []string{cmd.Key()}
	if scoped, ok := cmd.(SessionScoped); ok {
		parts = append(parts, scoped.CurrentSession().UserID)
	}
	return strings.Join(append(parts, raw), ":")
}
