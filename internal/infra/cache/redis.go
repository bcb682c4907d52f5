package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"carrental/internal/app/policies"
	domainbooking "carrental/internal/domain/booking"
	domainpayment "carrental/internal/domain/payment"
)

// Redis shares list snapshots between BFF replicas.
type Redis struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

func NewRedis(client redis.UniversalClient, prefix string, ttl time.Duration) *Redis {
	if prefix == "" {
		prefix = "carrental"
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{client: client, prefix: prefix, ttl: ttl}
}

// Generation reads the customer's invalidation counter; a missing key is generation 0.
func (r *Redis) Generation(ctx context.Context, customerID string) (uint64, error) {
	gen, err := r.client.Get(ctx, r.key(customerID, "gen")).Uint64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (r *Redis) Payments(ctx context.Context, customerID string) ([]domainpayment.Payment, bool, error) {
	var items []domainpayment.Payment
	ok, err := r.get(ctx, r.key(customerID, "payments"), &items)
	return items, ok, err
}

func (r *Redis) StorePayments(ctx context.Context, customerID string, gen uint64, items []domainpayment.Payment) error {
	return r.setIfCurrent(ctx, customerID, gen, r.key(customerID, "payments"), items)
}

func (r *Redis) Bookings(ctx context.Context, customerID string) ([]domainbooking.Booking, bool, error) {
	var items []domainbooking.Booking
	ok, err := r.get(ctx, r.key(customerID, "bookings"), &items)
	return items, ok, err
}

func (r *Redis) StoreBookings(ctx context.Context, customerID string, gen uint64, items []domainbooking.Booking) error {
	return r.setIfCurrent(ctx, customerID, gen, r.key(customerID, "bookings"), items)
}

func (r *Redis) Invalidate(ctx context.Context, customerID string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, r.key(customerID, "gen"))
		pipe.Del(ctx, r.key(customerID, "payments"), r.key(customerID, "bookings"))
		return nil
	})
	return err
}

// Ping reports whether redis is reachable; used by the readiness probe.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) key(customerID, list string) string {
	return r.prefix + ":lists:" + customerID + ":" + list
}

func (r *Redis) get(ctx context.Context, key string, out any) (bool, error) {
	raw, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		// A snapshot that no longer decodes is treated as a miss.
		return false, nil
	}
	return true, nil
}

// setIfCurrent writes the snapshot only while the generation key still holds gen.
// WATCH aborts the write when an Invalidate lands between the check and the SET.
func (r *Redis) setIfCurrent(ctx context.Context, customerID string, gen uint64, key string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	genKey := r.key(customerID, "gen")
	err = r.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Uint64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != gen {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, r.ttl)
			return nil
		})
		return err
	}, genKey)
	if errors.Is(err, redis.TxFailedErr) {
		return nil
	}
	return err
}

var _ policies.ListCache = (*Redis)(nil)
