package memory

import (
	"context"
	"sync"
	"time"

	appoutbox "carrental/internal/app/outbox"
	infraoutbox "carrental/internal/infra/outbox"
)

// Outbox queues events in process so the relay worker can run without Mongo.
// Pending events are lost on restart.
type Outbox struct {
	mu      sync.Mutex
	now     func() time.Time
	pending []*infraoutbox.EventDocument
}

func NewOutbox() *Outbox {
	return &Outbox{now: time.Now}
}

func (o *Outbox) Add(_ context.Context, record appoutbox.EventRecord) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	now := o.now().UTC()
	o.pending = append(o.pending, &infraoutbox.EventDocument{
		ID:          record.ID,
		Name:        record.Name,
		Payload:     record.Payload,
		OccurredAt:  record.OccurredAt,
		Aggregate:   record.Aggregate,
		Headers:     record.Headers,
		State:       "NEW",
		NextAttempt: now,
		CreatedAt:   now,
	})
	return nil
}

func (o *Outbox) Flush(context.Context) error {
	return nil
}

func (o *Outbox) Claim(_ context.Context, workerID string) (*infraoutbox.EventDocument, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	now := o.now()
	for _, doc := range o.pending {
		if doc.State == "CLAIMED" || doc.NextAttempt.After(now) {
			continue
		}
		doc.State = "CLAIMED"
		doc.ClaimedBy = workerID
		doc.ClaimedAt = now
		claimed := *doc
		return &claimed, nil
	}
	return nil, nil
}

func (o *Outbox) MarkSent(_ context.Context, id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i, doc := range o.pending {
		if doc.ID == id {
			o.pending = append(o.pending[:i], o.pending[i+1:]...)
			return nil
		}
	}
	return nil
}

func (o *Outbox) MarkFailed(_ context.Context, id string, next time.Time, errMsg string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, doc := range o.pending {
		if doc.ID == id {
			doc.State = "FAILED"
			doc.Attempts++
			doc.NextAttempt = next
			doc.LastError = errMsg
		}
	}
	return nil
}

// Len reports how many events await delivery.
func (o *Outbox) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.pending)
}

var (
	_ appoutbox.Outbox  = (*Outbox)(nil)
	_ infraoutbox.Store = (*Outbox)(nil)
)
