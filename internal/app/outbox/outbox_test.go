package outbox

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleEvent struct {
	ID string    `json:"id"`
	At time.Time `json:"at"`
}

func (e sampleEvent) EventName() string    { return "sample.happened" }
func (e sampleEvent) AggregateID() string  { return e.ID }
func (e sampleEvent) OccurredAt() time.Time { return e.At }

type sliceOutbox struct {
	records []EventRecord
	err     error
}

func (o *sliceOutbox) Add(_ context.Context, rec EventRecord) error {
	if o.err != nil {
		return o.err
	}
	o.records = append(o.records, rec)
	return nil
}

func (o *sliceOutbox) Flush(context.Context) error { return nil }

func TestRecordEncodesInOrder(t *testing.T) {
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.FixedZone("X", 3600))
	box := &sliceOutbox{}
	n := 0
	enc := JSONEventEncoder{NewID: func() string { n++; return "ev-" + strconv.Itoa(n) }}

	require.NoError(t, Record(context.Background(), box, enc, sampleEvent{ID: "a", At: at}, sampleEvent{ID: "b", At: at}))

	require.Len(t, box.records, 2)
	assert.Equal(t, "ev-1", box.records[0].ID)
	assert.Equal(t, "a", box.records[0].Aggregate)
	assert.Equal(t, "sample.happened", box.records[0].Headers["event-name"])
	assert.Equal(t, time.UTC, box.records[0].OccurredAt.Location())
	assert.JSONEq(t, `{"id":"b","at":"2025-06-01T12:00:00+01:00"}`, string(box.records[1].Payload))
}

func TestRecordWithoutOutbox(t *testing.T) {
	assert.NoError(t, Record(context.Background(), nil, nil, sampleEvent{ID: "a"}))
}

func TestRecordWrapsAddFailure(t *testing.T) {
	boom := errors.New("boom")
	err := Record(context.Background(), &sliceOutbox{err: boom}, nil, sampleEvent{ID: "a"})
	assert.ErrorIs(t, err, boom)
}
