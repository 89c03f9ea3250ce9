package broker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"procurement-service/internal/models"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingProducer struct {
	keys   []string
	events []interface{}
}

func (r *recordingProducer) PublishEvent(ctx context.Context, key string, event interface{}) error {
	r.keys = append(r.keys, key)
	r.events = append(r.events, event)
	return nil
}

func TestEventPublisherKeysByOrder(t *testing.T) {
	rec := &recordingProducer{}
	pub := NewEventPublisher(rec)
	ctx := context.Background()

	require.NoError(t, pub.PublishProcurementRequested(ctx, &models.ProcurementRequestedEvent{OrderID: 7}))
	require.NoError(t, pub.PublishProcurementCompleted(ctx, &models.ProcurementCompletedEvent{OrderID: 7}))
	require.NoError(t, pub.PublishProcurementFailed(ctx, &models.ProcurementFailedEvent{OrderID: 9}))

	assert.Equal(t, []string{"order-7", "order-7", "order-9"}, rec.keys)
}

func TestHandleMessageRoutesProcurementRequested(t *testing.T) {
	event := models.ProcurementRequestedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   "evt-1",
			EventType: models.EventTypeProcurementRequested,
			Timestamp: time.Now(),
		},
		OrderID:    3,
		CustomerID: 1,
		Request:    models.ProcurementRequest{Items: []string{"pens"}},
	}
	raw, err := json.Marshal(event)
	require.NoError(t, err)

	var got *models.ProcurementRequestedEvent
	h := NewEventHandler()
	h.OnProcurementRequested(func(ctx context.Context, e *models.ProcurementRequestedEvent) error {
		got = e
		return nil
	})

	require.NoError(t, h.HandleMessage(context.Background(), kafka.Message{Value: raw}))
	require.NotNil(t, got)
	assert.Equal(t, int64(3), got.OrderID)
	assert.Equal(t, []string{"pens"}, got.Request.Items)
}

func TestHandleMessagePropagatesHandlerError(t *testing.T) {
	raw, _ := json.Marshal(models.BaseEvent{EventID: "e", EventType: models.EventTypeProcurementRequested})

	h := NewEventHandler()
	h.OnProcurementRequested(func(ctx context.Context, e *models.ProcurementRequestedEvent) error {
		return errors.New("boom")
	})

	assert.Error(t, h.HandleMessage(context.Background(), kafka.Message{Value: raw}))
}

func TestHandleMessageIgnoresOutcomeEvents(t *testing.T) {
	raw, _ := json.Marshal(models.BaseEvent{EventID: "e", EventType: models.EventTypeProcurementCompleted})
	assert.NoError(t, NewEventHandler().HandleMessage(context.Background(), kafka.Message{Value: raw}))
}

func TestHandleMessageRejectsGarbage(t *testing.T) {
	assert.ErrorIs(t, NewEventHandler().HandleMessage(context.Background(), kafka.Message{Value: []byte("{")}), ErrMalformedEvent)
}
