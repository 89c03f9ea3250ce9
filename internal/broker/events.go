package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"procurement-service/internal/models"
	"procurement-service/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Publisher sends a keyed event to the message bus
type Publisher interface {
	PublishEvent(ctx context.Context, key string, event interface{}) error
}

// EventPublisher handles publishing procurement events
type EventPublisher struct {
	producer Publisher
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer Publisher) *EventPublisher {
	return &EventPublisher{producer: producer}
}

func orderKey(orderID int64) string {
	return fmt.Sprintf("order-%d", orderID)
}

// PublishProcurementRequested publishes ProcurementRequested event
func (ep *EventPublisher) PublishProcurementRequested(ctx context.Context, event *models.ProcurementRequestedEvent) error {
	return ep.producer.PublishEvent(ctx, orderKey(event.OrderID), event)
}

// PublishProcurementCompleted publishes ProcurementCompleted event
func (ep *EventPublisher) PublishProcurementCompleted(ctx context.Context, event *models.ProcurementCompletedEvent) error {
	return ep.producer.PublishEvent(ctx, orderKey(event.OrderID), event)
}

// PublishProcurementFailed publishes ProcurementFailed event
func (ep *EventPublisher) PublishProcurementFailed(ctx context.Context, event *models.ProcurementFailedEvent) error {
	return ep.producer.PublishEvent(ctx, orderKey(event.OrderID), event)
}

// EventHandler handles incoming events
type EventHandler struct {
	logger                 *zap.Logger
	onProcurementRequested func(context.Context, *models.ProcurementRequestedEvent) error
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{logger: util.GetLogger()}
}

// OnProcurementRequested registers a handler for ProcurementRequested events
func (eh *EventHandler) OnProcurementRequested(handler func(context.Context, *models.ProcurementRequestedEvent) error) {
	eh.onProcurementRequested = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("%w: failed to unmarshal base event: %v", ErrMalformedEvent, err)
	}

	eh.logger.Info("Handling event",
		zap.String("type", baseEvent.EventType),
		zap.String("id", baseEvent.EventID))

	switch baseEvent.EventType {
	case models.EventTypeProcurementRequested:
		if eh.onProcurementRequested != nil {
			var event models.ProcurementRequestedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("%w: failed to unmarshal ProcurementRequested event: %v", ErrMalformedEvent, err)
			}
			return eh.onProcurementRequested(ctx, &event)
		}

	case models.EventTypeProcurementCompleted, models.EventTypeProcurementFailed:
		// outcome events are for downstream consumers

	default:
		eh.logger.Warn("Unhandled event type", zap.String("type", baseEvent.EventType))
	}

	return nil
}
