package worker

import (
	"context"

	"procurement-service/internal/broker"
	"procurement-service/internal/models"
	"procurement-service/internal/util"

	"go.uber.org/zap"
)

// ProcurementHandler runs an accepted procurement
type ProcurementHandler interface {
	HandleProcurementRequested(ctx context.Context, event *models.ProcurementRequestedEvent) error
}

// ProcurementWorker consumes procurement events and runs the pipeline for each order
type ProcurementWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	logger       *zap.Logger
}

// NewProcurementWorker creates a new procurement worker
func NewProcurementWorker(consumer *broker.Consumer, handler ProcurementHandler) *ProcurementWorker {
	eventHandler := broker.NewEventHandler()
	eventHandler.OnProcurementRequested(handler.HandleProcurementRequested)

	return &ProcurementWorker{
		consumer:     consumer,
		eventHandler: eventHandler,
		logger:       util.GetLogger(),
	}
}

// Start blocks consuming events until ctx is cancelled
func (w *ProcurementWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting procurement worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop closes the underlying consumer
func (w *ProcurementWorker) Stop() error {
	w.logger.Info("Stopping procurement worker")
	return w.consumer.Close()
}
