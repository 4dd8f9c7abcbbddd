package production

import (
	"context"

	"github.com/Oscarts/backery2-app-sub003/internal/domain/inventory"
	"github.com/Oscarts/backery2-app-sub003/internal/domain/production"
	"github.com/Oscarts/backery2-app-sub003/internal/domain/shared"
	"github.com/Oscarts/backery2-app-sub003/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// publishEvents hands committed events to the bus. Delivery failures are
// logged; the state change they describe has already been committed.
func publishEvents(ctx context.Context, publisher shared.EventPublisher, logger *zap.Logger, events ...shared.DomainEvent) {
	if publisher == nil || len(events) == 0 {
		return
	}
	if err := publisher.Publish(ctx, events...); err != nil {
		logger.Warn("failed to publish domain events",
			zap.Int("events", len(events)),
			zap.String("first_event_type", events[0].EventType()),
			zap.String("trace_id", telemetry.GetTraceID(ctx)),
			zap.Error(err),
		)
	}
}

// MetricsRecorder receives production measurements
type MetricsRecorder interface {
	RecordAllocations(ctx context.Context, outcome string, count int, quantity decimal.Decimal)
	RecordShortage(ctx context.Context, materialName string)
	RecordCompletion(ctx context.Context, finalQuantity, totalCost decimal.Decimal)
	RecordCancellation(ctx context.Context)
	RecordContamination(ctx context.Context, kind string)
}

// MetricsEventHandler turns production events into metrics
type MetricsEventHandler struct {
	recorder MetricsRecorder
	logger   *zap.Logger
}

// NewMetricsEventHandler creates a new MetricsEventHandler
func NewMetricsEventHandler(recorder MetricsRecorder, logger *zap.Logger) *MetricsEventHandler {
	return &MetricsEventHandler{recorder: recorder, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *MetricsEventHandler) EventTypes() []string {
	return []string{
		production.EventTypeAllocationsReserved,
		production.EventTypeAllocationsConsumed,
		production.EventTypeAllocationsReleased,
		production.EventTypeIngredientShortage,
		production.EventTypeProductionRunCompleted,
		production.EventTypeProductionRunCancelled,
		inventory.EventTypeBatchContaminated,
	}
}

// Handle records the event
func (h *MetricsEventHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *production.AllocationsEvent:
		h.recorder.RecordAllocations(ctx, outcomeOf(e.EventType()), len(e.AllocationIDs), e.Quantity)
	case *production.IngredientShortageEvent:
		h.recorder.RecordShortage(ctx, e.MaterialName)
	case *production.ProductionRunCompletedEvent:
		h.recorder.RecordCompletion(ctx, e.FinalQuantity, e.ActualCost)
	case *production.ProductionRunCancelledEvent:
		h.recorder.RecordCancellation(ctx)
	case *inventory.BatchContaminatedEvent:
		h.recorder.RecordContamination(ctx, string(e.Kind))
	default:
		h.logger.Debug("ignoring event", zap.String("event_type", event.EventType()))
	}
	return nil
}

func outcomeOf(eventType string) string {
	switch eventType {
	case production.EventTypeAllocationsReserved:
		return "reserved"
	case production.EventTypeAllocationsConsumed:
		return "consumed"
	case production.EventTypeAllocationsReleased:
		return "released"
	default:
		return "unknown"
	}
}
