package inventory

import (
	"github.com/Oscarts/backery2-app-sub003/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event type constants
const (
	EventTypeBatchContaminated      = "BatchContaminated"
	EventTypeFinishedProductCreated = "FinishedProductCreated"
)

// BatchContaminatedEvent is raised when a batch is pulled for quality reasons
type BatchContaminatedEvent struct {
	shared.BaseDomainEvent
	Kind        MaterialKind    `json:"material_type"`
	Name        string          `json:"name"`
	BatchNumber string          `json:"batch_number"`
	Quantity    decimal.Decimal `json:"quantity"`
	Reserved    decimal.Decimal `json:"reserved_quantity"`
	Reason      string          `json:"reason,omitempty"`
}

// NewBatchContaminatedEvent creates a new BatchContaminatedEvent
func NewBatchContaminatedEvent(b *MaterialBatch, reason string) *BatchContaminatedEvent {
	return &BatchContaminatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBatchContaminated, AggregateTypeMaterialBatch, b.ID, b.TenantID),
		Kind:            b.Kind,
		Name:            b.Name,
		BatchNumber:     b.BatchNumber,
		Quantity:        b.Quantity,
		Reserved:        b.ReservedQuantity,
		Reason:          reason,
	}
}

// FinishedProductCreatedEvent is raised when a production run yields a product batch
type FinishedProductCreatedEvent struct {
	shared.BaseDomainEvent
	ProductionRunID uuid.UUID       `json:"production_run_id"`
	Name            string          `json:"name"`
	BatchNumber     string          `json:"batch_number"`
	Quantity        decimal.Decimal `json:"quantity"`
	CostPerUnit     decimal.Decimal `json:"cost_per_unit"`
	SalePrice       decimal.Decimal `json:"sale_price"`
}

// NewFinishedProductCreatedEvent creates a new FinishedProductCreatedEvent
func NewFinishedProductCreatedEvent(b *MaterialBatch) *FinishedProductCreatedEvent {
	var runID uuid.UUID
	if b.ProductionRunID != nil {
		runID = *b.ProductionRunID
	}
	return &FinishedProductCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeFinishedProductCreated, AggregateTypeMaterialBatch, b.ID, b.TenantID),
		ProductionRunID: runID,
		Name:            b.Name,
		BatchNumber:     b.BatchNumber,
		Quantity:        b.Quantity,
		CostPerUnit:     b.UnitCost,
		SalePrice:       b.SalePrice,
	}
}
