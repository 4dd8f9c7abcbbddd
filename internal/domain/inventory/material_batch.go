package inventory

import (
	"time"

	"github.com/Oscarts/backery2-app-sub003/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AggregateTypeMaterialBatch is the aggregate type name used on batch events
const AggregateTypeMaterialBatch = "MaterialBatch"

// BatchStatus is the lifecycle state of a material batch
type BatchStatus string

const (
	BatchStatusAvailable   BatchStatus = "AVAILABLE"
	BatchStatusDepleted    BatchStatus = "DEPLETED"
	BatchStatusQuarantined BatchStatus = "QUARANTINED"
)

// MaterialBatch is one lot of a raw material or finished product with its own
// quantity, cost and expiry. Batches that share a name are the same material.
type MaterialBatch struct {
	shared.TenantAggregateRoot
	Kind             MaterialKind
	Name             string
	SKU              string
	BatchNumber      string
	Quantity         decimal.Decimal // on hand
	ReservedQuantity decimal.Decimal // held by in-flight production runs
	Unit             string
	UnitCost         decimal.Decimal
	ProductionDate   *time.Time
	ExpirationDate   *time.Time
	Contaminated     bool
	Status           BatchStatus

	// Finished products only
	SalePrice         decimal.Decimal
	StorageLocationID *uuid.UUID
	ProductionRunID   *uuid.UUID
}

// NewBatchInput holds the attributes of a batch being received into the ledger
type NewBatchInput struct {
	Kind           MaterialKind
	Name           string
	SKU            string
	BatchNumber    string
	Quantity       decimal.Decimal
	Unit           string
	UnitCost       decimal.Decimal
	ProductionDate *time.Time
	ExpirationDate *time.Time
}

// NewMaterialBatch creates a batch with nothing reserved
func NewMaterialBatch(tenantID uuid.UUID, in NewBatchInput) (*MaterialBatch, error) {
	if !in.Kind.IsValid() {
		return nil, shared.ErrInvalidInput.WithMessage("material type must be RAW_MATERIAL or FINISHED_PRODUCT")
	}
	if NameKey(in.Name) == "" {
		return nil, shared.ErrInvalidInput.WithMessage("batch name cannot be empty")
	}
	if in.Quantity.IsNegative() {
		return nil, shared.ErrInvalidQuantity.WithMessage("batch quantity cannot be negative")
	}
	if in.UnitCost.IsNegative() {
		return nil, shared.ErrInvalidInput.WithMessage("unit cost cannot be negative")
	}
	if in.Unit == "" {
		return nil, shared.ErrInvalidInput.WithMessage("unit cannot be empty")
	}

	b := &MaterialBatch{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Kind:                in.Kind,
		Name:                in.Name,
		SKU:                 in.SKU,
		BatchNumber:         in.BatchNumber,
		Quantity:            in.Quantity,
		ReservedQuantity:    decimal.Zero,
		Unit:                in.Unit,
		UnitCost:            in.UnitCost,
		ProductionDate:      in.ProductionDate,
		ExpirationDate:      in.ExpirationDate,
		SalePrice:           decimal.Zero,
	}
	b.refreshStatus()
	return b, nil
}

// Ref returns the material reference addressing this batch
func (b *MaterialBatch) Ref() MaterialRef {
	return MaterialRef{kind: b.Kind, id: b.ID}
}

// NameKey returns the folded material name
func (b *MaterialBatch) NameKey() string {
	return NameKey(b.Name)
}

// Available returns quantity minus reserved, never below zero
func (b *MaterialBatch) Available() decimal.Decimal {
	avail := b.Quantity.Sub(b.ReservedQuantity)
	if avail.IsNegative() {
		return decimal.Zero
	}
	return avail
}

// IsExpiredAt reports whether the batch expired before the given instant
func (b *MaterialBatch) IsExpiredAt(at time.Time) bool {
	if b.ExpirationDate == nil {
		return false
	}
	return b.ExpirationDate.Before(at)
}

// IsEligibleAt reports whether the batch can feed production at the given instant
func (b *MaterialBatch) IsEligibleAt(at time.Time) bool {
	return !b.Contaminated && !b.IsExpiredAt(at)
}

// Reserve holds quantity for a production run
func (b *MaterialBatch) Reserve(quantity decimal.Decimal) error {
	if !quantity.IsPositive() {
		return shared.ErrInvalidQuantity
	}
	if b.Contaminated {
		return shared.ErrInvalidState.WithMessage("cannot reserve from a contaminated batch")
	}
	if quantity.GreaterThan(b.Available()) {
		return shared.ErrInsufficientStock.WithDetails(map[string]any{
			"batch_id":  b.ID,
			"requested": quantity,
			"available": b.Available(),
		})
	}
	b.ReservedQuantity = b.ReservedQuantity.Add(quantity)
	b.Touch()
	return nil
}

// ReleaseReservation returns up to quantity of the reservation to the
// available pool and reports how much was actually released.
func (b *MaterialBatch) ReleaseReservation(quantity decimal.Decimal) decimal.Decimal {
	if !quantity.IsPositive() {
		return decimal.Zero
	}
	released := decimal.Min(quantity, b.ReservedQuantity)
	b.ReservedQuantity = b.ReservedQuantity.Sub(released)
	b.Touch()
	return released
}

// ConsumptionOutcome describes what a consumption did to the batch
type ConsumptionOutcome struct {
	Deducted         decimal.Decimal // removed from Quantity
	ReservedReleased decimal.Decimal // removed from ReservedQuantity
	OverConsumed     decimal.Decimal // consumed beyond the allocation
	Shortfall        decimal.Decimal // consumed beyond what the batch held
}

// HasMismatch reports whether the consumption did not line up with the allocation
func (o ConsumptionOutcome) HasMismatch() bool {
	return o.OverConsumed.IsPositive() || o.Shortfall.IsPositive()
}

// Consume deducts a consumed quantity that was backed by an allocation of
// allocated units. The whole allocation leaves the reserved pool; quantity
// and reserved are both floored at zero.
func (b *MaterialBatch) Consume(allocated, consumed decimal.Decimal) ConsumptionOutcome {
	out := ConsumptionOutcome{
		Deducted:         decimal.Zero,
		ReservedReleased: decimal.Zero,
		OverConsumed:     decimal.Zero,
		Shortfall:        decimal.Zero,
	}
	if consumed.IsNegative() {
		consumed = decimal.Zero
	}
	if consumed.GreaterThan(allocated) {
		out.OverConsumed = consumed.Sub(allocated)
	}

	out.ReservedReleased = decimal.Min(allocated, b.ReservedQuantity)
	if out.ReservedReleased.IsNegative() {
		out.ReservedReleased = decimal.Zero
	}
	b.ReservedQuantity = b.ReservedQuantity.Sub(out.ReservedReleased)

	out.Deducted = decimal.Min(consumed, b.Quantity)
	if consumed.GreaterThan(b.Quantity) {
		out.Shortfall = consumed.Sub(b.Quantity)
	}
	b.Quantity = b.Quantity.Sub(out.Deducted)

	if b.ReservedQuantity.GreaterThan(b.Quantity) {
		b.ReservedQuantity = b.Quantity
	}
	b.refreshStatus()
	b.Touch()
	return out
}

// Receive adds stock to the batch
func (b *MaterialBatch) Receive(quantity decimal.Decimal) error {
	if !quantity.IsPositive() {
		return shared.ErrInvalidQuantity
	}
	b.Quantity = b.Quantity.Add(quantity)
	b.refreshStatus()
	b.Touch()
	return nil
}

// MarkContaminated takes the batch out of availability. Existing
// reservations are left for their runs to release.
func (b *MaterialBatch) MarkContaminated(reason string) {
	if b.Contaminated {
		return
	}
	b.Contaminated = true
	b.refreshStatus()
	b.Touch()
	b.Raise(NewBatchContaminatedEvent(b, reason))
}

// TotalValue returns quantity × unit cost
func (b *MaterialBatch) TotalValue() decimal.Decimal {
	return b.Quantity.Mul(b.UnitCost)
}

func (b *MaterialBatch) refreshStatus() {
	switch {
	case b.Contaminated:
		b.Status = BatchStatusQuarantined
	case !b.Quantity.IsPositive():
		b.Status = BatchStatusDepleted
	default:
		b.Status = BatchStatusAvailable
	}
}

// FinishedProductInput describes the output of a completed production run
type FinishedProductInput struct {
	Name              string
	SKU               string
	BatchNumber       string
	Quantity          decimal.Decimal
	Unit              string
	CostPerUnit       decimal.Decimal
	SalePrice         decimal.Decimal
	ProductionDate    time.Time
	ExpirationDate    time.Time
	StorageLocationID uuid.UUID
	ProductionRunID   uuid.UUID
}

// NewFinishedProduct materializes the finished-product batch of a production run
func NewFinishedProduct(tenantID uuid.UUID, in FinishedProductInput) (*MaterialBatch, error) {
	if !in.Quantity.IsPositive() {
		return nil, shared.ErrInvalidQuantity.WithMessage("finished product quantity must be positive")
	}
	if in.BatchNumber == "" {
		return nil, shared.ErrInvalidInput.WithMessage("finished product needs a batch number")
	}
	productionDate := in.ProductionDate
	expirationDate := in.ExpirationDate
	b, err := NewMaterialBatch(tenantID, NewBatchInput{
		Kind:           MaterialKindFinishedProduct,
		Name:           in.Name,
		SKU:            in.SKU,
		BatchNumber:    in.BatchNumber,
		Quantity:       in.Quantity,
		Unit:           in.Unit,
		UnitCost:       in.CostPerUnit,
		ProductionDate: &productionDate,
		ExpirationDate: &expirationDate,
	})
	if err != nil {
		return nil, err
	}
	locationID := in.StorageLocationID
	runID := in.ProductionRunID
	b.SalePrice = in.SalePrice
	b.StorageLocationID = &locationID
	b.ProductionRunID = &runID
	b.Raise(NewFinishedProductCreatedEvent(b))
	return b, nil
}
