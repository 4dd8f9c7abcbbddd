package inventory

import (
	"sort"
	"time"

	"github.com/Oscarts/backery2-app-sub003/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BatchDraw is the portion of a request served by a single batch
type BatchDraw struct {
	BatchID     uuid.UUID
	Ref         MaterialRef
	Name        string
	SKU         string
	BatchNumber string
	Unit        string
	Quantity    decimal.Decimal // drawn from this batch
	UnitCost    decimal.Decimal
	TotalCost   decimal.Decimal // Quantity * UnitCost
	Remaining   decimal.Decimal // available in the batch after the draw
}

// BatchSelection is the outcome of drawing a quantity across batches
type BatchSelection struct {
	Requested decimal.Decimal
	Draws     []BatchDraw
	Drawn     decimal.Decimal
	TotalCost decimal.Decimal
	Shortage  decimal.Decimal
}

// Fulfilled reports whether the whole request was covered
func (s *BatchSelection) Fulfilled() bool {
	return s.Shortage.IsZero()
}

// SortFEFO orders batches first-expired-first-out: earliest expiration first,
// batches without an expiration last, then production date, then receipt order.
func SortFEFO(batches []*MaterialBatch) {
	sort.SliceStable(batches, func(i, j int) bool {
		a, b := batches[i], batches[j]
		if a.ExpirationDate != nil && b.ExpirationDate != nil {
			if !a.ExpirationDate.Equal(*b.ExpirationDate) {
				return a.ExpirationDate.Before(*b.ExpirationDate)
			}
		} else if a.ExpirationDate != nil {
			return true
		} else if b.ExpirationDate != nil {
			return false
		}
		if a.ProductionDate != nil && b.ProductionDate != nil {
			if !a.ProductionDate.Equal(*b.ProductionDate) {
				return a.ProductionDate.Before(*b.ProductionDate)
			}
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
}

// EligibleBatches returns the batches that can feed production at the given
// instant and still have something available, in FEFO order.
func EligibleBatches(batches []*MaterialBatch, at time.Time) []*MaterialBatch {
	eligible := make([]*MaterialBatch, 0, len(batches))
	for _, b := range batches {
		if b.IsEligibleAt(at) && b.Available().IsPositive() {
			eligible = append(eligible, b)
		}
	}
	SortFEFO(eligible)
	return eligible
}

// TotalAvailable sums the available quantity of eligible batches
func TotalAvailable(batches []*MaterialBatch, at time.Time) decimal.Decimal {
	total := decimal.Zero
	for _, b := range batches {
		if b.IsEligibleAt(at) {
			total = total.Add(b.Available())
		}
	}
	return total
}

// SelectFEFO plans a greedy draw of requested units across batches without
// touching them. The earliest-expiring batch is emptied before the next one
// is used.
func SelectFEFO(requested decimal.Decimal, batches []*MaterialBatch, at time.Time) (*BatchSelection, error) {
	if !requested.IsPositive() {
		return nil, shared.ErrInvalidQuantity.WithMessage("requested quantity must be positive")
	}

	sel := &BatchSelection{
		Requested: requested,
		Draws:     make([]BatchDraw, 0),
		Drawn:     decimal.Zero,
		TotalCost: decimal.Zero,
	}
	remaining := requested
	for _, b := range EligibleBatches(batches, at) {
		if !remaining.IsPositive() {
			break
		}
		take := decimal.Min(remaining, b.Available())
		cost := take.Mul(b.UnitCost)
		sel.Draws = append(sel.Draws, BatchDraw{
			BatchID:     b.ID,
			Ref:         b.Ref(),
			Name:        b.Name,
			SKU:         b.SKU,
			BatchNumber: b.BatchNumber,
			Unit:        b.Unit,
			Quantity:    take,
			UnitCost:    b.UnitCost,
			TotalCost:   cost,
			Remaining:   b.Available().Sub(take),
		})
		sel.Drawn = sel.Drawn.Add(take)
		sel.TotalCost = sel.TotalCost.Add(cost)
		remaining = remaining.Sub(take)
	}
	sel.Shortage = remaining
	return sel, nil
}
