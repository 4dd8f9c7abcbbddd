package production

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/Oscarts/backery2-app-sub003/internal/domain/inventory"
	"github.com/Oscarts/backery2-app-sub003/internal/domain/production"
	"github.com/Oscarts/backery2-app-sub003/internal/domain/shared"
	"github.com/Oscarts/backery2-app-sub003/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AllocationService reserves, consumes and releases ledger stock for
// production runs.
//
// Each ingredient is reserved in its own transaction with the candidate
// batches row-locked, so two runs never draw the same units. When a later
// ingredient cannot be covered, the reservations already committed by the
// same call are released again.
type AllocationService struct {
	repos     Repositories
	txScope   TransactionScope
	publisher shared.EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewAllocationService creates a new AllocationService
func NewAllocationService(repos Repositories, txScope TransactionScope, publisher shared.EventPublisher, logger *zap.Logger) *AllocationService {
	return &AllocationService{
		repos:     repos,
		txScope:   txScope,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// Allocate reserves every ingredient of the recipe for the run, drawing from
// batches in FEFO order. Ingredients that already hold an allocation on the
// run are left alone, so a retried call only reserves what is missing. The
// allocations created by this call are returned.
func (s *AllocationService) Allocate(ctx context.Context, tenantID, runID uuid.UUID, req AllocateRequest) ([]AllocationResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "production_allocation", "allocate")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrRunID, runID.String())

	run, err := loadRun(ctx, s.repos, tenantID, runID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if run.Status.IsTerminal() {
		return nil, shared.ErrInvalidState.WithMessage("cannot allocate for a " + string(run.Status) + " production run")
	}

	recipeID := run.RecipeID
	if req.RecipeID != nil {
		recipeID = *req.RecipeID
	}
	recipe, err := loadRecipe(ctx, s.repos, tenantID, recipeID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	multiplier := recipe.MultiplierFor(run.TargetQuantity)
	if req.Multiplier != nil {
		multiplier = *req.Multiplier
	}
	if !multiplier.IsPositive() {
		return nil, shared.ErrInvalidInput.WithMessage("multiplier must be greater than zero")
	}
	telemetry.SetAttributes(span,
		telemetry.SpanAttrRecipeID, recipe.ID.String(),
		telemetry.SpanAttrMultiplier, multiplier.String(),
	)

	at := s.now()
	created := make([]*production.Allocation, 0)
	for _, ing := range recipe.Ingredients {
		allocs, err := s.allocateIngredient(ctx, tenantID, runID, ing, multiplier, at)
		if err != nil {
			telemetry.RecordError(span, err)
			s.logger.Warn("allocation failed, releasing reservations made by this call",
				zap.String("run_id", runID.String()),
				zap.String("material_id", ing.Material.ID().String()),
				zap.Int("already_allocated", len(created)),
				zap.Error(err),
			)
			s.compensate(ctx, tenantID, runID, created)

			var domainErr *shared.DomainError
			if errors.As(err, &domainErr) && domainErr.Code == shared.ErrInsufficientStock.Code {
				if shortage, ok := domainErr.Details.(production.Shortage); ok {
					s.publish(ctx, production.NewIngredientShortageEvent(tenantID, runID, shortage))
				}
			}
			return nil, err
		}
		created = append(created, allocs...)
	}

	if len(created) > 0 {
		s.publish(ctx, production.NewAllocationsEvent(production.EventTypeAllocationsReserved, tenantID, runID, created))
	}

	s.logger.Info("ingredients allocated",
		zap.String("run_id", runID.String()),
		zap.String("recipe_id", recipe.ID.String()),
		zap.String("multiplier", multiplier.String()),
		zap.Int("allocations", len(created)),
	)
	telemetry.SetAttribute(span, "allocations", len(created))
	return ToAllocationResponses(created), nil
}

func (s *AllocationService) allocateIngredient(ctx context.Context, tenantID, runID uuid.UUID, ing production.RecipeIngredient, multiplier decimal.Decimal, at time.Time) ([]*production.Allocation, error) {
	var created []*production.Allocation
	err := s.txScope.Execute(ctx, func(tx Repositories) error {
		run, err := lockRun(ctx, tx, tenantID, runID)
		if err != nil {
			return err
		}
		if run.Status.IsTerminal() {
			return shared.ErrInvalidState.WithMessage("cannot allocate for a " + string(run.Status) + " production run")
		}

		existing, err := tx.Allocations().FindByRun(ctx, tenantID, runID)
		if err != nil {
			return fmt.Errorf("load allocations: %w", err)
		}
		for _, a := range existing {
			if a.Status != production.AllocationStatusReleased && a.IngredientID != nil && *a.IngredientID == ing.ID {
				return nil
			}
		}

		stock, err := findMaterialStock(ctx, tx.Batches(), tenantID, ing.Material, at, true)
		if err != nil {
			return err
		}
		needed := ing.Quantity.Mul(multiplier)
		selection, err := inventory.SelectFEFO(needed, stock.Batches, at)
		if err != nil {
			return err
		}
		if !selection.Fulfilled() {
			return shared.ErrInsufficientStock.
				WithMessage(fmt.Sprintf("insufficient stock of %s: need %s, available %s", displayName(stock.Name, ing.Material), needed, selection.Drawn)).
				WithDetails(production.Shortage{
					Material:     ing.Material,
					MaterialType: ing.Material.Kind().String(),
					MaterialID:   ing.Material.ID(),
					MaterialName: stock.Name,
					Needed:       needed,
					Available:    selection.Drawn,
					Missing:      selection.Shortage,
					Unit:         ing.Unit,
				})
		}

		byID := make(map[uuid.UUID]*inventory.MaterialBatch, len(stock.Batches))
		for _, b := range stock.Batches {
			byID[b.ID] = b
		}
		ingredientID := ing.ID
		allocs := make([]*production.Allocation, 0, len(selection.Draws))
		for _, draw := range selection.Draws {
			batch := byID[draw.BatchID]
			if err := batch.Reserve(draw.Quantity); err != nil {
				return err
			}
			if err := tx.Batches().Save(ctx, batch); err != nil {
				return fmt.Errorf("reserve batch %s: %w", batch.ID, err)
			}
			telemetry.AddEvent(ctx, "batch_reserved",
				telemetry.SpanAttrBatchID, batch.ID,
				telemetry.SpanAttrQuantity, draw.Quantity,
			)
			allocs = append(allocs, production.NewAllocation(tenantID, runID, &ingredientID, draw, at))
		}
		if err := tx.Allocations().CreateBatch(ctx, allocs); err != nil {
			return fmt.Errorf("create allocations: %w", err)
		}
		created = allocs
		return nil
	})
	return created, err
}

// compensate releases allocations committed earlier in a failed Allocate call
func (s *AllocationService) compensate(ctx context.Context, tenantID, runID uuid.UUID, allocs []*production.Allocation) {
	if len(allocs) == 0 {
		return
	}
	ctx = context.WithoutCancel(ctx)
	ids := make(map[uuid.UUID]bool, len(allocs))
	for _, a := range allocs {
		ids[a.ID] = true
	}

	var released []*production.Allocation
	err := s.txScope.Execute(ctx, func(tx Repositories) error {
		active, err := tx.Allocations().FindActiveByRunForUpdate(ctx, tenantID, runID)
		if err != nil {
			return fmt.Errorf("load active allocations: %w", err)
		}
		mine := make([]*production.Allocation, 0, len(allocs))
		for _, a := range active {
			if ids[a.ID] {
				mine = append(mine, a)
			}
		}
		released, _, err = releaseAllocations(ctx, tx, tenantID, mine, s.now(), s.logger)
		return err
	})
	if err != nil {
		s.logger.Error("failed to release reservations of a failed allocation",
			zap.String("run_id", runID.String()),
			zap.Int("allocations", len(allocs)),
			zap.Error(err),
		)
		return
	}
	if len(released) > 0 {
		s.publish(ctx, production.NewAllocationsEvent(production.EventTypeAllocationsReleased, tenantID, runID, released))
	}
}

// Consume commits every ALLOCATED row of the run in one transaction.
// quantities gives the measured usage per allocation; allocations without an
// entry are consumed at their allocated quantity.
func (s *AllocationService) Consume(ctx context.Context, tenantID, runID uuid.UUID, req ConsumeRequest) ([]AllocationResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "production_allocation", "consume")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrRunID, runID.String())

	quantities := make(map[uuid.UUID]decimal.Decimal, len(req.Quantities))
	for _, q := range req.Quantities {
		if q.Quantity.IsNegative() {
			return nil, shared.ErrInvalidQuantity.WithMessage("consumed quantity cannot be negative")
		}
		quantities[q.AllocationID] = q.Quantity
	}

	var consumed []*production.Allocation
	err := s.txScope.Execute(ctx, func(tx Repositories) error {
		run, err := lockRun(ctx, tx, tenantID, runID)
		if err != nil {
			return err
		}
		if run.Status.IsTerminal() {
			return shared.ErrInvalidState.WithMessage("cannot consume for a " + string(run.Status) + " production run")
		}
		active, err := tx.Allocations().FindActiveByRunForUpdate(ctx, tenantID, runID)
		if err != nil {
			return fmt.Errorf("load active allocations: %w", err)
		}
		known := make(map[uuid.UUID]bool, len(active))
		for _, a := range active {
			known[a.ID] = true
		}
		for id := range quantities {
			if !known[id] {
				return shared.ErrInvalidInput.WithMessage("allocation " + id.String() + " is not active on this production run")
			}
		}
		consumed, err = consumeAllocations(ctx, tx, tenantID, active, quantities, s.now(), s.logger)
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if len(consumed) > 0 {
		s.publish(ctx, production.NewAllocationsEvent(production.EventTypeAllocationsConsumed, tenantID, runID, consumed))
	}
	s.logger.Info("allocations consumed",
		zap.String("run_id", runID.String()),
		zap.Int("allocations", len(consumed)),
	)
	return ToAllocationResponses(consumed), nil
}

// Release returns every ALLOCATED row of the run to the available pool.
// Calling it again is harmless.
func (s *AllocationService) Release(ctx context.Context, tenantID, runID uuid.UUID) (*ReleaseResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "production_allocation", "release")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrRunID, runID.String())

	var released []*production.Allocation
	total := decimal.Zero
	err := s.txScope.Execute(ctx, func(tx Repositories) error {
		if _, err := lockRun(ctx, tx, tenantID, runID); err != nil {
			return err
		}
		active, err := tx.Allocations().FindActiveByRunForUpdate(ctx, tenantID, runID)
		if err != nil {
			return fmt.Errorf("load active allocations: %w", err)
		}
		released, total, err = releaseAllocations(ctx, tx, tenantID, active, s.now(), s.logger)
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if len(released) > 0 {
		s.publish(ctx, production.NewAllocationsEvent(production.EventTypeAllocationsReleased, tenantID, runID, released))
		s.logger.Info("allocations released",
			zap.String("run_id", runID.String()),
			zap.Int("allocations", len(released)),
			zap.String("quantity", total.String()),
		)
	}
	return &ReleaseResponse{
		ProductionRunID:  runID,
		Released:         ToAllocationResponses(released),
		ReleasedQuantity: total,
	}, nil
}

// GetMaterialUsage lists every allocation of the run with totals
func (s *AllocationService) GetMaterialUsage(ctx context.Context, tenantID, runID uuid.UUID) (*MaterialUsageResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "production_allocation", "material_usage")
	defer span.End()

	if _, err := loadRun(ctx, s.repos, tenantID, runID); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	allocs, err := s.repos.Allocations().FindByRun(ctx, tenantID, runID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("load allocations: %w", err)
	}

	summary := production.SummarizeUsage(allocs)
	return &MaterialUsageResponse{
		ProductionRunID: runID,
		Allocations:     ToAllocationResponses(allocs),
		TotalAllocated:  summary.TotalAllocated,
		TotalConsumed:   summary.TotalConsumed,
		TotalReleased:   summary.TotalReleased,
		TotalCost:       summary.TotalCost,
		ActiveCount:     summary.Active,
		ConsumedCount:   summary.Consumed,
		ReleasedCount:   summary.Released,
	}, nil
}

func (s *AllocationService) publish(ctx context.Context, events ...shared.DomainEvent) {
	publishEvents(ctx, s.publisher, s.logger, events...)
}

// lockBatches row-locks the batches behind allocs in id order. Batches that
// no longer exist are left out of the result.
func lockBatches(ctx context.Context, tx Repositories, tenantID uuid.UUID, allocs []*production.Allocation) (map[inventory.MaterialRef]*inventory.MaterialBatch, error) {
	refs := make([]inventory.MaterialRef, 0, len(allocs))
	seen := make(map[inventory.MaterialRef]bool, len(allocs))
	for _, a := range allocs {
		if !seen[a.Material] {
			seen[a.Material] = true
			refs = append(refs, a.Material)
		}
	}
	sort.Slice(refs, func(i, j int) bool {
		return refs[i].ID().String() < refs[j].ID().String()
	})

	locked := make(map[inventory.MaterialRef]*inventory.MaterialBatch, len(refs))
	for _, ref := range refs {
		b, err := tx.Batches().FindByRefForUpdate(ctx, tenantID, ref)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("lock batch %s: %w", ref, err)
		}
		locked[ref] = b
	}
	return locked, nil
}

func saveBatches(ctx context.Context, tx Repositories, batches map[inventory.MaterialRef]*inventory.MaterialBatch) error {
	for _, b := range batches {
		if err := tx.Batches().Save(ctx, b); err != nil {
			return fmt.Errorf("save batch %s: %w", b.ID, err)
		}
	}
	return nil
}

// releaseAllocations returns active allocations to their batches. It reports
// the allocations that changed and the quantity given back to the ledger.
func releaseAllocations(ctx context.Context, tx Repositories, tenantID uuid.UUID, allocs []*production.Allocation, at time.Time, logger *zap.Logger) ([]*production.Allocation, decimal.Decimal, error) {
	total := decimal.Zero
	if len(allocs) == 0 {
		return nil, total, nil
	}
	batches, err := lockBatches(ctx, tx, tenantID, allocs)
	if err != nil {
		return nil, total, err
	}

	released := make([]*production.Allocation, 0, len(allocs))
	for _, a := range allocs {
		if !a.Release(at) {
			continue
		}
		if b, ok := batches[a.Material]; ok {
			total = total.Add(b.ReleaseReservation(a.QuantityAllocated))
		} else {
			logger.Warn("released allocation of a batch that no longer exists",
				zap.String("allocation_id", a.ID.String()),
				zap.String("material", a.Material.String()),
			)
		}
		if err := tx.Allocations().Save(ctx, a); err != nil {
			return nil, total, fmt.Errorf("save allocation %s: %w", a.ID, err)
		}
		released = append(released, a)
	}
	if err := saveBatches(ctx, tx, batches); err != nil {
		return nil, total, err
	}
	return released, total, nil
}

// consumeAllocations deducts consumed quantities from batches and closes
// their reservations. Mismatches between allocation and consumption are
// logged, never rejected.
func consumeAllocations(ctx context.Context, tx Repositories, tenantID uuid.UUID, allocs []*production.Allocation, quantities map[uuid.UUID]decimal.Decimal, at time.Time, logger *zap.Logger) ([]*production.Allocation, error) {
	if len(allocs) == 0 {
		return nil, nil
	}
	batches, err := lockBatches(ctx, tx, tenantID, allocs)
	if err != nil {
		return nil, err
	}

	consumed := make([]*production.Allocation, 0, len(allocs))
	for _, a := range allocs {
		if !a.IsActive() {
			continue
		}
		qty, ok := quantities[a.ID]
		if !ok {
			qty = a.QuantityAllocated
		}

		if b, found := batches[a.Material]; found {
			outcome := b.Consume(a.QuantityAllocated, qty)
			if outcome.HasMismatch() {
				logger.Warn("allocation consumption mismatch",
					zap.String("allocation_id", a.ID.String()),
					zap.String("run_id", a.ProductionRunID.String()),
					zap.String("batch_id", b.ID.String()),
					zap.String("allocated", a.QuantityAllocated.String()),
					zap.String("consumed", qty.String()),
					zap.String("over_consumed", outcome.OverConsumed.String()),
					zap.String("shortfall", outcome.Shortfall.String()),
				)
			}
		} else {
			logger.Warn("consumed allocation of a batch that no longer exists",
				zap.String("allocation_id", a.ID.String()),
				zap.String("material", a.Material.String()),
			)
		}

		if err := a.Consume(qty, at); err != nil {
			return nil, err
		}
		if err := tx.Allocations().Save(ctx, a); err != nil {
			return nil, fmt.Errorf("save allocation %s: %w", a.ID, err)
		}
		consumed = append(consumed, a)
	}
	if err := saveBatches(ctx, tx, batches); err != nil {
		return nil, err
	}
	return consumed, nil
}

func displayName(name string, ref inventory.MaterialRef) string {
	if name != "" {
		return name
	}
	return ref.String()
}
