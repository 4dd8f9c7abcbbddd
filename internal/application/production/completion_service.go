package production

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Oscarts/backery2-app-sub003/internal/domain/inventory"
	"github.com/Oscarts/backery2-app-sub003/internal/domain/production"
	"github.com/Oscarts/backery2-app-sub003/internal/domain/shared"
	"github.com/Oscarts/backery2-app-sub003/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CompletionService finishes and cancels production runs.
//
// Completion consumes the remaining reservations, prices the run, creates the
// finished-product batch and marks the run COMPLETED in one transaction that
// starts by re-reading the run under a row lock. Retried or concurrent
// completions therefore produce one finished product. The optional guard
// only short-circuits duplicates early.
type CompletionService struct {
	repos     Repositories
	txScope   TransactionScope
	costs     *CostService
	guard     shared.IdempotencyStore
	publisher shared.EventPublisher
	settings  Settings
	logger    *zap.Logger
	now       func() time.Time
}

// NewCompletionService creates a new CompletionService. guard may be nil.
func NewCompletionService(
	repos Repositories,
	txScope TransactionScope,
	costs *CostService,
	guard shared.IdempotencyStore,
	publisher shared.EventPublisher,
	settings Settings,
	logger *zap.Logger,
) *CompletionService {
	return &CompletionService{
		repos:     repos,
		txScope:   txScope,
		costs:     costs,
		guard:     guard,
		publisher: publisher,
		settings:  settings.withDefaults(),
		logger:    logger,
		now:       time.Now,
	}
}

func completionGuardKey(tenantID, runID uuid.UUID) string {
	return fmt.Sprintf("production:complete:%s:%s", tenantID, runID)
}

// CompleteProductionRun completes a run whose steps are all finished.
// Completing an already completed run returns the existing result with
// AlreadyCompleted set.
func (s *CompletionService) CompleteProductionRun(ctx context.Context, tenantID, runID uuid.UUID, req CompleteRunRequest) (*CompletionResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "production_completion", "complete")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrRunID, runID.String())

	if req.ActualQuantity != nil && !req.ActualQuantity.IsPositive() {
		return nil, shared.ErrInvalidQuantity.WithMessage("actual quantity must be positive")
	}

	run, err := loadRun(ctx, s.repos, tenantID, runID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if run.IsCompleted() {
		return s.existingCompletion(ctx, s.repos, run)
	}

	if s.guard != nil {
		key := completionGuardKey(tenantID, runID)
		acquired, err := s.guard.Acquire(ctx, key, s.settings.CompletionGuardTTL)
		switch {
		case err != nil:
			s.logger.Warn("completion guard unavailable, relying on row lock",
				zap.String("run_id", runID.String()),
				zap.Error(err),
			)
		case !acquired:
			if current, err := loadRun(ctx, s.repos, tenantID, runID); err == nil && current.IsCompleted() {
				return s.existingCompletion(ctx, s.repos, current)
			}
			return nil, shared.ErrConcurrencyConflict.WithMessage("completion of this production run is already in progress")
		default:
			defer func() {
				if err := s.guard.Release(context.WithoutCancel(ctx), key); err != nil {
					s.logger.Warn("failed to release completion guard", zap.String("key", key), zap.Error(err))
				}
			}()
		}
	}

	var (
		result   *CompletionResponse
		consumed []*production.Allocation
		product  *inventory.MaterialBatch
		done     *production.ProductionRun
	)
	err = s.txScope.Execute(ctx, func(tx Repositories) error {
		run, err := lockRun(ctx, tx, tenantID, runID)
		if err != nil {
			return err
		}
		if run.IsCompleted() {
			result, err = s.existingCompletion(ctx, tx, run)
			return err
		}
		if run.Status == production.RunStatusCancelled {
			return shared.ErrInvalidState.WithMessage("cancelled production runs cannot be completed")
		}
		if pending := run.PendingSteps(); len(pending) > 0 {
			return shared.ErrStepsPending.
				WithMessage(fmt.Sprintf("%d production steps are not finished", len(pending))).
				WithDetails(pending)
		}

		finalQuantity := run.TargetQuantity
		if req.ActualQuantity != nil {
			finalQuantity = *req.ActualQuantity
		}
		at := s.now()

		active, err := tx.Allocations().FindActiveByRunForUpdate(ctx, tenantID, runID)
		if err != nil {
			return fmt.Errorf("load active allocations: %w", err)
		}
		consumed, err = consumeAllocations(ctx, tx, tenantID, active, nil, at, s.logger)
		if err != nil {
			return err
		}

		cost := s.costs.breakdownFor(ctx, tx, run, finalQuantity)

		product, err = s.createFinishedProduct(ctx, tx, run, finalQuantity, cost, at)
		if err != nil {
			return err
		}

		if err := run.Complete(finalQuantity, cost.TotalCost, product.ID, at); err != nil {
			return err
		}
		if err := tx.Runs().Save(ctx, run); err != nil {
			return fmt.Errorf("save production run: %w", err)
		}

		done = run
		costResp := ToCostBreakdownResponse(cost)
		productResp := ToMaterialBatchResponse(product)
		result = &CompletionResponse{
			Run:             ToProductionRunResponse(run),
			FinishedProduct: &productResp,
			Cost:            &costResp,
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if done != nil {
		events := make([]shared.DomainEvent, 0)
		if len(consumed) > 0 {
			events = append(events, production.NewAllocationsEvent(production.EventTypeAllocationsConsumed, tenantID, runID, consumed))
		}
		events = append(events, product.Drain()...)
		events = append(events, done.Drain()...)
		publishEvents(ctx, s.publisher, s.logger, events...)

		s.logger.Info("production run completed",
			zap.String("run_id", runID.String()),
			zap.String("finished_product_id", product.ID.String()),
			zap.String("final_quantity", done.FinalQuantity.String()),
			zap.String("total_cost", done.ActualCost.String()),
			zap.String("cost_source", result.Cost.Source),
		)
	}
	telemetry.SetAttribute(span, "already_completed", result.AlreadyCompleted)
	return result, nil
}

func (s *CompletionService) createFinishedProduct(ctx context.Context, tx Repositories, run *production.ProductionRun, quantity decimal.Decimal, cost production.CostBreakdown, at time.Time) (*inventory.MaterialBatch, error) {
	name := run.Name
	shelfLife := time.Duration(s.settings.DefaultShelfLifeDays) * 24 * time.Hour
	recipe, err := tx.Recipes().FindByID(ctx, run.TenantID, run.RecipeID)
	if err == nil {
		name = recipe.Name
		shelfLife = recipe.ShelfLife(s.settings.DefaultShelfLifeDays)
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("load recipe: %w", err)
	}

	location, err := s.defaultLocation(ctx, tx, run.TenantID)
	if err != nil {
		return nil, err
	}

	product, err := inventory.NewFinishedProduct(run.TenantID, inventory.FinishedProductInput{
		Name:              name,
		SKU:               finishedProductSKU(name),
		BatchNumber:       finishedProductBatchNumber(run.ID, at),
		Quantity:          quantity,
		Unit:              run.TargetUnit,
		CostPerUnit:       cost.CostPerUnit,
		SalePrice:         production.SalePrice(cost.CostPerUnit, s.settings.DefaultMarkupPercentage),
		ProductionDate:    at,
		ExpirationDate:    at.Add(shelfLife),
		StorageLocationID: location.ID,
		ProductionRunID:   run.ID,
	})
	if err != nil {
		return nil, err
	}
	if err := tx.Batches().Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create finished product: %w", err)
	}
	return product, nil
}

// defaultLocation returns the tenant's default storage location, creating
// the default warehouse on first use.
func (s *CompletionService) defaultLocation(ctx context.Context, tx Repositories, tenantID uuid.UUID) (*inventory.StorageLocation, error) {
	loc, err := tx.Locations().FindDefault(ctx, tenantID)
	if err == nil {
		return loc, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("load default storage location: %w", err)
	}

	if err := tx.Locations().Create(ctx, inventory.NewDefaultWarehouse(tenantID, s.settings.DefaultWarehouseName)); err != nil {
		return nil, fmt.Errorf("create default warehouse: %w", err)
	}
	// Re-read so a warehouse created concurrently wins over ours.
	loc, err = tx.Locations().FindDefault(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("load default storage location: %w", err)
	}
	s.logger.Info("created default warehouse",
		zap.String("tenant_id", tenantID.String()),
		zap.String("location_id", loc.ID.String()),
	)
	return loc, nil
}

func (s *CompletionService) existingCompletion(ctx context.Context, repos Repositories, run *production.ProductionRun) (*CompletionResponse, error) {
	resp := &CompletionResponse{
		Run:              ToProductionRunResponse(run),
		AlreadyCompleted: true,
	}
	product, err := repos.Batches().FindByProductionRun(ctx, run.TenantID, run.ID)
	switch {
	case err == nil:
		productResp := ToMaterialBatchResponse(product)
		resp.FinishedProduct = &productResp
	case errors.Is(err, shared.ErrNotFound):
		s.logger.Warn("completed production run has no finished product",
			zap.String("run_id", run.ID.String()),
		)
	default:
		return nil, fmt.Errorf("load finished product: %w", err)
	}

	quantity := run.TargetQuantity
	if run.FinalQuantity != nil {
		quantity = *run.FinalQuantity
	}
	cost := ToCostBreakdownResponse(s.costs.breakdownFor(ctx, repos, run, quantity))
	resp.Cost = &cost
	return resp, nil
}

// CancelProductionRun cancels a run that has not completed and releases its
// reservations in the same transaction. Cancelling twice is a no-op.
func (s *CompletionService) CancelProductionRun(ctx context.Context, tenantID, runID uuid.UUID, req CancelRunRequest) (*CancellationResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "production_completion", "cancel")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrRunID, runID.String())

	var (
		run      *production.ProductionRun
		released []*production.Allocation
		total    decimal.Decimal
		changed  bool
	)
	err := s.txScope.Execute(ctx, func(tx Repositories) error {
		var err error
		run, err = lockRun(ctx, tx, tenantID, runID)
		if err != nil {
			return err
		}
		at := s.now()
		changed, err = run.Cancel(req.Reason, at)
		if err != nil {
			return err
		}

		active, err := tx.Allocations().FindActiveByRunForUpdate(ctx, tenantID, runID)
		if err != nil {
			return fmt.Errorf("load active allocations: %w", err)
		}
		released, total, err = releaseAllocations(ctx, tx, tenantID, active, at, s.logger)
		if err != nil {
			return err
		}

		if changed {
			if err := tx.Runs().Save(ctx, run); err != nil {
				return fmt.Errorf("save production run: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	events := make([]shared.DomainEvent, 0)
	if len(released) > 0 {
		events = append(events, production.NewAllocationsEvent(production.EventTypeAllocationsReleased, tenantID, runID, released))
	}
	events = append(events, run.Drain()...)
	publishEvents(ctx, s.publisher, s.logger, events...)

	if changed {
		s.logger.Info("production run cancelled",
			zap.String("run_id", runID.String()),
			zap.Int("released_allocations", len(released)),
			zap.String("reason", req.Reason),
		)
	}
	return &CancellationResponse{
		Run:              ToProductionRunResponse(run),
		ReleasedCount:    len(released),
		ReleasedQuantity: total,
		AlreadyCancelled: !changed,
	}, nil
}

func finishedProductBatchNumber(runID uuid.UUID, at time.Time) string {
	return fmt.Sprintf("PR-%s-%s", at.UTC().Format("20060102"), strings.ToUpper(runID.String()[:8]))
}

func finishedProductSKU(name string) string {
	return "FP-" + strings.ToUpper(strings.Join(strings.Fields(inventory.NameKey(name)), "-"))
}
