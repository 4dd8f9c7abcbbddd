package production

import (
	"context"
	"time"

	"github.com/Oscarts/backery2-app-sub003/internal/domain/production"
	"github.com/Oscarts/backery2-app-sub003/internal/domain/shared"
	"github.com/Oscarts/backery2-app-sub003/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CostService prices production runs. It prefers the actual cost of the
// run's allocations, falls back to an estimate from current batch prices and
// finally to a fixed default material cost. Pricing never fails for a run
// that exists.
type CostService struct {
	repos    Repositories
	settings Settings
	logger   *zap.Logger
	now      func() time.Time
}

// NewCostService creates a new CostService
func NewCostService(repos Repositories, settings Settings, logger *zap.Logger) *CostService {
	return &CostService{
		repos:    repos,
		settings: settings.withDefaults(),
		logger:   logger,
		now:      time.Now,
	}
}

// CalculateProductionCost prices a run over its final quantity, or its
// target quantity while the run is still open.
func (s *CostService) CalculateProductionCost(ctx context.Context, tenantID, runID uuid.UUID) (*CostBreakdownResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "production_cost", "calculate")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrRunID, runID.String())

	run, err := loadRun(ctx, s.repos, tenantID, runID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	quantity := run.TargetQuantity
	if run.FinalQuantity != nil {
		quantity = *run.FinalQuantity
	}
	breakdown := s.breakdownFor(ctx, s.repos, run, quantity)
	telemetry.SetAttributes(span,
		"cost_source", string(breakdown.Source),
		"total_cost", breakdown.TotalCost.String(),
	)

	resp := ToCostBreakdownResponse(breakdown)
	return &resp, nil
}

// EstimateRecipeCost prices multiplier batches of a recipe from current
// batch prices, for planning before a run exists.
func (s *CostService) EstimateRecipeCost(ctx context.Context, tenantID, recipeID uuid.UUID, multiplier decimal.Decimal) (*CostBreakdownResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "production_cost", "estimate")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrRecipeID, recipeID.String(),
		telemetry.SpanAttrMultiplier, multiplier.String(),
	)

	if !multiplier.IsPositive() {
		return nil, shared.ErrInvalidInput.WithMessage("multiplier must be greater than zero")
	}
	recipe, err := loadRecipe(ctx, s.repos, tenantID, recipeID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	quantity := recipe.YieldQuantity.Mul(multiplier)
	overhead := recipe.EffectiveOverhead(s.settings.DefaultOverheadPercentage)
	breakdown, ok := s.estimate(ctx, s.repos, recipe, multiplier, overhead, quantity)
	if !ok {
		breakdown = s.fallback(overhead, quantity)
	}

	resp := ToCostBreakdownResponse(breakdown)
	return &resp, nil
}

// breakdownFor runs the three pricing tiers against repos, which may be
// transaction scoped.
func (s *CostService) breakdownFor(ctx context.Context, repos Repositories, run *production.ProductionRun, quantity decimal.Decimal) production.CostBreakdown {
	overhead := s.settings.DefaultOverheadPercentage
	recipe, err := repos.Recipes().FindByID(ctx, run.TenantID, run.RecipeID)
	if err != nil {
		s.logger.Warn("recipe unavailable for costing, using default overhead",
			zap.String("run_id", run.ID.String()),
			zap.String("recipe_id", run.RecipeID.String()),
			zap.Error(err),
		)
		recipe = nil
	} else {
		overhead = recipe.EffectiveOverhead(s.settings.DefaultOverheadPercentage)
	}

	allocs, err := repos.Allocations().FindByRun(ctx, run.TenantID, run.ID)
	if err != nil {
		s.logger.Warn("allocations unavailable for costing",
			zap.String("run_id", run.ID.String()),
			zap.Error(err),
		)
	}
	hasActual := false
	for _, a := range allocs {
		if a.Status != production.AllocationStatusReleased {
			hasActual = true
			break
		}
	}
	if hasActual {
		materialCost, lines := production.CostFromAllocations(allocs)
		return production.NewCostBreakdown(production.CostSourceActual, materialCost, overhead, quantity, lines)
	}

	if recipe != nil {
		if breakdown, ok := s.estimate(ctx, repos, recipe, recipe.MultiplierFor(run.TargetQuantity), overhead, quantity); ok {
			return breakdown
		}
	}

	s.logger.Info("no cost data for production run, using default material cost",
		zap.String("run_id", run.ID.String()),
		zap.String("default_material_cost", s.settings.DefaultMaterialCost.String()),
	)
	return s.fallback(overhead, quantity)
}

// estimate prices each ingredient at the unit cost of the first eligible
// batch of its material. Ingredients without stock are left out; the
// estimate is unusable when none could be priced.
func (s *CostService) estimate(ctx context.Context, repos Repositories, recipe *production.Recipe, multiplier, overhead, quantity decimal.Decimal) (production.CostBreakdown, bool) {
	at := s.now()
	total := decimal.Zero
	lines := make([]production.MaterialCostLine, 0, len(recipe.Ingredients))
	for _, ing := range recipe.Ingredients {
		stock, err := findMaterialStock(ctx, repos.Batches(), recipe.TenantID, ing.Material, at, false)
		if err != nil {
			s.logger.Warn("cost estimation failed",
				zap.String("recipe_id", recipe.ID.String()),
				zap.String("material", ing.Material.String()),
				zap.Error(err),
			)
			return production.CostBreakdown{}, false
		}
		if len(stock.Batches) == 0 {
			continue
		}
		first := stock.Batches[0]
		needed := ing.Quantity.Mul(multiplier)
		cost := needed.Mul(first.UnitCost)
		total = total.Add(cost)
		lines = append(lines, production.MaterialCostLine{
			Material:    ing.Material,
			Name:        stock.Name,
			BatchNumber: first.BatchNumber,
			Quantity:    needed,
			Unit:        ing.Unit,
			UnitCost:    first.UnitCost,
			TotalCost:   cost,
		})
	}
	if len(lines) == 0 {
		return production.CostBreakdown{}, false
	}
	return production.NewCostBreakdown(production.CostSourceEstimated, total, overhead, quantity, lines), true
}

func (s *CostService) fallback(overhead, quantity decimal.Decimal) production.CostBreakdown {
	return production.NewCostBreakdown(production.CostSourceDefault, s.settings.DefaultMaterialCost, overhead, quantity, nil)
}
