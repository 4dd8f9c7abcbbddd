package production

import (
	"context"
	"time"

	"github.com/Oscarts/backery2-app-sub003/internal/domain/inventory"
	"github.com/Oscarts/backery2-app-sub003/internal/domain/production"
	"github.com/Oscarts/backery2-app-sub003/internal/domain/shared"
	"github.com/Oscarts/backery2-app-sub003/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AvailabilityService answers whether the ledger can cover a recipe. Checks
// are plain reads and may be stale by the time an allocation runs.
type AvailabilityService struct {
	repos  Repositories
	logger *zap.Logger
	now    func() time.Time
}

// NewAvailabilityService creates a new AvailabilityService
func NewAvailabilityService(repos Repositories, logger *zap.Logger) *AvailabilityService {
	return &AvailabilityService{
		repos:  repos,
		logger: logger,
		now:    time.Now,
	}
}

// CheckAvailability compares the needs of multiplier batches of a recipe with
// the available quantity summed across every eligible batch of each material.
func (s *AvailabilityService) CheckAvailability(ctx context.Context, tenantID, recipeID uuid.UUID, multiplier decimal.Decimal) (*AvailabilityResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "production_availability", "check")
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

	report, err := buildAvailabilityReport(ctx, s.repos.Batches(), tenantID, recipe, multiplier, s.now())
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if !report.CanProduce() {
		s.logger.Info("recipe cannot be produced from current stock",
			zap.String("recipe_id", recipeID.String()),
			zap.String("multiplier", multiplier.String()),
			zap.Int("shortages", len(report.Shortages())),
		)
	}
	telemetry.SetAttribute(span, "can_produce", report.CanProduce())

	resp := ToAvailabilityResponse(report)
	return &resp, nil
}

func buildAvailabilityReport(ctx context.Context, batches inventory.MaterialBatchRepository, tenantID uuid.UUID, recipe *production.Recipe, multiplier decimal.Decimal, at time.Time) (production.AvailabilityReport, error) {
	report := production.AvailabilityReport{
		RecipeID:    recipe.ID,
		Multiplier:  multiplier,
		Ingredients: make([]production.IngredientAvailability, 0, len(recipe.Ingredients)),
	}
	for _, ing := range recipe.Ingredients {
		stock, err := findMaterialStock(ctx, batches, tenantID, ing.Material, at, false)
		if err != nil {
			return production.AvailabilityReport{}, err
		}
		needed := ing.Quantity.Mul(multiplier)
		available := inventory.TotalAvailable(stock.Batches, at)
		report.Ingredients = append(report.Ingredients,
			production.NewIngredientAvailability(ing, stock.Name, needed, available, len(stock.Batches)))
	}
	return report, nil
}
