package production

import (
	"context"
	"fmt"
	"time"

	"github.com/Oscarts/backery2-app-sub003/internal/domain/production"
	"github.com/Oscarts/backery2-app-sub003/internal/domain/shared"
	"github.com/Oscarts/backery2-app-sub003/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RunService plans production runs and moves their steps along
type RunService struct {
	repos   Repositories
	txScope TransactionScope
	logger  *zap.Logger
	now     func() time.Time
}

// NewRunService creates a new RunService
func NewRunService(repos Repositories, txScope TransactionScope, logger *zap.Logger) *RunService {
	return &RunService{
		repos:   repos,
		txScope: txScope,
		logger:  logger,
		now:     time.Now,
	}
}

// CreateProductionRun plans a run of a recipe. Ingredients are not reserved;
// call Allocate for that.
func (s *RunService) CreateProductionRun(ctx context.Context, tenantID uuid.UUID, req CreateProductionRunRequest) (*ProductionRunResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "production_run", "create")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrRecipeID, req.RecipeID.String())

	recipe, err := loadRecipe(ctx, s.repos, tenantID, req.RecipeID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	run, err := production.NewProductionRun(tenantID, recipe, req.Name, req.TargetQuantity, toStepTemplates(req.Steps))
	if err != nil {
		return nil, err
	}
	if err := s.repos.Runs().Create(ctx, run); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("create production run: %w", err)
	}

	s.logger.Info("production run planned",
		zap.String("run_id", run.ID.String()),
		zap.String("recipe_id", recipe.ID.String()),
		zap.String("target_quantity", run.TargetQuantity.String()),
		zap.Int("steps", len(run.Steps)),
	)
	resp := ToProductionRunResponse(run)
	return &resp, nil
}

// GetProductionRun returns a run with its steps
func (s *RunService) GetProductionRun(ctx context.Context, tenantID, runID uuid.UUID) (*ProductionRunResponse, error) {
	run, err := loadRun(ctx, s.repos, tenantID, runID)
	if err != nil {
		return nil, err
	}
	resp := ToProductionRunResponse(run)
	return &resp, nil
}

// StartStep starts a step. The first started step moves the run to IN_PROGRESS.
func (s *RunService) StartStep(ctx context.Context, tenantID, runID, stepID uuid.UUID) (*ProductionRunResponse, error) {
	return s.mutate(ctx, tenantID, runID, "start_step", func(run *production.ProductionRun, at time.Time) error {
		return run.StartStep(stepID, at)
	})
}

// CompleteStep finishes a step
func (s *RunService) CompleteStep(ctx context.Context, tenantID, runID, stepID uuid.UUID, req CompleteStepRequest) (*ProductionRunResponse, error) {
	return s.mutate(ctx, tenantID, runID, "complete_step", func(run *production.ProductionRun, at time.Time) error {
		return run.CompleteStep(stepID, req.ActualMinutes, req.Notes, at)
	})
}

// SkipStep marks a step as not needed
func (s *RunService) SkipStep(ctx context.Context, tenantID, runID, stepID uuid.UUID, req SkipStepRequest) (*ProductionRunResponse, error) {
	return s.mutate(ctx, tenantID, runID, "skip_step", func(run *production.ProductionRun, at time.Time) error {
		return run.SkipStep(stepID, req.Notes, at)
	})
}

// Hold pauses a run
func (s *RunService) Hold(ctx context.Context, tenantID, runID uuid.UUID, req HoldRunRequest) (*ProductionRunResponse, error) {
	return s.mutate(ctx, tenantID, runID, "hold", func(run *production.ProductionRun, _ time.Time) error {
		return run.Hold(req.Reason)
	})
}

// Resume continues a held run
func (s *RunService) Resume(ctx context.Context, tenantID, runID uuid.UUID) (*ProductionRunResponse, error) {
	return s.mutate(ctx, tenantID, runID, "resume", func(run *production.ProductionRun, _ time.Time) error {
		return run.Resume()
	})
}

func (s *RunService) mutate(ctx context.Context, tenantID, runID uuid.UUID, method string, fn func(*production.ProductionRun, time.Time) error) (*ProductionRunResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "production_run", method)
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrRunID, runID.String())

	var updated *production.ProductionRun
	err := s.txScope.Execute(ctx, func(tx Repositories) error {
		run, err := lockRun(ctx, tx, tenantID, runID)
		if err != nil {
			return err
		}
		if err := fn(run, s.now()); err != nil {
			return err
		}
		if err := tx.Runs().Save(ctx, run); err != nil {
			return fmt.Errorf("save production run: %w", err)
		}
		updated = run
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Debug("production run updated",
		zap.String("run_id", runID.String()),
		zap.String("operation", method),
		zap.String("status", string(updated.Status)),
	)
	resp := ToProductionRunResponse(updated)
	return &resp, nil
}

// RecipeService maintains the recipes production runs are planned from
type RecipeService struct {
	repos  Repositories
	logger *zap.Logger
}

// NewRecipeService creates a new RecipeService
func NewRecipeService(repos Repositories, logger *zap.Logger) *RecipeService {
	return &RecipeService{repos: repos, logger: logger}
}

// CreateRecipe creates a recipe with its ingredient lines
func (s *RecipeService) CreateRecipe(ctx context.Context, tenantID uuid.UUID, req CreateRecipeRequest) (*RecipeResponse, error) {
	recipe, err := production.NewRecipe(tenantID, req.Name, req.YieldQuantity, req.YieldUnit)
	if err != nil {
		return nil, err
	}
	if req.OverheadPercentage != nil {
		if err := recipe.SetOverheadPercentage(*req.OverheadPercentage); err != nil {
			return nil, err
		}
	}
	if req.ShelfLifeDays != nil {
		if err := recipe.SetShelfLifeDays(*req.ShelfLifeDays); err != nil {
			return nil, err
		}
	}
	for _, line := range req.Ingredients {
		ref, err := inventoryRef(line.MaterialType, line.MaterialID)
		if err != nil {
			return nil, err
		}
		if err := recipe.AddIngredient(ref, line.Quantity, line.Unit); err != nil {
			return nil, err
		}
	}
	if len(recipe.Ingredients) == 0 {
		return nil, shared.ErrInvalidInput.WithMessage("recipe needs at least one ingredient")
	}

	if err := s.repos.Recipes().Create(ctx, recipe); err != nil {
		return nil, fmt.Errorf("create recipe: %w", err)
	}
	s.logger.Info("recipe created",
		zap.String("recipe_id", recipe.ID.String()),
		zap.String("name", recipe.Name),
		zap.Int("ingredients", len(recipe.Ingredients)),
	)
	resp := ToRecipeResponse(recipe)
	return &resp, nil
}

// GetRecipe returns a recipe with its ingredients
func (s *RecipeService) GetRecipe(ctx context.Context, tenantID, recipeID uuid.UUID) (*RecipeResponse, error) {
	recipe, err := loadRecipe(ctx, s.repos, tenantID, recipeID)
	if err != nil {
		return nil, err
	}
	resp := ToRecipeResponse(recipe)
	return &resp, nil
}
