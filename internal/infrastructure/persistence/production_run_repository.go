package persistence

import (
	"context"
	"errors"

	"github.com/Oscarts/backery2-app-sub003/internal/domain/production"
	"github.com/Oscarts/backery2-app-sub003/internal/domain/shared"
	"github.com/Oscarts/backery2-app-sub003/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormProductionRunRepository implements ProductionRunRepository using GORM
type GormProductionRunRepository struct {
	db *gorm.DB
}

// NewGormProductionRunRepository creates a new GormProductionRunRepository
func NewGormProductionRunRepository(db *gorm.DB) *GormProductionRunRepository {
	return &GormProductionRunRepository{db: db}
}

func (r *GormProductionRunRepository) find(ctx context.Context, tenantID, id uuid.UUID, lock bool) (*production.ProductionRun, error) {
	db := r.db.WithContext(ctx)
	if lock {
		db = forUpdate(db)
	}
	var m models.ProductionRunModel
	if err := db.
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	// Steps are loaded separately so the row lock only covers the run
	if err := r.db.WithContext(ctx).
		Where("production_run_id = ?", m.ID).
		Order("step_order ASC").
		Find(&m.Steps).Error; err != nil {
		return nil, err
	}
	return m.ToDomain(), nil
}

// FindByID loads a run with its steps ordered by step order
func (r *GormProductionRunRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*production.ProductionRun, error) {
	return r.find(ctx, tenantID, id, false)
}

// FindByIDForUpdate loads and row-locks a run
func (r *GormProductionRunRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*production.ProductionRun, error) {
	return r.find(ctx, tenantID, id, true)
}

// Create inserts a run with its steps
func (r *GormProductionRunRepository) Create(ctx context.Context, run *production.ProductionRun) error {
	return r.db.WithContext(ctx).Create(models.ProductionRunModelFromDomain(run)).Error
}

// Save updates a run and its steps. The run row is guarded by its version;
// on success the in-memory version is bumped.
func (r *GormProductionRunRepository) Save(ctx context.Context, run *production.ProductionRun) error {
	m := models.ProductionRunModelFromDomain(run)
	db := r.db.WithContext(ctx)

	result := db.Model(&models.ProductionRunModel{}).
		Where("tenant_id = ? AND id = ? AND version = ?", run.TenantID, run.ID, run.Version).
		Updates(map[string]any{
			"name":                m.Name,
			"status":              m.Status,
			"final_quantity":      m.FinalQuantity,
			"actual_cost":         m.ActualCost,
			"finished_product_id": m.FinishedProductID,
			"started_at":          m.StartedAt,
			"completed_at":        m.CompletedAt,
			"cancelled_at":        m.CancelledAt,
			"notes":               m.Notes,
			"version":             run.Version + 1,
			"updated_at":          m.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict.WithDetails(map[string]any{"production_run_id": run.ID})
	}

	for i := range m.Steps {
		step := m.Steps[i]
		if err := db.Model(&models.ProductionStepModel{}).
			Where("id = ? AND production_run_id = ?", step.ID, run.ID).
			Updates(map[string]any{
				"status":         step.Status,
				"actual_minutes": step.ActualMinutes,
				"started_at":     step.StartedAt,
				"completed_at":   step.CompletedAt,
				"notes":          step.Notes,
			}).Error; err != nil {
			return err
		}
	}
	run.BumpVersion()
	return nil
}

var _ production.ProductionRunRepository = (*GormProductionRunRepository)(nil)
