package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Oscarts/backery2-app-sub003/internal/domain/inventory"
	"github.com/Oscarts/backery2-app-sub003/internal/domain/shared"
	"github.com/Oscarts/backery2-app-sub003/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormMaterialBatchRepository implements MaterialBatchRepository over the
// raw_materials and finished_products tables.
type GormMaterialBatchRepository struct {
	db *gorm.DB
}

// NewGormMaterialBatchRepository creates a new GormMaterialBatchRepository
func NewGormMaterialBatchRepository(db *gorm.DB) *GormMaterialBatchRepository {
	return &GormMaterialBatchRepository{db: db}
}

// scope narrows a query before rows are loaded
type scope func(*gorm.DB) *gorm.DB

func (r *GormMaterialBatchRepository) find(ctx context.Context, kind inventory.MaterialKind, lock bool, s scope) ([]*inventory.MaterialBatch, error) {
	db := r.db.WithContext(ctx)
	if lock {
		db = forUpdate(db)
	}
	switch kind {
	case inventory.MaterialKindRawMaterial:
		var rows []models.RawMaterialModel
		if err := s(db.Model(&models.RawMaterialModel{})).Find(&rows).Error; err != nil {
			return nil, err
		}
		out := make([]*inventory.MaterialBatch, len(rows))
		for i := range rows {
			out[i] = rows[i].ToDomain()
		}
		return out, nil
	case inventory.MaterialKindFinishedProduct:
		var rows []models.FinishedProductModel
		if err := s(db.Model(&models.FinishedProductModel{})).Find(&rows).Error; err != nil {
			return nil, err
		}
		out := make([]*inventory.MaterialBatch, len(rows))
		for i := range rows {
			out[i] = rows[i].ToDomain()
		}
		return out, nil
	}
	return nil, shared.ErrInvalidInput.WithMessage(fmt.Sprintf("unknown material type %q", kind))
}

func (r *GormMaterialBatchRepository) findOne(ctx context.Context, tenantID uuid.UUID, ref inventory.MaterialRef, lock bool) (*inventory.MaterialBatch, error) {
	batches, err := r.find(ctx, ref.Kind(), lock, func(db *gorm.DB) *gorm.DB {
		return db.Where("tenant_id = ? AND id = ?", tenantID, ref.ID()).Limit(1)
	})
	if err != nil {
		return nil, err
	}
	if len(batches) == 0 {
		return nil, shared.ErrNotFound
	}
	return batches[0], nil
}

// FindByRef finds the batch a material reference points at
func (r *GormMaterialBatchRepository) FindByRef(ctx context.Context, tenantID uuid.UUID, ref inventory.MaterialRef) (*inventory.MaterialBatch, error) {
	return r.findOne(ctx, tenantID, ref, false)
}

// FindByRefForUpdate finds and locks the referenced batch
func (r *GormMaterialBatchRepository) FindByRefForUpdate(ctx context.Context, tenantID uuid.UUID, ref inventory.MaterialRef) (*inventory.MaterialBatch, error) {
	return r.findOne(ctx, tenantID, ref, true)
}

// FindByRefs loads several batches of one kind
func (r *GormMaterialBatchRepository) FindByRefs(ctx context.Context, tenantID uuid.UUID, kind inventory.MaterialKind, ids []uuid.UUID) ([]*inventory.MaterialBatch, error) {
	if len(ids) == 0 {
		return []*inventory.MaterialBatch{}, nil
	}
	return r.find(ctx, kind, false, func(db *gorm.DB) *gorm.DB {
		return db.Where("tenant_id = ? AND id IN ?", tenantID, ids)
	})
}

func (r *GormMaterialBatchRepository) findEligible(ctx context.Context, tenantID uuid.UUID, kind inventory.MaterialKind, nameKey string, at time.Time, lock bool) ([]*inventory.MaterialBatch, error) {
	batches, err := r.find(ctx, kind, lock, func(db *gorm.DB) *gorm.DB {
		return db.
			Where("tenant_id = ? AND name_key = ?", tenantID, nameKey).
			Where("contaminated = ?", false).
			Where("quantity > reserved_quantity").
			Where("(expiration_date IS NULL OR expiration_date >= ?)", at).
			Order(eligibleOrder(lock))
	})
	if err != nil {
		return nil, err
	}
	// FEFO tie-breaks differ between dialects on NULL production dates
	return inventory.EligibleBatches(batches, at), nil
}

// eligibleOrder takes FOR UPDATE row locks in id order, matching the order
// batches are locked in when allocations are consumed or released. FEFO order
// is applied in memory afterwards.
func eligibleOrder(lock bool) string {
	if lock {
		return "id"
	}
	return "CASE WHEN expiration_date IS NULL THEN 1 ELSE 0 END, expiration_date, production_date, created_at"
}

// FindEligibleByName returns non-contaminated, unexpired batches with stock
// left that share the folded name, in FEFO order
func (r *GormMaterialBatchRepository) FindEligibleByName(ctx context.Context, tenantID uuid.UUID, kind inventory.MaterialKind, nameKey string, at time.Time) ([]*inventory.MaterialBatch, error) {
	return r.findEligible(ctx, tenantID, kind, nameKey, at, false)
}

// FindEligibleByNameForUpdate is FindEligibleByName holding row locks
func (r *GormMaterialBatchRepository) FindEligibleByNameForUpdate(ctx context.Context, tenantID uuid.UUID, kind inventory.MaterialKind, nameKey string, at time.Time) ([]*inventory.MaterialBatch, error) {
	return r.findEligible(ctx, tenantID, kind, nameKey, at, true)
}

// FindByProductionRun finds the finished product created by a run
func (r *GormMaterialBatchRepository) FindByProductionRun(ctx context.Context, tenantID, runID uuid.UUID) (*inventory.MaterialBatch, error) {
	var m models.FinishedProductModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND production_run_id = ?", tenantID, runID).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return m.ToDomain(), nil
}

// Create inserts a new batch
func (r *GormMaterialBatchRepository) Create(ctx context.Context, batch *inventory.MaterialBatch) error {
	db := r.db.WithContext(ctx)
	switch batch.Kind {
	case inventory.MaterialKindRawMaterial:
		return db.Create(models.RawMaterialModelFromDomain(batch)).Error
	case inventory.MaterialKindFinishedProduct:
		return db.Create(models.FinishedProductModelFromDomain(batch)).Error
	}
	return shared.ErrInvalidInput.WithMessage(fmt.Sprintf("unknown material type %q", batch.Kind))
}

// Save writes quantities, reservation and contamination back with an
// optimistic version check, then bumps the in-memory version.
func (r *GormMaterialBatchRepository) Save(ctx context.Context, batch *inventory.MaterialBatch) error {
	var (
		model   any
		columns map[string]any
	)
	switch batch.Kind {
	case inventory.MaterialKindRawMaterial:
		m := models.RawMaterialModelFromDomain(batch)
		model, columns = &models.RawMaterialModel{}, m.MutableColumns()
	case inventory.MaterialKindFinishedProduct:
		m := models.FinishedProductModelFromDomain(batch)
		model, columns = &models.FinishedProductModel{}, m.MutableColumns()
		columns["sale_price"] = m.SalePrice
	default:
		return shared.ErrInvalidInput.WithMessage(fmt.Sprintf("unknown material type %q", batch.Kind))
	}
	columns["version"] = batch.Version + 1

	result := r.db.WithContext(ctx).
		Model(model).
		Where("tenant_id = ? AND id = ? AND version = ?", batch.TenantID, batch.ID, batch.Version).
		Updates(columns)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict.WithDetails(map[string]any{"batch_id": batch.ID})
	}
	batch.BumpVersion()
	return nil
}

var _ inventory.MaterialBatchRepository = (*GormMaterialBatchRepository)(nil)
