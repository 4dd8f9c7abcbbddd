package persistence

import (
	"context"

	"github.com/Oscarts/backery2-app-sub003/internal/domain/production"
	"github.com/Oscarts/backery2-app-sub003/internal/domain/shared"
	"github.com/Oscarts/backery2-app-sub003/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormAllocationRepository implements AllocationRepository using GORM
type GormAllocationRepository struct {
	db *gorm.DB
}

// NewGormAllocationRepository creates a new GormAllocationRepository
func NewGormAllocationRepository(db *gorm.DB) *GormAllocationRepository {
	return &GormAllocationRepository{db: db}
}

func toAllocations(rows []models.AllocationModel) ([]*production.Allocation, error) {
	out := make([]*production.Allocation, 0, len(rows))
	for i := range rows {
		a, err := rows[i].ToDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// FindByRun lists every allocation of a run in allocation order
func (r *GormAllocationRepository) FindByRun(ctx context.Context, tenantID, runID uuid.UUID) ([]*production.Allocation, error) {
	var rows []models.AllocationModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND production_run_id = ?", tenantID, runID).
		Order("allocated_at ASC, created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toAllocations(rows)
}

// FindActiveByRunForUpdate lists and row-locks the ALLOCATED rows of a run
func (r *GormAllocationRepository) FindActiveByRunForUpdate(ctx context.Context, tenantID, runID uuid.UUID) ([]*production.Allocation, error) {
	var rows []models.AllocationModel
	if err := forUpdate(r.db.WithContext(ctx)).
		Where("tenant_id = ? AND production_run_id = ? AND status = ?", tenantID, runID, string(production.AllocationStatusAllocated)).
		Order("allocated_at ASC, created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toAllocations(rows)
}

// CreateBatch inserts allocation rows
func (r *GormAllocationRepository) CreateBatch(ctx context.Context, allocations []*production.Allocation) error {
	if len(allocations) == 0 {
		return nil
	}
	rows := make([]*models.AllocationModel, len(allocations))
	for i, a := range allocations {
		rows[i] = models.AllocationModelFromDomain(a)
	}
	return r.db.WithContext(ctx).Create(rows).Error
}

// Save updates the consumption and release state of an allocation row
func (r *GormAllocationRepository) Save(ctx context.Context, allocation *production.Allocation) error {
	m := models.AllocationModelFromDomain(allocation)
	result := r.db.WithContext(ctx).
		Model(&models.AllocationModel{}).
		Where("tenant_id = ? AND id = ?", allocation.TenantID, allocation.ID).
		Updates(map[string]any{
			"quantity_consumed": m.QuantityConsumed,
			"quantity_released": m.QuantityReleased,
			"total_cost":        m.TotalCost,
			"status":            m.Status,
			"consumed_at":       m.ConsumedAt,
			"released_at":       m.ReleasedAt,
			"notes":             m.Notes,
			"updated_at":        m.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ production.AllocationRepository = (*GormAllocationRepository)(nil)
