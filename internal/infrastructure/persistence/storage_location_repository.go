package persistence

import (
	"context"
	"errors"

	"github.com/Oscarts/backery2-app-sub003/internal/domain/inventory"
	"github.com/Oscarts/backery2-app-sub003/internal/domain/shared"
	"github.com/Oscarts/backery2-app-sub003/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStorageLocationRepository implements StorageLocationRepository using GORM
type GormStorageLocationRepository struct {
	db *gorm.DB
}

// NewGormStorageLocationRepository creates a new GormStorageLocationRepository
func NewGormStorageLocationRepository(db *gorm.DB) *GormStorageLocationRepository {
	return &GormStorageLocationRepository{db: db}
}

// FindByID finds a storage location by ID within a tenant
func (r *GormStorageLocationRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*inventory.StorageLocation, error) {
	var m models.StorageLocationModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return m.ToDomain(), nil
}

// FindDefault returns the tenant's default location
func (r *GormStorageLocationRepository) FindDefault(ctx context.Context, tenantID uuid.UUID) (*inventory.StorageLocation, error) {
	var m models.StorageLocationModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND is_default = ?", tenantID, true).
		Order("created_at ASC").
		First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return m.ToDomain(), nil
}

// Create inserts a location. A second default location for the same tenant
// is dropped by the partial unique index; callers re-read FindDefault.
func (r *GormStorageLocationRepository) Create(ctx context.Context, loc *inventory.StorageLocation) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(models.StorageLocationModelFromDomain(loc)).Error
}

var _ inventory.StorageLocationRepository = (*GormStorageLocationRepository)(nil)
