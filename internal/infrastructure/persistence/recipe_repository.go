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

// GormRecipeRepository implements RecipeRepository using GORM
type GormRecipeRepository struct {
	db *gorm.DB
}

// NewGormRecipeRepository creates a new GormRecipeRepository
func NewGormRecipeRepository(db *gorm.DB) *GormRecipeRepository {
	return &GormRecipeRepository{db: db}
}

// FindByID loads a recipe with its ingredients in sort order
func (r *GormRecipeRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*production.Recipe, error) {
	var m models.RecipeModel
	if err := r.db.WithContext(ctx).
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return m.ToDomain()
}

// Create inserts a recipe with its ingredients
func (r *GormRecipeRepository) Create(ctx context.Context, recipe *production.Recipe) error {
	return r.db.WithContext(ctx).Create(models.RecipeModelFromDomain(recipe)).Error
}

var _ production.RecipeRepository = (*GormRecipeRepository)(nil)
