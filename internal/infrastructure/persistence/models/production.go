package models

import (
	"time"

	"github.com/Oscarts/backery2-app-sub003/internal/domain/inventory"
	"github.com/Oscarts/backery2-app-sub003/internal/domain/production"
	"github.com/Oscarts/backery2-app-sub003/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RecipeModel is the persistence model for the Recipe aggregate root.
type RecipeModel struct {
	TenantAggregateModel
	Name               string           `gorm:"type:varchar(200);not null"`
	YieldQuantity      decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	YieldUnit          string           `gorm:"type:varchar(20);not null"`
	OverheadPercentage *decimal.Decimal `gorm:"type:decimal(8,4)"`
	ShelfLifeDays      *int
	// Associations
	Ingredients []RecipeIngredientModel `gorm:"foreignKey:RecipeID;references:ID"`
}

// TableName returns the table name for GORM
func (RecipeModel) TableName() string {
	return "recipes"
}

// RecipeIngredientModel is one ingredient line of a recipe
type RecipeIngredientModel struct {
	ID           uuid.UUID       `gorm:"type:uuid;primary_key"`
	RecipeID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	MaterialType string          `gorm:"type:varchar(20);not null"`
	MaterialID   uuid.UUID       `gorm:"type:uuid;not null"`
	Quantity     decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Unit         string          `gorm:"type:varchar(20)"`
	SortOrder    int             `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (RecipeIngredientModel) TableName() string {
	return "recipe_ingredients"
}

// RecipeModelFromDomain creates a model from a domain recipe
func RecipeModelFromDomain(r *production.Recipe) *RecipeModel {
	m := &RecipeModel{
		Name:               r.Name,
		YieldQuantity:      r.YieldQuantity,
		YieldUnit:          r.YieldUnit,
		OverheadPercentage: r.OverheadPercentage,
		ShelfLifeDays:      r.ShelfLifeDays,
		Ingredients:        make([]RecipeIngredientModel, len(r.Ingredients)),
	}
	m.FromDomainTenantAggregateRoot(r.TenantAggregateRoot)
	for i, ing := range r.Ingredients {
		m.Ingredients[i] = RecipeIngredientModel{
			ID:           ing.ID,
			RecipeID:     r.ID,
			MaterialType: string(ing.Material.Kind()),
			MaterialID:   ing.Material.ID(),
			Quantity:     ing.Quantity,
			Unit:         ing.Unit,
			SortOrder:    ing.SortOrder,
		}
	}
	return m
}

// ToDomain converts the model to a domain recipe. Ingredient lines with an
// unreadable material reference are reported as an error.
func (m *RecipeModel) ToDomain() (*production.Recipe, error) {
	r := &production.Recipe{
		TenantAggregateRoot: m.ToTenantAggregateRoot(),
		Name:                m.Name,
		YieldQuantity:       m.YieldQuantity,
		YieldUnit:           m.YieldUnit,
		OverheadPercentage:  m.OverheadPercentage,
		ShelfLifeDays:       m.ShelfLifeDays,
		Ingredients:         make([]production.RecipeIngredient, 0, len(m.Ingredients)),
	}
	for _, ing := range m.Ingredients {
		ref, err := inventory.NewMaterialRef(inventory.MaterialKind(ing.MaterialType), ing.MaterialID)
		if err != nil {
			return nil, err
		}
		r.Ingredients = append(r.Ingredients, production.RecipeIngredient{
			ID:        ing.ID,
			Material:  ref,
			Quantity:  ing.Quantity,
			Unit:      ing.Unit,
			SortOrder: ing.SortOrder,
		})
	}
	return r, nil
}

// ProductionRunModel is the persistence model for the ProductionRun aggregate root.
type ProductionRunModel struct {
	TenantAggregateModel
	RecipeID          uuid.UUID        `gorm:"type:uuid;not null;index"`
	Name              string           `gorm:"type:varchar(200);not null"`
	TargetQuantity    decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	TargetUnit        string           `gorm:"type:varchar(20)"`
	Status            string           `gorm:"type:varchar(20);not null;index"`
	FinalQuantity     *decimal.Decimal `gorm:"type:decimal(18,4)"`
	ActualCost        *decimal.Decimal `gorm:"type:decimal(18,4)"`
	FinishedProductID *uuid.UUID       `gorm:"type:uuid"`
	StartedAt         *time.Time
	CompletedAt       *time.Time
	CancelledAt       *time.Time
	Notes             string `gorm:"type:text"`
	// Associations
	Steps []ProductionStepModel `gorm:"foreignKey:ProductionRunID;references:ID"`
}

// TableName returns the table name for GORM
func (ProductionRunModel) TableName() string {
	return "production_runs"
}

// ProductionStepModel is one step of a production run
type ProductionStepModel struct {
	ID               uuid.UUID `gorm:"type:uuid;primary_key"`
	ProductionRunID  uuid.UUID `gorm:"type:uuid;not null;index"`
	StepOrder        int       `gorm:"not null"`
	Name             string    `gorm:"type:varchar(100);not null"`
	Description      string    `gorm:"type:text"`
	Status           string    `gorm:"type:varchar(20);not null"`
	EstimatedMinutes int       `gorm:"not null;default:0"`
	ActualMinutes    *int
	StartedAt        *time.Time
	CompletedAt      *time.Time
	Notes            string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (ProductionStepModel) TableName() string {
	return "production_steps"
}

// ProductionRunModelFromDomain creates a model from a domain run
func ProductionRunModelFromDomain(r *production.ProductionRun) *ProductionRunModel {
	m := &ProductionRunModel{
		RecipeID:          r.RecipeID,
		Name:              r.Name,
		TargetQuantity:    r.TargetQuantity,
		TargetUnit:        r.TargetUnit,
		Status:            string(r.Status),
		FinalQuantity:     r.FinalQuantity,
		ActualCost:        r.ActualCost,
		FinishedProductID: r.FinishedProductID,
		StartedAt:         r.StartedAt,
		CompletedAt:       r.CompletedAt,
		CancelledAt:       r.CancelledAt,
		Notes:             r.Notes,
		Steps:             make([]ProductionStepModel, len(r.Steps)),
	}
	m.FromDomainTenantAggregateRoot(r.TenantAggregateRoot)
	for i, s := range r.Steps {
		m.Steps[i] = ProductionStepModel{
			ID:               s.ID,
			ProductionRunID:  r.ID,
			StepOrder:        s.StepOrder,
			Name:             s.Name,
			Description:      s.Description,
			Status:           string(s.Status),
			EstimatedMinutes: s.EstimatedMinutes,
			ActualMinutes:    s.ActualMinutes,
			StartedAt:        s.StartedAt,
			CompletedAt:      s.CompletedAt,
			Notes:            s.Notes,
		}
	}
	return m
}

// ToDomain converts the model to a domain run
func (m *ProductionRunModel) ToDomain() *production.ProductionRun {
	r := &production.ProductionRun{
		TenantAggregateRoot: m.ToTenantAggregateRoot(),
		RecipeID:            m.RecipeID,
		Name:                m.Name,
		TargetQuantity:      m.TargetQuantity,
		TargetUnit:          m.TargetUnit,
		Status:              production.RunStatus(m.Status),
		FinalQuantity:       m.FinalQuantity,
		ActualCost:          m.ActualCost,
		FinishedProductID:   m.FinishedProductID,
		StartedAt:           m.StartedAt,
		CompletedAt:         m.CompletedAt,
		CancelledAt:         m.CancelledAt,
		Notes:               m.Notes,
		Steps:               make([]production.ProductionStep, len(m.Steps)),
	}
	for i, s := range m.Steps {
		r.Steps[i] = production.ProductionStep{
			ID:               s.ID,
			StepOrder:        s.StepOrder,
			Name:             s.Name,
			Description:      s.Description,
			Status:           production.StepStatus(s.Status),
			EstimatedMinutes: s.EstimatedMinutes,
			ActualMinutes:    s.ActualMinutes,
			StartedAt:        s.StartedAt,
			CompletedAt:      s.CompletedAt,
			Notes:            s.Notes,
		}
	}
	return r
}

// AllocationModel is the persistence model for production allocations
type AllocationModel struct {
	BaseModel
	TenantID            uuid.UUID        `gorm:"type:uuid;not null;index"`
	ProductionRunID     uuid.UUID        `gorm:"type:uuid;not null;index"`
	IngredientID        *uuid.UUID       `gorm:"type:uuid"`
	MaterialType        string           `gorm:"type:varchar(20);not null"`
	MaterialID          uuid.UUID        `gorm:"type:uuid;not null;index"`
	MaterialName        string           `gorm:"type:varchar(200)"`
	MaterialSKU         string           `gorm:"column:material_sku;type:varchar(100)"`
	MaterialBatchNumber string           `gorm:"type:varchar(100)"`
	QuantityAllocated   decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	QuantityConsumed    *decimal.Decimal `gorm:"type:decimal(18,4)"`
	QuantityReleased    *decimal.Decimal `gorm:"type:decimal(18,4)"`
	Unit                string           `gorm:"type:varchar(20)"`
	UnitCost            decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	TotalCost           decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	Status              string           `gorm:"type:varchar(20);not null;index"`
	AllocatedAt         time.Time        `gorm:"not null"`
	ConsumedAt          *time.Time
	ReleasedAt          *time.Time
	Notes               string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (AllocationModel) TableName() string {
	return "production_allocations"
}

// AllocationModelFromDomain creates a model from a domain allocation
func AllocationModelFromDomain(a *production.Allocation) *AllocationModel {
	m := &AllocationModel{
		TenantID:            a.TenantID,
		ProductionRunID:     a.ProductionRunID,
		IngredientID:        a.IngredientID,
		MaterialType:        string(a.Material.Kind()),
		MaterialID:          a.Material.ID(),
		MaterialName:        a.MaterialName,
		MaterialSKU:         a.MaterialSKU,
		MaterialBatchNumber: a.MaterialBatchNumber,
		QuantityAllocated:   a.QuantityAllocated,
		QuantityConsumed:    a.QuantityConsumed,
		QuantityReleased:    a.QuantityReleased,
		Unit:                a.Unit,
		UnitCost:            a.UnitCost,
		TotalCost:           a.TotalCost,
		Status:              string(a.Status),
		AllocatedAt:         a.AllocatedAt,
		ConsumedAt:          a.ConsumedAt,
		ReleasedAt:          a.ReleasedAt,
		Notes:               a.Notes,
	}
	m.FromDomainBaseEntity(a.BaseEntity)
	return m
}

// ToDomain converts the model to a domain allocation
func (m *AllocationModel) ToDomain() (*production.Allocation, error) {
	ref, err := inventory.NewMaterialRef(inventory.MaterialKind(m.MaterialType), m.MaterialID)
	if err != nil {
		return nil, err
	}
	return &production.Allocation{
		BaseEntity:          shared.BaseEntity{ID: m.ID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		TenantID:            m.TenantID,
		ProductionRunID:     m.ProductionRunID,
		IngredientID:        m.IngredientID,
		Material:            ref,
		MaterialName:        m.MaterialName,
		MaterialSKU:         m.MaterialSKU,
		MaterialBatchNumber: m.MaterialBatchNumber,
		QuantityAllocated:   m.QuantityAllocated,
		QuantityConsumed:    m.QuantityConsumed,
		QuantityReleased:    m.QuantityReleased,
		Unit:                m.Unit,
		UnitCost:            m.UnitCost,
		TotalCost:           m.TotalCost,
		Status:              production.AllocationStatus(m.Status),
		AllocatedAt:         m.AllocatedAt,
		ConsumedAt:          m.ConsumedAt,
		ReleasedAt:          m.ReleasedAt,
		Notes:               m.Notes,
	}, nil
}

// AllModels lists every model for AutoMigrate in tests
func AllModels() []any {
	return []any{
		&RawMaterialModel{},
		&FinishedProductModel{},
		&StorageLocationModel{},
		&RecipeModel{},
		&RecipeIngredientModel{},
		&ProductionRunModel{},
		&ProductionStepModel{},
		&AllocationModel{},
	}
}
