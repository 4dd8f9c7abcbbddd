package models

import (
	"time"

	"github.com/Oscarts/backery2-app-sub003/internal/domain/inventory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BatchColumns are the columns shared by the raw_materials and
// finished_products tables.
type BatchColumns struct {
	TenantAggregateModel
	Name             string          `gorm:"type:varchar(200);not null"`
	NameKey          string          `gorm:"type:varchar(200);not null;index"`
	SKU              string          `gorm:"column:sku;type:varchar(100)"`
	BatchNumber      string          `gorm:"type:varchar(100)"`
	Quantity         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	ReservedQuantity decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Unit             string          `gorm:"type:varchar(20);not null"`
	UnitCost         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	ProductionDate   *time.Time
	ExpirationDate   *time.Time `gorm:"index"`
	Contaminated     bool       `gorm:"not null;default:false"`
	Status           string     `gorm:"type:varchar(20);not null"`
}

func (c *BatchColumns) fromDomain(b *inventory.MaterialBatch) {
	c.FromDomainTenantAggregateRoot(b.TenantAggregateRoot)
	c.Name = b.Name
	c.NameKey = b.NameKey()
	c.SKU = b.SKU
	c.BatchNumber = b.BatchNumber
	c.Quantity = b.Quantity
	c.ReservedQuantity = b.ReservedQuantity
	c.Unit = b.Unit
	c.UnitCost = b.UnitCost
	c.ProductionDate = b.ProductionDate
	c.ExpirationDate = b.ExpirationDate
	c.Contaminated = b.Contaminated
	c.Status = string(b.Status)
}

func (c *BatchColumns) toDomain(kind inventory.MaterialKind) *inventory.MaterialBatch {
	return &inventory.MaterialBatch{
		TenantAggregateRoot: c.ToTenantAggregateRoot(),
		Kind:                kind,
		Name:                c.Name,
		SKU:                 c.SKU,
		BatchNumber:         c.BatchNumber,
		Quantity:            c.Quantity,
		ReservedQuantity:    c.ReservedQuantity,
		Unit:                c.Unit,
		UnitCost:            c.UnitCost,
		ProductionDate:      c.ProductionDate,
		ExpirationDate:      c.ExpirationDate,
		Contaminated:        c.Contaminated,
		Status:              inventory.BatchStatus(c.Status),
		SalePrice:           decimal.Zero,
	}
}

// MutableColumns returns the columns a Save may change
func (c *BatchColumns) MutableColumns() map[string]any {
	return map[string]any{
		"quantity":          c.Quantity,
		"reserved_quantity": c.ReservedQuantity,
		"unit_cost":         c.UnitCost,
		"contaminated":      c.Contaminated,
		"status":            c.Status,
		"updated_at":        c.UpdatedAt,
	}
}

// RawMaterialModel is the persistence model for raw material batches
type RawMaterialModel struct {
	BatchColumns
}

// TableName returns the table name for GORM
func (RawMaterialModel) TableName() string {
	return "raw_materials"
}

// RawMaterialModelFromDomain creates a model from a raw material batch
func RawMaterialModelFromDomain(b *inventory.MaterialBatch) *RawMaterialModel {
	m := &RawMaterialModel{}
	m.fromDomain(b)
	return m
}

// ToDomain converts the model to a domain batch
func (m *RawMaterialModel) ToDomain() *inventory.MaterialBatch {
	return m.toDomain(inventory.MaterialKindRawMaterial)
}

// FinishedProductModel is the persistence model for finished product batches
type FinishedProductModel struct {
	BatchColumns
	SalePrice         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	StorageLocationID *uuid.UUID      `gorm:"type:uuid"`
	ProductionRunID   *uuid.UUID      `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (FinishedProductModel) TableName() string {
	return "finished_products"
}

// FinishedProductModelFromDomain creates a model from a finished product batch
func FinishedProductModelFromDomain(b *inventory.MaterialBatch) *FinishedProductModel {
	m := &FinishedProductModel{
		SalePrice:         b.SalePrice,
		StorageLocationID: b.StorageLocationID,
		ProductionRunID:   b.ProductionRunID,
	}
	m.fromDomain(b)
	return m
}

// ToDomain converts the model to a domain batch
func (m *FinishedProductModel) ToDomain() *inventory.MaterialBatch {
	b := m.toDomain(inventory.MaterialKindFinishedProduct)
	b.SalePrice = m.SalePrice
	b.StorageLocationID = m.StorageLocationID
	b.ProductionRunID = m.ProductionRunID
	return b
}

// StorageLocationModel is the persistence model for storage locations
type StorageLocationModel struct {
	TenantAggregateModel
	Name      string `gorm:"type:varchar(100);not null"`
	Type      string `gorm:"type:varchar(20);not null"`
	IsDefault bool   `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (StorageLocationModel) TableName() string {
	return "storage_locations"
}

// StorageLocationModelFromDomain creates a model from a domain location
func StorageLocationModelFromDomain(l *inventory.StorageLocation) *StorageLocationModel {
	m := &StorageLocationModel{Name: l.Name, Type: string(l.Type), IsDefault: l.IsDefault}
	m.FromDomainTenantAggregateRoot(l.TenantAggregateRoot)
	return m
}

// ToDomain converts the model to a domain location
func (m *StorageLocationModel) ToDomain() *inventory.StorageLocation {
	return &inventory.StorageLocation{
		TenantAggregateRoot: m.ToTenantAggregateRoot(),
		Name:                m.Name,
		Type:                inventory.StorageLocationType(m.Type),
		IsDefault:           m.IsDefault,
	}
}
