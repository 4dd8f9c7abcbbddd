package inventory

import (
	"github.com/Oscarts/backery2-app-sub003/internal/domain/shared"
	"github.com/google/uuid"
)

// DefaultWarehouseName is used when a bakery has no storage location yet
const DefaultWarehouseName = "Main Warehouse"

// StorageLocationType classifies a storage location
type StorageLocationType string

const (
	StorageLocationWarehouse    StorageLocationType = "WAREHOUSE"
	StorageLocationRefrigerator StorageLocationType = "REFRIGERATOR"
	StorageLocationFreezer      StorageLocationType = "FREEZER"
	StorageLocationShelf        StorageLocationType = "SHELF"
)

// StorageLocation is where finished products are put away
type StorageLocation struct {
	shared.TenantAggregateRoot
	Name      string
	Type      StorageLocationType
	IsDefault bool
}

// NewStorageLocation creates a storage location
func NewStorageLocation(tenantID uuid.UUID, name string, locType StorageLocationType) (*StorageLocation, error) {
	if name == "" {
		return nil, shared.ErrInvalidInput.WithMessage("storage location name cannot be empty")
	}
	if locType == "" {
		locType = StorageLocationWarehouse
	}
	return &StorageLocation{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                name,
		Type:                locType,
	}, nil
}

// NewDefaultWarehouse creates the fallback warehouse for a bakery
func NewDefaultWarehouse(tenantID uuid.UUID, name string) *StorageLocation {
	if name == "" {
		name = DefaultWarehouseName
	}
	loc, _ := NewStorageLocation(tenantID, name, StorageLocationWarehouse)
	loc.IsDefault = true
	return loc
}
