package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// MaterialBatchRepository defines persistence for raw material and finished
// product batches. Methods ending in ForUpdate take row locks and must run
// inside a transaction.
type MaterialBatchRepository interface {
	// FindByRef finds the batch a material reference points at
	FindByRef(ctx context.Context, tenantID uuid.UUID, ref MaterialRef) (*MaterialBatch, error)

	// FindByRefForUpdate finds and locks the referenced batch
	FindByRefForUpdate(ctx context.Context, tenantID uuid.UUID, ref MaterialRef) (*MaterialBatch, error)

	// FindByRefs loads several batches of one kind
	FindByRefs(ctx context.Context, tenantID uuid.UUID, kind MaterialKind, ids []uuid.UUID) ([]*MaterialBatch, error)

	// FindEligibleByName returns non-contaminated, unexpired batches sharing the
	// folded name, in FEFO order
	FindEligibleByName(ctx context.Context, tenantID uuid.UUID, kind MaterialKind, nameKey string, at time.Time) ([]*MaterialBatch, error)

	// FindEligibleByNameForUpdate is FindEligibleByName holding row locks
	FindEligibleByNameForUpdate(ctx context.Context, tenantID uuid.UUID, kind MaterialKind, nameKey string, at time.Time) ([]*MaterialBatch, error)

	// FindByProductionRun finds the finished product created by a run
	FindByProductionRun(ctx context.Context, tenantID, runID uuid.UUID) (*MaterialBatch, error)

	// Create inserts a new batch
	Create(ctx context.Context, batch *MaterialBatch) error

	// Save updates a batch with an optimistic version check
	Save(ctx context.Context, batch *MaterialBatch) error
}

// StorageLocationRepository defines persistence for storage locations
type StorageLocationRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*StorageLocation, error)

	// FindDefault returns the default location, or shared.ErrNotFound
	FindDefault(ctx context.Context, tenantID uuid.UUID) (*StorageLocation, error)

	Create(ctx context.Context, loc *StorageLocation) error
}
