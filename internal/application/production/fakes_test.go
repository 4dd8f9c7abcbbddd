package production

import (
	"context"
	"sync"
	"time"

	"github.com/Oscarts/backery2-app-sub003/internal/domain/inventory"
	"github.com/Oscarts/backery2-app-sub003/internal/domain/production"
	"github.com/Oscarts/backery2-app-sub003/internal/domain/shared"
	"github.com/google/uuid"
)

// memStore is an in-memory ledger used by the flow tests. Reads hand out
// copies so only saved changes become visible.
type memStore struct {
	mu          sync.Mutex
	batches     map[uuid.UUID]inventory.MaterialBatch
	locations   map[uuid.UUID]inventory.StorageLocation
	recipes     map[uuid.UUID]production.Recipe
	runs        map[uuid.UUID]production.ProductionRun
	allocations []production.Allocation
}

func newMemStore() *memStore {
	return &memStore{
		batches:   make(map[uuid.UUID]inventory.MaterialBatch),
		locations: make(map[uuid.UUID]inventory.StorageLocation),
		recipes:   make(map[uuid.UUID]production.Recipe),
		runs:      make(map[uuid.UUID]production.ProductionRun),
	}
}

func (s *memStore) repos() RepositorySet {
	return RepositorySet{
		BatchRepo:      memBatches{s},
		LocationRepo:   memLocations{s},
		RecipeRepo:     memRecipes{s},
		RunRepo:        memRuns{s},
		AllocationRepo: memAllocations{s},
	}
}

func (s *memStore) batch(id uuid.UUID) inventory.MaterialBatch {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.batches[id]
}

func (s *memStore) run(id uuid.UUID) production.ProductionRun {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs[id]
}

func (s *memStore) finishedProducts() []inventory.MaterialBatch {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]inventory.MaterialBatch, 0)
	for _, b := range s.batches {
		if b.Kind == inventory.MaterialKindFinishedProduct && b.ProductionRunID != nil {
			out = append(out, b)
		}
	}
	return out
}

func cloneBatch(b inventory.MaterialBatch) *inventory.MaterialBatch {
	c := b
	c.Drain()
	return &c
}

func cloneRun(r production.ProductionRun) *production.ProductionRun {
	c := r
	c.Steps = append([]production.ProductionStep(nil), r.Steps...)
	c.Drain()
	return &c
}

type memBatches struct{ s *memStore }

func (r memBatches) FindByRef(_ context.Context, tenantID uuid.UUID, ref inventory.MaterialRef) (*inventory.MaterialBatch, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.batches[ref.ID()]
	if !ok || b.TenantID != tenantID || b.Kind != ref.Kind() {
		return nil, shared.ErrNotFound
	}
	return cloneBatch(b), nil
}

func (r memBatches) FindByRefForUpdate(ctx context.Context, tenantID uuid.UUID, ref inventory.MaterialRef) (*inventory.MaterialBatch, error) {
	return r.FindByRef(ctx, tenantID, ref)
}

func (r memBatches) FindByRefs(_ context.Context, tenantID uuid.UUID, kind inventory.MaterialKind, ids []uuid.UUID) ([]*inventory.MaterialBatch, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*inventory.MaterialBatch, 0, len(ids))
	for _, id := range ids {
		if b, ok := r.s.batches[id]; ok && b.TenantID == tenantID && b.Kind == kind {
			out = append(out, cloneBatch(b))
		}
	}
	return out, nil
}

func (r memBatches) FindEligibleByName(_ context.Context, tenantID uuid.UUID, kind inventory.MaterialKind, nameKey string, at time.Time) ([]*inventory.MaterialBatch, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*inventory.MaterialBatch, 0)
	for _, b := range r.s.batches {
		if b.TenantID == tenantID && b.Kind == kind && b.NameKey() == nameKey && b.IsEligibleAt(at) && b.Available().IsPositive() {
			out = append(out, cloneBatch(b))
		}
	}
	inventory.SortFEFO(out)
	return out, nil
}

func (r memBatches) FindEligibleByNameForUpdate(ctx context.Context, tenantID uuid.UUID, kind inventory.MaterialKind, nameKey string, at time.Time) ([]*inventory.MaterialBatch, error) {
	return r.FindEligibleByName(ctx, tenantID, kind, nameKey, at)
}

func (r memBatches) FindByProductionRun(_ context.Context, tenantID, runID uuid.UUID) (*inventory.MaterialBatch, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, b := range r.s.batches {
		if b.TenantID == tenantID && b.ProductionRunID != nil && *b.ProductionRunID == runID {
			return cloneBatch(b), nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r memBatches) Create(_ context.Context, batch *inventory.MaterialBatch) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.batches[batch.ID] = *batch
	return nil
}

func (r memBatches) Save(_ context.Context, batch *inventory.MaterialBatch) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.batches[batch.ID]; !ok {
		return shared.ErrNotFound
	}
	r.s.batches[batch.ID] = *batch
	return nil
}

type memLocations struct{ s *memStore }

func (r memLocations) FindByID(_ context.Context, tenantID, id uuid.UUID) (*inventory.StorageLocation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if l, ok := r.s.locations[id]; ok && l.TenantID == tenantID {
		return &l, nil
	}
	return nil, shared.ErrNotFound
}

func (r memLocations) FindDefault(_ context.Context, tenantID uuid.UUID) (*inventory.StorageLocation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, l := range r.s.locations {
		if l.TenantID == tenantID && l.IsDefault {
			return &l, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r memLocations) Create(_ context.Context, loc *inventory.StorageLocation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.locations[loc.ID] = *loc
	return nil
}

type memRecipes struct{ s *memStore }

func (r memRecipes) FindByID(_ context.Context, tenantID, id uuid.UUID) (*production.Recipe, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rec, ok := r.s.recipes[id]
	if !ok || rec.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	rec.Ingredients = append([]production.RecipeIngredient(nil), rec.Ingredients...)
	return &rec, nil
}

func (r memRecipes) Create(_ context.Context, recipe *production.Recipe) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.recipes[recipe.ID] = *recipe
	return nil
}

type memRuns struct{ s *memStore }

func (r memRuns) FindByID(_ context.Context, tenantID, id uuid.UUID) (*production.ProductionRun, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	run, ok := r.s.runs[id]
	if !ok || run.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	return cloneRun(run), nil
}

func (r memRuns) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*production.ProductionRun, error) {
	return r.FindByID(ctx, tenantID, id)
}

func (r memRuns) Create(_ context.Context, run *production.ProductionRun) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.runs[run.ID] = *cloneRun(*run)
	return nil
}

func (r memRuns) Save(_ context.Context, run *production.ProductionRun) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.runs[run.ID]
	if !ok {
		return shared.ErrNotFound
	}
	if stored.Version != run.Version {
		return shared.ErrConcurrencyConflict
	}
	saved := cloneRun(*run)
	saved.Version++
	run.Version = saved.Version
	r.s.runs[run.ID] = *saved
	return nil
}

type memAllocations struct{ s *memStore }

func (r memAllocations) FindByRun(_ context.Context, tenantID, runID uuid.UUID) ([]*production.Allocation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*production.Allocation, 0)
	for _, a := range r.s.allocations {
		if a.TenantID == tenantID && a.ProductionRunID == runID {
			c := a
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r memAllocations) FindActiveByRunForUpdate(ctx context.Context, tenantID, runID uuid.UUID) ([]*production.Allocation, error) {
	all, _ := r.FindByRun(ctx, tenantID, runID)
	out := make([]*production.Allocation, 0, len(all))
	for _, a := range all {
		if a.IsActive() {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r memAllocations) CreateBatch(_ context.Context, allocations []*production.Allocation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range allocations {
		r.s.allocations = append(r.s.allocations, *a)
	}
	return nil
}

func (r memAllocations) Save(_ context.Context, allocation *production.Allocation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.allocations {
		if r.s.allocations[i].ID == allocation.ID {
			r.s.allocations[i] = *allocation
			return nil
		}
	}
	return shared.ErrNotFound
}
