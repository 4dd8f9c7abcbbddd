package production

import (
	"context"
	"sync"
	"time"

	"github.com/Oscarts/backery2-app-sub003/internal/domain/inventory"
	"github.com/Oscarts/backery2-app-sub003/internal/domain/production"
	"github.com/Oscarts/backery2-app-sub003/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockEventPublisher collects published events
type MockEventPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{events: make([]shared.DomainEvent, 0)}
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, events...)
	return nil
}

func (m *MockEventPublisher) GetEventsByType(eventType string) []shared.DomainEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]shared.DomainEvent, 0)
	for _, e := range m.events {
		if e.EventType() == eventType {
			result = append(result, e)
		}
	}
	return result
}

// MockBatchRepository is a mock implementation of inventory.MaterialBatchRepository
type MockBatchRepository struct {
	mock.Mock
}

func (m *MockBatchRepository) FindByRef(ctx context.Context, tenantID uuid.UUID, ref inventory.MaterialRef) (*inventory.MaterialBatch, error) {
	args := m.Called(ctx, tenantID, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.MaterialBatch), args.Error(1)
}

func (m *MockBatchRepository) FindByRefForUpdate(ctx context.Context, tenantID uuid.UUID, ref inventory.MaterialRef) (*inventory.MaterialBatch, error) {
	args := m.Called(ctx, tenantID, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.MaterialBatch), args.Error(1)
}

func (m *MockBatchRepository) FindByRefs(ctx context.Context, tenantID uuid.UUID, kind inventory.MaterialKind, ids []uuid.UUID) ([]*inventory.MaterialBatch, error) {
	args := m.Called(ctx, tenantID, kind, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*inventory.MaterialBatch), args.Error(1)
}

func (m *MockBatchRepository) FindEligibleByName(ctx context.Context, tenantID uuid.UUID, kind inventory.MaterialKind, nameKey string, at time.Time) ([]*inventory.MaterialBatch, error) {
	args := m.Called(ctx, tenantID, kind, nameKey, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*inventory.MaterialBatch), args.Error(1)
}

func (m *MockBatchRepository) FindEligibleByNameForUpdate(ctx context.Context, tenantID uuid.UUID, kind inventory.MaterialKind, nameKey string, at time.Time) ([]*inventory.MaterialBatch, error) {
	args := m.Called(ctx, tenantID, kind, nameKey, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*inventory.MaterialBatch), args.Error(1)
}

func (m *MockBatchRepository) FindByProductionRun(ctx context.Context, tenantID, runID uuid.UUID) (*inventory.MaterialBatch, error) {
	args := m.Called(ctx, tenantID, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.MaterialBatch), args.Error(1)
}

func (m *MockBatchRepository) Create(ctx context.Context, batch *inventory.MaterialBatch) error {
	args := m.Called(ctx, batch)
	return args.Error(0)
}

func (m *MockBatchRepository) Save(ctx context.Context, batch *inventory.MaterialBatch) error {
	args := m.Called(ctx, batch)
	return args.Error(0)
}

// MockLocationRepository is a mock implementation of inventory.StorageLocationRepository
type MockLocationRepository struct {
	mock.Mock
}

func (m *MockLocationRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*inventory.StorageLocation, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.StorageLocation), args.Error(1)
}

func (m *MockLocationRepository) FindDefault(ctx context.Context, tenantID uuid.UUID) (*inventory.StorageLocation, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.StorageLocation), args.Error(1)
}

func (m *MockLocationRepository) Create(ctx context.Context, loc *inventory.StorageLocation) error {
	args := m.Called(ctx, loc)
	return args.Error(0)
}

// MockRecipeRepository is a mock implementation of production.RecipeRepository
type MockRecipeRepository struct {
	mock.Mock
}

func (m *MockRecipeRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*production.Recipe, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*production.Recipe), args.Error(1)
}

func (m *MockRecipeRepository) Create(ctx context.Context, recipe *production.Recipe) error {
	args := m.Called(ctx, recipe)
	return args.Error(0)
}

// MockRunRepository is a mock implementation of production.ProductionRunRepository
type MockRunRepository struct {
	mock.Mock
}

func (m *MockRunRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*production.ProductionRun, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*production.ProductionRun), args.Error(1)
}

func (m *MockRunRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*production.ProductionRun, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*production.ProductionRun), args.Error(1)
}

func (m *MockRunRepository) Create(ctx context.Context, run *production.ProductionRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockRunRepository) Save(ctx context.Context, run *production.ProductionRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

// MockAllocationRepository is a mock implementation of production.AllocationRepository
type MockAllocationRepository struct {
	mock.Mock
}

func (m *MockAllocationRepository) FindByRun(ctx context.Context, tenantID, runID uuid.UUID) ([]*production.Allocation, error) {
	args := m.Called(ctx, tenantID, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*production.Allocation), args.Error(1)
}

func (m *MockAllocationRepository) FindActiveByRunForUpdate(ctx context.Context, tenantID, runID uuid.UUID) ([]*production.Allocation, error) {
	args := m.Called(ctx, tenantID, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*production.Allocation), args.Error(1)
}

func (m *MockAllocationRepository) CreateBatch(ctx context.Context, allocations []*production.Allocation) error {
	args := m.Called(ctx, allocations)
	return args.Error(0)
}

func (m *MockAllocationRepository) Save(ctx context.Context, allocation *production.Allocation) error {
	args := m.Called(ctx, allocation)
	return args.Error(0)
}

// MockIdempotencyStore is a mock implementation of shared.IdempotencyStore
type MockIdempotencyStore struct {
	mock.Mock
}

func (m *MockIdempotencyStore) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) Release(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockIdempotencyStore) Close() error {
	return m.Called().Error(0)
}

// testRepos bundles the mocks behind the Repositories interface
type testRepos struct {
	batches     *MockBatchRepository
	locations   *MockLocationRepository
	recipes     *MockRecipeRepository
	runs        *MockRunRepository
	allocations *MockAllocationRepository
}

func newTestRepos() *testRepos {
	return &testRepos{
		batches:     new(MockBatchRepository),
		locations:   new(MockLocationRepository),
		recipes:     new(MockRecipeRepository),
		runs:        new(MockRunRepository),
		allocations: new(MockAllocationRepository),
	}
}

func (r *testRepos) set() RepositorySet {
	return RepositorySet{
		BatchRepo:      r.batches,
		LocationRepo:   r.locations,
		RecipeRepo:     r.recipes,
		RunRepo:        r.runs,
		AllocationRepo: r.allocations,
	}
}

func (r *testRepos) assertExpectations(t mock.TestingT) {
	r.batches.AssertExpectations(t)
	r.locations.AssertExpectations(t)
	r.recipes.AssertExpectations(t)
	r.runs.AssertExpectations(t)
	r.allocations.AssertExpectations(t)
}
