package shared

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTenantAggregateRoot_EventQueue(t *testing.T) {
	tenant := uuid.New()
	root := NewTenantAggregateRoot(tenant)
	assert.Equal(t, 1, root.Version)
	assert.Empty(t, root.Pending())

	e := NewBaseDomainEvent("BatchContaminated", "MaterialBatch", root.ID, tenant)
	root.Raise(&e)
	require.Len(t, root.Pending(), 1)

	drained := root.Drain()
	require.Len(t, drained, 1)
	assert.Equal(t, e.ID, drained[0].EventID())
	assert.Equal(t, tenant, drained[0].TenantID())
	assert.Equal(t, root.ID, drained[0].AggregateID())
	assert.Empty(t, root.Pending())
	assert.Empty(t, root.Drain())
}

func TestRestoreTenantAggregateRoot(t *testing.T) {
	base := NewBaseEntity()
	tenant := uuid.New()
	root := RestoreTenantAggregateRoot(base, tenant, 7)
	root.BumpVersion()

	assert.Equal(t, base.ID, root.ID)
	assert.Equal(t, tenant, root.TenantID)
	assert.Equal(t, 8, root.Version)
}
