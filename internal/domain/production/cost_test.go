package production

import (
	"testing"
	"time"

	"github.com/Oscarts/backery2-app-sub003/internal/domain/inventory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCostBreakdown(t *testing.T) {
	t.Run("fifty percent overhead on five dollars", func(t *testing.T) {
		c := NewCostBreakdown(CostSourceActual, decimal.NewFromInt(5), decimal.NewFromInt(50), decimal.NewFromInt(5), nil)
		assert.True(t, c.OverheadCost.Equal(decimal.NewFromFloat(2.5)))
		assert.True(t, c.TotalCost.Equal(decimal.NewFromFloat(7.5)))
		assert.True(t, c.CostPerUnit.Equal(decimal.NewFromFloat(1.5)))
		assert.True(t, SalePrice(c.CostPerUnit, DefaultMarkupPercentage).Equal(decimal.NewFromFloat(2.25)))
		assert.NotNil(t, c.Materials)
	})

	t.Run("zero quantity leaves per unit cost at zero", func(t *testing.T) {
		c := NewCostBreakdown(CostSourceDefault, decimal.NewFromInt(10), decimal.NewFromInt(50), decimal.Zero, nil)
		assert.True(t, c.CostPerUnit.IsZero())
		assert.True(t, c.WithQuantity(decimal.NewFromInt(3)).CostPerUnit.Equal(decimal.NewFromInt(5)))
	})
}

func TestCostFromAllocations(t *testing.T) {
	now := time.Now()
	runID := uuid.New()
	tenantID := uuid.New()
	draw := func(qty, cost float64) inventory.BatchDraw {
		return inventory.BatchDraw{
			Ref:      inventory.RawMaterialRef(uuid.New()),
			Name:     "Flour",
			Unit:     "kg",
			Quantity: decimal.NewFromFloat(qty),
			UnitCost: decimal.NewFromFloat(cost),
		}
	}

	allocated := NewAllocation(tenantID, runID, nil, draw(1, 3.5), now)
	consumed := NewAllocation(tenantID, runID, nil, draw(1, 3.5), now)
	require.NoError(t, consumed.Consume(decimal.NewFromFloat(1.2), now))
	released := NewAllocation(tenantID, runID, nil, draw(4, 10), now)
	require.True(t, released.Release(now))

	total, lines := CostFromAllocations([]*Allocation{allocated, consumed, released})
	assert.True(t, total.Equal(decimal.NewFromFloat(7.7)), total.String())
	assert.Len(t, lines, 2)
}
