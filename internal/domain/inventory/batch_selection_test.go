package inventory

import (
	"testing"
	"time"

	"github.com/Oscarts/backery2-app-sub003/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSortFEFO(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	late := newTestBatch(t, "Flour", 1, timePtr(base.AddDate(0, 6, 0)))
	early := newTestBatch(t, "Flour", 1, timePtr(base.AddDate(0, 1, 0)))
	never := newTestBatch(t, "Flour", 1, nil)

	batches := []*MaterialBatch{never, late, early}
	SortFEFO(batches)

	assert.Equal(t, early.ID, batches[0].ID)
	assert.Equal(t, late.ID, batches[1].ID)
	assert.Equal(t, never.ID, batches[2].ID)
}

func TestSortFEFO_TieBreaks(t *testing.T) {
	expiry := time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)
	a := newTestBatch(t, "Flour", 1, timePtr(expiry))
	b := newTestBatch(t, "Flour", 1, timePtr(expiry))
	a.ProductionDate = timePtr(expiry.AddDate(0, -1, 0))
	b.ProductionDate = timePtr(expiry.AddDate(0, -2, 0))

	batches := []*MaterialBatch{a, b}
	SortFEFO(batches)
	assert.Equal(t, b.ID, batches[0].ID, "older production date goes first on equal expiry")
}

func TestSelectFEFO(t *testing.T) {
	now := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	t.Run("draws from earlier expiring batch first", func(t *testing.T) {
		a := newTestBatch(t, "Flour", 1, timePtr(time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)))
		b := newTestBatch(t, "Flour", 1.5, timePtr(time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)))

		sel, err := SelectFEFO(decimal.NewFromInt(2), []*MaterialBatch{b, a}, now)
		require.NoError(t, err)
		require.True(t, sel.Fulfilled())
		require.Len(t, sel.Draws, 2)
		assert.Equal(t, a.ID, sel.Draws[0].BatchID)
		assert.True(t, sel.Draws[0].Quantity.Equal(decimal.NewFromInt(1)))
		assert.Equal(t, b.ID, sel.Draws[1].BatchID)
		assert.True(t, sel.Draws[1].Quantity.Equal(decimal.NewFromInt(1)))
		assert.True(t, sel.TotalCost.Equal(decimal.NewFromFloat(7)))
		assert.True(t, sel.Draws[1].Remaining.Equal(decimal.NewFromFloat(0.5)))
	})

	t.Run("does not touch later batch when earlier one suffices", func(t *testing.T) {
		a := newTestBatch(t, "Flour", 5, timePtr(now.AddDate(0, 1, 0)))
		b := newTestBatch(t, "Flour", 5, timePtr(now.AddDate(0, 2, 0)))

		sel, err := SelectFEFO(decimal.NewFromInt(2), []*MaterialBatch{b, a}, now)
		require.NoError(t, err)
		require.Len(t, sel.Draws, 1)
		assert.Equal(t, a.ID, sel.Draws[0].BatchID)
	})

	t.Run("skips contaminated, expired and fully reserved batches", func(t *testing.T) {
		bad := newTestBatch(t, "Flour", 10, nil)
		bad.MarkContaminated("mould")
		expired := newTestBatch(t, "Flour", 10, timePtr(now.Add(-time.Hour)))
		reserved := newTestBatch(t, "Flour", 2, nil)
		require.NoError(t, reserved.Reserve(decimal.NewFromInt(2)))
		good := newTestBatch(t, "Flour", 3, nil)

		sel, err := SelectFEFO(decimal.NewFromInt(3), []*MaterialBatch{bad, expired, reserved, good}, now)
		require.NoError(t, err)
		require.Len(t, sel.Draws, 1)
		assert.Equal(t, good.ID, sel.Draws[0].BatchID)
	})

	t.Run("reports shortage", func(t *testing.T) {
		a := newTestBatch(t, "Flour", 1, nil)

		sel, err := SelectFEFO(decimal.NewFromInt(3), []*MaterialBatch{a}, now)
		require.NoError(t, err)
		assert.False(t, sel.Fulfilled())
		assert.True(t, sel.Shortage.Equal(decimal.NewFromInt(2)))
		assert.True(t, sel.Drawn.Equal(decimal.NewFromInt(1)))
	})

	t.Run("rejects non-positive request", func(t *testing.T) {
		_, err := SelectFEFO(decimal.Zero, nil, now)
		assert.ErrorIs(t, err, shared.ErrInvalidQuantity)
	})

	t.Run("selection does not mutate batches", func(t *testing.T) {
		a := newTestBatch(t, "Flour", 4, nil)
		_, err := SelectFEFO(decimal.NewFromInt(2), []*MaterialBatch{a}, now)
		require.NoError(t, err)
		assert.True(t, a.ReservedQuantity.IsZero())
	})
}

func TestTotalAvailable(t *testing.T) {
	now := time.Now()
	a := newTestBatch(t, "Flour", 1, nil)
	b := newTestBatch(t, "Flour", 1.5, nil)
	require.NoError(t, b.Reserve(decimal.NewFromFloat(0.5)))
	c := newTestBatch(t, "Flour", 9, nil)
	c.MarkContaminated("spill")

	total := TotalAvailable([]*MaterialBatch{a, b, c}, now)
	assert.True(t, total.Equal(decimal.NewFromInt(2)))
}
