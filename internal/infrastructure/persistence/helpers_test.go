package persistence

import (
	"testing"
	"time"

	"github.com/Oscarts/backery2-app-sub003/internal/domain/inventory"
	"github.com/Oscarts/backery2-app-sub003/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newSQLiteDB opens a private in-memory database with the ledger schema.
func newSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every pooled connection to :memory: would be a separate database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.AllModels()...))
	require.NoError(t, db.Exec(
		`CREATE UNIQUE INDEX idx_storage_locations_one_default ON storage_locations (tenant_id) WHERE is_default`,
	).Error)
	return db
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(offset int) *time.Time {
	t := time.Now().UTC().Truncate(24*time.Hour).AddDate(0, 0, offset)
	return &t
}

func newRawBatch(t *testing.T, tenantID uuid.UUID, name, qty, cost string, expires *time.Time) *inventory.MaterialBatch {
	t.Helper()
	b, err := inventory.NewMaterialBatch(tenantID, inventory.NewBatchInput{
		Kind:           inventory.MaterialKindRawMaterial,
		Name:           name,
		SKU:            "RM-" + name,
		BatchNumber:    "LOT-" + uuid.NewString()[:8],
		Quantity:       dec(qty),
		Unit:           "kg",
		UnitCost:       dec(cost),
		ExpirationDate: expires,
	})
	require.NoError(t, err)
	return b
}
