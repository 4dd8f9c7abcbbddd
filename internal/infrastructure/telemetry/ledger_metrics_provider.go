package telemetry

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormLedgerMetricsProvider implements LedgerMetricsProvider with aggregate
// queries over the ledger and production tables.
type GormLedgerMetricsProvider struct {
	db *gorm.DB
}

// NewGormLedgerMetricsProvider creates a new GormLedgerMetricsProvider.
func NewGormLedgerMetricsProvider(db *gorm.DB) *GormLedgerMetricsProvider {
	return &GormLedgerMetricsProvider{db: db}
}

var ledgerTables = map[string]string{
	"RAW_MATERIAL":     "raw_materials",
	"FINISHED_PRODUCT": "finished_products",
}

// GetReservedQuantity returns the reserved quantity per material kind.
func (p *GormLedgerMetricsProvider) GetReservedQuantity(ctx context.Context, tenantID uuid.UUID) (map[string]float64, error) {
	out := make(map[string]float64, len(ledgerTables))
	for kind, table := range ledgerTables {
		var total float64
		err := p.db.WithContext(ctx).
			Table(table).
			Select("COALESCE(SUM(reserved_quantity), 0)").
			Where("tenant_id = ?", tenantID).
			Scan(&total).Error
		if err != nil {
			return nil, err
		}
		out[kind] = total
	}
	return out, nil
}

// GetActiveRunCount returns the number of non-terminal runs per status.
func (p *GormLedgerMetricsProvider) GetActiveRunCount(ctx context.Context, tenantID uuid.UUID) (map[string]int64, error) {
	type result struct {
		Status string `gorm:"column:status"`
		Count  int64  `gorm:"column:count"`
	}

	var results []result
	err := p.db.WithContext(ctx).
		Table("production_runs").
		Select("status, COUNT(*) as count").
		Where("tenant_id = ? AND status NOT IN ?", tenantID, []string{"COMPLETED", "CANCELLED"}).
		Group("status").
		Find(&results).Error
	if err != nil {
		return nil, err
	}

	m := make(map[string]int64, len(results))
	for _, r := range results {
		m[r.Status] = r.Count
	}
	return m, nil
}

// GetExpiringBatchCount counts non-contaminated raw material batches with
// stock left that expire before the horizon.
func (p *GormLedgerMetricsProvider) GetExpiringBatchCount(ctx context.Context, tenantID uuid.UUID, horizon time.Time) (int64, error) {
	var count int64
	err := p.db.WithContext(ctx).
		Table("raw_materials").
		Where("tenant_id = ? AND contaminated = ? AND quantity > 0", tenantID, false).
		Where("expiration_date IS NOT NULL AND expiration_date >= ? AND expiration_date < ?", time.Now(), horizon).
		Count(&count).Error
	return count, err
}

// GormTenantProvider implements TenantProvider using GORM.
type GormTenantProvider struct {
	db *gorm.DB
}

// NewGormTenantProvider creates a new GormTenantProvider.
func NewGormTenantProvider(db *gorm.DB) *GormTenantProvider {
	return &GormTenantProvider{db: db}
}

// GetActiveTenantIDs returns tenants that own ledger batches.
func (p *GormTenantProvider) GetActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := p.db.WithContext(ctx).
		Table("raw_materials").
		Distinct("tenant_id").
		Pluck("tenant_id", &ids).Error
	return ids, err
}
