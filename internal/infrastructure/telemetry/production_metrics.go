package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// ProductionMetrics records allocation, completion and ledger health metrics
// for the bakery production pipeline.
type ProductionMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	// Counters
	allocationsTotal   *Counter
	shortagesTotal     *Counter
	completionsTotal   *Counter
	cancellationsTotal *Counter
	contaminationTotal *Counter

	// Distributions
	allocatedQuantity *Histogram
	runCost           *Histogram
	runYield          *Histogram

	// Gauges, refreshed periodically
	reservedQuantity *FloatGauge
	activeRuns       *Gauge
	expiringBatches  *Gauge

	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	ledgerProvider LedgerMetricsProvider
}

// LedgerMetricsProvider supplies ledger state for the periodic gauges
type LedgerMetricsProvider interface {
	// GetReservedQuantity returns the reserved quantity per material kind
	GetReservedQuantity(ctx context.Context, tenantID uuid.UUID) (map[string]float64, error)

	// GetActiveRunCount returns the number of non-terminal runs per status
	GetActiveRunCount(ctx context.Context, tenantID uuid.UUID) (map[string]int64, error)

	// GetExpiringBatchCount counts eligible batches expiring before the horizon
	GetExpiringBatchCount(ctx context.Context, tenantID uuid.UUID, horizon time.Time) (int64, error)
}

// ProductionMetricsConfig holds configuration for production metrics.
type ProductionMetricsConfig struct {
	Meter          metric.Meter
	Logger         *zap.Logger
	LedgerProvider LedgerMetricsProvider
	ExpiryHorizon  time.Duration // Default: 72h
}

// NewProductionMetrics creates a new ProductionMetrics instance.
func NewProductionMetrics(cfg ProductionMetricsConfig) (*ProductionMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	pm := &ProductionMetrics{
		meter:          cfg.Meter,
		logger:         logger,
		stopChan:       make(chan struct{}),
		ledgerProvider: cfg.LedgerProvider,
	}

	var err error
	if pm.allocationsTotal, err = NewCounter(cfg.Meter,
		"bakery_allocations_total",
		"Allocation rows by outcome (reserved, consumed, released)",
		"{allocations}",
	); err != nil {
		return nil, err
	}
	if pm.shortagesTotal, err = NewCounter(cfg.Meter,
		"bakery_ingredient_shortages_total",
		"Allocations refused for insufficient stock",
		"{shortages}",
	); err != nil {
		return nil, err
	}
	if pm.completionsTotal, err = NewCounter(cfg.Meter,
		"bakery_production_runs_completed_total",
		"Production runs completed",
		"{runs}",
	); err != nil {
		return nil, err
	}
	if pm.cancellationsTotal, err = NewCounter(cfg.Meter,
		"bakery_production_runs_cancelled_total",
		"Production runs cancelled",
		"{runs}",
	); err != nil {
		return nil, err
	}
	if pm.contaminationTotal, err = NewCounter(cfg.Meter,
		"bakery_batches_contaminated_total",
		"Batches taken out of availability",
		"{batches}",
	); err != nil {
		return nil, err
	}

	if pm.allocatedQuantity, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "bakery_allocation_quantity",
		Description: "Quantity moved per allocation event",
		Unit:        "{units}",
	}); err != nil {
		return nil, err
	}
	if pm.runCost, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "bakery_production_run_cost",
		Description: "Total cost of completed production runs",
		Unit:        "{currency}",
		Boundaries:  CostBuckets,
	}); err != nil {
		return nil, err
	}
	if pm.runYield, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "bakery_production_run_yield",
		Description: "Final quantity of completed production runs",
		Unit:        "{units}",
	}); err != nil {
		return nil, err
	}

	if pm.reservedQuantity, err = NewFloatGauge(cfg.Meter,
		"bakery_ledger_reserved_quantity",
		"Quantity currently reserved by production runs",
		"{units}",
	); err != nil {
		return nil, err
	}
	if pm.activeRuns, err = NewGauge(cfg.Meter,
		"bakery_production_runs_active",
		"Production runs that are neither completed nor cancelled",
		"{runs}",
	); err != nil {
		return nil, err
	}
	if pm.expiringBatches, err = NewGauge(cfg.Meter,
		"bakery_ledger_expiring_batches",
		"Eligible batches expiring within the horizon",
		"{batches}",
	); err != nil {
		return nil, err
	}

	return pm, nil
}

// RecordAllocations records an allocation state change
func (pm *ProductionMetrics) RecordAllocations(ctx context.Context, outcome string, count int, quantity decimal.Decimal) {
	pm.allocationsTotal.Add(ctx, int64(count), AttrOutcome.String(outcome))
	pm.allocatedQuantity.RecordDecimal(ctx, quantity, AttrOutcome.String(outcome))
}

// RecordShortage records an allocation refused for insufficient stock
func (pm *ProductionMetrics) RecordShortage(ctx context.Context, materialName string) {
	pm.shortagesTotal.Inc(ctx, AttrMaterialName.String(materialName))
}

// RecordCompletion records a completed run
func (pm *ProductionMetrics) RecordCompletion(ctx context.Context, finalQuantity, totalCost decimal.Decimal) {
	pm.completionsTotal.Inc(ctx)
	pm.runCost.RecordDecimal(ctx, totalCost)
	pm.runYield.RecordDecimal(ctx, finalQuantity)
}

// RecordCancellation records a cancelled run
func (pm *ProductionMetrics) RecordCancellation(ctx context.Context) {
	pm.cancellationsTotal.Inc(ctx)
}

// RecordContamination records a batch marked contaminated
func (pm *ProductionMetrics) RecordContamination(ctx context.Context, kind string) {
	pm.contaminationTotal.Inc(ctx, AttrMaterialKind.String(kind))
}

// =============================================================================
// Periodic Collection
// =============================================================================

// TenantProvider provides tenant IDs for periodic metrics collection.
type TenantProvider interface {
	GetActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error)
}

// StartPeriodicCollection starts refreshing the ledger gauges every interval
// (default 5 minutes). It returns immediately; use Stop to end collection.
func (pm *ProductionMetrics) StartPeriodicCollection(ctx context.Context, tenants TenantProvider, interval, horizon time.Duration) {
	pm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}
		if horizon <= 0 {
			horizon = 72 * time.Hour
		}
		go pm.runPeriodicCollection(ctx, tenants, interval, horizon)
	})
}

func (pm *ProductionMetrics) runPeriodicCollection(ctx context.Context, tenants TenantProvider, interval, horizon time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	pm.collectLedgerMetrics(ctx, tenants, horizon)
	for {
		select {
		case <-pm.stopChan:
			pm.logger.Info("Stopping periodic production metrics collection")
			return
		case <-ctx.Done():
			pm.logger.Info("Context cancelled, stopping periodic production metrics collection")
			return
		case <-ticker.C:
			pm.collectLedgerMetrics(ctx, tenants, horizon)
		}
	}
}

func (pm *ProductionMetrics) collectLedgerMetrics(ctx context.Context, tenants TenantProvider, horizon time.Duration) {
	if pm.ledgerProvider == nil {
		pm.logger.Debug("No ledger provider configured, skipping ledger metrics collection")
		return
	}
	tenantIDs, err := tenants.GetActiveTenantIDs(ctx)
	if err != nil {
		pm.logger.Error("Failed to get tenant IDs for metrics collection", zap.Error(err))
		return
	}
	for _, tenantID := range tenantIDs {
		pm.collectTenantLedgerMetrics(ctx, tenantID, time.Now().Add(horizon))
	}
}

func (pm *ProductionMetrics) collectTenantLedgerMetrics(ctx context.Context, tenantID uuid.UUID, horizon time.Time) {
	tenant := AttrTenantID.String(tenantID.String())

	reserved, err := pm.ledgerProvider.GetReservedQuantity(ctx, tenantID)
	if err != nil {
		pm.logger.Warn("Failed to get reserved quantity for tenant",
			zap.String("tenant_id", tenantID.String()),
			zap.Error(err),
		)
	} else {
		for kind, qty := range reserved {
			pm.reservedQuantity.Record(ctx, qty, tenant, AttrMaterialKind.String(kind))
		}
	}

	runs, err := pm.ledgerProvider.GetActiveRunCount(ctx, tenantID)
	if err != nil {
		pm.logger.Warn("Failed to get active runs for tenant",
			zap.String("tenant_id", tenantID.String()),
			zap.Error(err),
		)
	} else {
		for status, count := range runs {
			pm.activeRuns.Record(ctx, count, tenant, AttrRunStatus.String(status))
		}
	}

	expiring, err := pm.ledgerProvider.GetExpiringBatchCount(ctx, tenantID, horizon)
	if err != nil {
		pm.logger.Warn("Failed to get expiring batches for tenant",
			zap.String("tenant_id", tenantID.String()),
			zap.Error(err),
		)
	} else {
		pm.expiringBatches.Record(ctx, expiring, tenant)
	}
}

// Stop stops the periodic collection.
func (pm *ProductionMetrics) Stop() {
	pm.stopOnce.Do(func() {
		close(pm.stopChan)
	})
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewProductionMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
