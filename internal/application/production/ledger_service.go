package production

import (
	"context"
	"fmt"

	"github.com/Oscarts/backery2-app-sub003/internal/domain/inventory"
	"github.com/Oscarts/backery2-app-sub003/internal/domain/shared"
	"github.com/Oscarts/backery2-app-sub003/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LedgerService records stock entering the ledger and quality holds on it
type LedgerService struct {
	repos     Repositories
	txScope   TransactionScope
	publisher shared.EventPublisher
	logger    *zap.Logger
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(repos Repositories, txScope TransactionScope, publisher shared.EventPublisher, logger *zap.Logger) *LedgerService {
	return &LedgerService{
		repos:     repos,
		txScope:   txScope,
		publisher: publisher,
		logger:    logger,
	}
}

// ReceiveBatch adds a raw material or finished product batch
func (s *LedgerService) ReceiveBatch(ctx context.Context, tenantID uuid.UUID, req ReceiveBatchRequest) (*MaterialBatchResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "material_ledger", "receive")
	defer span.End()

	if !req.Quantity.IsPositive() {
		return nil, shared.ErrInvalidQuantity.WithMessage("received quantity must be positive")
	}
	batch, err := inventory.NewMaterialBatch(tenantID, inventory.NewBatchInput{
		Kind:           inventory.MaterialKind(req.MaterialType),
		Name:           req.Name,
		SKU:            req.SKU,
		BatchNumber:    req.BatchNumber,
		Quantity:       req.Quantity,
		Unit:           req.Unit,
		UnitCost:       req.UnitCost,
		ProductionDate: req.ProductionDate,
		ExpirationDate: req.ExpirationDate,
	})
	if err != nil {
		return nil, err
	}
	if err := s.repos.Batches().Create(ctx, batch); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("create batch: %w", err)
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrBatchID, batch.ID.String(),
		telemetry.SpanAttrQuantity, batch.Quantity.String(),
	)
	s.logger.Info("batch received",
		zap.String("batch_id", batch.ID.String()),
		zap.String("material_type", batch.Kind.String()),
		zap.String("name", batch.Name),
		zap.String("quantity", batch.Quantity.String()),
	)
	resp := ToMaterialBatchResponse(batch)
	return &resp, nil
}

// GetBatch returns a batch by kind and id
func (s *LedgerService) GetBatch(ctx context.Context, tenantID uuid.UUID, kind string, id uuid.UUID) (*MaterialBatchResponse, error) {
	ref, err := inventoryRef(kind, id)
	if err != nil {
		return nil, err
	}
	batch, err := s.repos.Batches().FindByRef(ctx, tenantID, ref)
	if err != nil {
		return nil, err
	}
	resp := ToMaterialBatchResponse(batch)
	return &resp, nil
}

// MarkContaminated takes a batch out of availability. Reservations already
// held on it stay until their runs consume or release them.
func (s *LedgerService) MarkContaminated(ctx context.Context, tenantID uuid.UUID, kind string, id uuid.UUID, req MarkContaminatedRequest) (*MaterialBatchResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "material_ledger", "contaminate")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrBatchID, id.String())

	ref, err := inventoryRef(kind, id)
	if err != nil {
		return nil, err
	}

	var batch *inventory.MaterialBatch
	err = s.txScope.Execute(ctx, func(tx Repositories) error {
		b, err := tx.Batches().FindByRefForUpdate(ctx, tenantID, ref)
		if err != nil {
			return err
		}
		b.MarkContaminated(req.Reason)
		if len(b.Pending()) == 0 {
			batch = b
			return nil
		}
		if err := tx.Batches().Save(ctx, b); err != nil {
			return fmt.Errorf("save batch: %w", err)
		}
		batch = b
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if events := batch.Drain(); len(events) > 0 {
		publishEvents(ctx, s.publisher, s.logger, events...)
		s.logger.Warn("batch marked contaminated",
			zap.String("batch_id", batch.ID.String()),
			zap.String("name", batch.Name),
			zap.String("reserved_quantity", batch.ReservedQuantity.String()),
			zap.String("reason", req.Reason),
		)
	}
	resp := ToMaterialBatchResponse(batch)
	return &resp, nil
}

func inventoryRef(kind string, id uuid.UUID) (inventory.MaterialRef, error) {
	return inventory.NewMaterialRef(inventory.MaterialKind(kind), id)
}
