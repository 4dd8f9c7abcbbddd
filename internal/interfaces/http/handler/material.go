package handler

import (
	"context"

	appprod "github.com/Oscarts/backery2-app-sub003/internal/application/production"
	"github.com/Oscarts/backery2-app-sub003/internal/domain/inventory"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// LedgerService records stock entering and leaving availability
type LedgerService interface {
	ReceiveBatch(ctx context.Context, tenantID uuid.UUID, req appprod.ReceiveBatchRequest) (*appprod.MaterialBatchResponse, error)
	GetBatch(ctx context.Context, tenantID uuid.UUID, kind string, id uuid.UUID) (*appprod.MaterialBatchResponse, error)
	MarkContaminated(ctx context.Context, tenantID uuid.UUID, kind string, id uuid.UUID, req appprod.MarkContaminatedRequest) (*appprod.MaterialBatchResponse, error)
}

// MaterialHandler serves the inventory ledger endpoints
type MaterialHandler struct {
	BaseHandler
	ledger LedgerService
}

// NewMaterialHandler creates a new MaterialHandler
func NewMaterialHandler(ledger LedgerService) *MaterialHandler {
	return &MaterialHandler{ledger: ledger}
}

// materialType reads ?material_type=, raw materials by default
func materialType(c *gin.Context) string {
	return c.DefaultQuery("material_type", string(inventory.MaterialKindRawMaterial))
}

// ReceiveBatch adds a batch to the ledger
func (h *MaterialHandler) ReceiveBatch(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var req appprod.ReceiveBatchRequest
	if !h.bindJSON(c, &req, false) {
		return
	}
	batch, err := h.ledger.ReceiveBatch(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, batch)
}

// GetBatch returns one batch
func (h *MaterialHandler) GetBatch(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	batch, err := h.ledger.GetBatch(c.Request.Context(), tenantID, materialType(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, batch)
}

// Contaminate quarantines a batch so allocation and availability skip it
func (h *MaterialHandler) Contaminate(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req appprod.MarkContaminatedRequest
	if !h.bindJSON(c, &req, true) {
		return
	}
	batch, err := h.ledger.MarkContaminated(c.Request.Context(), tenantID, materialType(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, batch)
}
