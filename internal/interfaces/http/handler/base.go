package handler

import (
	"errors"
	"net/http"

	"github.com/Oscarts/backery2-app-sub003/internal/domain/shared"
	"github.com/Oscarts/backery2-app-sub003/internal/infrastructure/logger"
	"github.com/Oscarts/backery2-app-sub003/internal/interfaces/http/dto"
	"github.com/Oscarts/backery2-app-sub003/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Error sends an error response with an explicit status
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.AbortWithStatusJSON(statusCode, dto.NewErrorResponseWithDetails(code, message, nil, middleware.GetRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// HandleError converts an error into the error envelope. Domain errors keep
// their code, message and details; anything else is logged and answered
// with INTERNAL_ERROR.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	requestID := middleware.GetRequestID(c)

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		c.AbortWithStatusJSON(dto.GetHTTPStatus(domainErr.Code),
			dto.NewErrorResponseWithDetails(domainErr.Code, domainErr.Message, domainErr.Details, requestID))
		return
	}

	logger.GetGinLogger(c).Error("Unhandled error", zap.Error(err))
	c.AbortWithStatusJSON(http.StatusInternalServerError,
		dto.NewErrorResponseWithDetails(dto.ErrCodeInternal, "An unexpected error occurred", nil, requestID))
}

// bindJSON binds the body into req and answers 400 on failure. An empty body
// is accepted when optional is set, leaving req at its zero value.
func (h *BaseHandler) bindJSON(c *gin.Context, req any, optional bool) bool {
	if optional && c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			middleware.HandleValidationError(c, err)
			return false
		}
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

// tenant returns the tenant resolved by the tenant middleware
func (h *BaseHandler) tenant(c *gin.Context) (uuid.UUID, bool) {
	id := middleware.GetTenantUUID(c)
	if id == uuid.Nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeMissingTenant, "X-Tenant-ID header is required")
		return uuid.Nil, false
	}
	return id, true
}

// uuidParam parses a path parameter as a UUID
func (h *BaseHandler) uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.BadRequest(c, "Invalid "+name+": must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}
