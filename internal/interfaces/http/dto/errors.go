package dto

import "net/http"

// Error codes returned in the error envelope. Domain codes pass through
// unchanged; the ERR_ prefixed ones originate in the HTTP layer.
const (
	ErrCodeInternal        = "INTERNAL_ERROR"
	ErrCodeBadRequest      = "BAD_REQUEST"
	ErrCodeValidation      = "VALIDATION_ERROR"
	ErrCodeRateLimited     = "RATE_LIMITED"
	ErrCodeMissingTenant   = "MISSING_TENANT"
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"

	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeRecipeNotFound      = "RECIPE_NOT_FOUND"
	ErrCodeRunNotFound         = "PRODUCTION_RUN_NOT_FOUND"
	ErrCodeAlreadyExists       = "ALREADY_EXISTS"
	ErrCodeInvalidInput        = "INVALID_INPUT"
	ErrCodeInvalidQuantity     = "INVALID_QUANTITY"
	ErrCodeInvalidState        = "INVALID_STATE"
	ErrCodeStepsPending        = "STEPS_PENDING"
	ErrCodeInsufficientStock   = "INSUFFICIENT_STOCK"
	ErrCodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
	ErrCodeOptimisticLock      = "OPTIMISTIC_LOCK_FAILED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:        http.StatusInternalServerError,
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeRateLimited:     http.StatusTooManyRequests,
	ErrCodeMissingTenant:   http.StatusBadRequest,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,

	ErrCodeNotFound:       http.StatusNotFound,
	ErrCodeRecipeNotFound: http.StatusNotFound,
	ErrCodeRunNotFound:    http.StatusNotFound,

	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeInvalidState:        http.StatusConflict,
	ErrCodeStepsPending:        http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,
	ErrCodeOptimisticLock:      http.StatusConflict,

	ErrCodeInsufficientStock: http.StatusUnprocessableEntity,

	ErrCodeInvalidInput:    http.StatusBadRequest,
	ErrCodeInvalidQuantity: http.StatusBadRequest,
}

// GetHTTPStatus returns the HTTP status code for an error code, 500 when unknown
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
