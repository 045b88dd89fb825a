package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	domainerrors "pay-chain.backend/internal/domain/errors"
)

// Success sends a success response
func Success(c *gin.Context, status int, data interface{}) {
	c.JSON(status, data)
}

// Error sends the error envelope {error, error_code}, mapping err to its
// documented status and stable error_code before falling back to a generic
// 500 INTERNAL_ERROR.
func Error(c *gin.Context, err error) {
	status, code, message := classify(err)
	c.JSON(status, gin.H{
		"error":      message,
		"error_code": code,
	})
}

// classify walks err for every domain error type/sentinel with a documented
// HTTP mapping (spec.md §6/§7), falling back to InternalError for anything
// unrecognized so raw database/RPC text never reaches the caller.
func classify(err error) (status int, code string, message string) {
	var appErr *domainerrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Status, appErr.Code, appErr.Message
	}

	var invalidState *domainerrors.ErrInvalidState
	if errors.As(err, &invalidState) {
		return http.StatusConflict, domainerrors.CodeInvalidState, invalidState.Error()
	}

	var dailyLimit *domainerrors.ErrDailyLimitExceeded
	if errors.As(err, &dailyLimit) {
		return http.StatusConflict, domainerrors.CodeDailyLimitExceeded, dailyLimit.Error()
	}

	var breaker *domainerrors.ErrCircuitBreakerTriggered
	if errors.As(err, &breaker) {
		return http.StatusConflict, domainerrors.CodeCircuitBreaker, breaker.Error()
	}

	var treasury *domainerrors.ErrInsufficientTreasury
	if errors.As(err, &treasury) {
		return http.StatusPaymentRequired, domainerrors.CodeInsufficientTreasury, treasury.Error()
	}

	switch {
	case errors.Is(err, domainerrors.ErrNotFound):
		return http.StatusNotFound, domainerrors.CodeNotFound, err.Error()
	case errors.Is(err, domainerrors.ErrQuoteExpired):
		return http.StatusBadRequest, domainerrors.CodeQuoteExpired, err.Error()
	case errors.Is(err, domainerrors.ErrDuplicateExecution):
		return http.StatusConflict, domainerrors.CodeDuplicateExecution, err.Error()
	case errors.Is(err, domainerrors.ErrAlreadyExists):
		return http.StatusConflict, domainerrors.CodeAlreadyExists, err.Error()
	case errors.Is(err, domainerrors.ErrNonceReused):
		return http.StatusConflict, domainerrors.CodeNonceReused, err.Error()
	case errors.Is(err, domainerrors.ErrMessageTampered):
		return http.StatusConflict, domainerrors.CodeMessageTampered, err.Error()
	case errors.Is(err, domainerrors.ErrSignatureInvalid):
		return http.StatusUnauthorized, domainerrors.CodeSignatureInvalid, err.Error()
	case errors.Is(err, domainerrors.ErrConfirmationTimeout):
		// Non-terminal by design (deferred to reconciliation); if it ever
		// reaches a handler, report it as a timeout rather than a failure.
		return http.StatusGatewayTimeout, domainerrors.CodeExecutionFailed, err.Error()
	}

	appErr = domainerrors.InternalError(err)
	return appErr.Status, appErr.Code, appErr.Message
}

// ErrorWithStatus sends an error response with a specific status and message
func ErrorWithError(c *gin.Context, status int, code string, message string) {
	c.JSON(status, gin.H{
		"error":      message,
		"error_code": code,
	})
}
