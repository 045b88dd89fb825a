package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"pay-chain.backend/internal/domain/entities"
	domainerrors "pay-chain.backend/internal/domain/errors"
	"pay-chain.backend/internal/interfaces/http/response"
)

// TreasuryReader is the narrow ExecutionRouter surface HealthHandler drives
// for per-chain treasury balances.
type TreasuryReader interface {
	RegisteredChains() []entities.Chain
	TreasuryBalance(ctx context.Context, chain entities.Chain) (decimal.Decimal, error)
}

// BreakerReader reads the active circuit breaker, if any, for a chain.
type BreakerReader interface {
	GetActive(ctx context.Context, chain entities.Chain) (*entities.CircuitBreakerState, error)
}

// HealthHandler reports per-chain treasury balances and circuit-breaker
// status for operators.
type HealthHandler struct {
	router   TreasuryReader
	breakers BreakerReader
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(router TreasuryReader, breakers BreakerReader) *HealthHandler {
	return &HealthHandler{router: router, breakers: breakers}
}

// TreasuryOverview handles GET /admin/treasury — balance and breaker state
// for every registered chain.
func (h *HealthHandler) TreasuryOverview(c *gin.Context) {
	chains := h.router.RegisteredChains()
	overview := make([]gin.H, 0, len(chains))
	for _, chain := range chains {
		overview = append(overview, h.chainStatus(c.Request.Context(), chain))
	}
	response.Success(c, http.StatusOK, gin.H{"chains": overview})
}

// TreasuryByChain handles GET /admin/treasury/:chain.
func (h *HealthHandler) TreasuryByChain(c *gin.Context) {
	chain := entities.Chain(c.Param("chain"))
	if !chain.IsValid() {
		response.Error(c, domainerrors.BadRequest(domainerrors.CodeInvalidParameters, "unknown chain"))
		return
	}
	response.Success(c, http.StatusOK, h.chainStatus(c.Request.Context(), chain))
}

func (h *HealthHandler) chainStatus(ctx context.Context, chain entities.Chain) gin.H {
	status := gin.H{"chain": chain}

	balance, err := h.router.TreasuryBalance(ctx, chain)
	if err != nil {
		status["balance_error"] = err.Error()
	} else {
		status["treasury_balance"] = balance.String()
	}

	breaker, err := h.breakers.GetActive(ctx, chain)
	if err != nil {
		status["circuit_breaker_error"] = err.Error()
	} else if breaker != nil {
		status["circuit_breaker"] = gin.H{"active": true, "reason": breaker.Reason, "triggered_at": breaker.TriggeredAt}
	} else {
		status["circuit_breaker"] = gin.H{"active": false}
	}

	return status
}
