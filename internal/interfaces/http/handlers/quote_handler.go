package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"pay-chain.backend/internal/domain/entities"
	domainerrors "pay-chain.backend/internal/domain/errors"
	"pay-chain.backend/internal/interfaces/http/middleware"
	"pay-chain.backend/internal/interfaces/http/response"
)

// QuoteService is the GenerateQuote/CommitQuote surface QuoteHandler drives.
type QuoteService interface {
	GenerateQuote(ctx context.Context, input *entities.CreateQuoteInput) (*entities.Quote, error)
	CommitQuote(ctx context.Context, id uuid.UUID) (*entities.Quote, error)
}

// ExecutionReader reads back the Execution row dispatched for a quote, if any.
type ExecutionReader interface {
	GetByQuoteID(ctx context.Context, quoteID uuid.UUID) (*entities.Execution, error)
}

// QuoteReader is the narrow read used by GET /status/:quote_id.
type QuoteReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Quote, error)
}

// QuoteHandler handles quote generation, commit, and status lookup.
type QuoteHandler struct {
	quoteEngine   QuoteService
	quoteReader   QuoteReader
	executionRepo ExecutionReader
}

// NewQuoteHandler creates a QuoteHandler.
func NewQuoteHandler(quoteEngine QuoteService, quoteReader QuoteReader, executionRepo ExecutionReader) *QuoteHandler {
	return &QuoteHandler{quoteEngine: quoteEngine, quoteReader: quoteReader, executionRepo: executionRepo}
}

type createQuoteRequest struct {
	FundingChain          string          `json:"funding_chain" binding:"required"`
	ExecutionChain        string          `json:"execution_chain" binding:"required"`
	FundingAsset          string          `json:"funding_asset" binding:"required"`
	ExecutionAsset        string          `json:"execution_asset" binding:"required"`
	Instructions          json.RawMessage `json:"instructions" binding:"required"`
	EstimatedComputeUnits *uint64         `json:"estimated_compute_units,omitempty"`
}

// CreateQuote handles POST /quote
func (h *QuoteHandler) CreateQuote(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized(domainerrors.CodeInvalidParameters, "unauthorized"))
		return
	}

	var req createQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, domainerrors.BadRequest(domainerrors.CodeInvalidParameters, err.Error()))
		return
	}

	input := &entities.CreateQuoteInput{
		UserID:                userID,
		FundingChain:          entities.Chain(req.FundingChain),
		ExecutionChain:        entities.Chain(req.ExecutionChain),
		FundingAssetSymbol:    req.FundingAsset,
		ExecutionAssetSymbol:  req.ExecutionAsset,
		Instructions:          []byte(req.Instructions),
		EstimatedComputeUnits: req.EstimatedComputeUnits,
	}

	quote, err := h.quoteEngine.GenerateQuote(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, quoteResponse(quote))
}

type commitQuoteRequest struct {
	QuoteID uuid.UUID `json:"quote_id" binding:"required"`
}

// CommitQuote handles POST /commit
func (h *QuoteHandler) CommitQuote(c *gin.Context) {
	var req commitQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, domainerrors.BadRequest(domainerrors.CodeInvalidParameters, err.Error()))
		return
	}

	quote, err := h.quoteEngine.CommitQuote(c.Request.Context(), req.QuoteID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, quoteResponse(quote))
}

// GetStatus handles GET /status/:quote_id — a merged quote + latest
// execution view, since a client polling status cares about both.
func (h *QuoteHandler) GetStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("quote_id"))
	if err != nil {
		response.Error(c, domainerrors.BadRequest(domainerrors.CodeInvalidParameters, "invalid quote_id"))
		return
	}

	quote, err := h.quoteReader.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	body := quoteResponse(quote)
	if execution, err := h.executionRepo.GetByQuoteID(c.Request.Context(), id); err == nil && execution != nil {
		body["execution"] = gin.H{
			"id":               execution.ID,
			"status":           execution.Status,
			"transaction_hash": execution.TransactionHash,
			"error_message":    execution.ErrorMessage,
		}
	}

	response.Success(c, http.StatusOK, body)
}

func quoteResponse(q *entities.Quote) gin.H {
	return gin.H{
		"id":                 q.ID,
		"nonce":              q.Nonce,
		"funding_chain":      q.FundingChain,
		"execution_chain":    q.ExecutionChain,
		"funding_asset":      q.FundingAssetSymbol,
		"execution_asset":    q.ExecutionAssetSymbol,
		"max_funding_amount": q.MaxFundingAmount.String(),
		"execution_cost":     q.ExecutionCost.String(),
		"service_fee":        q.ServiceFee.String(),
		"status":             q.Status,
		"payment_address":    q.PaymentAddress,
		"expires_at":         q.ExpiresAt,
	}
}
