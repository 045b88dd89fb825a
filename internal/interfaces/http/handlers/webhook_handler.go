package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"pay-chain.backend/internal/domain/entities"
	domainerrors "pay-chain.backend/internal/domain/errors"
	"pay-chain.backend/internal/interfaces/http/response"
	"pay-chain.backend/internal/usecases"
)

// SettlementService is the subset of SettlementUsecase the webhook handler
// depends on.
type SettlementService interface {
	RecordPayment(ctx context.Context, input *usecases.PaymentNoticeInput) (*entities.PaymentNotice, error)
}

// WebhookHandler receives funding-chain payment notices from an external
// indexer/watcher and hands them to the settlement recorder.
type WebhookHandler struct {
	settlement SettlementService
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(settlement SettlementService) *WebhookHandler {
	return &WebhookHandler{settlement: settlement}
}

type paymentNoticeRequest struct {
	Chain     string `json:"chain" binding:"required"`
	TxHash    string `json:"tx_hash" binding:"required"`
	From      string `json:"from" binding:"required"`
	To        string `json:"to" binding:"required"`
	Amount    string `json:"amount" binding:"required"`
	Asset     string `json:"asset" binding:"required"`
	Memo      string `json:"memo"`
	Timestamp *int64 `json:"timestamp"`
}

// HandlePaymentNotice handles an indexer-reported funding-chain payment.
// POST /api/v1/webhook/payment
func (h *WebhookHandler) HandlePaymentNotice(c *gin.Context) {
	var req paymentNoticeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, domainerrors.BadRequest(domainerrors.CodeInvalidParameters, err.Error()))
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		response.Error(c, domainerrors.BadRequest(domainerrors.CodeInvalidParameters, "amount must be a decimal string"))
		return
	}

	occurredAt := time.Now()
	if req.Timestamp != nil {
		occurredAt = time.Unix(*req.Timestamp, 0).UTC()
	}

	notice, err := h.settlement.RecordPayment(c.Request.Context(), &usecases.PaymentNoticeInput{
		Chain:     entities.Chain(req.Chain),
		TxHash:    req.TxHash,
		From:      req.From,
		To:        req.To,
		Amount:    amount,
		Asset:     req.Asset,
		Memo:      req.Memo,
		Timestamp: occurredAt,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusAccepted, gin.H{
		"notice_id": notice.ID,
		"status":    notice.Status,
	})
}
