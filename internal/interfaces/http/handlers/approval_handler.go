package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"pay-chain.backend/internal/domain/entities"
	domainerrors "pay-chain.backend/internal/domain/errors"
	"pay-chain.backend/internal/interfaces/http/middleware"
	"pay-chain.backend/internal/interfaces/http/response"
	"pay-chain.backend/internal/usecases"
)

// ApprovalService is the TokenApprovalUsecase surface ApprovalHandler drives.
type ApprovalService interface {
	CreateApproval(ctx context.Context, quoteID, userID uuid.UUID, chain entities.Chain, userWallet, token, amount, recipient string) (*usecases.ApprovalResult, error)
	SubmitApproval(ctx context.Context, input *entities.SubmitApprovalInput, currentExecutionPrice decimal.Decimal) (*entities.TokenApproval, error)
	GetStatus(ctx context.Context, id uuid.UUID) (*entities.TokenApproval, error)
}

// ApprovalHandler handles the signature-based TokenApproval funding flow.
type ApprovalHandler struct {
	approvals ApprovalService
}

// NewApprovalHandler creates an ApprovalHandler.
func NewApprovalHandler(approvals ApprovalService) *ApprovalHandler {
	return &ApprovalHandler{approvals: approvals}
}

type createApprovalRequest struct {
	QuoteID    uuid.UUID `json:"quote_id" binding:"required"`
	Chain      string    `json:"chain" binding:"required"`
	UserWallet string    `json:"user_wallet" binding:"required"`
	Token      string    `json:"token" binding:"required"`
	Amount     string    `json:"amount" binding:"required"`
	Recipient  string    `json:"recipient" binding:"required"`
}

// CreateApproval handles POST /approval/create
func (h *ApprovalHandler) CreateApproval(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized(domainerrors.CodeInvalidParameters, "unauthorized"))
		return
	}

	var req createApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, domainerrors.BadRequest(domainerrors.CodeInvalidParameters, err.Error()))
		return
	}

	result, err := h.approvals.CreateApproval(c.Request.Context(), req.QuoteID, userID, entities.Chain(req.Chain), req.UserWallet, req.Token, req.Amount, req.Recipient)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"approval_id":     result.ApprovalID,
		"message_to_sign": result.MessageToSign,
		"nonce":           result.Nonce,
		"expires_at":      result.ExpiresAt,
	})
}

type submitApprovalRequest struct {
	ApprovalID uuid.UUID `json:"approval_id" binding:"required"`
	UserWallet string    `json:"user_wallet" binding:"required"`
	Signature  string    `json:"signature" binding:"required"`
	Token      string    `json:"token" binding:"required"`
	Amount     string    `json:"amount" binding:"required"`
	Recipient  string    `json:"recipient" binding:"required"`
	Nonce      string    `json:"nonce" binding:"required"`
}

// SubmitApproval handles POST /approval/submit
func (h *ApprovalHandler) SubmitApproval(c *gin.Context) {
	var req submitApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, domainerrors.BadRequest(domainerrors.CodeInvalidParameters, err.Error()))
		return
	}

	input := &entities.SubmitApprovalInput{
		ApprovalID: req.ApprovalID,
		UserWallet: req.UserWallet,
		Signature:  req.Signature,
		Token:      req.Token,
		Amount:     req.Amount,
		Recipient:  req.Recipient,
		Nonce:      req.Nonce,
	}

	approval, err := h.approvals.SubmitApproval(c.Request.Context(), input, decimal.Zero)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, approvalResponse(approval))
}

// GetApprovalStatus handles GET /approval/status/:id
func (h *ApprovalHandler) GetApprovalStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, domainerrors.BadRequest(domainerrors.CodeInvalidParameters, "invalid id"))
		return
	}

	approval, err := h.approvals.GetStatus(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, approvalResponse(approval))
}

func approvalResponse(a *entities.TokenApproval) gin.H {
	return gin.H{
		"id":         a.ID,
		"quote_id":   a.QuoteID,
		"chain":      a.Chain,
		"token":      a.Token,
		"amount":     a.Amount.String(),
		"recipient":  a.Recipient,
		"status":     a.Status,
		"expires_at": a.ExpiresAt,
	}
}
