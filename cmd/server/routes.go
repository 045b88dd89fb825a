package main

import (
	"github.com/gin-gonic/gin"

	"pay-chain.backend/internal/interfaces/http/handlers"
	"pay-chain.backend/internal/interfaces/http/middleware"
)

type routeDeps struct {
	authHandler     *handlers.AuthHandler
	quoteHandler    *handlers.QuoteHandler
	approvalHandler *handlers.ApprovalHandler
	webhookHandler  *handlers.WebhookHandler
	healthHandler   *handlers.HealthHandler
	authMiddleware  gin.HandlerFunc
}

func registerAPIV1Routes(r *gin.Engine, d routeDeps) {
	v1 := r.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", d.authHandler.Register)
			auth.POST("/login", d.authHandler.Login)
			auth.POST("/refresh", d.authHandler.RefreshToken)
			auth.POST("/logout", d.authHandler.Logout)
			auth.GET("/session-expiry", d.authHandler.GetSessionExpiry)
			auth.GET("/me", d.authMiddleware, d.authHandler.GetMe)
			auth.POST("/change-password", d.authMiddleware, d.authHandler.ChangePassword)
		}

		idempotent := middleware.IdempotencyMiddleware()

		// Quote lifecycle (protected: a quote is minted for the caller).
		// POST /quote is idempotency-keyed since a retried request must not
		// mint a second quote for the same client intent.
		v1.POST("/quote", d.authMiddleware, idempotent, d.quoteHandler.CreateQuote)
		v1.POST("/commit", d.authMiddleware, d.quoteHandler.CommitQuote)
		v1.GET("/status/:quote_id", d.authMiddleware, d.quoteHandler.GetStatus)

		// Signature-based funding flow.
		approval := v1.Group("/approval")
		{
			approval.POST("/create", d.authMiddleware, d.approvalHandler.CreateApproval)
			// Submit is idempotency-keyed too: a client retry after a
			// dropped response must not replay the treasury-pull signature.
			approval.POST("/submit", idempotent, d.approvalHandler.SubmitApproval)
			approval.GET("/status/:id", d.approvalHandler.GetApprovalStatus)
		}

		// Deposit-based funding flow: the indexer posts here, unauthenticated
		// (the memo-bound quote lookup is the authorization check).
		webhooks := v1.Group("/webhook")
		{
			webhooks.POST("/payment", d.webhookHandler.HandlePaymentNotice)
		}

		// Treasury/circuit-breaker visibility for operators.
		admin := v1.Group("/admin")
		admin.Use(d.authMiddleware)
		{
			admin.GET("/treasury", d.healthHandler.TreasuryOverview)
			admin.GET("/treasury/:chain", d.healthHandler.TreasuryByChain)
		}
	}
}
