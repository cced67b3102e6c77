package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	appbilling "github.com/Motomboni/lifeway-emr-sub006/internal/application/billing"
	"github.com/Motomboni/lifeway-emr-sub006/internal/domain/billing"
	"github.com/Motomboni/lifeway-emr-sub006/internal/interfaces/http/dto"
)

// BillingHandler exposes visit ledgers and the payment pipeline
type BillingHandler struct {
	BaseHandler
	ledger   *appbilling.LedgerService
	pipeline *appbilling.PaymentConfirmationService
	logger   *zap.Logger
}

// NewBillingHandler creates a new billing handler
func NewBillingHandler(ledger *appbilling.LedgerService, pipeline *appbilling.PaymentConfirmationService, logger *zap.Logger) *BillingHandler {
	return &BillingHandler{
		ledger:   ledger,
		pipeline: pipeline,
		logger:   logger,
	}
}

// RegisterRoutes registers billing routes
func (h *BillingHandler) RegisterRoutes(r *gin.RouterGroup) {
	visits := r.Group("/visits")
	{
		visits.GET("/:id/summary", h.GetSummary)
		visits.GET("/:id/can-close", h.CanClose)
		visits.POST("/:id/validate-payment", h.ValidatePayment)
		visits.POST("/:id/payments", h.RecordPayment)
	}
	payments := r.Group("/payments")
	{
		payments.POST("/:id/clear", h.ClearPayment)
	}
	charges := r.Group("/charges")
	{
		charges.POST("/:id/confirm", h.ConfirmCharge)
	}
}

// GetSummary handles GET /visits/:id/summary
func (h *BillingHandler) GetSummary(c *gin.Context) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, "Invalid visit ID format")
		return
	}
	visitID := uuid.MustParse(req.ID)

	summary, err := h.ledger.ComputeSummary(c.Request.Context(), visitID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, summary)
}

// CanClose handles GET /visits/:id/can-close
func (h *BillingHandler) CanClose(c *gin.Context) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, "Invalid visit ID format")
		return
	}
	visitID := uuid.MustParse(req.ID)

	canClose, reason, err := h.ledger.CanCloseVisit(c.Request.Context(), visitID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, gin.H{
		"can_close": canClose,
		"reason":    reason,
	})
}

// ValidatePayment handles POST /visits/:id/validate-payment
func (h *BillingHandler) ValidatePayment(c *gin.Context) {
	var uriReq dto.IDRequest
	if err := c.ShouldBindUri(&uriReq); err != nil {
		h.BadRequest(c, "Invalid visit ID format")
		return
	}
	visitID := uuid.MustParse(uriReq.ID)

	var req dto.ValidatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	err := h.ledger.ValidatePaymentAmount(c.Request.Context(), visitID, decimal.NewFromFloat(req.Amount))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, gin.H{"valid": true})
}

// RecordPayment handles POST /visits/:id/payments
func (h *BillingHandler) RecordPayment(c *gin.Context) {
	var uriReq dto.IDRequest
	if err := c.ShouldBindUri(&uriReq); err != nil {
		h.BadRequest(c, "Invalid visit ID format")
		return
	}
	visitID := uuid.MustParse(uriReq.ID)

	var req dto.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	method := billing.PaymentMethod(req.Method)

	actor, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Actor ID required")
		return
	}

	payment, err := h.pipeline.RecordPayment(
		c.Request.Context(),
		visitID,
		decimal.NewFromFloat(req.Amount),
		method,
		req.ExternalReference,
		actor,
	)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.logger.Info("payment recorded",
		zap.String("payment_id", payment.ID.String()),
		zap.String("visit_id", visitID.String()),
		zap.String("method", method.String()),
	)

	h.Created(c, payment)
}

// ClearPayment handles POST /payments/:id/clear
func (h *BillingHandler) ClearPayment(c *gin.Context) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, "Invalid payment ID format")
		return
	}
	paymentID := uuid.MustParse(req.ID)

	payment, err := h.pipeline.ClearPayment(c.Request.Context(), paymentID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, payment)
}

// ConfirmCharge handles POST /charges/:id/confirm
func (h *BillingHandler) ConfirmCharge(c *gin.Context) {
	var uriReq dto.IDRequest
	if err := c.ShouldBindUri(&uriReq); err != nil {
		h.BadRequest(c, "Invalid charge ID format")
		return
	}
	chargeID := uuid.MustParse(uriReq.ID)

	var req dto.ConfirmChargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	method := billing.PaymentMethod(req.Method)

	actor, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Actor ID required")
		return
	}

	charge, err := h.pipeline.ConfirmCharge(c.Request.Context(), chargeID, method, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, charge)
}
