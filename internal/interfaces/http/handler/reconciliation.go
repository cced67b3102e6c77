package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	appbilling "github.com/Motomboni/lifeway-emr-sub006/internal/application/billing"
	"github.com/Motomboni/lifeway-emr-sub006/internal/interfaces/http/dto"
)

// ReconciliationHandler exposes the end-of-day reconciliation workflow
type ReconciliationHandler struct {
	BaseHandler
	recon  *appbilling.ReconciliationService
	logger *zap.Logger
}

// NewReconciliationHandler creates a new reconciliation handler
func NewReconciliationHandler(recon *appbilling.ReconciliationService, logger *zap.Logger) *ReconciliationHandler {
	return &ReconciliationHandler{
		recon:  recon,
		logger: logger,
	}
}

// RegisterRoutes registers reconciliation routes
func (h *ReconciliationHandler) RegisterRoutes(r *gin.RouterGroup) {
	recons := r.Group("/reconciliations")
	{
		recons.POST("", h.Create)
		recons.POST("/:id/refresh", h.Refresh)
		recons.POST("/:id/review", h.Review)
		recons.POST("/:id/finalize", h.Finalize)
		recons.POST("/:id/cancel", h.Cancel)
		recons.PUT("/:id/notes", h.UpdateNotes)
	}
}

// Create handles POST /reconciliations
func (h *ReconciliationHandler) Create(c *gin.Context) {
	var req dto.CreateReconciliationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		h.BadRequest(c, "Invalid date format, expected YYYY-MM-DD")
		return
	}

	actor, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Actor ID required")
		return
	}

	record, err := h.recon.CreateReconciliation(c.Request.Context(), date, actor, req.CloseActiveVisits)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.logger.Info("reconciliation created",
		zap.String("record_id", record.ID.String()),
		zap.String("date", date.Format("2006-01-02")),
	)

	h.Created(c, record)
}

// Refresh handles POST /reconciliations/:id/refresh
func (h *ReconciliationHandler) Refresh(c *gin.Context) {
	recordID, ok := h.bindRecordID(c)
	if !ok {
		return
	}

	record, err := h.recon.Refresh(c.Request.Context(), recordID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, record)
}

// Review handles POST /reconciliations/:id/review
func (h *ReconciliationHandler) Review(c *gin.Context) {
	recordID, ok := h.bindRecordID(c)
	if !ok {
		return
	}

	actor, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Actor ID required")
		return
	}

	record, err := h.recon.MarkReviewed(c.Request.Context(), recordID, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, record)
}

// Finalize handles POST /reconciliations/:id/finalize
func (h *ReconciliationHandler) Finalize(c *gin.Context) {
	recordID, ok := h.bindRecordID(c)
	if !ok {
		return
	}

	// Notes are optional; finalize accepts an empty body
	var req dto.FinalizeReconciliationRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BadRequest(c, "Invalid request body: "+err.Error())
			return
		}
	}

	actor, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Actor ID required")
		return
	}

	record, err := h.recon.Finalize(c.Request.Context(), recordID, actor, req.Notes)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, record)
}

// Cancel handles POST /reconciliations/:id/cancel
func (h *ReconciliationHandler) Cancel(c *gin.Context) {
	recordID, ok := h.bindRecordID(c)
	if !ok {
		return
	}

	var req dto.CancelReconciliationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	actor, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Actor ID required")
		return
	}

	record, err := h.recon.Cancel(c.Request.Context(), recordID, actor, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, record)
}

// UpdateNotes handles PUT /reconciliations/:id/notes
func (h *ReconciliationHandler) UpdateNotes(c *gin.Context) {
	recordID, ok := h.bindRecordID(c)
	if !ok {
		return
	}

	var req dto.UpdateReconciliationNotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	record, err := h.recon.UpdateNotes(c.Request.Context(), recordID, req.Notes)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, record)
}

func (h *ReconciliationHandler) bindRecordID(c *gin.Context) (uuid.UUID, bool) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, "Invalid reconciliation ID format")
		return uuid.Nil, false
	}
	return uuid.MustParse(req.ID), true
}
