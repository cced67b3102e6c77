package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	appbilling "github.com/Motomboni/lifeway-emr-sub006/internal/application/billing"
	"github.com/Motomboni/lifeway-emr-sub006/internal/domain/billing"
	"github.com/Motomboni/lifeway-emr-sub006/internal/interfaces/http/dto"
)

// LeakHandler exposes revenue leak detection and resolution
type LeakHandler struct {
	BaseHandler
	leaks  *appbilling.LeakDetectionService
	logger *zap.Logger
}

// NewLeakHandler creates a new leak handler
func NewLeakHandler(leaks *appbilling.LeakDetectionService, logger *zap.Logger) *LeakHandler {
	return &LeakHandler{
		leaks:  leaks,
		logger: logger,
	}
}

// RegisterRoutes registers leak detection routes
func (h *LeakHandler) RegisterRoutes(r *gin.RouterGroup) {
	leaks := r.Group("/leaks")
	{
		leaks.POST("/detect", h.Detect)
		leaks.POST("/sweep", h.Sweep)
		leaks.POST("/:id/resolve", h.Resolve)
		leaks.GET("/daily", h.DailyAggregation)
	}
}

// Detect handles POST /leaks/detect
func (h *LeakHandler) Detect(c *gin.Context) {
	var req dto.DetectLeakRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	entityID := uuid.MustParse(req.EntityID)

	record, err := h.leaks.DetectLeak(c.Request.Context(), billing.LeakEntityType(req.EntityType), entityID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if record == nil {
		// Entity is billed or exempt: nothing leaked
		h.Success(c, gin.H{"leak": nil})
		return
	}
	h.Success(c, gin.H{"leak": record})
}

// Sweep handles POST /leaks/sweep
func (h *LeakHandler) Sweep(c *gin.Context) {
	result, err := h.leaks.DetectAll(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.logger.Info("leak sweep completed",
		zap.Int("leaks_detected", result.LeaksDetected),
		zap.String("estimated_loss", result.EstimatedLoss.String()),
	)

	h.Success(c, result)
}

// Resolve handles POST /leaks/:id/resolve
func (h *LeakHandler) Resolve(c *gin.Context) {
	var uriReq dto.IDRequest
	if err := c.ShouldBindUri(&uriReq); err != nil {
		h.BadRequest(c, "Invalid leak ID format")
		return
	}
	leakID := uuid.MustParse(uriReq.ID)

	// Notes are optional; resolve accepts an empty body
	var req dto.ResolveLeakRequest
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

	record, err := h.leaks.Resolve(c.Request.Context(), leakID, actor, req.Notes)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, record)
}

// DailyAggregation handles GET /leaks/daily?date=YYYY-MM-DD
func (h *LeakHandler) DailyAggregation(c *gin.Context) {
	dateStr := c.Query("date")
	if dateStr == "" {
		h.BadRequest(c, "Query parameter 'date' is required")
		return
	}
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		h.BadRequest(c, "Invalid date format, expected YYYY-MM-DD")
		return
	}

	aggregation, err := h.leaks.DailyAggregation(c.Request.Context(), date)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, aggregation)
}
