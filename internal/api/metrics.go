package api

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// GetCompliance handles GET /evaluations/:id/compliance. Admins and
// evaluators see every vendor's score; vendor-affiliated callers see only
// their own vendor's row.
func (h *Handler) GetCompliance(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	caller, ok := h.resolveCaller(ctx, c)
	if !ok {
		return
	}

	evaluationID := c.Param("id")
	evaluation, err := h.db.GetEvaluation(ctx, evaluationID)
	if err != nil {
		log.Printf("Failed to load evaluation %s: %v", evaluationID, err)
		writeServiceError(c, err)
		return
	}
	if evaluation == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Evaluation not found"})
		return
	}

	scores, err := h.scoring.ComputeComplianceForCaller(ctx, caller, evaluationID)
	if err != nil {
		log.Printf("Failed to compute compliance for evaluation %s: %v", evaluationID, err)
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, scores)
}

// GetFleetMetrics handles GET /metrics (admin-only, enforced by middleware)
func (h *Handler) GetFleetMetrics(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	metrics, err := h.metrics.ComputeFleetMetrics(ctx)
	if err != nil {
		log.Printf("Failed to compute fleet metrics: %v", err)
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, metrics)
}
