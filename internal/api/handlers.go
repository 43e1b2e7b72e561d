package api

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/provenor/evaluation-service/internal/db"
	"github.com/provenor/evaluation-service/internal/models"
	"github.com/provenor/evaluation-service/internal/services"
)

// Handler holds the database connection and the domain services built on it.
type Handler struct {
	db         *db.Database
	identity   *services.IdentityService
	scoring    *services.ScoringService
	derivation *services.DerivationService
	lifecycle  *services.LifecycleService
	metrics    *services.MetricsService
}

// NewHandler wires the domain services onto the shared database. The
// priority mapping is the evaluator-configured category -> ordinal table
// (lower = more urgent); categories not listed derive at the midpoint.
func NewHandler(database *db.Database, priorityByCategory map[string]int) *Handler {
	identity := services.NewIdentityService(database)
	scoring := services.NewScoringService(database)
	return &Handler{
		db:         database,
		identity:   identity,
		scoring:    scoring,
		derivation: services.NewDerivationService(database, priorityByCategory),
		lifecycle:  services.NewLifecycleService(database, identity),
		metrics:    services.NewMetricsService(database, scoring),
	}
}

// Health handles GET /health and /ready
func (h *Handler) Health(c *gin.Context) {
	if h.db == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "reason": "database not initialized"})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()
	if err := h.db.Health(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "reason": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// writeServiceError maps domain errors onto HTTP statuses. Data-integrity
// failures are logged with context and surfaced as a generic 500.
func writeServiceError(c *gin.Context, err error) {
	if se, ok := services.AsServiceError(err); ok {
		switch se.Code {
		case services.ErrorUnauthenticated:
			c.JSON(http.StatusUnauthorized, gin.H{"error": se.Message})
		case services.ErrorForbidden:
			c.JSON(http.StatusForbidden, gin.H{"error": se.Message})
		case services.ErrorNotFound:
			c.JSON(http.StatusNotFound, gin.H{"error": se.Message})
		case services.ErrorInvalid:
			c.JSON(http.StatusBadRequest, gin.H{"error": se.Message, "reason": string(se.Code)})
		case services.ErrorConflict:
			c.JSON(http.StatusConflict, gin.H{"error": se.Message})
		case services.ErrorTransient:
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "temporarily unavailable, retry later"})
		case services.ErrorDataIntegrity:
			log.Printf("[api] data integrity violation: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		}
		return
	}
	log.Printf("[api] unhandled error: %v", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
}

// CreateEvaluation handles POST /evaluations
func (h *Handler) CreateEvaluation(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	var req struct {
		Title       string  `json:"title" binding:"required"`
		Description *string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	evaluation := models.Evaluation{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Description: req.Description,
		Status:      models.EvaluationDraft,
		CreatedBy:   CallerID(c),
	}
	id, err := h.db.CreateEvaluation(ctx, evaluation)
	if err != nil {
		log.Printf("Failed to create evaluation: %v", err)
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"evaluation_id": id})
}

// resolveCaller resolves the authenticated caller through the identity
// service; on failure it writes the error response and returns false.
func (h *Handler) resolveCaller(ctx context.Context, c *gin.Context) (*services.CallerIdentity, bool) {
	caller, err := h.identity.Resolve(ctx, CallerID(c))
	if err != nil {
		writeServiceError(c, err)
		return nil, false
	}
	return caller, true
}

// ListEvaluations handles GET /evaluations. Admins and evaluators see every
// evaluation; vendor-affiliated callers see only the evaluations their vendor
// is assigned to.
func (h *Handler) ListEvaluations(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	caller, ok := h.resolveCaller(ctx, c)
	if !ok {
		return
	}

	var evaluations []models.Evaluation
	var err error
	switch {
	case caller.CanReadFleet():
		evaluations, err = h.db.ListEvaluations(ctx)
	case caller.VendorID != nil:
		evaluations, err = h.db.ListEvaluationsByVendor(ctx, *caller.VendorID)
	default:
		c.JSON(http.StatusForbidden, gin.H{"error": "Caller has no vendor affiliation"})
		return
	}
	if err != nil {
		log.Printf("Failed to list evaluations: %v", err)
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, evaluations)
}

// GetEvaluation handles GET /evaluations/:id. Vendor-affiliated callers may
// only read evaluations their vendor is assigned to.
func (h *Handler) GetEvaluation(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	caller, ok := h.resolveCaller(ctx, c)
	if !ok {
		return
	}

	evaluation, err := h.db.GetEvaluation(ctx, c.Param("id"))
	if err != nil {
		log.Printf("Failed to get evaluation %s: %v", c.Param("id"), err)
		writeServiceError(c, err)
		return
	}
	if evaluation == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Evaluation not found"})
		return
	}

	if !caller.CanReadFleet() {
		if caller.VendorID == nil {
			c.JSON(http.StatusForbidden, gin.H{"error": "Caller has no vendor affiliation"})
			return
		}
		assignment, err := h.db.GetAssignmentByVendor(ctx, evaluation.ID, *caller.VendorID)
		if err != nil {
			log.Printf("Failed to check assignment for evaluation %s: %v", evaluation.ID, err)
			writeServiceError(c, err)
			return
		}
		if assignment == nil {
			c.JSON(http.StatusForbidden, gin.H{"error": "Vendor is not assigned to this evaluation"})
			return
		}
	}

	questions, err := h.db.ListEvaluationQuestions(ctx, evaluation.ID)
	if err != nil {
		log.Printf("Failed to load questions for evaluation %s: %v", evaluation.ID, err)
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"evaluation": evaluation, "questions": questions})
}

// AddEvaluationQuestion handles POST /evaluations/:id/questions. It accepts
// either an existing question id or an inline question definition.
func (h *Handler) AddEvaluationQuestion(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	evaluationID := c.Param("id")
	var req struct {
		QuestionID         string   `json:"question_id"`
		Text               string   `json:"text"`
		Category           string   `json:"category"`
		Weight             *float64 `json:"weight"`
		RecommendationText *string  `json:"recommendation_text"`
		WeightOverride     *float64 `json:"weight_override"`
		Position           int      `json:"position"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	if req.Weight != nil && *req.Weight < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "weight must be >= 0"})
		return
	}

	questionID := req.QuestionID
	if questionID == "" {
		if req.Text == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "question_id or text is required"})
			return
		}
		weight := 1.0
		if req.Weight != nil {
			weight = *req.Weight
		}
		var err error
		questionID, err = h.db.CreateQuestion(ctx, models.Question{
			ID:                 uuid.NewString(),
			Text:               req.Text,
			Category:           req.Category,
			Weight:             weight,
			RecommendationText: req.RecommendationText,
		})
		if err != nil {
			log.Printf("Failed to create question: %v", err)
			writeServiceError(c, err)
			return
		}
	}

	err := h.db.AddEvaluationQuestion(ctx, models.EvaluationQuestion{
		EvaluationID:   evaluationID,
		QuestionID:     questionID,
		WeightOverride: req.WeightOverride,
		Position:       req.Position,
	})
	if err != nil {
		log.Printf("Failed to attach question %s to evaluation %s: %v", questionID, evaluationID, err)
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"evaluation_id": evaluationID, "question_id": questionID})
}

// AssignVendor handles POST /evaluations/:id/assignments
func (h *Handler) AssignVendor(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	var req struct {
		VendorID string `json:"vendor_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	id, err := h.db.CreateAssignment(ctx, models.VendorAssignment{
		ID:           uuid.NewString(),
		EvaluationID: c.Param("id"),
		VendorID:     req.VendorID,
		Status:       models.AssignmentPending,
	})
	if err != nil {
		log.Printf("Failed to assign vendor %s to evaluation %s: %v", req.VendorID, c.Param("id"), err)
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"assignment_id": id})
}

// SubmitResponses handles POST /evaluations/:id/responses. The answering
// vendor comes from the caller's vendor affiliation; admins may answer on a
// vendor's behalf by passing vendor_id explicitly.
func (h *Handler) SubmitResponses(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	evaluationID := c.Param("id")
	var req struct {
		VendorID string `json:"vendor_id"`
		Answers  []struct {
			QuestionID    string  `json:"question_id" binding:"required"`
			Answer        string  `json:"answer"`
			ResponseValue *string `json:"response_value"`
			Score         float64 `json:"score"`
		} `json:"answers" binding:"required"`
		Complete bool `json:"complete"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	vendorID := req.VendorID
	if !IsAdmin(c) {
		v, _ := c.Get("vendor_id")
		callerVendor, _ := v.(string)
		if callerVendor == "" {
			c.JSON(http.StatusForbidden, gin.H{"error": "Caller has no vendor affiliation"})
			return
		}
		if vendorID != "" && vendorID != callerVendor {
			c.JSON(http.StatusForbidden, gin.H{"error": "Cannot answer for another vendor"})
			return
		}
		vendorID = callerVendor
	}
	if vendorID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "vendor_id is required"})
		return
	}

	assignment, err := h.db.GetAssignmentByVendor(ctx, evaluationID, vendorID)
	if err != nil {
		log.Printf("Failed to load assignment for evaluation %s vendor %s: %v", evaluationID, vendorID, err)
		writeServiceError(c, err)
		return
	}
	if assignment == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Vendor is not assigned to this evaluation"})
		return
	}

	saved := 0
	for _, a := range req.Answers {
		_, err := h.db.UpsertResponse(ctx, models.Response{
			ID:            uuid.NewString(),
			EvaluationID:  evaluationID,
			QuestionID:    a.QuestionID,
			VendorID:      vendorID,
			AssignmentID:  assignment.ID,
			Answer:        a.Answer,
			ResponseValue: a.ResponseValue,
			Score:         a.Score,
		})
		if err != nil {
			log.Printf("Failed to save response for question %s: %v", a.QuestionID, err)
			writeServiceError(c, err)
			return
		}
		saved++
	}

	status := models.AssignmentInProgress
	if req.Complete {
		status = models.AssignmentCompleted
	}
	if err := h.db.SetAssignmentStatus(ctx, assignment.ID, status); err != nil {
		log.Printf("Failed to update assignment %s status: %v", assignment.ID, err)
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"assignment_id": assignment.ID, "saved": saved, "status": status})
}
