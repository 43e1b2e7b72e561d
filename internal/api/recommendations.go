package api

import (
	"context"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"

	"github.com/provenor/evaluation-service/internal/models"
)

// RecommendationGroup is one evaluation's recommendations in a role-scoped
// listing.
type RecommendationGroup struct {
	EvaluationID    string                        `json:"evaluation_id"`
	EvaluationTitle string                        `json:"evaluation_title"`
	Recommendations []models.RecommendationDetail `json:"recommendations"`
}

// ListRecommendations handles GET /recommendations. Admins see every group;
// supplier users see only their own vendor's.
func (h *Handler) ListRecommendations(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	var vendorFilter *string
	if !IsAdmin(c) {
		v, _ := c.Get("vendor_id")
		callerVendor, _ := v.(string)
		if callerVendor == "" {
			c.JSON(http.StatusForbidden, gin.H{"error": "Caller has no vendor affiliation"})
			return
		}
		vendorFilter = &callerVendor
	}

	details, err := h.db.ListRecommendationDetails(ctx, vendorFilter)
	if err != nil {
		log.Printf("Failed to list recommendations: %v", err)
		writeServiceError(c, err)
		return
	}

	// Group by evaluation, preserving the query's ordering
	groups := make([]RecommendationGroup, 0)
	index := map[string]int{}
	for _, d := range details {
		i, ok := index[d.EvaluationID]
		if !ok {
			i = len(groups)
			index[d.EvaluationID] = i
			groups = append(groups, RecommendationGroup{
				EvaluationID:    d.EvaluationID,
				EvaluationTitle: d.EvaluationTitle,
				Recommendations: []models.RecommendationDetail{},
			})
		}
		groups[i].Recommendations = append(groups[i].Recommendations, d)
	}
	c.JSON(http.StatusOK, groups)
}

// DeriveRecommendations handles POST /assignments/:id/recommendations
func (h *Handler) DeriveRecommendations(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	report, err := h.derivation.DeriveRecommendations(ctx, c.Param("id"))
	if err != nil {
		log.Printf("Derivation failed for assignment %s: %v", c.Param("id"), err)
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// SetRecommendationStatus handles PUT /recommendations/:id
func (h *Handler) SetRecommendationStatus(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	rec, err := h.lifecycle.SetStatus(ctx, CallerID(c), c.Param("id"), models.RecommendationStatus(req.Status))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// UploadRecommendationEvidence handles POST /recommendations/:id/evidence.
// Suppliers attach supporting documents while working a recommendation; the
// file lands in S3 with a local-disk fallback for development.
func (h *Handler) UploadRecommendationEvidence(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second) // Longer timeout for uploads
	defer cancel()

	recommendationID := c.Param("id")
	rec, err := h.db.GetRecommendation(ctx, recommendationID)
	if err != nil {
		log.Printf("Failed to load recommendation %s: %v", recommendationID, err)
		writeServiceError(c, err)
		return
	}
	if rec == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Recommendation not found"})
		return
	}

	if !IsAdmin(c) {
		vendorID, err := h.db.GetRecommendationVendor(ctx, recommendationID)
		if err != nil {
			log.Printf("Failed to resolve recommendation %s vendor: %v", recommendationID, err)
			writeServiceError(c, err)
			return
		}
		v, _ := c.Get("vendor_id")
		callerVendor, _ := v.(string)
		if callerVendor == "" || callerVendor != vendorID {
			c.JSON(http.StatusForbidden, gin.H{"error": "Recommendation belongs to another vendor"})
			return
		}
	}

	fileHeader, err := c.FormFile("evidence")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing 'evidence' form field"})
		return
	}
	if fileHeader.Size > 20*1024*1024 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File size exceeds 20MB limit"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		log.Printf("Failed to open uploaded file: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to open uploaded file"})
		return
	}
	defer file.Close()

	evidenceURL, err := h.uploadEvidenceToS3(ctx, recommendationID, fileHeader, file)
	if err != nil {
		log.Printf("S3 upload failed, falling back to local storage: %v", err)
		evidenceURL, err = h.uploadEvidenceToLocal(recommendationID, fileHeader, file)
		if err != nil {
			log.Printf("Local upload also failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload file"})
			return
		}
	}

	if err := h.db.SetRecommendationEvidence(ctx, recommendationID, evidenceURL); err != nil {
		log.Printf("Failed to save evidence URL: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "File uploaded but failed to update recommendation"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"evidence_url": evidenceURL})
}

func (h *Handler) uploadEvidenceToS3(ctx context.Context, recommendationID string, fileHeader *multipart.FileHeader, file multipart.File) (string, error) {
	file.Seek(0, 0)

	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = os.Getenv("AWS_DEFAULT_REGION")
	}
	if region == "" {
		region = "eu-central-1"
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return "", fmt.Errorf("failed to load AWS default config: %w", err)
	}
	s3Client := s3.NewFromConfig(cfg)

	bucketName := os.Getenv("EVIDENCE_BUCKET")
	if bucketName == "" {
		bucketName = "provenor-evaluation-evidence"
	}
	objectKey := fmt.Sprintf("recommendations/%s/%d%s", recommendationID, time.Now().UnixNano(), filepath.Ext(fileHeader.Filename))

	_, err = s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: &bucketName,
		Key:    &objectKey,
		Body:   file,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload file to S3: %w", err)
	}

	cdnBase := os.Getenv("ASSETS_CDN_BASE_URL")
	if cdnBase == "" {
		cdnBase = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucketName, region)
	}
	return fmt.Sprintf("%s/%s", strings.TrimRight(cdnBase, "/"), objectKey), nil
}

func (h *Handler) uploadEvidenceToLocal(recommendationID string, fileHeader *multipart.FileHeader, file multipart.File) (string, error) {
	file.Seek(0, 0)

	uploadsDir := "./uploads/evidence"
	if err := os.MkdirAll(uploadsDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create uploads directory: %w", err)
	}

	ext := filepath.Ext(fileHeader.Filename)
	filename := fmt.Sprintf("%s_%d%s", recommendationID, time.Now().UnixNano(), ext)
	filePath := filepath.Join(uploadsDir, filename)

	dst, err := os.Create(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		return "", fmt.Errorf("failed to save file: %w", err)
	}

	baseURL := os.Getenv("SERVICE_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	return fmt.Sprintf("%s/uploads/evidence/%s", baseURL, filename), nil
}
