package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/provenor/evaluation-service/internal/api"
	"github.com/provenor/evaluation-service/internal/db"
	"github.com/provenor/evaluation-service/internal/logging"
)

func main() {
	// Load environment variables from .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	log.SetOutput(os.Stdout)
	log.Printf("Evaluation Service starting (GIT_SHA=%s BUILD_TIME=%s)", os.Getenv("GIT_SHA"), os.Getenv("BUILD_TIME"))

	// Initialize database connection (non-fatal; allow process to start for /live)
	database, err := db.NewDatabase()
	if err != nil {
		log.Printf("[WARN] Database initialization failed at startup: %v", err)
	}
	if database != nil {
		defer database.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := database.Migrate(ctx); err != nil {
			log.Printf("[WARN] Schema migration failed: %v", err)
		}
		cancel()
	}

	handler := api.NewHandler(database, priorityMappingFromEnv())
	router := setupRouter(handler)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	go func() {
		log.Printf("Starting server on port %s", port)
		if err := router.Run(":" + port); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
}

// priorityMappingFromEnv parses PRIORITY_CATEGORIES, e.g.
// "safety=1,security=2,quality=3", into the category -> ordinal table the
// deriver uses. Unlisted categories derive at the midpoint priority.
func priorityMappingFromEnv() map[string]int {
	raw := os.Getenv("PRIORITY_CATEGORIES")
	if raw == "" {
		return nil
	}
	mapping := map[string]int{}
	for _, pair := range strings.Split(raw, ",") {
		parts := strings.SplitN(strings.TrimSpace(pair), "=", 2)
		if len(parts) != 2 {
			continue
		}
		p, err := strconv.Atoi(parts[1])
		if err != nil {
			log.Printf("[WARN] Ignoring invalid priority mapping %q", pair)
			continue
		}
		mapping[strings.ToLower(parts[0])] = p
	}
	return mapping
}

func setupRouter(handler *api.Handler) *gin.Engine {
	// Set Gin mode based on environment
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(logging.JSONLogger())
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Content-Length", "Accept-Encoding", "Authorization"}
	router.Use(cors.New(corsConfig))

	// Serve uploaded evidence for local development
	router.Static("/uploads", "./uploads")

	// Health and readiness endpoints
	router.GET("/live", func(c *gin.Context) { c.Status(200) })
	router.GET("/ready", handler.Health)
	router.GET("/health", handler.Health)

	v1 := router.Group("/api/v1")
	v1.Use(api.AuthMiddleware())
	{
		v1.GET("/evaluations", handler.ListEvaluations)
		v1.GET("/evaluations/:id", handler.GetEvaluation)
		v1.GET("/evaluations/:id/compliance", handler.GetCompliance)
		v1.POST("/evaluations/:id/responses", handler.SubmitResponses)

		v1.GET("/recommendations", handler.ListRecommendations)
		v1.PUT("/recommendations/:id", handler.SetRecommendationStatus)
		v1.POST("/recommendations/:id/evidence", handler.UploadRecommendationEvidence)

		// Evaluation authoring and fleet views
		admin := v1.Group("")
		admin.Use(api.AdminMiddleware())
		{
			admin.POST("/evaluations", handler.CreateEvaluation)
			admin.POST("/evaluations/:id/questions", handler.AddEvaluationQuestion)
			admin.POST("/evaluations/:id/assignments", handler.AssignVendor)
			admin.POST("/assignments/:id/recommendations", handler.DeriveRecommendations)
			admin.GET("/metrics", handler.GetFleetMetrics)
		}
	}

	// Root endpoint for basic info
	router.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"service": "evaluation-service",
			"version": "1.0.0",
			"status":  "running",
		})
	})

	return router
}
