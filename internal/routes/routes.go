package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"trade-reconciliation-backend/internal/config"
	handler "trade-reconciliation-backend/internal/handlers"
	"trade-reconciliation-backend/internal/repository"
	"trade-reconciliation-backend/internal/services/alerts"
	"trade-reconciliation-backend/internal/services/ingestion"
	"trade-reconciliation-backend/internal/services/matching"
	service "trade-reconciliation-backend/internal/services/reconciliation"
)

func RegisterRoutes(r *gin.Engine, db *gorm.DB) {
	clearingRepo := repository.NewClearingFillRepository(db)
	executionRepo := repository.NewExecutionFillRepository(db)

	zone := config.ReportingZone()
	policy := matching.NewKeyPolicy(zone)

	threshold := decimal.NewFromFloat(config.GetEnvAsFloat("ALERT_THRESHOLD", 100.0))
	alertMgr := alerts.NewAlertManager(threshold, alerts.NewEmailSenderFromEnv())

	reconService := service.NewReconciliationService(clearingRepo, executionRepo, policy, alertMgr)
	ingestService := ingestion.NewIngestionService(db, reconService, zone)

	reconHandler := handler.NewReconciliationHandler(reconService)
	ingestHandler := handler.NewIngestHandler(ingestService)

	api := r.Group("/api")

	// Health check
	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Ingestion routes
	ing := api.Group("/ingest")
	ing.POST("/bank", ingestHandler.UploadBank)
	ing.POST("/exchange", ingestHandler.UploadExchange)
	ing.GET("/:batchId", ingestHandler.GetBatch)

	// Reconciliation routes
	recon := api.Group("/reconciliation")
	recon.GET("/report", reconHandler.GetReport)
}
