package main

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/EmbargoMedia/ObligeWorks-sub000/config"
	"github.com/EmbargoMedia/ObligeWorks-sub000/controllers"
	"github.com/EmbargoMedia/ObligeWorks-sub000/middleware"
	"github.com/EmbargoMedia/ObligeWorks-sub000/models"
	"github.com/EmbargoMedia/ObligeWorks-sub000/services"
)

func main() {
	// Basic logging
	log.Println("Starting ObligeWorks Ledger API server...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to database
	if err := config.ConnectDatabase(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto-migrate database models
	db := config.GetDB()
	if err := db.AutoMigrate(
		&models.User{},
		&models.Order{},
		&models.Material{},
		&models.TimelineStep{},
		&models.Attachment{},
		&models.PaymentRecord{},
		&models.InventoryItem{},
		&models.InventoryAuditLog{},
		&models.IssueTicket{},
		&models.IssuePhoto{},
		&models.TechnicalLog{},
		&models.IssueMessage{},
		&models.Voucher{},
	); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("Database migration completed successfully")

	// Initialize photo storage
	if cfg.AWSS3Bucket != "" {
		s3Service, err := services.InitS3Service()
		if err != nil {
			log.Fatalf("Failed to initialize S3 service: %v", err)
		}
		services.InitImageService(s3Service)
	} else {
		log.Println("AWS_S3_BUCKET not set, photo uploads disabled")
	}

	// Initialize Gin router
	router := gin.Default()

	// CORS for the portal front-end
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = strings.Split(cfg.CORSOrigins, ",")
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	router.Use(cors.New(corsConfig))

	// Request metrics
	router.Use(middleware.Metrics())
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Health check endpoint
		v1.GET("/health", healthCheck)

		// Database status endpoint
		v1.GET("/database/status", databaseStatus)

		// Everything below requires a valid JWT
		authed := v1.Group("")
		authed.Use(middleware.EnsureValidToken(cfg))
		{
			// Users
			authed.POST("/users", controllers.CreateUser)
			authed.GET("/users/me", controllers.GetMyProfile)
			authed.PUT("/users/me", controllers.UpdateMyProfile)

			// Orders
			authed.POST("/orders", controllers.CreateOrder)
			authed.GET("/orders", controllers.ListOrders)
			authed.GET("/orders/:id", controllers.GetOrder)
			authed.PATCH("/orders/:id/status", controllers.UpdateOrderStatus)
			authed.PATCH("/orders/:id/quote", controllers.ApproveQuote)
			authed.PATCH("/orders/:id/materials/:materialId", controllers.UpdateOrderMaterial)
			authed.POST("/orders/:id/payment", controllers.CompletePayment)
			authed.POST("/orders/:id/attachments", controllers.AddOrderAttachment)
			authed.DELETE("/orders/:id/attachments/:attachmentId", controllers.DeleteOrderAttachment)
			authed.POST("/orders/:id/issues", controllers.CreateIssue)

			// Inventory
			authed.POST("/inventory/lots", controllers.CreateLot)
			authed.GET("/inventory/lots", controllers.ListLots)
			authed.GET("/inventory/lots/:id", controllers.GetLot)
			authed.GET("/inventory/lots/:id/logs", controllers.ListLotAuditLogs)
			authed.PATCH("/inventory/lots/:id/adjust", controllers.AdjustLot)
			authed.POST("/inventory/lots/:id/outbound", controllers.OutboundLot)

			// A/S tickets
			authed.POST("/issues", controllers.CreateIssue)
			authed.GET("/issues", controllers.ListIssues)
			authed.GET("/issues/:id", controllers.GetIssue)
			authed.PATCH("/issues/:id", controllers.UpdateIssue)
			authed.POST("/issues/:id/photos", controllers.AddIssuePhoto)
			authed.POST("/issues/:id/logs", controllers.AddTechnicalLog)
			authed.GET("/issues/:id/messages", controllers.ListIssueMessages)
			authed.POST("/issues/:id/messages", controllers.SendIssueMessage)

			// Membership
			authed.GET("/membership/me", controllers.GetMembership)
			authed.POST("/membership/vouchers/:code/activate", controllers.ActivateVoucher)
		}
	}

	// Start server
	port := ":" + cfg.Port
	log.Printf("Server is running on http://localhost%s", port)
	if err := router.Run(port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "ObligeWorks Ledger API is running",
	})
}

// databaseStatus checks database connectivity and returns table information
func databaseStatus(c *gin.Context) {
	db := config.GetDB()

	// Get the underlying SQL database to check connection
	sqlDB, err := db.DB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to get database instance",
			},
		})
		return
	}

	// Ping the database to verify connection
	if err := sqlDB.Ping(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_CONNECTION_ERROR",
				"message": "Database connection failed",
			},
		})
		return
	}

	// Get list of tables
	var tables []string
	if err := db.Raw("SELECT tablename FROM pg_tables WHERE schemaname = 'public'").Scan(&tables).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_QUERY_ERROR",
				"message": "Failed to query tables",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Database connected",
		"tables":  tables,
	})
}
