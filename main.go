package main

import (
	"fmt"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"sovereign-health-server/internal/config"
	"sovereign-health-server/internal/logger"
	"sovereign-health-server/internal/metrics"
	"sovereign-health-server/internal/models"
	"sovereign-health-server/internal/repository/memory"
	"sovereign-health-server/internal/routes"
)

func main() {
	// A missing .env is fine; the process environment still applies.
	envErr := godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.New("info").Fatalf("Error loading config: %v", err)
	}

	log := logger.New(cfg.LogLevel)
	if envErr != nil {
		log.WithError(envErr).Warn("No .env file loaded")
	}

	m := metrics.New()

	var repos routes.Repositories
	switch cfg.StorageDriver {
	case config.StorageMemory:
		log.Warn("Using in-memory storage; data is lost on restart")
		repos = routes.NewMemoryRepositories(memory.NewStore())
	default:
		db, err := models.InitDB(models.DatabaseConfig{DSN: cfg.Database.DSN})
		if err != nil {
			log.Fatalf("Error connecting to database: %v", err)
		}
		repos = routes.NewGormRepositories(db)
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	// Configure CORS
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Origin}
	corsConfig.AllowCredentials = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-Id", "X-User-Role"}
	router.Use(cors.New(corsConfig))

	h := routes.NewHandlers(repos, cfg, log, m)
	routes.SetupRoutes(router, h, cfg, log, m)

	serverAddr := fmt.Sprintf(":%s", cfg.Port)
	log.WithField("port", cfg.Port).WithField("identity_mode", cfg.Identity.Mode).Info("Server starting")
	if err := router.Run(serverAddr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
