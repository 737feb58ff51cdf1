package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"sovereign-health-server/internal/config"
	"sovereign-health-server/internal/handlers"
	"sovereign-health-server/internal/logger"
	"sovereign-health-server/internal/metrics"
	"sovereign-health-server/internal/middleware"
	"sovereign-health-server/internal/models"
	"sovereign-health-server/internal/repository"
	"sovereign-health-server/internal/repository/memory"
	"sovereign-health-server/internal/services"
)

// Repositories bundles the storage the services are built on.
type Repositories struct {
	Consents services.ConsentRepository
	Records  services.RecordRepository
	Profiles services.ProfileRepository
	Audit    services.AuditRepository
	Users    services.UserRepository
}

// NewGormRepositories backs every contract with the relational store.
func NewGormRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Consents: repository.NewConsentRepository(db),
		Records:  repository.NewRecordRepository(db),
		Profiles: repository.NewProfileRepository(db),
		Audit:    repository.NewAuditRepository(db),
		Users:    repository.NewUserRepository(db),
	}
}

// NewMemoryRepositories backs every contract with a process-local store.
func NewMemoryRepositories(store *memory.Store) Repositories {
	return Repositories{
		Consents: store.Consents,
		Records:  store.Records,
		Profiles: store.Profiles,
		Audit:    store.Audit,
		Users:    store.Users,
	}
}

// Handlers groups the HTTP handlers.
type Handlers struct {
	Auth      *handlers.AuthHandler
	Patient   *handlers.PatientHandler
	Consent   *handlers.ConsentHandler
	Doctor    *handlers.DoctorHandler
	Emergency *handlers.EmergencyHandler
}

// NewHandlers builds services and handlers on top of repos.
func NewHandlers(repos Repositories, cfg *config.Config, log *logger.Logger, m *metrics.Metrics) Handlers {
	viewerRoles := make([]models.Role, 0, len(cfg.Audit.GlobalViewerRoles))
	for _, r := range cfg.Audit.GlobalViewerRoles {
		viewerRoles = append(viewerRoles, models.ParseRole(r))
	}

	authorizer := services.NewAccessAuthorizer(repos.Consents, log, m)
	consentService := services.NewConsentService(repos.Consents, repos.Users, log, m, cfg.Consent.RevokeMissingIsNoop)
	recordService := services.NewRecordService(repos.Records, authorizer, log)
	profileService := services.NewProfileService(repos.Profiles)
	emergencyService := services.NewEmergencyService(repos.Audit, repos.Profiles, services.FallbackPolicy{
		Enabled:  cfg.Emergency.FallbackEnabled,
		Prefixes: cfg.Emergency.FallbackPrefixes,
		Markers:  cfg.Emergency.FallbackMarkers,
	}, viewerRoles, log, m)
	authService := services.NewAuthService(repos.Users, log)

	return Handlers{
		Auth:      handlers.NewAuthHandler(authService),
		Patient:   handlers.NewPatientHandler(recordService, profileService),
		Consent:   handlers.NewConsentHandler(consentService),
		Doctor:    handlers.NewDoctorHandler(consentService, profileService),
		Emergency: handlers.NewEmergencyHandler(emergencyService),
	}
}

// SetupRoutes configures the application routes.
func SetupRoutes(router *gin.Engine, h Handlers, cfg *config.Config, log *logger.Logger, m *metrics.Metrics) {
	router.Use(middleware.RequestLogger(log, m))
	router.Use(middleware.IdentityMiddleware(cfg.Identity))

	// Public routes (identity optional)
	public := router.Group("/api/v1")
	{
		public.POST("/auth/register", h.Auth.Register)
		public.GET("/patients/:patientId/profile", h.Patient.GetProfile)

		// Uploads carry no caller policy.
		public.POST("/patients/:patientId/records", h.Patient.UploadRecord)

		// Break-glass: anonymous responders are served, identified callers are logged.
		public.POST("/emergency/access", h.Emergency.GetEmergencyData)
	}

	// Authenticated routes
	private := router.Group("/api/v1")
	private.Use(middleware.RequireIdentity())
	{
		private.GET("/auth/me", h.Auth.Me)

		private.POST("/patients/profile", h.Patient.SaveProfile)
		private.GET("/patients/:patientId/records", h.Patient.GetRecords) // Authorization in service

		consentRoutes := private.Group("/consents")
		{
			consentRoutes.POST("", h.Consent.GiveConsent)
			consentRoutes.GET("", h.Consent.GetConsents)
			consentRoutes.DELETE("/:doctorId", h.Consent.RevokeConsent)
		}

		doctorRoutes := private.Group("/doctors")
		{
			doctorRoutes.GET("/consented-patients", h.Doctor.GetConsentedPatients)
			doctorRoutes.GET("/patients/search", h.Doctor.SearchPatients)
		}

		private.GET("/emergency/logs", h.Emergency.GetEmergencyLogs) // Scoped by role in service
	}

	if cfg.MetricsEnabled && m != nil {
		router.GET("/metrics", gin.WrapH(m.Handler()))
	}

	// Simple health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP"})
	})
}
