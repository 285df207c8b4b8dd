package main

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/civicgov/birth-registry/certificate-service/internal/adapters/cache"
	"github.com/civicgov/birth-registry/certificate-service/internal/adapters/handler"
	"github.com/civicgov/birth-registry/certificate-service/internal/adapters/middleware"
	"github.com/civicgov/birth-registry/certificate-service/internal/adapters/repository"
	"github.com/civicgov/birth-registry/certificate-service/internal/config"
	"github.com/civicgov/birth-registry/certificate-service/internal/core/domain"
	"github.com/civicgov/birth-registry/certificate-service/internal/core/services"
)

func main() {
	logger := config.NewLogger()

	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file found, relying on process environment")
	}

	cfg := config.Load()
	ctx := context.Background()

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.WithError(err).Fatal("failed to open database")
	}
	defer db.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddress,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.WithError(err).Fatal("failed to connect to redis")
	}
	logger.Info("connected to redis")

	userRepo := repository.NewUserRepository(db)
	appRepo := repository.NewApplicationRepository(db)
	verificationCache := cache.NewRedisVerificationCache(redisClient, logger)

	authService := services.NewAuthService(userRepo, cfg.JWTSecret)
	applicationService := services.NewApplicationService(appRepo)
	certificateService := services.NewCertificateService(appRepo, verificationCache)
	reportService := services.NewReportService(appRepo)

	authMiddleware := middleware.NewAuthMiddleware(cfg.JWTSecret, logger)
	metrics := middleware.NewMetrics(prometheus.DefaultRegisterer)

	authHandler := handler.NewAuthHandler(authService, logger)
	applicationHandler := handler.NewApplicationHandler(applicationService, logger)
	certificateHandler := handler.NewCertificateHandler(certificateService, logger)
	reportHandler := handler.NewReportHandler(reportService, logger)
	healthHandler := handler.NewHealthHandler(db, redisClient)

	mux := http.NewServeMux()

	handle := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, metrics.Instrument(pattern, h))
	}

	anyRole := []domain.Role{}
	parentOrAdmin := []domain.Role{domain.RoleParent, domain.RoleAdmin}
	adminOnly := []domain.Role{domain.RoleAdmin}
	parentOnly := []domain.Role{domain.RoleParent}

	// Health and metrics endpoints
	mux.HandleFunc("GET /health", healthHandler.Health)
	mux.HandleFunc("GET /health/ready", healthHandler.Ready)
	mux.HandleFunc("GET /health/live", healthHandler.Live)
	mux.Handle("GET /metrics", promhttp.Handler())

	// Public endpoints
	handle("POST /api/auth/register", authHandler.Register)
	handle("POST /api/auth/login", authHandler.Login)
	handle("GET /api/certificate/verify/{certificateId}", certificateHandler.Verify)

	// Authenticated endpoints
	handle("POST /api/auth/logout", authMiddleware.RequireRole(anyRole, authHandler.Logout))

	handle("POST /api/applications", authMiddleware.RequireRole(parentOnly, applicationHandler.Submit))
	handle("GET /api/applications/my", authMiddleware.RequireRole(parentOnly, applicationHandler.ListMine))
	handle("GET /api/applications/all", authMiddleware.RequireRole(adminOnly, applicationHandler.ListAll))
	handle("GET /api/applications/{id}", authMiddleware.RequireRole(parentOrAdmin, applicationHandler.Get))
	handle("PUT /api/applications/verify/{id}", authMiddleware.RequireRole(adminOnly, applicationHandler.Verify))
	handle("PUT /api/applications/approve/{id}", authMiddleware.RequireRole(adminOnly, applicationHandler.Approve))
	handle("PUT /api/applications/reject/{id}", authMiddleware.RequireRole(adminOnly, applicationHandler.Reject))

	handle("GET /api/certificate/{applicationId}", authMiddleware.RequireRole(parentOrAdmin, certificateHandler.Download))

	handle("GET /api/admin/stats", authMiddleware.RequireRole(adminOnly, applicationHandler.Stats))
	handle("GET /api/admin/reports/csv", authMiddleware.RequireRole(adminOnly, reportHandler.CSV))
	handle("GET /api/admin/reports/pdf", authMiddleware.RequireRole(adminOnly, reportHandler.PDF))

	root := middleware.CORSMiddleware(cfg.AllowedOrigins)(mux)

	logger.WithField("port", cfg.Port).Info("starting server")
	if err := http.ListenAndServe(":"+cfg.Port, root); err != nil {
		logger.WithError(err).Fatal("could not start server")
	}
}
