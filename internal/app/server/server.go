package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"

	"staffhub/internal/domain/attendance"
	"staffhub/internal/domain/audit"
	"staffhub/internal/domain/auth"
	"staffhub/internal/domain/core"
	"staffhub/internal/domain/leave"
	"staffhub/internal/domain/notifications"
	"staffhub/internal/domain/payroll"
	"staffhub/internal/domain/reports"
	"staffhub/internal/platform/config"
	cryptoutil "staffhub/internal/platform/crypto"
	"staffhub/internal/platform/db"
	"staffhub/internal/platform/email"
	"staffhub/internal/platform/metrics"
	attendancehandler "staffhub/internal/transport/http/handlers/attendance"
	audithandler "staffhub/internal/transport/http/handlers/audit"
	authhandler "staffhub/internal/transport/http/handlers/auth"
	corehandler "staffhub/internal/transport/http/handlers/core"
	leavehandler "staffhub/internal/transport/http/handlers/leave"
	notificationshandler "staffhub/internal/transport/http/handlers/notifications"
	payrollhandler "staffhub/internal/transport/http/handlers/payroll"
	reportshandler "staffhub/internal/transport/http/handlers/reports"
	"staffhub/internal/transport/http/middleware"
)

func Run() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		logger.Error("db connect failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, "migrations"); err != nil {
			logger.Error("migrations failed", "error", err)
			os.Exit(1)
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			logger.Error("seed failed", "error", err)
			os.Exit(1)
		}
	}

	router, err := buildRouter(cfg, pool, logger)
	if err != nil {
		logger.Error("server setup failed", "error", err)
		os.Exit(1)
	}

	logger.Info("server listening", "addr", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, router); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func buildRouter(cfg config.Config, pool *pgxpool.Pool, logger *slog.Logger) (http.Handler, error) {
	cryptoSvc, err := cryptoutil.New(cfg.DataEncryptionKey)
	if err != nil {
		return nil, err
	}

	authStore := auth.NewStore(pool)
	coreStore := core.NewStore(pool)
	attendanceStore := attendance.NewStore(pool)
	leaveService := leave.NewService(pool, coreStore)
	payrollStore := payroll.NewStore(pool)
	payrollService := payroll.NewService(payrollStore, coreStore, attendanceStore, logger)
	payslips := payroll.NewPayslipGenerator(payrollService, cryptoSvc, cfg.PayslipDir)
	auditService := audit.New(pool)
	notifyService := notifications.New(notifications.NewStore(pool), email.New(cfg), cfg.EmailFrom, cfg.EmailEnabled, logger)
	reportsService := reports.NewService(reports.NewStore(pool))

	var collector *metrics.Collector
	if cfg.MetricsEnabled {
		collector = metrics.New()
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(cfg.JWTSecret))
	router.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))
	if collector != nil {
		router.Use(middleware.Metrics(collector))
	}

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	if collector != nil {
		router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(collector.Snapshot())
		})
	}

	router.Route("/api/v1", func(r chi.Router) {
		authHandler := authhandler.NewHandler(authStore, cfg.JWTSecret)
		r.Post("/auth/login", authHandler.HandleLogin)
		r.Post("/auth/logout", authHandler.HandleLogout)
		r.Get("/auth/me", authHandler.HandleMe)

		corehandler.NewHandler(coreStore, authStore, auditService).RegisterRoutes(r)
		attendancehandler.NewHandler(attendanceStore, authStore).RegisterRoutes(r)
		leavehandler.NewHandler(leaveService, authStore, authStore, notifyService, auditService).RegisterRoutes(r)
		payrollhandler.NewHandler(payrollService, payslips, authStore, authStore, notifyService, auditService).RegisterRoutes(r)
		reportshandler.NewHandler(reportsService, authStore).RegisterRoutes(r)
		notificationshandler.NewHandler(notifyService, authStore).RegisterRoutes(r)
		audithandler.NewHandler(auditService, authStore).RegisterRoutes(r)
	})

	return router, nil
}
