package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/clinicdesk/clinicdesk/internal/config"
	"github.com/clinicdesk/clinicdesk/internal/domain/clinical"
	"github.com/clinicdesk/clinicdesk/internal/domain/expense"
	"github.com/clinicdesk/clinicdesk/internal/domain/financial"
	"github.com/clinicdesk/clinicdesk/internal/domain/identity"
	"github.com/clinicdesk/clinicdesk/internal/domain/patient"
	"github.com/clinicdesk/clinicdesk/internal/domain/report"
	"github.com/clinicdesk/clinicdesk/internal/domain/scheduling"
	"github.com/clinicdesk/clinicdesk/internal/platform/auth"
	"github.com/clinicdesk/clinicdesk/internal/platform/blobstore"
	"github.com/clinicdesk/clinicdesk/internal/platform/db"
	"github.com/clinicdesk/clinicdesk/internal/platform/metrics"
	"github.com/clinicdesk/clinicdesk/internal/platform/middleware"
	"github.com/clinicdesk/clinicdesk/internal/platform/notification"
	"github.com/clinicdesk/clinicdesk/internal/platform/postalcode"
	"github.com/clinicdesk/clinicdesk/internal/platform/reporting"
)

const (
	defaultBodyLimit = "1M"
	uploadBodyLimit  = "12M"
)

func runServer() error {
	logger := newLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	col := metrics.NewCollector("clinicdesk")
	col.RegisterPool("clinicdesk", pool)

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.AccessTokenTTL)
	denylist := auth.NewDenylist(time.Minute)
	defer denylist.Close()

	blobs, closeBlobs, err := openBlobStore(cfg, pool)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open blob store")
	}
	defer closeBlobs()
	logger.Info().Str("backend", cfg.BlobBackend).Msg("blob store ready")

	e, api, authGroup := newRouter(cfg, tokens, denylist, col, logger)
	e.GET("/health/db", db.HealthHandler(pool))

	inTx := db.Transactor(pool)

	// Accounts and profile
	mailer := notification.NewMailer(notification.NewLogSender(logger))
	identitySvc := identity.NewService(
		identity.NewAccountRepoPG(pool),
		identity.NewProfileRepoPG(pool),
		identity.NewResetRepoPG(pool),
		tokens,
		denylist,
		mailer,
		inTx,
		identity.Options{AllowSignup: cfg.AllowSignup, ResetTTL: cfg.PasswordResetTTL},
		col,
		logger,
	)
	identityHandler := identity.NewHandler(identitySvc)
	identityHandler.RegisterAuthRoutes(authGroup)
	identityHandler.RegisterRoutes(api)

	// Patients
	patientSvc := patient.NewService(patient.NewRepoPG(pool), col)
	patient.NewHandler(patientSvc).RegisterRoutes(api)

	// Agenda
	schedulingSvc := scheduling.NewService(
		scheduling.NewAppointmentRepoPG(pool),
		scheduling.NewCareTypeRepoPG(pool),
		patientSvc,
		inTx,
		col,
	)
	scheduling.NewHandler(schedulingSvc).RegisterRoutes(api)

	// Expenses
	expenseSvc := expense.NewService(expense.NewExpenseRepoPG(pool), expense.NewCategoryRepoPG(pool), col)
	expense.NewHandler(expenseSvc).RegisterRoutes(api)

	// Clinical records and evolutions
	clinicalSvc := clinical.NewService(clinical.NewRecordRepoPG(pool), clinical.NewEvolutionRepoPG(pool), patientSvc)
	clinical.NewHandler(clinicalSvc).RegisterRoutes(api)

	// Files and letterheads
	blobHandler := blobstore.NewHandler(blobs, cfg.PublicBaseURL, col)
	blobHandler.RegisterRoutes(api)
	blobHandler.RegisterPublicRoutes(e)

	// Report templates
	reportSvc := report.NewService(report.NewRepoPG(pool), report.Sources{
		Profiles:     identitySvc,
		Patients:     patientSvc,
		Clinical:     clinicalSvc,
		Appointments: schedulingSvc,
	}, col)
	report.NewHandler(reportSvc, blobHandler).RegisterRoutes(api)

	// Finance and dashboard
	financial.NewHandler(financial.NewService(schedulingSvc, expenseSvc, patientSvc)).RegisterRoutes(api)

	// Practice measures
	reporting.NewHandler(reporting.NewPGEvaluator(pool)).RegisterRoutes(api)

	// Postal code lookup
	lookup := postalcode.NewClient(cfg.PostalCodeAPIURL, cfg.PostalCodeTimeout, postalcode.BreakerSettings{
		ConsecutiveFailures: 5,
		OpenTimeout:         30 * time.Second,
	}, logger)
	postalcode.NewHandler(lookup, col).RegisterRoutes(api)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}

// newRouter builds the echo instance with the global middleware chain and the
// unauthenticated endpoints. Domain handlers mount on the returned groups.
func newRouter(cfg *config.Config, tokens *auth.TokenManager, denylist *auth.Denylist, col *metrics.Collector, logger zerolog.Logger) (*echo.Echo, *echo.Group, *echo.Group) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.Metrics(col))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.BodyLimit(defaultBodyLimit, uploadBodyLimit))
	e.Use(echomw.CORSWithConfig(corsConfig(cfg)))
	e.Use(middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
		IdleTTL:           middleware.DefaultRateLimitConfig().IdleTTL,
	}))
	if cfg.RequestTimeout > 0 {
		e.Use(middleware.RequestTimeout(cfg.RequestTimeout))
	}
	e.Use(auth.JWTMiddleware(tokens, denylist, auth.AuthSkipper))
	e.Use(middleware.Audit(logger))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(col.Handler()))

	return e, e.Group("/api/v1"), e.Group("/auth")
}

func corsConfig(cfg *config.Config) echomw.CORSConfig {
	return echomw.CORSConfig{
		AllowOrigins:  cfg.CORSOrigins,
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders:  []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposeHeaders: []string{"X-Request-ID"},
	}
}

// openBlobStore selects the file backend named by BLOB_BACKEND. The returned
// func releases whatever the backend holds open.
func openBlobStore(cfg *config.Config, q db.Querier) (blobstore.Store, func() error, error) {
	noop := func() error { return nil }
	switch cfg.BlobBackend {
	case "memory":
		return blobstore.NewMemoryStore(), noop, nil
	case "postgres":
		return blobstore.NewPostgresStore(q), noop, nil
	case "bolt":
		s, err := blobstore.OpenBoltStore(cfg.BlobBoltPath)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown blob backend %q", cfg.BlobBackend)
	}
}
