package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"apa-backoffice/internal/adapters/auth/identity"
	"apa-backoffice/internal/adapters/auth/jwtverify"
	miniostore "apa-backoffice/internal/adapters/media/minio"
	pg "apa-backoffice/internal/adapters/storage/postgres"
	"apa-backoffice/internal/platform/config"
	"apa-backoffice/internal/platform/logger"
	"apa-backoffice/internal/platform/metrics"
	"apa-backoffice/internal/ports/auth"
	"apa-backoffice/internal/router"
)

// @title APA Backoffice API
// @version 1.0
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg := config.Load()
	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.LogLevel),
		Format: logger.ParseFormat(cfg.LogFormat),
		App:    cfg.AppName,
	})

	if err := cfg.Validate(); err != nil {
		log.Error("invalid config", map[string]any{"err": err.Error()})
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := router.Options{
		Logger:          log,
		Metrics:         metrics.New(),
		BootstrapAdmins: cfg.BootstrapAdmins,
	}

	// Sin DB_DSN se usa el store en memoria (dev).
	if cfg.DBDSN != "" {
		db, err := pg.Open(cfg.DBDSN)
		if err != nil {
			log.Error("db open failed", map[string]any{"err": err.Error()})
			os.Exit(1)
		}
		defer db.Close()
		if err := pg.Migrate(ctx, db); err != nil {
			log.Error("db migrate failed", map[string]any{"err": err.Error()})
			os.Exit(1)
		}
		opts.Store = pg.NewStore(db)
	} else {
		log.Warn("DB_DSN empty, using in-memory store", nil)
	}

	verifier, err := newVerifier(cfg)
	if err != nil {
		log.Error("auth setup failed", map[string]any{"err": err.Error(), "mode": string(cfg.AuthMode)})
		os.Exit(1)
	}
	opts.AuthVerifier = verifier
	if verifier == nil {
		log.Warn("auth in dev mode (X-Debug-User-ID)", nil)
	}

	if cfg.MinioConfigured() {
		st, err := miniostore.Open(ctx, miniostore.Config{
			Endpoint:      cfg.MinioEndpoint,
			AccessKey:     cfg.MinioAccessKey,
			SecretKey:     cfg.MinioSecretKey,
			Bucket:        cfg.MinioBucket,
			UseSSL:        cfg.MinioUseSSL,
			PublicBaseURL: cfg.MinioPublicBase,
		}, log)
		if err != nil {
			// las subidas responden 503; el resto de la API sigue
			log.Error("minio unavailable", map[string]any{"err": err.Error()})
		} else {
			opts.Media = st
		}
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.NewRouter(ctx, opts),
		ReadHeaderTimeout: 5 * time.Second,
		// sin WriteTimeout: los websockets viven más que cualquier límite fijo
	}

	go func() {
		<-ctx.Done()
		shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
	}()

	log.Info("starting server", map[string]any{"addr": srv.Addr})
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server error", map[string]any{"err": err.Error()})
		os.Exit(1)
	}
	log.Info("server stopped", nil)
}

func newVerifier(cfg config.Config) (auth.AuthVerifier, error) {
	switch cfg.AuthMode {
	case config.AuthModeJWT:
		return jwtverify.New(cfg.JWTSecret, cfg.JWTIssuer)
	case config.AuthModeRemote:
		return identity.NewVerifier(identity.Config{
			BaseURL: cfg.IdentityBaseURL,
			APIKey:  cfg.IdentityAPIKey,
			Timeout: cfg.IdentityTimeout,
		})
	case config.AuthModeDev:
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: unknown auth mode %q", config.ErrInvalid, cfg.AuthMode)
	}
}
