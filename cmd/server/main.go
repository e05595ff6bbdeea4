package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yukikurage/project-tracker-api/internal/assets"
	"github.com/yukikurage/project-tracker-api/internal/auth"
	"github.com/yukikurage/project-tracker-api/internal/config"
	"github.com/yukikurage/project-tracker-api/internal/database"
	"github.com/yukikurage/project-tracker-api/internal/middleware"
	"github.com/yukikurage/project-tracker-api/internal/router"
	"github.com/yukikurage/project-tracker-api/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := config.Load(ctx)
	if err != nil {
		bootLog := logger.New(logger.Options{})
		bootLog.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	log := logger.New(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: !cfg.IsRelease(),
	})

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	// Connect to database
	db, err := database.Open(cfg.Database, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(db); err != nil {
			log.Error().Err(err).Msg("failed to close database")
		}
	}()

	// Run migrations
	if err := database.Migrate(db, log); err != nil {
		return err
	}

	// Avatar storage
	var store assets.Store = assets.NopStore{}
	if cfg.Assets.GCSBucket != "" {
		client, err := assets.NewGCSClient(ctx, cfg.Assets.GCSCredentialsFile)
		if err != nil {
			return err
		}
		defer client.Close()
		store = assets.NewGCSStore(client, cfg.Assets.GCSBucket, assets.NewFetcher(cfg.Assets.FetchTimeout), log)
		log.Info().Str("bucket", cfg.Assets.GCSBucket).Msg("avatar storage on GCS")
	} else {
		log.Warn().Msg("GCS_BUCKET not set, avatars are stored as given")
	}

	limiter := middleware.NewRateLimiter(cfg.LoginRateLimit.RPS, cfg.LoginRateLimit.Burst)
	go limiter.Cleanup(ctx)

	r := router.New(router.Deps{
		DB:           db,
		Tokens:       auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.TTL),
		Store:        store,
		Log:          log,
		CORSOrigins:  cfg.CORSOrigins(),
		LoginLimiter: limiter,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
