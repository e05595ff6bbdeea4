// Command setup drops and recreates the database schema.
package main

import (
	"context"

	"github.com/yukikurage/project-tracker-api/internal/config"
	"github.com/yukikurage/project-tracker-api/internal/database"
	"github.com/yukikurage/project-tracker-api/pkg/logger"
)

func main() {
	cfg, err := config.Load(context.Background())
	if err != nil {
		bootLog := logger.New(logger.Options{})
		bootLog.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.New(logger.Options{Level: cfg.LogLevel, Pretty: true})

	db, err := database.Open(cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer database.Close(db)

	if err := database.Drop(db, log); err != nil {
		log.Fatal().Err(err).Msg("failed to drop schema")
	}
	if err := database.Migrate(db, log); err != nil {
		log.Fatal().Err(err).Msg("failed to create schema")
	}

	log.Info().Str("driver", cfg.Database.Driver).Msg("database ready")
}
