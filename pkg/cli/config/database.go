package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/clinboard/clinboard/pkg/domain/interfaces"
	"github.com/clinboard/clinboard/pkg/repository"
)

// Database holds the relational store configuration
type Database struct {
	DSN string
}

// Flags returns CLI flags for Database configuration
func (d *Database) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "database-dsn",
			Usage:       "Postgres DSN of the study records database",
			Category:    "Database",
			Sources:     cli.EnvVars("CLINBOARD_DATABASE_DSN"),
			Destination: &d.DSN,
		},
	}
}

// Configure creates and returns the repository
func (d *Database) Configure(ctx context.Context) (interfaces.Repository, error) {
	logger := ctxlog.From(ctx)

	if !d.IsConfigured() {
		logger.Warn("Using memory database instead of postgres. The data will be removed when shutting down")
		return repository.NewMemory(), nil
	}

	repo, err := repository.NewPostgres(ctx, d.DSN)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to init postgres repository")
	}

	return repo, nil
}

// IsConfigured checks if the database is properly configured
func (d *Database) IsConfigured() bool {
	return d.DSN != ""
}

// LogValue returns structured log value
func (d Database) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Bool("configured", d.IsConfigured()),
	)
}
