package main

import (
	"context"
	"log"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"regdiag/adapters/postgres"
	"regdiag/adapters/stats/ols"
	"regdiag/adapters/tabular"
	"regdiag/app"
	"regdiag/internal"
	"regdiag/internal/api"
	"regdiag/internal/config"
	"regdiag/internal/errors"
	"regdiag/ports"
)

// initDatabase connects to Postgres and ensures the schema. A missing
// DATABASE_URL disables persistence rather than failing startup.
func initDatabase(cfg *config.Config, logger *internal.Logger) (ports.RunRepositoryPort, error) {
	if cfg.Database.URL == "" {
		logger.Warn("DATABASE_URL not set; runs will not be persisted")
		return nil, nil
	}

	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(time.Hour)

	repo := postgres.NewRunRepository(db)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, errors.Wrap(err, "failed to ensure database schema")
	}

	logger.Info("connected to Postgres, schema ready")
	return repo, nil
}

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	logger := internal.NewDefaultLogger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	repo, err := initDatabase(cfg, logger)
	if err != nil {
		log.Fatalf("database: %v", err)
	}

	service := app.NewDiagnosticsService(ols.NewFitter(), repo, logger)

	opener := func(path string) (ports.DatasetSourcePort, error) {
		return tabular.NewReader(path).ReadTable()
	}

	server := api.NewServer(service, repo, opener, cfg.Data, logger)
	if err := server.ListenAndServe(cfg.Server.Port); err != nil {
		log.Fatalf("server: %v", err)
	}
}
