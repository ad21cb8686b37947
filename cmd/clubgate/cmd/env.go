package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/openclub/clubgate/internal/attrstore"
	"github.com/openclub/clubgate/internal/conditions"
	"github.com/openclub/clubgate/internal/core/config"
	"github.com/openclub/clubgate/internal/core/db"
	"github.com/openclub/clubgate/internal/core/logging"
	"github.com/openclub/clubgate/internal/core/metrics"
	"github.com/openclub/clubgate/internal/eligibility"
	"github.com/openclub/clubgate/internal/resolve"
	"github.com/openclub/clubgate/internal/rules"
	"github.com/openclub/clubgate/internal/schema"
)

// env wires the service graph for one CLI invocation.
type env struct {
	cfg        *config.Config
	log        *slog.Logger
	database   *sqlx.DB
	queries    *db.Queries
	schema     *schema.Registry
	store      *attrstore.Store
	resolver   *resolve.Resolver
	evaluator  *rules.Evaluator
	conditions *conditions.Repo
	elig       *eligibility.Service
}

// loadEnv loads config (persistent flags override), opens the database and
// builds the full component graph. Callers must Close.
func loadEnv() (*env, error) {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if dbURL != "" {
		cfg.DatabaseURL = dbURL
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if logFormat != "" {
		cfg.LogFormat = logFormat
	}

	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	m := metrics.New()

	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	queries, err := db.LoadQueries(database)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to load queries: %w", err)
	}

	reg := schema.NewRegistry(queries)
	store := attrstore.New(queries, reg, attrstore.NewDirReleaser(cfg.FileStorageDir), log, m)

	resolver := resolve.New(store, reg, log, m)
	if err := resolver.Register(resolve.MemberDescriptor(time.Now)); err != nil {
		database.Close()
		return nil, err
	}
	if err := resolver.Register(resolve.EventDescriptor()); err != nil {
		database.Close()
		return nil, err
	}

	eval := rules.NewEvaluator(resolver, log, m)
	condRepo := conditions.NewRepo(queries)

	return &env{
		cfg:        cfg,
		log:        log,
		database:   database,
		queries:    queries,
		schema:     reg,
		store:      store,
		resolver:   resolver,
		evaluator:  eval,
		conditions: condRepo,
		elig:       eligibility.NewService(condRepo, eval),
	}, nil
}

func (e *env) Close() error {
	return e.database.Close()
}
