// Package bootstrap wires process-level dependencies shared by the commands.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"freebies/internal/cache"
	"freebies/internal/config"
	"freebies/internal/database"
	"freebies/internal/geo"
	"freebies/internal/middleware"
	"freebies/internal/models"
	"freebies/internal/observability"
	"freebies/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// ServiceName identifies the API in traces and error reports.
const ServiceName = "freebies-api"

// Options control runtime initialization behavior.
type Options struct {
	// SeedDemoData fills an empty development database with a demo community.
	SeedDemoData bool
}

// InitRuntime connects to DB and Redis and optionally seeds demo data.
// The Redis client is nil when Redis is unreachable.
func InitRuntime(cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	r := cache.InitRedis(cfg.RedisURL)

	if opts.SeedDemoData {
		if err := ensureDemoData(cfg, db); err != nil {
			return nil, nil, fmt.Errorf("failed to seed demo data: %w", err)
		}
	}

	return db, r, nil
}

// demo community size used when SEED_DEMO_DATA is on
const (
	demoUsers = 25
	demoPosts = 80
)

func ensureDemoData(cfg *config.Config, db *gorm.DB) error {
	if cfg == nil || db == nil || cfg.IsProduction() {
		return nil
	}

	var users int64
	if err := db.Model(&models.User{}).Count(&users).Error; err != nil {
		return err
	}
	if users > 0 {
		return nil
	}

	s := seed.NewSeeder(db, seed.Options{
		Center: geo.Point{Lat: cfg.SeedCenterLat, Lon: cfg.SeedCenterLon},
	})
	summary, err := s.Seed(demoUsers, demoPosts)
	if err != nil {
		return err
	}

	middleware.Logger.Info("demo data seeded",
		slog.Int("users", summary.Users),
		slog.Int("posts", summary.Posts),
	)
	return nil
}

// InitObservability starts tracing and error reporting. The returned function
// flushes and stops both.
func InitObservability(cfg *config.Config, version string) (func(context.Context) error, error) {
	shutdownTracing, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:    ServiceName,
		ServiceVersion: version,
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplerRatio:   cfg.TracingSampleRatio,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	flushReporting, err := observability.InitReporting(observability.ReportingConfig{
		DSN:         cfg.SentryDSN,
		Environment: cfg.Env,
		Release:     ServiceName + "@" + version,
	})
	if err != nil {
		return nil, errors.Join(fmt.Errorf("init reporting: %w", err), shutdownTracing(context.Background()))
	}

	return func(ctx context.Context) error {
		flushReporting()
		return shutdownTracing(ctx)
	}, nil
}
