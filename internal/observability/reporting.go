package observability

import (
	"context"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
)

var reportingEnabled bool

// ReportingConfig configures error reporting.
type ReportingConfig struct {
	DSN         string
	Environment string
	Release     string
}

// InitReporting initializes Sentry when a DSN is configured. Without a DSN,
// CaptureError is a no-op. The returned function flushes buffered events.
func InitReporting(cfg ReportingConfig) (func(), error) {
	if cfg.DSN == "" {
		reportingEnabled = false
		return func() {}, nil
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.DSN,
		Environment: cfg.Environment,
		Release:     cfg.Release,
	}); err != nil {
		return nil, fmt.Errorf("failed to init sentry: %w", err)
	}
	reportingEnabled = true
	return func() { sentry.Flush(2 * time.Second) }, nil
}

// CaptureError reports err with the given tags. The trace id of the current
// span is attached when present.
func CaptureError(ctx context.Context, err error, tags map[string]string) {
	if !reportingEnabled || err == nil {
		return
	}
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub().Clone()
	}
	hub.WithScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		if tid := traceIDFromContext(ctx); tid != "" {
			scope.SetTag("trace_id", tid)
		}
		hub.CaptureException(err)
	})
}
