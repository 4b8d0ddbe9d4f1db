package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestTrackQuery_RecordsObservation(t *testing.T) {
	before := testutil.CollectAndCount(DatabaseQueryLatency)
	done := TrackQuery("select", "observability_test")
	done()
	assert.GreaterOrEqual(t, testutil.CollectAndCount(DatabaseQueryLatency), before+1)
}

func TestToggleTotal_Increments(t *testing.T) {
	c := ToggleTotal.WithLabelValues("like", OutcomeCreated)
	before := testutil.ToFloat64(c)
	c.Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(c))
}

func TestInitTracing_Disabled(t *testing.T) {
	shutdown, err := InitTracing(TracingConfig{ServiceName: "freebies-test", Enabled: false})
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))

	span, ctx := NewSpan(context.Background(), "test.span", attribute.String("k", "v"))
	span.AddAttributes(attribute.Int("n", 1))
	span.SetError(errors.New("boom"))
	span.End()
	assert.NotNil(t, ctx)
}

func TestCaptureError_NoDSNIsNoop(t *testing.T) {
	flush, err := InitReporting(ReportingConfig{})
	require.NoError(t, err)
	defer flush()

	assert.NotPanics(t, func() {
		CaptureError(context.Background(), errors.New("boom"), map[string]string{"op": "test"})
	})
}
