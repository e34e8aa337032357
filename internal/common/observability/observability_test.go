package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestObservability_RecordsAndSpans(t *testing.T) {
	reg := promclient.NewRegistry()
	spans := tracetest.NewInMemoryExporter()
	obs := New("intake-test", WithRegisterer(reg), WithSpanExporter(spans), WithoutGlobal())
	defer obs.Shutdown()

	ctx := context.Background()
	obs.RecordSubmission(ctx, "simulated", "success", 800*time.Millisecond)
	obs.RecordSuggestion(ctx, "reasonForApplying", "fallback")
	obs.RecordJobProcessed(ctx, "index-application", "completed")

	families, err := reg.Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["intake_otel_submissions_total"])
	assert.True(t, names["intake_otel_submission_duration_seconds"])
	assert.True(t, names["intake_otel_suggestions_total"])
	assert.True(t, names["intake_otel_jobs_processed_total"])
	for name := range names {
		assert.NotContains(t, name, ".")
	}

	_, span := obs.StartSpan(ctx, "submission.submit", attribute.String("driver", "simulated"))
	EndSpan(span, errors.New("backend down"))

	ended := spans.GetSpans()
	require.Len(t, ended, 1)
	assert.Equal(t, "submission.submit", ended[0].Name)
	assert.Equal(t, codes.Error, ended[0].Status.Code)
}

func TestObservability_NilIsSafe(t *testing.T) {
	var obs *Observability
	ctx := context.Background()

	obs.RecordSubmission(ctx, "postgres", "failed", time.Second)
	obs.RecordSuggestion(ctx, "financialSituation", "fetched")
	obs.RecordJobProcessed(ctx, "send-notification", "failed")

	_, span := obs.StartSpan(ctx, "noop")
	EndSpan(span, nil)
	obs.Shutdown()
}
