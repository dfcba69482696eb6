package observability

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestObservability_Spans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	obs, err := New("wizard-test", WithRegisterer(promclient.NewRegistry()), WithSpanProcessor(recorder))
	require.NoError(t, err)
	defer obs.Shutdown(context.Background())

	_, span := obs.StartSpan(context.Background(), "wizard.next", attribute.String("step", "companyDetails"))
	EndSpan(span, nil)

	_, span = obs.StartSpan(context.Background(), "wizard.sign")
	EndSpan(span, errors.New("backend down"))

	ended := recorder.Ended()
	require.Len(t, ended, 2)
	assert.Equal(t, "wizard.next", ended[0].Name())
	assert.Contains(t, ended[0].Attributes(), attribute.String("step", "companyDetails"))
	assert.Equal(t, codes.Error, ended[1].Status().Code)
	assert.Equal(t, "backend down", ended[1].Status().Description)
}

func TestObservability_Metrics(t *testing.T) {
	registry := promclient.NewRegistry()
	obs, err := New("wizard-test", WithRegisterer(registry))
	require.NoError(t, err)
	defer obs.Shutdown(context.Background())

	ctx := context.Background()
	obs.RecordJobProcessed(ctx, "prepare-form-data", "success")
	obs.RecordJobDuration(ctx, "prepare-form-data", 25*time.Millisecond, "success")

	families, err := registry.Gather()
	require.NoError(t, err)

	found := false
	for _, f := range families {
		if strings.HasPrefix(f.GetName(), "jobs") && strings.Contains(f.GetName(), "processed") {
			found = true
		}
	}
	assert.True(t, found, "job counter is exported")
}

func TestObservability_NilIsSafe(t *testing.T) {
	var obs *Observability
	obs.RecordJobProcessed(context.Background(), "x", "success")
	assert.NotNil(t, obs.Tracer())
	assert.NoError(t, obs.Shutdown(context.Background()))
}
