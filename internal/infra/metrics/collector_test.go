package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"voice-email/internal/application"
	"voice-email/internal/domain"
	"voice-email/internal/infra/metrics"
)

func TestCollector_ObserveStage(t *testing.T) {
	c := metrics.NewCollector()

	c.ObserveStage(domain.StageGenerate, application.ResultSuccess, 20*time.Millisecond)
	c.ObserveStage(domain.StageGenerate, application.ResultSuccess, 30*time.Millisecond)
	c.ObserveStage(domain.StageSend, application.ResultSkipped, 0)

	require.Equal(t, 2.0, testutil.ToFloat64(c.StageTotal.WithLabelValues("generate", "success")))
	require.Equal(t, 1.0, testutil.ToFloat64(c.StageTotal.WithLabelValues("send", "skipped")))
	require.Equal(t, 1, testutil.CollectAndCount(c.StageDuration))
}

func TestCollector_Handler(t *testing.T) {
	c := metrics.NewCollector()
	c.ObserveRun(domain.PhaseDraft, domain.StatusSuccess)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `voicemail_runs_total{phase="draft",status="success"} 1`)
}
