package telemetry_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"voice-email/internal/infra/telemetry"
)

func TestInitTracer_ExportsSpans(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	shutdown, err := telemetry.InitTracer("voice-email-test", &buf, logger)
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(context.Background(), "lookup")
	span.End()

	require.NoError(t, shutdown(context.Background()))
	require.Contains(t, buf.String(), `"Name":"lookup"`)
}
