package utils

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

func TestTracerProviderLogsSpans(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetLevel(logrus.DebugLevel)

	shutdown := NewTracerProvider(logger)
	defer shutdown(context.Background())

	_, span := otel.Tracer("test").Start(context.Background(), "festival.Parse")
	span.SetAttributes(attribute.String("url", "https://iffr.com/x"))
	span.RecordError(errors.New("boom"))
	span.SetStatus(codes.Error, "boom")
	span.End()

	out := buf.String()
	if !strings.Contains(out, "Span failed") || !strings.Contains(out, "festival.Parse") {
		t.Errorf("Expected the failed span logged, got %q", out)
	}
	if !strings.Contains(out, "https://iffr.com/x") {
		t.Errorf("Expected span attributes logged, got %q", out)
	}
}
