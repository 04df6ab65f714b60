package tracing

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
)

func TestSpanLifecycle(t *testing.T) {
	var buf bytes.Buffer
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(&buf))
	if err != nil {
		t.Fatalf("exporter: %v", err)
	}
	if err := InitWithExporter("cellexec-test", "0.0.1", exporter); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	ctx, span := StartSpan(context.Background(), "session.execute")
	span.WithAttributes(map[string]string{"session.id": "abc"})
	EndSpan(span, nil)

	_, child := StartSpan(ctx, "evaluator.evaluate")
	EndSpan(child, errors.New("boom"))

	out := buf.String()
	if !strings.Contains(out, "session.execute") {
		t.Errorf("exported spans missing span name: %s", out)
	}
	if !strings.Contains(out, "boom") {
		t.Errorf("exported spans missing recorded error: %s", out)
	}
}

func TestNilSpanIsSafe(t *testing.T) {
	var sp *Span
	sp.WithAttributes(map[string]string{"k": "v"})
	sp.SetStatus(errors.New("ignored"))
	EndSpan(sp, nil)
}
