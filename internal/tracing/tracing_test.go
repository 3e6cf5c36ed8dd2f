package tracing

import (
	"context"
	"testing"
)

func TestInit_NoEndpointInstallsNoop(t *testing.T) {
	shutdown, err := Init(context.Background(), "token-audit-test", "", true)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer shutdown(context.Background())

	_, span := Tracer("test").Start(context.Background(), "noop")
	defer span.End()

	if span.SpanContext().IsValid() {
		t.Error("noop tracer should produce invalid span contexts")
	}
}
