package telemetry

import (
	"context"
	"testing"

	"github.com/nguyentantai21042004/voxdrop/internal/config"
	"github.com/nguyentantai21042004/voxdrop/internal/logger"
	"go.opentelemetry.io/otel"
)

func TestSetupDisabled(t *testing.T) {
	before := otel.GetTracerProvider()

	shutdown, err := Setup(context.Background(), config.TracingConfig{}, "test", logger.New("error"))
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown() error = %v", err)
	}
	if otel.GetTracerProvider() != before {
		t.Error("disabled tracing replaced the global provider")
	}
}

func TestSetupStdout(t *testing.T) {
	before := otel.GetTracerProvider()
	defer otel.SetTracerProvider(before)

	shutdown, err := Setup(context.Background(), config.TracingConfig{Enabled: true, Exporter: "stdout"}, "test", logger.New("error"))
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	_, span := otel.Tracer("test").Start(context.Background(), "probe")
	span.End()

	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown() error = %v", err)
	}
}

func TestSetupUnknownExporter(t *testing.T) {
	_, err := Setup(context.Background(), config.TracingConfig{Enabled: true, Exporter: "zipkin"}, "test", logger.New("error"))
	if err == nil {
		t.Fatal("Setup() should reject unknown exporters")
	}
}
