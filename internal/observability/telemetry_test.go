package observability

import (
	"context"
	"testing"

	"github.com/riskibarqy/predictions-chips/internal/config"
	"github.com/riskibarqy/predictions-chips/internal/platform/logging"
)

func TestStart_AllDisabled(t *testing.T) {
	tel, err := Start(config.Config{ServiceName: "predictions-chips-api", AppEnv: config.EnvDev}, logging.NewNop())
	if err != nil {
		t.Fatalf("start telemetry: %v", err)
	}
	if tel.TracingEnabled() {
		t.Fatalf("tracing must be off when UPTRACE_ENABLED=false")
	}
	if err := tel.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestStart_EmptyDSNDisablesTracing(t *testing.T) {
	tel, err := Start(config.Config{UptraceEnabled: true, UptraceDSN: "  "}, nil)
	if err != nil {
		t.Fatalf("start telemetry: %v", err)
	}
	if tel.TracingEnabled() {
		t.Fatalf("blank DSN must leave tracing off")
	}
	if err := tel.Shutdown(context.Background()); err != nil {
		t.Fatalf("first shutdown: %v", err)
	}
	if err := tel.Shutdown(context.Background()); err != nil {
		t.Fatalf("second shutdown: %v", err)
	}
}

func TestTelemetry_NilShutdown(t *testing.T) {
	var tel *Telemetry
	if tel.TracingEnabled() {
		t.Fatalf("nil telemetry reports tracing")
	}
	if err := tel.Shutdown(context.Background()); err != nil {
		t.Fatalf("nil shutdown: %v", err)
	}
}
