package observability

import (
	"context"
	"errors"
	"strings"

	crerr "github.com/cockroachdb/errors"
	"github.com/grafana/pyroscope-go"
	"github.com/riskibarqy/predictions-chips/internal/config"
	"github.com/riskibarqy/predictions-chips/internal/platform/logging"
	"github.com/uptrace/uptrace-go/uptrace"
)

// Telemetry owns the tracing exporter and the continuous profiler. Either may be off.
type Telemetry struct {
	logger   *logging.Logger
	tracing  func(context.Context) error
	profiler *pyroscope.Profiler
}

// Start enables Uptrace tracing and Pyroscope profiling as configured. A missing
// Uptrace DSN disables tracing rather than failing startup.
func Start(cfg config.Config, logger *logging.Logger) (*Telemetry, error) {
	if logger == nil {
		logger = logging.Default()
	}
	t := &Telemetry{logger: logger.Named("observability")}

	if dsn := strings.TrimSpace(cfg.UptraceDSN); cfg.UptraceEnabled && dsn != "" {
		uptrace.ConfigureOpentelemetry(
			uptrace.WithDSN(dsn),
			uptrace.WithServiceName(cfg.ServiceName),
			uptrace.WithServiceVersion(cfg.ServiceVersion),
			uptrace.WithDeploymentEnvironment(cfg.AppEnv),
		)
		t.tracing = uptrace.Shutdown
		t.logger.Info("tracing enabled", "exporter", "uptrace", "service_name", cfg.ServiceName)
	} else {
		t.logger.Info("tracing disabled", "uptrace_enabled", cfg.UptraceEnabled, "dsn_set", dsn != "")
	}

	if !cfg.PyroscopeEnabled {
		t.logger.Info("profiling disabled")
		return t, nil
	}
	profiler, err := pyroscope.Start(pyroscope.Config{
		ApplicationName: cfg.PyroscopeAppName,
		ServerAddress:   cfg.PyroscopeServerAddress,
		AuthToken:       cfg.PyroscopeAuthToken,
		UploadRate:      cfg.PyroscopeUploadRate,
		Tags:            map[string]string{"env": cfg.AppEnv, "service": cfg.ServiceName},
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileInuseSpace,
			pyroscope.ProfileGoroutines,
		},
	})
	if err != nil {
		// Tracing may already be live; release it before failing.
		_ = t.Shutdown(context.Background())
		return nil, crerr.Wrap(err, "start pyroscope profiler")
	}
	t.profiler = profiler
	t.logger.Info("profiling enabled", "server_address", cfg.PyroscopeServerAddress, "application", cfg.PyroscopeAppName)
	return t, nil
}

// TracingEnabled reports whether spans are exported.
func (t *Telemetry) TracingEnabled() bool {
	return t != nil && t.tracing != nil
}

// Shutdown stops the profiler, then flushes pending spans. It is safe to call more than once.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t == nil {
		return nil
	}
	var errs []error
	if t.profiler != nil {
		if err := t.profiler.Stop(); err != nil {
			errs = append(errs, crerr.Wrap(err, "stop pyroscope profiler"))
		}
		t.profiler = nil
	}
	if t.tracing != nil {
		if err := t.tracing(ctx); err != nil {
			errs = append(errs, crerr.Wrap(err, "flush uptrace spans"))
		}
		t.tracing = nil
	}
	return errors.Join(errs...)
}
