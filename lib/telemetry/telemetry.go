package telemetry

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"sigawatch/lib/configutil"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/trace"
)

// ConfigName is the file searched for by SetupFromEnv.
const ConfigName = "telemetry.json5"

type Telemetry struct {
	TracerProvider *trace.TracerProvider
	MeterProvider  *metric.MeterProvider
}

// Shutdown flushes and stops both providers, it is a no-op when telemetry was never set up.
func (t Telemetry) Shutdown(ctx context.Context) error {
	var errs []error
	if t.TracerProvider != nil {
		errs = append(errs, t.TracerProvider.Shutdown(ctx))
	}
	if t.MeterProvider != nil {
		errs = append(errs, t.MeterProvider.Shutdown(ctx))
	}
	return errors.Join(errs...)
}

// SetupFromEnv searches up the filesystem from the cwd to find a file
// called telemetry.json5, once found it will then use it
// as a config to setup telemetry.
//
// When no such file exists the global noop providers are left in place.
func SetupFromEnv(ctx context.Context, service Service) (Telemetry, error) {
	cfg, err := configutil.ReadRecursively[config](ConfigName)
	if os.IsNotExist(err) {
		slog.Debug("no telemetry config found, otlp export disabled")
		return Telemetry{}, nil
	}
	if err != nil {
		return Telemetry{}, err
	}
	return setup(ctx, service, cfg)
}

// setup installs the global providers of every signal the config exports.
func setup(ctx context.Context, service Service, cfg config) (Telemetry, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second*15)
	defer cancel()

	r, err := newResource(service, cfg.Environment)
	if err != nil {
		return Telemetry{}, err
	}

	var out Telemetry
	out.TracerProvider, err = newTraceProvider(ctx, r, cfg)
	if err != nil {
		return Telemetry{}, err
	}
	out.MeterProvider, err = newMeterProvider(ctx, r, cfg)
	if err != nil {
		return Telemetry{}, errors.Join(err, out.Shutdown(ctx))
	}

	if out.TracerProvider != nil {
		otel.SetTracerProvider(out.TracerProvider)
	}
	if out.MeterProvider != nil {
		otel.SetMeterProvider(out.MeterProvider)
	}
	return out, nil
}
