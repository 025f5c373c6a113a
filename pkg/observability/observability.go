// Package observability bundles the logger, tracer and metrics registry
// handed to every module.
package observability

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Config controls how observability components are built.
type Config struct {
	ServiceName    string
	Environment    string
	Version        string
	LogLevel       string
	MetricsAddress string
	TracingEnabled bool
}

// Provider holds the process-wide logger.
type Provider struct {
	Logger *slog.Logger
}

// Registry holds the tracer and the Prometheus registry.
type Registry struct {
	Tracer     trace.Tracer
	Prometheus *prometheus.Registry
}

// Observability is passed into module constructors.
type Observability struct {
	Provider Provider
	Registry Registry
	Config   Config
}

// Init builds the observability stack from cfg, writing logs to stdout.
func Init(cfg Config) *Observability {
	return initWithWriter(cfg, os.Stdout)
}

func initWithWriter(cfg Config, w io.Writer) *Observability {
	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}
	if cfg.Environment == "development" {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	logger := slog.New(handler).With(
		slog.String("service", cfg.ServiceName),
		slog.String("environment", cfg.Environment),
		slog.String("version", cfg.Version),
	)

	var tracer trace.Tracer
	if cfg.TracingEnabled {
		tracer = otel.Tracer(cfg.ServiceName)
	} else {
		tracer = noop.NewTracerProvider().Tracer(cfg.ServiceName)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Observability{
		Provider: Provider{Logger: logger},
		Registry: Registry{Tracer: tracer, Prometheus: reg},
		Config:   cfg,
	}
}

// NewNoop returns an Observability that discards logs and traces.
func NewNoop() *Observability {
	return &Observability{
		Provider: Provider{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))},
		Registry: Registry{Tracer: noop.NewTracerProvider().Tracer("noop")},
	}
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
