// Package observability wires OpenTelemetry tracing and metrics with OTLP
// export. Disabled configurations still install no-op providers so
// instrumented code never has to check whether telemetry is on.
package observability

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/The-Digital-TeeJay/exa-labs-exa-mcp-server/internal/types"
)

const (
	defaultServiceName     = "exa-mcp-server"
	protocolHTTP           = "http/protobuf"
	protocolGRPC           = "grpc"
	serviceNameKey         = "service.name"
	defaultExportInterval  = 60 * time.Second
	defaultShutdownTimeout = 5 * time.Second
)

// Config holds the resolved OpenTelemetry settings.
type Config struct {
	Enabled              bool
	ServiceName          string
	ExporterEndpoint     string
	ExporterProtocol     string
	ResourceAttributes   map[string]string
	TracesSampler        string
	TracesSamplerArg     float64
	MetricExportInterval time.Duration
}

// ShutdownFunc flushes and stops the installed providers.
type ShutdownFunc func(context.Context) error

// Init resolves the OTel settings from the root configuration and installs
// global tracer and meter providers. The returned ShutdownFunc is always safe
// to call, including when initialization fails.
func Init(rootCfg *types.Config) (ShutdownFunc, error) {
	noop := func(context.Context) error { return nil }

	cfg, err := LoadConfig(rootCfg)
	if err != nil {
		return noop, err
	}

	ctx := context.Background()

	tp, err := InitTracer(ctx, cfg)
	if err != nil {
		return noop, err
	}

	mp, err := InitMeter(ctx, cfg)
	if err != nil {
		_ = NewShutdownFunc(tp, nil)(ctx)
		return noop, err
	}

	return NewShutdownFunc(tp, mp), nil
}

// LoadConfig extracts and validates the OTel fields of the root configuration.
func LoadConfig(rootCfg *types.Config) (*Config, error) {
	if rootCfg == nil {
		return nil, fmt.Errorf("observability: nil root configuration provided")
	}

	attrs, err := parseResourceAttributes(rootCfg.OTelResourceAttributes)
	if err != nil {
		return nil, fmt.Errorf("observability: failed to parse resource attributes: %w", err)
	}

	cfg := &Config{
		Enabled:            rootCfg.OTelEnabled,
		ServiceName:        strings.TrimSpace(rootCfg.OTelServiceName),
		ExporterEndpoint:   strings.TrimSpace(rootCfg.OTelExporterOTLPEndpoint),
		ExporterProtocol:   strings.TrimSpace(rootCfg.OTelExporterOTLPProtocol),
		ResourceAttributes: attrs,
		TracesSampler:      strings.TrimSpace(rootCfg.OTelTracesSampler),
		TracesSamplerArg:   rootCfg.OTelTracesSamplerArg,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate fills in defaults and checks the exporter settings. Endpoint
// requirements only apply when telemetry is enabled.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("observability: config is nil")
	}

	if c.ServiceName == "" {
		c.ServiceName = defaultServiceName
	}
	c.ExporterProtocol = strings.ToLower(strings.TrimSpace(c.ExporterProtocol))
	if c.ExporterProtocol == "" {
		c.ExporterProtocol = protocolHTTP
	}
	if c.TracesSampler == "" {
		c.TracesSampler = "always_on"
	}
	if c.MetricExportInterval <= 0 {
		c.MetricExportInterval = defaultExportInterval
	}

	if !c.Enabled {
		c.applyResourceDefaults()
		return nil
	}

	if c.ExporterEndpoint == "" {
		return fmt.Errorf("observability: OTLP exporter endpoint is required when OpenTelemetry is enabled")
	}

	switch c.ExporterProtocol {
	case protocolHTTP:
		parsed, err := url.Parse(c.ExporterEndpoint)
		if err != nil {
			return fmt.Errorf("observability: invalid OTLP exporter endpoint: %w", err)
		}
		if parsed.Scheme != "http" && parsed.Scheme != "https" {
			return fmt.Errorf("observability: OTLP exporter endpoint must include http or https scheme when using http/protobuf protocol")
		}
		if parsed.Host == "" {
			return fmt.Errorf("observability: OTLP exporter endpoint must include a host when using http/protobuf protocol")
		}
	case protocolGRPC:
		if _, _, err := parseGRPCEndpoint(c.ExporterEndpoint); err != nil {
			return fmt.Errorf("observability: invalid OTLP exporter endpoint for grpc protocol: %w", err)
		}
	default:
		return fmt.Errorf("observability: unsupported OTLP exporter protocol %q", c.ExporterProtocol)
	}

	if c.TracesSamplerArg < 0 {
		return fmt.Errorf("observability: traces sampler argument must be non-negative")
	}
	if strings.EqualFold(c.TracesSampler, "traceidratio") {
		if c.TracesSamplerArg <= 0 || c.TracesSamplerArg > 1 {
			return fmt.Errorf("observability: traces sampler argument must be between 0 and 1 when sampler is traceidratio")
		}
	}

	c.applyResourceDefaults()
	return nil
}

// applyResourceDefaults guarantees service.name is present in the resource
// attributes, as required by OTel semantic conventions.
func (c *Config) applyResourceDefaults() {
	if c.ResourceAttributes == nil {
		c.ResourceAttributes = make(map[string]string)
	}
	if _, ok := c.ResourceAttributes[serviceNameKey]; !ok && c.ServiceName != "" {
		c.ResourceAttributes[serviceNameKey] = c.ServiceName
	}
}

// parseResourceAttributes parses "k1=v1,k2=v2" into a map.
func parseResourceAttributes(input string) (map[string]string, error) {
	attrs := make(map[string]string)
	for _, pair := range strings.Split(input, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		key, value, found := strings.Cut(pair, "=")
		if !found {
			return nil, fmt.Errorf("invalid resource attribute %q", pair)
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, fmt.Errorf("resource attribute key cannot be empty")
		}
		attrs[key] = strings.TrimSpace(value)
	}
	return attrs, nil
}

// NewShutdownFunc returns a ShutdownFunc covering the given providers. Either
// provider may be nil. Shutdown errors are logged and joined.
func NewShutdownFunc(tp *sdktrace.TracerProvider, mp *sdkmetric.MeterProvider) ShutdownFunc {
	return func(ctx context.Context) error {
		ctx, cancel := withShutdownDeadline(ctx)
		defer cancel()

		var errs []error
		if tp != nil {
			if err := tp.Shutdown(ctx); err != nil {
				log.Printf("observability: failed to shutdown tracer provider: %v", err)
				errs = append(errs, fmt.Errorf("tracer provider: %w", err))
			}
		}
		if mp != nil {
			if err := mp.Shutdown(ctx); err != nil {
				log.Printf("observability: failed to shutdown meter provider: %v", err)
				errs = append(errs, fmt.Errorf("meter provider: %w", err))
			}
		}
		return errors.Join(errs...)
	}
}

func withShutdownDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		return context.WithTimeout(context.Background(), defaultShutdownTimeout)
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, defaultShutdownTimeout)
}
