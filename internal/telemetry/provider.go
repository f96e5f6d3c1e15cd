// Package telemetry provides OpenTelemetry meter provider initialization
// and the decode pipeline's counters. Dropped and lost records are
// invisible in the output table, so these counters (plus logs) are the only
// place the best-effort delivery gap surfaces.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"

	"github.com/tracekit/dtracecol/internal/config"
)

// InitProvider initializes the OpenTelemetry meter provider with an
// OTLP/HTTP exporter. The HTTP client honors HTTP_PROXY, HTTPS_PROXY and
// NO_PROXY through Go's standard net/http transport.
func InitProvider(cfg *config.OTELConfig) (*sdkmetric.MeterProvider, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exporter, err := otlpmetrichttp.New(ctx,
		otlpmetrichttp.WithEndpointURL(cfg.GetEndpoint()),
	)
	if err != nil {
		return nil, fmt.Errorf("creating OTLP metric exporter: %w", err)
	}

	attrs := []attribute.KeyValue{semconv.ServiceName(cfg.ServiceName)}
	attrs = append(attrs, cfg.ParseResourceAttributes()...)
	res, err := resource.New(ctx, resource.WithAttributes(attrs...))
	if err != nil {
		return nil, fmt.Errorf("creating OTEL resource: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter,
			sdkmetric.WithInterval(10*time.Second))),
	)
	return mp, nil
}

// ShutdownProvider flushes pending metrics and shuts the provider down.
func ShutdownProvider(mp *sdkmetric.MeterProvider, ctx context.Context) error {
	if err := mp.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down meter provider: %w", err)
	}
	return nil
}

// Counters are the pipeline's delivery accounting. A nil *Counters is
// valid and counts nothing.
type Counters struct {
	Committed metric.Int64Counter
	Dropped   metric.Int64Counter
	Filtered  metric.Int64Counter
	Lost      metric.Int64Counter
}

// NewCounters registers the pipeline counters on a meter.
func NewCounters(meter metric.Meter) (*Counters, error) {
	committed, err := meter.Int64Counter("dtracecol.records.committed",
		metric.WithDescription("Rows committed to the output table"))
	if err != nil {
		return nil, err
	}
	dropped, err := meter.Int64Counter("dtracecol.records.dropped",
		metric.WithDescription("Raw events dropped because decoding failed"))
	if err != nil {
		return nil, err
	}
	filtered, err := meter.Int64Counter("dtracecol.records.filtered",
		metric.WithDescription("Decoded rows excluded by the row filter"))
	if err != nil {
		return nil, err
	}
	lost, err := meter.Int64Counter("dtracecol.events.lost",
		metric.WithDescription("Raw events lost in the perf buffer before polling"))
	if err != nil {
		return nil, err
	}
	return &Counters{Committed: committed, Dropped: dropped, Filtered: filtered, Lost: lost}, nil
}

// AddCommitted increments the committed counter, tolerating a nil receiver.
func (c *Counters) AddCommitted(ctx context.Context, n int64) {
	if c != nil {
		c.Committed.Add(ctx, n)
	}
}

// AddDropped increments the dropped counter, tolerating a nil receiver.
func (c *Counters) AddDropped(ctx context.Context, n int64) {
	if c != nil {
		c.Dropped.Add(ctx, n)
	}
}

// AddFiltered increments the filtered counter, tolerating a nil receiver.
func (c *Counters) AddFiltered(ctx context.Context, n int64) {
	if c != nil {
		c.Filtered.Add(ctx, n)
	}
}

// AddLost increments the lost counter, tolerating a nil receiver.
func (c *Counters) AddLost(ctx context.Context, n int64) {
	if c != nil {
		c.Lost.Add(ctx, n)
	}
}
