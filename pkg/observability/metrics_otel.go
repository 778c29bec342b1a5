package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// OTelMetrics mirrors the cache and authorization counters as OpenTelemetry
// instruments so they reach the collector alongside traces.
type OTelMetrics struct {
	cacheHits      metric.Int64Counter
	cacheMisses    metric.Int64Counter
	cacheFallbacks metric.Int64Counter
	authzDecisions metric.Int64Counter
}

// NewOTelMetrics creates instruments on the global meter provider
func NewOTelMetrics() (*OTelMetrics, error) {
	return NewOTelMetricsWithMeter(otel.Meter("github.com/cleancare/ccadmin"))
}

// NewOTelMetricsWithMeter creates instruments on the given meter
func NewOTelMetricsWithMeter(meter metric.Meter) (*OTelMetrics, error) {
	m := &OTelMetrics{}
	var err error

	if m.cacheHits, err = meter.Int64Counter("cache.hits",
		metric.WithDescription("Cache hits by tier"),
		metric.WithUnit("{hit}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create cache.hits counter: %w", err)
	}
	if m.cacheMisses, err = meter.Int64Counter("cache.misses",
		metric.WithDescription("Cache misses by tier"),
		metric.WithUnit("{miss}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create cache.misses counter: %w", err)
	}
	if m.cacheFallbacks, err = meter.Int64Counter("cache.remote.fallbacks",
		metric.WithDescription("Remote cache failures served by the local tier"),
		metric.WithUnit("{operation}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create cache.remote.fallbacks counter: %w", err)
	}
	if m.authzDecisions, err = meter.Int64Counter("authz.decisions",
		metric.WithDescription("Scope middleware decisions"),
		metric.WithUnit("{decision}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create authz.decisions counter: %w", err)
	}

	return m, nil
}

func (m *OTelMetrics) RecordCacheHit(ctx context.Context, tier string) {
	m.cacheHits.Add(ctx, 1, metric.WithAttributes(attribute.String("cache.tier", tier)))
}

func (m *OTelMetrics) RecordCacheMiss(ctx context.Context, tier string) {
	m.cacheMisses.Add(ctx, 1, metric.WithAttributes(attribute.String("cache.tier", tier)))
}

func (m *OTelMetrics) RecordCacheFallback(ctx context.Context, operation string) {
	m.cacheFallbacks.Add(ctx, 1, metric.WithAttributes(attribute.String("cache.operation", operation)))
}

func (m *OTelMetrics) RecordAuthzDecision(ctx context.Context, decision, code string) {
	m.authzDecisions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("authz.decision", decision),
		attribute.String("authz.code", code),
	))
}
