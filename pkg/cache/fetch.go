package cache

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/cleancare/ccadmin/pkg/cache")

// Fetch returns the cached value for key, or calls load, caches its result
// for ttl and returns it. Concurrent misses for the same key share a single
// load. Errors from load are returned and never cached.
func Fetch[T any](ctx context.Context, c *Tiered, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	ctx, span := tracer.Start(ctx, "cache.Fetch", trace.WithAttributes(attribute.String("cache.key", key)))
	defer span.End()

	var cached T
	if c.GetJSON(ctx, key, &cached) {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return cached, nil
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		value, err := load(ctx)
		if err != nil {
			return nil, err
		}
		if err := c.SetJSON(ctx, key, value, ttl); err != nil {
			c.log.WithError(err).WithField("key", key).Warn("failed to encode value for cache")
		}
		return value, nil
	})
	if err != nil {
		span.RecordError(err)
		var zero T
		return zero, err
	}
	value, _ := v.(T)
	return value, nil
}
