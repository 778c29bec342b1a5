package observability

import "context"

// Recorder is implemented by Metrics and OTelMetrics
type Recorder interface {
	RecordCacheHit(ctx context.Context, tier string)
	RecordCacheMiss(ctx context.Context, tier string)
	RecordCacheFallback(ctx context.Context, operation string)
	RecordAuthzDecision(ctx context.Context, decision, code string)
}

// Fanout forwards every record call to each recorder in order
type Fanout []Recorder

func (f Fanout) RecordCacheHit(ctx context.Context, tier string) {
	for _, r := range f {
		r.RecordCacheHit(ctx, tier)
	}
}

func (f Fanout) RecordCacheMiss(ctx context.Context, tier string) {
	for _, r := range f {
		r.RecordCacheMiss(ctx, tier)
	}
}

func (f Fanout) RecordCacheFallback(ctx context.Context, operation string) {
	for _, r := range f {
		r.RecordCacheFallback(ctx, operation)
	}
}

func (f Fanout) RecordAuthzDecision(ctx context.Context, decision, code string) {
	for _, r := range f {
		r.RecordAuthzDecision(ctx, decision, code)
	}
}
