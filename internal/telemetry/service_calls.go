package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ============================================================================
// AWS S3 / BUNDLE MIRROR CALLS
// ============================================================================

// TraceS3Call creates a span for AWS S3 operations.
// Examples: put_object, get_object, delete_object, head_bucket.
func TraceS3Call(ctx context.Context, operation string, attrs map[string]interface{}) (context.Context, trace.Span) {
	ctx, span := otel.Tracer("s3").Start(ctx, "s3."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("s3.operation", operation),
		),
	)

	if bucket, ok := attrs["bucket"].(string); ok && bucket != "" {
		span.SetAttributes(attribute.String("s3.bucket", bucket))
	}
	if key, ok := attrs["key"].(string); ok && key != "" {
		span.SetAttributes(attribute.String("s3.key", key))
	}
	if contentType, ok := attrs["content_type"].(string); ok && contentType != "" {
		span.SetAttributes(attribute.String("s3.content_type", contentType))
	}
	if sizeBytes, ok := attrs["size_bytes"].(int64); ok && sizeBytes > 0 {
		span.SetAttributes(attribute.Int64("s3.size_bytes", sizeBytes))
	}

	return ctx, span
}

// ============================================================================
// CACHE OPERATIONS
// ============================================================================

// TraceCacheCall creates a span for cache (Redis) operations.
// Examples: get, set, delete, incr.
func TraceCacheCall(ctx context.Context, operation string, attrs map[string]interface{}) (context.Context, trace.Span) {
	ctx, span := otel.Tracer("cache").Start(ctx, "cache."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("cache.operation", operation),
		),
	)

	if key, ok := attrs["key"].(string); ok && key != "" {
		span.SetAttributes(attribute.String("cache.key", key))
	}
	if hit, ok := attrs["hit"].(bool); ok {
		span.SetAttributes(attribute.Bool("cache.hit", hit))
	}
	if ttl, ok := attrs["ttl_seconds"].(int); ok && ttl > 0 {
		span.SetAttributes(attribute.Int("cache.ttl_seconds", ttl))
	}

	return ctx, span
}

// ============================================================================
// EXTERNAL FETCH (acquire-by-URL, fallback download API)
// ============================================================================

// TraceExternalFetch creates a span for outbound fetches performed while
// acquiring source media (direct URL download, fallback resolver API).
func TraceExternalFetch(ctx context.Context, service string, sourceURL string) (context.Context, trace.Span) {
	ctx, span := otel.Tracer("acquire").Start(ctx, "fetch."+service,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("fetch.service", service),
			attribute.String("fetch.url", sourceURL),
		),
	)
	return ctx, span
}

// ============================================================================
// ERROR AND SUCCESS RECORDING
// ============================================================================

// RecordServiceError records a service error in the current span.
func RecordServiceError(span trace.Span, service string, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err, trace.WithStackTrace(true))
		span.SetAttributes(attribute.String("error.type", "service_error"))
	}
}

// RecordServiceSuccess records success metrics for a service call.
func RecordServiceSuccess(span trace.Span, attrs map[string]interface{}) {
	if durationMs, ok := attrs["duration_ms"].(int64); ok {
		span.SetAttributes(attribute.Int64("result.duration_ms", durationMs))
	}
	span.SetStatus(codes.Ok, "")
}

// ============================================================================
// CORRELATION / REQUEST CONTEXT HELPERS
// ============================================================================

// SetCorrelationID sets a correlation ID in span attributes for tracking
// a job across the acquire -> separate -> export pipeline.
func SetCorrelationID(span trace.Span, correlationID string) {
	if correlationID != "" {
		span.SetAttributes(attribute.String("trace.correlation_id", correlationID))
	}
}

// SetRequestContext sets request-specific attributes.
func SetRequestContext(span trace.Span, requestID string, userAgent string) {
	if requestID != "" {
		span.SetAttributes(attribute.String("request.id", requestID))
	}
	if userAgent != "" {
		if len(userAgent) > 200 {
			userAgent = userAgent[:200] + "..."
		}
		span.SetAttributes(attribute.String("http.user_agent", userAgent))
	}
}
