// Package tracking records OpenTelemetry metrics for cache driver operations.
package tracking

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	cacheMeterName = "pagebricks/cache"

	metricCacheOperationDuration = "cache.operation.duration" // seconds
	metricCacheHit               = "cache.hit"
	metricCacheMiss              = "cache.miss"
	metricCacheDegraded          = "cache.degraded"

	attrDriver         = "cache.driver"
	attrOperation      = "cache.operation"
	attrNamespace      = "cache.namespace"
	attrErrorType      = "error.type"
	attrCacheHitStatus = "cache.hit"
)

// Operation names
const (
	OpGet      = "get"
	OpSet      = "set"
	OpDelete   = "delete"
	OpContains = "contains"
	OpClear    = "clear"
)

// ErrorClassifier lets drivers map their errors to a stable error.type value.
type ErrorClassifier interface {
	ErrorType() string
}

var (
	meterInitMu   sync.Mutex
	meterOnce     sync.Once
	cacheMeter    metric.Meter
	metricsInited bool

	operationDuration metric.Float64Histogram
	hitCounter        metric.Int64Counter
	missCounter       metric.Int64Counter
	degradedCounter   metric.Int64Counter
)

func logMetricError(name string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "WARNING: Failed to initialize cache metric %s: %v\n", name, err)
	}
}

func initCacheMeter() {
	meterInitMu.Lock()
	defer meterInitMu.Unlock()

	if cacheMeter != nil {
		return
	}
	cacheMeter = otel.Meter(cacheMeterName)

	var err error
	operationDuration, err = cacheMeter.Float64Histogram(metricCacheOperationDuration,
		metric.WithDescription("Duration of cache driver operations"),
		metric.WithUnit("s"))
	logMetricError(metricCacheOperationDuration, err)

	hitCounter, err = cacheMeter.Int64Counter(metricCacheHit,
		metric.WithDescription("Number of cache hits"),
		metric.WithUnit("{hit}"))
	logMetricError(metricCacheHit, err)

	missCounter, err = cacheMeter.Int64Counter(metricCacheMiss,
		metric.WithDescription("Number of cache misses"),
		metric.WithUnit("{miss}"))
	logMetricError(metricCacheMiss, err)

	degradedCounter, err = cacheMeter.Int64Counter(metricCacheDegraded,
		metric.WithDescription("Driver failures degraded to a miss or no-op"),
		metric.WithUnit("{operation}"))
	logMetricError(metricCacheDegraded, err)

	metricsInited = true
}

// RecordOperation records one driver call. hit is only meaningful for OpGet.
func RecordOperation(ctx context.Context, driver, operation string, duration time.Duration, hit bool, err error, namespace string) {
	meterOnce.Do(initCacheMeter)

	attrs := []attribute.KeyValue{
		attribute.String(attrDriver, driver),
		attribute.String(attrOperation, operation),
	}
	if namespace != "" {
		attrs = append(attrs, attribute.String(attrNamespace, namespace))
	}
	if operation == OpGet {
		attrs = append(attrs, attribute.Bool(attrCacheHitStatus, hit))
	}
	if err != nil {
		attrs = append(attrs, attribute.String(attrErrorType, classifyError(err)))
	}

	opts := metric.WithAttributes(attrs...)
	if operationDuration != nil {
		operationDuration.Record(ctx, duration.Seconds(), opts)
	}
	if operation == OpGet {
		switch {
		case hit && hitCounter != nil:
			hitCounter.Add(ctx, 1, opts)
		case !hit && missCounter != nil:
			missCounter.Add(ctx, 1, opts)
		}
	}
	if err != nil && degradedCounter != nil {
		degradedCounter.Add(ctx, 1, opts)
	}
}

func classifyError(err error) string {
	var c ErrorClassifier
	if errors.As(err, &c) {
		return c.ErrorType()
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "error"
	}
}

// IsInitialized reports whether the instruments were created.
func IsInitialized() bool {
	meterInitMu.Lock()
	defer meterInitMu.Unlock()
	return metricsInited
}

// ResetForTesting drops the cached meter so a test can install its own provider.
func ResetForTesting() {
	meterInitMu.Lock()
	defer meterInitMu.Unlock()

	cacheMeter = nil
	operationDuration = nil
	hitCounter = nil
	missCounter = nil
	degradedCounter = nil
	metricsInited = false
	meterOnce = sync.Once{}
}
