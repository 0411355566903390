package trace

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	oteltrace "go.opentelemetry.io/otel/trace"
)

func TestIDFromContext(t *testing.T) {
	_, ok := IDFromContext(context.Background())
	assert.False(t, ok)

	_, ok = IDFromContext(WithTraceID(context.Background(), ""))
	assert.False(t, ok)

	id, ok := IDFromContext(WithTraceID(context.Background(), "req-1"))
	assert.True(t, ok)
	assert.Equal(t, "req-1", id)
}

func TestEnsureTraceID(t *testing.T) {
	assert.Equal(t, "req-1", EnsureTraceID(WithTraceID(context.Background(), "req-1")))

	tid, err := oteltrace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	assert.NoError(t, err)
	sc := oteltrace.NewSpanContext(oteltrace.SpanContextConfig{TraceID: tid})
	ctx := oteltrace.ContextWithSpanContext(context.Background(), sc)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", EnsureTraceID(ctx))

	generated := EnsureTraceID(context.Background())
	_, err = uuid.Parse(generated)
	assert.NoError(t, err)
	assert.NotEqual(t, generated, EnsureTraceID(context.Background()))
}
