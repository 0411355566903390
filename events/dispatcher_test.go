package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recorder(out *[]string, tag string) Listener {
	return func(_ context.Context, _ *Event) error {
		*out = append(*out, tag)
		return nil
	}
}

func TestDispatchOrder(t *testing.T) {
	d := NewDispatcher()
	var order []string

	d.AddListener("hook", recorder(&order, "low"), -10)
	d.AddListener("hook", recorder(&order, "first-zero"), 0)
	d.AddListener("hook", recorder(&order, "high"), 100)
	d.AddListener("hook", recorder(&order, "second-zero"), 0)

	_, err := d.Dispatch(context.Background(), "hook", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"high", "first-zero", "second-zero", "low"}, order)
}

func TestDispatchMutablePayload(t *testing.T) {
	d := NewDispatcher()
	d.AddListener("paths", func(_ context.Context, e *Event) error {
		p := e.Payload.(*[]string)
		*p = append(*p, "extra://")
		return nil
	}, 0)

	paths := []string{"cache://"}
	e, err := d.Dispatch(context.Background(), "paths", &paths)
	require.NoError(t, err)
	assert.Equal(t, []string{"cache://", "extra://"}, paths)
	assert.Same(t, &paths, e.Payload)
}

func TestDispatchStopPropagation(t *testing.T) {
	d := NewDispatcher()
	var order []string
	d.AddListener("hook", func(_ context.Context, e *Event) error {
		order = append(order, "stopper")
		e.StopPropagation()
		return nil
	}, 10)
	d.AddListener("hook", recorder(&order, "never"), 0)

	e, err := d.Dispatch(context.Background(), "hook", nil)
	require.NoError(t, err)
	assert.True(t, e.Stopped())
	assert.Equal(t, []string{"stopper"}, order)
}

func TestDispatchListenerError(t *testing.T) {
	d := NewDispatcher()
	boom := errors.New("boom")
	var order []string
	d.AddListener("hook", func(context.Context, *Event) error { return boom }, 1)
	d.AddListener("hook", recorder(&order, "skipped"), 0)

	_, err := d.Dispatch(context.Background(), "hook", nil)
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "hook")
	assert.Empty(t, order)
}

func TestDispatchWithoutListeners(t *testing.T) {
	d := NewDispatcher()
	assert.False(t, d.HasListeners("none"))
	d.AddListener("none", nil, 0)
	assert.False(t, d.HasListeners("none"))

	e, err := d.Dispatch(context.Background(), "none", 42)
	require.NoError(t, err)
	assert.Equal(t, 42, e.Payload)
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = Nop{}
	e, err := p.Dispatch(context.Background(), PageContent, "x")
	require.NoError(t, err)
	assert.Equal(t, "x", e.Payload)
	assert.Equal(t, PageContent, e.Name)
}
