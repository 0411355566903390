package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type artifact struct {
	Content     string
	ContentMeta map[string]any
	Stamp       time.Time
}

type keyedArtifact struct {
	ID   int64  `cbor:"1,keyasint"`
	Body string `cbor:"2,keyasint"`
}

func TestMarshalUnmarshal(t *testing.T) {
	t.Run("Struct", func(t *testing.T) {
		original := artifact{
			Content:     "<p>hello</p>",
			ContentMeta: map[string]any{"marker": "x"},
			Stamp:       time.Date(2024, 1, 2, 3, 4, 5, 6, time.UTC),
		}

		data, err := Marshal(original)
		require.NoError(t, err)

		result, err := Unmarshal[artifact](data)
		require.NoError(t, err)
		assert.Equal(t, original.Content, result.Content)
		assert.Equal(t, "x", result.ContentMeta["marker"])
		assert.True(t, original.Stamp.Equal(result.Stamp))
	})

	t.Run("KeyAsInt", func(t *testing.T) {
		original := keyedArtifact{ID: 7, Body: "b"}
		data, err := Marshal(original)
		require.NoError(t, err)

		result, err := Unmarshal[keyedArtifact](data)
		require.NoError(t, err)
		assert.Equal(t, original, result)
	})

	t.Run("Primitives", func(t *testing.T) {
		data, err := Marshal("plain")
		require.NoError(t, err)
		s, err := Unmarshal[string](data)
		require.NoError(t, err)
		assert.Equal(t, "plain", s)

		data, err = Marshal(int64(-42))
		require.NoError(t, err)
		n, err := Unmarshal[int64](data)
		require.NoError(t, err)
		assert.Equal(t, int64(-42), n)
	})

	t.Run("UntypedMapsDecodeAsStringKeyed", func(t *testing.T) {
		data, err := Marshal(map[string]any{"outer": map[string]any{"inner": "v"}})
		require.NoError(t, err)

		var out any
		require.NoError(t, decodeInto(data, &out))
		m, ok := out.(map[string]any)
		require.True(t, ok)
		_, ok = m["outer"].(map[string]any)
		assert.True(t, ok)
	})
}

func TestMarshalIsCanonical(t *testing.T) {
	a, err := Marshal(map[string]int{"b": 2, "a": 1, "c": 3})
	require.NoError(t, err)
	b, err := Marshal(map[string]int{"c": 3, "a": 1, "b": 2})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestDecodeLimits(t *testing.T) {
	data, err := Marshal(make([]int, 100001))
	require.NoError(t, err)

	_, err = Unmarshal[[]int](data)
	assert.Error(t, err)
}

func TestInvalidData(t *testing.T) {
	_, err := Unmarshal[artifact]([]byte{0xFF, 0xFF, 0xFF})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cbor unmarshal failed")

	_, err = Unmarshal[artifact]([]byte{})
	assert.Error(t, err)
}
