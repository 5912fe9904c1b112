package params

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// artifact is a minimal product descriptor with a serialization hook.
type artifact struct {
	path string
}

func (a artifact) ToJSONSerializable() any {
	return a.path
}

func TestSerialize(t *testing.T) {
	t.Run("plain values pass through", func(t *testing.T) {
		out, err := Serialize(map[string]any{"a": 1, "b": "x"})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"a": 1, "b": "x"}, out)
	})

	t.Run("product converted through the hook", func(t *testing.T) {
		out, err := Serialize(map[string]any{ProductKey: artifact{path: "out.csv"}})
		require.NoError(t, err)
		assert.Equal(t, "out.csv", out[ProductKey])
	})

	t.Run("upstream values converted per entry", func(t *testing.T) {
		out, err := Serialize(map[string]any{
			UpstreamKey: map[string]any{
				"clean": artifact{path: "clean.csv"},
				"raw":   "raw.csv",
			},
		})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"clean": "clean.csv", "raw": "raw.csv"}, out[UpstreamKey])
	})

	t.Run("nil upstream passes through", func(t *testing.T) {
		out, err := Serialize(map[string]any{UpstreamKey: nil})
		require.NoError(t, err)
		assert.Nil(t, out[UpstreamKey])
	})

	t.Run("non-mapping upstream fails", func(t *testing.T) {
		_, err := Serialize(map[string]any{UpstreamKey: "not-a-map"})
		assert.ErrorContains(t, err, "upstream")
	})

	t.Run("input map is not mutated", func(t *testing.T) {
		in := map[string]any{ProductKey: artifact{path: "out.csv"}}
		_, err := Serialize(in)
		require.NoError(t, err)
		assert.Equal(t, artifact{path: "out.csv"}, in[ProductKey])
	})
}
