package params

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notekit/internal/nbformat"
)

func paramDoc() *nbformat.Document {
	return &nbformat.Document{
		NBFormat:      4,
		NBFormatMinor: 5,
		Metadata: nbformat.Metadata{
			Kernelspec: &nbformat.Kernelspec{Name: "python3", Language: "python"},
			Extra:      map[string]any{},
		},
		Cells: []nbformat.Cell{
			{Type: nbformat.CellCode, Source: "a = 1", Metadata: nbformat.CellMetadata{
				Tags: []string{ParametersTag},
			}},
			{Type: nbformat.CellCode, Source: "print(a)"},
		},
	}
}

func TestParameterize(t *testing.T) {
	t.Run("cell placed after the parameters cell", func(t *testing.T) {
		out, err := Parameterize(paramDoc(), map[string]any{"a": 2}, false, "")
		require.NoError(t, err)
		require.Len(t, out.Cells, 3)

		injected := out.Cells[1]
		assert.Equal(t, []string{InjectedTag}, injected.Metadata.Tags)
		assert.Equal(t, "# Parameters\na = 2", injected.Source)
		assert.Equal(t, "print(a)", out.Cells[2].Source)
	})

	t.Run("input document untouched", func(t *testing.T) {
		doc := paramDoc()
		_, err := Parameterize(doc, map[string]any{"a": 2}, false, "")
		require.NoError(t, err)
		assert.Len(t, doc.Cells, 2)
		assert.NotContains(t, doc.Metadata.Extra, "papermill")
	})

	t.Run("existing injected cell replaced", func(t *testing.T) {
		out, err := Parameterize(paramDoc(), map[string]any{"a": 2}, false, "")
		require.NoError(t, err)

		again, err := Parameterize(out, map[string]any{"a": 3}, false, "")
		require.NoError(t, err)
		require.Len(t, again.Cells, 3)
		assert.Equal(t, "# Parameters\na = 3", again.Cells[1].Source)
	})

	t.Run("no parameters cell injects at the top", func(t *testing.T) {
		doc := paramDoc()
		doc.Cells[0].Metadata.Tags = nil
		out, err := Parameterize(doc, map[string]any{"a": 2}, false, "")
		require.NoError(t, err)
		require.Len(t, out.Cells, 3)
		assert.True(t, out.Cells[0].HasTag(InjectedTag))
	})

	t.Run("reserved keys come first then sorted", func(t *testing.T) {
		out, err := Parameterize(paramDoc(), map[string]any{
			"z":         1,
			"b":         2,
			ProductKey:  "out.csv",
			UpstreamKey: map[string]any{"clean": "clean.csv"},
		}, false, "")
		require.NoError(t, err)

		lines := strings.Split(out.Cells[1].Source, "\n")
		require.Len(t, lines, 5)
		assert.Equal(t, "# Parameters", lines[0])
		assert.True(t, strings.HasPrefix(lines[1], "upstream = "))
		assert.True(t, strings.HasPrefix(lines[2], "product = "))
		assert.True(t, strings.HasPrefix(lines[3], "b = "))
		assert.True(t, strings.HasPrefix(lines[4], "z = "))
	})

	t.Run("language from kernelspec", func(t *testing.T) {
		doc := paramDoc()
		doc.Metadata.Kernelspec = &nbformat.Kernelspec{Name: "ir", Language: "r"}
		out, err := Parameterize(doc, map[string]any{"a": nil}, false, "")
		require.NoError(t, err)
		assert.Contains(t, out.Cells[1].Source, "a = NULL")
	})

	t.Run("report mode hides the source", func(t *testing.T) {
		out, err := Parameterize(paramDoc(), map[string]any{"a": 2}, true, "")
		require.NoError(t, err)

		jupyter, ok := out.Cells[1].Metadata.Extra["jupyter"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, true, jupyter["source_hidden"])
	})

	t.Run("comment opens the cell", func(t *testing.T) {
		out, err := Parameterize(paramDoc(), map[string]any{"a": 2}, false, "first line\nsecond line")
		require.NoError(t, err)

		lines := strings.Split(out.Cells[1].Source, "\n")
		assert.Equal(t, "# first line", lines[0])
		assert.Equal(t, "# second line", lines[1])
		assert.Equal(t, "# Parameters", lines[2])
	})

	t.Run("bookkeeping metadata records the mapping", func(t *testing.T) {
		serialized := map[string]any{"a": 2}
		out, err := Parameterize(paramDoc(), serialized, false, "")
		require.NoError(t, err)

		pm, ok := out.Metadata.Extra["papermill"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, serialized, pm["parameters"])
	})

	t.Run("untranslatable parameter fails", func(t *testing.T) {
		doc := paramDoc()
		doc.Metadata.Kernelspec = &nbformat.Kernelspec{Name: "julia-1.9", Language: "julia"}
		_, err := Parameterize(doc, map[string]any{"a": 1}, false, "")
		assert.ErrorContains(t, err, "julia")
	})
}
