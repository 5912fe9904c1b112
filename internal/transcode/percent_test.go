package transcode

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notekit/internal/nbformat"
)

const scriptWithHeader = `# ---
# jupyter:
#   kernelspec:
#     display_name: Python 3
#     language: python
#     name: python3
# ---

# %% tags=["parameters"]
upstream = None
product = {"nb": "out.ipynb"}

# %%
print(product)
`

func TestReadPercent(t *testing.T) {
	t.Run("header kernelspec", func(t *testing.T) {
		doc, err := readPercent(scriptWithHeader)
		require.NoError(t, err)
		require.NotNil(t, doc.Metadata.Kernelspec)

		want := &nbformat.Kernelspec{
			Name:        "python3",
			DisplayName: "Python 3",
			Language:    "python",
		}
		if diff := cmp.Diff(want, doc.Metadata.Kernelspec); diff != "" {
			t.Errorf("kernelspec mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("cells and tags", func(t *testing.T) {
		doc, err := readPercent(scriptWithHeader)
		require.NoError(t, err)
		require.Len(t, doc.Cells, 2)

		assert.Equal(t, nbformat.CellCode, doc.Cells[0].Type)
		assert.Equal(t, []string{"parameters"}, doc.Cells[0].Metadata.Tags)
		assert.Equal(t, "upstream = None\nproduct = {\"nb\": \"out.ipynb\"}", doc.Cells[0].Source)
		assert.Equal(t, "print(product)", doc.Cells[1].Source)
	})

	t.Run("bare kernelspec header", func(t *testing.T) {
		script := "# ---\n# kernelspec:\n#   name: ir\n#   language: r\n# ---\n\n# %%\nx <- 1\n"
		doc, err := readPercent(script)
		require.NoError(t, err)
		require.NotNil(t, doc.Metadata.Kernelspec)
		assert.Equal(t, "ir", doc.Metadata.Kernelspec.Name)
	})

	t.Run("unterminated header", func(t *testing.T) {
		_, err := readPercent("# ---\n# jupyter:\n# %%\nx = 1\n")
		assert.ErrorContains(t, err, "unterminated")
	})

	t.Run("no header", func(t *testing.T) {
		doc, err := readPercent("# %%\nx = 1\n")
		require.NoError(t, err)
		assert.Nil(t, doc.Metadata.Kernelspec)
		require.Len(t, doc.Cells, 1)
		assert.Equal(t, "x = 1", doc.Cells[0].Source)
	})

	t.Run("preamble becomes a cell", func(t *testing.T) {
		doc, err := readPercent("import math\n\n# %% tags=[\"parameters\"]\na = 1\n")
		require.NoError(t, err)
		require.Len(t, doc.Cells, 2)
		assert.Equal(t, "import math", doc.Cells[0].Source)
		assert.Equal(t, []string{"parameters"}, doc.Cells[1].Metadata.Tags)
	})

	t.Run("markdown cell strips comment prefix", func(t *testing.T) {
		doc, err := readPercent("# %% [markdown]\n# Cleans the raw data\n\n# %%\nx = 1\n")
		require.NoError(t, err)
		require.Len(t, doc.Cells, 2)
		assert.Equal(t, nbformat.CellMarkdown, doc.Cells[0].Type)
		assert.Equal(t, "Cleans the raw data", doc.Cells[0].Source)
	})

	t.Run("raw cell", func(t *testing.T) {
		doc, err := readPercent("# %% [raw]\nplain text\n")
		require.NoError(t, err)
		require.Len(t, doc.Cells, 1)
		assert.Equal(t, nbformat.CellRaw, doc.Cells[0].Type)
	})

	t.Run("malformed tags", func(t *testing.T) {
		_, err := readPercent("# %% tags=[\"parameters\"\na = 1\n")
		assert.Error(t, err)
	})
}

func TestReads(t *testing.T) {
	notebook := `{"cells": [{"cell_type": "code", "metadata": {}, "source": "a = 1"}],
		"metadata": {}, "nbformat": 4, "nbformat_minor": 5}`

	t.Run("ipynb extension", func(t *testing.T) {
		doc, err := Reads(notebook, "ipynb")
		require.NoError(t, err)
		require.Len(t, doc.Cells, 1)
		assert.Equal(t, "a = 1", doc.Cells[0].Source)
	})

	t.Run("dotted extension", func(t *testing.T) {
		_, err := Reads(notebook, ".ipynb")
		assert.NoError(t, err)
	})

	t.Run("script extension", func(t *testing.T) {
		doc, err := Reads("# %%\na = 1\n", "py")
		require.NoError(t, err)
		require.Len(t, doc.Cells, 1)
	})

	t.Run("sniffs notebook json", func(t *testing.T) {
		doc, err := Reads(notebook, "")
		require.NoError(t, err)
		require.Len(t, doc.Cells, 1)
	})

	t.Run("sniffs percent script", func(t *testing.T) {
		doc, err := Reads("# %%\na = 1\n", "")
		require.NoError(t, err)
		require.Len(t, doc.Cells, 1)
	})
}

func TestWritesAlwaysNotebook(t *testing.T) {
	doc, err := Reads("# %% tags=[\"parameters\"]\na = 1\n", "py")
	require.NoError(t, err)

	text, err := Writes(doc)
	require.NoError(t, err)

	back, err := Reads(text, "ipynb")
	require.NoError(t, err)
	require.Len(t, back.Cells, 1)
	assert.Equal(t, "a = 1", back.Cells[0].Source)
	assert.Equal(t, []string{"parameters"}, back.Cells[0].Metadata.Tags)
}
