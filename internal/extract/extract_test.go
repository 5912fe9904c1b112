package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractUpstream(t *testing.T) {
	t.Run("list of strings", func(t *testing.T) {
		e := For("python", "upstream = ['clean', \"features\"]\nproduct = 'out.csv'")
		got, err := e.ExtractUpstream()
		require.NoError(t, err)
		assert.Equal(t, []string{"clean", "features"}, got)
	})

	t.Run("explicit None means no upstream", func(t *testing.T) {
		e := For("python", "upstream = None")
		got, err := e.ExtractUpstream()
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("absent assignment means no upstream", func(t *testing.T) {
		e := For("python", "a = 1")
		got, err := e.ExtractUpstream()
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("last assignment wins", func(t *testing.T) {
		e := For("python", "upstream = None\nupstream = ['x']")
		got, err := e.ExtractUpstream()
		require.NoError(t, err)
		assert.Equal(t, []string{"x"}, got)
	})

	t.Run("non-list value fails", func(t *testing.T) {
		e := For("python", "upstream = 42")
		_, err := e.ExtractUpstream()
		assert.ErrorContains(t, err, "list or None")
	})

	t.Run("non-string list item fails", func(t *testing.T) {
		e := For("python", "upstream = ['a', 1]")
		_, err := e.ExtractUpstream()
		assert.ErrorContains(t, err, "string literals")
	})
}

func TestExtractProduct(t *testing.T) {
	t.Run("value returned verbatim", func(t *testing.T) {
		e := For("python", "upstream = None\nproduct = {'nb': 'out.ipynb'}")
		got, err := e.ExtractProduct()
		require.NoError(t, err)
		assert.Equal(t, "{'nb': 'out.ipynb'}", got)
	})

	t.Run("call expression returned verbatim", func(t *testing.T) {
		e := For("python", "product = Path('out.csv')")
		got, err := e.ExtractProduct()
		require.NoError(t, err)
		assert.Equal(t, "Path('out.csv')", got)
	})

	t.Run("missing product fails", func(t *testing.T) {
		e := For("python", "a = 1")
		_, err := e.ExtractProduct()
		assert.ErrorContains(t, err, "product")
	})
}

func TestUnsupportedLanguage(t *testing.T) {
	e := For("r", "upstream <- NULL")

	_, err := e.ExtractUpstream()
	var ule *UnsupportedLanguageError
	require.ErrorAs(t, err, &ule)
	assert.Equal(t, "r", ule.Language)

	_, err = e.ExtractProduct()
	assert.ErrorAs(t, err, &ule)

	t.Run("empty language reads as unknown", func(t *testing.T) {
		_, err := For("", "x = 1").ExtractUpstream()
		assert.ErrorContains(t, err, "unknown")
	})
}
