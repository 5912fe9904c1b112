package source

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"notekit/internal/kernels"
	"notekit/internal/params"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const pyScript = `# %% tags=["parameters"]
a = 1
b = 2

# %%
print(a + b)
`

const rScript = `# %% tags=["parameters"]
a <- 1

# %%
print(a)
`

func newPySource(t *testing.T, text string, opts ...Option) *NotebookSource {
	t.Helper()
	opts = append([]Option{
		WithExtension("py"),
		WithCatalog(kernels.DefaultStaticCatalog()),
	}, opts...)
	s, err := FromString(text, opts...)
	require.NoError(t, err)
	return s
}

func TestFromString(t *testing.T) {
	t.Run("extension required", func(t *testing.T) {
		_, err := FromString(pyScript, WithCatalog(kernels.DefaultStaticCatalog()))
		var ierr *InitializationError
		require.ErrorAs(t, err, &ierr)
		assert.Contains(t, err.Error(), "extension")
	})

	t.Run("valid script", func(t *testing.T) {
		s := newPySource(t, pyScript)
		assert.Equal(t, "python", s.Language())
		assert.Equal(t, "", s.Loc())
		assert.Equal(t, "", s.Name())
	})
}

func TestFromPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "task.py")
	require.NoError(t, os.WriteFile(path, []byte(pyScript), 0644))

	t.Run("extension forbidden", func(t *testing.T) {
		_, err := FromPath(path, WithExtension("py"))
		var ierr *InitializationError
		require.ErrorAs(t, err, &ierr)
		assert.Contains(t, err.Error(), "extension")
	})

	t.Run("reads the file", func(t *testing.T) {
		s, err := FromPath(path, WithCatalog(kernels.DefaultStaticCatalog()))
		require.NoError(t, err)
		assert.Equal(t, path, s.Loc())
		assert.Equal(t, "task.py", s.Name())
		assert.Equal(t, "python", s.Language())
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := FromPath(filepath.Join(dir, "nope.py"))
		var ierr *InitializationError
		assert.ErrorAs(t, err, &ierr)
	})
}

type stringPlaceholder struct {
	path    string
	content string
}

func (p stringPlaceholder) Path() string   { return p.path }
func (p stringPlaceholder) String() string { return p.content }

func TestFromPlaceholder(t *testing.T) {
	s, err := FromPlaceholder(
		stringPlaceholder{path: "pipeline/task.py", content: pyScript},
		WithCatalog(kernels.DefaultStaticCatalog()),
	)
	require.NoError(t, err)
	assert.Equal(t, "task.py", s.Name())
	assert.Equal(t, "python", s.Language())
}

func TestMissingParametersCell(t *testing.T) {
	_, err := FromString("# %%\nx = 1\n",
		WithExtension("py"), WithCatalog(kernels.DefaultStaticCatalog()))
	var ierr *InitializationError
	require.ErrorAs(t, err, &ierr)
	assert.Contains(t, err.Error(), `"parameters"`)
}

func TestKernelResolution(t *testing.T) {
	t.Run("unresolvable kernel", func(t *testing.T) {
		_, err := FromString("x <- 1\n",
			WithExtension("txt"), WithCatalog(kernels.DefaultStaticCatalog()))
		var ierr *InitializationError
		require.ErrorAs(t, err, &ierr)
		assert.Contains(t, err.Error(), "notekit kernels")
	})

	t.Run("kernel not installed", func(t *testing.T) {
		pythonOnly := kernels.NewStaticCatalog(
			kernels.Spec{Name: "python3", DisplayName: "Python 3", Language: "python"})
		_, err := FromString(rScript, WithExtension("R"), WithCatalog(pythonOnly))
		var ierr *InitializationError
		require.ErrorAs(t, err, &ierr)
		assert.Contains(t, err.Error(), `"ir" is not installed`)
	})

	t.Run("explicit kernel overrides extension", func(t *testing.T) {
		s := newPySource(t, pyScript, WithKernelspecName("ir"))
		doc, err := s.ObjUnrendered()
		require.NoError(t, err)
		require.NotNil(t, doc.Metadata.Kernelspec)
		assert.Equal(t, "ir", doc.Metadata.Kernelspec.Name)
	})

	t.Run("unrendered carries kernelspec", func(t *testing.T) {
		s := newPySource(t, pyScript)
		text, err := s.StrUnrendered()
		require.NoError(t, err)
		assert.Contains(t, text, `"python3"`)

		doc, err := s.ObjUnrendered()
		require.NoError(t, err)
		require.NotNil(t, doc.Metadata.Kernelspec)
		assert.Equal(t, "python", doc.Metadata.Kernelspec.Language)
	})
}

func TestRender(t *testing.T) {
	t.Run("injects parameter values", func(t *testing.T) {
		s := newPySource(t, pyScript)
		require.NoError(t, s.Render(map[string]any{"a": 10, "b": 20}))

		text, err := s.StrRendered()
		require.NoError(t, err)
		assert.Contains(t, text, "a = 10")
		assert.Contains(t, text, "b = 20")

		doc, err := s.ObjRendered()
		require.NoError(t, err)
		cell, i := doc.FindCellWithTag(params.InjectedTag)
		require.NotNil(t, cell)
		assert.Equal(t, 1, i)
	})

	t.Run("rendered before render is a usage error", func(t *testing.T) {
		s := newPySource(t, pyScript)

		_, err := s.StrRendered()
		var uerr *UsageError
		require.ErrorAs(t, err, &uerr)

		_, err = s.ObjRendered()
		assert.ErrorAs(t, err, &uerr)
	})

	t.Run("String prefers the rendered form", func(t *testing.T) {
		s := newPySource(t, pyScript)
		assert.NotContains(t, s.String(), "# Parameters")

		require.NoError(t, s.Render(map[string]any{"a": 5}))
		assert.Contains(t, s.String(), "a = 5")
	})

	t.Run("re-render replaces the injected cell", func(t *testing.T) {
		s := newPySource(t, pyScript)
		require.NoError(t, s.Render(map[string]any{"a": 1}))
		require.NoError(t, s.Render(map[string]any{"a": 2}))

		doc, err := s.ObjRendered()
		require.NoError(t, err)
		count := 0
		for _, c := range doc.Cells {
			if c.HasTag(params.InjectedTag) {
				count++
			}
		}
		assert.Equal(t, 1, count)
	})
}

func TestValidation(t *testing.T) {
	t.Run("missing parameters are advisory", func(t *testing.T) {
		s := newPySource(t, pyScript, WithStaticAnalysis())
		require.NoError(t, s.Render(map[string]any{"a": 1}))

		warnings := s.Warnings()
		require.Len(t, warnings, 1)
		assert.Contains(t, warnings[0], "missing parameters: b")
		assert.Contains(t, warnings[0], "default values")
	})

	t.Run("extra parameters raise", func(t *testing.T) {
		s := newPySource(t, pyScript, WithStaticAnalysis())
		err := s.Render(map[string]any{"a": 1, "b": 2, "c": 3})

		var verr *RenderValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Report, "non-declared parameters: c")
		assert.Contains(t, err.Error(), "notebook validation failed")
	})

	t.Run("failed first render leaves no rendered state", func(t *testing.T) {
		s := newPySource(t, pyScript, WithStaticAnalysis())
		require.Error(t, s.Render(map[string]any{"a": 1, "b": 2, "c": 3}))

		_, err := s.StrRendered()
		var uerr *UsageError
		assert.ErrorAs(t, err, &uerr)
	})

	t.Run("failed render rolls back to the previous result", func(t *testing.T) {
		s := newPySource(t, pyScript, WithStaticAnalysis())
		require.NoError(t, s.Render(map[string]any{"a": 1, "b": 2}))
		require.Error(t, s.Render(map[string]any{"a": 9, "b": 9, "c": 9}))

		text, err := s.StrRendered()
		require.NoError(t, err)
		assert.Contains(t, text, "a = 1")
		assert.NotContains(t, text, "a = 9")
	})

	t.Run("undefined names reported as warnings", func(t *testing.T) {
		script := "# %% tags=[\"parameters\"]\na = 1\n\n# %%\ndf.head()\n"
		s := newPySource(t, script, WithStaticAnalysis())
		err := s.Render(map[string]any{"a": 1})

		var verr *RenderValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Report, "static analysis warnings:")
		assert.Contains(t, verr.Report, "undefined name 'df'")
	})

	t.Run("syntax problems reported as errors", func(t *testing.T) {
		script := "# %% tags=[\"parameters\"]\na = 1\n\n# %%\ndef f(:\n"
		s := newPySource(t, script, WithStaticAnalysis())
		err := s.Render(map[string]any{"a": 1})

		var verr *RenderValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Report, "static analysis errors:")
		assert.Contains(t, verr.Report, "invalid syntax")
	})

	t.Run("non-python static analysis is a usage error", func(t *testing.T) {
		s, err := FromString(rScript,
			WithExtension("R"),
			WithCatalog(kernels.DefaultStaticCatalog()),
			WithStaticAnalysis())
		require.NoError(t, err)

		err = s.Render(map[string]any{"a": 1})
		var uerr *UsageError
		require.ErrorAs(t, err, &uerr)
		assert.Contains(t, err.Error(), "only implemented for Python")
	})

	t.Run("no validation without the option", func(t *testing.T) {
		s := newPySource(t, pyScript)
		require.NoError(t, s.Render(map[string]any{"a": 1, "b": 2, "c": 3}))
		assert.Empty(t, s.Warnings())
	})
}

func TestHotReload(t *testing.T) {
	t.Run("requires a backing file", func(t *testing.T) {
		_, err := FromString(pyScript,
			WithExtension("py"),
			WithCatalog(kernels.DefaultStaticCatalog()),
			WithHotReload())
		var ierr *InitializationError
		require.ErrorAs(t, err, &ierr)
		assert.Contains(t, err.Error(), "hot reload")
	})

	t.Run("rendered output tracks the file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "task.py")
		require.NoError(t, os.WriteFile(path, []byte(pyScript), 0644))

		s, err := FromPath(path,
			WithCatalog(kernels.DefaultStaticCatalog()), WithHotReload())
		require.NoError(t, err)
		require.NoError(t, s.Render(map[string]any{"a": 1, "b": 2}))

		before, err := s.StrRendered()
		require.NoError(t, err)
		assert.NotContains(t, before, "z = 99")

		updated := pyScript + "\n# %%\nz = 99\n"
		require.NoError(t, os.WriteFile(path, []byte(updated), 0644))

		after, err := s.StrRendered()
		require.NoError(t, err)
		assert.Contains(t, after, "z = 99")
		assert.Contains(t, after, "a = 1")
	})

	t.Run("without hot reload the file is read once", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "task.py")
		require.NoError(t, os.WriteFile(path, []byte(pyScript), 0644))

		s, err := FromPath(path, WithCatalog(kernels.DefaultStaticCatalog()))
		require.NoError(t, err)
		require.NoError(t, s.Render(map[string]any{"a": 1, "b": 2}))

		require.NoError(t, os.WriteFile(path, []byte(pyScript+"\n# %%\nz = 99\n"), 0644))

		text, err := s.StrRendered()
		require.NoError(t, err)
		assert.NotContains(t, text, "z = 99")
	})
}

func TestDoc(t *testing.T) {
	t.Run("leading markdown cell", func(t *testing.T) {
		script := "# %% [markdown]\n# Cleans the raw data\n\n# %% tags=[\"parameters\"]\na = 1\n"
		s := newPySource(t, script)
		doc, err := s.Doc()
		require.NoError(t, err)
		assert.Equal(t, "Cleans the raw data", doc)
	})

	t.Run("triple quoted docstring", func(t *testing.T) {
		script := "# %%\n\"\"\"Loads the dataset\"\"\"\nimport math\n\n# %% tags=[\"parameters\"]\na = 1\n"
		s := newPySource(t, script)
		doc, err := s.Doc()
		require.NoError(t, err)
		assert.Equal(t, "Loads the dataset", doc)
	})

	t.Run("no docstring", func(t *testing.T) {
		s := newPySource(t, pyScript)
		doc, err := s.Doc()
		require.NoError(t, err)
		assert.Equal(t, "", doc)
	})
}

func TestExtractDeclarations(t *testing.T) {
	script := "# %% tags=[\"parameters\"]\nupstream = ['clean']\nproduct = {'nb': 'out.ipynb'}\n\n# %%\nprint(product)\n"

	t.Run("python declarations", func(t *testing.T) {
		s := newPySource(t, script)

		up, err := s.ExtractUpstream()
		require.NoError(t, err)
		assert.Equal(t, []string{"clean"}, up)

		product, err := s.ExtractProduct()
		require.NoError(t, err)
		assert.Equal(t, "{'nb': 'out.ipynb'}", product)
	})

	t.Run("unsupported language", func(t *testing.T) {
		s, err := FromString(rScript,
			WithExtension("R"), WithCatalog(kernels.DefaultStaticCatalog()))
		require.NoError(t, err)

		_, err = s.ExtractUpstream()
		assert.ErrorContains(t, err, "not implemented")
	})
}

func TestIpynbInput(t *testing.T) {
	notebook := `{
  "cells": [
    {"cell_type": "code", "metadata": {"tags": ["parameters"]}, "source": "a = 1", "outputs": []}
  ],
  "metadata": {
    "kernelspec": {"name": "python3", "display_name": "Python 3", "language": "python"}
  },
  "nbformat": 4,
  "nbformat_minor": 5
}`

	s, err := FromString(notebook,
		WithExtension("ipynb"), WithCatalog(kernels.DefaultStaticCatalog()))
	require.NoError(t, err)
	assert.Equal(t, "python", s.Language())

	require.NoError(t, s.Render(map[string]any{"a": 2}))
	text, err := s.StrRendered()
	require.NoError(t, err)
	assert.True(t, strings.Contains(text, "a = 2"))
}
