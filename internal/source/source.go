// Package source exposes NotebookSource, the facade that resolves a script
// or notebook document into a fully specified, parameterizable executable
// unit. It owns the caching and hot-reload policy over four lazily computed
// artifacts (unrendered text/document, rendered text/document), binds the
// kernel identity at construction time, and delegates parameter injection
// and validation to the collaborating packages.
package source

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"notekit/internal/extract"
	"notekit/internal/kernels"
	"notekit/internal/logging"
	"notekit/internal/nbformat"
	"notekit/internal/params"
	"notekit/internal/transcode"
)

// Placeholder is a path-bearing, stringifiable content holder, the shape
// produced by template-based source loaders.
type Placeholder interface {
	Path() string
	fmt.Stringer
}

// Option configures a NotebookSource at construction.
type Option func(*NotebookSource)

// WithExtension sets the source format extension. Required when the source
// is initialized from a string; forbidden when a path determines it.
func WithExtension(ext string) Option {
	return func(s *NotebookSource) { s.ext = strings.TrimPrefix(ext, ".") }
}

// WithKernelspecName forces the execution kernel, overriding any kernelspec
// metadata in the document.
func WithKernelspecName(name string) Option {
	return func(s *NotebookSource) { s.kernelspecName = name }
}

// WithHotReload makes every access re-read the backing file before use.
// Only valid for sources loaded from a file.
func WithHotReload() Option {
	return func(s *NotebookSource) { s.hotReload = true }
}

// WithStaticAnalysis runs the validator on every render.
func WithStaticAnalysis() Option {
	return func(s *NotebookSource) { s.staticAnalysis = true }
}

// WithCatalog sets the installed-kernel catalog. Defaults to the Jupyter
// filesystem catalog.
func WithCatalog(c kernels.Catalog) Option {
	return func(s *NotebookSource) { s.catalog = c }
}

// NotebookSource is a source object representing a notebook (or any script
// format the transcoder supports). Render prepares it for execution: it
// injects the parameters and makes sure kernelspec metadata is defined.
type NotebookSource struct {
	primitive      string
	path           string
	ext            string
	kernelspecName string
	hotReload      bool
	staticAnalysis bool
	catalog        kernels.Catalog
	language       string

	lastParams map[string]any
	rendered   bool
	warnings   []string

	strUnrendered cacheCell[string]
	objUnrendered cacheCell[*nbformat.Document]
	strRendered   cacheCell[string]
	objRendered   cacheCell[*nbformat.Document]
}

// FromString builds a source from raw text. WithExtension is required so
// the transcoder knows the format.
func FromString(text string, opts ...Option) (*NotebookSource, error) {
	s := newSource(opts...)
	if s.ext == "" {
		return nil, initErrorf("an extension is required when a notebook is " +
			"initialized from a string; either load it from a file or set " +
			"the extension explicitly")
	}
	s.primitive = text
	return s.initialize()
}

// FromPath builds a source from a file; the extension comes from the file
// name and must not be set explicitly.
func FromPath(path string, opts ...Option) (*NotebookSource, error) {
	s := newSource(opts...)
	if s.ext != "" {
		return nil, initErrorf("the extension must not be set when notebook "+
			"%q is initialized from a path; it is determined from the file name", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, initErrorf("reading notebook %q: %v", path, err)
	}
	s.path = path
	s.primitive = string(data)
	s.ext = strings.TrimPrefix(filepath.Ext(path), ".")
	return s.initialize()
}

// FromPlaceholder builds a source from a rendered placeholder, taking the
// extension from the placeholder's path.
func FromPlaceholder(p Placeholder, opts ...Option) (*NotebookSource, error) {
	s := newSource(opts...)
	if s.ext != "" {
		return nil, initErrorf("the extension must not be set when notebook "+
			"%q is initialized from a placeholder; it is determined from the path", p.Path())
	}
	s.path = p.Path()
	s.primitive = p.String()
	s.ext = strings.TrimPrefix(filepath.Ext(s.path), ".")
	return s.initialize()
}

func newSource(opts ...Option) *NotebookSource {
	s := &NotebookSource{}
	for _, opt := range opts {
		opt(s)
	}
	if s.catalog == nil {
		s.catalog = kernels.NewJupyterCatalog()
	}
	return s
}

// initialize runs the construction-time checks: hot-reload needs a backing
// path, the kernel must resolve, and a parameters cell must exist.
func (s *NotebookSource) initialize() (*NotebookSource, error) {
	if s.hotReload && s.path == "" {
		return nil, initErrorf("hot reload only works when the notebook is loaded from a file")
	}

	s.language = kernels.DetermineLanguage(s.ext)

	_, doc, err := s.readUnrendered()
	if err != nil {
		return nil, err
	}

	if cell, _ := doc.FindCellWithTag(params.ParametersTag); cell == nil {
		return nil, initErrorf("notebook%s does not have a cell tagged %q",
			s.locLabel(), params.ParametersTag)
	}

	logging.SourceDebug("initialized notebook source%s (ext=%s, hot_reload=%v)",
		s.locLabel(), s.ext, s.hotReload)
	return s, nil
}

func (s *NotebookSource) locLabel() string {
	if s.path == "" {
		return ""
	}
	return fmt.Sprintf(" %q", s.path)
}

// Primitive returns the raw source text, re-reading the backing file first
// when hot reload is on.
func (s *NotebookSource) Primitive() (string, error) {
	if s.hotReload {
		data, err := os.ReadFile(s.path)
		if err != nil {
			return "", fmt.Errorf("re-reading notebook %q: %w", s.path, err)
		}
		s.primitive = string(data)
	}
	return s.primitive, nil
}

// readUnrendered returns the unrendered notebook text and document,
// recomputing from the raw source when unset or when hot reload demands a
// fresh read. Kernel resolution happens here, so the returned document
// always carries kernelspec metadata.
func (s *NotebookSource) readUnrendered() (string, *nbformat.Document, error) {
	if s.hotReload {
		s.strUnrendered.reset()
		s.objUnrendered.reset()
	}
	if !s.strUnrendered.ok() {
		raw, err := s.Primitive()
		if err != nil {
			return "", nil, err
		}

		doc, err := transcode.Reads(raw, s.ext)
		if err != nil {
			return "", nil, fmt.Errorf("transcoding notebook%s: %w", s.locLabel(), err)
		}

		if err := kernels.Ensure(doc, s.kernelspecName, s.ext, s.language, s.catalog); err != nil {
			return "", nil, initErrorf("notebook%s: %v", s.locLabel(), err)
		}

		// always write from the document, even when the input was
		// already ipynb: only the document carries the resolved
		// kernelspec
		text, err := transcode.Writes(doc)
		if err != nil {
			return "", nil, err
		}
		s.objUnrendered.set(doc)
		s.strUnrendered.set(text)
	}
	return s.strUnrendered.value(), s.objUnrendered.value(), nil
}

// Render fills the parameters into the document. The serialized parameter
// set is remembered so hot-reload reads can re-render transparently.
func (s *NotebookSource) Render(p map[string]any) error {
	serialized, err := params.Serialize(p)
	if err != nil {
		return err
	}
	s.lastParams = serialized
	return s.render()
}

func (s *NotebookSource) render() error {
	_, unrendered, err := s.readUnrendered()
	if err != nil {
		return err
	}

	work := unrendered.Clone()
	work.NormalizeTags()
	if work.Metadata.Extra == nil {
		work.Metadata.Extra = map[string]any{}
	}
	work.Metadata.Extra["papermill"] = map[string]any{}

	rendered, err := params.Parameterize(work, s.lastParams, false, "")
	if err != nil {
		return err
	}
	text, err := transcode.Writes(rendered)
	if err != nil {
		return err
	}

	// commit, but roll back if validation rejects the result: a failed
	// render must leave the previous rendered state untouched
	prevStr, prevObj, prevRendered := s.strRendered, s.objRendered, s.rendered
	s.strRendered.set(text)
	s.objRendered.set(rendered)
	s.rendered = true

	if s.staticAnalysis {
		if err := s.postRenderValidation(unrendered, rendered, s.lastParams); err != nil {
			s.strRendered, s.objRendered, s.rendered = prevStr, prevObj, prevRendered
			return err
		}
	}
	return nil
}

// StrRendered returns the rendered notebook text. With hot reload the full
// render pipeline re-executes first, so the result can never be stale.
func (s *NotebookSource) StrRendered() (string, error) {
	if !s.rendered {
		return "", usageErrorf("attempted to read the rendered notebook before rendering it; call Render first")
	}
	if s.hotReload {
		if err := s.render(); err != nil {
			return "", err
		}
	}
	return s.strRendered.value(), nil
}

// ObjRendered returns the rendered notebook document, hot reloading if
// necessary.
func (s *NotebookSource) ObjRendered() (*nbformat.Document, error) {
	if _, err := s.StrRendered(); err != nil {
		return nil, err
	}
	return s.objRendered.value(), nil
}

// StrUnrendered returns the unrendered notebook text: the raw source in
// notebook form, without injected parameters but with kernelspec metadata.
func (s *NotebookSource) StrUnrendered() (string, error) {
	text, _, err := s.readUnrendered()
	return text, err
}

// ObjUnrendered returns the unrendered notebook document.
func (s *NotebookSource) ObjUnrendered() (*nbformat.Document, error) {
	_, doc, err := s.readUnrendered()
	return doc, err
}

// Loc returns the backing file path, empty for string-loaded sources.
func (s *NotebookSource) Loc() string { return s.path }

// Name returns the backing file name, empty for string-loaded sources.
func (s *NotebookSource) Name() string {
	if s.path == "" {
		return ""
	}
	return filepath.Base(s.path)
}

// Language returns the notebook language (all lowercase). Best effort:
// extension first, kernelspec metadata second, "" when undeterminable.
func (s *NotebookSource) Language() string {
	if s.language != "" {
		return s.language
	}
	_, doc, err := s.readUnrendered()
	if err != nil || doc.Metadata.Kernelspec == nil {
		return ""
	}
	return strings.ToLower(doc.Metadata.Kernelspec.Language)
}

// Warnings returns the advisory warnings accumulated by validation
// (missing parameters that will fall back to in-source defaults).
func (s *NotebookSource) Warnings() []string {
	return append([]string(nil), s.warnings...)
}

// String returns the cell sources joined with newlines, preferring the
// rendered form when one exists.
func (s *NotebookSource) String() string {
	if s.rendered {
		return s.objRendered.value().Source()
	}
	if s.objUnrendered.ok() {
		return s.objUnrendered.value().Source()
	}
	return s.primitive
}

// parametersCellSource returns the source of the parameters cell from the
// latest unrendered document.
func (s *NotebookSource) parametersCellSource() (string, error) {
	_, doc, err := s.readUnrendered()
	if err != nil {
		return "", err
	}
	cell, _ := doc.FindCellWithTag(params.ParametersTag)
	if cell == nil {
		return "", initErrorf("notebook%s does not have a cell tagged %q",
			s.locLabel(), params.ParametersTag)
	}
	return cell.Source, nil
}

// ExtractUpstream reads the declared upstream dependencies from the
// parameters cell using the language's extractor.
func (s *NotebookSource) ExtractUpstream() ([]string, error) {
	src, err := s.parametersCellSource()
	if err != nil {
		return nil, err
	}
	return extract.For(s.Language(), src).ExtractUpstream()
}

// ExtractProduct reads the declared product from the parameters cell using
// the language's extractor.
func (s *NotebookSource) ExtractProduct() (string, error) {
	src, err := s.parametersCellSource()
	if err != nil {
		return "", err
	}
	return extract.For(s.Language(), src).ExtractProduct()
}
