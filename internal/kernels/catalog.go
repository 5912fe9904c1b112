// Package kernels resolves which execution kernel a notebook document is
// bound to. It combines an installed-kernel catalog with a priority chain of
// resolution heuristics (explicit name, document metadata, file extension,
// content sniffing).
package kernels

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"notekit/internal/logging"
)

// Spec is an immutable kernel identity: name, display name and language,
// sourced from the installed-kernel catalog.
type Spec struct {
	Name        string
	DisplayName string
	Language    string
}

// Catalog looks up installed kernel specs by name. Implementations are
// read-only; concurrent lookups are safe.
type Catalog interface {
	Get(name string) (Spec, error)
	List() ([]Spec, error)
}

// NotFoundError reports a kernel name absent from the catalog.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no kernel named %q is installed", e.Name)
}

// kernelJSON is the relevant subset of a Jupyter kernel.json file.
type kernelJSON struct {
	DisplayName string `json:"display_name"`
	Language    string `json:"language"`
}

// JupyterCatalog reads kernel specs from Jupyter kernel directories
// (<dir>/<name>/kernel.json).
type JupyterCatalog struct {
	searchPaths []string
}

// NewJupyterCatalog builds a filesystem catalog over the given kernel
// directories. With no arguments it uses the standard Jupyter locations.
func NewJupyterCatalog(searchPaths ...string) *JupyterCatalog {
	if len(searchPaths) == 0 {
		searchPaths = DefaultSearchPaths()
	}
	return &JupyterCatalog{searchPaths: searchPaths}
}

// DefaultSearchPaths returns the standard Jupyter kernel directories for the
// current user, honoring JUPYTER_PATH when set.
func DefaultSearchPaths() []string {
	var paths []string
	if jp := os.Getenv("JUPYTER_PATH"); jp != "" {
		for _, p := range filepath.SplitList(jp) {
			paths = append(paths, filepath.Join(p, "kernels"))
		}
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".local", "share", "jupyter", "kernels"))
	}
	paths = append(paths,
		filepath.Join("/usr", "local", "share", "jupyter", "kernels"),
		filepath.Join("/usr", "share", "jupyter", "kernels"),
	)
	return paths
}

// Get looks up a kernel by directory name across the search paths.
func (c *JupyterCatalog) Get(name string) (Spec, error) {
	for _, dir := range c.searchPaths {
		path := filepath.Join(dir, name, "kernel.json")
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var kj kernelJSON
		if err := json.Unmarshal(data, &kj); err != nil {
			logging.KernelWarn("skipping malformed kernel.json at %s: %v", path, err)
			continue
		}
		return Spec{Name: name, DisplayName: kj.DisplayName, Language: kj.Language}, nil
	}
	return Spec{}, &NotFoundError{Name: name}
}

// List enumerates every kernel found across the search paths. The first
// directory that defines a name wins, matching Jupyter's shadowing rules.
func (c *JupyterCatalog) List() ([]Spec, error) {
	seen := map[string]bool{}
	var specs []Spec
	for _, dir := range c.searchPaths {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if !e.IsDir() || seen[e.Name()] {
				continue
			}
			spec, err := c.Get(e.Name())
			if err != nil {
				continue
			}
			seen[e.Name()] = true
			specs = append(specs, spec)
		}
	}
	sort.Slice(specs, func(i, j int) bool { return specs[i].Name < specs[j].Name })
	return specs, nil
}

// StaticCatalog is a fixed in-memory catalog, used in tests and as the
// embedded default when no Jupyter installation is available.
type StaticCatalog struct {
	specs map[string]Spec
}

// NewStaticCatalog builds a catalog from the given specs.
func NewStaticCatalog(specs ...Spec) *StaticCatalog {
	m := make(map[string]Spec, len(specs))
	for _, s := range specs {
		m[s.Name] = s
	}
	return &StaticCatalog{specs: m}
}

// DefaultStaticCatalog returns a catalog holding the conventional Python and
// R kernels.
func DefaultStaticCatalog() *StaticCatalog {
	return NewStaticCatalog(
		Spec{Name: "python3", DisplayName: "Python 3", Language: "python"},
		Spec{Name: "ir", DisplayName: "R", Language: "r"},
	)
}

func (c *StaticCatalog) Get(name string) (Spec, error) {
	if s, ok := c.specs[name]; ok {
		return s, nil
	}
	return Spec{}, &NotFoundError{Name: name}
}

func (c *StaticCatalog) List() ([]Spec, error) {
	specs := make([]Spec, 0, len(c.specs))
	for _, s := range c.specs {
		specs = append(specs, s)
	}
	sort.Slice(specs, func(i, j int) bool { return specs[i].Name < specs[j].Name })
	return specs, nil
}
