package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"notekit/internal/kernels"
	"notekit/internal/source"
)

var (
	renderParams   []string
	renderOut      string
	renderKernel   string
	renderAnalysis bool
)

// renderCmd resolves a source file and writes the parameterized notebook.
var renderCmd = &cobra.Command{
	Use:   "render [file]",
	Short: "Inject parameters into a script or notebook",
	Long: `Resolves the file's language and kernel, injects the given parameters
into its "parameters" cell and writes the rendered notebook.

Example:
  notekit render analysis.py -p sample_size=100 -o analysis.ipynb`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	renderCmd.Flags().StringArrayVarP(&renderParams, "param", "p", nil, "parameter as name=value (value parsed as JSON when possible)")
	renderCmd.Flags().StringVarP(&renderOut, "output", "o", "", "output file (default: stdout)")
	renderCmd.Flags().StringVar(&renderKernel, "kernel", "", "explicit kernel name, overrides document metadata")
	renderCmd.Flags().BoolVar(&renderAnalysis, "static-analysis", false, "validate parameters and run the static checker")
}

func buildSource(path string, extra ...source.Option) (*source.NotebookSource, error) {
	opts := []source.Option{
		source.WithCatalog(kernels.NewJupyterCatalog(cfg.Kernels.SearchPaths...)),
	}
	opts = append(opts, extra...)
	return source.FromPath(path, opts...)
}

func runRender(cmd *cobra.Command, args []string) error {
	path := args[0]
	p, err := parseParams(renderParams)
	if err != nil {
		return err
	}

	var opts []source.Option
	if renderKernel != "" {
		opts = append(opts, source.WithKernelspecName(renderKernel))
	}
	if renderAnalysis || cfg.Render.StaticAnalysis {
		opts = append(opts, source.WithStaticAnalysis())
	}

	src, err := buildSource(path, opts...)
	if err != nil {
		return err
	}

	logger.Info("Rendering notebook",
		zap.String("path", path),
		zap.Int("params", len(p)))

	if err := src.Render(p); err != nil {
		return err
	}
	for _, w := range src.Warnings() {
		logger.Warn(w)
	}

	text, err := src.StrRendered()
	if err != nil {
		return err
	}
	if renderOut == "" {
		fmt.Fprintln(cmd.OutOrStdout(), text)
		return nil
	}
	if err := os.WriteFile(renderOut, []byte(text+"\n"), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", renderOut, err)
	}
	logger.Info("Rendered notebook written", zap.String("output", renderOut))
	return nil
}
