package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"notekit/internal/source"
)

var checkParams []string

// checkCmd validates parameters against a source file without keeping the
// rendered result.
var checkCmd = &cobra.Command{
	Use:   "check [file]",
	Short: "Validate parameters against a file's parameters cell",
	Long: `Renders the file with static analysis on and reports the composite
validation findings: non-declared parameters, checker warnings and checker
errors. Missing parameters are reported as warnings only.`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringArrayVarP(&checkParams, "param", "p", nil, "parameter as name=value (value parsed as JSON when possible)")
}

func runCheck(cmd *cobra.Command, args []string) error {
	p, err := parseParams(checkParams)
	if err != nil {
		return err
	}

	src, err := buildSource(args[0], source.WithStaticAnalysis())
	if err != nil {
		return err
	}

	err = src.Render(p)
	for _, w := range src.Warnings() {
		fmt.Fprintf(cmd.OutOrStdout(), "warning: %s\n", w)
	}

	var verr *source.RenderValidationError
	if errors.As(err, &verr) {
		fmt.Fprint(cmd.OutOrStdout(), verr.Report)
		return fmt.Errorf("validation failed")
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "ok")
	return nil
}
