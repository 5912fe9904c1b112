package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"notekit/internal/params"
)

// inspectCmd prints what resolution determined about a source file.
var inspectCmd = &cobra.Command{
	Use:   "inspect [file]",
	Short: "Show the resolved language, kernel and parameters cell of a file",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func runInspect(cmd *cobra.Command, args []string) error {
	src, err := buildSource(args[0])
	if err != nil {
		return err
	}

	doc, err := src.ObjUnrendered()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "name:      %s\n", src.Name())
	fmt.Fprintf(out, "language:  %s\n", src.Language())
	if ks := doc.Metadata.Kernelspec; ks != nil {
		fmt.Fprintf(out, "kernel:    %s (%s)\n", ks.Name, ks.DisplayName)
	}
	fmt.Fprintf(out, "cells:     %d\n", len(doc.Cells))

	if docstring, err := src.Doc(); err == nil && docstring != "" {
		fmt.Fprintf(out, "doc:       %s\n", docstring)
	}

	if cell, i := doc.FindCellWithTag(params.ParametersTag); cell != nil {
		fmt.Fprintf(out, "parameters cell (index %d):\n%s\n", i, cell.Source)
	}

	if upstream, err := src.ExtractUpstream(); err == nil && len(upstream) > 0 {
		fmt.Fprintf(out, "upstream:  %v\n", upstream)
	}
	if product, err := src.ExtractProduct(); err == nil && product != "" {
		fmt.Fprintf(out, "product:   %s\n", product)
	}
	return nil
}
