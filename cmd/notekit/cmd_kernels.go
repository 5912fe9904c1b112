package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"notekit/internal/kernels"
)

// kernelsCmd lists the installed kernels the resolver can bind to.
var kernelsCmd = &cobra.Command{
	Use:   "kernels",
	Short: "List installed kernels",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog := kernels.NewJupyterCatalog(cfg.Kernels.SearchPaths...)
		specs, err := catalog.List()
		if err != nil {
			return err
		}
		if len(specs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no kernels found")
			return nil
		}
		for _, s := range specs {
			fmt.Fprintf(cmd.OutOrStdout(), "%-16s %-10s %s\n", s.Name, s.Language, s.DisplayName)
		}
		return nil
	},
}
