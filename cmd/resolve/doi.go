package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/helixir/literature-resolution-service/internal/query"
	"github.com/helixir/literature-resolution-service/internal/resolver"
)

func newDOICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doi <doi>",
		Short: "Resolve a paper by DOI",
		Long: `doi resolves one DOI through the document-delivery mirrors. Exactly one
record is printed: the paper, or a stub listing mirror links to try by hand.`,
		Example: "  resolve doi 10.1038/nature14539\n  resolve doi https://doi.org/10.1038/nature14539",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doi := query.FindDOI(args[0])
			if doi == "" {
				return fmt.Errorf("%q does not contain a DOI", args[0])
			}

			a, err := buildApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			records := a.Resolver.Resolve(cmd.Context(), resolver.Request{DOI: doi})
			return writeJSON(cmd, records)
		},
	}
}
