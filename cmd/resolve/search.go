package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/helixir/literature-resolution-service/internal/resolver"
)

func newSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <title>",
		Short: "Resolve a paper by title and optional author",
		Long: `search queries the scholarly-search mirrors. When a result page names a DOI
the DOI path takes over with the remaining attempt budget; otherwise up to
resolver.max_listings listings are printed.`,
		Example: `  resolve search "Deep residual learning for image recognition" --author He`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			title := strings.TrimSpace(strings.Join(args, " "))
			if title == "" {
				return fmt.Errorf("title must not be blank")
			}
			author, _ := cmd.Flags().GetString("author")

			a, err := buildApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			records := a.Resolver.Resolve(cmd.Context(), resolver.Request{Query: title, Author: author})
			return writeJSON(cmd, records)
		},
	}

	cmd.Flags().String("author", "", "author name to narrow the search")
	return cmd
}
