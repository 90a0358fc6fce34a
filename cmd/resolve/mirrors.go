package main

import (
	"github.com/spf13/cobra"

	"github.com/helixir/literature-resolution-service/internal/domain"
	"github.com/helixir/literature-resolution-service/internal/mirrors/health"
)

type mirrorsOutput struct {
	DOIMirrors    []domain.MirrorEndpoint  `json:"doi_mirrors"`
	SearchMirrors []domain.MirrorEndpoint  `json:"search_mirrors"`
	Relays        []domain.RelayDescriptor `json:"relays"`
	Health        []health.Result          `json:"health,omitempty"`
}

func newMirrorsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mirrors",
		Short: "List the mirror registries and relay chain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			out := mirrorsOutput{
				DOIMirrors:    a.Catalog.DOIMirrors(),
				SearchMirrors: a.Catalog.SearchMirrors(),
				Relays:        a.Catalog.Relays(),
			}

			if probe, _ := cmd.Flags().GetBool("probe"); probe {
				endpoints := append(a.Catalog.DOIMirrors(), a.Catalog.SearchMirrors()...)
				results, err := a.Prober.Probe(cmd.Context(), endpoints)
				if err != nil {
					return err
				}
				out.Health = results
			}

			return writeJSON(cmd, out)
		},
	}

	cmd.Flags().Bool("probe", false, "probe every mirror base URL and include reachability")
	return cmd
}
