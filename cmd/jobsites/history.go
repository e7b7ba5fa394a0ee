package main

import (
	"sort"

	"github.com/spf13/cobra"

	"relocation/internal/keys"
	"relocation/internal/models"
	"relocation/internal/resolver"
	"relocation/pkg/fallback"
	"relocation/pkg/geo"
)

// bookResolver opens a resolver that only reads the store.
func bookResolver(cmd *cobra.Command) (*resolver.Resolver, func(), error) {
	store, err := openStore(cmd.Context(), cmd)
	if err != nil {
		return nil, nil, err
	}
	r := resolver.New(store, nil, fallback.Bundled())
	return r, func() { _ = store.Close() }, nil
}

func newHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List recent successful lookups, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, closeStore, err := bookResolver(cmd)
			if err != nil {
				return err
			}
			defer closeStore()

			history := r.History(cmd.Context())
			p := newPrinter(cmd.OutOrStdout(), outputFormat(cmd))
			if p.format == "json" {
				if history == nil {
					history = []models.HistoryEntry{}
				}
				return p.json(history)
			}
			rows := make([][]string, 0, len(history))
			for _, h := range history {
				rows = append(rows, []string{h.Timestamp, h.LocationKey, joinNames(h.SiteNames)})
			}
			return p.table([]string{"TIME", "LOCATION", "SITES"}, rows)
		},
	}
}

func newCacheCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cache",
		Short: "List cached lookups by " + keys.Cache + " key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, closeStore, err := bookResolver(cmd)
			if err != nil {
				return err
			}
			defer closeStore()

			cache := r.Cache(cmd.Context())
			p := newPrinter(cmd.OutOrStdout(), outputFormat(cmd))
			if p.format == "json" {
				return p.json(cache)
			}
			locs := make([]string, 0, len(cache))
			for k := range cache {
				locs = append(locs, k)
			}
			sort.Strings(locs)
			rows := make([][]string, 0, len(locs))
			for _, k := range locs {
				rec := cache[k]
				rows = append(rows, []string{k, geo.Label(rec.RegionCode), joinNames(models.SiteNames(rec.Sites))})
			}
			return p.table([]string{"LOCATION", "REGION", "SITES"}, rows)
		},
	}
}

func newRegionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "regions",
		Short: "List regions available for manual selection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := newPrinter(cmd.OutOrStdout(), outputFormat(cmd))
			codes := geo.Codes()
			if p.format == "json" {
				out := make(map[string]string, len(codes))
				for _, c := range codes {
					out[c] = geo.Label(c)
				}
				return p.json(out)
			}
			rows := make([][]string, 0, len(codes))
			for _, c := range codes {
				rows = append(rows, []string{c, geo.Label(c)})
			}
			return p.table([]string{"CODE", "NAME"}, rows)
		},
	}
}
