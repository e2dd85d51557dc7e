package main

import (
	"github.com/spf13/cobra"

	"dukaan/backend/internal/analytics"
	"dukaan/backend/internal/dashboard"
	"dukaan/backend/internal/domain"
)

type totalsOutput struct {
	Store       string        `json:"store"`
	Period      string        `json:"period"`
	Totals      domain.Totals `json:"totals"`
	Outstanding float64       `json:"outstanding"`
	Products    int           `json:"product_count"`
}

func newTotalsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "totals",
		Short:   "Print invoice count, paid and revenue sums of a period",
		Example: `  dukaanctl totals --file backup.json --period monthly`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := loadDataset(opts)
			if err != nil {
				return err
			}
			now, err := opts.referenceTime()
			if err != nil {
				return err
			}
			resp := dashboard.Compute(ds.invoices, ds.store, ds.products, analytics.ParsePeriod(opts.period), now)
			return printJSON(cmd.OutOrStdout(), totalsOutput{
				Store:       ds.store,
				Period:      resp.Period,
				Totals:      resp.Totals,
				Outstanding: resp.Outstanding,
				Products:    resp.ProductCount,
			})
		},
	}
}
