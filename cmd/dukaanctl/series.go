package main

import (
	"github.com/spf13/cobra"

	"dukaan/backend/internal/analytics"
	"dukaan/backend/internal/dashboard"
	"dukaan/backend/internal/domain"
)

type seriesOutput struct {
	Store  string        `json:"store"`
	Period string        `json:"period"`
	Series domain.Series `json:"series"`
	Axis   domain.Axis   `json:"axis"`
}

func newSeriesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "series",
		Short: "Print the chart series of a period",
		Example: `  dukaanctl series --file backup.json --period weekly
  dukaanctl series --file invoices.json --store "Hodan Market" --period yearly`,
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
			return printJSON(cmd.OutOrStdout(), seriesOutput{
				Store:  ds.store,
				Period: resp.Period,
				Series: resp.Series,
				Axis:   resp.Axis,
			})
		},
	}
}
