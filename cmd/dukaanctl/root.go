package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"dukaan/backend/internal/logger"
)

var version = "1.0.0"

// options are the flags shared by every subcommand.
type options struct {
	file   string
	store  string
	period string
	now    string
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "dukaanctl",
		Short: "Offline tools for dukaan store data",
		Long: `dukaanctl reads an invoice export or a backup file and prints
dashboard series, totals or payment reminders as JSON.

The input may be a JSON array of invoices, an object with an "invoices"
field (a snapshot), or a downloaded backup with a "snapshot" field.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.file, "file", "f", "", "Path to an invoice export or backup file (required)")
	flags.StringVarP(&opts.store, "store", "s", "", "Store name, defaults to the store recorded in a snapshot")
	flags.StringVarP(&opts.period, "period", "p", "lifetime", "Period: lifetime, live, today, weekly, monthly or yearly")
	flags.StringVar(&opts.now, "now", "", "Reference time as RFC3339, defaults to the current time")
	_ = root.MarkPersistentFlagRequired("file")

	root.AddCommand(newSeriesCmd(opts), newTotalsCmd(opts), newRemindersCmd(opts))
	return root
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := newRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func (o *options) referenceTime() (time.Time, error) {
	if o.now == "" {
		return time.Now(), nil
	}
	t, err := time.Parse(time.RFC3339, o.now)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --now, use RFC3339: %w", err)
	}
	return t, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
