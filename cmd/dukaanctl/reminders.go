package main

import (
	"github.com/spf13/cobra"

	"dukaan/backend/internal/analytics"
	"dukaan/backend/internal/domain"
	"dukaan/backend/internal/reminder"
)

func newRemindersCmd(opts *options) *cobra.Command {
	var phone string
	cmd := &cobra.Command{
		Use:   "reminders",
		Short: "Print grouped payment reminders for unpaid invoices",
		Long: `Groups invoices with an outstanding balance by customer phone and name
and renders the WhatsApp and SMS messages with the store's templates.
Templates and the store phone come from the snapshot when present.`,
		Example: `  dukaanctl reminders --file backup.json
  dukaanctl reminders --file invoices.json --store "Hodan Market" --phone +252615111222`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := loadDataset(opts)
			if err != nil {
				return err
			}
			now, err := opts.referenceTime()
			if err != nil {
				return err
			}

			templates := reminder.DefaultTemplates(ds.store)
			if ds.templates != nil {
				templates = *ds.templates
			}
			sender := reminder.Sender{Store: ds.store, Phone: phone}
			if sender.Phone == "" && ds.owner != nil {
				sender.Phone = ds.owner.Phone
			}

			invoices := analytics.FilterInvoicesByPeriod(ds.invoices, ds.store, analytics.ParsePeriod(opts.period), now)
			reminders := make([]domain.Reminder, 0)
			for _, group := range reminder.GroupInvoices(invoices) {
				msg, err := reminder.Compose(templates, sender, group)
				if err != nil {
					continue
				}
				reminders = append(reminders, msg)
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"store":     ds.store,
				"reminders": reminders,
			})
		},
	}
	cmd.Flags().StringVar(&phone, "phone", "", "Store phone used in the {phone} placeholder")
	return cmd
}
