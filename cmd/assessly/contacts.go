package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/ashwinyue/assessly/internal/service"
	"github.com/spf13/cobra"
)

var contactsCmd = &cobra.Command{
	Use:   "contacts",
	Short: "List the most recent contact records",
	RunE: func(cmd *cobra.Command, _ []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		cfg, log, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		store, closeFn, err := service.OpenContacts(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer func() { _ = closeFn() }()

		records, err := store.List(cmd.Context(), limit)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TIMESTAMP\tNAME\tEMAIL\tMESSAGE")
		for _, r := range records {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.CreatedAt.Format(time.RFC3339), r.Name, r.Email, r.Message)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(contactsCmd)
	contactsCmd.Flags().IntP("limit", "n", 20, "Number of records to show")
}
