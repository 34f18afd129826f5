package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/samvad-hq/campaign-mirror/internal/app"
	"github.com/samvad-hq/campaign-mirror/internal/config"
	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history [--limit N]",
	Short: "List recent mirror runs from the local journal, newest first.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.LoadLocal(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		journal, err := app.OpenJournal(cfg)
		if err != nil {
			return err
		}
		defer journal.Close()

		records, err := journal.Recent(historyLimit)
		if err != nil {
			return fmt.Errorf("read journal: %w", err)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "STARTED\tOUTCOME\tDETAIL URL\tERROR")
		for _, rec := range records {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", rec.StartedAt.Format(time.RFC3339), rec.Outcome, rec.DetailURL, rec.Error)
		}
		return w.Flush()
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of runs to show (0 for all)")
}
