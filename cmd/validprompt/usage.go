package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"validprompt/internal/models"
	"validprompt/internal/ratelimit"
)

func newUsageCmd() *cobra.Command {
	var (
		date string
		ip   string
	)

	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Show per-IP request counts for a day",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logCloser, err := loadConfig()
			if err != nil {
				return err
			}
			defer logCloser.Close()

			day := ratelimit.Day(time.Now())
			if date != "" {
				if day, err = ratelimit.ParseDay(date); err != nil {
					return fmt.Errorf("invalid --date %q, expected YYYY-MM-DD", date)
				}
			}

			ctx := context.Background()
			ledger, err := ratelimit.Open(ctx, cfg)
			if err != nil {
				return err
			}
			defer ledger.Close()

			var records []models.UsageRecord
			if ip != "" {
				count, err := ledger.Usage(ctx, ip, day)
				if err != nil {
					return err
				}
				records = []models.UsageRecord{{IP: ip, Date: day, Count: count}}
			} else {
				if records, err = ledger.List(ctx, day); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintf(out, "No usage recorded for %s.\n", day)
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "IP\tDATE\tCOUNT\tREMAINING")
			for _, r := range records {
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\n", r.IP, r.Date, r.Count, r.Remaining(cfg.DailyLimit))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "day to show (YYYY-MM-DD, default today UTC)")
	cmd.Flags().StringVar(&ip, "ip", "", "show a single client IP")
	return cmd
}
