package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tsukikage7/cronkit/cron"
)

// nextSearchLimit 查找下一次到期时间的最大范围.
const nextSearchLimit = 366 * 24 * time.Hour

func newCheckCmd() *cobra.Command {
	var (
		at    string
		count int
	)

	cmd := &cobra.Command{
		Use:   "check <expression>",
		Short: "Parse an expression and list its next due instants",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			expr, err := cron.Parse(args[0])
			if err != nil {
				return err
			}

			ref := time.Now().Truncate(time.Second)
			if at != "" {
				if ref, err = time.Parse(time.RFC3339, at); err != nil {
					return fmt.Errorf("invalid --at: %w", err)
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "expression: %s\n", expr)
			for _, kind := range []cron.FieldKind{cron.Second, cron.Minute, cron.Hour, cron.DayOfMonth, cron.Month, cron.DayOfWeek} {
				fmt.Fprintf(out, "  %-13s %s\n", kind.String()+":", expr.Field(kind))
			}
			fmt.Fprintf(out, "due at %s: %t\n", ref.Format(time.RFC3339), expr.IsDue(ref))

			if count <= 0 {
				return nil
			}
			fmt.Fprintln(out, "next:")
			t := ref
			for range count {
				next, ok := expr.Next(t, nextSearchLimit)
				if !ok {
					fmt.Fprintln(out, "  (none within a year)")
					break
				}
				fmt.Fprintf(out, "  %s\n", next.Format(time.RFC3339))
				t = next
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "reference time in RFC3339 (default now)")
	cmd.Flags().IntVarP(&count, "count", "n", 5, "number of upcoming due instants to list")
	return cmd
}
