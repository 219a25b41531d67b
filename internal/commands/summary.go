package commands

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"aura/internal/analytics"
	"aura/internal/core"
)

const dateLayout = "2006-01-02"

func newSummaryCommand() *cobra.Command {
	var (
		user, from, to    string
		banks, categories []string
		insights, asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the spending summary of a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := buildFilter(from, to, banks, categories)
			if err != nil {
				return err
			}
			return withEnv(cmd, func(ctx context.Context, e *env) error {
				u, err := e.resolveUser(ctx, user)
				if err != nil {
					return err
				}
				if insights {
					out, err := e.app.Dashboard.Insights(ctx, u.ID, f)
					if err != nil {
						return err
					}
					if asJSON {
						return printJSON(cmd, out)
					}
					return writeInsights(cmd.OutOrStdout(), out)
				}
				out, err := e.app.Dashboard.Summary(ctx, u.ID, f)
				if err != nil {
					return err
				}
				if asJSON {
					return printJSON(cmd, out)
				}
				return writeSummary(cmd.OutOrStdout(), out)
			})
		},
	}

	addUserFlag(cmd, &user)
	cmd.Flags().StringVar(&from, "from", "", "first day, YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "last day, YYYY-MM-DD")
	cmd.Flags().StringSliceVar(&banks, "bank", nil, "restrict to bank ids")
	cmd.Flags().StringSliceVar(&categories, "category", nil, "restrict to categories")
	cmd.Flags().BoolVar(&insights, "insights", false, "print insights instead of the summary")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw JSON document")

	return cmd
}

func buildFilter(from, to string, banks, categories []string) (analytics.Filter, error) {
	f := analytics.Filter{BankIDs: banks, Categories: categories}
	var err error
	if from != "" {
		if f.From, err = time.Parse(dateLayout, from); err != nil {
			return analytics.Filter{}, fmt.Errorf("--from: %w", err)
		}
	}
	if to != "" {
		if f.To, err = time.Parse(dateLayout, to); err != nil {
			return analytics.Filter{}, fmt.Errorf("--to: %w", err)
		}
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return analytics.Filter{}, fmt.Errorf("--to %s is before --from %s", to, from)
	}
	return f, nil
}

func writeSummary(w io.Writer, s analytics.Summary) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Income\t%s\n", core.FormatAmount(s.TotalIncome, core.DefaultCurrency))
	fmt.Fprintf(tw, "Expenses\t%s\n", core.FormatAmount(s.TotalExpenses, core.DefaultCurrency))
	fmt.Fprintf(tw, "Net\t%s\n", core.FormatAmount(s.NetIncome, core.DefaultCurrency))
	fmt.Fprintf(tw, "Transactions\t%d\n", s.TransactionCount)
	for _, m := range s.MonthlyData {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", m.Period,
			core.FormatAmount(m.Income, ""), core.FormatAmount(m.Expenses.Neg(), ""))
	}
	for _, c := range s.CategoryBreakdown {
		fmt.Fprintf(tw, "%s\t%s\t%.2f%%\n", c.Name, core.FormatAmount(c.Amount, ""), c.Percentage)
	}
	return tw.Flush()
}

func writeInsights(w io.Writer, in analytics.Insights) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Health score\t%d (%s)\n", in.HealthScore, in.Grade)
	fmt.Fprintf(tw, "Savings rate\t%.2f%%\n", in.SavingsRate)
	fmt.Fprintf(tw, "Average monthly expenses\t%s\n", core.FormatAmount(in.AverageMonthlyExpenses, core.DefaultCurrency))
	for _, sg := range in.Suggestions {
		fmt.Fprintf(tw, "- %s\t%s\n", sg.Title, sg.Message)
	}
	return tw.Flush()
}
