package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/subcommands"

	"github.com/jask/calendarspent/internal/date"
	"github.com/jask/calendarspent/internal/model"
	"github.com/jask/calendarspent/internal/report"
)

type summaryCmd struct {
	by    string
	month string
}

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "spending totals by day, week, month or category" }
func (*summaryCmd) Usage() string {
	return `summary [-by day|week|month|category] [-m YYYY-MM]

  Totals for the given month (defaults to the current one). Skipped
  occurrences never count.
`
}

func (c *summaryCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.by, "by", "category", "Grouping: day, week, month or category.")
	f.StringVar(&c.month, "m", "", "Month as YYYY-MM.")
}

func monthArg(s string, today date.Date) (date.Date, error) {
	if s == "" {
		return today.StartOfMonth(), nil
	}
	return date.Parse(s + "-01")
}

func (c *summaryCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(a *app) error {
		month, err := monthArg(c.month, a.engine.Today())
		if err != nil {
			return err
		}
		from, to := month, month.EndOfMonth()
		if c.by == "month" {
			from, to = date.New(month.Year(), 1, 1), month.EndOfYear()
		}
		res := a.engine.Query(report.Between(from, to))
		names := model.CategoryNames(a.engine.Categories())

		var rows [][2]string
		switch strings.ToLower(c.by) {
		case "category":
			totals := report.ByCategory(res.Entries)
			sort.SliceStable(totals, func(i, j int) bool { return totals[i].Total.GreaterThan(totals[j].Total) })
			for _, t := range totals {
				rows = append(rows, [2]string{fmt.Sprintf("%s (%d)", categoryName(names, t.CategoryID), t.Count), a.money(t.Total)})
			}
		case "day":
			for _, b := range report.Daily(res.Entries, from, to) {
				if b.Count > 0 {
					rows = append(rows, [2]string{b.Start.String(), a.money(b.Total)})
				}
			}
		case "week":
			for _, b := range report.Weekly(res.Entries, a.cfg.UI.FirstWeekday()) {
				rows = append(rows, [2]string{b.Start.String() + " – " + b.End.String(), a.money(b.Total)})
			}
		case "month":
			for _, b := range report.Monthly(res.Entries) {
				rows = append(rows, [2]string{b.Start.MonthKey(), a.money(b.Total)})
			}
		default:
			return fmt.Errorf("unknown grouping %q", c.by)
		}

		fmt.Println(titleStyle.Render(fmt.Sprintf("Spending %s to %s", from, to)))
		label := lipgloss.NewStyle().Width(32)
		for _, r := range rows {
			fmt.Println(label.Render(r[0]) + r[1])
		}
		fmt.Println(label.Render(dimStyle.Render("total")) + a.money(res.Total))
		return nil
	})
}

type budgetsCmd struct{ month string }

func (*budgetsCmd) Name() string     { return "budgets" }
func (*budgetsCmd) Synopsis() string { return "show budget status for a month" }
func (*budgetsCmd) Usage() string    { return "budgets [-m YYYY-MM]\n" }

func (c *budgetsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.month, "m", "", "Month as YYYY-MM.")
}

func (c *budgetsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(a *app) error {
		month, err := monthArg(c.month, a.engine.Today())
		if err != nil {
			return err
		}
		lines := a.engine.BudgetStatus(month)
		if len(lines) == 0 {
			fmt.Fprintln(os.Stderr, dimStyle.Render("no budgets set"))
			return nil
		}
		names := model.CategoryNames(a.engine.Categories())
		fmt.Println(titleStyle.Render("Budgets " + month.MonthKey()))
		for _, l := range lines {
			state := okStyle.Render(report.FormatAmount(l.Remaining, a.currency()) + " left")
			if l.Over {
				state = errStyle.Render(report.FormatAmount(l.Remaining.Neg(), a.currency()) + " over")
			}
			fmt.Printf("%-20s %s / %s  %s\n", categoryName(names, l.CategoryID),
				a.money(l.Spent), a.money(l.Limit), state)
		}
		return nil
	})
}
