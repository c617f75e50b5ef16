package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/subcommands"

	"github.com/jask/calendarspent/internal/config"
	"github.com/jask/calendarspent/internal/database/repository"
	"github.com/jask/calendarspent/internal/model"
	"github.com/jask/calendarspent/internal/report"
)

func patchCalendar(enabled bool) model.SettingsPatch {
	return model.SettingsPatch{CalendarSyncEnabled: &enabled}
}

func onOff(b bool) string {
	if b {
		return okStyle.Render("on")
	}
	return dimStyle.Render("off")
}

func stamp(ms int64) string {
	if ms == 0 {
		return dimStyle.Render("never")
	}
	return time.UnixMilli(ms).Local().Format(time.DateTime)
}

type settingsCmd struct {
	currency  string
	filter    string
	timezone  string
	weekStart string
	toggles   map[string]*string
}

func (*settingsCmd) Name() string     { return "settings" }
func (*settingsCmd) Synopsis() string { return "show or change preferences" }
func (*settingsCmd) Usage() string {
	return `settings [-currency <code>] [-filter <id,id>] [-<toggle> on|off]
settings [-timezone <zone>] [-week-start sunday|monday]

  Without flags prints the current settings. -timezone and -week-start
  are kept in the config file rather than synced.
`
}

var settingToggles = []string{"notifications", "daily-reminder", "budget-alerts", "calendar-auto-sync", "suppress-demo"}

func (c *settingsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.currency, "currency", "", "ISO 4217 currency code.")
	f.StringVar(&c.filter, "filter", "", "Default category filter; \"-\" clears it.")
	f.StringVar(&c.timezone, "timezone", "", "IANA timezone; \"-\" means local time.")
	f.StringVar(&c.weekStart, "week-start", "", "First day of the week in weekly reports.")
	c.toggles = map[string]*string{}
	for _, name := range settingToggles {
		c.toggles[name] = f.String(name, "", "on or off.")
	}
}

func (c *settingsCmd) patch() (model.SettingsPatch, error) {
	var p model.SettingsPatch
	if c.currency != "" {
		p.Currency = &c.currency
	}
	if c.filter != "" {
		ids := []string{}
		if c.filter != "-" {
			ids = strings.Split(c.filter, ",")
		}
		p.DefaultCategoryFilter = &ids
	}
	targets := map[string]**bool{
		"notifications":      &p.NotificationsEnabled,
		"daily-reminder":     &p.DailyReminder,
		"budget-alerts":      &p.BudgetAlerts,
		"calendar-auto-sync": &p.CalendarAutoSync,
		"suppress-demo":      &p.SuppressDemoData,
	}
	for name, v := range c.toggles {
		var on bool
		switch strings.ToLower(*v) {
		case "":
			continue
		case "on", "true", "yes":
			on = true
		case "off", "false", "no":
		default:
			return p, fmt.Errorf("-%s: want on or off, got %q", name, *v)
		}
		*targets[name] = &on
	}
	return p, nil
}

func (c *settingsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(a *app) error {
		local, synced := false, false
		f.Visit(func(fl *flag.Flag) {
			switch fl.Name {
			case "timezone", "week-start":
				local = true
			default:
				synced = true
			}
		})
		if local {
			if err := c.saveLocal(a); err != nil {
				return err
			}
		}
		if synced {
			p, err := c.patch()
			if err != nil {
				return err
			}
			if _, err := a.engine.UpdateSettings(p); err != nil {
				return err
			}
			if err := a.commit(ctx); err != nil {
				return err
			}
		}
		st := a.engine.Settings()
		fmt.Println(titleStyle.Render("Settings"))
		fmt.Printf("  %-22s %s\n", "timezone", a.cfg.UI.Location())
		fmt.Printf("  %-22s %s\n", "week starts", a.cfg.UI.FirstWeekday())
		fmt.Printf("  %-22s %s\n", "currency", st.Currency)
		fmt.Printf("  %-22s %s\n", "category filter", strings.Join(st.DefaultCategoryFilter, ", "))
		fmt.Printf("  %-22s %s\n", "notifications", onOff(st.NotificationsEnabled))
		fmt.Printf("  %-22s %s\n", "daily reminder", onOff(st.DailyReminder))
		fmt.Printf("  %-22s %s\n", "budget alerts", onOff(st.BudgetAlerts))
		fmt.Printf("  %-22s %s\n", "calendar sync", onOff(st.CalendarSyncEnabled))
		fmt.Printf("  %-22s %s\n", "calendar auto sync", onOff(st.CalendarAutoSync))
		fmt.Printf("  %-22s %s\n", "suppress demo data", onOff(st.SuppressDemoData))
		fmt.Printf("  %-22s %s\n", "last sync", stamp(st.LastSyncAt))
		if st.LastSyncError != "" {
			fmt.Printf("  %-22s %s\n", "", errStyle.Render(st.LastSyncError))
		}
		fmt.Printf("  %-22s %s\n", "last calendar sync", stamp(st.LastCalendarSyncAt))
		if st.LastCalendarSyncError != "" {
			fmt.Printf("  %-22s %s\n", "", errStyle.Render(st.LastCalendarSyncError))
		}
		return c.printCounts(ctx, a)
	})
}

// saveLocal writes -timezone and -week-start to the config file.
func (c *settingsCmd) saveLocal(a *app) error {
	ui := a.cfg.UI
	if c.timezone != "" {
		zone := c.timezone
		if zone == "-" {
			zone = ""
		}
		if err := ui.SetTimezone(zone); err != nil {
			return err
		}
	}
	if c.weekStart != "" {
		if err := ui.SetWeekStart(c.weekStart); err != nil {
			return err
		}
	}
	cfg := a.cfg
	cfg.UI = ui
	if err := config.Save(cfg); err != nil {
		return err
	}
	a.cfg = cfg
	return nil
}

// printCounts lists how many records each collection of the local store
// holds, deleted ones included.
func (c *settingsCmd) printCounts(ctx context.Context, a *app) error {
	fmt.Println(titleStyle.Render("Stored records"))
	for _, coll := range []string{repository.Transactions, repository.Categories, repository.VendorRules,
		repository.RecurringExceptions, repository.Budgets} {
		n, err := a.repo.Count(ctx, coll)
		if err != nil {
			return err
		}
		fmt.Printf("  %-22s %d\n", coll, n)
	}
	return nil
}

type exportCmd struct{}

func (*exportCmd) Name() string             { return "export" }
func (*exportCmd) Synopsis() string         { return "write a JSON backup" }
func (*exportCmd) Usage() string            { return "export [<file>]\n\n  Writes to stdout without a file.\n" }
func (*exportCmd) SetFlags(f *flag.FlagSet) {}

func (*exportCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(a *app) error {
		if f.NArg() == 0 {
			return a.engine.ExportBackup(os.Stdout)
		}
		path := f.Arg(0)
		if err := a.engine.ExportBackupFile(path); err != nil {
			return err
		}
		fmt.Fprintln(os.Stderr, okStyle.Render("exported to "+path))
		return nil
	})
}

type importCmd struct{}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "replace all data with a JSON backup" }
func (*importCmd) Usage() string {
	return `import <file>

  Replaces every expense, category, rule and budget with the backup's.
  Records missing from the backup are deleted everywhere on the next sync.
`
}
func (*importCmd) SetFlags(f *flag.FlagSet) {}

func (c *importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprint(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	return run(ctx, func(a *app) error {
		in, err := os.Open(f.Arg(0))
		if err != nil {
			return err
		}
		defer in.Close()
		if err := a.engine.ImportBackup(in); err != nil {
			return err
		}
		n := len(model.ActiveTransactions(a.engine.Snapshot().Transactions))
		fmt.Println(okStyle.Render(fmt.Sprintf("imported %d expenses", n)))
		return a.commit(ctx)
	})
}

type importCSVCmd struct{}

func (*importCSVCmd) Name() string     { return "import-csv" }
func (*importCSVCmd) Synopsis() string { return "add expenses from a date,vendor,amount[,note] CSV" }
func (*importCSVCmd) Usage() string {
	return `import-csv <file>

  Rows already imported before are skipped.
`
}
func (*importCSVCmd) SetFlags(f *flag.FlagSet) {}

func (c *importCSVCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprint(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	return run(ctx, func(a *app) error {
		in, err := os.Open(f.Arg(0))
		if err != nil {
			return err
		}
		defer in.Close()
		res, err := a.engine.ImportCSV(in)
		if err != nil {
			return err
		}
		for _, e := range res.Errors {
			fmt.Fprintln(os.Stderr, warnStyle.Render(e.Error()))
		}
		fmt.Printf("%s %s\n", okStyle.Render(fmt.Sprintf("imported %d", res.Imported)),
			dimStyle.Render(fmt.Sprintf("%d duplicates skipped", res.Skipped)))
		return a.commit(ctx)
	})
}

type demoCmd struct{}

func (*demoCmd) Name() string             { return "demo" }
func (*demoCmd) Synopsis() string         { return "fill an empty ledger with sample expenses" }
func (*demoCmd) Usage() string            { return "demo\n" }
func (*demoCmd) SetFlags(f *flag.FlagSet) {}

func (*demoCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(a *app) error {
		n, err := a.engine.SeedDemo(ctx)
		if err != nil {
			return err
		}
		if n == 0 {
			fmt.Println(dimStyle.Render("ledger not empty or demo data suppressed; nothing added"))
			return nil
		}
		total := report.Total(a.engine.Query(report.All()).Entries)
		fmt.Printf("%s %s\n", okStyle.Render(fmt.Sprintf("added %d sample expenses", n)), a.money(total))
		return nil
	})
}

type resetCmd struct{ yes bool }

func (*resetCmd) Name() string     { return "reset" }
func (*resetCmd) Synopsis() string { return "delete all local data" }
func (*resetCmd) Usage() string    { return "reset -yes\n" }

func (c *resetCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.yes, "yes", false, "Confirm.")
}

func (c *resetCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if !c.yes {
		fmt.Fprint(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	return run(ctx, func(a *app) error {
		if err := a.engine.Reset(ctx); err != nil {
			return err
		}
		fmt.Println(okStyle.Render("local data cleared"))
		return nil
	})
}
