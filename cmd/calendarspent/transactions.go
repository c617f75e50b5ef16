package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	"github.com/jask/calendarspent/internal/date"
	"github.com/jask/calendarspent/internal/model"
)

// txFlags are shared by add and edit.
type txFlags struct {
	vendor   string
	amount   string
	category string
	date     string
	note     string
	recur    string
	endDate  string
}

func (t *txFlags) register(f *flag.FlagSet) {
	f.StringVar(&t.amount, "amount", "", "Amount spent.")
	f.StringVar(&t.category, "category", "", "Category id. Empty lets vendor rules decide.")
	f.StringVar(&t.date, "date", "", "Date as YYYY-MM-DD (defaults to today).")
	f.StringVar(&t.note, "note", "", "Free-form note.")
	f.StringVar(&t.recur, "recur", "", "Recurrence: daily, weekly, monthly or yearly.")
	f.StringVar(&t.endDate, "until", "", "Last day a recurring transaction repeats.")
}

// apply copies the flags that were set onto tx.
func (t *txFlags) apply(f *flag.FlagSet, tx *model.Transaction, today date.Date) error {
	var err error
	f.Visit(func(fl *flag.Flag) {
		if err != nil {
			return
		}
		switch fl.Name {
		case "amount":
			tx.Amount, err = decimal.NewFromString(t.amount)
		case "category":
			tx.Category = t.category
		case "date":
			tx.Date, err = date.Parse(t.date)
		case "note":
			tx.Note = t.note
		case "recur":
			tx.RecurrenceType = model.Recurrence(strings.ToLower(t.recur))
			tx.IsRecurring = t.recur != ""
		case "until":
			if t.endDate == "" {
				tx.EndDate = nil
				return
			}
			var d date.Date
			d, err = date.Parse(t.endDate)
			tx.EndDate = &d
		}
	})
	if tx.Date.IsZero() {
		tx.Date = today
	}
	return err
}

type addCmd struct {
	txFlags
	interactive bool
}

func (*addCmd) Name() string     { return "add" }
func (*addCmd) Synopsis() string { return "record an expense" }
func (*addCmd) Usage() string {
	return `add -amount <amount> [-category <id>] [-date <date>] [-recur <cadence>] <vendor>
add -i -amount <amount> [<vendor>]

  Records an expense. Without -category the vendor rules pick one.
  -i picks the vendor and category interactively.
`
}

func (c *addCmd) SetFlags(f *flag.FlagSet) {
	c.register(f)
	f.BoolVar(&c.interactive, "i", false, "Pick vendor and category interactively.")
}

func (c *addCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if (f.NArg() == 0 && !c.interactive) || c.amount == "" {
		fmt.Fprint(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	return run(ctx, func(a *app) error {
		tx := model.Transaction{Vendor: strings.Join(f.Args(), " ")}
		if err := c.apply(f, &tx, a.engine.Today()); err != nil {
			return err
		}
		if c.interactive {
			var err error
			if tx.Vendor, err = a.pickVendor(tx.Vendor); err != nil {
				return err
			}
			if tx.Category == "" {
				if tx.Category, err = a.pickCategory(tx.Vendor); err != nil {
					return err
				}
			}
		}
		if dups := a.engine.PossibleDuplicates(tx); len(dups) > 0 {
			for _, d := range dups {
				fmt.Println(warnStyle.Render(fmt.Sprintf("possible duplicate of %s %s on %s", d.ID, d.Vendor, d.Date)))
			}
		}
		got, err := a.engine.AddTransaction(tx)
		if err != nil {
			return err
		}
		fmt.Printf("%s %s %s %s\n", okStyle.Render("added"), got.ID, got.Vendor, a.money(got.Amount))
		return a.commit(ctx)
	})
}

type editCmd struct{ txFlags }

func (*editCmd) Name() string     { return "edit" }
func (*editCmd) Synopsis() string { return "change a stored expense" }
func (*editCmd) Usage() string {
	return `edit [-vendor <vendor>] [-amount <amount>] [...] <id>

  Changes the fields given as flags. Editing a recurring expense that
  started in the past ends the old series yesterday and starts a new one.
`
}

func (c *editCmd) SetFlags(f *flag.FlagSet) {
	c.register(f)
	f.StringVar(&c.vendor, "vendor", "", "New vendor.")
}

func (c *editCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprint(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	return run(ctx, func(a *app) error {
		var tx model.Transaction
		found := false
		for _, t := range model.ActiveTransactions(a.engine.Snapshot().Transactions) {
			if t.ID == f.Arg(0) {
				tx, found = t, true
			}
		}
		if !found {
			return fmt.Errorf("no transaction %q", f.Arg(0))
		}
		if err := c.apply(f, &tx, a.engine.Today()); err != nil {
			return err
		}
		f.Visit(func(fl *flag.Flag) {
			if fl.Name == "vendor" {
				tx.Vendor = c.vendor
			}
		})
		got, err := a.engine.UpdateTransaction(tx)
		if err != nil {
			return err
		}
		fmt.Printf("%s %s\n", okStyle.Render("updated"), got.ID)
		return a.commit(ctx)
	})
}

type listCmd struct {
	from       string
	to         string
	categories string
	noRecur    bool
	all        bool
}

func (*listCmd) Name() string     { return "list" }
func (*listCmd) Synopsis() string { return "list expenses, recurring occurrences included" }
func (*listCmd) Usage() string {
	return `list [-from <date>] [-to <date>] [-c <id,id>] [-no-recurring] [-all]

  Lists expenses up to today, newest first. -all also shows upcoming
  occurrences until the end of next year.
`
}

func (c *listCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.from, "from", "", "First day to show.")
	f.StringVar(&c.to, "to", "", "Last day to show.")
	f.StringVar(&c.categories, "c", "", "Comma separated category ids. Defaults to the saved filter.")
	f.BoolVar(&c.noRecur, "no-recurring", false, "Hide recurring expenses.")
	f.BoolVar(&c.all, "all", false, "Include future occurrences.")
}

func (c *listCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(a *app) error {
		q := a.engine.DefaultQuery()
		q.IncludeRecurring = !c.noRecur
		if c.categories != "" {
			q.CategoryIDs = strings.Split(c.categories, ",")
		}
		var err error
		if c.from != "" {
			if q.From, err = date.Parse(c.from); err != nil {
				return err
			}
		}
		if c.to != "" {
			if q.To, err = date.Parse(c.to); err != nil {
				return err
			}
		}
		if !c.all && q.To.IsZero() {
			q.To = a.engine.Today()
		}
		res := a.engine.Query(q)
		names := model.CategoryNames(a.engine.Categories())

		fmt.Println(titleStyle.Render("Expenses"))
		for i := len(res.Entries) - 1; i >= 0; i-- {
			printEntry(a, res.Entries[i], names)
		}
		fmt.Printf("%s %s\n", dimStyle.Render(fmt.Sprintf("%d entries, total", len(res.Entries))), a.money(res.Total))
		return nil
	})
}

func printEntry(a *app, e model.Entry, names map[string]string) {
	vendor := e.Vendor
	if e.IsRecurring || e.IsVirtual {
		vendor = recurStyle.Render("↻ ") + vendor
	}
	line := fmt.Sprintf("%s  %-28s %-16s %s  %s",
		e.Date, vendor, categoryName(names, e.Category), a.money(e.Amount), dimStyle.Render(e.Ref.Key()))
	if e.IsSkipped {
		line = skippedStyle.Render(line)
	}
	fmt.Println(line)
}

// refArg turns an id plus optional -date into an entry reference.
func refArg(id, day string) (model.Ref, error) {
	if day == "" {
		return model.RuleRef(id), nil
	}
	d, err := date.Parse(day)
	if err != nil {
		return model.Ref{}, err
	}
	return model.OccurrenceRef(id, d), nil
}

type deleteCmd struct{ date string }

func (*deleteCmd) Name() string     { return "delete" }
func (*deleteCmd) Synopsis() string { return "delete an expense or one occurrence of it" }
func (*deleteCmd) Usage() string {
	return `delete [-date <date>] <id>

  Deletes the expense. With -date only that occurrence of a recurring
  expense is removed.
`
}

func (c *deleteCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "date", "", "Occurrence date of a recurring expense.")
}

func (c *deleteCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprint(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	return run(ctx, func(a *app) error {
		ref, err := refArg(f.Arg(0), c.date)
		if err != nil {
			return err
		}
		if err := a.engine.DeleteTransaction(ref); err != nil {
			return err
		}
		fmt.Println(okStyle.Render("deleted ") + ref.Key())
		return a.commit(ctx)
	})
}

type stopCmd struct{}

func (*stopCmd) Name() string             { return "stop" }
func (*stopCmd) Synopsis() string         { return "stop a recurring expense as of today" }
func (*stopCmd) Usage() string            { return "stop <id>\n" }
func (*stopCmd) SetFlags(f *flag.FlagSet) {}

func (c *stopCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprint(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	return run(ctx, func(a *app) error {
		if err := a.engine.StopRecurring(f.Arg(0)); err != nil {
			return err
		}
		fmt.Println(okStyle.Render("stopped ") + f.Arg(0))
		return a.commit(ctx)
	})
}

type skipCmd struct {
	unskip bool
	note   string
}

func (c *skipCmd) Name() string {
	if c.unskip {
		return "unskip"
	}
	return "skip"
}

func (c *skipCmd) Synopsis() string {
	if c.unskip {
		return "restore a skipped occurrence"
	}
	return "skip one occurrence of a recurring expense"
}

func (c *skipCmd) Usage() string { return c.Name() + " <id> <date>\n" }

func (c *skipCmd) SetFlags(f *flag.FlagSet) {
	if !c.unskip {
		f.StringVar(&c.note, "note", "", "Why the occurrence was skipped.")
	}
}

func (c *skipCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 2 {
		fmt.Fprint(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	return run(ctx, func(a *app) error {
		ref, err := refArg(f.Arg(0), f.Arg(1))
		if err != nil {
			return err
		}
		if c.unskip {
			err = a.engine.UnskipOccurrence(ref)
		} else {
			err = a.engine.SkipOccurrence(ref, c.note)
		}
		if err != nil {
			return err
		}
		fmt.Println(okStyle.Render(c.Name()+"ped ") + ref.Key())
		return a.commit(ctx)
	})
}

type suggestCmd struct {
	limit       int
	interactive bool
}

func (*suggestCmd) Name() string     { return "suggest" }
func (*suggestCmd) Synopsis() string { return "suggest vendors and the category they map to" }
func (*suggestCmd) Usage() string    { return "suggest [-n <limit>] [-i] <text>\n" }

func (c *suggestCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.limit, "n", 8, "Maximum number of suggestions.")
	f.BoolVar(&c.interactive, "i", false, "Refine the suggestions while typing and print the chosen vendor.")
}

func (c *suggestCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(a *app) error {
		text := strings.Join(f.Args(), " ")
		if c.interactive {
			v, err := a.pickVendor(text)
			if err != nil {
				return err
			}
			fmt.Println(v)
			return nil
		}
		names := model.CategoryNames(a.engine.Categories())
		if m, ok := a.engine.CategorizeVendor(text); ok && text != "" {
			fmt.Printf("%s %s %s\n", metaStyle.Render("category"), categoryName(names, m.CategoryID),
				dimStyle.Render("via "+m.RuleVendor))
		}
		for _, v := range a.engine.SuggestVendors(text, c.limit) {
			fmt.Println(v)
		}
		return nil
	})
}
