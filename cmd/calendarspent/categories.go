package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	"github.com/jask/calendarspent/internal/catalog"
	"github.com/jask/calendarspent/internal/model"
)

type categoriesCmd struct{}

func (*categoriesCmd) Name() string             { return "categories" }
func (*categoriesCmd) Synopsis() string         { return "list categories by group" }
func (*categoriesCmd) Usage() string            { return "categories\n" }
func (*categoriesCmd) SetFlags(f *flag.FlagSet) {}

func (*categoriesCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(a *app) error {
		byGroup := map[model.Group][]model.Category{}
		for _, c := range a.engine.Categories() {
			byGroup[c.Group] = append(byGroup[c.Group], c)
		}
		for _, g := range catalog.Groups {
			if len(byGroup[g]) == 0 {
				continue
			}
			fmt.Println(titleStyle.Render(string(g)))
			for _, c := range byGroup[g] {
				swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(c.Color)).Render(catalog.Glyph(c.Icon))
				name := c.Name
				if catalog.IsSystem(c.ID) {
					name += dimStyle.Render(" (system)")
				}
				fmt.Printf("  %s %-24s %s\n", swatch, name, dimStyle.Render(c.ID))
			}
		}
		return nil
	})
}

type categoryAddCmd struct {
	icon  string
	color string
	group string
	id    string
}

func (*categoryAddCmd) Name() string     { return "category" }
func (*categoryAddCmd) Synopsis() string { return "create or edit a category" }
func (*categoryAddCmd) Usage() string {
	return `category [-id <id>] [-icon <icon>] [-color <#rrggbb>] [-group <group>] <name>

  Without -id a new category is created; with it the category is edited.
`
}

func (c *categoryAddCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.id, "id", "", "Category to edit.")
	f.StringVar(&c.icon, "icon", "", "Icon name.")
	f.StringVar(&c.color, "color", "", "Hex color.")
	f.StringVar(&c.group, "group", "", "Group name.")
}

func (c *categoryAddCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 && c.id == "" {
		fmt.Fprint(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	return run(ctx, func(a *app) error {
		cat := model.Category{
			Name:  strings.Join(f.Args(), " "),
			Icon:  model.Icon(c.icon),
			Color: c.color,
			Group: model.Group(c.group),
		}
		var (
			got model.Category
			err error
		)
		if c.id == "" {
			got, err = a.engine.AddCategory(cat)
		} else {
			for _, old := range a.engine.Categories() {
				if old.ID != c.id {
					continue
				}
				if cat.Name == "" {
					cat.Name = old.Name
				}
				if cat.Icon == "" {
					cat.Icon = old.Icon
				}
				if cat.Color == "" {
					cat.Color = old.Color
				}
				if cat.Group == "" {
					cat.Group = old.Group
				}
			}
			cat.ID = c.id
			got, err = a.engine.UpdateCategory(cat)
		}
		if err != nil {
			return err
		}
		fmt.Printf("%s %s %s\n", okStyle.Render("saved"), got.Name, dimStyle.Render(got.ID))
		return a.commit(ctx)
	})
}

type categoryDeleteCmd struct{}

func (*categoryDeleteCmd) Name() string { return "category-delete" }
func (*categoryDeleteCmd) Synopsis() string {
	return "delete a category, moving its expenses to Uncategorized"
}
func (*categoryDeleteCmd) Usage() string            { return "category-delete <id>\n" }
func (*categoryDeleteCmd) SetFlags(f *flag.FlagSet) {}

func (c *categoryDeleteCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprint(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	return run(ctx, func(a *app) error {
		if err := a.engine.DeleteCategory(f.Arg(0)); err != nil {
			return err
		}
		fmt.Println(okStyle.Render("deleted ") + f.Arg(0))
		return a.commit(ctx)
	})
}

type rulesCmd struct{ builtin bool }

func (*rulesCmd) Name() string     { return "rules" }
func (*rulesCmd) Synopsis() string { return "list vendor rules" }
func (*rulesCmd) Usage() string    { return "rules [-builtin]\n" }

func (c *rulesCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.builtin, "builtin", false, "Also list the built-in vendor table.")
}

func (c *rulesCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(a *app) error {
		names := model.CategoryNames(a.engine.Categories())
		rules := a.engine.VendorRules()
		if c.builtin {
			rules = append(rules, catalog.BuiltinRules()...)
		}
		for _, r := range rules {
			fmt.Printf("%-24s → %-18s %s\n", r.VendorContains, categoryName(names, r.CategoryID),
				dimStyle.Render(fmt.Sprintf("%s %s", r.Source, r.ID)))
		}
		return nil
	})
}

type ruleAddCmd struct{ apply bool }

func (*ruleAddCmd) Name() string     { return "rule" }
func (*ruleAddCmd) Synopsis() string { return "file vendors containing a text under a category" }
func (*ruleAddCmd) Usage() string {
	return `rule [-apply] <category-id> <vendor text>

  Adds a vendor rule, replacing any rule for the same vendor text. With
  -apply uncategorized expenses are re-filed.
`
}

func (c *ruleAddCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.apply, "apply", false, "Re-file uncategorized expenses.")
}

func (c *ruleAddCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() < 2 {
		fmt.Fprint(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	return run(ctx, func(a *app) error {
		r, err := a.engine.AddVendorRule(strings.Join(f.Args()[1:], " "), f.Arg(0))
		if err != nil {
			return err
		}
		fmt.Printf("%s %q %s\n", okStyle.Render("rule"), r.VendorContains, dimStyle.Render(r.ID))
		if c.apply {
			n, err := a.engine.ApplyVendorRules()
			if err != nil {
				return err
			}
			fmt.Println(metaStyle.Render(fmt.Sprintf("re-filed %d expenses", n)))
		}
		return a.commit(ctx)
	})
}

type ruleDeleteCmd struct{}

func (*ruleDeleteCmd) Name() string             { return "rule-delete" }
func (*ruleDeleteCmd) Synopsis() string         { return "delete a vendor rule" }
func (*ruleDeleteCmd) Usage() string            { return "rule-delete <id>\n" }
func (*ruleDeleteCmd) SetFlags(f *flag.FlagSet) {}

func (c *ruleDeleteCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprint(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	return run(ctx, func(a *app) error {
		if err := a.engine.DeleteVendorRule(f.Arg(0)); err != nil {
			return err
		}
		fmt.Println(okStyle.Render("deleted ") + f.Arg(0))
		return a.commit(ctx)
	})
}

type budgetCmd struct{ remove bool }

func (*budgetCmd) Name() string     { return "budget" }
func (*budgetCmd) Synopsis() string { return "set or remove the monthly limit of a category" }
func (*budgetCmd) Usage() string    { return "budget <category-id> <limit>\nbudget -rm <category-id>\n" }

func (c *budgetCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.remove, "rm", false, "Remove the budget.")
}

func (c *budgetCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if (c.remove && f.NArg() != 1) || (!c.remove && f.NArg() != 2) {
		fmt.Fprint(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	return run(ctx, func(a *app) error {
		if c.remove {
			if err := a.engine.RemoveBudget(f.Arg(0)); err != nil {
				return err
			}
			fmt.Println(okStyle.Render("removed budget ") + f.Arg(0))
			return a.commit(ctx)
		}
		limit, err := decimal.NewFromString(f.Arg(1))
		if err != nil {
			return err
		}
		b, err := a.engine.SetBudget(f.Arg(0), limit)
		if err != nil {
			return err
		}
		fmt.Printf("%s %s %s\n", okStyle.Render("budget"), b.CategoryID, a.money(b.MonthlyLimit))
		return a.commit(ctx)
	})
}
