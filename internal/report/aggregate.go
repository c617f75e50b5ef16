package report

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jask/calendarspent/internal/date"
	"github.com/jask/calendarspent/internal/model"
)

// CategoryTotal is the spend of one category.
type CategoryTotal struct {
	CategoryID string
	Total      decimal.Decimal
	Count      int
}

// ByCategory totals entries per category, largest first, ties by id.
func ByCategory(entries []model.Entry) []CategoryTotal {
	idx := map[string]int{}
	var out []CategoryTotal
	for _, e := range entries {
		if e.IsSkipped {
			continue
		}
		i, ok := idx[e.Category]
		if !ok {
			i = len(out)
			idx[e.Category] = i
			out = append(out, CategoryTotal{CategoryID: e.Category, Total: decimal.Zero})
		}
		out[i].Total = out[i].Total.Add(e.Amount)
		out[i].Count++
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Total.Cmp(out[j].Total); c != 0 {
			return c > 0
		}
		return out[i].CategoryID < out[j].CategoryID
	})
	return out
}

// Bucket totals the entries dated in [Start, End].
type Bucket struct {
	Start date.Date
	End   date.Date
	Total decimal.Decimal
	Count int
}

// Daily returns one bucket per day of [from, to], empty days included.
func Daily(entries []model.Entry, from, to date.Date) []Bucket {
	if to.Before(from) {
		return nil
	}
	n := from.DaysUntil(to) + 1
	out := make([]Bucket, n)
	for i := range out {
		d := from.AddDays(i)
		out[i] = Bucket{Start: d, End: d, Total: decimal.Zero}
	}
	for _, e := range entries {
		if e.IsSkipped || e.Date.Before(from) || e.Date.After(to) {
			continue
		}
		i := from.DaysUntil(e.Date)
		out[i].Total = out[i].Total.Add(e.Amount)
		out[i].Count++
	}
	return out
}

// Weekly groups entries into weeks starting on weekStart. Only weeks with
// entries are returned, oldest first.
func Weekly(entries []model.Entry, weekStart time.Weekday) []Bucket {
	return group(entries, func(d date.Date) (date.Date, date.Date) {
		s := d.StartOfWeek(weekStart)
		return s, s.AddDays(6)
	})
}

// Monthly groups entries by calendar month, oldest first.
func Monthly(entries []model.Entry) []Bucket {
	return group(entries, func(d date.Date) (date.Date, date.Date) {
		return d.StartOfMonth(), d.EndOfMonth()
	})
}

func group(entries []model.Entry, span func(date.Date) (date.Date, date.Date)) []Bucket {
	idx := map[date.Date]int{}
	var out []Bucket
	for _, e := range entries {
		if e.IsSkipped {
			continue
		}
		start, end := span(e.Date)
		i, ok := idx[start]
		if !ok {
			i = len(out)
			idx[start] = i
			out = append(out, Bucket{Start: start, End: end, Total: decimal.Zero})
		}
		out[i].Total = out[i].Total.Add(e.Amount)
		out[i].Count++
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}

// BudgetLine compares a category's monthly limit with its spend.
type BudgetLine struct {
	CategoryID string
	Limit      decimal.Decimal
	Spent      decimal.Decimal
	Remaining  decimal.Decimal
	Over       bool
}

// BudgetLines reports every active budget against the entries dated in the
// month containing month, in budget order.
func BudgetLines(entries []model.Entry, budgets []model.Budget, month date.Date) []BudgetLine {
	in := Filter(entries, Between(month.StartOfMonth(), month.EndOfMonth()))
	spent := map[string]decimal.Decimal{}
	for _, e := range in {
		spent[e.Category] = spent[e.Category].Add(e.Amount)
	}

	active := model.ActiveBudgets(budgets)
	out := make([]BudgetLine, 0, len(active))
	for _, b := range active {
		s := spent[b.CategoryID]
		out = append(out, BudgetLine{
			CategoryID: b.CategoryID,
			Limit:      b.MonthlyLimit,
			Spent:      s,
			Remaining:  b.MonthlyLimit.Sub(s),
			Over:       s.GreaterThan(b.MonthlyLimit),
		})
	}
	return out
}
