// Package report filters the expanded transaction list and derives the
// totals shown by list, calendar and budget views. Every function is pure.
package report

import (
	"github.com/shopspring/decimal"

	"github.com/jask/calendarspent/internal/date"
	"github.com/jask/calendarspent/internal/model"
)

// Query selects entries. An empty CategoryIDs means every category; zero
// From/To leave that side of the range open. Both bounds are inclusive.
type Query struct {
	CategoryIDs      []string
	IncludeRecurring bool
	From             date.Date
	To               date.Date
}

// All is the query of the default list view.
func All() Query { return Query{IncludeRecurring: true} }

// Between is All restricted to [from, to].
func Between(from, to date.Date) Query {
	return Query{IncludeRecurring: true, From: from, To: to}
}

// Result is a filtered list with its total.
type Result struct {
	Entries []model.Entry
	Total   decimal.Decimal
}

// Filter returns the entries q selects, in input order. Skipped occurrences
// are always dropped. Without IncludeRecurring both rules and their
// occurrences are dropped.
func Filter(entries []model.Entry, q Query) []model.Entry {
	var cats map[string]bool
	if len(q.CategoryIDs) > 0 {
		cats = make(map[string]bool, len(q.CategoryIDs))
		for _, id := range q.CategoryIDs {
			cats[id] = true
		}
	}

	out := make([]model.Entry, 0, len(entries))
	for _, e := range entries {
		switch {
		case e.IsSkipped:
			continue
		case !q.IncludeRecurring && (e.IsRecurring || e.IsVirtual):
			continue
		case cats != nil && !cats[e.Category]:
			continue
		case !q.From.IsZero() && e.Date.Before(q.From):
			continue
		case !q.To.IsZero() && e.Date.After(q.To):
			continue
		}
		out = append(out, e)
	}
	return out
}

// Apply filters entries and totals the result.
func Apply(entries []model.Entry, q Query) Result {
	filtered := Filter(entries, q)
	return Result{Entries: filtered, Total: Total(filtered)}
}

// Total sums the amounts of entries that are not skipped.
func Total(entries []model.Entry) decimal.Decimal {
	sum := decimal.Zero
	for _, e := range entries {
		if !e.IsSkipped {
			sum = sum.Add(e.Amount)
		}
	}
	return sum
}
