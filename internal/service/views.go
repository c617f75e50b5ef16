package service

import (
	"github.com/jask/calendarspent/internal/calendar"
	"github.com/jask/calendarspent/internal/date"
	"github.com/jask/calendarspent/internal/model"
	"github.com/jask/calendarspent/internal/recurrence"
	"github.com/jask/calendarspent/internal/report"
)

// Today is the current day in the engine's timezone.
func (e *Engine) Today() date.Date { return e.today() }

// Entries expands the live transactions up to the default horizon: every
// stored transaction plus the virtual occurrences of recurring rules.
func (e *Engine) Entries() []model.Entry {
	return e.EntriesUntil(recurrence.Horizon(e.today()))
}

// EntriesUntil is Entries with an explicit horizon.
func (e *Engine) EntriesUntil(horizon date.Date) []model.Entry {
	var out []model.Entry
	_ = e.read(func() { out = e.entries(horizon) })
	return out
}

func (e *Engine) entries(horizon date.Date) []model.Entry {
	return recurrence.Expand(
		model.ActiveTransactions(e.state.Transactions),
		model.ActiveExceptions(e.state.Exceptions),
		horizon,
	)
}

// Query filters the expanded list and totals it.
func (e *Engine) Query(q report.Query) report.Result {
	return report.Apply(e.Entries(), q)
}

// DefaultQuery is the list view query built from the saved category filter.
func (e *Engine) DefaultQuery() report.Query {
	q := report.All()
	q.CategoryIDs = e.Settings().DefaultCategoryFilter
	return q
}

// BudgetStatus compares spending in month against the budgets.
func (e *Engine) BudgetStatus(month date.Date) []report.BudgetLine {
	var (
		entries []model.Entry
		budgets []model.Budget
	)
	_ = e.read(func() {
		entries = e.entries(month.EndOfMonth())
		budgets = model.ActiveBudgets(e.state.Budgets)
	})
	return report.BudgetLines(entries, budgets, month)
}

// CalendarPayload builds the records a calendar sync would upload today.
func (e *Engine) CalendarPayload() []calendar.Event {
	today := e.today()
	_, to := calendar.Window(today)
	var (
		entries []model.Entry
		names   map[string]string
	)
	_ = e.read(func() {
		entries = e.entries(to)
		names = model.CategoryNames(e.state.Categories)
	})
	return calendar.Payload(entries, names, today)
}
