// Package recurrence expands recurring rules into virtual occurrences.
package recurrence

import (
	"github.com/jask/calendarspent/internal/date"
	"github.com/jask/calendarspent/internal/model"
)

// Horizon is the last day expansion may reach: December 31st of the year
// after today.
func Horizon(today date.Date) date.Date {
	return date.New(today.Year()+1, 12, 31)
}

// Nth returns the n-th date of a cadence starting on start. Month and year
// steps are counted from start and clamped to the month end, so a rule on the
// 31st lands on the 31st again whenever the month has one.
func Nth(start date.Date, r model.Recurrence, n int) date.Date {
	switch r {
	case model.Daily:
		return start.AddDays(n)
	case model.Weekly:
		return start.AddDays(7 * n)
	case model.Monthly:
		return start.AddMonths(n)
	case model.Yearly:
		return start.AddYears(n)
	}
	return start
}

// Limit returns the last day rule may generate an occurrence on, bounded by
// horizon, and false when the rule generates nothing. A stopped rule keeps
// generating up to its endedAt; one stopped without endedAt generates none.
func Limit(rule model.Transaction, horizon date.Date) (date.Date, bool) {
	if !rule.IsRule() || rule.Date.IsZero() {
		return date.Date{}, false
	}
	ended := rule.EndedAt != nil && !rule.EndedAt.IsZero()
	if !rule.Active() && !ended {
		return date.Date{}, false
	}
	limit := horizon
	if rule.EndDate != nil && !rule.EndDate.IsZero() {
		limit = date.Min(limit, *rule.EndDate)
	}
	if ended {
		limit = date.Min(limit, *rule.EndedAt)
	}
	return limit, true
}

// Occurrences lists the days of rule's virtual occurrences (the rule's own
// date excluded) that fall in [from, to].
func Occurrences(rule model.Transaction, from, to date.Date) []date.Date {
	limit, ok := Limit(rule, to)
	if !ok {
		return nil
	}
	var out []date.Date
	for n := firstStep(rule, from); ; n++ {
		d := Nth(rule.Date, rule.RecurrenceType, n)
		if d.After(limit) {
			break
		}
		if !d.Before(from) {
			out = append(out, d)
		}
	}
	return out
}

// firstStep skips the steps of fixed-length cadences that end before from.
func firstStep(rule model.Transaction, from date.Date) int {
	days := rule.Date.DaysUntil(from)
	if from.IsZero() || days <= 1 {
		return 1
	}
	switch rule.RecurrenceType {
	case model.Daily:
		return days
	case model.Weekly:
		return max(days/7, 1)
	case model.Monthly:
		return max(days/31, 1)
	case model.Yearly:
		return max(days/366, 1)
	}
	return 1
}

type exceptionKey struct {
	rule string
	day  date.Date
}

// Expand returns every base transaction followed by the virtual occurrences
// it generates up to horizon. Base transactions are emitted unchanged and in
// order; live exceptions mark occurrences as skipped. The result is
// deterministic for the same inputs. Callers pass the active views.
func Expand(base []model.Transaction, exceptions []model.RecurringException, horizon date.Date) []model.Entry {
	skips := make(map[exceptionKey]model.RecurringException, len(exceptions))
	for _, e := range model.ActiveExceptions(exceptions) {
		skips[exceptionKey{e.RuleID, e.Date}] = e
	}

	out := make([]model.Entry, 0, len(base))
	for _, tx := range base {
		out = append(out, model.Entry{Transaction: tx, Ref: model.RuleRef(tx.ID)})
		for _, day := range Occurrences(tx, date.Date{}, horizon) {
			out = append(out, occurrence(tx, day, skips))
		}
	}
	return out
}

func occurrence(rule model.Transaction, day date.Date, skips map[exceptionKey]model.RecurringException) model.Entry {
	ref := model.OccurrenceRef(rule.ID, day)
	tx := rule
	tx.ID = ref.Key()
	tx.Date = day
	e := model.Entry{Transaction: tx, Ref: ref, IsVirtual: true}
	if ex, ok := skips[exceptionKey{rule.ID, day}]; ok && ex.Skipped {
		e.IsSkipped = true
		e.SkipNote = ex.Note
	}
	return e
}
