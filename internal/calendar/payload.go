// Package calendar talks to the calendar connect and sync functions and
// builds the records they aggregate into daily calendar events.
package calendar

import (
	"github.com/shopspring/decimal"

	"github.com/jask/calendarspent/internal/date"
	"github.com/jask/calendarspent/internal/model"
)

// Days before and after today covered by a sync: 28 days in total.
const (
	daysBack    = 14
	daysForward = 13
)

// Event is one transaction as sent to the sync function.
type Event struct {
	ID          string          `json:"id"`
	Date        date.Date       `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Vendor      string          `json:"vendor"`
	Category    string          `json:"category"`
	IsRecurring bool            `json:"isRecurring"`
}

// Window returns the inclusive range of days a sync covers.
func Window(today date.Date) (from, to date.Date) {
	return today.AddDays(-daysBack), today.AddDays(daysForward)
}

// Payload selects the entries inside today's window, dropping deleted and
// skipped ones, and resolves category ids to names.
func Payload(entries []model.Entry, categoryNames map[string]string, today date.Date) []Event {
	from, to := Window(today)
	out := []Event{}
	for _, e := range entries {
		if e.IsSkipped || e.Tombstoned() || e.Date.Before(from) || e.Date.After(to) {
			continue
		}
		name, ok := categoryNames[e.Category]
		if !ok {
			name = e.Category
		}
		out = append(out, Event{
			ID:          e.Ref.Key(),
			Date:        e.Date,
			Amount:      e.Amount,
			Vendor:      e.Vendor,
			Category:    name,
			IsRecurring: e.IsRecurring || e.IsVirtual,
		})
	}
	return out
}
