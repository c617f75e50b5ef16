// Package demo builds the sample data shown to first-time users.
package demo

import (
	"math/rand"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jask/calendarspent/internal/catalog"
	"github.com/jask/calendarspent/internal/date"
	"github.com/jask/calendarspent/internal/model"
)

type sample struct {
	vendor   string
	category string
	min, max int64 // cents
}

var samples = []sample{
	{"Uber Eats", catalog.Dining, 1500, 4500},
	{"Starbucks", catalog.Coffee, 350, 900},
	{"Whole Foods", catalog.Groceries, 2500, 14000},
	{"Shell", catalog.Fuel, 3000, 7000},
	{"Amazon", catalog.Shopping, 1200, 9000},
	{"Uber", catalog.Transport, 900, 3500},
	{"AMC Theatres", catalog.Entertainment, 1200, 3000},
	{"CVS Pharmacy", catalog.Health, 500, 4000},
}

type subscription struct {
	vendor     string
	category   string
	cents      int64
	recurrence model.Recurrence
	day        int
}

var subscriptions = []subscription{
	{"Spotify", catalog.Subscriptions, 1199, model.Monthly, 3},
	{"Netflix", catalog.Subscriptions, 1549, model.Monthly, 12},
	{"Landlord", catalog.Rent, 180000, model.Monthly, 1},
	{"Gym", catalog.Health, 2500, model.Weekly, 0},
}

// Generate returns count random expenses spread over the 30 days up to
// today, plus a few recurring rules. Every record is stamped with now.
func Generate(rng *rand.Rand, today date.Date, count int, now int64) []model.Transaction {
	out := make([]model.Transaction, 0, count+len(subscriptions))
	for i := 0; i < count; i++ {
		s := samples[rng.Intn(len(samples))]
		cents := s.min + rng.Int63n(s.max-s.min+1)
		out = append(out, model.Transaction{
			ID:        uuid.NewString(),
			Vendor:    s.vendor,
			Amount:    decimal.New(cents, -2),
			Category:  s.category,
			Date:      today.AddDays(-rng.Intn(30)),
			UpdatedAt: now,
		})
	}

	start := today.AddMonths(-2)
	for _, s := range subscriptions {
		day := start
		if s.day > 0 {
			day = date.New(start.Year(), start.Month(), s.day)
		}
		active := true
		out = append(out, model.Transaction{
			ID:             uuid.NewString(),
			Vendor:         s.vendor,
			Amount:         decimal.New(s.cents, -2),
			Category:       s.category,
			Date:           day,
			IsRecurring:    true,
			RecurrenceType: s.recurrence,
			IsActive:       &active,
			UpdatedAt:      now,
		})
	}
	return out
}
