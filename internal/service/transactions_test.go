package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jask/calendarspent/internal/catalog"
	"github.com/jask/calendarspent/internal/date"
	"github.com/jask/calendarspent/internal/model"
	"github.com/jask/calendarspent/internal/report"
)

func rule(vendor, amount, day string, r model.Recurrence) model.Transaction {
	return model.Transaction{
		Vendor:         vendor,
		Amount:         dec(amount),
		Date:           date.MustParse(day),
		IsRecurring:    true,
		RecurrenceType: r,
	}
}

func entriesOf(e *Engine, vendor string) []model.Entry {
	var out []model.Entry
	for _, en := range e.Entries() {
		if en.Vendor == vendor {
			out = append(out, en)
		}
	}
	return out
}

func TestAddTransactionCategorizes(t *testing.T) {
	t.Parallel()
	e, _ := testEngine(t)

	tx, err := e.AddTransaction(model.Transaction{Vendor: " Uber Eats Inc ", Amount: dec("23.10"), Date: date.MustParse("2024-05-10")})
	require.NoError(t, err)
	require.NotEmpty(t, tx.ID)
	require.Equal(t, "Uber Eats Inc", tx.Vendor)
	require.Equal(t, catalog.Dining, tx.Category)

	tx, err = e.AddTransaction(model.Transaction{Vendor: "Corner shop", Amount: dec("2"), Date: date.MustParse("2024-05-10")})
	require.NoError(t, err)
	require.Equal(t, catalog.Uncategorized, tx.Category)

	pets, err := e.AddCategory(model.Category{Name: "Pets", Icon: catalog.IconPaw})
	require.NoError(t, err)
	_, err = e.AddVendorRule("Petco", pets.ID)
	require.NoError(t, err)
	tx, err = e.AddTransaction(model.Transaction{Vendor: "PETCO #123", Amount: dec("31"), Date: date.MustParse("2024-05-11")})
	require.NoError(t, err)
	require.Equal(t, pets.ID, tx.Category)
}

func TestAddTransactionValidation(t *testing.T) {
	t.Parallel()
	e, _ := testEngine(t)
	day := date.MustParse("2024-05-10")

	cases := map[string]struct {
		tx  model.Transaction
		err error
	}{
		"empty vendor":     {model.Transaction{Vendor: "  ", Amount: dec("1"), Date: day}, ErrEmptyVendor},
		"negative amount":  {model.Transaction{Vendor: "x", Amount: dec("-1"), Date: day}, ErrInvalidAmount},
		"no date":          {model.Transaction{Vendor: "x", Amount: dec("1")}, ErrInvalidDate},
		"unknown category": {model.Transaction{Vendor: "x", Amount: dec("1"), Date: day, Category: "nope"}, ErrUnknownCategory},
		"bad recurrence":   {model.Transaction{Vendor: "x", Amount: dec("1"), Date: day, IsRecurring: true, RecurrenceType: "hourly"}, ErrInvalidRecurrence},
	}
	for name, tc := range cases {
		_, err := e.AddTransaction(tc.tx)
		require.ErrorIs(t, err, tc.err, name)
		require.ErrorIs(t, err, ErrValidation, name)
	}
	require.Empty(t, e.Snapshot().Transactions)
}

func TestUpdatePastRuleSplits(t *testing.T) {
	t.Parallel()
	e, c := testEngine(t)
	today := e.Today()

	orig, err := e.AddTransaction(rule("Netflix", "10", "2024-03-10", model.Monthly))
	require.NoError(t, err)

	edit := orig
	edit.Amount = dec("12")
	c.Advance(time.Second)
	next, err := e.UpdateTransaction(edit)
	require.NoError(t, err)
	require.NotEqual(t, orig.ID, next.ID)
	require.Equal(t, date.MustParse("2024-06-10"), next.Date)

	snap := e.Snapshot()
	require.Len(t, snap.Transactions, 2)
	ended := snap.Transactions[0]
	require.Equal(t, orig.ID, ended.ID)
	require.Equal(t, today.AddDays(-1), *ended.EndedAt)
	require.True(t, dec("10").Equal(ended.Amount))

	for _, en := range entriesOf(e, "Netflix") {
		if en.Date.Before(today) {
			require.True(t, dec("10").Equal(en.Amount), en.Date.String())
			require.Equal(t, orig.ID, en.Ref.Owner())
		} else {
			require.True(t, dec("12").Equal(en.Amount), en.Date.String())
			require.Equal(t, next.ID, en.Ref.Owner())
		}
	}
}

func TestUpdatePastRuleKeepsUpcomingSkips(t *testing.T) {
	t.Parallel()
	e, c := testEngine(t)

	orig, err := e.AddTransaction(rule("Landlord", "900", "2024-01-20", model.Monthly))
	require.NoError(t, err)
	june := date.MustParse("2024-06-20")
	march := date.MustParse("2024-03-20")
	require.NoError(t, e.SkipOccurrence(model.OccurrenceRef(orig.ID, june), "away"))
	require.NoError(t, e.SkipOccurrence(model.OccurrenceRef(orig.ID, march), ""))

	edit := orig
	edit.Amount = dec("950")
	c.Advance(time.Second)
	next, err := e.UpdateTransaction(edit)
	require.NoError(t, err)
	require.Equal(t, date.MustParse("2024-05-20"), next.Date)

	skipped := map[string]bool{}
	for _, en := range entriesOf(e, "Landlord") {
		require.Equal(t, 20, en.Date.Day(), en.Date.String())
		if en.IsSkipped {
			skipped[en.Ref.Key()] = true
		}
	}
	require.True(t, skipped[model.OccurrenceRef(next.ID, june).Key()])
	require.True(t, skipped[model.OccurrenceRef(orig.ID, march).Key()])
	require.Len(t, skipped, 2)

	live := model.ActiveExceptions(e.Snapshot().Exceptions)
	require.Len(t, live, 2)
	for _, x := range live {
		if x.Date == june {
			require.Equal(t, next.ID, x.RuleID)
			require.Equal(t, "away", x.Note)
		}
	}

	// the moved skip can be undone through the new rule
	require.NoError(t, e.UnskipOccurrence(model.OccurrenceRef(next.ID, june)))
	require.Len(t, model.ActiveExceptions(e.Snapshot().Exceptions), 1)
}

func TestUpdateFutureRuleInPlace(t *testing.T) {
	t.Parallel()
	e, _ := testEngine(t)

	r, err := e.AddTransaction(rule("Gym", "25", "2024-06-01", model.Weekly))
	require.NoError(t, err)
	r.Amount = dec("30")
	got, err := e.UpdateTransaction(r)
	require.NoError(t, err)
	require.Equal(t, r.ID, got.ID)
	require.Len(t, e.Snapshot().Transactions, 1)

	_, err = e.UpdateTransaction(model.Transaction{ID: "missing", Vendor: "x", Amount: dec("1"), Date: r.Date})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStopRecurring(t *testing.T) {
	t.Parallel()
	e, _ := testEngine(t)

	r, err := e.AddTransaction(rule("Rent", "1500", "2024-01-01", model.Monthly))
	require.NoError(t, err)
	require.NoError(t, e.StopRecurring(r.ID))

	got := entriesOf(e, "Rent")
	require.Len(t, got, 5)
	require.Equal(t, date.MustParse("2024-05-01"), got[4].Date)

	one, err := e.AddTransaction(model.Transaction{Vendor: "Lunch", Amount: dec("9"), Date: date.MustParse("2024-05-01")})
	require.NoError(t, err)
	require.ErrorIs(t, e.StopRecurring(one.ID), ErrNotRecurring)
}

func TestSkipAndUnskip(t *testing.T) {
	t.Parallel()
	e, _ := testEngine(t)

	r, err := e.AddTransaction(rule("Spotify", "11.99", "2024-01-03", model.Monthly))
	require.NoError(t, err)
	march := model.OccurrenceRef(r.ID, date.MustParse("2024-03-03"))

	require.NoError(t, e.SkipOccurrence(march, " travelling "))
	var skipped model.Entry
	for _, en := range entriesOf(e, "Spotify") {
		if en.Ref == march {
			skipped = en
		}
	}
	require.True(t, skipped.IsSkipped)
	require.Equal(t, "travelling", skipped.SkipNote)
	require.Equal(t, r.ID+"-2024-03-03", skipped.ID)

	res := e.Query(report.Between(date.MustParse("2024-03-01"), date.MustParse("2024-03-31")))
	require.Empty(t, res.Entries)
	require.True(t, res.Total.IsZero())

	require.NoError(t, e.UnskipOccurrence(march))
	require.NoError(t, e.UnskipOccurrence(march))
	res = e.Query(report.Between(date.MustParse("2024-03-01"), date.MustParse("2024-03-31")))
	require.Len(t, res.Entries, 1)

	snap := e.Snapshot()
	require.Len(t, snap.Exceptions, 1)
	require.True(t, snap.Exceptions[0].Tombstoned())

	require.ErrorIs(t, e.SkipOccurrence(model.OccurrenceRef(r.ID, date.MustParse("2024-03-04")), ""), ErrNotFound)
	require.ErrorIs(t, e.SkipOccurrence(model.RuleRef(r.ID), ""), ErrNotAnOccurrence)
}

func TestDeleteTransaction(t *testing.T) {
	t.Parallel()
	e, _ := testEngine(t)

	r, err := e.AddTransaction(rule("Hulu", "8", "2024-04-20", model.Monthly))
	require.NoError(t, err)
	occ := model.OccurrenceRef(r.ID, date.MustParse("2024-05-20"))

	// deleting one occurrence skips it
	require.NoError(t, e.DeleteTransaction(occ))
	snap := e.Snapshot()
	require.Len(t, snap.Exceptions, 1)
	require.True(t, snap.Exceptions[0].Skipped)

	require.NoError(t, e.DeleteTransaction(model.RuleRef(r.ID)))
	require.Empty(t, entriesOf(e, "Hulu"))
	snap = e.Snapshot()
	require.True(t, snap.Transactions[0].Tombstoned())
	require.True(t, snap.Exceptions[0].Tombstoned())

	require.ErrorIs(t, e.DeleteTransaction(model.RuleRef(r.ID)), ErrNotFound)
}

func TestPossibleDuplicates(t *testing.T) {
	t.Parallel()
	e, _ := testEngine(t)

	first, err := e.AddTransaction(model.Transaction{Vendor: "Starbucks", Amount: dec("4.50"), Date: date.MustParse("2024-05-01")})
	require.NoError(t, err)
	_, err = e.AddTransaction(model.Transaction{Vendor: "Shell", Amount: dec("4.50"), Date: date.MustParse("2024-05-01")})
	require.NoError(t, err)

	dups := e.PossibleDuplicates(model.Transaction{Vendor: "STARBUCKS #12", Amount: dec("4.5"), Date: date.MustParse("2024-05-02")})
	require.Len(t, dups, 1)
	require.Equal(t, first.ID, dups[0].ID)

	require.Empty(t, e.PossibleDuplicates(model.Transaction{Vendor: "Starbucks", Amount: dec("5"), Date: date.MustParse("2024-05-01")}))
	require.Empty(t, e.PossibleDuplicates(model.Transaction{Vendor: "Starbucks", Amount: dec("4.50"), Date: date.MustParse("2024-05-09")}))
	require.Empty(t, e.PossibleDuplicates(first))
}

func TestSuggestVendorsPrefersRecent(t *testing.T) {
	t.Parallel()
	e, _ := testEngine(t)

	_, err := e.AddTransaction(model.Transaction{Vendor: "Uberto's Pizza", Amount: dec("20"), Date: date.MustParse("2024-05-01")})
	require.NoError(t, err)
	got := e.SuggestVendors("uber", 3)
	require.NotEmpty(t, got)
	require.Contains(t, got, "Uberto's Pizza")
}
