package remote

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jask/calendarspent/internal/cloudsync"
	"github.com/jask/calendarspent/internal/date"
	"github.com/jask/calendarspent/internal/model"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	require.NoError(t, classify(nil))
	require.ErrorIs(t, classify(&pq.Error{Code: "28P01"}), cloudsync.ErrAuth)
	require.ErrorIs(t, classify(fmt.Errorf("pull: %w", &pq.Error{Code: "08006"})), cloudsync.ErrNetwork)
	require.ErrorIs(t, classify(context.DeadlineExceeded), cloudsync.ErrNetwork)

	plain := errors.New("syntax error")
	require.Equal(t, plain, classify(plain))
}

// openTestStore needs a scratch database, e.g.
// CALENDARSPENT_TEST_POSTGRES_DSN=postgres://localhost/calendarspent_test?sslmode=disable
func openTestStore(t *testing.T) *PostgresStore {
	t.Helper()
	dsn := os.Getenv("CALENDARSPENT_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("CALENDARSPENT_TEST_POSTGRES_DSN not set")
	}
	require.NoError(t, RunMigrations(dsn))
	s, err := Open(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPushPullRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	user := uuid.NewString()
	t.Cleanup(func() { _ = s.DeleteUser(ctx, user) })

	end := date.MustParse("2024-12-31")
	active := true
	snap := model.Snapshot{
		Transactions: []model.Transaction{{
			ID: "t1", Vendor: "Gym", Amount: decimal.RequireFromString("30.5"), Category: "health",
			Date: date.MustParse("2024-01-15"), IsRecurring: true, RecurrenceType: model.Monthly,
			EndDate: &end, IsActive: &active, UpdatedAt: 10,
		}},
		Categories:  []model.Category{{ID: "pets", Name: "Pets", Icon: "paw", Color: "#fff", Group: "Other", UpdatedAt: 5}},
		VendorRules: []model.VendorRule{{ID: "r1", VendorContains: "petco", CategoryID: "pets", Source: model.SourceUser, CreatedAt: 1, UpdatedAt: 5}},
		Exceptions: []model.RecurringException{{
			ID: model.ExceptionID("t1", date.MustParse("2024-02-15")), RuleID: "t1",
			Date: date.MustParse("2024-02-15"), Skipped: true, UpdatedAt: 7,
		}},
		Budgets:  []model.Budget{{CategoryID: "pets", MonthlyLimit: decimal.NewFromInt(40), UpdatedAt: 3}},
		Settings: &model.Settings{Currency: "EUR", UpdatedAt: 9},
	}
	require.NoError(t, s.Push(ctx, user, snap))

	got, err := s.Pull(ctx, user)
	require.NoError(t, err)
	require.Len(t, got.Transactions, 1)
	require.True(t, snap.Transactions[0].Amount.Equal(got.Transactions[0].Amount))
	require.Equal(t, end, *got.Transactions[0].EndDate)
	require.Nil(t, got.Transactions[0].EndedAt)
	require.True(t, *got.Transactions[0].IsActive)
	require.Equal(t, snap.Categories, got.Categories)
	require.Equal(t, snap.VendorRules, got.VendorRules)
	require.Equal(t, snap.Exceptions, got.Exceptions)
	require.Equal(t, "EUR", got.Settings.Currency)

	// a stale copy does not overwrite a newer row
	stale := snap.Transactions[0]
	stale.Vendor, stale.UpdatedAt = "stale", 1
	tomb := snap.Categories[0]
	tomb.DeletedAt = 50
	require.NoError(t, s.Push(ctx, user, model.Snapshot{Transactions: []model.Transaction{stale}, Categories: []model.Category{tomb}}))

	got, err = s.Pull(ctx, user)
	require.NoError(t, err)
	require.Equal(t, "Gym", got.Transactions[0].Vendor)
	require.Equal(t, int64(50), got.Categories[0].DeletedAt)
}
