// Package remote is the PostgreSQL copy of every user's records. Rows are
// scoped by user_id and soft-deleted through deleted_at.
package remote

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/jask/calendarspent/internal/cloudsync"
	"github.com/jask/calendarspent/internal/model"
)

// PostgresStore implements cloudsync.Remote.
type PostgresStore struct {
	db *sql.DB
}

var _ cloudsync.Remote = (*PostgresStore)(nil)

// Open connects to dsn and checks the connection.
func Open(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, classify(fmt.Errorf("failed to ping database: %w", err))
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	return &PostgresStore{db: db}, nil
}

// New wraps an open connection.
func New(db *sql.DB) *PostgresStore { return &PostgresStore{db: db} }

func (s *PostgresStore) Close() error { return s.db.Close() }

// Pull reads every row of userID, tombstones included.
func (s *PostgresStore) Pull(ctx context.Context, userID string) (model.Snapshot, error) {
	var snap model.Snapshot
	var err error
	if snap.Transactions, err = s.pullTransactions(ctx, userID); err != nil {
		return model.Snapshot{}, classify(err)
	}
	if snap.Categories, err = s.pullCategories(ctx, userID); err != nil {
		return model.Snapshot{}, classify(err)
	}
	if snap.VendorRules, err = s.pullVendorRules(ctx, userID); err != nil {
		return model.Snapshot{}, classify(err)
	}
	if snap.Exceptions, err = s.pullExceptions(ctx, userID); err != nil {
		return model.Snapshot{}, classify(err)
	}
	if snap.Budgets, err = s.pullBudgets(ctx, userID); err != nil {
		return model.Snapshot{}, classify(err)
	}
	if snap.Settings, err = s.pullSettings(ctx, userID); err != nil {
		return model.Snapshot{}, classify(err)
	}
	return snap, nil
}

// Push upserts changes in one transaction. A row is only overwritten by a
// copy that is at least as new, so a stale push cannot regress it.
func (s *PostgresStore) Push(ctx context.Context, userID string, changes model.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(err)
	}
	if err := push(ctx, tx, userID, changes); err != nil {
		_ = tx.Rollback()
		return classify(err)
	}
	return classify(tx.Commit())
}

func push(ctx context.Context, tx *sql.Tx, userID string, c model.Snapshot) error {
	for _, t := range c.Transactions {
		if _, err := tx.ExecContext(ctx, upsertTransactionSQL, userID, t.ID, t.Vendor, t.Amount, t.Category, t.Date,
			t.Note, t.PhotoURL, t.IsRecurring, string(t.RecurrenceType), t.EndDate, t.IsActive, t.EndedAt,
			t.UpdatedAt, nullMillis(t.DeletedAt)); err != nil {
			return fmt.Errorf("push transaction %s: %w", t.ID, err)
		}
	}
	for _, cat := range c.Categories {
		if _, err := tx.ExecContext(ctx, upsertCategorySQL, userID, cat.ID, cat.Name, string(cat.Icon), cat.Color,
			string(cat.Group), cat.UpdatedAt, nullMillis(cat.DeletedAt)); err != nil {
			return fmt.Errorf("push category %s: %w", cat.ID, err)
		}
	}
	for _, r := range c.VendorRules {
		if _, err := tx.ExecContext(ctx, upsertVendorRuleSQL, userID, r.ID, r.VendorContains, r.CategoryID,
			string(r.Source), r.CreatedAt, r.UpdatedAt, nullMillis(r.DeletedAt)); err != nil {
			return fmt.Errorf("push vendor rule %s: %w", r.ID, err)
		}
	}
	for _, e := range c.Exceptions {
		if _, err := tx.ExecContext(ctx, upsertExceptionSQL, userID, e.ID, e.RuleID, e.Date, e.Skipped, e.Note,
			e.UpdatedAt, nullMillis(e.DeletedAt)); err != nil {
			return fmt.Errorf("push exception %s: %w", e.ID, err)
		}
	}
	for _, b := range c.Budgets {
		if _, err := tx.ExecContext(ctx, upsertBudgetSQL, userID, b.CategoryID, b.MonthlyLimit,
			b.UpdatedAt, nullMillis(b.DeletedAt)); err != nil {
			return fmt.Errorf("push budget %s: %w", b.CategoryID, err)
		}
	}
	if c.Settings != nil {
		data, err := json.Marshal(c.Settings)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, upsertSettingsSQL, userID, string(data), c.Settings.UpdatedAt); err != nil {
			return fmt.Errorf("push settings: %w", err)
		}
	}
	return nil
}

// userTables lists every table holding per-user rows.
var userTables = []string{
	"transactions", "categories", "vendor_rules", "recurring_exceptions",
	"budgets", "settings", "calendar_events", "calendar_connections",
}

// DeleteUser physically removes every row of userID.
func (s *PostgresStore) DeleteUser(ctx context.Context, userID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(err)
	}
	for _, table := range userTables {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+pq.QuoteIdentifier(table)+" WHERE user_id = $1", userID); err != nil {
			_ = tx.Rollback()
			return classify(fmt.Errorf("delete %s: %w", table, err))
		}
	}
	return classify(tx.Commit())
}

func nullMillis(v int64) any {
	if v == 0 {
		return nil
	}
	return v
}

// classify maps connection and authorization failures onto the sync
// sentinels so callers can tell them apart.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Class() {
		case "28": // invalid_authorization_specification
			return fmt.Errorf("%w: %w", cloudsync.ErrAuth, err)
		case "08", "53", "57": // connection, resources, operator intervention
			return fmt.Errorf("%w: %w", cloudsync.ErrNetwork, err)
		}
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", cloudsync.ErrNetwork, err)
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) || errors.Is(err, sql.ErrConnDone) {
		return fmt.Errorf("%w: %w", cloudsync.ErrNetwork, err)
	}
	return err
}
