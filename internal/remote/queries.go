package remote

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/jask/calendarspent/internal/model"
)

// The WHERE clause of each upsert keeps the newer row: version is
// max(updated_at, deleted_at), as in the local merge.
const (
	upsertTransactionSQL = `
	INSERT INTO transactions(user_id, id, vendor, amount, category, date, note, photo_url, is_recurring,
		recurrence_type, end_date, is_active, ended_at, updated_at, deleted_at)
	VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	ON CONFLICT (user_id, id) DO UPDATE SET
		vendor = EXCLUDED.vendor, amount = EXCLUDED.amount, category = EXCLUDED.category,
		date = EXCLUDED.date, note = EXCLUDED.note, photo_url = EXCLUDED.photo_url,
		is_recurring = EXCLUDED.is_recurring, recurrence_type = EXCLUDED.recurrence_type,
		end_date = EXCLUDED.end_date, is_active = EXCLUDED.is_active, ended_at = EXCLUDED.ended_at,
		updated_at = EXCLUDED.updated_at, deleted_at = EXCLUDED.deleted_at
	WHERE GREATEST(transactions.updated_at, COALESCE(transactions.deleted_at, 0))
		<= GREATEST(EXCLUDED.updated_at, COALESCE(EXCLUDED.deleted_at, 0))`

	upsertCategorySQL = `
	INSERT INTO categories(user_id, id, name, icon, color, grp, updated_at, deleted_at)
	VALUES($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (user_id, id) DO UPDATE SET
		name = EXCLUDED.name, icon = EXCLUDED.icon, color = EXCLUDED.color, grp = EXCLUDED.grp,
		updated_at = EXCLUDED.updated_at, deleted_at = EXCLUDED.deleted_at
	WHERE GREATEST(categories.updated_at, COALESCE(categories.deleted_at, 0))
		<= GREATEST(EXCLUDED.updated_at, COALESCE(EXCLUDED.deleted_at, 0))`

	upsertVendorRuleSQL = `
	INSERT INTO vendor_rules(user_id, id, vendor_contains, category_id, source, created_at, updated_at, deleted_at)
	VALUES($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (user_id, id) DO UPDATE SET
		vendor_contains = EXCLUDED.vendor_contains, category_id = EXCLUDED.category_id,
		source = EXCLUDED.source, created_at = EXCLUDED.created_at,
		updated_at = EXCLUDED.updated_at, deleted_at = EXCLUDED.deleted_at
	WHERE GREATEST(vendor_rules.updated_at, COALESCE(vendor_rules.deleted_at, 0))
		<= GREATEST(EXCLUDED.updated_at, COALESCE(EXCLUDED.deleted_at, 0))`

	upsertExceptionSQL = `
	INSERT INTO recurring_exceptions(user_id, id, rule_id, date, skipped, note, updated_at, deleted_at)
	VALUES($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (user_id, id) DO UPDATE SET
		rule_id = EXCLUDED.rule_id, date = EXCLUDED.date, skipped = EXCLUDED.skipped, note = EXCLUDED.note,
		updated_at = EXCLUDED.updated_at, deleted_at = EXCLUDED.deleted_at
	WHERE GREATEST(recurring_exceptions.updated_at, COALESCE(recurring_exceptions.deleted_at, 0))
		<= GREATEST(EXCLUDED.updated_at, COALESCE(EXCLUDED.deleted_at, 0))`

	upsertBudgetSQL = `
	INSERT INTO budgets(user_id, category_id, monthly_limit, updated_at, deleted_at)
	VALUES($1, $2, $3, $4, $5)
	ON CONFLICT (user_id, category_id) DO UPDATE SET
		monthly_limit = EXCLUDED.monthly_limit,
		updated_at = EXCLUDED.updated_at, deleted_at = EXCLUDED.deleted_at
	WHERE GREATEST(budgets.updated_at, COALESCE(budgets.deleted_at, 0))
		<= GREATEST(EXCLUDED.updated_at, COALESCE(EXCLUDED.deleted_at, 0))`

	upsertSettingsSQL = `
	INSERT INTO settings(user_id, data, updated_at) VALUES($1, $2, $3)
	ON CONFLICT (user_id) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at
	WHERE settings.updated_at <= EXCLUDED.updated_at`
)

func (s *PostgresStore) pullTransactions(ctx context.Context, userID string) ([]model.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT id, vendor, amount, category, date, note, photo_url, is_recurring, recurrence_type,
		end_date, is_active, ended_at, updated_at, COALESCE(deleted_at, 0)
	FROM transactions WHERE user_id = $1 ORDER BY date, id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Transaction
	for rows.Next() {
		var t model.Transaction
		var recurrence string
		if err := rows.Scan(&t.ID, &t.Vendor, &t.Amount, &t.Category, &t.Date, &t.Note, &t.PhotoURL,
			&t.IsRecurring, &recurrence, &t.EndDate, &t.IsActive, &t.EndedAt, &t.UpdatedAt, &t.DeletedAt); err != nil {
			return nil, err
		}
		t.RecurrenceType = model.Recurrence(recurrence)
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *PostgresStore) pullCategories(ctx context.Context, userID string) ([]model.Category, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT id, name, icon, color, grp, updated_at, COALESCE(deleted_at, 0)
	FROM categories WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Category
	for rows.Next() {
		var c model.Category
		var icon, group string
		if err := rows.Scan(&c.ID, &c.Name, &icon, &c.Color, &group, &c.UpdatedAt, &c.DeletedAt); err != nil {
			return nil, err
		}
		c.Icon, c.Group = model.Icon(icon), model.Group(group)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) pullVendorRules(ctx context.Context, userID string) ([]model.VendorRule, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT id, vendor_contains, category_id, source, created_at, updated_at, COALESCE(deleted_at, 0)
	FROM vendor_rules WHERE user_id = $1 ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.VendorRule
	for rows.Next() {
		var r model.VendorRule
		var source string
		if err := rows.Scan(&r.ID, &r.VendorContains, &r.CategoryID, &source, &r.CreatedAt, &r.UpdatedAt, &r.DeletedAt); err != nil {
			return nil, err
		}
		r.Source = model.RuleSource(source)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PostgresStore) pullExceptions(ctx context.Context, userID string) ([]model.RecurringException, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT id, rule_id, date, skipped, note, updated_at, COALESCE(deleted_at, 0)
	FROM recurring_exceptions WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.RecurringException
	for rows.Next() {
		var e model.RecurringException
		if err := rows.Scan(&e.ID, &e.RuleID, &e.Date, &e.Skipped, &e.Note, &e.UpdatedAt, &e.DeletedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *PostgresStore) pullBudgets(ctx context.Context, userID string) ([]model.Budget, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT category_id, monthly_limit, updated_at, COALESCE(deleted_at, 0)
	FROM budgets WHERE user_id = $1 ORDER BY category_id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Budget
	for rows.Next() {
		var b model.Budget
		if err := rows.Scan(&b.CategoryID, &b.MonthlyLimit, &b.UpdatedAt, &b.DeletedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *PostgresStore) pullSettings(ctx context.Context, userID string) (*model.Settings, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM settings WHERE user_id = $1`, userID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var st model.Settings
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, err
	}
	return &st, nil
}
