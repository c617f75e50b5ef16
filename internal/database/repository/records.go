package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// Collections of the local store.
const (
	Transactions        = "transactions"
	Categories          = "categories"
	VendorRules         = "vendorRules"
	RecurringExceptions = "recurringExceptions"
	Budgets             = "budgets"
	Settings            = "settings"
	Meta                = "meta"
)

// Well-known keys of the singleton collections.
const (
	SettingsKey      = "settings"
	SchemaVersionKey = "schemaVersion"
)

// ErrNotFound is returned by Get for missing keys.
var ErrNotFound = errors.New("record not found")

// RecordRepo is the key-value store: one JSON document per (collection, key).
type RecordRepo struct{ db *sql.DB }

func NewRecordRepo(db *sql.DB) *RecordRepo { return &RecordRepo{db: db} }

// Get decodes the record at (collection, key) into out.
func (r *RecordRepo) Get(ctx context.Context, collection, key string, out any) error {
	var raw string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM records WHERE collection = ? AND key = ?`, collection, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("decode %s/%s: %w", collection, key, err)
	}
	return nil
}

// GetAll returns the raw documents of collection in key order.
func (r *RecordRepo) GetAll(ctx context.Context, collection string) ([]json.RawMessage, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT value FROM records WHERE collection = ? ORDER BY key`, collection)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []json.RawMessage
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		out = append(out, json.RawMessage(raw))
	}
	return out, rows.Err()
}

// Set upserts value under (collection, key).
func (r *RecordRepo) Set(ctx context.Context, collection, key string, value any, updatedAt int64) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", collection, key, err)
	}
	_, err = r.db.ExecContext(ctx, `
	INSERT INTO records(collection, key, value, updated_at) VALUES(?, ?, ?, ?)
	ON CONFLICT(collection, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, collection, key, string(data), updatedAt)
	return err
}

// Remove deletes (collection, key). Missing keys are not an error.
func (r *RecordRepo) Remove(ctx context.Context, collection, key string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM records WHERE collection = ? AND key = ?`, collection, key)
	return err
}

// ClearAll deletes every record of every collection.
func (r *RecordRepo) ClearAll(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM records`)
	return err
}

// Count returns the number of records in collection.
func (r *RecordRepo) Count(ctx context.Context, collection string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records WHERE collection = ?`, collection).Scan(&n)
	return n, err
}

// Lister is the read side GetAllInto needs.
type Lister interface {
	GetAll(ctx context.Context, collection string) ([]json.RawMessage, error)
}

// GetAllInto decodes every document of collection into a slice of T.
func GetAllInto[T any](ctx context.Context, r Lister, collection string) ([]T, error) {
	raws, err := r.GetAll(ctx, collection)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(raws))
	for _, raw := range raws {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("decode %s: %w", collection, err)
		}
		out = append(out, v)
	}
	return out, nil
}
