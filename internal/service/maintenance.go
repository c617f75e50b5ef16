package service

import (
	"context"
	"io"

	"github.com/jask/calendarspent/internal/backup"
	"github.com/jask/calendarspent/internal/demo"
	"github.com/jask/calendarspent/internal/model"
	"github.com/jask/calendarspent/internal/schema"
)

const demoCount = 24

// Reset wipes every local record and starts over with the system
// categories and default settings. The remote copy is not touched.
func (e *Engine) Reset(ctx context.Context) error {
	if err := e.Flush(ctx); err != nil {
		return err
	}
	return e.mutate(func(now int64) error {
		var fresh model.Snapshot
		schema.Apply(&fresh)
		st := model.DefaultSettings()
		st.UpdatedAt = now
		fresh.Settings = &st

		e.state = fresh
		e.w.enqueue(op{kind: opClear})
		e.persistAll()
		e.putVersion(now)
		return nil
	})
}

// SeedDemo adds sample expenses to an empty, demo-enabled store and
// returns how many were added.
func (e *Engine) SeedDemo(ctx context.Context) (int, error) {
	n := 0
	err := e.mutate(func(now int64) error {
		if e.state.Settings.SuppressDemoData || len(model.ActiveTransactions(e.state.Transactions)) > 0 {
			return nil
		}
		for _, t := range demo.Generate(e.rng, e.today(), demoCount, now) {
			e.state.Transactions = append(e.state.Transactions, t)
			e.putTransaction(t)
			n++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n, e.Flush(ctx)
}

// ExportBackup writes the whole state, tombstones included, as a backup.
func (e *Engine) ExportBackup(w io.Writer) error {
	var doc backup.Document
	if err := e.read(func() { doc = backup.New(e.state, e.now()) }); err != nil {
		return err
	}
	return backup.Encode(w, doc)
}

// ExportBackupFile writes the backup to path, replacing it atomically.
func (e *Engine) ExportBackupFile(path string) error {
	var doc backup.Document
	if err := e.read(func() { doc = backup.New(e.state, e.now()) }); err != nil {
		return err
	}
	return backup.WriteFile(path, doc)
}

// ImportBackup replaces the state with a backup. Imported records are
// stamped now so they win the next sync, and records the backup lacks are
// tombstoned. This device's sync bookkeeping is kept.
func (e *Engine) ImportBackup(r io.Reader) error {
	doc, err := backup.Decode(r)
	if err != nil {
		return err
	}
	snap := doc.Snapshot()
	schema.Upgrade(&snap, doc.Version)
	schema.Apply(&snap)

	return e.mutate(func(now int64) error {
		next := restamp(snap, e.state, now)
		e.state = next
		e.w.enqueue(op{kind: opClear})
		e.persistAll()
		e.putVersion(now)
		return nil
	})
}

func restamp(in, old model.Snapshot, now int64) model.Snapshot {
	out := model.Snapshot{
		Transactions: restampRecords(in.Transactions, old.Transactions, now,
			func(t *model.Transaction) (*int64, *int64) { return &t.UpdatedAt, &t.DeletedAt }),
		Categories: restampRecords(in.Categories, old.Categories, now,
			func(c *model.Category) (*int64, *int64) { return &c.UpdatedAt, &c.DeletedAt }),
		VendorRules: restampRecords(in.VendorRules, old.VendorRules, now,
			func(r *model.VendorRule) (*int64, *int64) { return &r.UpdatedAt, &r.DeletedAt }),
		Exceptions: restampRecords(in.Exceptions, old.Exceptions, now,
			func(x *model.RecurringException) (*int64, *int64) { return &x.UpdatedAt, &x.DeletedAt }),
		Budgets: restampRecords(in.Budgets, old.Budgets, now,
			func(b *model.Budget) (*int64, *int64) { return &b.UpdatedAt, &b.DeletedAt }),
	}

	st := model.DefaultSettings()
	if in.Settings != nil {
		st = *in.Settings
	}
	if old.Settings != nil {
		st.LastSyncAt, st.LastSyncError = old.Settings.LastSyncAt, old.Settings.LastSyncError
		st.LastCalendarSyncAt, st.LastCalendarSyncError = old.Settings.LastCalendarSyncAt, old.Settings.LastCalendarSyncError
	}
	st.UpdatedAt = now
	out.Settings = &st
	return out
}

// restampRecords stamps every imported record with now and appends a
// tombstone for each live old record missing from in.
func restampRecords[T model.Record](in, old []T, now int64, clock func(*T) (*int64, *int64)) []T {
	out := make([]T, 0, len(in)+len(old))
	keep := map[string]bool{}
	for _, r := range in {
		updated, deleted := clock(&r)
		if *deleted != 0 {
			*deleted = now
		} else {
			*updated = now
		}
		keep[r.Key()] = true
		out = append(out, r)
	}
	for _, r := range old {
		if keep[r.Key()] {
			continue
		}
		if !r.Tombstoned() {
			_, deleted := clock(&r)
			*deleted = now
		}
		out = append(out, r)
	}
	return out
}
