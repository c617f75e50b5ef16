package service

import (
	"context"
	"log"
	"time"

	"github.com/jask/calendarspent/internal/calendar"
	"github.com/jask/calendarspent/internal/cloudsync"
	"github.com/jask/calendarspent/internal/model"
	"github.com/jask/calendarspent/internal/schema"
	"github.com/jask/calendarspent/internal/session"
)

const autoSyncTimeout = time.Minute

// Sync reconciles local state with the remote copy of sess's user. Local
// edits made while the sync runs are kept: the merged result is merged
// again with the state current at apply time. Failures are recorded in the
// settings and leave every other record untouched.
func (e *Engine) Sync(ctx context.Context, sess session.Session) (cloudsync.Stats, error) {
	if e.reconciler == nil {
		return cloudsync.Stats{}, ErrNoRemote
	}
	e.syncMu.Lock()
	defer e.syncMu.Unlock()

	var local model.Snapshot
	if err := e.read(func() { local = e.state.Clone() }); err != nil {
		return cloudsync.Stats{}, err
	}

	stats, err := e.reconciler.Sync(ctx, sess, local, func(merged model.Snapshot) error {
		e.mu.Lock()
		defer e.mu.Unlock()
		next := cloudsync.Merge(e.state, merged)
		schema.Apply(&next)
		if next.Settings == nil {
			st := model.DefaultSettings()
			next.Settings = &st
		}
		e.state = next
		e.state.Settings.LastSyncAt = e.millis()
		e.state.Settings.LastSyncError = ""
		e.persistAll()
		return nil
	})
	if err != nil {
		e.recordSyncError(err)
		return stats, err
	}
	return stats, nil
}

func (e *Engine) recordSyncError(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.Settings == nil {
		return
	}
	st := e.state.Clone().Settings
	st.LastSyncError = err.Error()
	e.state.Settings = st
	e.putSettings()
}

// EnableAutoSync syncs sess's data delay after the last local change.
func (e *Engine) EnableAutoSync(sess session.Session, delay time.Duration) error {
	if e.reconciler == nil {
		return ErrNoRemote
	}
	e.autoMu.Lock()
	defer e.autoMu.Unlock()
	if e.debouncer != nil {
		e.debouncer.Stop()
	}
	e.debouncer = cloudsync.NewDebouncer(delay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), autoSyncTimeout)
		defer cancel()
		if _, err := e.Sync(ctx, sess); err != nil {
			log.Printf("warn: auto sync: %v", err)
		}
	})
	return nil
}

// DisableAutoSync cancels any pending automatic sync.
func (e *Engine) DisableAutoSync() {
	e.autoMu.Lock()
	defer e.autoMu.Unlock()
	if e.debouncer != nil {
		e.debouncer.Stop()
		e.debouncer = nil
	}
}

// changed is called after every successful mutation.
func (e *Engine) changed() {
	e.autoMu.Lock()
	defer e.autoMu.Unlock()
	if e.debouncer != nil {
		e.debouncer.Trigger()
	}
}

// SyncCalendar uploads the calendar payload and records the outcome.
func (e *Engine) SyncCalendar(ctx context.Context, sess session.Session) (calendar.SyncResult, error) {
	if e.calendar == nil {
		return calendar.SyncResult{}, ErrNoCalendar
	}
	res, err := e.calendar.Sync(ctx, sess, e.CalendarPayload())

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.Settings != nil {
		st := e.state.Clone().Settings
		if err != nil {
			st.LastCalendarSyncError = err.Error()
		} else {
			st.LastCalendarSyncAt = e.millis()
			st.LastCalendarSyncError = ""
		}
		e.state.Settings = st
		e.putSettings()
	}
	return res, err
}
