// Package service is the expense engine: it owns the in-memory state, is
// its only mutator, and queues every change for the local store.
package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/jask/calendarspent/internal/calendar"
	"github.com/jask/calendarspent/internal/cloudsync"
	"github.com/jask/calendarspent/internal/database/repository"
	"github.com/jask/calendarspent/internal/date"
	"github.com/jask/calendarspent/internal/model"
	"github.com/jask/calendarspent/internal/schema"
)

var (
	ErrValidation = errors.New("invalid input")
	ErrNotFound   = errors.New("not found")
	ErrNotLoaded  = errors.New("engine not loaded")
	ErrNoRemote   = errors.New("cloud sync not configured")
	ErrNoCalendar = errors.New("calendar sync not configured")
)

// Validation failures. All wrap ErrValidation.
var (
	ErrEmptyName          = fmt.Errorf("%w: name is empty", ErrValidation)
	ErrDuplicateName      = fmt.Errorf("%w: a category with that name exists", ErrValidation)
	ErrInvalidGroup       = fmt.Errorf("%w: unknown group", ErrValidation)
	ErrInvalidIcon        = fmt.Errorf("%w: unknown icon", ErrValidation)
	ErrInvalidColor       = fmt.Errorf("%w: color must be #rgb or #rrggbb", ErrValidation)
	ErrUnknownCategory    = fmt.Errorf("%w: unknown category", ErrValidation)
	ErrSystemCategory     = fmt.Errorf("%w: system categories cannot be deleted", ErrValidation)
	ErrEmptyVendor        = fmt.Errorf("%w: vendor is empty", ErrValidation)
	ErrInvalidAmount      = fmt.Errorf("%w: amount must not be negative", ErrValidation)
	ErrInvalidDate        = fmt.Errorf("%w: date is required", ErrValidation)
	ErrInvalidRecurrence  = fmt.Errorf("%w: unknown recurrence", ErrValidation)
	ErrInvalidCurrency    = fmt.Errorf("%w: unknown currency", ErrValidation)
	ErrNotRecurring       = fmt.Errorf("%w: transaction is not recurring", ErrValidation)
	ErrNotAnOccurrence    = fmt.Errorf("%w: reference is not an occurrence", ErrValidation)
	ErrInvalidBudgetLimit = fmt.Errorf("%w: budget limit must be positive", ErrValidation)
)

// Options configures an Engine. Store is required.
type Options struct {
	Store    Store
	Remote   cloudsync.Remote
	Calendar *calendar.Client
	Location *time.Location
	Now      func() time.Time
	Rand     *rand.Rand

	// Retries and Backoff control the persistence writer.
	Retries int
	Backoff time.Duration
}

// Engine holds one user's state. Methods are safe for concurrent use.
type Engine struct {
	mu     sync.Mutex
	state  model.Snapshot
	loaded bool

	store      Store
	w          *writer
	reconciler *cloudsync.Reconciler
	calendar   *calendar.Client
	loc        *time.Location
	now        func() time.Time
	rng        *rand.Rand

	syncMu    sync.Mutex
	autoMu    sync.Mutex
	debouncer *cloudsync.Debouncer
}

func New(opts Options) *Engine {
	e := &Engine{
		store:    opts.Store,
		calendar: opts.Calendar,
		loc:      opts.Location,
		now:      opts.Now,
		rng:      opts.Rand,
	}
	if e.loc == nil {
		e.loc = time.Local
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(e.now().UnixNano()))
	}
	if opts.Remote != nil {
		e.reconciler = cloudsync.NewReconciler(opts.Remote)
		e.reconciler.Now = e.now
	}
	retries, backoff := opts.Retries, opts.Backoff
	if retries <= 0 {
		retries = 3
	}
	if backoff <= 0 {
		backoff = 100 * time.Millisecond
	}
	e.w = newWriter(opts.Store, retries, backoff)
	return e
}

func (e *Engine) millis() int64 { return e.now().UnixMilli() }

func (e *Engine) today() date.Date { return date.Of(e.now(), e.loc) }

func readSnapshot(ctx context.Context, s Store) (model.Snapshot, int, error) {
	var (
		snap model.Snapshot
		err  error
	)
	if snap.Transactions, err = repository.GetAllInto[model.Transaction](ctx, s, repository.Transactions); err != nil {
		return snap, 0, err
	}
	if snap.Categories, err = repository.GetAllInto[model.Category](ctx, s, repository.Categories); err != nil {
		return snap, 0, err
	}
	if snap.VendorRules, err = repository.GetAllInto[model.VendorRule](ctx, s, repository.VendorRules); err != nil {
		return snap, 0, err
	}
	if snap.Exceptions, err = repository.GetAllInto[model.RecurringException](ctx, s, repository.RecurringExceptions); err != nil {
		return snap, 0, err
	}
	if snap.Budgets, err = repository.GetAllInto[model.Budget](ctx, s, repository.Budgets); err != nil {
		return snap, 0, err
	}

	var st model.Settings
	switch err := s.Get(ctx, repository.Settings, repository.SettingsKey, &st); {
	case err == nil:
		snap.Settings = &st
	case !errors.Is(err, repository.ErrNotFound):
		return snap, 0, err
	}

	version := 0
	if err := s.Get(ctx, repository.Meta, repository.SchemaVersionKey, &version); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return snap, 0, err
	}
	return snap, version, nil
}

// Load reads the store, brings old data forward and creates the default
// settings on first run. Anything migration changed is written back.
func (e *Engine) Load(ctx context.Context) error {
	snap, from, err := readSnapshot(ctx, e.store)
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}

	version, changed := schema.Upgrade(&snap, from)
	if schema.Apply(&snap) {
		changed = true
	}
	if snap.Settings == nil {
		st := model.DefaultSettings()
		st.UpdatedAt = e.millis()
		snap.Settings = &st
		changed = true
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = snap
	e.loaded = true
	if changed {
		e.persistAll()
	}
	if version != from {
		e.putVersion(e.millis())
	}
	return nil
}

// Snapshot returns a copy of the current state.
func (e *Engine) Snapshot() model.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone()
}

// Flush waits until every change made so far is in the local store.
func (e *Engine) Flush(ctx context.Context) error { return e.w.flush(ctx) }

// Close stops auto-sync and drains pending writes.
func (e *Engine) Close() {
	e.DisableAutoSync()
	e.w.close()
}

// PersistFailures counts writes dropped after exhausting retries.
func (e *Engine) PersistFailures() int { return e.w.failures() }

// mutate runs fn on the state under the lock and kicks auto-sync when fn
// succeeds.
func (e *Engine) mutate(fn func(now int64) error) error {
	e.mu.Lock()
	if !e.loaded {
		e.mu.Unlock()
		return ErrNotLoaded
	}
	err := fn(e.millis())
	e.mu.Unlock()
	if err == nil {
		e.changed()
	}
	return err
}

func (e *Engine) read(fn func()) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.loaded {
		return ErrNotLoaded
	}
	fn()
	return nil
}

func (e *Engine) putTransaction(t model.Transaction) {
	e.w.set(repository.Transactions, t.ID, t, t.Version())
}

func (e *Engine) putCategory(c model.Category) {
	e.w.set(repository.Categories, c.ID, c, c.Version())
}

func (e *Engine) putRule(r model.VendorRule) {
	e.w.set(repository.VendorRules, r.ID, r, r.Version())
}

func (e *Engine) putException(x model.RecurringException) {
	e.w.set(repository.RecurringExceptions, x.ID, x, x.Version())
}

func (e *Engine) putBudget(b model.Budget) {
	e.w.set(repository.Budgets, b.CategoryID, b, b.Version())
}

func (e *Engine) putVersion(now int64) {
	e.w.set(repository.Meta, repository.SchemaVersionKey, schema.CurrentVersion, now)
}

func (e *Engine) putSettings() {
	st := *e.state.Settings
	e.w.set(repository.Settings, repository.SettingsKey, st, st.UpdatedAt)
}

// persistAll queues every record of the state. Callers hold e.mu.
func (e *Engine) persistAll() {
	for _, t := range e.state.Transactions {
		e.putTransaction(t)
	}
	for _, c := range e.state.Categories {
		e.putCategory(c)
	}
	for _, r := range e.state.VendorRules {
		e.putRule(r)
	}
	for _, x := range e.state.Exceptions {
		e.putException(x)
	}
	for _, b := range e.state.Budgets {
		e.putBudget(b)
	}
	if e.state.Settings != nil {
		e.putSettings()
	}
}
