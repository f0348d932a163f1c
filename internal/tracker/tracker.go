// Package tracker owns the expense collection: it loads it once, applies
// validated creates, updates and deletes, and saves after every change.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"sync"
	"time"

	"expenses/internal/core"
	applog "expenses/internal/log"
)

var ErrNotFound = errors.New("expense not found")

// Store is the persistence contract: Load never fails, Save replaces everything.
type Store interface {
	Load(ctx context.Context) []core.Expense
	Save(ctx context.Context, expenses []core.Expense) error
}

// Change describes one committed mutation. Version is the tracker's
// in-process counter: it restarts at zero on every Open and only orders
// changes made by the same Tracker.
type Change struct {
	Op      string
	ID      core.ID
	Version uint64
}

// Notifier is told about committed changes. Errors are logged and dropped.
type Notifier interface {
	Notify(ctx context.Context, c Change) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, c Change) error

func (f NotifierFunc) Notify(ctx context.Context, c Change) error {
	return f(ctx, c)
}

type Options struct {
	// Clock defaults to time.Now; ids derive from its millisecond value.
	Clock    func() time.Time
	Notifier Notifier
	Logger   *applog.Logger
}

type Tracker struct {
	mu       sync.RWMutex
	store    Store
	expenses []core.Expense
	version  uint64
	lastID   int64
	now      func() time.Time
	notifier Notifier
	logger   *applog.Logger
}

// Open loads the collection from store.
func Open(ctx context.Context, store Store, opts Options) *Tracker {
	t := &Tracker{
		store:    store,
		now:      opts.Clock,
		notifier: opts.Notifier,
		logger:   opts.Logger,
	}
	if t.now == nil {
		t.now = time.Now
	}
	if t.logger == nil {
		t.logger = applog.New(applog.DefaultConfig())
	}
	t.logger = t.logger.WithComponent(applog.ComponentTracker)

	t.expenses = store.Load(ctx)
	for _, e := range t.expenses {
		if n, err := strconv.ParseInt(e.ID.String(), 10, 64); err == nil && n > t.lastID {
			t.lastID = n
		}
	}
	t.logger.InfoContext(ctx, "Expenses loaded", applog.FieldCount, len(t.expenses))
	return t
}

// Expenses returns a copy of the collection in insertion order.
func (t *Tracker) Expenses() []core.Expense {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.expenses)
}

// Version increases with every committed change. It is not persisted, so a
// freshly opened Tracker starts at zero.
func (t *Tracker) Version() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.version
}

// Snapshot returns the collection together with its version.
func (t *Tracker) Snapshot() ([]core.Expense, uint64) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.expenses), t.version
}

func (t *Tracker) Get(id core.ID) (core.Expense, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if i := t.index(id); i >= 0 {
		return t.expenses[i], true
	}
	return core.Expense{}, false
}

func (t *Tracker) index(id core.ID) int {
	return slices.IndexFunc(t.expenses, func(e core.Expense) bool { return e.ID == id })
}

// Add validates in and appends it under a fresh id.
func (t *Tracker) Add(ctx context.Context, in core.Input) (core.Expense, error) {
	e, err := in.Expense()
	if err != nil {
		t.logValidation(ctx, applog.OpCreate, err)
		return core.Expense{}, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	e.ID = t.nextID()
	next := append(slices.Clone(t.expenses), e)
	if err := t.commit(ctx, next, applog.OpCreate, e.ID); err != nil {
		return core.Expense{}, err
	}
	t.logger.InfoContext(ctx, "Expense added", applog.NewFields().
		WithExpense(e.ID.String(), e.Description, e.Amount.Cents, e.Category.String(), e.Date.String()).
		ToSlice()...)
	return e, nil
}

// Update replaces every field of expense id except the id itself.
func (t *Tracker) Update(ctx context.Context, id core.ID, in core.Input) (core.Expense, error) {
	e, err := in.Expense()
	if err != nil {
		t.logValidation(ctx, applog.OpUpdate, err)
		return core.Expense{}, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	i := t.index(id)
	if i < 0 {
		return core.Expense{}, fmt.Errorf("update %s: %w", id, ErrNotFound)
	}
	e.ID = id
	next := slices.Clone(t.expenses)
	next[i] = e
	if err := t.commit(ctx, next, applog.OpUpdate, id); err != nil {
		return core.Expense{}, err
	}
	t.logger.InfoContext(ctx, "Expense updated", applog.FieldExpenseID, id.String())
	return e, nil
}

// Delete removes expense id.
func (t *Tracker) Delete(ctx context.Context, id core.ID) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	i := t.index(id)
	if i < 0 {
		return fmt.Errorf("delete %s: %w", id, ErrNotFound)
	}
	next := slices.Delete(slices.Clone(t.expenses), i, i+1)
	if err := t.commit(ctx, next, applog.OpDelete, id); err != nil {
		return err
	}
	t.logger.InfoContext(ctx, "Expense deleted", applog.FieldExpenseID, id.String())
	return nil
}

// commit saves next and only then makes it current. Callers hold t.mu.
func (t *Tracker) commit(ctx context.Context, next []core.Expense, op string, id core.ID) error {
	if err := t.store.Save(ctx, next); err != nil {
		t.logger.ErrorContext(ctx, "Failed to save expenses",
			applog.FieldOperation, op,
			applog.FieldExpenseID, id.String(),
			applog.FieldError, err)
		return fmt.Errorf("save expenses: %w", err)
	}
	t.expenses = next
	t.version++

	if t.notifier != nil {
		change := Change{Op: op, ID: id, Version: t.version}
		if err := t.notifier.Notify(ctx, change); err != nil {
			t.logger.WarnContext(ctx, "Failed to publish change",
				applog.FieldOperation, op,
				applog.FieldExpenseID, id.String(),
				applog.FieldError, err)
		}
	}
	return nil
}

// nextID is the current millisecond, bumped past every id handed out so far.
func (t *Tracker) nextID() core.ID {
	n := t.now().UnixMilli()
	if n <= t.lastID {
		n = t.lastID + 1
	}
	for t.index(core.NewNumericID(n)) >= 0 {
		n++
	}
	t.lastID = n
	return core.NewNumericID(n)
}

func (t *Tracker) logValidation(ctx context.Context, op string, err error) {
	t.logger.WarnContext(ctx, "Rejected invalid expense",
		applog.FieldOperation, op,
		"error_type", applog.ErrorTypeValidation,
		applog.FieldError, err)
}
