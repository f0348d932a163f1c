package tracker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"testing"
	"time"

	"expenses/internal/core"
	applog "expenses/internal/log"
	"expenses/internal/storage"
)

type failingStore struct {
	loaded []core.Expense
	err    error
	saves  int
}

func (f *failingStore) Load(context.Context) []core.Expense { return slices.Clone(f.loaded) }

func (f *failingStore) Save(context.Context, []core.Expense) error {
	f.saves++
	return f.err
}

func quietLogger() *applog.Logger {
	return applog.New(applog.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
}

func fixedClock(ms int64) func() time.Time {
	return func() time.Time { return time.UnixMilli(ms) }
}

func lunch() core.Input {
	return core.Input{Description: "Lunch", Amount: "12.50", Category: "Food & Dining", Date: "2024-02-05"}
}

func newTracker(t *testing.T, opts Options) (*Tracker, *storage.Store) {
	t.Helper()
	store := storage.New(storage.NewMemoryKV(), "", slog.New(slog.NewTextHandler(io.Discard, nil)))
	if opts.Logger == nil {
		opts.Logger = quietLogger()
	}
	return Open(context.Background(), store, opts), store
}

func TestAddAssignsUniqueIDsAndSaves(t *testing.T) {
	ctx := context.Background()
	tr, store := newTracker(t, Options{Clock: fixedClock(1_700_000_000_000)})

	a, err := tr.Add(ctx, lunch())
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	b, err := tr.Add(ctx, lunch())
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if a.ID != "1700000000000" || b.ID != "1700000000001" {
		t.Fatalf("unexpected ids %s %s", a.ID, b.ID)
	}
	if tr.Version() != 2 {
		t.Fatalf("version = %d, want 2", tr.Version())
	}
	if got := store.Load(ctx); !slices.Equal(got, tr.Expenses()) {
		t.Fatalf("store out of sync: %+v", got)
	}
}

func TestOpenContinuesIDsAfterLoadedOnes(t *testing.T) {
	ctx := context.Background()
	store := &failingStore{loaded: []core.Expense{
		{ID: "5000", Description: "x", Amount: core.Money{Cents: 1}, Category: core.Other, Date: core.NewDate(2024, 1, 1)},
		{ID: "legacy", Description: "y", Amount: core.Money{Cents: 1}, Category: core.Other, Date: core.NewDate(2024, 1, 1)},
	}}
	tr := Open(ctx, store, Options{Clock: fixedClock(10), Logger: quietLogger()})
	e, err := tr.Add(ctx, lunch())
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if e.ID != "5001" {
		t.Fatalf("id = %s, want 5001", e.ID)
	}
}

func TestValidationLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	tr, _ := newTracker(t, Options{})
	if _, err := tr.Add(ctx, lunch()); err != nil {
		t.Fatalf("add: %v", err)
	}
	before := tr.Expenses()

	bad := lunch()
	bad.Amount = "-3"
	_, err := tr.Add(ctx, bad)
	var verr *core.ValidationError
	if !errors.As(err, &verr) || verr.Field != "amount" {
		t.Fatalf("expected amount validation error, got %v", err)
	}

	bad = lunch()
	bad.Category = "Pets"
	if _, err := tr.Update(ctx, before[0].ID, bad); !errors.Is(err, core.ErrUnknownCategory) {
		t.Fatalf("expected unknown category, got %v", err)
	}

	if !slices.Equal(tr.Expenses(), before) || tr.Version() != 1 {
		t.Fatalf("state changed after rejected writes")
	}
}

func TestUpdateKeepsIDAndPosition(t *testing.T) {
	ctx := context.Background()
	tr, _ := newTracker(t, Options{Clock: fixedClock(100)})
	first, _ := tr.Add(ctx, lunch())
	tr.Add(ctx, lunch())

	in := core.Input{Description: "Train", Amount: "30", Category: "Transportation", Date: "2024-03-01"}
	updated, err := tr.Update(ctx, first.ID, in)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.ID != first.ID || updated.Amount.Cents != 3000 || updated.Category != core.Transportation {
		t.Fatalf("unexpected update %+v", updated)
	}
	if got := tr.Expenses()[0]; got != updated {
		t.Fatalf("expected updated expense in place, got %+v", got)
	}
	if _, err := tr.Update(ctx, "missing", in); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	tr, store := newTracker(t, Options{Clock: fixedClock(100)})
	a, _ := tr.Add(ctx, lunch())
	b, _ := tr.Add(ctx, lunch())

	if err := tr.Delete(ctx, a.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := tr.Get(a.ID); ok {
		t.Fatal("expected deleted expense gone")
	}
	if got := store.Load(ctx); len(got) != 1 || got[0].ID != b.ID {
		t.Fatalf("unexpected stored collection %+v", got)
	}
	if err := tr.Delete(ctx, a.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFailedSaveRollsBack(t *testing.T) {
	ctx := context.Background()
	store := &failingStore{err: errors.New("disk full")}
	tr := Open(ctx, store, Options{Logger: quietLogger()})

	if _, err := tr.Add(ctx, lunch()); err == nil {
		t.Fatal("expected save error")
	}
	if len(tr.Expenses()) != 0 || tr.Version() != 0 || store.saves != 1 {
		t.Fatalf("expected rollback, got %d expenses version %d", len(tr.Expenses()), tr.Version())
	}
}

func TestNotifierReceivesChanges(t *testing.T) {
	ctx := context.Background()
	var got []Change
	notifier := NotifierFunc(func(_ context.Context, c Change) error {
		got = append(got, c)
		return errors.New("broker down")
	})
	tr, _ := newTracker(t, Options{Clock: fixedClock(1), Notifier: notifier})

	e, err := tr.Add(ctx, lunch())
	if err != nil {
		t.Fatalf("notifier errors must not fail the write: %v", err)
	}
	if err := tr.Delete(ctx, e.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	want := []Change{
		{Op: applog.OpCreate, ID: e.ID, Version: 1},
		{Op: applog.OpDelete, ID: e.ID, Version: 2},
	}
	if !slices.Equal(got, want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestExpensesReturnsCopy(t *testing.T) {
	ctx := context.Background()
	tr, _ := newTracker(t, Options{})
	tr.Add(ctx, lunch())

	list, version := tr.Snapshot()
	list[0].Description = "changed"
	if tr.Expenses()[0].Description != "Lunch" || version != 1 {
		t.Fatal("snapshot shares memory with tracker")
	}
}

func TestReopenRestartsVersionButNotIDs(t *testing.T) {
	ctx := context.Background()
	store := storage.New(storage.NewMemoryKV(), "", slog.New(slog.NewTextHandler(io.Discard, nil)))

	first := Open(ctx, store, Options{Clock: fixedClock(1_000), Logger: quietLogger()})
	a, err := first.Add(ctx, lunch())
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if first.Version() != 1 {
		t.Fatalf("version = %d, want 1", first.Version())
	}

	var changes []Change
	second := Open(ctx, store, Options{
		Clock:  fixedClock(1_000),
		Logger: quietLogger(),
		Notifier: NotifierFunc(func(_ context.Context, c Change) error {
			changes = append(changes, c)
			return nil
		}),
	})
	if second.Version() != 0 {
		t.Fatalf("reopened version = %d, want 0", second.Version())
	}
	b, err := second.Add(ctx, lunch())
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if b.ID == a.ID {
		t.Fatalf("id %s reused after reopen", b.ID)
	}
	if len(changes) != 1 || changes[0].Version != 1 || changes[0].ID != b.ID {
		t.Fatalf("unexpected changes %+v", changes)
	}
}
