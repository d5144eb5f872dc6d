package store

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()

	st, err := NewSQLiteStore(filepath.Join(t.TempDir(), "traces.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestSQLiteStore_SaveLoad(t *testing.T) {
	ctx := context.Background()
	st := newTestSQLiteStore(t)

	trace := sampleTrace()
	if err := st.SaveTrace(ctx, "run-001", trace); err != nil {
		t.Fatalf("SaveTrace failed: %v", err)
	}

	loaded, err := st.LoadTrace(ctx, "run-001")
	if err != nil {
		t.Fatalf("LoadTrace failed: %v", err)
	}
	if !reflect.DeepEqual(loaded, trace) {
		t.Errorf("loaded trace differs:\nsaved:  %v\nloaded: %v", trace, loaded)
	}
}

func TestSQLiteStore_SaveReplaces(t *testing.T) {
	ctx := context.Background()
	st := newTestSQLiteStore(t)

	if err := st.SaveTrace(ctx, "run-001", sampleTrace()); err != nil {
		t.Fatalf("first SaveTrace failed: %v", err)
	}
	shorter := sampleTrace()[:2]
	if err := st.SaveTrace(ctx, "run-001", shorter); err != nil {
		t.Fatalf("second SaveTrace failed: %v", err)
	}

	loaded, err := st.LoadTrace(ctx, "run-001")
	if err != nil {
		t.Fatalf("LoadTrace failed: %v", err)
	}
	if !reflect.DeepEqual(loaded, shorter) {
		t.Errorf("loaded = %v, want replaced trace %v", loaded, shorter)
	}
}

func TestSQLiteStore_EmptyTrace(t *testing.T) {
	ctx := context.Background()
	st := newTestSQLiteStore(t)

	if err := st.SaveTrace(ctx, "run-empty", nil); err != nil {
		t.Fatalf("SaveTrace failed: %v", err)
	}
	loaded, err := st.LoadTrace(ctx, "run-empty")
	if err != nil {
		t.Fatalf("LoadTrace failed: %v", err)
	}
	if len(loaded) != 0 {
		t.Errorf("loaded %d entries, want 0", len(loaded))
	}
}

func TestSQLiteStore_LoadMissing(t *testing.T) {
	st := newTestSQLiteStore(t)
	if _, err := st.LoadTrace(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSQLiteStore_ListRuns(t *testing.T) {
	ctx := context.Background()
	st := newTestSQLiteStore(t)

	_ = st.SaveTrace(ctx, "run-b", nil)
	_ = st.SaveTrace(ctx, "run-a", sampleTrace())

	runs, err := st.ListRuns(ctx)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	want := []string{"run-a", "run-b"}
	if !reflect.DeepEqual(runs, want) {
		t.Errorf("runs = %v, want %v", runs, want)
	}
}

func TestSQLiteStore_DeleteRun(t *testing.T) {
	ctx := context.Background()
	st := newTestSQLiteStore(t)

	if err := st.SaveTrace(ctx, "run-001", sampleTrace()); err != nil {
		t.Fatalf("SaveTrace failed: %v", err)
	}
	if err := st.DeleteRun(ctx, "run-001"); err != nil {
		t.Fatalf("DeleteRun failed: %v", err)
	}
	if _, err := st.LoadTrace(ctx, "run-001"); !errors.Is(err, ErrNotFound) {
		t.Errorf("load after delete: err = %v, want ErrNotFound", err)
	}
	if err := st.DeleteRun(ctx, "run-001"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: err = %v, want ErrNotFound", err)
	}
}

func TestSQLiteStore_Close(t *testing.T) {
	ctx := context.Background()
	st, err := NewSQLiteStore(filepath.Join(t.TempDir(), "traces.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}

	if err := st.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Errorf("second Close returned %v, want nil", err)
	}
	if err := st.SaveTrace(ctx, "run-001", nil); err == nil {
		t.Error("SaveTrace after Close succeeded")
	}
	if _, err := st.LoadTrace(ctx, "run-001"); err == nil {
		t.Error("LoadTrace after Close succeeded")
	}
}
