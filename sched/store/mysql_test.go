package store

import (
	"context"
	"errors"
	"os"
	"reflect"
	"testing"
)

// MySQL tests need a real server. Set TEST_MYSQL_DSN to run them:
//
//	export TEST_MYSQL_DSN="user:password@tcp(localhost:3306)/test_db"
//	go test -v -run TestMySQLStore ./sched/store
func newTestMySQLStore(t *testing.T) *MySQLStore {
	t.Helper()

	dsn := os.Getenv("TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("Skipping MySQL tests: TEST_MYSQL_DSN not set")
	}

	st, err := NewMySQLStore(dsn)
	if err != nil {
		t.Fatalf("NewMySQLStore failed: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestMySQLStore_SaveLoad(t *testing.T) {
	ctx := context.Background()
	st := newTestMySQLStore(t)
	t.Cleanup(func() { _ = st.DeleteRun(ctx, "mysql-run-001") })

	trace := sampleTrace()
	if err := st.SaveTrace(ctx, "mysql-run-001", trace); err != nil {
		t.Fatalf("SaveTrace failed: %v", err)
	}

	loaded, err := st.LoadTrace(ctx, "mysql-run-001")
	if err != nil {
		t.Fatalf("LoadTrace failed: %v", err)
	}
	if !reflect.DeepEqual(loaded, trace) {
		t.Errorf("loaded trace differs:\nsaved:  %v\nloaded: %v", trace, loaded)
	}

	// Saving again replaces the previous trace.
	shorter := trace[:2]
	if err := st.SaveTrace(ctx, "mysql-run-001", shorter); err != nil {
		t.Fatalf("second SaveTrace failed: %v", err)
	}
	loaded, err = st.LoadTrace(ctx, "mysql-run-001")
	if err != nil {
		t.Fatalf("LoadTrace after replace failed: %v", err)
	}
	if !reflect.DeepEqual(loaded, shorter) {
		t.Errorf("loaded = %v, want replaced trace %v", loaded, shorter)
	}
}

func TestMySQLStore_DeleteRun(t *testing.T) {
	ctx := context.Background()
	st := newTestMySQLStore(t)

	if err := st.SaveTrace(ctx, "mysql-run-del", sampleTrace()); err != nil {
		t.Fatalf("SaveTrace failed: %v", err)
	}
	if err := st.DeleteRun(ctx, "mysql-run-del"); err != nil {
		t.Fatalf("DeleteRun failed: %v", err)
	}
	if _, err := st.LoadTrace(ctx, "mysql-run-del"); !errors.Is(err, ErrNotFound) {
		t.Errorf("load after delete: err = %v, want ErrNotFound", err)
	}
	if err := st.DeleteRun(ctx, "mysql-run-del"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: err = %v, want ErrNotFound", err)
	}
}

func TestMySQLStore_InvalidDSN(t *testing.T) {
	if os.Getenv("TEST_MYSQL_DSN") == "" {
		t.Skip("Skipping MySQL tests: TEST_MYSQL_DSN not set")
	}
	if _, err := NewMySQLStore("invalid:dsn:string"); err == nil {
		t.Error("expected error with invalid DSN, got nil")
	}
}
