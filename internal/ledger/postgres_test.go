package ledger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"
	"testing"
	"time"

	"github.com/JonMunkholm/salaryreview/internal/core"
)

// openTestPostgres connects to LEDGER_TEST_DATABASE_URL or skips.
func openTestPostgres(t *testing.T) *PostgresStore {
	t.Helper()
	url := os.Getenv("LEDGER_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("LEDGER_TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := openPostgres(ctx, Options{DatabaseURL: url, MaxConns: 2}, nil)
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	t.Cleanup(store.Close)
	return store
}

// tableNames returns names unique to this test so runs do not collide.
func tableNames(t *testing.T, s *PostgresStore) (string, string) {
	suffix := fmt.Sprintf("%s_%d", t.Name(), time.Now().UnixNano())
	t.Cleanup(func() {
		s.pool.Exec(context.Background(),
			`DELETE FROM ledger_tables WHERE name IN ($1, $2)`, "pending_"+suffix, "sent_"+suffix)
	})
	return "pending_" + suffix, "sent_" + suffix
}

func TestPostgresStore_LoadMissing(t *testing.T) {
	s := openTestPostgres(t)
	_, err := s.Load(context.Background(), "does-not-exist")
	if !errors.Is(err, core.ErrSourceNotFound) {
		t.Errorf("Load = %v, want ErrSourceNotFound", err)
	}
}

func TestPostgresStore_SaveAppendLoad(t *testing.T) {
	s := openTestPostgres(t)
	ctx := context.Background()
	pending, archive := tableNames(t, s)

	if err := s.Save(ctx, pending, core.Dataset{Header: testHeader, Rows: []core.Row{rowA, rowB}}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	ds, err := s.Load(ctx, pending)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(ds.Rows, []core.Row{rowA, rowB}) {
		t.Errorf("Rows = %v, want [A B]", ds.Rows)
	}

	if err := s.Append(ctx, archive, testHeader, []core.Row{rowA}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := s.Append(ctx, archive, testHeader, []core.Row{rowB}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	ds, err = s.Load(ctx, archive)
	if err != nil {
		t.Fatalf("Load archive: %v", err)
	}
	if !reflect.DeepEqual(ds.Rows, []core.Row{rowA, rowB}) {
		t.Errorf("archive Rows = %v, want [A B]", ds.Rows)
	}
}

func TestPostgresStore_Commit(t *testing.T) {
	s := openTestPostgres(t)
	ctx := context.Background()
	pending, archive := tableNames(t, s)

	if err := s.Save(ctx, pending, core.Dataset{Header: testHeader, Rows: []core.Row{rowA, rowB}}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	remaining := core.Dataset{Header: testHeader, Rows: []core.Row{rowB}}
	if err := s.Commit(ctx, pending, remaining, archive, []core.Row{rowA}); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	p, _ := s.Load(ctx, pending)
	a, _ := s.Load(ctx, archive)
	if !reflect.DeepEqual(p.Rows, []core.Row{rowB}) {
		t.Errorf("pending = %v, want [B]", p.Rows)
	}
	if !reflect.DeepEqual(a.Rows, []core.Row{rowA}) {
		t.Errorf("archive = %v, want [A]", a.Rows)
	}
}
