package checkpoint

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "sync.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func TestLedger_Synced(t *testing.T) {
	l := openLedger(t)
	mod := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	ok, err := l.Synced("/data/a.json", mod)
	if err != nil || ok {
		t.Fatalf("unknown file must not be synced: %v %v", ok, err)
	}

	if err := l.Mark("/data/a.json", mod, 10, 0); err != nil {
		t.Fatalf("mark: %v", err)
	}
	if ok, _ := l.Synced("/data/a.json", mod); !ok {
		t.Error("expected synced at same mod time")
	}
	if ok, _ := l.Synced("/data/a.json", mod.Add(time.Second)); ok {
		t.Error("modified file must be re-synced")
	}
}

func TestLedger_ErrorsNotSynced(t *testing.T) {
	l := openLedger(t)
	mod := time.Now()

	if err := l.Mark("/data/b.json", mod, 8, 2); err != nil {
		t.Fatalf("mark: %v", err)
	}
	if ok, _ := l.Synced("/data/b.json", mod); ok {
		t.Error("file with failed items must be retried")
	}
	e, err := l.Get("/data/b.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if e.Upserted != 8 || e.Errors != 2 || e.SyncedAt.IsZero() {
		t.Errorf("unexpected entry %+v", e)
	}
}

func TestLedger_ListAndReset(t *testing.T) {
	l := openLedger(t)
	for _, p := range []string{"/c.json", "/a.json", "/b.json"} {
		if err := l.Mark(p, time.Now(), 1, 0); err != nil {
			t.Fatalf("mark: %v", err)
		}
	}

	entries, err := l.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 3 || entries[0].Path != "/a.json" || entries[2].Path != "/c.json" {
		t.Errorf("expected entries ordered by path, got %+v", entries)
	}

	if err := l.Reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if _, err := l.Get("/a.json"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after reset, got %v", err)
	}
}

func TestLedger_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sync.db")
	mod := time.Now()

	l, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := l.Mark("/x.json", mod, 3, 0); err != nil {
		t.Fatalf("mark: %v", err)
	}
	l.Close()

	l, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer l.Close()
	if ok, _ := l.Synced("/x.json", mod); !ok {
		t.Error("ledger must persist across reopen")
	}
}
