package cli

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kailas-cloud/threadress/internal/domain/catalog"
	"github.com/kailas-cloud/threadress/internal/repository/checkpoint"
)

func newLedger(t *testing.T) *checkpoint.Ledger {
	t.Helper()
	l, err := checkpoint.Open(filepath.Join(t.TempDir(), "sync.db"))
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestSyncer_SyncFiles(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.json", rowsJSON)
	b := writeFile(t, dir, "b.json", `[{"id": "20", "title": "Tulle Skirt", "image_url": "https://cdn.example.com/t.jpg"}]`)

	idx := &mockIndexer{}
	s := NewSyncer(idx, nil, SyncOptions{Defaults: catalog.DefaultRowDefaults()}, nil)

	var seen []string
	total, err := s.SyncFiles(context.Background(), []string{a, b}, func(r FileResult) {
		seen = append(seen, r.Path)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total.Total != 4 || total.Upserted != 3 || total.Errors != 1 || !total.Complete() {
		t.Errorf("unexpected report: %+v", total)
	}
	if len(seen) != 2 || idx.callCount() != 2 {
		t.Errorf("expected one index call per file, got %d calls, %v", idx.callCount(), seen)
	}
}

func TestSyncer_ResumeSkipsCleanFiles(t *testing.T) {
	dir := t.TempDir()
	clean := writeFile(t, dir, "clean.json", `[{"id": "1", "title": "Satin Top", "image_url": "https://cdn.example.com/s.jpg"}]`)
	dirty := writeFile(t, dir, "dirty.json", rowsJSON) // one invalid row

	idx := &mockIndexer{}
	s := NewSyncer(idx, newLedger(t), SyncOptions{}, nil)
	ctx := context.Background()

	if _, err := s.SyncFiles(ctx, []string{clean, dirty}, nil); err != nil {
		t.Fatalf("first run: %v", err)
	}

	var skipped []string
	if _, err := s.SyncFiles(ctx, []string{clean, dirty}, func(r FileResult) {
		if r.Skipped {
			skipped = append(skipped, r.Path)
		}
	}); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if len(skipped) != 1 || skipped[0] != clean {
		t.Errorf("only the clean file may be skipped, got %v", skipped)
	}
	if idx.callCount() != 3 {
		t.Errorf("expected 3 index calls, got %d", idx.callCount())
	}

	// touching the file invalidates its checkpoint
	later := time.Now().Add(time.Minute)
	if err := os.Chtimes(clean, later, later); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	res, err := s.SyncFile(ctx, clean)
	if err != nil || res.Skipped {
		t.Errorf("modified file must be re-synced: %+v %v", res, err)
	}
}

func TestSyncer_Force(t *testing.T) {
	path := writeFile(t, t.TempDir(), "a.json", `[{"id": "1", "title": "Satin Top", "image_url": "https://cdn.example.com/s.jpg"}]`)
	ledger := newLedger(t)
	idx := &mockIndexer{}

	for _, force := range []bool{false, true} {
		s := NewSyncer(idx, ledger, SyncOptions{Force: force}, nil)
		if _, err := s.SyncFile(context.Background(), path); err != nil {
			t.Fatalf("force=%v: %v", force, err)
		}
	}
	if idx.callCount() != 2 {
		t.Errorf("force must bypass the checkpoint, got %d calls", idx.callCount())
	}
}

func TestSyncer_IndexFailureNotCheckpointed(t *testing.T) {
	path := writeFile(t, t.TempDir(), "a.json", rowsJSON)
	ledger := newLedger(t)
	idx := &mockIndexer{err: errIndexDown}
	s := NewSyncer(idx, ledger, SyncOptions{}, nil)

	_, err := s.SyncFiles(context.Background(), []string{path}, nil)
	if !errors.Is(err, errIndexDown) {
		t.Fatalf("expected index error, got %v", err)
	}
	if _, err := ledger.Get(path); !errors.Is(err, checkpoint.ErrNotFound) {
		t.Errorf("failed file must not be checkpointed, got %v", err)
	}
}

func TestSyncer_MissingFile(t *testing.T) {
	s := NewSyncer(&mockIndexer{}, nil, SyncOptions{}, nil)
	if _, err := s.SyncFile(context.Background(), filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestSyncer_Watch(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "catalog/.hidden/skip.json", "[]")
	idx := &mockIndexer{}
	s := NewSyncer(idx, nil, SyncOptions{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	results := make(chan FileResult, 4)
	done := make(chan error, 1)
	patterns := []string{filepath.Join(dir, "catalog/**/*.json")}
	go func() {
		done <- s.Watch(ctx, patterns, 100*time.Millisecond, func(r FileResult, err error) {
			if err != nil {
				t.Errorf("sync after change: %v", err)
			}
			results <- r
		})
	}()

	// дать watcher'у подписаться на каталог
	time.Sleep(100 * time.Millisecond)
	writeFile(t, dir, "catalog/notes.txt", "ignored")
	path := writeFile(t, dir, "catalog/new.json", rowsJSON)

	select {
	case r := <-results:
		if r.Path != path || r.Report.Upserted != 2 {
			t.Errorf("unexpected result: %+v", r)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watcher never re-synced the new file")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("watch returned %v", err)
	}
}

func TestWatchDirs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "catalog/a/x.json", "[]")
	writeFile(t, dir, "catalog/.git/x.json", "[]")
	writeFile(t, dir, "flat/y.json", "[]")

	got, err := watchDirs([]string{
		filepath.Join(dir, "catalog/**/*.json"),
		filepath.Join(dir, "flat/*.json"),
		filepath.Join(dir, "missing/*.json"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{
		filepath.Join(dir, "catalog"),
		filepath.Join(dir, "catalog/a"),
		filepath.Join(dir, "flat"),
	}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("dir %d = %s, want %s", i, got[i], want[i])
		}
	}
}
