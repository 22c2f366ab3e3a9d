package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/kailas-cloud/threadress/internal/domain/batch"
	"github.com/kailas-cloud/threadress/internal/domain/catalog"
)

// Indexer writes catalog items into the inventory index.
type Indexer interface {
	IndexBatch(ctx context.Context, items []catalog.Item) (batch.Report, error)
}

// Checkpoints remembers which catalog files were fully synced.
type Checkpoints interface {
	Synced(path string, modTime time.Time) (bool, error)
	Mark(path string, modTime time.Time, upserted, errs int) error
}

// FileResult is the outcome of syncing one catalog file.
type FileResult struct {
	Path    string
	Skipped bool // unchanged since the last clean sync
	Report  batch.Report
}

// SyncOptions configure a Syncer.
type SyncOptions struct {
	Defaults catalog.RowDefaults
	Force    bool // ignore checkpoints
}

// Syncer pushes catalog files through the indexing path.
type Syncer struct {
	indexer Indexer
	ledger  Checkpoints
	opts    SyncOptions
	logger  *zap.Logger
}

// NewSyncer creates a Syncer. ledger may be nil, then every file is synced.
func NewSyncer(indexer Indexer, ledger Checkpoints, opts SyncOptions, logger *zap.Logger) *Syncer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Syncer{indexer: indexer, ledger: ledger, opts: opts, logger: logger}
}

// SyncFiles syncs paths in order and calls onFile after each one.
// It stops at the first file whose indexing could not run at all.
func (s *Syncer) SyncFiles(ctx context.Context, paths []string, onFile func(FileResult)) (batch.Report, error) {
	var total batch.Report
	for _, p := range paths {
		res, err := s.SyncFile(ctx, p)
		if err != nil {
			return total, err
		}
		total.Add(res.Report)
		if onFile != nil {
			onFile(res)
		}
	}
	return total, nil
}

// SyncFile loads one catalog file, indexes it and records a checkpoint.
func (s *Syncer) SyncFile(ctx context.Context, path string) (FileResult, error) {
	res := FileResult{Path: path}

	info, err := os.Stat(path)
	if err != nil {
		return res, fmt.Errorf("stat %s: %w", path, err)
	}
	modTime := info.ModTime()

	if s.ledger != nil && !s.opts.Force {
		synced, err := s.ledger.Synced(path, modTime)
		if err != nil {
			return res, fmt.Errorf("read checkpoint %s: %w", path, err)
		}
		if synced {
			res.Skipped = true
			s.logger.Debug("Catalog file unchanged, skipping", zap.String("path", path))
			return res, nil
		}
	}

	items, rejected, err := LoadCatalog(path, s.opts.Defaults)
	if err != nil {
		return res, err
	}
	res.Report.Total = len(rejected)
	for _, f := range rejected {
		res.Report.Fail(f.ID, 0, f.Err)
	}

	if len(items) > 0 {
		r, err := s.indexer.IndexBatch(ctx, items)
		res.Report.Add(r)
		if err != nil {
			return res, fmt.Errorf("index %s: %w", path, err)
		}
	}

	if s.ledger != nil {
		if err := s.ledger.Mark(path, modTime, res.Report.Upserted, res.Report.Errors); err != nil {
			return res, fmt.Errorf("write checkpoint %s: %w", path, err)
		}
	}

	s.logger.Info("Catalog file synced",
		zap.String("path", path),
		zap.Int("total", res.Report.Total),
		zap.Int("upserted", res.Report.Upserted),
		zap.Int("errors", res.Report.Errors),
	)
	return res, nil
}

// Watch re-syncs files matching patterns whenever they are written, until ctx
// is done. Events are coalesced for debounce since editors write in bursts.
func (s *Syncer) Watch(
	ctx context.Context,
	patterns []string,
	debounce time.Duration,
	onFile func(FileResult, error),
) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = w.Close() }()

	dirs, err := watchDirs(patterns)
	if err != nil {
		return err
	}
	if len(dirs) == 0 {
		return errors.New("no directories to watch")
	}
	for _, d := range dirs {
		if err := w.Add(d); err != nil {
			return fmt.Errorf("watch %s: %w", d, err)
		}
	}
	s.logger.Info("Watching catalog files", zap.Strings("dirs", dirs))

	pending := make(map[string]struct{})
	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			abs, err := filepath.Abs(ev.Name)
			if err != nil || !MatchesAny(patterns, abs) {
				continue
			}
			pending[abs] = struct{}{}
			timer.Reset(debounce)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("Watcher error", zap.Error(err))
		case <-timer.C:
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			clear(pending)
			slices.Sort(paths)
			for _, p := range paths {
				res, err := s.SyncFile(ctx, p)
				if onFile != nil {
					onFile(res, err)
				}
			}
		}
	}
}

// watchDirs lists the static base directory of every pattern and, for
// recursive patterns, every non-hidden directory below it.
func watchDirs(patterns []string) ([]string, error) {
	var dirs []string
	for _, p := range patterns {
		base, rest := doublestar.SplitPattern(filepath.ToSlash(p))
		base, err := filepath.Abs(filepath.FromSlash(base))
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", p, err)
		}
		if info, err := os.Stat(base); err != nil || !info.IsDir() {
			continue
		}
		if !strings.Contains(rest, "**") {
			dirs = append(dirs, base)
			continue
		}
		err = filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				return nil
			}
			if path != base && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			dirs = append(dirs, path)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", base, err)
		}
	}
	slices.Sort(dirs)
	return slices.Compact(dirs), nil
}
