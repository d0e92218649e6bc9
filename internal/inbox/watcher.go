// Package inbox watches the ingest root for METS documents and triggers
// pipeline runs for new ones. It is pure glue around the pipeline: the
// core never calls back into it.
package inbox

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/thalvik/arkiv/internal/checksum"
	"github.com/thalvik/arkiv/internal/reports"
	"github.com/thalvik/arkiv/internal/storage"
)

// RunFunc starts a pipeline run for the given documents (paths relative to
// the ingest root). runKey deduplicates repeat triggers for unchanged
// documents.
type RunFunc func(ctx context.Context, relPaths []string, runKey string)

// Watcher monitors the ingest root for *.xml documents. New or changed
// documents (tracked by content checksum, recorded as run keys in the
// report store) trigger one run per document. Detection is two-layered:
// fsnotify events for immediacy plus a periodic rescan for anything the
// events missed (renames into the directory, network mounts).
type Watcher struct {
	store  storage.Provider
	db     reports.RunStore
	root   string
	every  time.Duration
	logger *slog.Logger
	run    RunFunc
}

// New creates a watcher. every is the rescan interval; zero disables the
// periodic rescan and leaves only fsnotify events.
func New(store storage.Provider, db reports.RunStore, root string, every time.Duration, logger *slog.Logger, run RunFunc) *Watcher {
	return &Watcher{store: store, db: db, root: root, every: every, logger: logger, run: run}
}

// Watch processes file events until ctx is cancelled. New directories
// created at runtime are added to the watch list automatically.
func (w *Watcher) Watch(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := addDirsRecursive(fw, w.root); err != nil {
		return err
	}

	w.logger.Info("inbox: started", slog.String("root", w.root))

	var rescanCh <-chan time.Time
	if w.every > 0 {
		ticker := time.NewTicker(w.every)
		defer ticker.Stop()
		rescanCh = ticker.C
	}

	// Pick up documents that were already waiting before the watch began.
	w.Scan(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("inbox: stopped")
			return nil

		case <-rescanCh:
			w.Scan(ctx)

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}

			absPath := ev.Name

			// New directories: add to watcher and scan their contents.
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(absPath); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(fw, absPath); addErr != nil {
						w.logger.Warn("inbox: add new dir failed",
							slog.String("path", absPath),
							slog.String("error", addErr.Error()))
					}
					w.scanDir(ctx, absPath)
					continue
				}
			}

			if !strings.HasSuffix(absPath, ".xml") {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}

			rel, relErr := filepath.Rel(w.root, absPath)
			if relErr != nil {
				continue
			}
			w.trigger(ctx, rel)

		case watchErr, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("inbox: watch error", slog.String("error", watchErr.Error()))
		}
	}
}

// Scan walks the whole ingest root and triggers runs for any document
// without a matching run key. Safe to call repeatedly; unchanged documents
// are skipped.
func (w *Watcher) Scan(ctx context.Context) {
	metas, err := w.store.List("")
	if err != nil {
		w.logger.Warn("inbox: scan list failed", slog.String("error", err.Error()))
		return
	}
	for _, m := range metas {
		if ctx.Err() != nil {
			return
		}
		w.triggerMeta(ctx, m)
	}
}

// scanDir triggers runs for .xml documents already present in a newly
// created directory.
func (w *Watcher) scanDir(ctx context.Context, dirPath string) {
	_ = filepath.WalkDir(dirPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".xml") {
			return nil
		}
		rel, relErr := filepath.Rel(w.root, path)
		if relErr != nil {
			return nil
		}
		w.trigger(ctx, rel)
		return nil
	})
}

// trigger computes the document's run key and starts a run unless an
// equivalent run already happened.
func (w *Watcher) trigger(ctx context.Context, rel string) {
	data, err := w.store.Read(rel)
	if err != nil {
		w.logger.Warn("inbox: read failed", slog.String("path", rel), slog.String("error", err.Error()))
		return
	}
	w.triggerMeta(ctx, storage.DocMeta{Path: rel, Checksum: checksum.SumSHA256(data)})
}

func (w *Watcher) triggerMeta(ctx context.Context, m storage.DocMeta) {
	key := m.Path + "@" + m.Checksum
	seen, err := w.db.SeenRunKey(key)
	if err != nil {
		w.logger.Warn("inbox: run key lookup failed", slog.String("path", m.Path), slog.String("error", err.Error()))
		return
	}
	if seen {
		return
	}
	w.logger.Info("inbox: new document", slog.String("path", m.Path))
	w.run(ctx, []string{m.Path}, key)
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return fw.Add(path)
		}
		return nil
	})
}
