package inbox

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/thalvik/arkiv/internal/testutil"
)

// recorder is a RunFunc that records triggers and marks the key as seen,
// the way the real runner does through run records.
type recorder struct {
	mu    sync.Mutex
	paths []string
	db    interface {
		CreateRun(runKey string, sourcePaths []string, startedAt time.Time) (int64, error)
	}
}

func (r *recorder) run(_ context.Context, relPaths []string, runKey string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, relPaths...)
	if r.db != nil {
		_, _ = r.db.CreateRun(runKey, relPaths, time.Now())
	}
}

func (r *recorder) triggered() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

func TestScan_TriggersNewDocuments(t *testing.T) {
	root, store := testutil.TestInbox(t)
	db := testutil.TestDB(t)
	rec := &recorder{db: db}

	testutil.WriteDoc(t, store, "a.xml", testutil.METSDoc{ObjID: "SIP-A"})
	testutil.WriteDoc(t, store, "nested/b.xml", testutil.METSDoc{ObjID: "SIP-B"})

	w := New(store, db, root, 0, slog.New(slog.DiscardHandler), rec.run)
	w.Scan(context.Background())

	if got := rec.triggered(); len(got) != 2 {
		t.Fatalf("triggered = %v, want 2 documents", got)
	}
}

func TestScan_UnchangedDocumentsSkipped(t *testing.T) {
	root, store := testutil.TestInbox(t)
	db := testutil.TestDB(t)
	rec := &recorder{db: db}

	testutil.WriteDoc(t, store, "a.xml", testutil.METSDoc{ObjID: "SIP-A"})

	w := New(store, db, root, 0, slog.New(slog.DiscardHandler), rec.run)
	w.Scan(context.Background())
	w.Scan(context.Background())

	if got := rec.triggered(); len(got) != 1 {
		t.Fatalf("triggered = %v, want exactly 1 trigger for an unchanged document", got)
	}
}

func TestScan_ChangedContentTriggersAgain(t *testing.T) {
	root, store := testutil.TestInbox(t)
	db := testutil.TestDB(t)
	rec := &recorder{db: db}

	testutil.WriteDoc(t, store, "a.xml", testutil.METSDoc{ObjID: "SIP-A"})

	w := New(store, db, root, 0, slog.New(slog.DiscardHandler), rec.run)
	w.Scan(context.Background())

	// Same path, different content, different run key.
	testutil.WriteDoc(t, store, "a.xml", testutil.METSDoc{ObjID: "SIP-A2"})
	w.Scan(context.Background())

	if got := rec.triggered(); len(got) != 2 {
		t.Fatalf("triggered = %v, want 2 triggers", got)
	}
}

func TestWatch_PicksUpCreatedDocument(t *testing.T) {
	root, store := testutil.TestInbox(t)
	db := testutil.TestDB(t)
	rec := &recorder{db: db}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := New(store, db, root, 0, slog.New(slog.DiscardHandler), rec.run)
	done := make(chan struct{})
	go func() {
		_ = w.Watch(ctx)
		close(done)
	}()

	// Give the watcher time to install its watches.
	time.Sleep(100 * time.Millisecond)

	testutil.WriteDoc(t, store, "incoming.xml", testutil.METSDoc{ObjID: "SIP-NEW"})

	deadline := time.After(3 * time.Second)
	for {
		if got := rec.triggered(); len(got) > 0 {
			if got[0] != "incoming.xml" {
				t.Errorf("triggered = %v", got)
			}
			break
		}
		select {
		case <-deadline:
			t.Fatal("timeout waiting for watch trigger")
		case <-time.After(20 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop on context cancel")
	}
}
