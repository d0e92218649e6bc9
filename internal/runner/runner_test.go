package runner

import (
	"context"
	"log/slog"
	"testing"

	"github.com/thalvik/arkiv/internal/reports"
	"github.com/thalvik/arkiv/internal/testutil"
)

const md5abc = "900150983cd24fb0d6963f7d28e17f72"

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestRun_Success(t *testing.T) {
	_, store := testutil.TestInbox(t)
	db := testutil.TestDB(t)

	if err := store.Write("content/report.pdf", []byte("abc")); err != nil {
		t.Fatal(err)
	}
	testutil.WriteDoc(t, store, "mets.xml", testutil.METSDoc{
		ObjID: "SIP-001",
		Agent: "National Archive",
		Files: []testutil.METSFile{
			{ID: "f1", Href: "content/report.pdf", Algorithm: "MD5", Digest: md5abc},
		},
	})

	var events []string
	r := New(store, db, discardLogger(), func(kind string, _ *reports.Run) {
		events = append(events, kind)
	})

	run, err := r.Run(context.Background(), []string{"mets.xml"}, "key-1")
	if err != nil {
		t.Fatal(err)
	}
	if run.Status != reports.StatusSucceeded {
		t.Errorf("status = %s", run.Status)
	}
	if run.SIPID != "SIP-001" {
		t.Errorf("sip id = %q", run.SIPID)
	}
	if run.EntityCount != 1 || run.RepCount != 1 || run.FileCount != 1 {
		t.Errorf("counts = %d/%d/%d", run.EntityCount, run.RepCount, run.FileCount)
	}
	if run.FixityCount != 1 || run.MismatchCount != 0 {
		t.Errorf("fixity counts = %d/%d", run.FixityCount, run.MismatchCount)
	}

	if len(events) != 2 || events[0] != "started" || events[1] != "completed" {
		t.Errorf("events = %v", events)
	}

	results, err := db.FixityResults(run.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Computed != md5abc {
		t.Errorf("results = %+v", results)
	}
}

func TestRun_MismatchDoesNotFailRun(t *testing.T) {
	_, store := testutil.TestInbox(t)
	db := testutil.TestDB(t)

	if err := store.Write("content/report.pdf", []byte("tampered")); err != nil {
		t.Fatal(err)
	}
	testutil.WriteDoc(t, store, "mets.xml", testutil.METSDoc{
		ObjID: "SIP-002",
		Files: []testutil.METSFile{
			{ID: "f1", Href: "content/report.pdf", Algorithm: "MD5", Digest: md5abc},
		},
	})

	r := New(store, db, discardLogger(), nil)
	run, err := r.Run(context.Background(), []string{"mets.xml"}, "")
	if err != nil {
		t.Fatalf("fixity mismatch must not fail the run: %v", err)
	}
	if run.Status != reports.StatusSucceeded {
		t.Errorf("status = %s", run.Status)
	}
	if run.MismatchCount != 1 {
		t.Errorf("mismatches = %d, want 1", run.MismatchCount)
	}
}

func TestRun_DocumentFaultFailsRun(t *testing.T) {
	_, store := testutil.TestInbox(t)
	db := testutil.TestDB(t)

	// Well-formed XML, but no dmdSec.
	if err := store.Write("bad.xml", []byte(`<?xml version="1.0"?>
<mets:mets xmlns:mets="http://www.loc.gov/METS/">
  <mets:fileSec><mets:fileGrp USE="preservation"/></mets:fileSec>
  <mets:structMap/>
</mets:mets>`)); err != nil {
		t.Fatal(err)
	}

	var events []string
	r := New(store, db, discardLogger(), func(kind string, _ *reports.Run) {
		events = append(events, kind)
	})

	_, err := r.Run(context.Background(), []string{"bad.xml"}, "")
	if err == nil {
		t.Fatal("structural fault should fail the run")
	}

	runs, _, listErr := db.ListRuns(1, 0)
	if listErr != nil {
		t.Fatal(listErr)
	}
	if len(runs) != 1 || runs[0].Status != reports.StatusFailed {
		t.Errorf("runs = %+v", runs)
	}
	if runs[0].Error == "" {
		t.Error("failed run should record the error")
	}

	if len(events) != 2 || events[1] != "failed" {
		t.Errorf("events = %v", events)
	}
}

func TestRun_MissingContentIsSkipped(t *testing.T) {
	_, store := testutil.TestInbox(t)
	db := testutil.TestDB(t)

	testutil.WriteDoc(t, store, "mets.xml", testutil.METSDoc{
		ObjID: "SIP-003",
		Files: []testutil.METSFile{
			{ID: "f1", Href: "content/gone.pdf", Algorithm: "MD5", Digest: md5abc},
		},
	})

	r := New(store, db, discardLogger(), nil)
	run, err := r.Run(context.Background(), []string{"mets.xml"}, "")
	if err != nil {
		t.Fatalf("missing content must not fail the run: %v", err)
	}
	if run.MismatchCount != 0 || run.FixityCount != 1 {
		t.Errorf("counts = %d/%d", run.MismatchCount, run.FixityCount)
	}
}
