package api

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/thalvik/arkiv/internal/reports"
	"github.com/thalvik/arkiv/internal/runner"
	"github.com/thalvik/arkiv/internal/storage"
	"github.com/thalvik/arkiv/internal/testutil"
)

const md5abc = "900150983cd24fb0d6963f7d28e17f72"

func testServer(t *testing.T) (*httptest.Server, storage.Provider, reports.RunStore) {
	t.Helper()
	_, store := testutil.TestInbox(t)
	db := testutil.TestDB(t)
	run := runner.New(store, db, slog.New(slog.DiscardHandler), nil)
	svc := NewService(run, db, store)
	ts := httptest.NewServer(NewRouter(svc, false, "", nil))
	t.Cleanup(ts.Close)
	return ts, store, db
}

func seedDocument(t *testing.T, store storage.Provider) {
	t.Helper()
	if err := store.Write("content/report.pdf", []byte("abc")); err != nil {
		t.Fatal(err)
	}
	testutil.WriteDoc(t, store, "mets.xml", testutil.METSDoc{
		ObjID: "SIP-001",
		Files: []testutil.METSFile{
			{ID: "f1", Href: "content/report.pdf", Algorithm: "MD5", Digest: md5abc},
		},
	})
}

func triggerRun(t *testing.T, ts *httptest.Server, paths ...string) reports.Run {
	t.Helper()
	body, _ := json.Marshal(map[string]any{"paths": paths})
	resp, err := http.Post(ts.URL+"/runs", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("trigger status = %d", resp.StatusCode)
	}
	var run reports.Run
	if err := json.NewDecoder(resp.Body).Decode(&run); err != nil {
		t.Fatal(err)
	}
	return run
}

func TestTriggerAndGetRun(t *testing.T) {
	ts, store, _ := testServer(t)
	seedDocument(t, store)

	run := triggerRun(t, ts, "mets.xml")
	if run.Status != reports.StatusSucceeded || run.SIPID != "SIP-001" {
		t.Errorf("run = %+v", run)
	}

	resp, err := http.Get(ts.URL + "/runs/1")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d", resp.StatusCode)
	}
	var got reports.Run
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.ID != run.ID || got.SIPID != "SIP-001" {
		t.Errorf("got = %+v", got)
	}
}

func TestTriggerRun_BadRequests(t *testing.T) {
	ts, _, _ := testServer(t)

	resp, err := http.Post(ts.URL+"/runs", "application/json", strings.NewReader("{not json"))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("invalid JSON status = %d", resp.StatusCode)
	}

	resp, err = http.Post(ts.URL+"/runs", "application/json", strings.NewReader(`{"paths":[]}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("empty paths status = %d", resp.StatusCode)
	}
}

func TestTriggerRun_DocumentFault(t *testing.T) {
	ts, store, _ := testServer(t)
	if err := store.Write("bad.xml", []byte("<html></html>")); err != nil {
		t.Fatal(err)
	}

	body := strings.NewReader(`{"paths":["bad.xml"]}`)
	resp, err := http.Post(ts.URL+"/runs", "application/json", body)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", resp.StatusCode)
	}
	var e struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&e); err != nil {
		t.Fatal(err)
	}
	if e.Error == "" {
		t.Error("422 body should carry the reason")
	}
}

func TestListRuns(t *testing.T) {
	ts, store, _ := testServer(t)
	seedDocument(t, store)
	triggerRun(t, ts, "mets.xml")
	triggerRun(t, ts, "mets.xml")

	resp, err := http.Get(ts.URL + "/runs?limit=1")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var out struct {
		Runs  []reports.Run `json:"runs"`
		Total int           `json:"total"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Total != 2 || len(out.Runs) != 1 {
		t.Errorf("total = %d, page = %d", out.Total, len(out.Runs))
	}
}

func TestGetRun_Errors(t *testing.T) {
	ts, _, _ := testServer(t)

	resp, _ := http.Get(ts.URL + "/runs/not-a-number")
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad id status = %d", resp.StatusCode)
	}

	resp, _ = http.Get(ts.URL + "/runs/999")
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing run status = %d", resp.StatusCode)
	}
}

func TestFixityReportEndpoint(t *testing.T) {
	ts, store, _ := testServer(t)
	seedDocument(t, store)
	run := triggerRun(t, ts, "mets.xml")

	resp, err := http.Get(ts.URL + "/runs/1/fixity")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var out struct {
		RunID   int64 `json:"run_id"`
		Results []struct {
			FileID string `json:"file_id"`
			Status string `json:"status"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.RunID != run.ID || len(out.Results) != 1 {
		t.Fatalf("out = %+v", out)
	}
	if out.Results[0].FileID != "f1" || out.Results[0].Status != "ok" {
		t.Errorf("result = %+v", out.Results[0])
	}
}

func TestDocumentsEndpoints(t *testing.T) {
	ts, _, _ := testServer(t)

	// Upload a document.
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "upload.xml")
	if err != nil {
		t.Fatal(err)
	}
	_, _ = fw.Write([]byte("<mets/>"))
	mw.Close()

	resp, err := http.Post(ts.URL+"/documents", mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("upload status = %d", resp.StatusCode)
	}
	var up struct {
		Path     string `json:"path"`
		Checksum string `json:"checksum"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&up); err != nil {
		t.Fatal(err)
	}
	if up.Path != "upload.xml" || len(up.Checksum) != 64 {
		t.Errorf("upload = %+v", up)
	}

	// It shows up in the listing.
	resp2, err := http.Get(ts.URL + "/documents")
	if err != nil {
		t.Fatal(err)
	}
	defer resp2.Body.Close()
	var list struct {
		Documents []storage.DocMeta `json:"documents"`
	}
	if err := json.NewDecoder(resp2.Body).Decode(&list); err != nil {
		t.Fatal(err)
	}
	if len(list.Documents) != 1 || list.Documents[0].Path != "upload.xml" {
		t.Errorf("documents = %+v", list.Documents)
	}
}

func TestUploadRejectsNonXML(t *testing.T) {
	ts, _, _ := testServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("file", "notes.txt")
	_, _ = fw.Write([]byte("hi"))
	mw.Close()

	resp, err := http.Post(ts.URL+"/documents", mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestAuthMiddleware(t *testing.T) {
	_, store := testutil.TestInbox(t)
	db := testutil.TestDB(t)
	run := runner.New(store, db, slog.New(slog.DiscardHandler), nil)
	svc := NewService(run, db, store)
	ts := httptest.NewServer(NewRouter(svc, true, "secret", nil))
	defer ts.Close()

	resp, _ := http.Get(ts.URL + "/runs")
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("no token status = %d", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/runs", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	resp, _ = http.DefaultClient.Do(req)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("wrong token status = %d", resp.StatusCode)
	}

	req, _ = http.NewRequest(http.MethodGet, ts.URL+"/runs", nil)
	req.Header.Set("Authorization", "Bearer secret")
	resp, _ = http.DefaultClient.Do(req)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("valid token status = %d", resp.StatusCode)
	}
}
