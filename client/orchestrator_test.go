package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/scout-labs/tradescout/models"
)

// memSaver records saved files in memory.
type memSaver struct {
	mu    sync.Mutex
	files map[string][]byte
}

func newMemSaver() *memSaver {
	return &memSaver{files: make(map[string][]byte)}
}

func (m *memSaver) Save(filename string, payload io.Reader) error {
	data, err := io.ReadAll(payload)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[filename] = data
	return nil
}

func (m *memSaver) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.files)
}

func resultsJSON(product string, names ...string) string {
	products := make([]models.ProductRecord, len(names))
	for i, n := range names {
		products[i] = models.ProductRecord{"Product Name": n}
	}
	body, _ := json.Marshal(models.SearchResults{
		ProductName:  product,
		TotalResults: len(products),
		ScrapedAt:    "2025-03-14 09:00:00",
		Products:     products,
	})
	return string(body)
}

func newOrchestrator(t *testing.T, handler http.Handler) (*Orchestrator, *memSaver, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	saver := newMemSaver()
	o := NewOrchestrator(NewAPI(srv.URL, Policy{Timeout: 5 * time.Second}), saver)
	return o, saver, srv
}

func TestOrchestrator_InitialStateIsEmpty(t *testing.T) {
	o := NewOrchestrator(NewAPI("http://unused.test", Policy{}), newMemSaver())

	snap := o.Snapshot()
	if snap.Search.Phase != PhaseIdle || snap.Export.Phase != PhaseIdle {
		t.Errorf("initial phases = %v/%v, want idle/idle", snap.Search.Phase, snap.Export.Phase)
	}
	if snap.Results != nil {
		t.Error("initial results must be nil")
	}
}

func TestOrchestratorSearch_ValidationFailureMakesNoCall(t *testing.T) {
	var calls atomic.Int32
	o, _, _ := newOrchestrator(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
	}))

	_, err := o.Search(context.Background(), "   ", 20)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if calls.Load() != 0 {
		t.Errorf("validation failure issued %d network calls", calls.Load())
	}

	snap := o.Snapshot()
	if snap.Search.Phase != PhaseFailed {
		t.Errorf("phase = %v, want failed", snap.Search.Phase)
	}
	if snap.Search.Err == nil || snap.Search.Err.Kind != ErrKindValidation {
		t.Errorf("err = %+v, want validation error", snap.Search.Err)
	}
}

func TestOrchestratorSearch_Success(t *testing.T) {
	o, _, _ := newOrchestrator(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("path = %q", r.URL.Path)
		}
		var q SearchQuery
		json.NewDecoder(r.Body).Decode(&q)
		if q.ProductName != "aluminium" || q.MaxResults != 20 || !q.IncludeDetailedInfo {
			t.Errorf("query = %+v", q)
		}
		io.WriteString(w, resultsJSON("aluminium", "Sheet", "Rod"))
	}))

	results, err := o.Search(context.Background(), "aluminium", 20)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results.Products) != 2 {
		t.Fatalf("got %d products", len(results.Products))
	}

	snap := o.Snapshot()
	if snap.Search.Phase != PhaseSucceeded || snap.Search.Err != nil {
		t.Errorf("state = %+v", snap.Search)
	}
	if snap.Results == nil || snap.Results.TotalResults != 2 {
		t.Errorf("results = %+v", snap.Results)
	}
	if snap.Results.Products[0]["Product Name"] != "Sheet" ||
		snap.Results.Products[1]["Product Name"] != "Rod" {
		t.Errorf("ordering broken: %+v", snap.Results.Products)
	}
}

func TestOrchestratorSearch_EmptyResultSetIsSucceeded(t *testing.T) {
	o, _, _ := newOrchestrator(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, resultsJSON("unobtainium"))
	}))

	results, err := o.Search(context.Background(), "unobtainium", 20)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results.Products) != 0 {
		t.Fatalf("got %d products", len(results.Products))
	}

	snap := o.Snapshot()
	if snap.Search.Phase != PhaseSucceeded {
		t.Errorf("phase = %v, want succeeded — empty results are not a failure", snap.Search.Phase)
	}
	if snap.Results == nil || len(snap.Results.Products) != 0 {
		t.Errorf("results = %+v", snap.Results)
	}
}

func TestOrchestratorSearch_BackendFailureClearsResults(t *testing.T) {
	var fail atomic.Bool
	o, _, _ := newOrchestrator(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusTooManyRequests)
			io.WriteString(w, `{"error":"rate limited"}`)
			return
		}
		io.WriteString(w, resultsJSON("aluminium", "Sheet"))
	}))

	if _, err := o.Search(context.Background(), "aluminium", 20); err != nil {
		t.Fatalf("first search: %v", err)
	}

	fail.Store(true)
	if _, err := o.Search(context.Background(), "aluminium", 20); err == nil {
		t.Fatal("expected failure")
	}

	snap := o.Snapshot()
	if snap.Search.Phase != PhaseFailed {
		t.Errorf("phase = %v", snap.Search.Phase)
	}
	if snap.Search.Err == nil || snap.Search.Err.Message != "rate limited" {
		t.Errorf("err = %+v", snap.Search.Err)
	}
	if snap.Results != nil {
		t.Error("failed search must not leave a stale result set visible")
	}
}

func TestOrchestratorSearch_LastToCompleteWins(t *testing.T) {
	slowStarted := make(chan struct{})
	slowRelease := make(chan struct{})

	o, _, _ := newOrchestrator(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var q SearchQuery
		json.NewDecoder(r.Body).Decode(&q)
		if q.ProductName == "slow" {
			close(slowStarted)
			<-slowRelease
		}
		io.WriteString(w, resultsJSON(q.ProductName, q.ProductName+"-product"))
	}))

	done := make(chan struct{})
	go func() {
		defer close(done)
		o.Search(context.Background(), "slow", 20)
	}()

	<-slowStarted
	if _, err := o.Search(context.Background(), "fast", 20); err != nil {
		t.Fatalf("fast search: %v", err)
	}

	close(slowRelease)
	<-done

	snap := o.Snapshot()
	if snap.Search.Phase != PhaseSucceeded {
		t.Fatalf("phase = %v", snap.Search.Phase)
	}
	if snap.Results.ProductName != "slow" {
		t.Errorf("final results = %q, want the last completion (slow) to win", snap.Results.ProductName)
	}
}

func exportableResults() *models.SearchResults {
	return &models.SearchResults{
		ProductName:  "aluminium",
		TotalResults: 1,
		ScrapedAt:    "2025-03-14 09:00:00",
		Products:     []models.ProductRecord{{"Product Name": "Sheet"}},
	}
}

func TestOrchestratorExport_SavesWithHeaderFilename(t *testing.T) {
	o, saver, _ := newOrchestrator(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/download" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Header().Set("Content-Disposition", `attachment; filename="report.xlsx"`)
		w.Write([]byte("XLSX-BYTES"))
	}))

	file, err := o.Export(context.Background(), exportableResults(), FormatExcel)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if file.Filename != "report.xlsx" {
		t.Errorf("filename = %q", file.Filename)
	}
	if file.Payload != nil {
		t.Error("payload must be released after save")
	}
	if got := saver.files["report.xlsx"]; !bytes.Equal(got, []byte("XLSX-BYTES")) {
		t.Errorf("saved payload = %q", got)
	}
	if snap := o.Snapshot(); snap.Export.Phase != PhaseSucceeded {
		t.Errorf("export phase = %v", snap.Export.Phase)
	}
}

func TestOrchestratorExport_TwoFormatsProduceIndependentFiles(t *testing.T) {
	o, saver, _ := newOrchestrator(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ExportRequest
		json.NewDecoder(r.Body).Decode(&req)
		fmt.Fprintf(w, "payload-%s", req.Format)
	}))
	o.api.now = func() time.Time { return testClock }

	results := exportableResults()

	excel, err := o.Export(context.Background(), results, FormatExcel)
	if err != nil {
		t.Fatalf("excel export: %v", err)
	}
	jsonFile, err := o.Export(context.Background(), results, FormatJSON)
	if err != nil {
		t.Fatalf("json export: %v", err)
	}

	if excel.Filename != "tradeindia_aluminium_2025-03-14.excel" {
		t.Errorf("excel filename = %q", excel.Filename)
	}
	if jsonFile.Filename != "tradeindia_aluminium_2025-03-14.json" {
		t.Errorf("json filename = %q", jsonFile.Filename)
	}
	if saver.count() != 2 {
		t.Errorf("saved %d files, want 2", saver.count())
	}
	if string(saver.files[excel.Filename]) != "payload-excel" {
		t.Errorf("excel payload = %q", saver.files[excel.Filename])
	}
}

func TestOrchestratorExport_ConcurrentExports(t *testing.T) {
	o, saver, _ := newOrchestrator(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ExportRequest
		json.NewDecoder(r.Body).Decode(&req)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "out."+string(req.Format)))
		fmt.Fprintf(w, "payload-%s", req.Format)
	}))

	results := exportableResults()
	var wg sync.WaitGroup
	for _, format := range []Format{FormatExcel, FormatJSON} {
		wg.Add(1)
		go func(f Format) {
			defer wg.Done()
			if _, err := o.Export(context.Background(), results, f); err != nil {
				t.Errorf("export %s: %v", f, err)
			}
		}(format)
	}
	wg.Wait()

	if saver.count() != 2 {
		t.Errorf("saved %d files, want 2", saver.count())
	}
	if snap := o.Snapshot(); snap.Export.Phase != PhaseSucceeded {
		t.Errorf("export phase = %v", snap.Export.Phase)
	}
}

func TestOrchestratorExport_SnapshotImmuneToResultMutation(t *testing.T) {
	var received ExportRequest
	o, _, _ := newOrchestrator(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&received)
		w.Write([]byte("ok"))
	}))

	results := exportableResults()
	if _, err := o.Export(context.Background(), results, FormatJSON); err != nil {
		t.Fatalf("export: %v", err)
	}

	// Mutating the caller's set after the fact must not have been visible
	// to the export, which serialized its own deep copy.
	results.Products[0]["Product Name"] = "MUTATED"
	if received.Results.Products[0]["Product Name"] != "Sheet" {
		t.Errorf("export saw %q, want the snapshot value", received.Results.Products[0]["Product Name"])
	}
}

func TestOrchestratorExport_BackendFailure(t *testing.T) {
	o, saver, _ := newOrchestrator(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"error":"failed to render export"}`)
	}))

	_, err := o.Export(context.Background(), exportableResults(), FormatExcel)
	var info *ErrorInfo
	if err == nil {
		t.Fatal("expected error")
	}
	info = asErrorInfo(err)
	if info.Kind != ErrKindBackend || info.Message != "failed to render export" {
		t.Errorf("got kind=%q message=%q", info.Kind, info.Message)
	}
	if saver.count() != 0 {
		t.Error("nothing should be saved on failure")
	}
	if snap := o.Snapshot(); snap.Export.Phase != PhaseFailed || snap.Export.Err == nil {
		t.Errorf("export state = %+v", snap.Export)
	}
}

func TestOrchestratorExport_NoResultsRejected(t *testing.T) {
	var calls atomic.Int32
	o, _, _ := newOrchestrator(t, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		calls.Add(1)
	}))

	for _, rs := range []*models.SearchResults{nil, {ProductName: "x"}} {
		if _, err := o.Export(context.Background(), rs, FormatJSON); err == nil {
			t.Error("expected error for empty result set")
		}
	}
	if calls.Load() != 0 {
		t.Errorf("empty export issued %d network calls", calls.Load())
	}
}

func TestOrchestrator_ExportIndependentOfSearchState(t *testing.T) {
	o, saver, _ := newOrchestrator(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/search":
			w.WriteHeader(http.StatusBadGateway)
			io.WriteString(w, `{"error":"upstream down"}`)
		case "/download":
			w.Write([]byte("ok"))
		}
	}))

	// A failing search must not block exporting a result set already held.
	o.Search(context.Background(), "aluminium", 20)

	if _, err := o.Export(context.Background(), exportableResults(), FormatJSON); err != nil {
		t.Fatalf("export: %v", err)
	}

	snap := o.Snapshot()
	if snap.Search.Phase != PhaseFailed {
		t.Errorf("search phase = %v", snap.Search.Phase)
	}
	if snap.Export.Phase != PhaseSucceeded {
		t.Errorf("export phase = %v", snap.Export.Phase)
	}
	if saver.count() != 1 {
		t.Errorf("saved %d files", saver.count())
	}
}

// End-to-end flow: search then export, against the same live state.
func TestOrchestrator_SearchThenExportScenario(t *testing.T) {
	o, saver, _ := newOrchestrator(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/search":
			io.WriteString(w, resultsJSON("aluminium", "Sheet", "Rod"))
		case "/download":
			w.Write([]byte("{}"))
		}
	}))
	o.api.now = func() time.Time { return testClock }

	results, err := o.Search(context.Background(), "aluminium", 20)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	snap := o.Snapshot()
	if snap.Search.Phase != PhaseSucceeded || len(snap.Results.Products) != 2 {
		t.Fatalf("post-search state = %+v", snap)
	}

	file, err := o.Export(context.Background(), results, FormatJSON)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if file.Filename != "tradeindia_aluminium_2025-03-14.json" {
		t.Errorf("filename = %q", file.Filename)
	}
	if saver.count() != 1 {
		t.Errorf("saved %d files", saver.count())
	}
}
