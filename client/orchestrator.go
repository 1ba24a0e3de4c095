package client

import (
	"context"
	"log/slog"
	"sync"

	"github.com/scout-labs/tradescout/models"
)

// Orchestrator drives the two client workflows — search and export — and
// owns the observable state the presentation layer renders. The workflows
// are independent: a search may begin while an export is in flight, and
// several exports may run concurrently, each against its own snapshot of
// the result set.
//
// Overlapping calls to the same workflow are tolerated rather than
// prevented: every call writes its outcome when it settles, so the last
// call to complete determines the final state. Debouncing is left to the
// presentation boundary.
type Orchestrator struct {
	api   *API
	saver FileSaver

	mu      sync.Mutex
	search  WorkflowState
	export  WorkflowState
	results *models.SearchResults
}

// NewOrchestrator creates an orchestrator with empty state. Both workflows
// start in PhaseIdle.
func NewOrchestrator(api *API, saver FileSaver) *Orchestrator {
	return &Orchestrator{api: api, saver: saver}
}

// Snapshot returns a consistent read-only copy of the current state. The
// result set is deep-copied so consumers cannot mutate live state.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return Snapshot{
		Search:  o.search,
		Export:  o.export,
		Results: o.results.Clone(),
	}
}

// Search validates the raw input and runs the search workflow to
// completion. Validation failures mark the search workflow failed without
// issuing a network call and without discarding an existing result set.
// A valid query transitions the workflow to PhaseInProgress — clearing the
// previous result set and error at that moment — and the settled outcome
// (result set or classified error) is written unconditionally when the
// call completes.
func (o *Orchestrator) Search(ctx context.Context, productName string, maxResults int) (*models.SearchResults, error) {
	query, err := NewSearchQuery(productName, maxResults)
	if err != nil {
		info := asErrorInfo(err)
		o.mu.Lock()
		o.search = WorkflowState{Phase: PhaseFailed, Err: info}
		o.mu.Unlock()
		slog.Info("search rejected", "error", info.Message)
		return nil, info
	}

	o.mu.Lock()
	o.search = WorkflowState{Phase: PhaseInProgress}
	o.results = nil
	o.mu.Unlock()

	slog.Info("search issued", "product", query.ProductName, "max_results", query.MaxResults)

	results, err := o.api.Search(ctx, query)
	if err != nil {
		info := asErrorInfo(err)
		o.mu.Lock()
		o.search = WorkflowState{Phase: PhaseFailed, Err: info}
		o.results = nil
		o.mu.Unlock()
		slog.Warn("search failed", "product", query.ProductName, "kind", info.Kind, "error", info.Message)
		return nil, info
	}

	o.mu.Lock()
	o.search = WorkflowState{Phase: PhaseSucceeded}
	o.results = results
	o.mu.Unlock()

	slog.Info("search succeeded", "product", results.ProductName, "total_results", results.TotalResults)
	return results, nil
}

// Export renders the given result set in the chosen format and hands the
// payload to the FileSaver. The result set is snapshotted before the
// request is sent, so a concurrent search replacing the live set cannot
// affect an export already underway. The payload is released exactly once
// on every exit path; the returned DownloadedFile carries the resolved
// filename with its payload already persisted and closed.
//
// Export succeeds once the save has been triggered — whether the
// environment actually keeps the file is outside the client's visibility.
func (o *Orchestrator) Export(ctx context.Context, results *models.SearchResults, format Format) (*DownloadedFile, error) {
	if results == nil || len(results.Products) == 0 {
		info := validationErr("no results to export")
		o.setExport(WorkflowState{Phase: PhaseFailed, Err: info})
		return nil, info
	}

	snapshot := results.Clone()

	o.setExport(WorkflowState{Phase: PhaseInProgress})
	slog.Info("export issued", "product", snapshot.ProductName, "format", format)

	file, err := o.api.Download(ctx, ExportRequest{Results: snapshot, Format: format})
	if err != nil {
		info := asErrorInfo(err)
		o.setExport(WorkflowState{Phase: PhaseFailed, Err: info})
		slog.Warn("export failed", "format", format, "kind", info.Kind, "error", info.Message)
		return nil, info
	}

	saveErr := o.saver.Save(file.Filename, file.Payload)
	file.Payload.Close()
	file.Payload = nil

	if saveErr != nil {
		info := transportErr("save failed: " + saveErr.Error())
		o.setExport(WorkflowState{Phase: PhaseFailed, Err: info})
		slog.Warn("export save failed", "filename", file.Filename, "error", saveErr)
		return nil, info
	}

	o.setExport(WorkflowState{Phase: PhaseSucceeded})
	slog.Info("export saved", "filename", file.Filename, "format", format)
	return file, nil
}

func (o *Orchestrator) setExport(state WorkflowState) {
	o.mu.Lock()
	o.export = state
	o.mu.Unlock()
}
