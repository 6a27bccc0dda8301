package flows

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/campuslf/lostfound/internal/backend"
	"github.com/campuslf/lostfound/internal/models"
)

// EmptyReason distinguishes why a listing view shows no records.
type EmptyReason string

const (
	// EmptyNone: the filtered view has records.
	EmptyNone EmptyReason = ""
	// EmptyLoading: no fetch has completed yet.
	EmptyLoading EmptyReason = "loading"
	// EmptyFiltered: records exist but the active filter matches none.
	EmptyFiltered EmptyReason = "filtered"
	// EmptyPartition: the status partition itself is empty.
	EmptyPartition EmptyReason = "empty"
)

// ListingFlow owns the working set for one status partition. Fetches
// are stamped with sequence numbers so a stale in-flight response can
// never overwrite a later one (last-issued-wins).
type ListingFlow struct {
	reports backend.Reports
	status  models.Status

	mu      sync.Mutex
	items   []models.ItemReport
	loaded  bool
	issued  uint64
	applied uint64
}

func NewListingFlow(reports backend.Reports, status models.Status) *ListingFlow {
	return &ListingFlow{reports: reports, status: status}
}

// Status returns the partition this flow displays.
func (f *ListingFlow) Status() models.Status {
	return f.status
}

// Fetch retrieves the full status partition, normalizes each record's
// date and time, and replaces the working set. On failure the
// previously displayed set is left untouched. A response that lost the
// race to a later-issued fetch is discarded.
func (f *ListingFlow) Fetch(ctx context.Context) error {
	f.mu.Lock()
	f.issued++
	seq := f.issued
	f.mu.Unlock()

	records, err := f.reports.ListByStatus(ctx, f.status)
	if err != nil {
		return fmt.Errorf("%w: %v", backend.ErrPersistenceFailure, err)
	}

	for i := range records {
		records[i].Normalize()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if seq <= f.applied {
		log.Debug().
			Uint64("seq", seq).
			Uint64("applied", f.applied).
			Msg("Discarding stale fetch response")
		return nil
	}
	f.applied = seq
	f.items = records
	f.loaded = true
	return nil
}

// Refresh is Fetch for the currently active status; used for manual
// refresh and post-delete reconciliation.
func (f *ListingFlow) Refresh(ctx context.Context) error {
	return f.Fetch(ctx)
}

// WorkingSet returns a copy of the current in-memory records.
func (f *ListingFlow) WorkingSet() []models.ItemReport {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.ItemReport, len(f.items))
	copy(out, f.items)
	return out
}

// Loaded reports whether at least one fetch has completed.
func (f *ListingFlow) Loaded() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loaded
}

// Filter applies the client-side text and category filters to the
// working set. Pure and synchronous; no store round-trip.
func (f *ListingFlow) Filter(query, category string) []models.ItemReport {
	var out []models.ItemReport
	for _, item := range f.WorkingSet() {
		if item.Matches(query, category) {
			out = append(out, item)
		}
	}
	return out
}

// Delete removes the report from the store, then from the working set
// (optimistic), then refetches the partition to reconcile with the
// store's authoritative state. A store rejection leaves the working
// set unchanged; a failed reconciliation keeps the optimistic removal.
func (f *ListingFlow) Delete(ctx context.Context, id string) error {
	if err := f.reports.Delete(ctx, id); err != nil {
		return fmt.Errorf("%w: %v", backend.ErrPersistenceFailure, err)
	}

	f.mu.Lock()
	kept := f.items[:0]
	for _, item := range f.items {
		if item.ID != id {
			kept = append(kept, item)
		}
	}
	f.items = kept
	f.mu.Unlock()

	log.Info().
		Str("report_id", id).
		Str("status", string(f.status)).
		Msg("Item report deleted")

	if err := f.Refresh(ctx); err != nil {
		// The delete itself succeeded; keep the local removal.
		log.Warn().Err(err).Msg("Post-delete refetch failed")
	}
	return nil
}

// Empty classifies an empty filtered view: an active filter wins over
// the loading state, which wins over a genuinely empty partition.
func (f *ListingFlow) Empty(query, category string) EmptyReason {
	if len(f.Filter(query, category)) > 0 {
		return EmptyNone
	}
	if query != "" || (category != "" && category != models.AllCategories) {
		return EmptyFiltered
	}
	if !f.Loaded() {
		return EmptyLoading
	}
	return EmptyPartition
}

// EmptyMessage is the user-facing text for each empty state.
func EmptyMessage(reason EmptyReason, status models.Status) string {
	switch reason {
	case EmptyFiltered:
		return "Try adjusting your search or filter criteria"
	case EmptyLoading:
		return "Loading items..."
	case EmptyPartition:
		return fmt.Sprintf("There are currently no %s items in the system", status)
	}
	return ""
}
