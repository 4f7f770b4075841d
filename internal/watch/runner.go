// Package watch runs reconciliation passes over every tracked term and
// schedules them in the background.
package watch

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/netmpowers/bookwatch/internal/database"
	"github.com/netmpowers/bookwatch/internal/model"
	"github.com/netmpowers/bookwatch/internal/reconcile"
	"golang.org/x/time/rate"
)

// TimestampLayout is the human-readable local-time layout used in reports
// and the digest log.
const TimestampLayout = "2006-01-02 03:04:05 PM MST"

// Fetcher retrieves the current remote listing for a term.
type Fetcher interface {
	Fetch(ctx context.Context, term string) ([]model.RemoteRow, error)
}

// Runner executes one full pass: every term, one at a time, fetch then
// reconcile. Terms are never processed concurrently; the store is a
// single-writer design.
type Runner struct {
	store   database.Store
	fetcher Fetcher
	limiter *rate.Limiter
	now     func() time.Time

	// mu serializes whole runs. The poller and the on-demand run path
	// share one Runner, and reconciling the same term from two runs at
	// once would double-insert: both would snapshot the stored items
	// before either inserts.
	mu sync.Mutex
}

// NewRunner creates a runner that leaves at least delay between
// successive fetches. The delay is enforced even after a failed fetch so
// errors never cause burst traffic against the site.
func NewRunner(store database.Store, fetcher Fetcher, delay time.Duration) *Runner {
	return &Runner{
		store:   store,
		fetcher: fetcher,
		limiter: rate.NewLimiter(rate.Every(delay), 1),
		now:     time.Now,
	}
}

// RunAll processes every tracked term in store order and returns the
// aggregated report. A failure on one term is recorded in the report and
// does not stop the run; only store enumeration failure or context
// cancellation aborts it. Concurrent calls serialize: at most one run
// executes at a time.
func (r *Runner) RunAll(ctx context.Context) (*model.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	terms, err := r.store.AllTerms()
	if err != nil {
		return nil, fmt.Errorf("load terms: %w", err)
	}

	report := &model.Report{Timestamp: r.now().Format(TimestampLayout)}
	for _, term := range terms {
		if err := r.limiter.Wait(ctx); err != nil {
			return report, err
		}
		delta, err := r.runTerm(ctx, term)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("error for %q: %v", term, err))
			continue
		}
		if len(delta) > 0 {
			report.Entries = append(report.Entries, model.ReportEntry{Term: term, Rows: delta})
		}
	}

	log.Printf("Run complete: %d terms, %d with new items, %d errors",
		len(terms), len(report.Entries), len(report.Errors))
	return report, nil
}

// runTerm performs the fetch + reconcile cycle for a single term.
func (r *Runner) runTerm(ctx context.Context, term string) ([]model.RemoteRow, error) {
	id, err := r.store.TermID(term)
	if err != nil {
		return nil, err
	}
	rows, err := r.fetcher.Fetch(ctx, term)
	if err != nil {
		return nil, err
	}
	delta, removed, err := reconcile.Run(r.store, id, rows)
	if err != nil {
		return nil, err
	}
	if len(delta) > 0 || len(removed) > 0 {
		log.Printf("Term %q: %d new, %d removed", term, len(delta), len(removed))
	}
	return delta, nil
}
