// Package ingestion orchestrates the scrape loop: snapshot, extract,
// dedup, deliver.
package ingestion

import (
	"context"
	"log"
	"time"

	"base-token-tracker/internal/discovery"
	"base-token-tracker/internal/domain"
	"base-token-tracker/internal/observability"
	"base-token-tracker/internal/page"
)

// Deliverer forwards one admitted record to the relay.
// Implemented by relay.Client.
type Deliverer interface {
	Deliver(ctx context.Context, rec *domain.TokenRecord) error
}

// Runner drives the ingestion pipeline. Ticks never overlap: a new tick
// starts only after the previous one's record forwarding has settled.
// A snapshot failure kills the whole session; Run restarts it from
// scratch after a fixed backoff, keeping the tracker state.
type Runner struct {
	source         page.Source
	extractor      *discovery.Extractor
	tracker        *discovery.Tracker
	deliverer      Deliverer
	interval       time.Duration // Poll interval between ticks
	settleDelay    time.Duration // Wait after navigation for async rendering
	restartBackoff time.Duration // Delay before restarting a dead session
	metrics        *observability.Metrics
	logger         *log.Logger
}

// RunnerOptions contains configuration for creating a Runner.
type RunnerOptions struct {
	Source         page.Source
	Extractor      *discovery.Extractor
	Tracker        *discovery.Tracker
	Deliverer      Deliverer
	Interval       time.Duration // Default: 10s
	SettleDelay    time.Duration // Default: 10s
	RestartBackoff time.Duration // Default: 10s
	Metrics        *observability.Metrics
	Logger         *log.Logger
}

// NewRunner creates a new ingestion runner.
func NewRunner(opts RunnerOptions) *Runner {
	interval := opts.Interval
	if interval == 0 {
		interval = 10 * time.Second
	}

	settleDelay := opts.SettleDelay
	if settleDelay == 0 {
		settleDelay = 10 * time.Second
	}

	restartBackoff := opts.RestartBackoff
	if restartBackoff == 0 {
		restartBackoff = 10 * time.Second
	}

	extractor := opts.Extractor
	if extractor == nil {
		extractor = discovery.NewExtractor()
	}

	tracker := opts.Tracker
	if tracker == nil {
		tracker = discovery.NewTracker(discovery.KeyContract)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Runner{
		source:         opts.Source,
		extractor:      extractor,
		tracker:        tracker,
		deliverer:      opts.Deliverer,
		interval:       interval,
		settleDelay:    settleDelay,
		restartBackoff: restartBackoff,
		metrics:        opts.Metrics,
		logger:         logger,
	}
}

// Run starts the ingestion loop and blocks until ctx is cancelled.
// Failed sessions are restarted indefinitely; the tracker's seen set
// survives restarts and is cleared only with the process.
func (r *Runner) Run(ctx context.Context) error {
	for {
		err := r.runSession(ctx)
		if ctx.Err() != nil {
			r.logger.Println("Runner stopping...")
			return ctx.Err()
		}

		r.logger.Printf("Session failed: %v; restarting in %v", err, r.restartBackoff)
		if r.metrics != nil {
			r.metrics.SessionRestarts.Inc()
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.restartBackoff):
		}
	}
}

// runSession runs one browser session until a fatal error or cancellation.
func (r *Runner) runSession(ctx context.Context) error {
	r.logger.Println("Starting session...")
	if err := r.source.Start(ctx); err != nil {
		return err
	}
	defer r.source.Close()

	// Let the page's own async rendering populate before the first scan.
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(r.settleDelay):
	}

	r.logger.Printf("Session started, polling every %v", r.interval)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		if err := r.tick(ctx); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// tick performs one snapshot-extract-admit-deliver cycle. Delivery
// failures are isolated per record; only snapshot failure is fatal.
func (r *Runner) tick(ctx context.Context) error {
	snap, err := r.source.Capture(ctx)
	if err != nil {
		if r.metrics != nil {
			r.metrics.SnapshotErrors.Inc()
		}
		return err
	}
	if r.metrics != nil {
		r.metrics.SnapshotsCaptured.Inc()
	}

	records := r.extractor.Extract(snap.Text, snap.HTML)

	admitted := 0
	for _, rec := range records {
		if !r.tracker.Admit(rec) {
			continue
		}
		admitted++
		if r.metrics != nil {
			r.metrics.RecordsAdmitted.Inc()
		}

		if err := r.deliverer.Deliver(ctx, rec); err != nil {
			// The key stays admitted; this record is lost for the session.
			r.logger.Printf("Delivery failed for %s: %v", rec.Contract, err)
			if r.metrics != nil {
				r.metrics.DeliveriesFailed.Inc()
			}
			continue
		}
		r.logger.Printf("Delivered %s %s", rec.Name, rec.Symbol)
		if r.metrics != nil {
			r.metrics.DeliveriesSucceeded.Inc()
		}
	}

	if r.metrics != nil {
		r.metrics.CandidatesExtracted.Add(float64(len(records)))
	}
	if len(records) > 0 {
		r.logger.Printf("Tick: %d candidates, %d newly admitted (%d seen total)",
			len(records), admitted, r.tracker.Seen())
	}
	return nil
}
