package ingest

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// RescanResult reports a directory sweep: how many files were queued and
// how many were skipped as already registered.
type RescanResult struct {
	Scheduled int
	Skipped   int
}

// Rescanner runs full directory sweeps, one at a time. A sweep requested
// while another is running is a no-op rather than a queued duplicate.
type Rescanner struct {
	scanner    *Scanner
	dispatcher Enqueuer
	mu         sync.Mutex
}

func NewRescanner(scanner *Scanner, dispatcher Enqueuer) *Rescanner {
	return &Rescanner{scanner: scanner, dispatcher: dispatcher}
}

// Rescan scans the invoice directory and enqueues every unregistered file.
// Returns (nil, nil) when a sweep is already in flight.
func (r *Rescanner) Rescan(ctx context.Context) (*RescanResult, error) {
	if !r.mu.TryLock() {
		log.Debug().Msg("rescan already in progress, skipped")
		return nil, nil
	}
	defer r.mu.Unlock()

	scheduled, skipped, err := r.scanner.Scan(ctx)
	if err != nil {
		return nil, err
	}

	for _, path := range scheduled {
		if err := r.dispatcher.EnqueueFile(ctx, path); err != nil {
			return nil, err
		}
	}

	log.Info().Int("scheduled", len(scheduled)).Int("skipped", skipped).Msg("rescan queued")
	return &RescanResult{Scheduled: len(scheduled), Skipped: skipped}, nil
}
