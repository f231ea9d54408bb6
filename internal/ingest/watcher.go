package ingest

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// Watcher keeps the pipeline fed: an initial sweep on start, filesystem
// create notifications for immediate pickup, and a periodic poll sweep as
// a safety net. Network shares often deliver no fsnotify events at all, so
// when the watch cannot be established the poll loop carries the load alone.
type Watcher struct {
	dir          string
	scanner      *Scanner
	dispatcher   Enqueuer
	rescanner    *Rescanner
	pollInterval time.Duration
}

func NewWatcher(dir string, scanner *Scanner, dispatcher Enqueuer, rescanner *Rescanner, pollInterval time.Duration) *Watcher {
	return &Watcher{
		dir:          dir,
		scanner:      scanner,
		dispatcher:   dispatcher,
		rescanner:    rescanner,
		pollInterval: pollInterval,
	}
}

// Run blocks until ctx is done.
func (w *Watcher) Run(ctx context.Context) {
	if _, err := w.rescanner.Rescan(ctx); err != nil {
		log.Error().Err(err).Msg("initial invoice sweep failed")
	}

	events := w.startNotify(ctx)

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case path, ok := <-events:
			if !ok {
				events = nil // notify watcher died; poll loop keeps going
				continue
			}
			if err := w.dispatcher.EnqueueFile(ctx, path); err != nil {
				log.Error().Err(err).Str("file", path).Msg("enqueue from notify failed")
			}
		case <-ticker.C:
			if _, err := w.rescanner.Rescan(ctx); err != nil {
				log.Error().Err(err).Msg("poll sweep failed")
			}
		}
	}
}

// startNotify sets up the fsnotify watch and returns a channel of new
// invoice file paths. Returns nil when the watch cannot be established.
func (w *Watcher) startNotify(ctx context.Context) <-chan string {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		log.Warn().Err(err).Msg("fsnotify unavailable, polling only")
		return nil
	}
	if err := fw.Add(w.dir); err != nil {
		log.Warn().Err(err).Str("dir", w.dir).Msg("cannot watch invoice directory, polling only")
		fw.Close()
		return nil
	}

	out := make(chan string)
	go func() {
		defer fw.Close()
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-fw.Events:
				if !ok {
					return
				}
				if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
					continue
				}
				if !w.scanner.ValidFileName(filepath.Base(ev.Name)) {
					continue
				}
				select {
				case out <- ev.Name:
				case <-ctx.Done():
					return
				}
			case err, ok := <-fw.Errors:
				if !ok {
					return
				}
				log.Warn().Err(err).Msg("fsnotify error")
			}
		}
	}()

	log.Info().Str("dir", w.dir).Msg("watching invoice directory")
	return out
}
