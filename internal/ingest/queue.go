package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// QueueIngest is the redis list backing the ingestion work queue.
const QueueIngest = "jobs:ingest"

// FileJob is one unit of ingestion work.
type FileJob struct {
	Path string `json:"path"`
}

// Enqueuer schedules files for ingestion. Satisfied by Dispatcher; tests
// substitute an in-memory recorder.
type Enqueuer interface {
	EnqueueFile(ctx context.Context, path string) error
}

// Dispatcher pushes file jobs onto the redis queue.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// EnqueueFile schedules a file for ingestion.
func (d *Dispatcher) EnqueueFile(ctx context.Context, path string) error {
	payload, err := json.Marshal(FileJob{Path: path})
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, QueueIngest, payload).Err()
}

// StartWorkerPool launches n workers consuming the ingestion queue. Each
// worker blocks on BRPOP with a short timeout so it can notice context
// cancellation between jobs. Workers run until ctx is done.
func StartWorkerPool(ctx context.Context, rdb *redis.Client, pipeline *Pipeline, n int) {
	for i := 0; i < n; i++ {
		go worker(ctx, rdb, pipeline, i)
	}
	log.Info().Int("workers", n).Msg("ingestion worker pool started")
}

func worker(ctx context.Context, rdb *redis.Client, pipeline *Pipeline, id int) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res, err := rdb.BRPop(ctx, 5*time.Second, QueueIngest).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) {
				continue
			}
			log.Error().Err(err).Int("worker", id).Msg("queue pop failed")
			time.Sleep(time.Second)
			continue
		}
		// BRPOP returns [key, value].
		if len(res) < 2 {
			continue
		}

		var job FileJob
		if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
			log.Error().Err(err).Int("worker", id).Str("payload", res[1]).
				Msg("malformed ingestion job discarded")
			continue
		}

		outcome, err := pipeline.ProcessFile(ctx, job.Path)
		if err != nil {
			log.Error().Err(err).Int("worker", id).Str("file", job.Path).
				Str("outcome", string(outcome)).Msg("ingestion failed")
		}
	}
}
