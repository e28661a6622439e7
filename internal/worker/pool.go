package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const QueueCloseReport = "jobs:close_report"

// Job is the generic envelope for all async tasks.
type Job struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// CloseReportJob carries everything the close-report mail needs. Amounts
// travel as strings so the payload round-trips without decimal precision loss.
type CloseReportJob struct {
	SessionID     string `json:"session_id"`
	Drawer        int    `json:"drawer"`
	OperatorName  string `json:"operator_name"`
	CountedAmount string `json:"counted_amount"`
	Balance       string `json:"balance"`
	CloseDelta    string `json:"close_delta"`
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// EnqueueCloseReport pushes a session close report job to Redis.
func (d *Dispatcher) EnqueueCloseReport(ctx context.Context, payload CloseReportJob) error {
	return d.enqueue(ctx, QueueCloseReport, "close_report", payload)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	job := Job{Type: jobType, Payload: data}
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queue, encoded).Err()
}

// WorkerHandlers bundles the concrete job handlers wired at the composition root.
type WorkerHandlers struct {
	CloseReport *CloseReportWorker
}

// StartWorkerPool launches numWorkers goroutines consuming the job queues.
// Each goroutine blocks on BRPOP — zero CPU when idle.
func StartWorkerPool(ctx context.Context, rdb *redis.Client, handlers *WorkerHandlers, numWorkers int) {
	for i := 0; i < numWorkers; i++ {
		go runWorker(ctx, rdb, handlers, i)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func runWorker(ctx context.Context, rdb *redis.Client, handlers *WorkerHandlers, id int) {
	queues := []string{QueueCloseReport}
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop — waits up to 5s then loops to check ctx
			result, err := rdb.BRPop(ctx, 5*time.Second, queues...).Result()
			if err != nil {
				continue // timeout or context cancelled
			}
			if len(result) < 2 {
				continue
			}
			processJob(ctx, handlers, result[0], result[1])
		}
	}
}

func processJob(ctx context.Context, handlers *WorkerHandlers, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		return
	}

	switch job.Type {
	case "close_report":
		var payload CloseReportJob
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			log.Error().Err(err).Msg("failed to unmarshal close report payload")
			return
		}
		if err := handlers.CloseReport.Process(ctx, payload); err != nil {
			log.Error().Err(err).Str("session_id", payload.SessionID).Msg("close report job failed")
		}
	default:
		log.Warn().Str("type", job.Type).Str("queue", queue).Msg("unknown job type discarded")
	}
}
