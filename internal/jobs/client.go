package jobs

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivertype"

	"github.com/quizzy-ai/quizzy/internal/config"
	"github.com/quizzy-ai/quizzy/pkg/metrics"
)

type Client struct {
	*river.Client[pgx.Tx]
}

// NewInsertOnlyClient returns a client that can enqueue and inspect jobs but
// runs no workers. Used by the API process.
func NewInsertOnlyClient(pool *pgxpool.Pool) (*Client, error) {
	riverClient, err := river.NewClient(riverpgxv5.New(pool), &river.Config{})
	if err != nil {
		return nil, err
	}
	return &Client{Client: riverClient}, nil
}

// NewWorkerClient returns a client configured to work the given queues. Used
// by the worker process; the caller starts it with Start.
func NewWorkerClient(cfg *config.Config, pool *pgxpool.Pool, workers *river.Workers, queues map[string]river.QueueConfig, name string) (*Client, error) {
	riverClient, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		ID:                name,
		Queues:            queues,
		Workers:           workers,
		FetchCooldown:     time.Duration(cfg.Service.Queue.FetchCooldownMs) * time.Millisecond,
		FetchPollInterval: time.Duration(cfg.Service.Queue.FetchPollMs) * time.Millisecond,
	})
	if err != nil {
		return nil, err
	}
	return &Client{Client: riverClient}, nil
}

func (c *Client) InsertPDFJob(ctx context.Context, args PDFArgs) (int64, error) {
	result, err := c.Insert(ctx, args, &river.InsertOpts{
		Queue:       PDFQueue,
		MaxAttempts: MaxJobRetries,
	})
	if err != nil {
		return 0, err
	}
	metrics.IncreaseJobsEnqueued(PDFQueue)
	return result.Job.ID, nil
}

func (c *Client) InsertQuizJob(ctx context.Context, args QuizArgs) (int64, error) {
	result, err := c.Insert(ctx, args, &river.InsertOpts{
		Queue:       QuizQueue,
		MaxAttempts: MaxJobRetries,
	})
	if err != nil {
		return 0, err
	}
	metrics.IncreaseJobsEnqueued(QuizQueue)
	return result.Job.ID, nil
}

// QueueCounts returns the number of jobs per state for one queue. Terminal
// states are capped by the listing page size, which is fine for an
// informational endpoint.
func (c *Client) QueueCounts(ctx context.Context, queue string) (map[string]int, error) {
	params := river.NewJobListParams().Queues(queue).First(1000)
	result, err := c.JobList(ctx, params)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, job := range result.Jobs {
		counts[string(job.State)]++
	}
	return counts, nil
}

// PendingCount returns how many jobs in the queue still await or are under
// execution.
func (c *Client) PendingCount(ctx context.Context, queue string) (int, error) {
	counts, err := c.QueueCounts(ctx, queue)
	if err != nil {
		return 0, err
	}
	pending := 0
	for _, state := range []rivertype.JobState{
		rivertype.JobStateAvailable,
		rivertype.JobStateScheduled,
		rivertype.JobStatePending,
		rivertype.JobStateRunning,
		rivertype.JobStateRetryable,
	} {
		pending += counts[string(state)]
	}
	return pending, nil
}
