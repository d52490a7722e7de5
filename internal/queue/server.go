package queue

import (
	"time"

	"givehub/internal/config"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
)

// RetryDelay computes the exponential backoff between delivery attempts:
// base, 2*base, 4*base, ... for retry counts 0, 1, 2, ...
func RetryDelay(base time.Duration) asynq.RetryDelayFunc {
	return func(n int, err error, task *asynq.Task) time.Duration {
		return base << uint(n)
	}
}

// NewServer builds the queue consumer. Jobs that exhaust their retries are
// archived by asynq rather than dropped, so failed donations stay available
// for manual reconciliation.
func NewServer(redis asynq.RedisConnOpt, cfg *config.Config) *asynq.Server {
	return asynq.NewServer(redis, asynq.Config{
		Concurrency: cfg.QueueConcurrency,
		Queues: map[string]int{
			QueueDonations:     1,
			QueueNotifications: 1,
		},
		RetryDelayFunc: RetryDelay(cfg.QueueRetryBase),
		Logger:         logrus.StandardLogger(),
	})
}
