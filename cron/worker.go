package cron

import (
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// StartWorker runs the asynq worker for follow-up tasks in the background,
// retrying start-up with a growing delay.
func StartWorker(opt asynq.RedisClientOpt, mux *asynq.ServeMux, logger *zap.Logger) *asynq.Server {
	srv := asynq.NewServer(
		opt,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
			RetryDelayFunc: func(n int, _ error, _ *asynq.Task) time.Duration {
				return time.Duration(1<<uint(n)) * time.Second
			},
		},
	)

	go func() {
		logger.Info("Starting follow-up worker")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			err := srv.Run(mux)
			if err == nil {
				return
			}
			logger.Error("Follow-up worker failed to start",
				zap.Int("attempt", attempts), zap.Int("maxAttempts", maxAttempts), zap.Error(err))
			if attempts == maxAttempts {
				logger.Error("Follow-up worker gave up; falling back to the periodic sweep")
				return
			}
			time.Sleep(time.Duration(attempts*2) * time.Second)
		}
	}()
	return srv
}
