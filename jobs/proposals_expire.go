package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/bizdesk/bizdesk/internal/jobs"
)

// Expirer closes proposals past their expiry date.
type Expirer interface {
	ExpireOverdue(ctx context.Context) (int64, error)
}

// ProposalsExpireJob runs the daily proposal expiry sweep.
type ProposalsExpireJob struct {
	Proposals Expirer
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
}

// NewProposalsExpireJob wires dependencies for the expiry handler.
func NewProposalsExpireJob(proposals Expirer, logger *slog.Logger, metrics *jobmetrics.Metrics) *ProposalsExpireJob {
	return &ProposalsExpireJob{Proposals: proposals, Logger: logger, Metrics: metrics}
}

// Handle processes proposal expiry tasks.
func (j *ProposalsExpireJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Proposals == nil {
		return errors.New("proposals expire: handler not configured")
	}
	tracker := j.metrics().Track(TaskProposalsExpire)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	var payload ProposalsExpirePayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			resultErr = fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
			return resultErr
		}
	}

	logger := j.logger().With(slog.String("source", payload.Source))
	expired, err := j.Proposals.ExpireOverdue(ctx)
	if err != nil {
		resultErr = err
		logger.Error("expire proposals", slog.Any("error", err))
		return resultErr
	}
	j.metrics().AddItems(TaskProposalsExpire, int(expired))
	logger.Info("expired overdue proposals", slog.Int64("count", expired))
	return resultErr
}

func (j *ProposalsExpireJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskProposalsExpire))
	}
	return slog.Default().With(slog.String("job", TaskProposalsExpire))
}

func (j *ProposalsExpireJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
