package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/bizdesk/bizdesk/internal/catalog"
	jobmetrics "github.com/bizdesk/bizdesk/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// Repricer recomputes stored article pricing.
type Repricer interface {
	RepriceAll(ctx context.Context, concurrency int) (catalog.RepriceResult, error)
}

// CatalogRepriceJob refreshes article margins and commissions after the rate
// table changed.
type CatalogRepriceJob struct {
	Catalog     Repricer
	Concurrency int
	Logger      *slog.Logger
	Metrics     *jobmetrics.Metrics
	Timeout     time.Duration
}

// NewCatalogRepriceJob wires dependencies for the reprice handler.
func NewCatalogRepriceJob(repricer Repricer, concurrency int, logger *slog.Logger, metrics *jobmetrics.Metrics) *CatalogRepriceJob {
	return &CatalogRepriceJob{
		Catalog:     repricer,
		Concurrency: concurrency,
		Logger:      logger,
		Metrics:     metrics,
		Timeout:     5 * time.Minute,
	}
}

// Handle processes catalog reprice tasks.
func (j *CatalogRepriceJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Catalog == nil {
		return errors.New("catalog reprice: handler not configured")
	}
	tracker := j.metrics().Track(TaskCatalogReprice)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	var payload CatalogRepricePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		resultErr = fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
		return resultErr
	}

	logger := j.logger().With(slog.String("reason", payload.Reason), slog.String("request_id", payload.RequestID))
	logger.Info("starting catalog reprice")
	start := time.Now()

	if j.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.Timeout)
		defer cancel()
	}
	result, err := j.Catalog.RepriceAll(ctx, j.Concurrency)
	if err != nil {
		resultErr = err
		logger.Error("catalog reprice", slog.Any("error", err))
		return resultErr
	}
	j.metrics().AddItems(TaskCatalogReprice, result.Updated)

	logger.Info("completed catalog reprice", slog.Int("scanned", result.Scanned),
		slog.Int("updated", result.Updated), slog.Duration("duration", time.Since(start)))
	return resultErr
}

func (j *CatalogRepriceJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskCatalogReprice))
	}
	return slog.Default().With(slog.String("job", TaskCatalogReprice))
}

func (j *CatalogRepriceJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
