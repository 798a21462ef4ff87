package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/vistara/donation-dashboard/internal/dashboard"
	jobmetrics "github.com/vistara/donation-dashboard/internal/jobs"
	"github.com/vistara/donation-dashboard/internal/upstream"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// WarmupFetcher is the cached upstream client the warmup job drives.
type WarmupFetcher interface {
	Dashboard(ctx context.Context, period dashboard.Period) ([]byte, error)
	InsightsComplete(ctx context.Context) ([]byte, error)
	Insights(ctx context.Context) ([]byte, error)
	Forecast(ctx context.Context) ([]byte, error)
}

// WarmupJob pulls every dashboard period and the insights payloads through
// the upstream cache so the first request after a cold start is a hit.
type WarmupJob struct {
	Fetcher WarmupFetcher
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	Timeout time.Duration
	clock   func() time.Time
}

// NewWarmupJob wires dependencies for the warmup handler.
func NewWarmupJob(fetcher WarmupFetcher, logger *slog.Logger, metrics *jobmetrics.Metrics) *WarmupJob {
	return &WarmupJob{
		Fetcher: fetcher,
		Logger:  logger,
		Metrics: metrics,
		Timeout: 20 * time.Second,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes warmup tasks. Individual endpoint failures are logged
// and returned together so asynq retries the run.
func (j *WarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Fetcher == nil {
		return errors.New("dashboard warmup: handler not configured")
	}
	var payload WarmupPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("dashboard warmup: decode payload: %v: %w", err, asynq.SkipRetry)
		}
	}
	periods, err := payload.periods()
	if err != nil {
		return fmt.Errorf("dashboard warmup: %v: %w", err, asynq.SkipRetry)
	}

	tracker := j.metrics().Track(TaskDashboardWarmup)
	logger := j.logger()
	start := j.now()
	logger.Info("starting dashboard warmup", slog.Int("periods", len(periods)))

	var errs []error
	for _, period := range periods {
		if err := j.warm(ctx, upstream.EndpointDashboard, func(ctx context.Context) ([]byte, error) {
			return j.Fetcher.Dashboard(ctx, period)
		}); err != nil {
			logger.Warn("warm dashboard period", slog.String("period", period.String()), slog.Any("error", err))
			errs = append(errs, fmt.Errorf("period %s: %w", period, err))
		}
	}
	if !payload.SkipInsights {
		if err := j.warmInsights(ctx); err != nil {
			logger.Warn("warm insights", slog.Any("error", err))
			errs = append(errs, err)
		}
	}

	resultErr := errors.Join(errs...)
	logger.Info("completed dashboard warmup", slog.Int("failures", len(errs)), slog.Duration("duration", j.now().Sub(start)))
	return tracker.End(resultErr)
}

// warmInsights mirrors the read path: the legacy pair is only fetched when
// the combined endpoint is unavailable.
func (j *WarmupJob) warmInsights(ctx context.Context) error {
	err := j.warm(ctx, upstream.EndpointInsightsComplete, j.Fetcher.InsightsComplete)
	if err == nil {
		return nil
	}
	if !errors.Is(err, upstream.ErrUnexpectedStatus) {
		return fmt.Errorf("insights complete: %w", err)
	}
	var errs []error
	if err := j.warm(ctx, upstream.EndpointInsights, j.Fetcher.Insights); err != nil {
		errs = append(errs, fmt.Errorf("insights: %w", err))
	}
	if err := j.warm(ctx, upstream.EndpointForecast, j.Fetcher.Forecast); err != nil {
		errs = append(errs, fmt.Errorf("forecast: %w", err))
	}
	return errors.Join(errs...)
}

func (j *WarmupJob) warm(ctx context.Context, endpoint string, fetch func(context.Context) ([]byte, error)) error {
	if j.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.Timeout)
		defer cancel()
	}
	if _, err := fetch(ctx); err != nil {
		j.metrics().AddWarmed(endpoint, "error", 1)
		return err
	}
	j.metrics().AddWarmed(endpoint, "ok", 1)
	return nil
}

func (p WarmupPayload) periods() ([]dashboard.Period, error) {
	if len(p.Periods) == 0 {
		return dashboard.Periods, nil
	}
	out := make([]dashboard.Period, 0, len(p.Periods))
	for _, raw := range p.Periods {
		period, err := dashboard.ParsePeriod(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, period)
	}
	return out, nil
}

func (j *WarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskDashboardWarmup))
	}
	return slog.Default().With(slog.String("job", TaskDashboardWarmup))
}

func (j *WarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *WarmupJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
