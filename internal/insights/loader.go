package insights

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// ErrUnavailable reports that no insight source produced a usable payload.
var ErrUnavailable = errors.New("failed to fetch AI data")

// Fetcher exposes the upstream insight endpoints as raw bodies.
type Fetcher interface {
	InsightsComplete(ctx context.Context) ([]byte, error)
	Insights(ctx context.Context) ([]byte, error)
	Forecast(ctx context.Context) ([]byte, error)
}

// Loader fetches insights from the combined endpoint and falls back to the
// legacy insights and forecast pair.
type Loader struct {
	fetcher Fetcher
	logger  *slog.Logger
	now     func() time.Time
}

// NewLoader builds a Loader.
func NewLoader(fetcher Fetcher, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{fetcher: fetcher, logger: logger, now: time.Now}
}

// WithNow overrides the clock used for generated metadata.
func (l *Loader) WithNow(now func() time.Time) *Loader {
	if l == nil || now == nil {
		return l
	}
	l.now = now
	return l
}

// Load returns a normalised ViewModel. The legacy pair is fetched
// concurrently and only adopted when both calls succeed.
func (l *Loader) Load(ctx context.Context) (ViewModel, error) {
	body, err := l.fetcher.InsightsComplete(ctx)
	if err == nil {
		vm, nerr := Normalize(Source{Complete: body}, l.now())
		if nerr == nil {
			return vm, nil
		}
		err = nerr
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ViewModel{}, ctxErr
	}
	l.logger.Warn("complete insights unavailable, using legacy endpoints", slog.Any("error", err))

	var insightsBody, forecastBody []byte
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		b, err := l.fetcher.Insights(gctx)
		if err != nil {
			return fmt.Errorf("insights: %w", err)
		}
		insightsBody = b
		return nil
	})
	g.Go(func() error {
		b, err := l.fetcher.Forecast(gctx)
		if err != nil {
			return fmt.Errorf("forecast: %w", err)
		}
		forecastBody = b
		return nil
	})
	if err := g.Wait(); err != nil {
		return ViewModel{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	vm, err := Normalize(Source{Insights: insightsBody, Forecast: forecastBody}, l.now())
	if err != nil {
		return ViewModel{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return vm, nil
}
