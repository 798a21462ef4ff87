package jobs

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/vistara/donation-dashboard/internal/dashboard"
	jobmetrics "github.com/vistara/donation-dashboard/internal/jobs"
	"github.com/vistara/donation-dashboard/internal/upstream"
)

type hitCounter struct {
	mu   sync.Mutex
	hits map[string]int
}

func (h *hitCounter) add(path string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hits[path]++
}

func (h *hitCounter) get(path string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.hits[path]
}

func newWarmupBackend(t *testing.T, completeStatus int) (*httptest.Server, *hitCounter) {
	t.Helper()
	counter := &hitCounter{hits: map[string]int{}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.Path
		if p := r.URL.Query().Get("period"); p != "" {
			key += "?" + p
		}
		counter.add(key)
		if r.URL.Path == "/api/ai-insights-complete" && completeStatus != http.StatusOK {
			w.WriteHeader(completeStatus)
			return
		}
		_, _ = w.Write([]byte(`{"kpis":{}}`))
	}))
	t.Cleanup(srv.Close)
	return srv, counter
}

func newCachedClient(t *testing.T, baseURL string) *upstream.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	client, err := upstream.NewClient(baseURL, nil, upstream.NewCache(rdb, time.Minute, nil), nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestWarmupPopulatesCache(t *testing.T) {
	srv, counter := newWarmupBackend(t, http.StatusOK)
	client := newCachedClient(t, srv.URL)
	job := NewWarmupJob(client, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))

	task, err := NewWarmupTask(WarmupPayload{})
	if err != nil {
		t.Fatalf("new task: %v", err)
	}
	if err := job.Handle(context.Background(), task); err != nil {
		t.Fatalf("handle: %v", err)
	}
	for _, p := range dashboard.Periods {
		if got := counter.get("/api/dashboard?" + p.String()); got != 1 {
			t.Fatalf("expected one fetch for %s, got %d", p, got)
		}
	}
	if counter.get("/api/ai-insights") != 0 {
		t.Fatal("legacy endpoints must not be warmed when the combined payload is available")
	}

	if _, err := client.Dashboard(context.Background(), dashboard.PeriodWeekly); err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if got := counter.get("/api/dashboard?weekly"); got != 1 {
		t.Fatalf("expected cached weekly payload, backend hit %d times", got)
	}
}

func TestWarmupFallsBackToLegacyPair(t *testing.T) {
	srv, counter := newWarmupBackend(t, http.StatusNotFound)
	client := newCachedClient(t, srv.URL)
	job := NewWarmupJob(client, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))

	task, _ := NewWarmupTask(WarmupPayload{Periods: []string{"monthly"}})
	if err := job.Handle(context.Background(), task); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if counter.get("/api/ai-insights") != 1 || counter.get("/api/forecast") != 1 {
		t.Fatalf("expected legacy pair to be warmed, got %+v", counter.hits)
	}
	if counter.get("/api/dashboard?weekly") != 0 {
		t.Fatal("only the requested period should be warmed")
	}
}

func TestWarmupReportsFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()
	client := newCachedClient(t, srv.URL)
	job := NewWarmupJob(client, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))

	task, _ := NewWarmupTask(WarmupPayload{Periods: []string{"weekly"}, SkipInsights: true})
	err := job.Handle(context.Background(), task)
	if !errors.Is(err, upstream.ErrUnexpectedStatus) {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestWarmupRejectsBadPayload(t *testing.T) {
	job := NewWarmupJob(&upstream.Client{}, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))

	err := job.Handle(context.Background(), asynq.NewTask(TaskDashboardWarmup, []byte(`{"periods":["daily"]}`)))
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected SkipRetry for unknown period, got %v", err)
	}
	err = job.Handle(context.Background(), asynq.NewTask(TaskDashboardWarmup, []byte(`{`)))
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected SkipRetry for malformed payload, got %v", err)
	}
}

func TestWarmupNotConfigured(t *testing.T) {
	var job *WarmupJob
	if err := job.Handle(context.Background(), asynq.NewTask(TaskDashboardWarmup, nil)); err == nil {
		t.Fatal("expected error from nil job")
	}
}
