package cli

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/hibiken/asynq"

	"github.com/vistara/donation-dashboard/internal/dashboard"
	"github.com/vistara/donation-dashboard/jobs"
)

// Enqueuer submits warmup runs.
type Enqueuer interface {
	EnqueueWarmup(ctx context.Context, payload jobs.WarmupPayload) (*asynq.TaskInfo, error)
}

// QueueInspector reports queue depth.
type QueueInspector interface {
	GetQueueInfo(queue string) (*asynq.QueueInfo, error)
}

// Invalidator drops cached upstream payloads.
type Invalidator interface {
	Bump(ctx context.Context) error
}

// JobsCLI wraps manual management helpers for the warmup queue and payload
// cache.
type JobsCLI struct {
	client    Enqueuer
	inspector QueueInspector
	cache     Invalidator
	stdout    io.Writer
	stderr    io.Writer
}

// NewJobsCLI builds the CLI helpers. Any dependency may be nil; commands
// needing it fail with a clear message.
func NewJobsCLI(client Enqueuer, inspector QueueInspector, cache Invalidator, stdout, stderr io.Writer) *JobsCLI {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}
	return &JobsCLI{client: client, inspector: inspector, cache: cache, stdout: stdout, stderr: stderr}
}

// QueueStats summarises the current queue state.
type QueueStats struct {
	Queue     string `json:"queue"`
	Pending   int    `json:"pending"`
	Active    int    `json:"active"`
	Scheduled int    `json:"scheduled"`
	Retry     int    `json:"retry"`
}

// Run dispatches args ("warmup", "stats" or "invalidate") and returns the
// process exit code.
func (c *JobsCLI) Run(ctx context.Context, args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(c.stderr, "usage: dashboard jobs <warmup|stats|invalidate> [flags]")
		return 2
	}
	var err error
	switch args[0] {
	case "warmup":
		err = c.warmup(ctx, args[1:])
	case "stats":
		err = c.stats(args[1:])
	case "invalidate":
		err = c.invalidate(ctx)
	default:
		fmt.Fprintf(c.stderr, "unknown command %q\n", args[0])
		return 2
	}
	if err != nil {
		fmt.Fprintf(c.stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func (c *JobsCLI) warmup(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("warmup", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	periods := fs.String("periods", "", "comma separated periods (default all)")
	skipInsights := fs.Bool("skip-insights", false, "only warm dashboard payloads")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if c.client == nil {
		return errors.New("jobs cli: client not configured")
	}

	payload := jobs.WarmupPayload{SkipInsights: *skipInsights}
	for _, raw := range strings.Split(*periods, ",") {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		period, err := dashboard.ParsePeriod(raw)
		if err != nil {
			return err
		}
		payload.Periods = append(payload.Periods, period.String())
	}
	info, err := c.client.EnqueueWarmup(ctx, payload)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "enqueued %s (%s)\n", info.ID, info.Queue)
	return nil
}

func (c *JobsCLI) stats(args []string) error {
	fs := flag.NewFlagSet("stats", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	asJSON := fs.Bool("json", false, "print JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if c.inspector == nil {
		return errors.New("jobs cli: inspector not configured")
	}
	info, err := c.inspector.GetQueueInfo(jobs.QueueDefault)
	if err != nil {
		return err
	}
	stats := QueueStats{Queue: jobs.QueueDefault}
	if info != nil {
		stats.Pending = info.Pending
		stats.Active = info.Active
		stats.Scheduled = info.Scheduled
		stats.Retry = info.Retry
	}
	if *asJSON {
		return json.NewEncoder(c.stdout).Encode(stats)
	}
	fmt.Fprintf(c.stdout, "queue=%s pending=%d active=%d scheduled=%d retry=%d\n",
		stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry)
	return nil
}

func (c *JobsCLI) invalidate(ctx context.Context) error {
	if c.cache == nil {
		return errors.New("jobs cli: cache not configured")
	}
	if err := c.cache.Bump(ctx); err != nil {
		return err
	}
	fmt.Fprintln(c.stdout, "payload cache invalidated")
	return nil
}
