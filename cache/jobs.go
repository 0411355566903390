package cache

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gaborage/pagebricks/events"
)

// Job identifiers registered with the scheduler.
const (
	JobPurge = "cache-purge"
	JobClear = "cache-clear"
)

// JobRegistrar is the slice of the scheduler the cache needs. Every job gets
// a cron expression and a file its output is appended to.
type JobRegistrar interface {
	RegisterCron(jobID, expr, output string, run func(ctx context.Context, out io.Writer) error) error
}

// JobSettings parameterizes the periodic cache jobs.
type JobSettings struct {
	PurgeAt   string
	ClearAt   string
	ClearType ClearCategory
	LogsDir   string
}

// RegisterJobs adds the purge and clear jobs to r.
func (c *Cache) RegisterJobs(r JobRegistrar, s JobSettings) error {
	if s.PurgeAt != "" {
		if err := r.RegisterCron(JobPurge, s.PurgeAt, jobOutput(s.LogsDir, JobPurge), c.PurgeJob); err != nil {
			return fmt.Errorf("register %s: %w", JobPurge, err)
		}
	}
	if s.ClearAt != "" {
		category := s.ClearType
		run := func(ctx context.Context, out io.Writer) error {
			return c.ClearJob(ctx, out, category)
		}
		if err := r.RegisterCron(JobClear, s.ClearAt, jobOutput(s.LogsDir, JobClear), run); err != nil {
			return fmt.Errorf("register %s: %w", JobClear, err)
		}
	}
	return nil
}

// SubscribeScheduler registers the cache jobs as soon as the scheduler
// publishes its initialization hook.
func (c *Cache) SubscribeScheduler(d *events.Dispatcher, s JobSettings) {
	d.AddListener(events.SchedulerInitialized, func(_ context.Context, e *events.Event) error {
		r, ok := e.Payload.(JobRegistrar)
		if !ok {
			return fmt.Errorf("unexpected %s payload %T", events.SchedulerInitialized, e.Payload)
		}
		return c.RegisterJobs(r, s)
	}, 0)
}

// PurgeJob removes stale cache generations and reports the count to out.
func (c *Cache) PurgeJob(_ context.Context, out io.Writer) error {
	n, err := c.PurgeOldCache()
	fmt.Fprintf(out, "Purged %d old cache folders...\n", n)
	return err
}

// ClearJob clears category, then invalidates, writing the report to out.
func (c *Cache) ClearJob(ctx context.Context, out io.Writer, category ClearCategory) error {
	lines := c.Clear(ctx, category)
	if err := c.Invalidate(); err != nil {
		lines = append(lines, "Error: "+err.Error())
	}
	_, err := io.WriteString(out, strings.Join(lines, "\n")+"\n")
	return err
}

func jobOutput(dir, name string) string {
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, name+".out")
}
