package scheduler

import (
	"context"
	"io"
	"time"
)

// JobRegistrar schedules jobs under unique identifiers. Invalid parameters
// and duplicate identifiers are rejected at registration time.
type JobRegistrar interface {
	// FixedRate runs job every interval.
	FixedRate(jobID string, job Job, interval time.Duration) error

	// DailyAt runs job once a day at the hour and minute of localTime.
	DailyAt(jobID string, job Job, localTime time.Time) error

	// Cron runs job on a five-field cron expression and appends its output to
	// the output file, which may be empty.
	Cron(jobID, expr, output string, job Job) error

	// RegisterCron is Cron for plain functions writing to an io.Writer.
	RegisterCron(jobID, expr, output string, run func(ctx context.Context, out io.Writer) error) error
}

var _ JobRegistrar = (*Scheduler)(nil)
