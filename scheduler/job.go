package scheduler

import (
	"context"
	"io"

	"github.com/gaborage/pagebricks/logger"
)

// Trigger types reported by JobContext.TriggerType.
const (
	TriggerScheduled = "scheduled"
	TriggerManual    = "manual"
)

// Job is a unit of work executed on a schedule. The scheduler never runs two
// executions of the same job at once.
type Job interface {
	// Execute performs the work. A returned error or a panic marks the
	// execution as failed.
	Execute(ctx JobContext) error
}

// JobFunc adapts a function to Job.
type JobFunc func(ctx JobContext) error

// Execute implements Job.
func (f JobFunc) Execute(ctx JobContext) error { return f(ctx) }

// JobContext carries execution metadata. It is canceled on shutdown.
type JobContext interface {
	context.Context

	JobID() string
	// TriggerType is "scheduled" or "manual".
	TriggerType() string
	// Logger has the job ID and trigger type pre-populated.
	Logger() logger.Logger
	// Output is the job's output file, or io.Discard when none was configured.
	Output() io.Writer
}

type jobContextImpl struct {
	context.Context //nolint:containedctx // JobContext is a context
	jobID           string
	triggerType     string
	logger          logger.Logger
	output          io.Writer
}

func newJobContext(ctx context.Context, jobID, triggerType string, log logger.Logger, output io.Writer) JobContext {
	if log == nil {
		log = logger.Nop()
	}
	if output == nil {
		output = io.Discard
	}
	return &jobContextImpl{
		Context:     ctx,
		jobID:       jobID,
		triggerType: triggerType,
		logger: log.WithFields(map[string]any{
			"jobID":       jobID,
			"triggerType": triggerType,
		}),
		output: output,
	}
}

func (ctx *jobContextImpl) JobID() string         { return ctx.jobID }
func (ctx *jobContextImpl) TriggerType() string   { return ctx.triggerType }
func (ctx *jobContextImpl) Logger() logger.Logger { return ctx.logger }
func (ctx *jobContextImpl) Output() io.Writer     { return ctx.output }
