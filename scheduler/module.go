// Package scheduler runs periodic jobs on gocron. Other packages register
// their jobs when the scheduler publishes its initialization hook.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/gaborage/pagebricks/events"
	"github.com/gaborage/pagebricks/logger"
)

const (
	defaultShutdownTimeout = 30 * time.Second
	tracerName             = "pagebricks/scheduler"
)

// InitializedEvent is the payload of the scheduler.initialized hook.
// Listeners register their jobs through the embedded Scheduler.
type InitializedEvent struct {
	*Scheduler
}

// Options configures a Scheduler.
type Options struct {
	Logger    logger.Logger
	Publisher events.Publisher
	// ShutdownTimeout bounds how long Shutdown waits for running jobs.
	ShutdownTimeout time.Duration
	// Location is the time zone of daily and cron schedules. Nil means local time.
	Location *time.Location
}

// Scheduler owns a gocron scheduler, created on first registration.
type Scheduler struct {
	logger          logger.Logger
	publisher       events.Publisher
	shutdownTimeout time.Duration
	location        *time.Location
	tracer          trace.Tracer

	scheduler gocron.Scheduler
	jobs      map[string]*jobEntry
	started   bool
	mu        sync.RWMutex

	shutdownCtx    context.Context
	shutdownCancel context.CancelFunc
	wg             sync.WaitGroup
}

// New creates a scheduler. Nothing runs until Start.
func New(opts Options) *Scheduler {
	shutdownCtx, shutdownCancel := context.WithCancel(context.Background())

	s := &Scheduler{
		logger:          opts.Logger,
		publisher:       opts.Publisher,
		shutdownTimeout: opts.ShutdownTimeout,
		location:        opts.Location,
		tracer:          otel.Tracer(tracerName),
		jobs:            make(map[string]*jobEntry),
		shutdownCtx:     shutdownCtx,
		shutdownCancel:  shutdownCancel,
	}
	if s.logger == nil {
		s.logger = logger.Nop()
	}
	if s.publisher == nil {
		s.publisher = events.Nop{}
	}
	if s.shutdownTimeout <= 0 {
		s.shutdownTimeout = defaultShutdownTimeout
	}
	if s.location == nil {
		s.location = time.Local
	}
	return s
}

// Start publishes scheduler.initialized so listeners can register their jobs,
// then starts running schedules.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()
	if started {
		return nil
	}

	if _, err := s.publisher.Dispatch(ctx, events.SchedulerInitialized, &InitializedEvent{Scheduler: s}); err != nil {
		return fmt.Errorf("scheduler: initialization hook failed: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}
	if err := s.ensureSchedulerInitialized(); err != nil {
		return err
	}
	s.scheduler.Start()
	s.started = true

	s.logger.Info().Int("jobs", len(s.jobs)).Msg("Scheduler started")
	return nil
}

// Shutdown stops triggering jobs and waits for running ones up to the
// shutdown timeout.
func (s *Scheduler) Shutdown() error {
	s.mu.Lock()
	sched := s.scheduler
	entries := make([]*jobEntry, 0, len(s.jobs))
	for _, e := range s.jobs {
		entries = append(entries, e)
	}
	s.mu.Unlock()

	s.shutdownCancel()

	var errs []error
	if sched != nil {
		if err := sched.Shutdown(); err != nil {
			errs = append(errs, fmt.Errorf("scheduler: shutdown failed: %w", err))
		}
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(s.shutdownTimeout):
		s.logger.Warn().Dur("timeout", s.shutdownTimeout).Msg("Shutdown timeout reached, some jobs may not have completed")
		errs = append(errs, fmt.Errorf("scheduler: shutdown timeout after %v", s.shutdownTimeout))
	}

	for _, e := range entries {
		if e.output != nil {
			if err := e.output.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// must be called with s.mu held
func (s *Scheduler) ensureSchedulerInitialized() error {
	if s.scheduler != nil {
		return nil
	}
	sched, err := gocron.NewScheduler(gocron.WithLocation(s.location))
	if err != nil {
		return fmt.Errorf("scheduler: failed to create gocron scheduler: %w", err)
	}
	s.scheduler = sched
	return nil
}

// FixedRate implements JobRegistrar.
func (s *Scheduler) FixedRate(jobID string, job Job, interval time.Duration) error {
	return s.registerJob(jobID, job, ScheduleConfiguration{Type: ScheduleTypeFixedRate, Interval: interval}, "")
}

// DailyAt implements JobRegistrar.
func (s *Scheduler) DailyAt(jobID string, job Job, localTime time.Time) error {
	hour, minute, _ := localTime.Clock()
	return s.registerJob(jobID, job, ScheduleConfiguration{Type: ScheduleTypeDaily, Hour: hour, Minute: minute}, "")
}

// Cron implements JobRegistrar.
func (s *Scheduler) Cron(jobID, expr, output string, job Job) error {
	return s.registerJob(jobID, job, ScheduleConfiguration{Type: ScheduleTypeCron, Expression: expr}, output)
}

// RegisterCron implements JobRegistrar.
func (s *Scheduler) RegisterCron(jobID, expr, output string, run func(ctx context.Context, out io.Writer) error) error {
	return s.Cron(jobID, expr, output, JobFunc(func(ctx JobContext) error {
		return run(ctx, ctx.Output())
	}))
}

func (s *Scheduler) registerJob(jobID string, job Job, schedule ScheduleConfiguration, output string) error {
	if jobID == "" {
		return &ValidationError{Field: "jobID", Message: "must not be empty", Action: "Choose a unique identifier"}
	}
	if err := schedule.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[jobID]; exists {
		return &ValidationError{
			Field:   "jobID",
			Message: fmt.Sprintf("'%s' already registered", jobID),
			Action:  "Choose a unique identifier",
			Err:     ErrDuplicateJob,
		}
	}
	if err := s.ensureSchedulerInitialized(); err != nil {
		return err
	}

	entry := &jobEntry{
		job:      job,
		schedule: schedule,
		output:   newOutput(output),
		metadata: &JobMetadata{
			JobID:          jobID,
			ScheduleType:   string(schedule.Type),
			CronExpression: schedule.ToCronExpression(),
			HumanReadable:  schedule.ToHumanReadable(),
			Output:         output,
		},
	}

	gocronJob, err := s.scheduler.NewJob(
		schedule.definition(),
		gocron.NewTask(s.createJobWrapper(entry)),
		gocron.WithName(jobID),
	)
	if err != nil {
		if schedule.Type == ScheduleTypeCron {
			return &ValidationError{
				Field:   "expression",
				Message: fmt.Sprintf("'%s' is not a valid cron expression", schedule.Expression),
				Action:  "Use a five-field cron expression such as \"0 3 * * *\"",
				Err:     errors.Join(ErrInvalidCron, err),
			}
		}
		return fmt.Errorf("scheduler: failed to schedule job '%s': %w", jobID, err)
	}
	entry.gocronJob = gocronJob
	s.jobs[jobID] = entry

	s.logger.Info().
		Str("jobID", jobID).
		Str("scheduleType", string(schedule.Type)).
		Str("cron", entry.metadata.CronExpression).
		Msg("Job registered successfully")
	return nil
}

func (s *Scheduler) createJobWrapper(entry *jobEntry) func() {
	return func() {
		select {
		case <-s.shutdownCtx.Done():
			s.logger.Warn().Str("jobID", entry.metadata.JobID).Msg("Job trigger skipped - scheduler is shutting down")
			return
		default:
		}
		_ = s.run(s.shutdownCtx, entry, TriggerScheduled)
	}
}

// Trigger runs a registered job now and returns its error. Overlapping
// triggers are skipped.
func (s *Scheduler) Trigger(ctx context.Context, jobID string) error {
	s.mu.RLock()
	entry, ok := s.jobs[jobID]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("scheduler: %w: %s", ErrJobNotFound, jobID)
	}
	if s.shutdownCtx.Err() != nil {
		return errors.New("scheduler: shutting down")
	}
	return s.run(ctx, entry, TriggerManual)
}

func (s *Scheduler) run(parent context.Context, entry *jobEntry, trigger string) error {
	if !entry.tryLock() {
		s.logger.Warn().
			Str("jobID", entry.metadata.JobID).
			Str("triggerType", trigger).
			Msg("Job trigger skipped - job is already running")
		entry.metadata.incrementSkipped()
		return nil
	}
	s.wg.Add(1)
	defer func() {
		entry.unlock()
		s.wg.Done()
	}()

	ctx, cancel := context.WithCancel(parent)
	defer cancel()
	stop := context.AfterFunc(s.shutdownCtx, cancel)
	defer stop()

	ctx, span := s.tracer.Start(ctx, "job "+entry.metadata.JobID, trace.WithAttributes(
		attribute.String("job.id", entry.metadata.JobID),
		attribute.String("job.trigger", trigger),
	))
	defer span.End()

	jobCtx := newJobContext(ctx, entry.metadata.JobID, trigger, s.logger, entry.writer())
	err := s.executeJob(entry, jobCtx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (s *Scheduler) executeJob(entry *jobEntry, ctx JobContext) (err error) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().
				Str("jobID", entry.metadata.JobID).
				Interface("panic", r).
				Msg("Job panicked - recovered and marked as failed")
			entry.metadata.record(StatusFailure)
			err = fmt.Errorf("scheduler: job %s panicked: %v", entry.metadata.JobID, r)
		}
	}()

	err = entry.job.Execute(ctx)
	duration := time.Since(start)

	if err != nil {
		s.logger.Error().
			Err(err).
			Str("jobID", entry.metadata.JobID).
			Dur("duration", duration).
			Msg("Job execution failed")
		entry.metadata.record(StatusFailure)
		return err
	}
	s.logger.Info().
		Str("jobID", entry.metadata.JobID).
		Dur("duration", duration).
		Msg("Job execution completed successfully")
	entry.metadata.record(StatusSuccess)
	return nil
}

// Jobs lists the registered jobs ordered by ID.
func (s *Scheduler) Jobs() []*JobMetadata {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*JobMetadata, 0, len(s.jobs))
	for _, e := range s.jobs {
		snap := e.metadata.snapshot()
		if s.started && e.gocronJob != nil {
			if next, err := e.gocronJob.NextRun(); err == nil && !next.IsZero() {
				snap.NextExecutionTime = &next
			}
		}
		out = append(out, snap)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JobID < out[j].JobID })
	return out
}
