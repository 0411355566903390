package scheduler

import (
	"io"
	"sync"

	"github.com/go-co-op/gocron/v2"
	"gopkg.in/natefinch/lumberjack.v2"
)

// jobEntry is a registered job with its schedule, statistics, output and
// overlap guard.
type jobEntry struct {
	job      Job
	schedule ScheduleConfiguration
	metadata *JobMetadata

	// output is nil when the job has no output file.
	output *lumberjack.Logger

	mu      sync.Mutex
	running bool

	gocronJob gocron.Job
}

func (e *jobEntry) writer() io.Writer {
	if e.output == nil {
		return io.Discard
	}
	return e.output
}

// tryLock reports false if the job is already running.
func (e *jobEntry) tryLock() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return false
	}
	e.running = true
	return true
}

func (e *jobEntry) unlock() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.running = false
}

func newOutput(path string) *lumberjack.Logger {
	if path == "" {
		return nil
	}
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
	}
}
