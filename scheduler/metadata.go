package scheduler

import (
	"sync"
	"time"
)

// Execution status values.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// JobMetadata describes a registered job and its execution statistics.
type JobMetadata struct {
	JobID          string `json:"jobId"`
	ScheduleType   string `json:"scheduleType"`
	CronExpression string `json:"cronExpression"`
	HumanReadable  string `json:"humanReadable"`
	// Output is the file the job writes to, if any.
	Output string `json:"output,omitempty"`

	NextExecutionTime   *time.Time `json:"nextExecutionTime,omitempty"`
	LastExecutionTime   *time.Time `json:"lastExecutionTime,omitempty"`
	LastExecutionStatus string     `json:"lastExecutionStatus,omitempty"`

	TotalExecutions int64 `json:"totalExecutions"`
	SuccessCount    int64 `json:"successCount"`
	FailureCount    int64 `json:"failureCount"`
	// SkippedCount counts triggers dropped because the job was still running.
	SkippedCount int64 `json:"skippedCount"`

	mu sync.Mutex `json:"-"`
}

func (m *JobMetadata) record(status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TotalExecutions++
	if status == StatusSuccess {
		m.SuccessCount++
	} else {
		m.FailureCount++
	}
	now := time.Now()
	m.LastExecutionTime = &now
	m.LastExecutionStatus = status
}

// skipped executions leave the last execution fields alone
func (m *JobMetadata) incrementSkipped() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SkippedCount++
}

// snapshot returns a copy safe to hand out.
func (m *JobMetadata) snapshot() *JobMetadata {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := &JobMetadata{
		JobID:               m.JobID,
		ScheduleType:        m.ScheduleType,
		CronExpression:      m.CronExpression,
		HumanReadable:       m.HumanReadable,
		Output:              m.Output,
		LastExecutionStatus: m.LastExecutionStatus,
		TotalExecutions:     m.TotalExecutions,
		SuccessCount:        m.SuccessCount,
		FailureCount:        m.FailureCount,
		SkippedCount:        m.SkippedCount,
	}
	if m.LastExecutionTime != nil {
		t := *m.LastExecutionTime
		s.LastExecutionTime = &t
	}
	return s
}
