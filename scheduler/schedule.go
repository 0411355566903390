package scheduler

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// ScheduleType identifies the scheduling pattern
type ScheduleType string

const (
	ScheduleTypeFixedRate ScheduleType = "fixed-rate"
	ScheduleTypeDaily     ScheduleType = "daily"
	ScheduleTypeCron      ScheduleType = "cron"
)

// ScheduleConfiguration describes when a job runs.
type ScheduleConfiguration struct {
	Type ScheduleType

	Interval time.Duration // fixed-rate

	Hour   int // daily, 0-23
	Minute int // daily, 0-59

	Expression string // cron, five fields or a descriptor such as @daily
}

// Validate checks the fields used by Type.
func (c *ScheduleConfiguration) Validate() error {
	switch c.Type {
	case ScheduleTypeFixedRate:
		if c.Interval <= 0 {
			return &ValidationError{
				Field:   "interval",
				Message: "must be positive",
				Action:  "Choose a duration greater than 0",
				Err:     ErrInvalidInterval,
			}
		}
	case ScheduleTypeDaily:
		if c.Hour < 0 || c.Hour > 23 {
			return NewRangeError("hour", 0, 23, c.Hour)
		}
		if c.Minute < 0 || c.Minute > 59 {
			return NewRangeError("minute", 0, 59, c.Minute)
		}
	case ScheduleTypeCron:
		if strings.TrimSpace(c.Expression) == "" {
			return &ValidationError{
				Field:   "expression",
				Message: "must not be empty",
				Action:  "Use a five-field cron expression such as \"0 3 * * *\"",
				Err:     ErrInvalidCron,
			}
		}
	default:
		return &ValidationError{
			Field:   "type",
			Message: fmt.Sprintf("unknown schedule type '%s'", c.Type),
			Action:  "Use one of: fixed-rate, daily, cron",
			Err:     ErrInvalidScheduleType,
		}
	}
	return nil
}

func (c *ScheduleConfiguration) definition() gocron.JobDefinition {
	switch c.Type {
	case ScheduleTypeFixedRate:
		return gocron.DurationJob(c.Interval)
	case ScheduleTypeDaily:
		return gocron.DailyJob(1, gocron.NewAtTimes(
			gocron.NewAtTime(uint(c.Hour), uint(c.Minute), 0), //nolint:gosec // bounded by Validate
		))
	default:
		return gocron.CronJob(c.Expression, false)
	}
}

// ToCronExpression renders the schedule in cron notation. Fixed-rate
// schedules use "@every".
func (c *ScheduleConfiguration) ToCronExpression() string {
	switch c.Type {
	case ScheduleTypeFixedRate:
		return fmt.Sprintf("@every %s", c.Interval.String())
	case ScheduleTypeDaily:
		return fmt.Sprintf("%d %d * * *", c.Minute, c.Hour)
	case ScheduleTypeCron:
		return c.Expression
	default:
		return ""
	}
}

// ToHumanReadable describes the schedule for job listings.
func (c *ScheduleConfiguration) ToHumanReadable() string {
	switch c.Type {
	case ScheduleTypeFixedRate:
		return fmt.Sprintf("Every %s", formatDuration(c.Interval))
	case ScheduleTypeDaily:
		return fmt.Sprintf("Daily at %s", formatTime(c.Hour, c.Minute))
	case ScheduleTypeCron:
		return "Cron " + c.Expression
	default:
		return ""
	}
}

// formatTime formats hour and minute as 12-hour time with AM/PM
func formatTime(hour, minute int) string {
	period := "AM"
	displayHour := hour

	if hour >= 12 {
		period = "PM"
		if hour > 12 {
			displayHour = hour - 12
		}
	}
	if hour == 0 {
		displayHour = 12
	}

	return fmt.Sprintf("%d:%02d %s", displayHour, minute, period)
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%d seconds", int(d.Seconds()))
	case d < time.Hour:
		return plural(int(d.Minutes()), "minute")
	case d < 24*time.Hour:
		return plural(int(d.Hours()), "hour")
	default:
		return plural(int(d.Hours()/24), "day")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
