package models

import "time"

// Job log levels. SUCCESS and WARNING are outcome levels: progress estimation
// counts them together with ERROR as item completions.
const (
	LogLevelInfo    = "INFO"
	LogLevelSuccess = "SUCCESS"
	LogLevelWarning = "WARNING"
	LogLevelError   = "ERROR"
)

// JobLogEntry is one append-only log line for a job.
//
// Timestamp Format:
//   - Timestamp: "15:04:05" for display
//   - FullTimestamp: RFC3339Nano for accurate sorting
type JobLogEntry struct {
	JobID         string `json:"job_id" badgerhold:"index"`
	Timestamp     string `json:"timestamp"`
	FullTimestamp string `json:"full_timestamp"`
	Level         string `json:"level" badgerhold:"index"`
	Message       string `json:"message"`
}

// NewJobLogEntry stamps a log line with both display and sort timestamps.
func NewJobLogEntry(jobID, level, message string) JobLogEntry {
	now := time.Now()
	return JobLogEntry{
		JobID:         jobID,
		Timestamp:     now.Format("15:04:05"),
		FullTimestamp: now.Format(time.RFC3339Nano),
		Level:         level,
		Message:       message,
	}
}

// Time parses the sortable timestamp. Zero time on malformed entries.
func (e JobLogEntry) Time() time.Time {
	t, err := time.Parse(time.RFC3339Nano, e.FullTimestamp)
	if err != nil {
		return time.Time{}
	}
	return t
}
