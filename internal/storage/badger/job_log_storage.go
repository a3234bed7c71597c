package badger

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/invenio/internal/interfaces"
	"github.com/ternarybob/invenio/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// logSequence is a global counter to ensure unique log keys even within the same nanosecond
var logSequence uint64

// JobLogStorage implements the JobLogStorage interface for Badger
type JobLogStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewJobLogStorage creates a new JobLogStorage instance
func NewJobLogStorage(db *BadgerDB, logger arbor.ILogger) interfaces.JobLogStorage {
	return &JobLogStorage{
		db:     db,
		logger: logger,
	}
}

func (s *JobLogStorage) AppendLog(ctx context.Context, entry models.JobLogEntry) error {
	if entry.JobID == "" {
		return fmt.Errorf("job ID is required")
	}

	// Generate unique key using timestamp + atomic sequence counter
	// This ensures uniqueness even when multiple logs are written within the same nanosecond
	seq := atomic.AddUint64(&logSequence, 1)
	key := fmt.Sprintf("%s_%d_%d", entry.JobID, time.Now().UnixNano(), seq)

	if err := s.db.Store().Insert(key, &entry); err != nil {
		return fmt.Errorf("failed to append log: %w", err)
	}
	return nil
}

func (s *JobLogStorage) GetLogs(ctx context.Context, jobID string, limit int) ([]models.JobLogEntry, error) {
	var logs []models.JobLogEntry
	// Order by timestamp descending
	query := badgerhold.Where("JobID").Eq(jobID).SortBy("FullTimestamp").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := s.db.Store().Find(&logs, query); err != nil {
		return nil, fmt.Errorf("failed to get logs: %w", err)
	}
	return logs, nil
}

func (s *JobLogStorage) GetLogsByLevel(ctx context.Context, jobID string, level string, limit int) ([]models.JobLogEntry, error) {
	var logs []models.JobLogEntry
	query := badgerhold.Where("JobID").Eq(jobID).And("Level").Eq(level).SortBy("FullTimestamp").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := s.db.Store().Find(&logs, query); err != nil {
		return nil, fmt.Errorf("failed to get logs by level: %w", err)
	}
	return logs, nil
}

// CountLogsByLevel tallies a job's log lines by level in one pass. The job
// list endpoint derives its success/warning/error counters from this.
func (s *JobLogStorage) CountLogsByLevel(ctx context.Context, jobID string) (map[string]int, error) {
	var logs []models.JobLogEntry
	if err := s.db.Store().Find(&logs, badgerhold.Where("JobID").Eq(jobID)); err != nil {
		return nil, fmt.Errorf("failed to count logs: %w", err)
	}

	counts := make(map[string]int)
	for _, entry := range logs {
		counts[entry.Level]++
	}
	return counts, nil
}

func (s *JobLogStorage) DeleteLogs(ctx context.Context, jobID string) error {
	if err := s.db.Store().DeleteMatching(&models.JobLogEntry{}, badgerhold.Where("JobID").Eq(jobID)); err != nil {
		return fmt.Errorf("failed to delete logs: %w", err)
	}
	return nil
}

// Ensure interface compliance
var _ interfaces.JobLogStorage = (*JobLogStorage)(nil)
