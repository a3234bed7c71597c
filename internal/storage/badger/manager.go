package badger

import (
	"context"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/invenio/internal/common"
	"github.com/ternarybob/invenio/internal/interfaces"
)

// Manager implements the StorageManager interface for Badger
type Manager struct {
	db       *BadgerDB
	facility interfaces.FacilityStorage
	job      interfaces.JobStorage
	jobLog   interfaces.JobLogStorage
	cache    interfaces.CacheStorage
	logger   arbor.ILogger
}

// NewManager creates a new Badger storage manager
func NewManager(logger arbor.ILogger, config *common.BadgerConfig) (interfaces.StorageManager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		db:       db,
		facility: NewFacilityStorage(db, logger),
		job:      NewJobStorage(db, logger),
		jobLog:   NewJobLogStorage(db, logger),
		cache:    NewCacheStorage(db, logger),
		logger:   logger,
	}

	logger.Info().Msg("Badger storage manager initialized")

	return manager, nil
}

// FacilityStorage returns the Facility storage interface
func (m *Manager) FacilityStorage() interfaces.FacilityStorage {
	return m.facility
}

// JobStorage returns the Job storage interface
func (m *Manager) JobStorage() interfaces.JobStorage {
	return m.job
}

// JobLogStorage returns the JobLog storage interface
func (m *Manager) JobLogStorage() interfaces.JobLogStorage {
	return m.jobLog
}

// CacheStorage returns the Cache storage interface
func (m *Manager) CacheStorage() interfaces.CacheStorage {
	return m.cache
}

// RunGC runs Badger value-log garbage collection.
func (m *Manager) RunGC(ctx context.Context) error {
	return m.db.RunGC(ctx)
}

// Close closes the database connection
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
