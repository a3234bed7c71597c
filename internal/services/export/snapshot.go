package export

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// snapshotSchemaSQL mirrors the facility model one to one. TEXT timestamps
// keep the file readable from any sqlite client.
const snapshotSchemaSQL = `
CREATE TABLE IF NOT EXISTS facilities (
	id TEXT PRIMARY KEY,
	raw_id TEXT,
	name TEXT,
	sehir TEXT,
	ilce TEXT,
	type TEXT,
	address TEXT,
	website TEXT,
	website_source TEXT,
	website_score REAL DEFAULT 0,
	website_status TEXT DEFAULT 'pending',
	email TEXT,
	email_source TEXT,
	email_status TEXT DEFAULT 'pending',
	created_at TEXT,
	updated_at TEXT
);

CREATE INDEX IF NOT EXISTS idx_facilities_raw_id ON facilities(raw_id);
CREATE INDEX IF NOT EXISTS idx_facilities_name ON facilities(name);
CREATE INDEX IF NOT EXISTS idx_facilities_sehir ON facilities(sehir);
CREATE INDEX IF NOT EXISTS idx_facilities_type ON facilities(type);
`

const insertFacilitySQL = `
INSERT INTO facilities (
	id, raw_id, name, sehir, ilce, type, address,
	website, website_source, website_score, website_status,
	email, email_source, email_status, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// BuildSQLite writes a fresh snapshot database at path. The file is rebuilt
// from scratch on every call.
func (s *Service) BuildSQLite(ctx context.Context, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove stale snapshot: %w", err)
	}

	// modernc.org/sqlite uses "sqlite" driver name (not "sqlite3")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open snapshot database: %w", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, snapshotSchemaSQL); err != nil {
		return fmt.Errorf("failed to create snapshot schema: %w", err)
	}

	facilities, err := s.facilities.ListAllFacilities(ctx)
	if err != nil {
		return fmt.Errorf("failed to load facilities: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin snapshot transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertFacilitySQL)
	if err != nil {
		return fmt.Errorf("failed to prepare snapshot insert: %w", err)
	}
	defer stmt.Close()

	for _, f := range facilities {
		_, err := stmt.ExecContext(ctx,
			f.ID, f.RawID, f.Name, f.City, f.District, f.Type, f.Address,
			f.Website, f.WebsiteSource, f.WebsiteScore, string(f.WebsiteStatus),
			f.Email, f.EmailSource, string(f.EmailStatus),
			f.CreatedAt.Format(time.RFC3339), f.UpdatedAt.Format(time.RFC3339),
		)
		if err != nil {
			return fmt.Errorf("failed to insert facility %s: %w", f.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}

	s.logger.Info().Int("rows", len(facilities)).Str("path", path).Msg("SQLite snapshot written")
	return nil
}
