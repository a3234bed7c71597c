package interfaces

import (
	"context"
	"io"
)

// ExportService builds downloadable exports of the facility catalog.
type ExportService interface {
	// WriteCSV streams the catalog as CSV. An empty city exports everything;
	// otherwise only facilities in that city (exact match).
	WriteCSV(ctx context.Context, w io.Writer, city string) error

	// BuildSQLite writes a fresh SQLite snapshot of the catalog to path,
	// replacing any file already there.
	BuildSQLite(ctx context.Context, path string) error
}
