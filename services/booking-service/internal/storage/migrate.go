package storage

import (
	"context"
	"embed"
	"io/fs"

	"github.com/md-rashed-zaman/clinicslots/libs/db"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

func Migrate(ctx context.Context, pool *db.Pool) (int, error) {
	sub, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		return 0, err
	}
	return db.Migrate(ctx, pool, sub)
}
