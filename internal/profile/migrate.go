package profile

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/54b3r/rugcheck-go/internal/logging"
)

//go:embed sql/*.sql
var migrations embed.FS

// Migrations lists the embedded migration file names in apply order.
func Migrations() ([]string, error) {
	names, err := fs.Glob(migrations, "sql/*.sql")
	if err != nil {
		return nil, fmt.Errorf("profile: list migrations: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

// Migrate applies every embedded migration in lexical order. Each statement
// is idempotent, so Migrate is safe to run on every deploy.
func Migrate(ctx context.Context, pool *pgxpool.Pool) ([]string, error) {
	log := logging.FromContext(ctx)

	names, err := Migrations()
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		sql, err := migrations.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("profile: read migration %s: %w", name, err)
		}
		if _, err := pool.Exec(ctx, string(sql)); err != nil {
			return nil, fmt.Errorf("%w: apply migration %s: %w", ErrDataSource, name, err)
		}
		log.Info("profile: migration applied", slog.String("file", name))
	}
	return names, nil
}
