package repository

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver for database/sql
	"github.com/pressly/goose/v3"

	"github.com/iago/trip-planner-back/migrations"
)

// MigrationStatus is one row of `migrate status`.
type MigrationStatus struct {
	Version int64
	Source  string
	Applied bool
}

// Migrate applies ("up"), rolls back one step ("down") or reports ("status")
// the embedded goose migrations against databaseURL.
func Migrate(ctx context.Context, databaseURL, direction string) ([]MigrationStatus, error) {
	sqlDB, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open migration db: %w", err)
	}
	defer sqlDB.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, sqlDB, migrations.FS)
	if err != nil {
		return nil, fmt.Errorf("create goose provider: %w", err)
	}

	switch direction {
	case "", "up":
		if _, err := provider.Up(ctx); err != nil {
			return nil, fmt.Errorf("migrate up: %w", err)
		}
	case "down":
		if _, err := provider.Down(ctx); err != nil {
			return nil, fmt.Errorf("migrate down: %w", err)
		}
	case "status":
	default:
		return nil, fmt.Errorf("unknown migration direction %q", direction)
	}

	statuses, err := provider.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("migration status: %w", err)
	}
	result := make([]MigrationStatus, 0, len(statuses))
	for _, status := range statuses {
		result = append(result, MigrationStatus{
			Version: status.Source.Version,
			Source:  status.Source.Path,
			Applied: status.State == goose.StateApplied,
		})
	}
	return result, nil
}
