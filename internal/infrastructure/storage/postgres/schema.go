package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"recyclebin/pkg/logger"
)

// Migrations are goose-formatted so the same files work with the goose CLI.
//
//go:embed migrations/*.sql
var migrationsFS embed.FS

const (
	gooseUp   = "-- +goose Up"
	gooseDown = "-- +goose Down"
)

// EnsureSchema applies the Up section of every embedded migration in file
// order. Statements are idempotent (IF NOT EXISTS), so it is safe to call on
// every start.
func EnsureSchema(ctx context.Context, txManager *TxManager) error {
	names, err := fs.Glob(migrationsFS, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(names)

	return txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		q := txManager.GetQuerier(ctx)
		for _, name := range names {
			raw, err := migrationsFS.ReadFile(name)
			if err != nil {
				return fmt.Errorf("read %s: %w", name, err)
			}
			if _, err := q.Exec(ctx, upSection(string(raw))); err != nil {
				return fmt.Errorf("apply %s: %w", name, err)
			}
			logger.Debug(ctx, "migration applied", "file", name)
		}
		return nil
	})
}

// upSection returns the text between the goose Up and Down markers.
func upSection(script string) string {
	if i := strings.Index(script, gooseUp); i >= 0 {
		script = script[i+len(gooseUp):]
	}
	if i := strings.Index(script, gooseDown); i >= 0 {
		script = script[:i]
	}
	return strings.TrimSpace(script)
}
