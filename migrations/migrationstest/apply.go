// Package migrationstest applies the directory migrations to throwaway test
// databases without a migration runner.
package migrationstest

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/goliatone/go-directory/migrations"
)

// Execer is satisfied by *sql.DB, *sql.Tx and bun.IDB.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Apply runs every registered up migration for dialect against db. Scripts use
// IF NOT EXISTS so Apply is safe to repeat.
func Apply(ctx context.Context, db Execer, dialect migrations.Dialect) error {
	files, err := migrations.UpFiles(dialect)
	if err != nil {
		return err
	}
	for _, file := range files {
		for _, stmt := range SplitStatements(file.SQL) {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("migrationstest: %s: %w", file.Name, err)
			}
		}
	}
	return nil
}

// SplitStatements breaks a script into executable statements, dropping
// comment lines.
func SplitStatements(script string) []string {
	var (
		builder    strings.Builder
		statements []string
	)
	for _, line := range strings.Split(script, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}
		builder.WriteString(line)
		if strings.HasSuffix(line, ";") {
			statements = append(statements, strings.TrimSuffix(builder.String(), ";"))
			builder.Reset()
			continue
		}
		builder.WriteString(" ")
	}
	if rest := strings.TrimSpace(builder.String()); rest != "" {
		statements = append(statements, rest)
	}
	return statements
}
