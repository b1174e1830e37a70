package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"

	"clanhub/pkg/platform/tx"
)

//go:embed schema.sql
var schemaSQL string

// EnsureSchema creates the clans table and its indexes if they are absent.
// Statements run one at a time, so both drivers accept them, inside a single
// transaction so a failure leaves no partial schema.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	return tx.Run(ctx, db, func(t *sql.Tx) error {
		for _, stmt := range schemaStatements() {
			if _, err := t.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("apply schema: %w", err)
			}
		}
		return nil
	})
}

func schemaStatements() []string {
	parts := strings.Split(schemaSQL, ";")
	stmts := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			stmts = append(stmts, p)
		}
	}
	return stmts
}
