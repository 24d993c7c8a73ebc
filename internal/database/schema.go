package database

import (
	"context"
	_ "embed"
	"fmt"
)

//go:embed schema/schema.sql
var schemaSQL string

// EnsureSchema creates the hand tables if they are missing.
func EnsureSchema(ctx context.Context) error {
	if DB == nil {
		return fmt.Errorf("ensure schema: database not connected")
	}
	if _, err := DB.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
