package db

import (
	"fmt"

	"gorm.io/gorm"
)

// CreateSearchIndexes создает trigram индекс для поиска по подстроке username (только PostgreSQL)
func CreateSearchIndexes(db *gorm.DB) error {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pg_trgm;`).Error; err != nil {
		return fmt.Errorf("failed to create extension pg_trgm: %w", err)
	}

	createIndexSQL := `
		CREATE INDEX IF NOT EXISTS idx_users_username_trgm
		ON users USING gin (lower(username) gin_trgm_ops);
	`
	if err := db.Exec(createIndexSQL).Error; err != nil {
		return fmt.Errorf("failed to create index idx_users_username_trgm: %w", err)
	}
	return nil
}
