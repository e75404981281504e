// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package database

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// AllModels returns all database models for migration
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&Content{},
		&Tag{},
		&Memory{},
	}
}

// Migrate runs database migrations for all models
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// DropAllTables drops all tables (use with caution!)
func DropAllTables(db *gorm.DB) error {
	// Reverse dependency order
	tables := []interface{}{
		"memory_tags",
		&Memory{},
		&Tag{},
		&Content{},
		&User{},
	}

	for _, table := range tables {
		if err := db.Migrator().DropTable(table); err != nil {
			return fmt.Errorf("failed to drop table: %w", err)
		}
	}

	return nil
}

// CreateIndexes creates composite indexes for the per-user queries
func CreateIndexes(db *gorm.DB) error {
	indexes := []struct {
		table   string
		columns []string
		name    string
	}{
		{
			table:   "contents",
			columns: []string{"user_id", "type"},
			name:    "idx_contents_user_type",
		},
		{
			table:   "contents",
			columns: []string{"user_id", "created_at"},
			name:    "idx_contents_user_created",
		},
		{
			table:   "memories",
			columns: []string{"user_id", "relevance_score"},
			name:    "idx_memories_user_relevance",
		},
		{
			table:   "memories",
			columns: []string{"user_id", "updated_at"},
			name:    "idx_memories_user_updated",
		},
	}

	for _, idx := range indexes {
		if db.Migrator().HasIndex(idx.table, idx.name) {
			continue
		}
		sql := fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)",
			idx.name,
			idx.table,
			strings.Join(idx.columns, ", "))

		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}
	}

	return nil
}
