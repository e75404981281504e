// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package store persists content, memories and tags with gorm
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tejzpr/memorybook/internal/database"
	"github.com/tejzpr/memorybook/internal/locking"
	"github.com/tejzpr/memorybook/internal/memory"
)

const memoryTagsTable = "memory_tags"

// Store implements memory.Repository on a gorm connection
type Store struct {
	db *gorm.DB
}

var _ memory.Repository = (*Store)(nil)

// New creates a store over db
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func notFound(err error, kind string, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %d: %w", kind, id, memory.ErrNotFound)
	}
	return err
}

// likePattern builds a case-insensitive contains pattern, escaping LIKE
// metacharacters
func likePattern(query string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + replacer.Replace(strings.ToLower(query)) + "%"
}

// SaveContent inserts or updates a content item
func (s *Store) SaveContent(ctx context.Context, c *database.Content) error {
	db := s.db.WithContext(ctx)
	if c.ID == 0 {
		return db.Omit(clause.Associations).Create(c).Error
	}
	return db.Omit(clause.Associations).Save(c).Error
}

// GetContentByID returns a content item
func (s *Store) GetContentByID(ctx context.Context, id uint) (*database.Content, error) {
	var c database.Content
	if err := s.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, notFound(err, "content", id)
	}
	return &c, nil
}

// ListContentByUser returns a user's content, newest first
func (s *Store) ListContentByUser(ctx context.Context, userID uint) ([]database.Content, error) {
	var contents []database.Content
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&contents).Error
	return contents, err
}

// ListContentByUserAndType returns a user's content of one type, newest first
func (s *Store) ListContentByUserAndType(ctx context.Context, userID uint, contentType database.ContentType) ([]database.Content, error) {
	var contents []database.Content
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND type = ?", userID, contentType).
		Order("created_at DESC, id DESC").
		Find(&contents).Error
	return contents, err
}

// SearchContent matches query against title, description, text and
// extracted context, ignoring case
func (s *Store) SearchContent(ctx context.Context, userID uint, query string) ([]database.Content, error) {
	pattern := likePattern(query)
	var contents []database.Content
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Where(`LOWER(title) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\' OR LOWER(text_content) LIKE ? ESCAPE '\' OR LOWER(extracted_context) LIKE ? ESCAPE '\'`,
			pattern, pattern, pattern, pattern).
		Order("created_at DESC, id DESC").
		Find(&contents).Error
	return contents, err
}

// ListMemoriesByUser returns a user's memories with their tags
func (s *Store) ListMemoriesByUser(ctx context.Context, userID uint) ([]database.Memory, error) {
	var memories []database.Memory
	err := s.db.WithContext(ctx).
		Preload("Tags").
		Where("user_id = ?", userID).
		Order("id").
		Find(&memories).Error
	return memories, err
}

// SearchMemories matches query against content, context and keywords,
// ignoring case
func (s *Store) SearchMemories(ctx context.Context, userID uint, query string) ([]database.Memory, error) {
	pattern := likePattern(query)
	var memories []database.Memory
	err := s.db.WithContext(ctx).
		Preload("Tags").
		Where("user_id = ?", userID).
		Where(`LOWER(content) LIKE ? ESCAPE '\' OR LOWER(context) LIKE ? ESCAPE '\' OR LOWER(keywords) LIKE ? ESCAPE '\'`,
			pattern, pattern, pattern).
		Order("id").
		Find(&memories).Error
	return memories, err
}

// ListMemoriesByContext returns memories whose context equals memoryContext,
// ignoring case
func (s *Store) ListMemoriesByContext(ctx context.Context, userID uint, memoryContext string) ([]database.Memory, error) {
	var memories []database.Memory
	err := s.db.WithContext(ctx).
		Preload("Tags").
		Where("user_id = ? AND LOWER(context) = ?", userID, strings.ToLower(memoryContext)).
		Order("id").
		Find(&memories).Error
	return memories, err
}

// FindMemoryByID returns a memory with its tags
func (s *Store) FindMemoryByID(ctx context.Context, id uint) (*database.Memory, error) {
	var m database.Memory
	if err := s.db.WithContext(ctx).Preload("Tags").First(&m, id).Error; err != nil {
		return nil, notFound(err, "memory", id)
	}
	return &m, nil
}

// SaveMemory inserts a new memory or updates an existing one under an
// optimistic version check, then replaces its tag links
func (s *Store) SaveMemory(ctx context.Context, m *database.Memory) error {
	db := s.db.WithContext(ctx)

	if m.ID == 0 {
		m.Version = 1
		if err := db.Omit(clause.Associations).Create(m).Error; err != nil {
			return err
		}
		return s.replaceTags(db, m)
	}

	now := time.Now()
	err := locking.UpdateWithVersion(db, "memories", m.ID, m.Version, map[string]interface{}{
		"context":                 m.Context,
		"type":                    m.Type,
		"content":                 m.Content,
		"summary":                 m.Summary,
		"suggestions":             m.Suggestions,
		"related_content_ids":     m.RelatedContentIDs,
		"relevance_score":         m.RelevanceScore,
		"keywords":                m.Keywords,
		"last_related_content_at": m.LastRelatedContentAt,
		"updated_at":              now,
	})
	if err != nil {
		return notFound(err, "memory", m.ID)
	}
	m.Version++
	m.UpdatedAt = now

	return s.replaceTags(db, m)
}

func (s *Store) replaceTags(db *gorm.DB, m *database.Memory) error {
	if err := db.Exec("DELETE FROM "+memoryTagsTable+" WHERE memory_id = ?", m.ID).Error; err != nil {
		return fmt.Errorf("failed to clear tags: %w", err)
	}
	if len(m.Tags) == 0 {
		return nil
	}

	rows := make([]map[string]interface{}, 0, len(m.Tags))
	for _, t := range m.Tags {
		rows = append(rows, map[string]interface{}{"memory_id": m.ID, "tag_id": t.ID})
	}
	if err := db.Table(memoryTagsTable).Clauses(clause.OnConflict{DoNothing: true}).Create(rows).Error; err != nil {
		return fmt.Errorf("failed to link tags: %w", err)
	}
	return nil
}

// DeleteMemory removes a memory and its tag links
func (s *Store) DeleteMemory(ctx context.Context, id uint) error {
	db := s.db.WithContext(ctx)

	if err := db.Exec("DELETE FROM "+memoryTagsTable+" WHERE memory_id = ?", id).Error; err != nil {
		return fmt.Errorf("failed to clear tags: %w", err)
	}

	result := db.Delete(&database.Memory{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("memory %d: %w", id, memory.ErrNotFound)
	}
	return nil
}

// FindOrCreateTag resolves a tag by case-insensitive name. Concurrent
// creation of the same name converges on one row.
func (s *Store) FindOrCreateTag(ctx context.Context, name string) (*database.Tag, error) {
	key := database.TagKey(name)
	if key == "" {
		return nil, fmt.Errorf("empty tag name: %w", memory.ErrInvalidInput)
	}
	db := s.db.WithContext(ctx)

	candidate := database.Tag{Name: strings.TrimSpace(name), NameKey: key}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name_key"}},
		DoNothing: true,
	}).Create(&candidate).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create tag: %w", err)
	}

	var tag database.Tag
	if err := db.Where("name_key = ?", key).First(&tag).Error; err != nil {
		return nil, fmt.Errorf("failed to load tag: %w", err)
	}
	return &tag, nil
}

// Transaction runs fn against a store bound to one transaction
func (s *Store) Transaction(ctx context.Context, fn func(memory.Repository) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}
