// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package database

import (
	"strconv"
	"strings"
	"time"
)

// User represents an account that owns content and memories
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName specifies the table name for User
func (User) TableName() string {
	return "users"
}

// ContentType classifies a shared content item
type ContentType string

// ContentType values
const (
	ContentTypeArticle ContentType = "ARTICLE"
	ContentTypeBlog    ContentType = "BLOG"
	ContentTypeNews    ContentType = "NEWS"
	ContentTypeLink    ContentType = "LINK"
	ContentTypeImage   ContentType = "IMAGE"
	ContentTypeVideo   ContentType = "VIDEO"
	ContentTypeOther   ContentType = "OTHER"
)

// ValidContentTypes returns all valid content types
func ValidContentTypes() []ContentType {
	return []ContentType{
		ContentTypeArticle,
		ContentTypeBlog,
		ContentTypeNews,
		ContentTypeLink,
		ContentTypeImage,
		ContentTypeVideo,
		ContentTypeOther,
	}
}

// ParseContentType resolves a content type name case-insensitively
func ParseContentType(name string) (ContentType, bool) {
	upper := ContentType(strings.ToUpper(strings.TrimSpace(name)))
	for _, valid := range ValidContentTypes() {
		if upper == valid {
			return valid, true
		}
	}
	return "", false
}

// Content is one shared item of text or link data. It is never merged with
// other content once its extracted context and keywords are set.
type Content struct {
	ID               uint        `gorm:"primaryKey" json:"id"`
	UserID           uint        `gorm:"index;not null" json:"user_id"`
	Type             ContentType `gorm:"type:varchar(16);not null;default:OTHER" json:"type"`
	Title            string      `gorm:"not null" json:"title"`
	Description      string      `gorm:"type:text" json:"description,omitempty"`
	TextContent      string      `gorm:"type:text" json:"text_content,omitempty"`
	URL              string      `json:"url,omitempty"`
	Source           string      `json:"source,omitempty"`
	ExtractedContext string      `gorm:"type:text" json:"extracted_context"`
	Keywords         string      `gorm:"type:text" json:"keywords"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for Content
func (Content) TableName() string {
	return "contents"
}

// Memory is a topic cluster that accumulates related content
type Memory struct {
	ID                   uint       `gorm:"primaryKey" json:"id"`
	UserID               uint       `gorm:"index;not null" json:"user_id"`
	Context              string     `gorm:"type:text;not null" json:"context"`
	Type                 string     `json:"type,omitempty"`
	Content              string     `gorm:"type:text" json:"content"`
	Summary              string     `gorm:"type:text" json:"summary"`
	Suggestions          string     `gorm:"type:text" json:"suggestions"`
	RelatedContentIDs    string     `gorm:"type:text" json:"related_content_ids"`
	RelevanceScore       int        `gorm:"not null;default:1" json:"relevance_score"`
	Keywords             string     `gorm:"type:text" json:"keywords"`
	Version              int64      `gorm:"not null;default:1" json:"version"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
	LastRelatedContentAt *time.Time `json:"last_related_content_at,omitempty"`

	Tags []Tag `gorm:"many2many:memory_tags;constraint:OnDelete:CASCADE" json:"tags"`
	User User  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for Memory
func (Memory) TableName() string {
	return "memories"
}

// RelatedIDs parses RelatedContentIDs in order, skipping malformed entries
func (m *Memory) RelatedIDs() []uint {
	var ids []uint
	for _, part := range strings.Split(m.RelatedContentIDs, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseUint(part, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, uint(id))
	}
	return ids
}

// TagNames returns the names of the memory's tags
func (m *Memory) TagNames() []string {
	names := make([]string, 0, len(m.Tags))
	for _, t := range m.Tags {
		names = append(names, t.Name)
	}
	return names
}

// Tag is a label shared across memories. Name keeps the form first inserted;
// NameKey is its lower-cased lookup key.
type Tag struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	NameKey   string    `gorm:"uniqueIndex;not null" json:"-"`
	CreatedAt time.Time `json:"-"`
}

// TableName specifies the table name for Tag
func (Tag) TableName() string {
	return "tags"
}

// TagKey normalizes a tag name to its lookup key
func TagKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
