// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package memory

import (
	"context"

	"github.com/tejzpr/memorybook/internal/database"
)

// Store is the persistence the fusion engine depends on. Lookups by id
// return an error wrapping ErrNotFound when the row does not exist.
type Store interface {
	GetContentByID(ctx context.Context, id uint) (*database.Content, error)
	ListMemoriesByUser(ctx context.Context, userID uint) ([]database.Memory, error)
	// SaveMemory inserts a memory with a zero ID, otherwise updates it.
	// Updates check and bump Version.
	SaveMemory(ctx context.Context, m *database.Memory) error
	FindMemoryByID(ctx context.Context, id uint) (*database.Memory, error)
	// FindOrCreateTag resolves a tag by case-insensitive name, creating it
	// with the given spelling when absent
	FindOrCreateTag(ctx context.Context, name string) (*database.Tag, error)
}

// Repository is the full persistence surface used by Service
type Repository interface {
	Store

	SaveContent(ctx context.Context, c *database.Content) error
	ListContentByUser(ctx context.Context, userID uint) ([]database.Content, error)
	ListContentByUserAndType(ctx context.Context, userID uint, contentType database.ContentType) ([]database.Content, error)
	SearchContent(ctx context.Context, userID uint, query string) ([]database.Content, error)

	SearchMemories(ctx context.Context, userID uint, query string) ([]database.Memory, error)
	ListMemoriesByContext(ctx context.Context, userID uint, memoryContext string) ([]database.Memory, error)
	DeleteMemory(ctx context.Context, id uint) error

	// Transaction runs fn against a Repository bound to a single transaction.
	// The transaction commits when fn returns nil.
	Transaction(ctx context.Context, fn func(Repository) error) error
}
