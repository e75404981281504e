// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tejzpr/memorybook/internal/database"
	"github.com/tejzpr/memorybook/internal/locking"
)

// fakeRepo is an in-memory Repository. Transactions snapshot and restore
// all state on error.
type fakeRepo struct {
	mu       sync.Mutex
	contents map[uint]database.Content
	memories map[uint]database.Memory
	tags     map[string]database.Tag
	nextID   uint

	// conflicts makes the next N memory updates fail with a version conflict
	conflicts   int
	saveMemoryN int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		contents: make(map[uint]database.Content),
		memories: make(map[uint]database.Memory),
		tags:     make(map[string]database.Tag),
	}
}

func (r *fakeRepo) id() uint {
	r.nextID++
	return r.nextID
}

func copyMemory(m database.Memory) database.Memory {
	m.Tags = append([]database.Tag(nil), m.Tags...)
	return m
}

func (r *fakeRepo) SaveContent(_ context.Context, c *database.Content) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c.ID == 0 {
		c.ID = r.id()
		c.CreatedAt = time.Now()
	}
	c.UpdatedAt = time.Now()
	r.contents[c.ID] = *c
	return nil
}

func (r *fakeRepo) GetContentByID(_ context.Context, id uint) (*database.Content, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.contents[id]
	if !ok {
		return nil, fmt.Errorf("content %d: %w", id, ErrNotFound)
	}
	return &c, nil
}

func (r *fakeRepo) listContent(match func(database.Content) bool) []database.Content {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []database.Content{}
	for _, c := range r.contents {
		if match(c) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (r *fakeRepo) ListContentByUser(_ context.Context, userID uint) ([]database.Content, error) {
	return r.listContent(func(c database.Content) bool { return c.UserID == userID }), nil
}

func (r *fakeRepo) ListContentByUserAndType(_ context.Context, userID uint, t database.ContentType) ([]database.Content, error) {
	return r.listContent(func(c database.Content) bool { return c.UserID == userID && c.Type == t }), nil
}

func (r *fakeRepo) SearchContent(_ context.Context, userID uint, query string) ([]database.Content, error) {
	q := strings.ToLower(query)
	return r.listContent(func(c database.Content) bool {
		return c.UserID == userID && strings.Contains(strings.ToLower(c.Title+"\x00"+c.Description+"\x00"+c.TextContent+"\x00"+c.ExtractedContext), q)
	}), nil
}

func (r *fakeRepo) listMemories(match func(database.Memory) bool) []database.Memory {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []database.Memory{}
	for _, m := range r.memories {
		if match(m) {
			out = append(out, copyMemory(m))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *fakeRepo) ListMemoriesByUser(_ context.Context, userID uint) ([]database.Memory, error) {
	return r.listMemories(func(m database.Memory) bool { return m.UserID == userID }), nil
}

func (r *fakeRepo) SearchMemories(_ context.Context, userID uint, query string) ([]database.Memory, error) {
	q := strings.ToLower(query)
	return r.listMemories(func(m database.Memory) bool {
		return m.UserID == userID && strings.Contains(strings.ToLower(m.Content+"\x00"+m.Context+"\x00"+m.Keywords), q)
	}), nil
}

func (r *fakeRepo) ListMemoriesByContext(_ context.Context, userID uint, memoryContext string) ([]database.Memory, error) {
	return r.listMemories(func(m database.Memory) bool {
		return m.UserID == userID && strings.EqualFold(m.Context, memoryContext)
	}), nil
}

func (r *fakeRepo) SaveMemory(_ context.Context, m *database.Memory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.saveMemoryN++
	now := time.Now()
	if m.ID == 0 {
		m.ID = r.id()
		m.Version = 1
		m.CreatedAt = now
		m.UpdatedAt = now
		r.memories[m.ID] = copyMemory(*m)
		return nil
	}

	stored, ok := r.memories[m.ID]
	if !ok {
		return fmt.Errorf("memory %d: %w", m.ID, ErrNotFound)
	}
	if r.conflicts > 0 {
		r.conflicts--
		return &locking.ConflictError{Table: "memories", ID: m.ID, ExpectedVersion: m.Version}
	}
	if stored.Version != m.Version {
		return &locking.ConflictError{Table: "memories", ID: m.ID, ExpectedVersion: m.Version}
	}
	m.Version++
	m.UpdatedAt = now
	r.memories[m.ID] = copyMemory(*m)
	return nil
}

func (r *fakeRepo) FindMemoryByID(_ context.Context, id uint) (*database.Memory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.memories[id]
	if !ok {
		return nil, fmt.Errorf("memory %d: %w", id, ErrNotFound)
	}
	m = copyMemory(m)
	return &m, nil
}

func (r *fakeRepo) DeleteMemory(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.memories[id]; !ok {
		return fmt.Errorf("memory %d: %w", id, ErrNotFound)
	}
	delete(r.memories, id)
	return nil
}

func (r *fakeRepo) FindOrCreateTag(_ context.Context, name string) (*database.Tag, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := database.TagKey(name)
	if t, ok := r.tags[key]; ok {
		return &t, nil
	}
	t := database.Tag{ID: r.id(), Name: name, NameKey: key}
	r.tags[key] = t
	return &t, nil
}

func (r *fakeRepo) Transaction(_ context.Context, fn func(Repository) error) error {
	r.mu.Lock()
	contents := make(map[uint]database.Content, len(r.contents))
	for k, v := range r.contents {
		contents[k] = v
	}
	memories := make(map[uint]database.Memory, len(r.memories))
	for k, v := range r.memories {
		memories[k] = copyMemory(v)
	}
	tags := make(map[string]database.Tag, len(r.tags))
	for k, v := range r.tags {
		tags[k] = v
	}
	nextID := r.nextID
	r.mu.Unlock()

	if err := fn(r); err != nil {
		r.mu.Lock()
		r.contents, r.memories, r.tags, r.nextID = contents, memories, tags, nextID
		r.mu.Unlock()
		return err
	}
	return nil
}

func (r *fakeRepo) removeContent(id uint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.contents, id)
}
