// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package memory

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/tejzpr/memorybook/internal/analysis"
	"github.com/tejzpr/memorybook/internal/database"
	"github.com/tejzpr/memorybook/internal/locking"
)

// Locker serialises work per key across processes sharing a database
type Locker interface {
	WithLock(ctx context.Context, key string, fn func() error) error
}

// ShareRequest is one content item shared by a user
type ShareRequest struct {
	Type        string
	Title       string
	Description string
	TextContent string
	URL         string
	Source      string
	Tags        []string
}

// ShareResult pairs the saved content with the fusion outcome
type ShareResult struct {
	Content *database.Content
	*Result
}

// MemoryInput carries the user-editable fields of a memory
type MemoryInput struct {
	Context        string
	Type           string
	Content        string
	Keywords       string
	RelevanceScore int
	// Tags replaces the memory's tags on update when non-nil
	Tags []string
}

// Service is the application surface over content and memories. Every call
// takes the caller's user id and enforces ownership.
type Service struct {
	repo    Repository
	engine  *Engine
	locker  Locker
	retries int
	logger  *zap.Logger
}

// NewService wires a service. locker may be nil when a single process owns
// the database.
func NewService(repo Repository, engine *Engine, locker Locker, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:    repo,
		engine:  engine,
		locker:  locker,
		retries: locking.MaxRetries,
		logger:  logger,
	}
}

// ShareContent saves a content item and fuses it into the user's memories.
// Concurrent shares by the same user are serialised.
func (s *Service) ShareContent(ctx context.Context, userID uint, req ShareRequest) (*ShareResult, error) {
	title := SanitizeTitle(req.Title)
	if title == "" {
		return nil, fmt.Errorf("title is required: %w", ErrInvalidInput)
	}

	contentType := database.ContentTypeOther
	if strings.TrimSpace(req.Type) != "" {
		ct, ok := database.ParseContentType(req.Type)
		if !ok {
			return nil, fmt.Errorf("unknown content type %q: %w", req.Type, ErrInvalidInput)
		}
		contentType = ct
	}

	var shared *ShareResult
	run := func() error {
		content := &database.Content{
			UserID:           userID,
			Type:             contentType,
			Title:            title,
			Description:      req.Description,
			TextContent:      req.TextContent,
			URL:              req.URL,
			Source:           req.Source,
			ExtractedContext: analysis.ExtractContext(title, req.Description, req.TextContent),
			Keywords: analysis.JoinKeywords(analysis.ExtractKeywords(
				analysis.JoinFields(" ", title, req.Description, req.TextContent))),
		}

		return s.repo.Transaction(ctx, func(tx Repository) error {
			if err := tx.SaveContent(ctx, content); err != nil {
				return fmt.Errorf("failed to save content: %w", err)
			}
			result, err := s.engine.WithStore(tx).CreateOrUpdateMemoryFromContent(ctx, userID, content, req.Tags)
			if err != nil {
				return err
			}
			shared = &ShareResult{Content: content, Result: result}
			return nil
		})
	}

	err := s.withUserLock(ctx, userID, func() error {
		return locking.RetryWithBackoff(s.retries, locking.RetryDelay, run)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("content shared",
		zap.Uint("user_id", userID),
		zap.Uint("content_id", shared.Content.ID),
		zap.Uint("memory_id", shared.Memory.ID),
		zap.String("outcome", string(shared.Outcome)))

	return shared, nil
}

func (s *Service) withUserLock(ctx context.Context, userID uint, fn func() error) error {
	if s.locker == nil {
		return fn()
	}
	return s.locker.WithLock(ctx, fmt.Sprintf("user:%d", userID), fn)
}

// GetContent returns a content item owned by userID
func (s *Service) GetContent(ctx context.Context, userID, id uint) (*database.Content, error) {
	content, err := s.repo.GetContentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if content.UserID != userID {
		return nil, fmt.Errorf("content %d: %w", id, ErrUnauthorized)
	}
	return content, nil
}

// ListContent returns the user's content, newest first
func (s *Service) ListContent(ctx context.Context, userID uint) ([]database.Content, error) {
	return s.repo.ListContentByUser(ctx, userID)
}

// ListContentByType returns the user's content of one type
func (s *Service) ListContentByType(ctx context.Context, userID uint, typeName string) ([]database.Content, error) {
	ct, ok := database.ParseContentType(typeName)
	if !ok {
		return nil, fmt.Errorf("unknown content type %q: %w", typeName, ErrInvalidInput)
	}
	return s.repo.ListContentByUserAndType(ctx, userID, ct)
}

// SearchContent finds the user's content containing query in its title,
// description, text or extracted context
func (s *Service) SearchContent(ctx context.Context, userID uint, query string) ([]database.Content, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query is required: %w", ErrInvalidInput)
	}
	return s.repo.SearchContent(ctx, userID, query)
}

// ListMemories returns all of the user's memories
func (s *Service) ListMemories(ctx context.Context, userID uint) ([]database.Memory, error) {
	return s.repo.ListMemoriesByUser(ctx, userID)
}

// GetMemory returns a memory owned by userID
func (s *Service) GetMemory(ctx context.Context, userID, id uint) (*database.Memory, error) {
	mem, err := s.repo.FindMemoryByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if mem.UserID != userID {
		return nil, fmt.Errorf("memory %d: %w", id, ErrUnauthorized)
	}
	return mem, nil
}

// SearchMemories finds the user's memories containing query in their
// content, context or keywords
func (s *Service) SearchMemories(ctx context.Context, userID uint, query string) ([]database.Memory, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query is required: %w", ErrInvalidInput)
	}
	return s.repo.SearchMemories(ctx, userID, query)
}

// MemoriesByContext returns the user's memories whose context equals
// memoryContext, ignoring case
func (s *Service) MemoriesByContext(ctx context.Context, userID uint, memoryContext string) ([]database.Memory, error) {
	return s.repo.ListMemoriesByContext(ctx, userID, memoryContext)
}

// AddMemory creates a memory directly from user input
func (s *Service) AddMemory(ctx context.Context, userID uint, in MemoryInput) (*database.Memory, error) {
	if strings.TrimSpace(in.Context) == "" && strings.TrimSpace(in.Content) == "" {
		return nil, fmt.Errorf("context or content is required: %w", ErrInvalidInput)
	}

	mem := &database.Memory{
		UserID:         userID,
		Context:        in.Context,
		Type:           in.Type,
		Content:        in.Content,
		Keywords:       in.Keywords,
		RelevanceScore: in.RelevanceScore,
	}
	if err := s.addMemory(ctx, userID, mem, in.Tags); err != nil {
		return nil, err
	}
	return mem, nil
}

func (s *Service) addMemory(ctx context.Context, userID uint, mem *database.Memory, tags []string) error {
	if mem.Context == "" {
		mem.Context = analysis.GeneralContext
	}
	if mem.Summary == "" {
		mem.Summary = analysis.GenerateSummary(mem.Content, s.engine.summaryMaxLength)
	}

	return s.withUserLock(ctx, userID, func() error {
		return s.repo.Transaction(ctx, func(tx Repository) error {
			return s.engine.WithStore(tx).AddMemory(ctx, mem, tags)
		})
	})
}

// UpdateMemory replaces a memory's content, context and type, and its tags
// when in.Tags is non-nil
func (s *Service) UpdateMemory(ctx context.Context, userID, id uint, in MemoryInput) (*database.Memory, error) {
	var updated *database.Memory
	err := s.withUserLock(ctx, userID, func() error {
		return locking.RetryWithBackoff(s.retries, locking.RetryDelay, func() error {
			return s.repo.Transaction(ctx, func(tx Repository) error {
				mem, err := tx.FindMemoryByID(ctx, id)
				if err != nil {
					return err
				}
				if mem.UserID != userID {
					return fmt.Errorf("memory %d: %w", id, ErrUnauthorized)
				}

				mem.Content = in.Content
				mem.Context = in.Context
				mem.Type = in.Type
				if in.Tags != nil {
					tags, err := s.engine.WithStore(tx).resolveTags(ctx, in.Tags)
					if err != nil {
						return err
					}
					mem.Tags = tags
				}

				if err := tx.SaveMemory(ctx, mem); err != nil {
					return fmt.Errorf("failed to update memory: %w", err)
				}
				updated = mem
				return nil
			})
		})
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteMemory removes a memory after re-verifying ownership
func (s *Service) DeleteMemory(ctx context.Context, userID, id uint) error {
	return s.withUserLock(ctx, userID, func() error {
		return s.repo.Transaction(ctx, func(tx Repository) error {
			mem, err := tx.FindMemoryByID(ctx, id)
			if err != nil {
				return err
			}
			if mem.UserID != userID {
				return fmt.Errorf("memory %d: %w", id, ErrUnauthorized)
			}
			return tx.DeleteMemory(ctx, id)
		})
	})
}

// ExportMemory renders a memory owned by userID as markdown and returns it
// with a suggested file name
func (s *Service) ExportMemory(ctx context.Context, userID, id uint) (string, string, error) {
	mem, err := s.GetMemory(ctx, userID, id)
	if err != nil {
		return "", "", err
	}

	markdown, err := NewDocument(mem).ToMarkdown()
	if err != nil {
		return "", "", err
	}
	return markdown, ExportFilename(mem), nil
}

// ImportMemory creates a memory for userID from an exported markdown document
func (s *Service) ImportMemory(ctx context.Context, userID uint, markdown string) (*database.Memory, error) {
	doc, err := ParseMarkdown(markdown)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrInvalidInput)
	}
	if strings.TrimSpace(doc.Context) == "" && doc.Content == "" {
		return nil, fmt.Errorf("document is empty: %w", ErrInvalidInput)
	}

	mem := doc.ToMemory(userID)
	if err := s.addMemory(ctx, userID, mem, doc.Tags); err != nil {
		return nil, err
	}
	return mem, nil
}
