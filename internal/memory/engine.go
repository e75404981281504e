// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package memory

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tejzpr/memorybook/internal/analysis"
	"github.com/tejzpr/memorybook/internal/database"
)

const (
	// DefaultSummaryMaxLength bounds generated memory summaries
	DefaultSummaryMaxLength = 200
	// MemoryTypeContent labels memories created from shared content
	MemoryTypeContent = "Content"

	contentSeparator = "\n\n---\n\n"
	contextSeparator = ", "
	relatedSeparator = ","
)

// Outcome tells whether a share created a memory or merged into one
type Outcome string

// Outcome values
const (
	OutcomeCreated Outcome = "created"
	OutcomeMerged  Outcome = "merged"
)

// Result is the outcome of fusing one content item into a user's memories
type Result struct {
	Memory  *database.Memory
	Outcome Outcome
	// Similarity of the merged memory; zero when created
	Similarity float64
}

// IsNew reports whether the share started a new memory
func (r *Result) IsNew() bool {
	return r.Outcome == OutcomeCreated
}

// EngineConfig tunes the fusion engine
type EngineConfig struct {
	SimilarityThreshold float64
	SummaryMaxLength    int
}

// Engine decides, for each incoming content item, whether it joins an
// existing memory or starts a new one, and keeps the derived fields in step
type Engine struct {
	store            Store
	matcher          *Matcher
	threshold        float64
	summaryMaxLength int
	logger           *zap.Logger
	now              func() time.Time
}

// NewEngine creates a fusion engine over store
func NewEngine(store Store, cfg EngineConfig, logger *zap.Logger) *Engine {
	if cfg.SummaryMaxLength <= 0 {
		cfg.SummaryMaxLength = DefaultSummaryMaxLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		store:            store,
		matcher:          NewMatcher(store, cfg.SimilarityThreshold),
		threshold:        cfg.SimilarityThreshold,
		summaryMaxLength: cfg.SummaryMaxLength,
		logger:           logger,
		now:              time.Now,
	}
}

// WithStore returns a copy of the engine bound to store, typically a
// transaction-scoped one
func (e *Engine) WithStore(store Store) *Engine {
	clone := *e
	clone.store = store
	clone.matcher = NewMatcher(store, e.threshold)
	return &clone
}

// Matcher returns the engine's memory matcher
func (e *Engine) Matcher() *Matcher {
	return e.matcher
}

// CreateOrUpdateMemoryFromContent fuses a saved content item into the user's
// memories. The content's ExtractedContext is filled in when empty.
func (e *Engine) CreateOrUpdateMemoryFromContent(ctx context.Context, userID uint, content *database.Content, tags []string) (*Result, error) {
	if content.ExtractedContext == "" {
		content.ExtractedContext = analysis.ExtractContext(content.Title, content.Description, content.TextContent)
	}

	match, err := e.matcher.FindMostSimilarMemory(ctx, userID, content.ExtractedContext)
	if err != nil {
		return nil, err
	}

	if match != nil {
		mem, err := e.UpdateMemoryWithContent(ctx, match.Memory.ID, userID, content, tags)
		if err != nil {
			return nil, err
		}
		e.logger.Debug("content merged into memory",
			zap.Uint("user_id", userID),
			zap.Uint("memory_id", mem.ID),
			zap.Uint("content_id", content.ID),
			zap.Float64("similarity", match.Similarity))
		return &Result{Memory: mem, Outcome: OutcomeMerged, Similarity: match.Similarity}, nil
	}

	mem, err := e.createFromContent(ctx, userID, content, tags)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("memory created from content",
		zap.Uint("user_id", userID),
		zap.Uint("memory_id", mem.ID),
		zap.Uint("content_id", content.ID))
	return &Result{Memory: mem, Outcome: OutcomeCreated}, nil
}

func (e *Engine) createFromContent(ctx context.Context, userID uint, content *database.Content, tags []string) (*database.Memory, error) {
	now := e.now()
	body := contentBlock(content)

	mem := &database.Memory{
		UserID:               userID,
		Context:              content.ExtractedContext,
		Type:                 MemoryTypeContent,
		Content:              body,
		Keywords:             analysis.JoinKeywords(analysis.ExtractKeywords(keywordText(content))),
		Summary:              analysis.GenerateSummary(body, e.summaryMaxLength),
		RelatedContentIDs:    strconv.FormatUint(uint64(content.ID), 10),
		RelevanceScore:       1,
		LastRelatedContentAt: &now,
	}

	if err := e.AddMemory(ctx, mem, tags); err != nil {
		return nil, err
	}

	mem.Suggestions = GenerateSuggestions(mem, []string{content.Title})
	if err := e.store.SaveMemory(ctx, mem); err != nil {
		return nil, fmt.Errorf("failed to save memory suggestions: %w", err)
	}

	return mem, nil
}

// AddMemory persists a new memory, resolving tag names case-insensitively.
// Keywords are derived from context and content when empty, and relevance
// defaults to 1.
func (e *Engine) AddMemory(ctx context.Context, mem *database.Memory, tags []string) error {
	resolved, err := e.resolveTags(ctx, tags)
	if err != nil {
		return err
	}
	mem.Tags = resolved

	if mem.Keywords == "" {
		mem.Keywords = analysis.JoinKeywords(analysis.ExtractKeywords(mem.Context + " " + mem.Content))
	}
	if mem.RelevanceScore <= 0 {
		mem.RelevanceScore = 1
	}
	mem.ID = 0
	mem.Version = 0

	if err := e.store.SaveMemory(ctx, mem); err != nil {
		return fmt.Errorf("failed to save memory: %w", err)
	}
	return nil
}

// UpdateMemoryWithContent merges a content item into an existing memory
// owned by userID
func (e *Engine) UpdateMemoryWithContent(ctx context.Context, memoryID, userID uint, content *database.Content, tags []string) (*database.Memory, error) {
	mem, err := e.store.FindMemoryByID(ctx, memoryID)
	if err != nil {
		return nil, err
	}
	if mem.UserID != userID {
		return nil, fmt.Errorf("memory %d: %w", memoryID, ErrUnauthorized)
	}

	block := contentBlock(content)
	if mem.Content == "" {
		mem.Content = block
	} else {
		mem.Content = mem.Content + contentSeparator + block
	}

	newContext := analysis.ExtractContext(content.Title, content.Description, content.TextContent)
	if mem.Context == "" {
		mem.Context = newContext
	} else {
		mem.Context = mem.Context + contextSeparator + newContext
	}

	keywords := analysis.UnionKeywords(
		analysis.SplitKeywords(mem.Keywords),
		analysis.ExtractKeywords(keywordText(content)),
	)
	mem.Keywords = analysis.JoinKeywords(keywords)

	id := strconv.FormatUint(uint64(content.ID), 10)
	if mem.RelatedContentIDs == "" {
		mem.RelatedContentIDs = id
	} else {
		mem.RelatedContentIDs = mem.RelatedContentIDs + relatedSeparator + id
	}

	mem.RelevanceScore++
	now := e.now()
	mem.LastRelatedContentAt = &now

	// Summarized over the merged content plus the new block
	mem.Summary = analysis.GenerateSummary(mem.Content+"\n\n"+block, e.summaryMaxLength)

	if len(tags) > 0 {
		resolved, err := e.resolveTags(ctx, tags)
		if err != nil {
			return nil, err
		}
		mem.Tags = mergeTags(mem.Tags, resolved)
	}

	mem.Suggestions = GenerateSuggestions(mem, e.relatedTitles(ctx, mem))

	if err := e.store.SaveMemory(ctx, mem); err != nil {
		return nil, fmt.Errorf("failed to save merged memory: %w", err)
	}
	return mem, nil
}

// relatedTitles resolves the titles of a memory's related content in order.
// Ids that no longer resolve are skipped.
func (e *Engine) relatedTitles(ctx context.Context, mem *database.Memory) []string {
	ids := mem.RelatedIDs()
	titles := make([]string, 0, len(ids))
	for _, id := range ids {
		c, err := e.store.GetContentByID(ctx, id)
		if err != nil {
			e.logger.Debug("skipping unresolved related content",
				zap.Uint("memory_id", mem.ID),
				zap.Uint("content_id", id),
				zap.Error(err))
			continue
		}
		titles = append(titles, c.Title)
	}
	return titles
}

func (e *Engine) resolveTags(ctx context.Context, names []string) ([]database.Tag, error) {
	tags := make([]database.Tag, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		key := database.TagKey(name)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true

		tag, err := e.store.FindOrCreateTag(ctx, strings.TrimSpace(name))
		if err != nil {
			return nil, fmt.Errorf("failed to resolve tag %q: %w", name, err)
		}
		tags = append(tags, *tag)
	}
	return tags, nil
}

func mergeTags(existing, added []database.Tag) []database.Tag {
	merged := make([]database.Tag, 0, len(existing)+len(added))
	seen := make(map[uint]bool, len(existing)+len(added))
	for _, list := range [][]database.Tag{existing, added} {
		for _, t := range list {
			if seen[t.ID] {
				continue
			}
			seen[t.ID] = true
			merged = append(merged, t)
		}
	}
	return merged
}

// contentBlock is the text a content item contributes to a memory
func contentBlock(c *database.Content) string {
	return analysis.JoinFields("\n", c.Title, c.Description, c.TextContent)
}

func keywordText(c *database.Content) string {
	return analysis.JoinFields(" ", c.Title, c.Description, c.TextContent)
}
