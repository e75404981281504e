// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package memory

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tejzpr/memorybook/internal/analysis"
	"github.com/tejzpr/memorybook/internal/database"
)

// Document is the portable markdown form of a memory: YAML frontmatter
// followed by the accumulated content
type Document struct {
	ID                uint      `yaml:"id,omitempty"`
	Context           string    `yaml:"context"`
	Type              string    `yaml:"type,omitempty"`
	Keywords          []string  `yaml:"keywords,omitempty"`
	RelevanceScore    int       `yaml:"relevance_score,omitempty"`
	RelatedContentIDs []uint    `yaml:"related_content_ids,omitempty"`
	Tags              []string  `yaml:"tags,omitempty"`
	Summary           string    `yaml:"summary,omitempty"`
	Suggestions       string    `yaml:"suggestions,omitempty"`
	Created           time.Time `yaml:"created,omitempty"`
	Updated           time.Time `yaml:"updated,omitempty"`
	Content           string    `yaml:"-"`
}

// NewDocument converts a stored memory to its document form
func NewDocument(m *database.Memory) *Document {
	return &Document{
		ID:                m.ID,
		Context:           m.Context,
		Type:              m.Type,
		Keywords:          analysis.SplitKeywords(m.Keywords),
		RelevanceScore:    m.RelevanceScore,
		RelatedContentIDs: m.RelatedIDs(),
		Tags:              m.TagNames(),
		Summary:           m.Summary,
		Suggestions:       m.Suggestions,
		Created:           m.CreatedAt,
		Updated:           m.UpdatedAt,
		Content:           m.Content,
	}
}

// ToMemory converts the document into an unsaved memory for userID. Ids
// are dropped since they belong to the exporting database.
func (d *Document) ToMemory(userID uint) *database.Memory {
	return &database.Memory{
		UserID:         userID,
		Context:        d.Context,
		Type:           d.Type,
		Content:        d.Content,
		Keywords:       analysis.JoinKeywords(d.Keywords),
		Summary:        d.Summary,
		Suggestions:    d.Suggestions,
		RelevanceScore: d.RelevanceScore,
	}
}

// ParseMarkdown parses markdown content with YAML frontmatter
func ParseMarkdown(content string) (*Document, error) {
	frontmatter, body, err := splitFrontmatter(content)
	if err != nil {
		return nil, fmt.Errorf("failed to split frontmatter: %w", err)
	}

	var doc Document
	if frontmatter != "" {
		if err := yaml.Unmarshal([]byte(frontmatter), &doc); err != nil {
			return nil, fmt.Errorf("failed to parse frontmatter: %w", err)
		}
	}

	doc.Content = strings.TrimSpace(body)

	return &doc, nil
}

// ToMarkdown renders the document with frontmatter
func (d *Document) ToMarkdown() (string, error) {
	var buf bytes.Buffer

	buf.WriteString("---\n")

	frontmatterData, err := yaml.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("failed to marshal frontmatter: %w", err)
	}

	buf.Write(frontmatterData)
	buf.WriteString("---\n\n")

	buf.WriteString(d.Content)
	buf.WriteString("\n")

	return buf.String(), nil
}

// splitFrontmatter splits markdown content into frontmatter and body
func splitFrontmatter(content string) (string, string, error) {
	content = strings.TrimSpace(content)

	if !strings.HasPrefix(content, "---") {
		return "", content, nil
	}

	lines := strings.Split(content, "\n")
	if len(lines) < 3 {
		return "", content, nil
	}

	closingIndex := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			closingIndex = i
			break
		}
	}

	if closingIndex == -1 {
		return "", content, fmt.Errorf("frontmatter not properly closed")
	}

	frontmatter := strings.Join(lines[1:closingIndex], "\n")

	body := ""
	if closingIndex+1 < len(lines) {
		body = strings.Join(lines[closingIndex+1:], "\n")
	}

	return frontmatter, body, nil
}
