// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package memory

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/tejzpr/memorybook/internal/database"
)

// maxSlugWords caps how much of a memory context goes into a file name
const maxSlugWords = 5

var (
	// slugRegex matches characters that should be dropped from slugs
	slugRegex = regexp.MustCompile(`[^a-z0-9\s-]`)
	// multiSpaceRegex matches runs of spaces/dashes
	multiSpaceRegex = regexp.MustCompile(`[\s-]+`)
	validSlugRegex  = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*[a-z0-9]$`)
	controlRegex    = regexp.MustCompile(`[\x00-\x1F\x7F]`)
)

// GenerateSlugWithDate creates a slug from text with a date suffix
func GenerateSlugWithDate(text string, date time.Time) string {
	slug := strings.ToLower(text)
	slug = slugRegex.ReplaceAllString(slug, "")
	slug = multiSpaceRegex.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")

	if slug == "" {
		return date.Format("2006-01-02")
	}
	return fmt.Sprintf("%s-%s", slug, date.Format("2006-01-02"))
}

// ValidateSlug checks if a slug is valid
func ValidateSlug(slug string) error {
	if slug == "" {
		return fmt.Errorf("slug cannot be empty")
	}

	if len(slug) < 3 {
		return fmt.Errorf("slug must be at least 3 characters")
	}

	if len(slug) > 200 {
		return fmt.Errorf("slug cannot exceed 200 characters")
	}

	if !validSlugRegex.MatchString(slug) {
		return fmt.Errorf("slug must contain only lowercase letters, numbers, and dashes")
	}

	return nil
}

// ExportFilename names the markdown export of a memory after the leading
// words of its context and its creation date
func ExportFilename(m *database.Memory) string {
	words := strings.FieldsFunc(m.Context, func(r rune) bool {
		return r == ',' || r == ' '
	})
	if len(words) > maxSlugWords {
		words = words[:maxSlugWords]
	}

	slug := GenerateSlugWithDate(strings.Join(words, " "), m.CreatedAt)
	if err := ValidateSlug(slug); err != nil {
		slug = fmt.Sprintf("memory-%d", m.ID)
	}
	return slug + ".md"
}

// SanitizeTitle trims a title and strips control characters
func SanitizeTitle(title string) string {
	title = strings.TrimSpace(title)
	return controlRegex.ReplaceAllString(title, "")
}
