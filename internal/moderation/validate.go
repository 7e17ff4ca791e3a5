// internal/moderation/validate.go
package moderation

import (
	"net/url"
	"strings"
	"unicode/utf8"

	"opslink/internal/utils"
)

const (
	maxTags    = 5
	minTagLen  = 2
	maxTagLen  = 24
	maxRating  = 5
	minRating  = 1
	maxMembers = 10_000_000
)

// Extensions a logo URL may end in. Anything else is rejected: the
// frontend embeds the URL directly in an <img> tag.
var allowedLogoExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".webp", ".svg"}

// NormalizeTags lowercases, trims, drops out-of-length and duplicate
// tags (first occurrence wins) and caps the result at five.
// Normalization is idempotent: feeding the output back in returns the
// same set.
func NormalizeTags(tags []string) []string {
	normalized := make([]string, 0, maxTags)
	seen := make(map[string]bool, len(tags))

	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if n := utf8.RuneCountInString(tag); n < minTagLen || n > maxTagLen {
			continue
		}
		if seen[tag] {
			continue
		}
		seen[tag] = true
		normalized = append(normalized, tag)
		if len(normalized) == maxTags {
			break
		}
	}
	return normalized
}

// ValidateLogoURL checks that the logo is a direct image URL.
func ValidateLogoURL(logo string) *utils.AppError {
	if logo == "" {
		return utils.NewValidationError("logo is required")
	}

	parsed, err := url.Parse(logo)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return utils.NewValidationError("logo must be a valid http(s) URL")
	}

	path := strings.ToLower(parsed.Path)
	for _, ext := range allowedLogoExtensions {
		if strings.HasSuffix(path, ext) {
			return nil
		}
	}
	return utils.NewValidationError("logo must be a direct image URL (png, jpg, jpeg, gif, webp or svg)")
}

// validMembers rejects negative or absurd member counts.
func validMembers(members int) bool {
	return members >= 0 && members <= maxMembers
}
