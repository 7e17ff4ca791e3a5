package moderation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTags(t *testing.T) {
	tags := NormalizeTags([]string{
		" Gaming ", "gaming", "RP", "trade", "chill", "new", "extra",
	})
	assert.Equal(t, []string{"gaming", "rp", "trade", "chill", "new"}, tags)
}

func TestNormalizeTagsIsIdempotent(t *testing.T) {
	once := NormalizeTags([]string{"Gaming", " RP ", "Trade", "x", "toolongtagtoolongtagtoolongtag"})
	twice := NormalizeTags(once)
	assert.Equal(t, once, twice)
}

func TestNormalizeTagsDropsInvalidLengths(t *testing.T) {
	tags := NormalizeTags([]string{"a", "ok", "this-tag-is-exactly-24-c", "this-tag-is-way-too-long-to-keep"})
	assert.Equal(t, []string{"ok", "this-tag-is-exactly-24-c"}, tags)
}

func TestNormalizeTagsCountsRunesNotBytes(t *testing.T) {
	// 10 CJK runes is 30 bytes; the length rule is 2 to 24 runes.
	tags := NormalizeTags([]string{"日本", "ゲームコミュニティ鯖", "遊"})
	assert.Equal(t, []string{"日本", "ゲームコミュニティ鯖"}, tags)
}

func TestNormalizeTagsEmptyInput(t *testing.T) {
	assert.Empty(t, NormalizeTags(nil))
	assert.Empty(t, NormalizeTags([]string{"  ", ""}))
}

func TestValidateLogoURL(t *testing.T) {
	valid := []string{
		"https://cdn.example.com/logo.png",
		"http://example.com/a/b/c.webp",
		"https://example.com/logo.svg?size=256",
		"https://example.com/LOGO.PNG",
	}
	for _, u := range valid {
		assert.Nil(t, ValidateLogoURL(u), "expected %q to be accepted", u)
	}

	invalid := []string{
		"",
		"ftp://example.com/logo.png",
		"https://example.com/logo.bmp",
		"https://example.com/logo",
		"not a url",
		"https:///logo.png",
	}
	for _, u := range invalid {
		assert.NotNil(t, ValidateLogoURL(u), "expected %q to be rejected", u)
	}
}
