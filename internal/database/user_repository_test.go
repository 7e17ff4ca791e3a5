package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestDiscordUsernameFilterEscapesMetacharacters(t *testing.T) {
	cases := []struct {
		query string
		regex string
	}{
		{"gator", "gator"},
		{".*", `\.\*`},
		{"swamp|gator", `swamp\|gator`},
		{"a+b(c)", `a\+b\(c\)`},
	}
	for _, tc := range cases {
		filter := discordUsernameFilter(tc.query)
		inner, ok := filter["discordUsername"].(bson.M)
		require.True(t, ok)
		assert.Equal(t, tc.regex, inner["$regex"], "query %q", tc.query)
		assert.Equal(t, "i", inner["$options"])
	}
}
