package shortid_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/qrblink/qrblink/internal/shortid"
)

const alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

func TestSlug_LengthAndAlphabet(t *testing.T) {
	for i := 0; i < 1000; i++ {
		slug := shortid.Slug()
		assert.Len(t, slug, shortid.SlugLength)
		for _, c := range slug {
			assert.True(t, strings.ContainsRune(alphabet, c),
				"slug %q contains invalid char %q", slug, string(c))
		}
	}
}

func TestSlug_NoDuplicatesStatistically(t *testing.T) {
	// 62^6 values; 10000 draws colliding would indicate a broken source
	seen := make(map[string]bool)
	count := 10000
	for i := 0; i < count; i++ {
		seen[shortid.Slug()] = true
	}
	assert.Len(t, seen, count)
}

func TestSecret_ShapeAndUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		s := shortid.Secret()
		// 18 bytes of randomness encode to 24 base64url chars
		assert.Len(t, s, 24)
		assert.NotContains(t, s, "=")
		assert.NotContains(t, s, "+")
		assert.NotContains(t, s, "/")
		seen[s] = true
	}
	assert.Len(t, seen, 1000)
}

func TestSecret_IndependentOfSlug(t *testing.T) {
	slug := shortid.Slug()
	secret := shortid.Secret()
	assert.NotContains(t, secret, slug)
}
