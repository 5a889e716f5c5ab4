package generator

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestGenerateBlobKey(t *testing.T) {
	key := GenerateBlobKey("holiday photo.PNG")
	assert.True(t, strings.HasSuffix(key, ".png"))

	// UUID 部分可解析
	id := strings.TrimSuffix(key, ".png")
	_, err := uuid.Parse(id)
	assert.NoError(t, err)
}

func TestGenerateBlobKey_MissingExtension(t *testing.T) {
	key := GenerateBlobKey("noextension")
	assert.True(t, strings.HasSuffix(key, ".jpg"))

	key = GenerateBlobKey("")
	assert.True(t, strings.HasSuffix(key, ".jpg"))

	key = GenerateBlobKey("trailingdot.")
	assert.True(t, strings.HasSuffix(key, ".jpg"))
}

func TestGenerateBlobKey_Unique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		key := GenerateBlobKey("photo.jpg")
		_, dup := seen[key]
		assert.False(t, dup)
		seen[key] = struct{}{}
	}
}
