package media

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtension(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercase", "photo.jpg", ".jpg"},
		{"uppercase kept", "photo.JPG", ".JPG"},
		{"last dot wins", "archive.tar.gz", ".gz"},
		{"no dot", "photo", ""},
		{"leading dot only", ".hidden", ""},
		{"empty", "", ""},
		{"trailing dot", "photo.", "."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Extension(tt.in))
		})
	}
}

func TestGenerateName_UniqueAndKeepsExtension(t *testing.T) {
	const n = 1000
	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		name := GenerateName("photo.JPG")
		assert.True(t, strings.HasSuffix(name, ".JPG"), name)
		assert.Len(t, name, 36+len(".JPG"))
		seen[name] = struct{}{}
	}
	assert.Len(t, seen, n)
}

func TestGenerateName_NoExtension(t *testing.T) {
	name := GenerateName(".bashrc")
	assert.Len(t, name, 36)
	assert.NotContains(t, name, ".")
}

func TestThumbnailName(t *testing.T) {
	assert.Equal(t, "abc_thumb.png", ThumbnailName("abc.png"))
	assert.Equal(t, "a.b_thumb.JPG", ThumbnailName("a.b.JPG"))
	assert.Equal(t, "abc_thumb", ThumbnailName("abc"))
}

func TestMainName(t *testing.T) {
	main, ok := MainName("abc_thumb.png")
	assert.True(t, ok)
	assert.Equal(t, "abc.png", main)

	_, ok = MainName("abc.png")
	assert.False(t, ok)

	assert.True(t, IsThumbnailName(ThumbnailName("x.gif")))
	assert.False(t, IsThumbnailName("x.gif"))
}

func TestOutputFormat(t *testing.T) {
	assert.Equal(t, "JPG", OutputFormat("id.JPG"))
	assert.Equal(t, "png", OutputFormat("id.png"))
	assert.Equal(t, "", OutputFormat("id"))
}
