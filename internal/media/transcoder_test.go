package media

import (
	"bytes"
	"errors"
	"image/color"
	"sync"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeTestImage(t *testing.T, w, h int, format imaging.Format) []byte {
	t.Helper()
	img := imaging.New(w, h, color.NRGBA{R: 200, G: 80, B: 40, A: 255})
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, format))
	return buf.Bytes()
}

func TestTranscode_DownscalesPreservingAspect(t *testing.T) {
	tr := NewTranscoder(0)
	src := encodeTestImage(t, 2000, 1500, imaging.JPEG)

	main, err := tr.Transcode(src, Bounds{Width: 1024, Height: 1024}, "JPG")
	require.NoError(t, err)
	w, h, err := Dimensions(main)
	require.NoError(t, err)
	assert.Equal(t, 1024, w)
	assert.Equal(t, 768, h)

	thumb, err := tr.Transcode(src, Bounds{Width: 200, Height: 200}, "JPG")
	require.NoError(t, err)
	w, h, err = Dimensions(thumb)
	require.NoError(t, err)
	assert.Equal(t, 200, w)
	assert.Equal(t, 150, h)
}

func TestTranscode_PortraitUsesHeightAsLongestSide(t *testing.T) {
	tr := NewTranscoder(0)
	src := encodeTestImage(t, 900, 1800, imaging.PNG)

	out, err := tr.Transcode(src, Bounds{Width: 1024, Height: 1024}, "png")
	require.NoError(t, err)
	w, h, err := Dimensions(out)
	require.NoError(t, err)
	assert.Equal(t, 1024, h)
	assert.Equal(t, 512, w)
}

func TestTranscode_NoUpscale(t *testing.T) {
	tr := NewTranscoder(0)
	src := encodeTestImage(t, 120, 80, imaging.PNG)

	out, err := tr.Transcode(src, Bounds{Width: 200, Height: 200}, "png")
	require.NoError(t, err)
	w, h, err := Dimensions(out)
	require.NoError(t, err)
	assert.Equal(t, 120, w)
	assert.Equal(t, 80, h)
}

func TestTranscode_GIF(t *testing.T) {
	tr := NewTranscoder(0)
	src := encodeTestImage(t, 400, 400, imaging.GIF)

	out, err := tr.Transcode(src, Bounds{Width: 200, Height: 200}, "gif")
	require.NoError(t, err)
	w, h, err := Dimensions(out)
	require.NoError(t, err)
	assert.Equal(t, 200, w)
	assert.Equal(t, 200, h)
}

func TestTranscode_DecodeError(t *testing.T) {
	tr := NewTranscoder(0)
	_, err := tr.Transcode([]byte("%PDF-1.7 not an image"), Bounds{Width: 10, Height: 10}, "png")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDecode))
}

func TestTranscode_EncodeError(t *testing.T) {
	tr := NewTranscoder(0)
	src := encodeTestImage(t, 10, 10, imaging.PNG)

	for _, format := range []string{"", "webp", "pdf"} {
		_, err := tr.Transcode(src, Bounds{Width: 10, Height: 10}, format)
		require.Error(t, err, format)
		assert.True(t, errors.Is(err, ErrEncode), format)
	}
}

func TestTranscode_SharedBufferConcurrent(t *testing.T) {
	tr := NewTranscoder(0)
	src := encodeTestImage(t, 1200, 600, imaging.JPEG)

	var wg sync.WaitGroup
	results := make([][]byte, 4)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out, err := tr.Transcode(src, Bounds{Width: 200, Height: 200}, "jpg")
			assert.NoError(t, err)
			results[i] = out
		}(i)
	}
	wg.Wait()

	for _, out := range results {
		require.NotEmpty(t, out)
		w, h, err := Dimensions(out)
		require.NoError(t, err)
		assert.Equal(t, 200, w)
		assert.Equal(t, 100, h)
	}
}
