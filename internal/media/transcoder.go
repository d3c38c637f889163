package media

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// DefaultJPEGQuality is used when a Transcoder is built with a zero quality.
const DefaultJPEGQuality = 90

// Bounds is a maximum width and height in pixels.
type Bounds struct {
	Width  int
	Height int
}

// Transcoder decodes an image, fits it inside a bounding box and re-encodes it.
type Transcoder struct {
	jpegQuality int
}

// NewTranscoder creates a transcoder. quality applies to JPEG output only.
func NewTranscoder(quality int) *Transcoder {
	if quality <= 0 || quality > 100 {
		quality = DefaultJPEGQuality
	}
	return &Transcoder{jpegQuality: quality}
}

// Transcode resizes data to fit within bounds, keeping the aspect ratio and
// never upscaling, and encodes the result as format ("jpg", "png", "gif"...).
// Every call reads data through its own reader, so the same buffer can feed
// several concurrent calls.
func (t *Transcoder) Transcode(data []byte, bounds Bounds, format string) ([]byte, error) {
	if bounds.Width <= 0 || bounds.Height <= 0 {
		return nil, fmt.Errorf("invalid bounds %dx%d", bounds.Width, bounds.Height)
	}

	outFormat, err := imaging.FormatFromExtension(format)
	if err != nil {
		return nil, fmt.Errorf("%w: unsupported output format %q", ErrEncode, format)
	}

	src, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	// Fit returns a clone when src already fits, so small images keep their size.
	dst := imaging.Fit(src, bounds.Width, bounds.Height, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, dst, outFormat, imaging.JPEGQuality(t.jpegQuality)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	return buf.Bytes(), nil
}

// Dimensions reports the pixel size of an encoded image without decoding it fully.
func Dimensions(data []byte) (int, int, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return cfg.Width, cfg.Height, nil
}
