package render

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"strings"

	"github.com/chai2010/webp"
)

// Image formats accepted by Encode.
const (
	FormatWebP = "webp"
	FormatPNG  = "png"
)

// ErrUnsupportedFormat is returned by Encode for unknown formats.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// ContentType returns the MIME type of an image format.
func ContentType(format string) string {
	switch strings.ToLower(format) {
	case FormatWebP:
		return "image/webp"
	case FormatPNG:
		return "image/png"
	}
	return "application/octet-stream"
}

// Encode writes img as webp (lossy, quality 85) or png.
func Encode(w io.Writer, img image.Image, format string) error {
	switch strings.ToLower(format) {
	case FormatWebP:
		return webp.Encode(w, img, &webp.Options{Lossless: false, Quality: 85})
	case FormatPNG:
		return png.Encode(w, img)
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}

// TransparentTile returns an encoded fully transparent webp tile.
func TransparentTile(size int) ([]byte, error) {
	if size <= 0 {
		size = 1
	}

	var buf bytes.Buffer
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	if err := webp.Encode(&buf, img, &webp.Options{Lossless: true}); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
