// Package codec decodes tile images by their WMTS format (a MIME type).
package codec

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"strings"

	"github.com/gen2brain/webp"
)

const (
	FormatJPEG = "image/jpeg"
	FormatPNG  = "image/png"
	FormatWebP = "image/webp"
)

// normalize reduces "image/png; mode=8bit" and friends to the bare MIME type.
func normalize(format string) string {
	format = strings.ToLower(strings.TrimSpace(format))
	if i := strings.IndexByte(format, ';'); i >= 0 {
		format = strings.TrimSpace(format[:i])
	}
	if format == "image/jpg" {
		return FormatJPEG
	}
	return format
}

// Supported reports whether tiles in format can be decoded.
func Supported(format string) bool {
	switch normalize(format) {
	case FormatJPEG, FormatPNG, FormatWebP:
		return true
	}
	return false
}

// DecodeImage decodes tile bytes in the given format.
func DecodeImage(data []byte, format string) (image.Image, error) {
	r := bytes.NewReader(data)
	switch normalize(format) {
	case FormatJPEG:
		return jpeg.Decode(r)
	case FormatPNG:
		return png.Decode(r)
	case FormatWebP:
		return decodeWebP(r)
	default:
		return nil, fmt.Errorf("unsupported decode format: %q", format)
	}
}

func decodeWebP(r io.Reader) (image.Image, error) {
	return webp.Decode(r)
}

// Extension is the file extension, dot included, for tiles in format.
func Extension(format string) (string, error) {
	switch normalize(format) {
	case FormatJPEG:
		return ".jpeg", nil
	case FormatPNG:
		return ".png", nil
	case FormatWebP:
		return ".webp", nil
	default:
		return "", fmt.Errorf("unsupported tile format: %q (supported: %s, %s, %s)",
			format, FormatJPEG, FormatPNG, FormatWebP)
	}
}
