package codec

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/gen2brain/webp"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testImage creates a size x size RGBA image with a gradient pattern.
func testImage(size int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: uint8((x + y) % 256), A: 255})
		}
	}
	return img
}

func TestDecodeImage(t *testing.T) {
	img := testImage(256)

	var pngBuf, jpegBuf, webpBuf bytes.Buffer
	require.NoError(t, png.Encode(&pngBuf, img))
	require.NoError(t, jpeg.Encode(&jpegBuf, img, &jpeg.Options{Quality: 85}))
	require.NoError(t, webp.Encode(&webpBuf, img, webp.Options{Quality: 85}))

	tests := []struct {
		format string
		data   []byte
	}{
		{"image/png", pngBuf.Bytes()},
		{"image/png; mode=8bit", pngBuf.Bytes()},
		{"image/jpeg", jpegBuf.Bytes()},
		{"IMAGE/JPG", jpegBuf.Bytes()},
		{"image/webp", webpBuf.Bytes()},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			got, err := DecodeImage(tt.data, tt.format)
			require.NoError(t, err)
			assert.Equal(t, img.Bounds(), got.Bounds())
		})
	}

	// png pixels survive unchanged
	got, err := DecodeImage(pngBuf.Bytes(), FormatPNG)
	require.NoError(t, err)
	assert.Equal(t, img.RGBAAt(10, 20), color.RGBAModel.Convert(got.At(10, 20)))
}

func TestDecodeImage_Errors(t *testing.T) {
	_, err := DecodeImage([]byte("not an image"), FormatJPEG)
	assert.Error(t, err)

	_, err = DecodeImage([]byte{}, "image/tiff")
	assert.ErrorContains(t, err, "unsupported decode format")
}

func TestExtension(t *testing.T) {
	tests := []struct {
		format  string
		want    string
		wantErr bool
	}{
		{"image/jpeg", ".jpeg", false},
		{"image/png", ".png", false},
		{"image/webp", ".webp", false},
		{"image/png; mode=8bit", ".png", false},
		{"application/x-protobuf", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			got, err := Extension(tt.format)
			if tt.wantErr {
				assert.Error(t, err)
				assert.False(t, Supported(tt.format))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.True(t, Supported(tt.format))
		})
	}
}
