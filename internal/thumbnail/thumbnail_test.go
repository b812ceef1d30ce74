package thumbnail

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/crawlora/aws-platform-engineering/internal/errors"
)

func TestKeys(t *testing.T) {
	tests := []struct {
		name        string
		outputKey   string
		wantCapture string
		wantPNG     string
	}{
		{"nested", "a/b/movie.mp4", "a/b/movie.0000000.jpg", "a/b/movie.png"},
		{"root", "movie.m3u8", "movie.0000000.jpg", "movie.png"},
		{"no extension", "a/movie", "a/movie.0000000.jpg", "a/movie.png"},
		{"dots in name", "a/my.movie.mp4", "a/my.movie.0000000.jpg", "a/my.movie.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			capture, pngKey := Keys(tt.outputKey)
			assert.Equal(t, tt.wantCapture, capture)
			assert.Equal(t, tt.wantPNG, pngKey)
		})
	}
}

func testJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}))
	return buf.Bytes()
}

func TestConvert(t *testing.T) {
	out, hash, err := Convert(testJPEG(t, 320, 180))
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 320, img.Bounds().Dx())
	assert.Equal(t, 180, img.Bounds().Dy())

	assert.NotEmpty(t, hash)
	// 4x3 components encode to 1 + 1 + 4 + 2*(4*3-1) characters.
	assert.Len(t, hash, 28)
}

func TestConvert_InvalidImage(t *testing.T) {
	_, _, err := Convert([]byte("not an image"))
	require.Error(t, err)
	assert.Equal(t, domainerrors.CodeInternal, domainerrors.CodeOf(err))
}

func TestBlurHash_SmallImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	hash, err := BlurHash(img)
	require.NoError(t, err)
	assert.Len(t, hash, 28)
}
