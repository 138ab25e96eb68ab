package ptui

import (
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gradient(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	return img
}

func writeJPEG(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, jpeg.Encode(f, gradient(w, h), &jpeg.Options{Quality: 80}))
	return path
}

func writePNG(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, gradient(w, h)))
	return path
}

func TestScaleFactor(t *testing.T) {
	tests := []struct {
		native, target int
		want           int
	}{
		{4032, 512, 8},
		{5000, 512, 8},
		{2048, 512, 4},
		{4032, 2048, 2},
		{3024, 2048, 1},
		{512, 512, 1},
		{1000, 0, 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ScaleFactor(tt.native, tt.target), "native=%d target=%d", tt.native, tt.target)
	}
}

func TestIsJPEGPath(t *testing.T) {
	assert.True(t, IsJPEGPath("a/b/photo.jpg"))
	assert.True(t, IsJPEGPath("PHOTO.JPEG"))
	assert.False(t, IsJPEGPath("photo.png"))
	assert.False(t, IsJPEGPath("jpg"))
}

func TestLoadLargeJPEGIsSubsampled(t *testing.T) {
	path := writeJPEG(t, t.TempDir(), "big.jpg", 1000, 600)

	img, err := NewLoader().Load(path, 128)
	require.NoError(t, err)
	assert.Equal(t, 125, img.Bounds().Dx())
	assert.Equal(t, 75, img.Bounds().Dy())
}

func TestLoadSmallJPEGKeepsNativeSize(t *testing.T) {
	path := writeJPEG(t, t.TempDir(), "small.jpeg", 120, 80)

	img, err := NewLoader().Load(path, 512)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 120, 80), img.Bounds())
}

func TestLoadJPEGFallsBackToFullDecode(t *testing.T) {
	path := writeJPEG(t, t.TempDir(), "photo.jpg", 64, 32)

	l := NewLoader()
	var fastCalled bool
	l.fastJPEG = func([]byte, int) (image.Image, error) {
		fastCalled = true
		return nil, errors.New("boom")
	}

	img, err := l.Load(path, 16)
	require.NoError(t, err)
	assert.True(t, fastCalled)
	assert.Equal(t, image.Rect(0, 0, 64, 32), img.Bounds())
}

func TestLoadMisnamedPNGUsesGenericDecoder(t *testing.T) {
	path := writePNG(t, t.TempDir(), "actually-png.jpg", 40, 20)

	img, err := NewLoader().Load(path, 512)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 40, 20), img.Bounds())
}

func TestLoadPNG(t *testing.T) {
	path := writePNG(t, t.TempDir(), "img.png", 100, 100)

	img, err := NewLoader().Load(path, 512)
	require.NoError(t, err)
	assert.Equal(t, 100, img.Bounds().Dx())
}

func TestLoadSVGIsCappedToTarget(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logo.svg")
	svg := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 200 100" width="200" height="100">` +
		`<rect x="0" y="0" width="200" height="100" fill="#ff0000"/></svg>`
	require.NoError(t, os.WriteFile(path, []byte(svg), 0o644))

	img, err := NewLoader().Load(path, 100)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 100, 50), img.Bounds())
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.jpg")
	require.NoError(t, os.WriteFile(path, []byte("definitely not an image"), 0o644))

	_, err := NewLoader().Load(path, 512)
	require.Error(t, err)
	assert.True(t, IsDecodeFailure(err))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := NewLoader().Load(filepath.Join(t.TempDir(), "nope.png"), 512)
	require.Error(t, err)
	assert.Equal(t, DecodeFailure, KindOf(err))
}
