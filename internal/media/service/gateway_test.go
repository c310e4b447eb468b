package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tes-app/tes-backend/internal/media/domain"
	"github.com/tes-app/tes-backend/internal/media/store"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestEncodeJPEG_Resizes(t *testing.T) {
	out, err := EncodeJPEG(pngBytes(t, 200, 100), 50, 90)
	require.NoError(t, err)

	img, err := jpeg.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 50, img.Bounds().Dx())
	assert.Equal(t, 25, img.Bounds().Dy())
}

func TestEncodeJPEG_KeepsSmallImages(t *testing.T) {
	out, err := EncodeJPEG(pngBytes(t, 40, 30), 100, 0)
	require.NoError(t, err)

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 40, cfg.Width)
	assert.Equal(t, 30, cfg.Height)
}

func TestFitWithin(t *testing.T) {
	w, h := fitWithin(100, 400, 200)
	assert.Equal(t, 50, w)
	assert.Equal(t, 200, h)

	w, h = fitWithin(1000, 1, 10)
	assert.Equal(t, 10, w)
	assert.Equal(t, 1, h)
}

func TestGateway_UploadImage(t *testing.T) {
	mem := store.NewMemoryStore("http://localhost:8080")
	g := NewGateway(mem, Options{MaxDimension: 64}, nil, nil)

	url, err := g.UploadImage(context.Background(), pngBytes(t, 10, 10), "image/png")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(url, "http://localhost:8080/media/"))
	assert.True(t, strings.HasSuffix(url, ".jpg"))

	key := strings.TrimPrefix(url, "http://localhost:8080/media/")
	data, ct, ok := mem.Get(key)
	require.True(t, ok)
	assert.Equal(t, "image/jpeg", ct)
	_, err = jpeg.Decode(bytes.NewReader(data))
	assert.NoError(t, err)

	url2, err := g.UploadImage(context.Background(), pngBytes(t, 10, 10), "image/png")
	require.NoError(t, err)
	assert.NotEqual(t, url, url2)
}

type failingStore struct{}

func (failingStore) Put(context.Context, string, []byte, string) (string, error) {
	return "", errors.New("bucket unavailable")
}

func TestGateway_UploadErrors(t *testing.T) {
	g := NewGateway(failingStore{}, Options{}, nil, nil)

	_, err := g.UploadImage(context.Background(), []byte("not an image"), "")
	assert.ErrorIs(t, err, domain.ErrEncode)
	assert.False(t, errors.Is(err, domain.ErrUpload))

	_, err = g.UploadImage(context.Background(), pngBytes(t, 4, 4), "image/png")
	assert.ErrorIs(t, err, domain.ErrUpload)

	_, err = g.UploadImage(context.Background(), pngBytes(t, 4, 4), "text/plain")
	assert.ErrorIs(t, err, domain.ErrEncode)
}
