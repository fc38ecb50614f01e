package service

import (
	"bytes"
	"context"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"chirp/internal/models"
	"chirp/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMediaService(t *testing.T) (*MediaService, string) {
	t.Helper()
	cfg := testutil.TestConfig()
	cfg.UploadDir = t.TempDir()
	return NewMediaService(cfg), cfg.UploadDir
}

func TestMediaService_UploadImages(t *testing.T) {
	svc, dir := newMediaService(t)

	medias, err := svc.UploadImages(context.Background(), []UploadFile{
		{Filename: "a.png", ContentType: "image/png", Content: testutil.TinyPNG(t, 64, 48)},
	})
	require.NoError(t, err)
	require.Len(t, medias, 1)
	assert.Equal(t, models.MediaTypeImage, medias[0].Type)
	assert.True(t, strings.HasPrefix(medias[0].URL, "http://localhost:4000/static/images/"))
	assert.True(t, strings.HasSuffix(medias[0].URL, ".jpg"))

	name := strings.TrimSuffix(filepath.Base(medias[0].URL), ".jpg")
	for _, ext := range []string{".jpg", ".webp"} {
		_, statErr := os.Stat(filepath.Join(dir, imageSubdir, name+ext))
		assert.NoError(t, statErr, ext)
	}
}

func TestMediaService_ResizesLargeImages(t *testing.T) {
	src := testutil.TinyPNG(t, 4096, 1024)
	img, err := decodeForTest(src)
	require.NoError(t, err)

	out := resizeToFit(img, MasterMaxSize, MasterMaxSize)
	assert.Equal(t, 2048, out.Bounds().Dx())
	assert.Equal(t, 512, out.Bounds().Dy())
}

func TestMediaService_ImageRejections(t *testing.T) {
	svc, _ := newMediaService(t)
	ctx := context.Background()
	png := testutil.TinyPNG(t, 8, 8)

	_, err := svc.UploadImages(ctx, nil)
	assertAppCode(t, err, models.CodeValidation)

	five := make([]UploadFile, 5)
	for i := range five {
		five[i] = UploadFile{Content: png}
	}
	_, err = svc.UploadImages(ctx, five)
	assertAppCode(t, err, models.CodeValidation)

	_, err = svc.UploadImages(ctx, []UploadFile{{Content: []byte("plain text, not an image")}})
	assertAppCode(t, err, models.CodeValidation)

	_, err = svc.UploadImages(ctx, []UploadFile{{Content: make([]byte, 301*1024)}})
	assertAppCode(t, err, models.CodeValidation)
}

func TestMediaService_UploadVideo(t *testing.T) {
	svc, dir := newMediaService(t)
	ctx := context.Background()

	medias, err := svc.UploadVideo(ctx, UploadFile{Filename: "clip.mp4", ContentType: "video/mp4", Content: testutil.MP4Header()})
	require.NoError(t, err)
	require.Len(t, medias, 1)
	assert.Equal(t, models.MediaTypeVideo, medias[0].Type)
	_, statErr := os.Stat(filepath.Join(dir, videoSubdir, filepath.Base(medias[0].URL)))
	assert.NoError(t, statErr)

	_, err = svc.UploadVideo(ctx, UploadFile{Filename: "x.png", ContentType: "image/png", Content: testutil.TinyPNG(t, 4, 4)})
	assertAppCode(t, err, models.CodeValidation)

	_, err = svc.UploadVideo(ctx, UploadFile{ContentType: "video/mp4", Content: make([]byte, 2*1024*1024)})
	assertAppCode(t, err, models.CodeValidation)
}

func decodeForTest(b []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(b))
	return img, err
}
