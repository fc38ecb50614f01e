package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif" // Register GIF decoder
	"image/jpeg"
	_ "image/png" // Register PNG decoder
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"chirp/internal/config"
	"chirp/internal/models"

	"github.com/chai2010/webp"
	"github.com/google/uuid"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	DefaultUploadDir     = "uploads"
	MaxImagesPerUpload   = 4
	DefaultMaxImageBytes = 300 * 1024
	DefaultMaxVideoBytes = 50 * 1024 * 1024
	MasterMaxSize        = 2048
	JPEGQuality          = 82
	WebPQuality          = 70
	imageSubdir          = "images"
	videoSubdir          = "videos"
)

// UploadFile is one file from a multipart upload.
type UploadFile struct {
	Filename    string
	ContentType string
	Content     []byte
}

// MediaService normalizes uploads and writes them under the upload directory.
type MediaService struct {
	uploadDir     string
	publicBaseURL string
	maxImageBytes int64
	maxVideoBytes int64
}

func NewMediaService(cfg *config.Config) *MediaService {
	s := &MediaService{
		uploadDir:     DefaultUploadDir,
		maxImageBytes: DefaultMaxImageBytes,
		maxVideoBytes: DefaultMaxVideoBytes,
	}
	if cfg != nil {
		if cfg.UploadDir != "" {
			s.uploadDir = cfg.UploadDir
		}
		if cfg.MaxImageUploadBytes > 0 {
			s.maxImageBytes = cfg.MaxImageUploadBytes
		}
		if cfg.MaxVideoUploadBytes > 0 {
			s.maxVideoBytes = cfg.MaxVideoUploadBytes
		}
		s.publicBaseURL = strings.TrimRight(cfg.PublicBaseURL, "/")
	}
	return s
}

// UploadImages re-encodes each image as a bounded JPEG plus a WebP sibling.
func (s *MediaService) UploadImages(_ context.Context, files []UploadFile) ([]models.Media, error) {
	if len(files) == 0 {
		return nil, models.NewValidationError("No file uploaded")
	}
	if len(files) > MaxImagesPerUpload {
		return nil, models.NewValidationError(fmt.Sprintf("At most %d images per upload", MaxImagesPerUpload))
	}

	// Validate everything before writing anything.
	decoded := make([]image.Image, 0, len(files))
	for _, f := range files {
		img, err := s.decodeImage(f)
		if err != nil {
			return nil, err
		}
		decoded = append(decoded, img)
	}

	medias := make([]models.Media, 0, len(files))
	var written []string
	for _, img := range decoded {
		master := resizeToFit(img, MasterMaxSize, MasterMaxSize)
		jpg, err := encodeJPEG(master, JPEGQuality)
		if err != nil {
			cleanupFiles(written)
			return nil, models.NewInternalError(err)
		}
		webpBytes, err := encodeWebP(master, WebPQuality)
		if err != nil {
			cleanupFiles(written)
			return nil, models.NewInternalError(err)
		}

		name := uuid.NewString()
		jpgPath := filepath.Join(s.uploadDir, imageSubdir, name+".jpg")
		webpPath := filepath.Join(s.uploadDir, imageSubdir, name+".webp")
		if err := writeBytesToFile(jpgPath, jpg); err != nil {
			cleanupFiles(written)
			return nil, models.NewInternalError(err)
		}
		written = append(written, jpgPath)
		if err := writeBytesToFile(webpPath, webpBytes); err != nil {
			cleanupFiles(written)
			return nil, models.NewInternalError(err)
		}
		written = append(written, webpPath)

		medias = append(medias, models.Media{URL: s.publicURL(imageSubdir, name+".jpg"), Type: models.MediaTypeImage})
	}
	return medias, nil
}

func (s *MediaService) decodeImage(f UploadFile) (image.Image, error) {
	if len(f.Content) == 0 {
		return nil, models.NewValidationError("Empty file")
	}
	if int64(len(f.Content)) > s.maxImageBytes {
		return nil, models.NewValidationError(fmt.Sprintf("Image too large (max %dKB)", s.maxImageBytes/1024))
	}
	if !isAllowedImageMIME(http.DetectContentType(f.Content)) {
		return nil, models.NewValidationError("Invalid image type")
	}
	img, format, err := image.Decode(bytes.NewReader(f.Content))
	if err != nil {
		return nil, models.NewValidationError("Invalid image file")
	}
	if !isSupportedDecodedFormat(format) {
		return nil, models.NewValidationError("Unsupported image format")
	}
	return img, nil
}

// UploadVideo stores a single mp4 or quicktime file unchanged.
func (s *MediaService) UploadVideo(_ context.Context, f UploadFile) ([]models.Media, error) {
	if len(f.Content) == 0 {
		return nil, models.NewValidationError("No file uploaded")
	}
	if int64(len(f.Content)) > s.maxVideoBytes {
		return nil, models.NewValidationError(fmt.Sprintf("Video too large (max %dMB)", s.maxVideoBytes/(1024*1024)))
	}
	ext, ok := videoExtension(f)
	if !ok {
		return nil, models.NewValidationError("Only mp4 and quicktime videos are allowed")
	}

	name := uuid.NewString() + ext
	if err := writeBytesToFile(filepath.Join(s.uploadDir, videoSubdir, name), f.Content); err != nil {
		return nil, models.NewInternalError(err)
	}
	return []models.Media{{URL: s.publicURL(videoSubdir, name), Type: models.MediaTypeVideo}}, nil
}

func videoExtension(f UploadFile) (string, bool) {
	detected := normalizeContentType(http.DetectContentType(f.Content))
	declared := normalizeContentType(f.ContentType)
	switch {
	case detected == "video/mp4" || (declared == "video/mp4" && detected == "application/octet-stream"):
		return ".mp4", true
	case declared == "video/quicktime" && (detected == "application/octet-stream" || detected == "video/mp4"):
		return ".mov", true
	default:
		return "", false
	}
}

func (s *MediaService) publicURL(kind, name string) string {
	return fmt.Sprintf("%s/static/%s/%s", s.publicBaseURL, kind, name)
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 {
		return src
	}
	if w <= maxWidth && h <= maxHeight {
		return src
	}

	scaleW := float64(maxWidth) / float64(w)
	scaleH := float64(maxHeight) / float64(h)
	scale := scaleW
	if scaleH < scale {
		scale = scaleH
	}
	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isAllowedImageMIME(contentType string) bool {
	switch normalizeContentType(contentType) {
	case "image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func normalizeContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

func isSupportedDecodedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "jpeg", "jpg", "png", "gif", "webp":
		return true
	default:
		return false
	}
}

func writeBytesToFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func cleanupFiles(paths []string) {
	for _, p := range paths {
		_ = os.Remove(p)
	}
}
