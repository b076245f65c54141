package catalog

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/commerce/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ObjectStorage stores uploaded files. It is implemented by the local
// filesystem and S3 drivers in the infrastructure layer.
type ObjectStorage interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	// URL returns a URL clients can fetch the object from
	URL(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

// AllowedContentTypes is the whitelist of uploadable image types.
// SVG is excluded because it can carry scripts.
var AllowedContentTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// UploadServiceConfig contains upload limits
type UploadServiceConfig struct {
	MaxFileSize int64
	KeyPrefix   string
}

// DefaultUploadServiceConfig returns default upload limits
func DefaultUploadServiceConfig() UploadServiceConfig {
	return UploadServiceConfig{
		MaxFileSize: 10 << 20,
		KeyPrefix:   "uploads",
	}
}

// UploadFile is one file of an upload request
type UploadFile struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// UploadResponse describes a stored file
type UploadResponse struct {
	Key  string `json:"key"`
	URL  string `json:"url"`
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// UploadService stores product images
type UploadService struct {
	storage ObjectStorage
	config  UploadServiceConfig
	now     func() time.Time
}

// NewUploadService creates a new UploadService
func NewUploadService(storage ObjectStorage, config UploadServiceConfig) *UploadService {
	return &UploadService{storage: storage, config: config, now: time.Now}
}

// Upload validates and stores files. Files stored before a failure are removed again.
func (s *UploadService) Upload(ctx context.Context, files []UploadFile) ([]UploadResponse, error) {
	var v shared.Validator
	v.Check(len(files) > 0, "files", "at least one file is required")
	for i, f := range files {
		path := fmt.Sprintf("files.%d", i)
		v.Check(isAllowedContentType(f.ContentType), path, "file type "+f.ContentType+" is not allowed")
		v.Check(f.Size > 0 && f.Size <= s.config.MaxFileSize, path, fmt.Sprintf("file size must be between 1 and %d bytes", s.config.MaxFileSize))
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	out := make([]UploadResponse, 0, len(files))
	for _, f := range files {
		key := s.generateStorageKey(f.FileName, f.ContentType)
		if err := s.storage.Put(ctx, key, f.Body, f.Size, f.ContentType); err != nil {
			s.cleanup(ctx, out)
			return nil, fmt.Errorf("store %s: %w", f.FileName, err)
		}
		url, err := s.storage.URL(ctx, key)
		if err != nil {
			s.cleanup(ctx, append(out, UploadResponse{Key: key}))
			return nil, fmt.Errorf("resolve url: %w", err)
		}
		out = append(out, UploadResponse{Key: key, URL: url, Name: filepath.Base(f.FileName), Size: f.Size})
	}
	return out, nil
}

// Delete removes a stored file
func (s *UploadService) Delete(ctx context.Context, key string) error {
	if !strings.HasPrefix(key, s.config.KeyPrefix+"/") || strings.Contains(key, "..") {
		return shared.NewInvalidDataError("key", "invalid upload key")
	}
	return s.storage.Delete(ctx, key)
}

func (s *UploadService) cleanup(ctx context.Context, stored []UploadResponse) {
	for _, u := range stored {
		_ = s.storage.Delete(ctx, u.Key)
	}
}

// generateStorageKey generates a unique storage key for a file
func (s *UploadService) generateStorageKey(fileName, contentType string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	if want := AllowedContentTypes[normalizeContentType(contentType)]; ext == "" || (ext != want && !(want == ".jpg" && ext == ".jpeg")) {
		ext = want
	}
	// Format: {prefix}/{yyyy}/{mm}/{uuid}{ext}
	return fmt.Sprintf("%s/%s/%s%s", s.config.KeyPrefix, s.now().UTC().Format("2006/01"), uuid.NewString(), ext)
}

func normalizeContentType(contentType string) string {
	ct, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(ct))
}

// isAllowedContentType checks if a content type is in the whitelist
func isAllowedContentType(contentType string) bool {
	_, ok := AllowedContentTypes[normalizeContentType(contentType)]
	return ok
}
