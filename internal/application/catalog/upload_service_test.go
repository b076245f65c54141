package catalog

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/commerce/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStorage struct {
	mu      sync.Mutex
	objects map[string]string
	failOn  int
	puts    int
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{objects: map[string]string{}}
}

func (m *memoryStorage) Put(_ context.Context, key string, body io.Reader, _ int64, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts++
	if m.failOn > 0 && m.puts == m.failOn {
		return errors.New("disk full")
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.objects[key] = string(data)
	return nil
}

func (m *memoryStorage) URL(_ context.Context, key string) (string, error) {
	return "/static/" + key, nil
}

func (m *memoryStorage) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func image(name, contentType, body string) UploadFile {
	return UploadFile{FileName: name, ContentType: contentType, Size: int64(len(body)), Body: strings.NewReader(body)}
}

func TestUploadService_Upload(t *testing.T) {
	storage := newMemoryStorage()
	svc := NewUploadService(storage, DefaultUploadServiceConfig())
	svc.now = func() time.Time { return time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC) }

	out, err := svc.Upload(context.Background(), []UploadFile{
		image("photo.JPEG", "image/jpeg", "jpegdata"),
		image("noext", "image/png; charset=binary", "pngdata"),
	})
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.True(t, strings.HasPrefix(out[0].Key, "uploads/2024/03/"))
	assert.True(t, strings.HasSuffix(out[0].Key, ".jpeg"))
	assert.True(t, strings.HasSuffix(out[1].Key, ".png"))
	assert.Equal(t, "/static/"+out[0].Key, out[0].URL)
	assert.Equal(t, "photo.JPEG", out[0].Name)
	assert.Equal(t, "pngdata", storage.objects[out[1].Key])
}

func TestUploadService_Upload_Rejects(t *testing.T) {
	svc := NewUploadService(newMemoryStorage(), UploadServiceConfig{MaxFileSize: 4, KeyPrefix: "uploads"})

	tests := []struct {
		name  string
		files []UploadFile
		path  string
	}{
		{"no files", nil, "files"},
		{"svg", []UploadFile{image("x.svg", "image/svg+xml", "<s>")}, "files.0"},
		{"too large", []UploadFile{image("a.png", "image/png", "ok"), image("b.png", "image/png", "toolarge")}, "files.1"},
		{"empty", []UploadFile{image("a.png", "image/png", "")}, "files.0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Upload(context.Background(), tt.files)
			var verr *shared.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.path, verr.Issues[0].Path)
		})
	}
}

func TestUploadService_Upload_CleansUpOnFailure(t *testing.T) {
	storage := newMemoryStorage()
	storage.failOn = 2
	svc := NewUploadService(storage, DefaultUploadServiceConfig())

	_, err := svc.Upload(context.Background(), []UploadFile{
		image("a.png", "image/png", "a"),
		image("b.png", "image/png", "b"),
	})
	require.Error(t, err)
	assert.Empty(t, storage.objects)
}

func TestUploadService_Delete(t *testing.T) {
	storage := newMemoryStorage()
	svc := NewUploadService(storage, DefaultUploadServiceConfig())
	storage.objects["uploads/2024/01/a.png"] = "a"

	require.NoError(t, svc.Delete(context.Background(), "uploads/2024/01/a.png"))
	assert.Empty(t, storage.objects)

	assert.Error(t, svc.Delete(context.Background(), "uploads/../secrets"))
	assert.Error(t, svc.Delete(context.Background(), "other/a.png"))
}
