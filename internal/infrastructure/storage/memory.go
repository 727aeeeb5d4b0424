package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/lostcode-dev/cashdesk/internal/infrastructure/reporting"
)

var _ reporting.ObjectStorageService = (*MemoryObjectStorage)(nil)

type memoryObject struct {
	data        []byte
	contentType string
}

// MemoryObjectStorage keeps uploaded statements in process memory. It backs
// development environments without an object store; statements vanish on
// restart.
type MemoryObjectStorage struct {
	mu      sync.RWMutex
	objects map[string]memoryObject

	// BaseURL prefixes the fake download URLs.
	BaseURL string
}

func NewMemoryObjectStorage() *MemoryObjectStorage {
	return &MemoryObjectStorage{
		objects: make(map[string]memoryObject),
		BaseURL: "https://storage.invalid",
	}
}

// Upload stores the object under the given key, replacing any previous
// version.
func (s *MemoryObjectStorage) Upload(ctx context.Context, storageKey string, data []byte, contentType string) error {
	if storageKey == "" {
		return errors.New("storage key is required")
	}

	buf := make([]byte, len(data))
	copy(buf, data)

	s.mu.Lock()
	s.objects[storageKey] = memoryObject{data: buf, contentType: contentType}
	s.mu.Unlock()
	return nil
}

// GenerateDownloadURL returns a fake URL for a previously uploaded object.
// Unlike the S3 implementation it fails for unknown keys, which keeps dev
// behavior honest about missing uploads.
func (s *MemoryObjectStorage) GenerateDownloadURL(
	ctx context.Context,
	storageKey string,
	expiresIn time.Duration,
) (string, time.Time, error) {
	if storageKey == "" {
		return "", time.Time{}, errors.New("storage key is required")
	}

	s.mu.RLock()
	_, ok := s.objects[storageKey]
	s.mu.RUnlock()
	if !ok {
		return "", time.Time{}, fmt.Errorf("object %q not found", storageKey)
	}

	if expiresIn <= 0 {
		expiresIn = defaultPresignExpiration
	}
	expiresAt := time.Now().Add(expiresIn)
	return s.BaseURL + "/download/" + storageKey, expiresAt, nil
}

// Object returns a stored object's bytes and content type.
func (s *MemoryObjectStorage) Object(storageKey string) (data []byte, contentType string, ok bool) {
	s.mu.RLock()
	obj, found := s.objects[storageKey]
	s.mu.RUnlock()
	if !found {
		return nil, "", false
	}
	return obj.data, obj.contentType, true
}

// Len reports how many objects are stored.
func (s *MemoryObjectStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
