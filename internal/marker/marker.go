package marker

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/samvad-hq/campaign-mirror/internal/domain"
	"github.com/samvad-hq/campaign-mirror/internal/objectstore"
)

// ErrNotFound means no marker has ever been written.
var ErrNotFound = errors.New("marker not found")

const (
	DefaultKey  = "latest.txt"
	contentType = "text/plain"
)

// ObjectStore is the storage surface the marker needs.
type ObjectStore interface {
	Put(ctx context.Context, item domain.PublishItem) error
	Get(ctx context.Context, key string) ([]byte, error)
}

// Store persists the detail URL of the last published campaign under a single key.
// Writes are unconditional overwrites; callers must not run concurrently.
type Store struct {
	objects ObjectStore
	key     string
}

// New returns a marker store writing to key (latest.txt when empty).
func New(objects ObjectStore, key string) *Store {
	if strings.TrimSpace(key) == "" {
		key = DefaultKey
	}
	return &Store{objects: objects, key: key}
}

// Read returns the stored marker. It returns ErrNotFound on first run;
// every other failure is returned as-is.
func (s *Store) Read(ctx context.Context) (string, error) {
	data, err := s.objects.Get(ctx, s.key)
	if err != nil {
		if errors.Is(err, objectstore.ErrNotFound) {
			return "", fmt.Errorf("%s: %w", s.key, ErrNotFound)
		}
		return "", fmt.Errorf("read marker: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Write overwrites the marker with value.
func (s *Store) Write(ctx context.Context, value string) error {
	err := s.objects.Put(ctx, domain.PublishItem{
		Payload:     domain.TextPayload(value),
		Key:         s.key,
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("write marker: %w", err)
	}
	return nil
}
