package storage

import (
	"context"
	"errors"
	"maps"
	"net/url"
	"slices"
	"sync"
	"time"

	"github.com/tradeflow/backend/internal/application/workflow"
)

// ErrObjectNotFound is returned when no document is stored under a key
var ErrObjectNotFound = errors.New("archived object not found")

// MemoryArchive keeps bundle documents in process. It backs development
// and tests when no object store is configured.
type MemoryArchive struct {
	// BaseURL prefixes the links handed out by DownloadURL
	BaseURL string

	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemoryArchive creates an empty MemoryArchive
func NewMemoryArchive() *MemoryArchive {
	return &MemoryArchive{
		BaseURL: "memory://proofs",
		objects: make(map[string][]byte),
	}
}

var (
	_ workflow.BundleArchive = (*MemoryArchive)(nil)
	_ workflow.ArchiveLinker = (*MemoryArchive)(nil)
)

// Archive stores a copy of document under key
func (m *MemoryArchive) Archive(ctx context.Context, key string, document []byte) error {
	if key == "" {
		return ErrEmptyKey
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = slices.Clone(document)
	return nil
}

// Fetch returns a copy of the document stored under key
func (m *MemoryArchive) Fetch(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.objects[key]
	if !ok {
		return nil, ErrObjectNotFound
	}
	return slices.Clone(doc), nil
}

// Exists reports whether key is stored
func (m *MemoryArchive) Exists(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, ErrEmptyKey
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[key]
	return ok, nil
}

// DownloadURL returns a pseudo link for a stored key
func (m *MemoryArchive) DownloadURL(ctx context.Context, key string, expiresIn time.Duration) (string, time.Time, error) {
	if ok, err := m.Exists(ctx, key); err != nil {
		return "", time.Time{}, err
	} else if !ok {
		return "", time.Time{}, ErrObjectNotFound
	}
	expiresAt := time.Now().Add(expiresIn)
	link := m.BaseURL + "/" + key + "?expires=" + url.QueryEscape(expiresAt.UTC().Format(time.RFC3339))
	return link, expiresAt, nil
}

// Keys lists the stored keys in order
func (m *MemoryArchive) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Sorted(maps.Keys(m.objects))
}
