package storage

import (
	"context"
	"crypto/sha256"
	"encoding/base32"
	"io"
	"sync"

	"github.com/veristream/veristream-internal/internal/common/apperrors"
)

// MemoryStore is an in-process content-addressed store used for local mode
// and tests. The hash is derived from the content bytes only, so identical
// bytes always map to the same address.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte)}
}

var hashEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

func (s *MemoryStore) Put(_ context.Context, _ string, r io.Reader) (string, apperrors.Error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", ErrStorage.Err(err)
	}
	sum := sha256.Sum256(data)
	hash := "Qm" + hashEncoding.EncodeToString(sum[:20])

	s.mu.Lock()
	s.blobs[hash] = data
	s.mu.Unlock()
	return hash, nil
}

// Get returns the stored blob, or false if the hash is unknown.
func (s *MemoryStore) Get(hash string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.blobs[hash]
	return data, ok
}

// Len reports the number of distinct blobs held.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}
