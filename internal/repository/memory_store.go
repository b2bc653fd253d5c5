// internal/repository/memory_store.go
package repository

import (
	"context"
	"sync"

	"go_4_review_keep/internal/model"

	"github.com/google/uuid"
)

// MemoryStore はプロセス内のマップにドキュメントを保持する BlobStore です。
// 開発・テスト用で、再起動すると内容は失われます。
type MemoryStore struct {
	mu    sync.Mutex
	blobs map[string]Blob
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string]Blob)}
}

func (s *MemoryStore) Get(ctx context.Context, name string) (*Blob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.blobs[name]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &Blob{
		Data:     append([]byte(nil), b.Data...),
		Version:  b.Version,
		Metadata: copyMetadata(b.Metadata),
	}, nil
}

func (s *MemoryStore) Put(ctx context.Context, name string, data []byte, opts PutOptions) (Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.blobs[name]
	if opts.IfAbsent && exists {
		return "", model.ErrConflict
	}
	if opts.IfMatch != "" && (!exists || current.Version != opts.IfMatch) {
		return "", model.ErrConflict
	}

	v := Version(uuid.NewString())
	s.blobs[name] = Blob{
		Data:     append([]byte(nil), data...),
		Version:  v,
		Metadata: copyMetadata(opts.Metadata),
	}
	return v, nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}
