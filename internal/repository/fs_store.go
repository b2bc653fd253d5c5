// internal/repository/fs_store.go
package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go_4_review_keep/internal/model"
)

// FSStore はローカルディレクトリにドキュメントを保存する BlobStore です。
// メタデータは "<name>.meta.json" に保存し、版は内容の SHA-256 です。
// 前提条件の判定は同一プロセス内でのみ有効です。
type FSStore struct {
	base   string
	mu     sync.Mutex
	logger *slog.Logger
}

func NewFSStore(base string, logger *slog.Logger) (*FSStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if base == "" {
		base = "./data"
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir %s: %w", base, err)
	}
	return &FSStore{base: base, logger: logger}, nil
}

func (s *FSStore) path(name string) (string, error) {
	clean := filepath.Clean("/" + name)
	if clean == "/" || strings.HasSuffix(clean, ".meta.json") {
		return "", fmt.Errorf("invalid document name %q", name)
	}
	return filepath.Join(s.base, clean), nil
}

func (s *FSStore) Get(ctx context.Context, name string) (*Blob, error) {
	p, err := s.path(name)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}

	blob := &Blob{Data: data, Version: contentVersion(data)}
	if meta, err := os.ReadFile(p + ".meta.json"); err == nil {
		// メタデータが壊れていても本体は返す
		if err := json.Unmarshal(meta, &blob.Metadata); err != nil {
			blob.Metadata = nil
			s.logger.WarnContext(ctx, "Ignoring corrupt document metadata", slog.String("name", name), slog.Any("error", err))
		}
	}
	return blob, nil
}

func (s *FSStore) Put(ctx context.Context, name string, data []byte, opts PutOptions) (Version, error) {
	p, err := s.path(name)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if opts.Conditional() {
		current, err := os.ReadFile(p)
		exists := err == nil
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
		if opts.IfAbsent && exists {
			return "", model.ErrConflict
		}
		if opts.IfMatch != "" && (!exists || contentVersion(current) != opts.IfMatch) {
			return "", model.ErrConflict
		}
	}

	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return "", err
	}
	if err := writeFileAtomic(p, data); err != nil {
		return "", err
	}
	if len(opts.Metadata) > 0 {
		meta, err := json.MarshalIndent(opts.Metadata, "", "  ")
		if err != nil {
			return "", err
		}
		if err := writeFileAtomic(p+".meta.json", meta); err != nil {
			return "", err
		}
	}
	return contentVersion(data), nil
}

func (s *FSStore) Ping(ctx context.Context) error {
	info, err := os.Stat(s.base)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", s.base)
	}
	return nil
}

// writeFileAtomic は一時ファイルに書いてから rename し、読み手が書きかけの内容を見ないようにします。
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

func contentVersion(data []byte) Version {
	sum := sha256.Sum256(data)
	return Version(hex.EncodeToString(sum[:]))
}
