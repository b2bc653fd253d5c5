// internal/repository/store.go
package repository

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go_4_review_keep/internal/config"
)

// NormalizeBackend は store.backend の値を正規の名前にします。空文字は s3。
func NormalizeBackend(backend string) string {
	switch b := strings.ToLower(strings.TrimSpace(backend)); b {
	case "":
		return "s3"
	case "db":
		return "database"
	case "file":
		return "fs"
	default:
		return b
	}
}

// NewBlobStore は store.backend の設定に応じてバックエンドを生成します。
// 戻り値の close は終了時に呼び出してください (不要なバックエンドでは何もしません)。
func NewBlobStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store BlobStore, closeFn func() error, err error) {
	if logger == nil {
		logger = slog.Default()
	}
	noop := func() error { return nil }

	backend := NormalizeBackend(cfg.Store.Backend)
	logger.Info("Initializing document store", slog.String("backend", backend))

	switch backend {
	case "s3":
		s, err := NewS3Store(ctx, &cfg.S3, logger)
		if err != nil {
			return nil, nil, err
		}
		return s, noop, nil
	case "gcs":
		s, err := NewGCSStore(ctx, &cfg.GCS)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case "azure":
		s, err := NewAzureBlobStore(&cfg.Azure)
		if err != nil {
			return nil, nil, err
		}
		return s, noop, nil
	case "database":
		db, err := NewDB(cfg.Database.Driver, cfg.Database.URL, logger)
		if err != nil {
			return nil, nil, err
		}
		s, err := NewGormStore(db, logger)
		if err != nil {
			return nil, nil, err
		}
		closeDB := func() error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		}
		return s, closeDB, nil
	case "fs":
		s, err := NewFSStore(cfg.FS.Dir, logger)
		if err != nil {
			return nil, nil, err
		}
		return s, noop, nil
	case "memory":
		logger.Warn("Using in-memory document store; data is lost on restart")
		return NewMemoryStore(), noop, nil
	}
	return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
}
