// cmd/copy_documents/main.go
//
// review.json と progress.json を、設定ファイルのバックエンドから別のバックエンドへ丸ごとコピーします。
// 例: S3 の既存データを database バックエンドへ移す
//
//	APP_DATABASE_URL=postgres://... go run ./cmd/copy_documents -to database
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"go_4_review_keep/internal/config"
	"go_4_review_keep/internal/model"
	"go_4_review_keep/internal/repository"
)

func main() {
	to := flag.String("to", "", "コピー先のバックエンド (s3 | gcs | azure | database | fs | memory)")
	configDir := flag.String("config", "configs", "config.yaml のディレクトリ")
	overwrite := flag.Bool("overwrite", false, "コピー先に同名のドキュメントがあっても上書きする")
	timeout := flag.Duration("timeout", 2*time.Minute, "全体のタイムアウト")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	if err := run(logger, *to, *configDir, *overwrite, *timeout); err != nil {
		logger.Error("Copy failed", slog.Any("error", err))
		os.Exit(1)
	}
}

// run はコピー元とコピー先を開いてドキュメントをコピーします。
// どちらのストアも戻る前に閉じます。
func run(logger *slog.Logger, to, configDir string, overwrite bool, timeout time.Duration) (err error) {
	if to == "" {
		return errors.New("-to is required")
	}

	srcCfg, err := config.Load(configDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	dstCfg := *srcCfg
	dstCfg.Store.Backend = repository.NormalizeBackend(to)
	if dstCfg.Store.Backend == repository.NormalizeBackend(srcCfg.Store.Backend) {
		return fmt.Errorf("source and destination are the same backend (%s)", dstCfg.Store.Backend)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	src, closeSrc, err := repository.NewBlobStore(ctx, srcCfg, logger)
	if err != nil {
		return fmt.Errorf("open source store: %w", err)
	}
	defer func() { err = errors.Join(err, closeSrc()) }()

	dst, closeDst, err := repository.NewBlobStore(ctx, &dstCfg, logger)
	if err != nil {
		return fmt.Errorf("open destination store: %w", err)
	}
	defer func() { err = errors.Join(err, closeDst()) }()

	copied := 0
	for _, name := range []string{srcCfg.Store.ReviewDocument, srcCfg.Store.ProgressDocument} {
		ok, err := copyDocument(ctx, src, dst, name, overwrite)
		if err != nil {
			return fmt.Errorf("copy %s: %w", name, err)
		}
		if ok {
			copied++
		}
	}

	logger.Info("Copy finished",
		slog.String("from", repository.NormalizeBackend(srcCfg.Store.Backend)),
		slog.String("to", dstCfg.Store.Backend),
		slog.Int("copied", copied),
	)
	return nil
}

// copyDocument は1件のドキュメントを内容とメタデータごとコピーします。
// コピー元に無い場合は何もせず false を返します。
func copyDocument(ctx context.Context, src, dst repository.BlobStore, name string, overwrite bool) (bool, error) {
	blob, err := src.Get(ctx, name)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			slog.Warn("Source document does not exist, skipping", slog.String("name", name))
			return false, nil
		}
		return false, err
	}

	_, err = dst.Put(ctx, name, blob.Data, repository.PutOptions{
		ContentType: "application/json",
		Metadata:    blob.Metadata,
		IfAbsent:    !overwrite,
	})
	if err != nil {
		if errors.Is(err, model.ErrConflict) {
			return false, errors.New(name + " already exists in destination (use -overwrite)")
		}
		return false, err
	}

	slog.Info("Copied document", slog.String("name", name), slog.Int("bytes", len(blob.Data)))
	return true, nil
}
