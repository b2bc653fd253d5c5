// internal/repository/gorm_store.go
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"go_4_review_keep/internal/model"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// documentRow は documents テーブルの1行 (= ドキュメント1件) です。
type documentRow struct {
	Name        string `gorm:"primaryKey;type:varchar(255)"`
	Body        []byte `gorm:"not null"`
	ContentType string `gorm:"type:varchar(100)"`
	Metadata    string // JSON
	Version     int64  `gorm:"not null;default:1"`
	UpdatedAt   time.Time
}

func (documentRow) TableName() string {
	return "documents"
}

// GormStore はデータベースの documents テーブルにドキュメントを丸ごと保存する BlobStore です。
// 版は行ごとのバージョン番号で、書き込みのたびに1増えます。
type GormStore struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewGormStore は documents テーブルをマイグレーションして GormStore を返します。
func NewGormStore(db *gorm.DB, logger *slog.Logger) (*GormStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := db.AutoMigrate(&documentRow{}); err != nil {
		return nil, fmt.Errorf("migrate documents table: %w", err)
	}
	return &GormStore{db: db, logger: logger}, nil
}

func (s *GormStore) Get(ctx context.Context, name string) (*Blob, error) {
	var row documentRow
	result := s.db.WithContext(ctx).Where("name = ?", name).First(&row)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, result.Error
	}

	blob := &Blob{Data: row.Body, Version: rowVersion(row.Version)}
	if row.Metadata != "" {
		if err := json.Unmarshal([]byte(row.Metadata), &blob.Metadata); err != nil {
			blob.Metadata = nil
			s.logger.WarnContext(ctx, "Ignoring corrupt document metadata", slog.String("name", name), slog.Any("error", err))
		}
	}
	return blob, nil
}

func (s *GormStore) Put(ctx context.Context, name string, data []byte, opts PutOptions) (Version, error) {
	meta := ""
	if len(opts.Metadata) > 0 {
		b, err := json.Marshal(opts.Metadata)
		if err != nil {
			return "", err
		}
		meta = string(b)
	}
	values := map[string]interface{}{
		"body":         data,
		"content_type": opts.ContentType,
		"metadata":     meta,
		"version":      gorm.Expr("version + 1"),
		"updated_at":   time.Now(),
	}

	var newVersion int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if opts.IfMatch != "" {
			expected, err := strconv.ParseInt(string(opts.IfMatch), 10, 64)
			if err != nil {
				return model.ErrConflict
			}
			result := tx.Model(&documentRow{}).
				Where("name = ? AND version = ?", name, expected).
				Updates(values)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return model.ErrConflict
			}
			newVersion = expected + 1
			return nil
		}

		if !opts.IfAbsent {
			v, found, err := updateRow(tx, name, values)
			if err != nil || found {
				newVersion = v
				return err
			}
		}

		row := documentRow{Name: name, Body: data, ContentType: opts.ContentType, Metadata: meta, Version: 1}
		err := tx.Create(&row).Error
		switch {
		case err == nil:
			newVersion = 1
			return nil
		case !isDuplicateKey(err):
			return err
		case opts.IfAbsent:
			return model.ErrConflict
		}
		// 読み込み後に他のリクエストが行を作成した
		return errConcurrentCreate
	})
	if errors.Is(err, errConcurrentCreate) {
		// 失敗したトランザクションは破棄されているので、新しいトランザクションで上書きする
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			v, found, err := updateRow(tx, name, values)
			if err == nil && !found {
				err = fmt.Errorf("document %s disappeared during overwrite", name)
			}
			newVersion = v
			return err
		})
	}
	if err != nil {
		if errors.Is(err, model.ErrConflict) {
			return "", fmt.Errorf("db put %s: %w", name, err)
		}
		return "", err
	}
	return rowVersion(newVersion), nil
}

var errConcurrentCreate = errors.New("document row created concurrently")

// updateRow は既存の行を無条件に上書きし、更新後のバージョンを返します。行が無ければ found は false。
func updateRow(tx *gorm.DB, name string, values map[string]interface{}) (version int64, found bool, err error) {
	result := tx.Model(&documentRow{}).Where("name = ?", name).Updates(values)
	if result.Error != nil {
		return 0, false, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, false, nil
	}
	var row documentRow
	if err := tx.Select("version").Where("name = ?", name).First(&row).Error; err != nil {
		return 0, true, err
	}
	return row.Version, true, nil
}

// isDuplicateKey は主キー重複かどうかを判定します。
// TranslateError を有効にしていない *gorm.DB が渡された場合も Postgres のエラーコードで判定します。
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func rowVersion(v int64) Version {
	return Version(strconv.FormatInt(v, 10))
}
