// internal/repository/blob_store.go
package repository

import (
	"context"
)

// Version はバックエンドが返す保存済みドキュメントの版 (S3 の ETag、GCS の generation など)。
// 空文字は「ドキュメントが存在しない」ことを表します。
type Version string

// Blob は名前付きドキュメント1件分の生データです。
type Blob struct {
	Data     []byte
	Version  Version
	Metadata map[string]string
}

// PutOptions は書き込み時のオプションです。
type PutOptions struct {
	ContentType string
	Metadata    map[string]string

	// IfMatch が空でない場合、現在の版が一致するときだけ書き込みます。
	IfMatch Version
	// IfAbsent が true の場合、ドキュメントがまだ存在しないときだけ書き込みます。
	IfAbsent bool
}

// Conditional は前提条件付きの書き込みかどうかを返します。
func (o PutOptions) Conditional() bool {
	return o.IfAbsent || o.IfMatch != ""
}

// BlobStore はドキュメントを丸ごと読み書きするバックエンドの契約です。
//   - Get: 存在しない場合は model.ErrNotFound を返す
//   - Put: 常に全体を上書きする。前提条件が満たされない場合は model.ErrConflict を返す
//
// バックエンド自身はリクエスト間のロックを提供しません。
type BlobStore interface {
	Get(ctx context.Context, name string) (*Blob, error)
	Put(ctx context.Context, name string, data []byte, opts PutOptions) (Version, error)
}

// Pinger はヘルスチェック用に疎通確認ができるバックエンドが実装します。
type Pinger interface {
	Ping(ctx context.Context) error
}

// メタデータのキー
const (
	MetaLastUpdated  = "last-updated"
	MetaTotalReviews = "total-reviews"
)

const contentTypeJSON = "application/json"

func copyMetadata(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
