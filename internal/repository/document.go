// internal/repository/document.go
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go_4_review_keep/internal/model"
)

// WritePolicy は読み込み→変更→書き戻しの競合をどう扱うかを決めます。
type WritePolicy string

const (
	// WritePolicyLastWriteWins は無条件に上書きします (後から保存した方が勝つ)。
	WritePolicyLastWriteWins WritePolicy = "last_write_wins"
	// WritePolicyOptimistic は読み込んだ版を前提条件にして書き込みます。
	WritePolicyOptimistic WritePolicy = "optimistic"
)

// ParseWritePolicy は設定値を WritePolicy に変換します。空文字は last_write_wins。
func ParseWritePolicy(s string) (WritePolicy, error) {
	switch WritePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", WritePolicyLastWriteWins:
		return WritePolicyLastWriteWins, nil
	case WritePolicyOptimistic:
		return WritePolicyOptimistic, nil
	}
	return "", fmt.Errorf("unknown write policy %q", s)
}

// JSONDocument は BlobStore 上の名前付き JSON ドキュメント1つを型付きで扱います。
type JSONDocument[T any] struct {
	blobs  BlobStore
	name   string
	policy WritePolicy
	empty  func() T
	now    func() time.Time
}

// NewJSONDocument はドキュメントを作成します。empty はドキュメントが存在しないときの既定値を返します。
func NewJSONDocument[T any](blobs BlobStore, name string, policy WritePolicy, empty func() T) *JSONDocument[T] {
	if policy == "" {
		policy = WritePolicyLastWriteWins
	}
	return &JSONDocument[T]{
		blobs:  blobs,
		name:   name,
		policy: policy,
		empty:  empty,
		now:    time.Now,
	}
}

func (d *JSONDocument[T]) Name() string { return d.name }

func (d *JSONDocument[T]) Policy() WritePolicy { return d.policy }

// Load はドキュメントを取得してデコードします。
// 存在しない場合はエラーにせず、既定値と空の Version を返します。
func (d *JSONDocument[T]) Load(ctx context.Context) (T, Version, error) {
	blob, err := d.blobs.Get(ctx, d.name)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return d.empty(), "", nil
		}
		var zero T
		return zero, "", fmt.Errorf("%w: load %s: %w", model.ErrStoreFailure, d.name, err)
	}

	doc := d.empty()
	if len(blob.Data) == 0 {
		return doc, blob.Version, nil
	}
	if err := json.Unmarshal(blob.Data, &doc); err != nil {
		var zero T
		return zero, "", fmt.Errorf("%w: decode %s: %w", model.ErrStoreFailure, d.name, err)
	}
	return doc, blob.Version, nil
}

// Save はドキュメント全体を整形済み JSON で上書きします。
// 最終更新日時 (last-updated) は常に付与し、meta の内容を追加します。
// optimistic ポリシーでは expected を前提条件として書き込み、一致しなければ model.ErrConflict を返します。
func (d *JSONDocument[T]) Save(ctx context.Context, doc T, expected Version, meta map[string]string) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode %s: %w", model.ErrStoreFailure, d.name, err)
	}

	opts := PutOptions{
		ContentType: contentTypeJSON,
		Metadata:    map[string]string{MetaLastUpdated: model.FormatTimestamp(d.now())},
	}
	for k, v := range meta {
		opts.Metadata[k] = v
	}
	if d.policy == WritePolicyOptimistic {
		if expected == "" {
			opts.IfAbsent = true
		} else {
			opts.IfMatch = expected
		}
	}

	if _, err := d.blobs.Put(ctx, d.name, data, opts); err != nil {
		if errors.Is(err, model.ErrConflict) {
			return fmt.Errorf("save %s: %w", d.name, err)
		}
		return fmt.Errorf("%w: save %s: %w", model.ErrStoreFailure, d.name, err)
	}
	return nil
}
