// internal/repository/review_repository.go
package repository

import (
	"context"
	"strconv"

	"go_4_review_keep/internal/model"
)

// DefaultReviewDocument は review.json の既定名
const DefaultReviewDocument = "review.json"

// ReviewRepository はレビュー台帳 (review.json) の読み込みと書き戻しを担当します。
type ReviewRepository interface {
	Load(ctx context.Context) (model.ReviewLedger, Version, error)
	Save(ctx context.Context, ledger model.ReviewLedger, expected Version) error
	Policy() WritePolicy
}

type documentReviewRepository struct {
	doc *JSONDocument[model.ReviewLedger]
}

func NewReviewRepository(blobs BlobStore, name string, policy WritePolicy) ReviewRepository {
	if name == "" {
		name = DefaultReviewDocument
	}
	return &documentReviewRepository{
		doc: NewJSONDocument(blobs, name, policy, func() model.ReviewLedger {
			return model.ReviewLedger{}
		}),
	}
}

func (r *documentReviewRepository) Load(ctx context.Context) (model.ReviewLedger, Version, error) {
	ledger, version, err := r.doc.Load(ctx)
	if err != nil {
		return nil, "", err
	}
	// "null" が保存されていた場合も空配列として扱う
	if ledger == nil {
		ledger = model.ReviewLedger{}
	}
	return ledger, version, nil
}

// Save は台帳全体を上書きし、件数を total-reviews メタデータに記録します。
func (r *documentReviewRepository) Save(ctx context.Context, ledger model.ReviewLedger, expected Version) error {
	if ledger == nil {
		ledger = model.ReviewLedger{}
	}
	return r.doc.Save(ctx, ledger, expected, map[string]string{
		MetaTotalReviews: strconv.Itoa(len(ledger)),
	})
}

func (r *documentReviewRepository) Policy() WritePolicy {
	return r.doc.Policy()
}
