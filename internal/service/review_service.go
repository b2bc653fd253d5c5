package service

import (
	"context"
	"errors"

	"go_4_review_keep/internal/config"
	"go_4_review_keep/internal/middleware"
	"go_4_review_keep/internal/model"
	"go_4_review_keep/internal/repository"
)

// ReviewService はレビュー台帳 (review.json) の一覧取得と upsert を提供します。
type ReviewService interface {
	ListReviews(ctx context.Context) (model.ReviewLedger, error)
	UpsertReview(ctx context.Context, req *model.SubmitReviewRequest) (*model.ReviewRecord, int, error)
}

type reviewService struct {
	repo            repository.ReviewRepository
	conflictRetries int
}

func NewReviewService(repo repository.ReviewRepository, cfg *config.Config) ReviewService {
	retries := config.DefaultConflictRetries
	if cfg != nil {
		retries = cfg.Store.ConflictRetries
	}
	return &reviewService{
		repo:            repo,
		conflictRetries: retries,
	}
}

// ListReviews は台帳を登録順のまま返します。ドキュメントが無い場合は空の台帳です。
func (s *reviewService) ListReviews(ctx context.Context) (model.ReviewLedger, error) {
	logger := middleware.GetLogger(ctx)

	ledger, _, err := s.repo.Load(ctx)
	if err != nil {
		logger.Error("Failed to load review ledger", "error", err)
		return nil, toAppError(err)
	}

	logger.Info("Retrieved reviews", "count", len(ledger))
	return ledger, nil
}

// UpsertReview は review_id が一致するレコードをその位置で置き換え、無ければ末尾に追加して台帳全体を書き戻します。
// 他のレコードは保存されていた JSON のまま書き戻します。
// 必須項目の検証はデータストアにアクセスする前に行います。
// 戻り値は保存したレコードと保存後の総件数です。
func (s *reviewService) UpsertReview(ctx context.Context, req *model.SubmitReviewRequest) (*model.ReviewRecord, int, error) {
	logger := middleware.GetLogger(ctx)

	if req == nil {
		return nil, 0, model.NewAppError("INVALID_REQUEST_BODY", "リクエストボディが空です。", "", model.ErrInvalidInput)
	}
	record, err := req.ToRecord()
	if err != nil {
		logger.Warn("Review submission is missing a required field", "error", err)
		return nil, 0, err
	}
	entry, err := model.NewReviewEntry(record)
	if err != nil {
		return nil, 0, model.NewAppError("INVALID_REQUEST_BODY", "レビューをJSONに変換できませんでした。", "", errors.Join(model.ErrInvalidInput, err))
	}
	logger = logger.With("review_id", record.ReviewID)

	var total int
	err = runReadModifyWrite(ctx, logger, s.repo.Policy(), s.conflictRetries, func() error {
		ledger, version, err := s.repo.Load(ctx)
		if err != nil {
			return err
		}
		logger.Debug("Loaded existing reviews", "count", len(ledger))

		index, replaced := ledger.Upsert(entry)
		if err := s.repo.Save(ctx, ledger, version); err != nil {
			return err
		}

		total = len(ledger)
		if replaced {
			logger.Info("Updated existing review", "index", index, "total", total)
		} else {
			logger.Info("Added new review", "total", total)
		}
		return nil
	})
	if err != nil {
		logger.Error("Failed to save review", "error", err)
		return nil, 0, toAppError(err)
	}

	return &record, total, nil
}
