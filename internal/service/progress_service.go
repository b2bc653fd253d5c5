package service

import (
	"context"
	"strings"
	"time"

	"go_4_review_keep/internal/config"
	"go_4_review_keep/internal/middleware"
	"go_4_review_keep/internal/model"
	"go_4_review_keep/internal/repository"
)

// ProgressService は (回答者, カテゴリ) ごとの進捗 (progress.json) を扱います。
type ProgressService interface {
	// GetProgress は保存済みの進捗を返します。まだ無い場合は nil, nil です。
	GetProgress(ctx context.Context, reviewerName, category string) (*model.ProgressRecord, error)
	SaveProgress(ctx context.Context, req *model.SaveProgressRequest) (*model.ProgressRecord, error)
}

type progressService struct {
	repo            repository.ProgressRepository
	conflictRetries int
	now             func() time.Time
}

func NewProgressService(repo repository.ProgressRepository, cfg *config.Config) ProgressService {
	retries := config.DefaultConflictRetries
	if cfg != nil {
		retries = cfg.Store.ConflictRetries
	}
	return &progressService{
		repo:            repo,
		conflictRetries: retries,
		now:             time.Now,
	}
}

func (s *progressService) GetProgress(ctx context.Context, reviewerName, category string) (*model.ProgressRecord, error) {
	logger := middleware.GetLogger(ctx)

	key, err := progressKey(reviewerName, category)
	if err != nil {
		return nil, err
	}
	logger = logger.With("progress_key", key.String())

	table, _, err := s.repo.Load(ctx)
	if err != nil {
		logger.Error("Failed to load progress document", "error", err)
		return nil, toAppError(err)
	}

	rec, ok := table.Get(key)
	if !ok {
		logger.Info("No progress saved yet")
		return nil, nil
	}
	logger.Info("Retrieved progress", "question_index", rec.QuestionIndex)
	return &rec, nil
}

// SaveProgress はキーの進捗を丸ごと置き換えます。以前の値は残りません。
// questionIndex は 0 でもよく、未指定の場合だけエラーです。
func (s *progressService) SaveProgress(ctx context.Context, req *model.SaveProgressRequest) (*model.ProgressRecord, error) {
	logger := middleware.GetLogger(ctx)

	if req == nil {
		return nil, model.NewAppError("INVALID_REQUEST_BODY", "リクエストボディが空です。", "", model.ErrInvalidInput)
	}
	key, err := progressKey(req.ReviewerName, req.Category)
	if err != nil {
		return nil, err
	}
	if req.QuestionIndex == nil {
		return nil, model.NewAppError("VALIDATION_ERROR", "questionIndexは必須項目です。", "questionIndex", model.ErrInvalidInput)
	}
	logger = logger.With("progress_key", key.String())

	var saved model.ProgressRecord
	err = runReadModifyWrite(ctx, logger, s.repo.Policy(), s.conflictRetries, func() error {
		table, version, err := s.repo.Load(ctx)
		if err != nil {
			return err
		}

		saved = model.ProgressRecord{
			ReviewerName:  key.Reviewer,
			Category:      key.Category,
			QuestionIndex: *req.QuestionIndex,
			Timestamp:     model.FormatTimestamp(s.now()),
		}
		table.Put(saved)
		return s.repo.Save(ctx, table, version)
	})
	if err != nil {
		logger.Error("Failed to save progress", "error", err)
		return nil, toAppError(err)
	}

	logger.Info("Progress saved", "question_index", saved.QuestionIndex)
	return &saved, nil
}

// progressKey は必須チェックと区切り文字のチェックをしてから複合キーを作ります。
func progressKey(reviewerName, category string) (model.ProgressKey, error) {
	switch {
	case reviewerName == "":
		return model.ProgressKey{}, model.NewAppError("VALIDATION_ERROR", "reviewerNameは必須項目です。", "reviewerName", model.ErrInvalidInput)
	case category == "":
		return model.ProgressKey{}, model.NewAppError("VALIDATION_ERROR", "categoryは必須項目です。", "category", model.ErrInvalidInput)
	case strings.Contains(reviewerName, model.ProgressKeySeparator):
		return model.ProgressKey{}, model.NewAppError("VALIDATION_ERROR", "reviewerNameに'__'を含めることはできません。", "reviewerName", model.ErrInvalidInput)
	case strings.Contains(category, model.ProgressKeySeparator):
		return model.ProgressKey{}, model.NewAppError("VALIDATION_ERROR", "categoryに'__'を含めることはできません。", "category", model.ErrInvalidInput)
	}
	return model.ProgressKey{Reviewer: reviewerName, Category: category}, nil
}
