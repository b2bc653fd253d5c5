package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go_4_review_keep/internal/model"
	"go_4_review_keep/internal/repository"
)

// runReadModifyWrite は「読み込み→変更→書き戻し」の1サイクルを実行します。
// optimistic ポリシーで書き込みが競合した場合に限り、読み込みからやり直します (最大 retries 回)。
// last_write_wins では競合が検出されないため、1回だけ実行します。
func runReadModifyWrite(ctx context.Context, logger *slog.Logger, policy repository.WritePolicy, retries int, cycle func() error) error {
	attempts := 1
	if policy == repository.WritePolicyOptimistic {
		attempts += retries
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = cycle()
		if err == nil || !errors.Is(err, model.ErrConflict) {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		logger.Warn("Document was modified concurrently, retrying", "attempt", attempt, "max_attempts", attempts)
	}
	return err
}

// toAppError はリポジトリのエラーをクライアント向けの AppError に変換します。
func toAppError(err error) error {
	var appErr *model.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, model.ErrConflict) {
		return model.NewAppError("WRITE_CONFLICT", "他のリクエストと同時に更新されたため保存できませんでした。もう一度お試しください。", "", err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		if !errors.Is(err, model.ErrStoreFailure) {
			err = fmt.Errorf("%w: %w", model.ErrStoreFailure, err)
		}
		return model.NewAppError("STORE_FAILURE", "データストアへのアクセスがタイムアウトしました: "+err.Error(), "", err)
	}
	// バックエンドのメッセージをそのまま添える
	return model.NewAppError("STORE_FAILURE", "データストアへのアクセスに失敗しました: "+err.Error(), "", err)
}
