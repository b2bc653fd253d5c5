// internal/service/review_service_test.go
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"go_4_review_keep/internal/config"
	"go_4_review_keep/internal/model"
	"go_4_review_keep/internal/repository"
	"go_4_review_keep/internal/repository/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }
func boolPtr(b bool) *bool    { return &b }

// newSubmitRequest は必須項目をすべて埋めたリクエストを返します。
func newSubmitRequest(reviewID, answer string) *model.SubmitReviewRequest {
	return &model.SubmitReviewRequest{
		ReviewID:      strPtr(reviewID),
		QuestionID:    strPtr("q-" + reviewID),
		QuestionSet:   strPtr("set-a"),
		QuestionIndex: intPtr(0),
		Category:      strPtr("science"),
		QuestionText:  strPtr("What is H2O?"),
		ReviewerName:  strPtr("alice"),
		Answer:        strPtr(answer),
		CorrectAnswer: strPtr("water"),
		IsCorrect:     boolPtr(answer == "water"),
		Timestamp:     strPtr("2024-05-01T10:00:00.000Z"),
	}
}

func testConfig(retries int) *config.Config {
	return &config.Config{Store: config.StoreConfig{ConflictRetries: retries}}
}

func newMemoryReviewService(policy repository.WritePolicy) (ReviewService, *repository.MemoryStore) {
	store := repository.NewMemoryStore()
	repo := repository.NewReviewRepository(store, "", policy)
	return NewReviewService(repo, testConfig(3)), store
}

func reviewIDs(ledger model.ReviewLedger) []string {
	ids := make([]string, 0, len(ledger))
	for _, r := range ledger {
		ids = append(ids, r.ReviewID)
	}
	return ids
}

// recordAt は台帳の i 番目を ReviewRecord としてデコードします。
func recordAt(t *testing.T, ledger model.ReviewLedger, i int) model.ReviewRecord {
	t.Helper()
	require.Greater(t, len(ledger), i)
	rec, err := ledger[i].Record()
	require.NoError(t, err)
	return rec
}

func Test_reviewService_ListReviews_EmptyStore(t *testing.T) {
	svc, _ := newMemoryReviewService(repository.WritePolicyLastWriteWins)

	reviews, err := svc.ListReviews(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, reviews)
	assert.Empty(t, reviews)
}

func Test_reviewService_UpsertReview(t *testing.T) {
	ctx := context.Background()

	t.Run("新規は末尾に追加され総件数が増える", func(t *testing.T) {
		svc, _ := newMemoryReviewService(repository.WritePolicyLastWriteWins)

		_, total, err := svc.UpsertReview(ctx, newSubmitRequest("a", "water"))
		require.NoError(t, err)
		assert.Equal(t, 1, total)

		rec, total, err := svc.UpsertReview(ctx, newSubmitRequest("b", "ice"))
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		assert.Equal(t, "b", rec.ReviewID)

		reviews, err := svc.ListReviews(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, reviewIDs(reviews))
	})

	t.Run("既存の review_id は同じ位置で置き換える", func(t *testing.T) {
		svc, _ := newMemoryReviewService(repository.WritePolicyLastWriteWins)
		for _, id := range []string{"a", "b", "c"} {
			_, _, err := svc.UpsertReview(ctx, newSubmitRequest(id, "water"))
			require.NoError(t, err)
		}

		_, total, err := svc.UpsertReview(ctx, newSubmitRequest("b", "steam"))
		require.NoError(t, err)
		assert.Equal(t, 3, total)

		reviews, err := svc.ListReviews(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c"}, reviewIDs(reviews))
		rec := recordAt(t, reviews, 1)
		assert.Equal(t, "steam", rec.Answer)
		assert.False(t, rec.IsCorrect)
	})

	t.Run("同じ内容の再送は冪等", func(t *testing.T) {
		svc, _ := newMemoryReviewService(repository.WritePolicyLastWriteWins)
		req := newSubmitRequest("a", "water")

		_, _, err := svc.UpsertReview(ctx, req)
		require.NoError(t, err)
		first, err := svc.ListReviews(ctx)
		require.NoError(t, err)

		_, total, err := svc.UpsertReview(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		second, err := svc.ListReviews(ctx)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("任意項目は空文字で補完しクライアントのタイムスタンプを保存", func(t *testing.T) {
		svc, _ := newMemoryReviewService(repository.WritePolicyLastWriteWins)
		req := newSubmitRequest("a", "water")
		req.Timestamp = strPtr("client-supplied")

		_, _, err := svc.UpsertReview(ctx, req)
		require.NoError(t, err)

		reviews, err := svc.ListReviews(ctx)
		require.NoError(t, err)
		require.Len(t, reviews, 1)
		rec := recordAt(t, reviews, 0)
		assert.Equal(t, "", rec.Keyword)
		assert.Equal(t, "", rec.Comment)
		assert.Equal(t, "client-supplied", rec.Timestamp)
	})

	t.Run("total-reviews メタデータを更新する", func(t *testing.T) {
		svc, store := newMemoryReviewService(repository.WritePolicyLastWriteWins)
		_, _, err := svc.UpsertReview(ctx, newSubmitRequest("a", "water"))
		require.NoError(t, err)
		_, _, err = svc.UpsertReview(ctx, newSubmitRequest("b", "water"))
		require.NoError(t, err)

		blob, err := store.Get(ctx, repository.DefaultReviewDocument)
		require.NoError(t, err)
		assert.Equal(t, "2", blob.Metadata[repository.MetaTotalReviews])
		assert.NotEmpty(t, blob.Metadata[repository.MetaLastUpdated])
	})
}

func Test_reviewService_UpsertReview_KeepsStoredEntries(t *testing.T) {
	ctx := context.Background()
	svc, store := newMemoryReviewService(repository.WritePolicyLastWriteWins)

	stored := `[{"review_id":"old","question_id":12,"answer":"ice","source":"legacy-ui"}]`
	_, err := store.Put(ctx, repository.DefaultReviewDocument, []byte(stored), repository.PutOptions{})
	require.NoError(t, err)

	// 型の合わない要素があっても一覧は取得できる
	reviews, err := svc.ListReviews(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"old"}, reviewIDs(reviews))

	_, total, err := svc.UpsertReview(ctx, newSubmitRequest("new", "water"))
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	blob, err := store.Get(ctx, repository.DefaultReviewDocument)
	require.NoError(t, err)
	var saved []map[string]interface{}
	require.NoError(t, json.Unmarshal(blob.Data, &saved))
	require.Len(t, saved, 2)
	assert.Equal(t, "legacy-ui", saved[0]["source"])
	assert.Equal(t, float64(12), saved[0]["question_id"])
	assert.Equal(t, "new", saved[1]["review_id"])
}

func Test_reviewService_UpsertReview_MissingFieldDoesNotTouchStore(t *testing.T) {
	// Load / Save が呼ばれたらモックが失敗する
	repo := mocks.NewReviewRepository(t)
	svc := NewReviewService(repo, testConfig(3))

	req := newSubmitRequest("a", "water")
	req.IsCorrect = nil

	_, _, err := svc.UpsertReview(context.Background(), req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrInvalidInput))

	var appErr *model.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Detail.Code)
	assert.Equal(t, "is_correct", appErr.Detail.Field)
}

func Test_reviewService_StoreFailure(t *testing.T) {
	ctx := context.Background()
	backendErr := fmt.Errorf("%w: load review.json: AccessDenied: Access Denied", model.ErrStoreFailure)

	t.Run("読み込み失敗", func(t *testing.T) {
		repo := mocks.NewReviewRepository(t)
		repo.On("Load", mock.Anything).Return(nil, repository.Version(""), backendErr)
		svc := NewReviewService(repo, testConfig(3))

		_, err := svc.ListReviews(ctx)
		require.Error(t, err)
		var appErr *model.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "STORE_FAILURE", appErr.Detail.Code)
		assert.Contains(t, appErr.Detail.Message, "Access Denied")
		assert.True(t, errors.Is(err, model.ErrStoreFailure))
	})

	t.Run("書き込み失敗は1回で諦める", func(t *testing.T) {
		repo := mocks.NewReviewRepository(t)
		repo.On("Policy").Return(repository.WritePolicyOptimistic)
		repo.On("Load", mock.Anything).Return(model.ReviewLedger{}, repository.Version("v1"), nil).Once()
		repo.On("Save", mock.Anything, mock.Anything, repository.Version("v1")).Return(backendErr).Once()
		svc := NewReviewService(repo, testConfig(3))

		_, _, err := svc.UpsertReview(ctx, newSubmitRequest("a", "water"))
		require.Error(t, err)
		var appErr *model.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "STORE_FAILURE", appErr.Detail.Code)
	})
}

// interleavingStore は最初の Get の直後に一度だけ hook を実行し、
// 別のリクエストが読み込みと書き戻しの間に割り込む状況を再現します。
type interleavingStore struct {
	*repository.MemoryStore
	hook  func()
	fired bool
}

func (s *interleavingStore) Get(ctx context.Context, name string) (*repository.Blob, error) {
	blob, err := s.MemoryStore.Get(ctx, name)
	if !s.fired && s.hook != nil {
		s.fired = true
		s.hook()
	}
	return blob, err
}

func Test_reviewService_ConcurrentUpsert(t *testing.T) {
	ctx := context.Background()

	setup := func(policy repository.WritePolicy) ReviewService {
		store := &interleavingStore{MemoryStore: repository.NewMemoryStore()}
		svc := NewReviewService(repository.NewReviewRepository(store, "", policy), testConfig(3))
		store.hook = func() {
			_, _, err := svc.UpsertReview(ctx, newSubmitRequest("r2", "water"))
			require.NoError(t, err)
		}
		return svc
	}

	t.Run("last_write_wins では割り込んだ書き込みが失われる", func(t *testing.T) {
		svc := setup(repository.WritePolicyLastWriteWins)

		_, total, err := svc.UpsertReview(ctx, newSubmitRequest("r1", "water"))
		require.NoError(t, err)
		assert.Equal(t, 1, total)

		reviews, err := svc.ListReviews(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"r1"}, reviewIDs(reviews))
	})

	t.Run("optimistic では読み込みからやり直して両方残る", func(t *testing.T) {
		svc := setup(repository.WritePolicyOptimistic)

		_, total, err := svc.UpsertReview(ctx, newSubmitRequest("r1", "water"))
		require.NoError(t, err)
		assert.Equal(t, 2, total)

		reviews, err := svc.ListReviews(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"r2", "r1"}, reviewIDs(reviews))
	})
}

func Test_reviewService_ConflictRetriesExhausted(t *testing.T) {
	repo := mocks.NewReviewRepository(t)
	repo.On("Policy").Return(repository.WritePolicyOptimistic)
	repo.On("Load", mock.Anything).Return(model.ReviewLedger{}, repository.Version("v1"), nil).Times(3)
	repo.On("Save", mock.Anything, mock.Anything, repository.Version("v1")).
		Return(fmt.Errorf("save review.json: %w", model.ErrConflict)).Times(3)
	svc := NewReviewService(repo, testConfig(2))

	_, _, err := svc.UpsertReview(context.Background(), newSubmitRequest("a", "water"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrConflict))

	var appErr *model.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "WRITE_CONFLICT", appErr.Detail.Code)
}
