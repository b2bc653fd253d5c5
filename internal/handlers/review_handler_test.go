package handlers_test // テスト対象とは別のパッケージ名

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go_4_review_keep/internal/handlers"
	"go_4_review_keep/internal/model"

	svc_mocks "go_4_review_keep/internal/service/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupTestReviewHandler(mockService *svc_mocks.ReviewService) *handlers.ReviewHandler {
	return handlers.NewReviewHandler(mockService, discardLogger())
}

func validReviewPayload(reviewID string) map[string]interface{} {
	return map[string]interface{}{
		"review_id":      reviewID,
		"question_id":    "q1",
		"question_set":   "set-a",
		"question_index": 0,
		"keyword":        "",
		"category":       "science",
		"question_text":  "What is H2O?",
		"reviewer_name":  "alice",
		"answer":         "water",
		"correct_answer": "water",
		"is_correct":     false,
		"timestamp":      "2024-05-01T10:00:00.000Z",
	}
}

func jsonBody(t *testing.T, v interface{}) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func TestReviewHandler_GetReviews(t *testing.T) {
	tests := []struct {
		name           string
		setupMock      func(m *svc_mocks.ReviewService)
		expectedStatus int
		verify         func(t *testing.T, body []byte)
	}{
		{
			name: "正常系: 複数件取得",
			setupMock: func(m *svc_mocks.ReviewService) {
				m.On("ListReviews", mock.Anything).Return(model.ReviewLedger{{ReviewID: "a"}, {ReviewID: "b"}}, nil).Once()
			},
			expectedStatus: http.StatusOK,
			verify: func(t *testing.T, body []byte) {
				var resp model.ReviewListResponse
				require.NoError(t, json.Unmarshal(body, &resp))
				assert.True(t, resp.Success)
				assert.Equal(t, 2, resp.Total)
				require.Len(t, resp.Reviews, 2)
				assert.Equal(t, "a", resp.Reviews[0].ReviewID)
			},
		},
		{
			name: "正常系: サービスがnilを返しても空配列",
			setupMock: func(m *svc_mocks.ReviewService) {
				m.On("ListReviews", mock.Anything).Return(nil, nil).Once()
			},
			expectedStatus: http.StatusOK,
			verify: func(t *testing.T, body []byte) {
				assert.JSONEq(t, `{"success":true,"reviews":[],"total":0}`, string(body))
			},
		},
		{
			name: "異常系: ストア障害",
			setupMock: func(m *svc_mocks.ReviewService) {
				m.On("ListReviews", mock.Anything).Return(nil,
					model.NewAppError("STORE_FAILURE", "データストアへのアクセスに失敗しました: Access Denied", "", model.ErrStoreFailure)).Once()
			},
			expectedStatus: http.StatusInternalServerError,
			verify: func(t *testing.T, body []byte) {
				detail := verifyErrorResponse(t, body, "STORE_FAILURE")
				assert.Contains(t, detail.Message, "Access Denied")
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mockService := svc_mocks.NewReviewService(t)
			tc.setupMock(mockService)
			handler := setupTestReviewHandler(mockService)

			req := httptest.NewRequest(http.MethodGet, "/review", nil)
			rr := httptest.NewRecorder()
			handler.GetReviews(rr, req)

			assert.Equal(t, tc.expectedStatus, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
			tc.verify(t, rr.Body.Bytes())
		})
	}
}

func TestReviewHandler_PostReview(t *testing.T) {
	tests := []struct {
		name              string
		body              func(t *testing.T) *bytes.Buffer
		setupMock         func(m *svc_mocks.ReviewService)
		expectedStatus    int
		expectedErrorCode string
		expectedField     string
	}{
		{
			name: "正常系: 保存",
			body: func(t *testing.T) *bytes.Buffer { return jsonBody(t, validReviewPayload("r1")) },
			setupMock: func(m *svc_mocks.ReviewService) {
				m.On("UpsertReview", mock.Anything, mock.MatchedBy(func(req *model.SubmitReviewRequest) bool {
					return *req.ReviewID == "r1" && *req.QuestionIndex == 0 && !*req.IsCorrect
				})).Return(&model.ReviewRecord{ReviewID: "r1"}, 5, nil).Once()
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "異常系: is_correct が無い",
			body: func(t *testing.T) *bytes.Buffer {
				p := validReviewPayload("r1")
				delete(p, "is_correct")
				return jsonBody(t, p)
			},
			setupMock:         func(m *svc_mocks.ReviewService) {},
			expectedStatus:    http.StatusBadRequest,
			expectedErrorCode: "VALIDATION_ERROR",
			expectedField:     "is_correct",
		},
		{
			name: "異常系: review_id が null",
			body: func(t *testing.T) *bytes.Buffer {
				p := validReviewPayload("r1")
				p["review_id"] = nil
				return jsonBody(t, p)
			},
			setupMock:         func(m *svc_mocks.ReviewService) {},
			expectedStatus:    http.StatusBadRequest,
			expectedErrorCode: "VALIDATION_ERROR",
			expectedField:     "review_id",
		},
		{
			name:              "異常系: 不正なJSON",
			body:              func(t *testing.T) *bytes.Buffer { return bytes.NewBufferString(`{"review_id":`) },
			setupMock:         func(m *svc_mocks.ReviewService) {},
			expectedStatus:    http.StatusBadRequest,
			expectedErrorCode: "INVALID_REQUEST_BODY",
		},
		{
			name:              "異常系: 空のボディ",
			body:              func(t *testing.T) *bytes.Buffer { return bytes.NewBuffer(nil) },
			setupMock:         func(m *svc_mocks.ReviewService) {},
			expectedStatus:    http.StatusBadRequest,
			expectedErrorCode: "INVALID_REQUEST_BODY",
		},
		{
			name: "異常系: 書き込み競合",
			body: func(t *testing.T) *bytes.Buffer { return jsonBody(t, validReviewPayload("r1")) },
			setupMock: func(m *svc_mocks.ReviewService) {
				m.On("UpsertReview", mock.Anything, mock.Anything).
					Return(nil, 0, model.NewAppError("WRITE_CONFLICT", "conflict", "", model.ErrConflict)).Once()
			},
			expectedStatus:    http.StatusConflict,
			expectedErrorCode: "WRITE_CONFLICT",
		},
		{
			name: "異常系: 予期しないエラー",
			body: func(t *testing.T) *bytes.Buffer { return jsonBody(t, validReviewPayload("r1")) },
			setupMock: func(m *svc_mocks.ReviewService) {
				m.On("UpsertReview", mock.Anything, mock.Anything).Return(nil, 0, errors.New("boom")).Once()
			},
			expectedStatus:    http.StatusInternalServerError,
			expectedErrorCode: "INTERNAL_SERVER_ERROR",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mockService := svc_mocks.NewReviewService(t)
			tc.setupMock(mockService)
			handler := setupTestReviewHandler(mockService)

			req := httptest.NewRequest(http.MethodPost, "/review", tc.body(t))
			req.Header.Set("Content-Type", "application/json")
			rr := httptest.NewRecorder()
			handler.PostReview(rr, req)

			assert.Equal(t, tc.expectedStatus, rr.Code, rr.Body.String())
			if tc.expectedErrorCode != "" {
				detail := verifyErrorResponse(t, rr.Body.Bytes(), tc.expectedErrorCode)
				if tc.expectedField != "" {
					assert.Equal(t, tc.expectedField, detail.Field)
					assert.True(t, strings.HasSuffix(detail.Message, "は必須項目です。"), detail.Message)
				}
				return
			}

			var resp model.SubmitReviewResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.Equal(t, model.SubmitReviewResponse{
				Success:      true,
				Message:      "Review saved successfully",
				ReviewID:     "r1",
				TotalReviews: 5,
			}, resp)
		})
	}
}
