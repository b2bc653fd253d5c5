// internal/handlers/review_handler.go
package handlers

import (
	"log/slog"
	"net/http"

	"go_4_review_keep/internal/model"
	"go_4_review_keep/internal/service"
	"go_4_review_keep/internal/webutil"
)

type ReviewHandler struct {
	service service.ReviewService
	logger  *slog.Logger
}

func NewReviewHandler(s service.ReviewService, logger *slog.Logger) *ReviewHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReviewHandler{
		service: s,
		logger:  logger,
	}
}

// GetReviews はレビュー一覧を登録順に返すハンドラ
func (h *ReviewHandler) GetReviews(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "GetReviews"))

	reviews, err := h.service.ListReviews(r.Context())
	if err != nil {
		logger.Error("Error listing reviews in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	if reviews == nil {
		reviews = model.ReviewLedger{}
	}
	webutil.RespondWithJSON(w, http.StatusOK, model.ReviewListResponse{
		Success: true,
		Reviews: reviews,
		Total:   len(reviews),
	}, logger)
}

// PostReview は回答結果を保存 (同じ review_id があれば更新) するハンドラ
func (h *ReviewHandler) PostReview(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "PostReview"))

	var req model.SubmitReviewRequest
	if err := webutil.DecodeJSONBody(w, r, &req); err != nil {
		logger.Warn("Failed to decode request body", slog.String("error", err.Error()))
		appErr := model.NewAppError("INVALID_REQUEST_BODY", "リクエストボディの形式が正しくありません。", "", err)
		webutil.HandleError(w, logger, appErr)
		return
	}

	if err := webutil.ValidateStruct(req); err != nil {
		logger.Warn("Validation failed", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	record, total, err := h.service.UpsertReview(r.Context(), &req)
	if err != nil {
		logger.Error("Error saving review in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Review saved successfully", slog.String("review_id", record.ReviewID), slog.Int("total_reviews", total))
	webutil.RespondWithJSON(w, http.StatusOK, model.SubmitReviewResponse{
		Success:      true,
		Message:      "Review saved successfully",
		ReviewID:     record.ReviewID,
		TotalReviews: total,
	}, logger)
}
