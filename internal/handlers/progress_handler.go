// internal/handlers/progress_handler.go
package handlers

import (
	"log/slog"
	"net/http"

	"go_4_review_keep/internal/model"
	"go_4_review_keep/internal/service"
	"go_4_review_keep/internal/webutil"
)

type ProgressHandler struct {
	service service.ProgressService
	logger  *slog.Logger
}

func NewProgressHandler(s service.ProgressService, logger *slog.Logger) *ProgressHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProgressHandler{
		service: s,
		logger:  logger,
	}
}

// GetProgress は ?reviewer=&category= で指定された進捗を返します。未保存なら progress は null。
func (h *ProgressHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "GetProgress"))

	query := model.GetProgressQuery{
		Reviewer: r.URL.Query().Get("reviewer"),
		Category: r.URL.Query().Get("category"),
	}
	if err := webutil.ValidateStruct(query); err != nil {
		logger.Warn("Validation failed", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	progress, err := h.service.GetProgress(r.Context(), query.Reviewer, query.Category)
	if err != nil {
		logger.Error("Error getting progress in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, model.ProgressResponse{
		Success:  true,
		Progress: progress,
	}, logger)
}

// SaveProgress は進捗を保存します (PUT / POST のどちらでも受け付ける)。
func (h *ProgressHandler) SaveProgress(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "SaveProgress"))

	var req model.SaveProgressRequest
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

	saved, err := h.service.SaveProgress(r.Context(), &req)
	if err != nil {
		logger.Error("Error saving progress in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Progress saved successfully",
		slog.String("reviewer", saved.ReviewerName),
		slog.String("category", saved.Category),
		slog.Int("question_index", saved.QuestionIndex),
	)
	webutil.RespondWithJSON(w, http.StatusOK, model.MessageResponse{
		Success: true,
		Message: "Progress saved successfully",
	}, logger)
}
