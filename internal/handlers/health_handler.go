package handlers

import (
	"log/slog"
	"net/http"

	"go_4_review_keep/internal/middleware"
	"go_4_review_keep/internal/repository"
)

type HealthHandler struct {
	store repository.BlobStore
}

func NewHealthHandler(store repository.BlobStore) *HealthHandler {
	return &HealthHandler{store: store}
}

// Check はデータストアへの疎通を確認します。Ping を持たないバックエンドは常に OK。
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if pinger, ok := h.store.(repository.Pinger); ok {
		if err := pinger.Ping(ctx); err != nil {
			middleware.GetLogger(ctx).ErrorContext(ctx, "Health check failed: could not reach document store", slog.Any("error", err))
			http.Error(w, "Health check failed", http.StatusInternalServerError)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
