package handlers

import (
	"log/slog"
	"net/http"

	"go_4_review_keep/internal/config"
	"go_4_review_keep/internal/middleware"
	"go_4_review_keep/internal/model"
	"go_4_review_keep/internal/webutil"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
)

// NewRouter はミドルウェアとルーティングを設定した chi ルーターを返します。
//
//	GET      {base}/review    レビュー一覧
//	POST     {base}/review    レビュー保存 (review_id で upsert)
//	GET      {base}/progress  進捗取得 (?reviewer=&category=)
//	PUT/POST {base}/progress  進捗保存
//	GET      /health          ヘルスチェック
func NewRouter(cfg *config.Config, logger *slog.Logger, reviewHandler *ReviewHandler, progressHandler *ProgressHandler, healthHandler *HealthHandler) *chi.Mux {
	if logger == nil {
		logger = slog.Default()
	}
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.LoggingMiddleware(logger))

	// CORS (プリフライトは rs/cors が応答する)
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:       cfg.CORS.AllowedOrigins,
		AllowedMethods:       cfg.CORS.AllowedMethods,
		AllowedHeaders:       cfg.CORS.AllowedHeaders,
		ExposedHeaders:       cfg.CORS.ExposedHeaders,
		AllowCredentials:     cfg.CORS.AllowCredentials,
		MaxAge:               cfg.CORS.MaxAge,
		OptionsSuccessStatus: http.StatusOK,
		Debug:                false,
	})
	r.Use(corsHandler.Handler)
	// プリフライト以外の OPTIONS もパスを問わず 200 で応答する
	r.Use(optionsOK(logger))

	r.Use(chimiddleware.Recoverer)
	if cfg.Server.RequestTimeout > 0 {
		r.Use(chimiddleware.Timeout(cfg.Server.RequestTimeout))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		webutil.HandleError(w, logger, model.NewAppError("NOT_FOUND", "Not found", "", model.ErrNotFound))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		webutil.RespondWithJSON(w, http.StatusMethodNotAllowed, model.APIErrorResponse{
			Error: model.ErrorDetail{Code: "METHOD_NOT_ALLOWED", Message: "Method not allowed"},
		}, logger)
	})

	routes := func(r chi.Router) {
		r.Route("/review", func(r chi.Router) {
			r.Get("/", reviewHandler.GetReviews)
			r.Post("/", reviewHandler.PostReview)
		})
		r.Route("/progress", func(r chi.Router) {
			r.Get("/", progressHandler.GetProgress)
			r.Put("/", progressHandler.SaveProgress)
			r.Post("/", progressHandler.SaveProgress)
		})
	}
	if cfg.Server.BasePath != "" {
		r.Route(cfg.Server.BasePath, routes)
	} else {
		r.Group(routes)
	}

	if healthHandler != nil {
		r.Get("/health", healthHandler.Check)
	}

	return r
}

func optionsOK(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}
			webutil.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "CORS preflight successful"}, logger)
		})
	}
}
