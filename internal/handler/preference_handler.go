package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/newspulse/internal/middleware"
	"github.com/hitoshi/newspulse/internal/model"
)

// PreferenceServiceInterface は嗜好ハンドラーが必要とするサービスインターフェース。
type PreferenceServiceInterface interface {
	List(ctx context.Context, clientID string) ([]model.UserPreference, error)
	Add(ctx context.Context, clientID string, article model.Article) (model.UserPreference, error)
	Remove(ctx context.Context, clientID, articleID string) error
	Clear(ctx context.Context, clientID string) error
}

// ArticleLookup は記事IDから記事を取得する。見つからない場合はnilを返す。
type ArticleLookup interface {
	FindByID(ctx context.Context, id string) (*model.Article, error)
}

// RecommendationInvalidator は嗜好の変更時におすすめのキャッシュを破棄する。
type RecommendationInvalidator interface {
	InvalidateClient(clientID string) int
}

// PreferenceHandler は嗜好リストのHTTPハンドラー。
type PreferenceHandler struct {
	service     PreferenceServiceInterface
	articles    ArticleLookup
	invalidator RecommendationInvalidator
}

// NewPreferenceHandler はPreferenceHandlerを生成する。invalidatorはnilでもよい。
func NewPreferenceHandler(service PreferenceServiceInterface, articles ArticleLookup, invalidator RecommendationInvalidator) *PreferenceHandler {
	return &PreferenceHandler{service: service, articles: articles, invalidator: invalidator}
}

// addPreferenceRequest は嗜好追加リクエストのボディ。
type addPreferenceRequest struct {
	ArticleID string `json:"articleId"`
}

// ListPreferences はクライアントの嗜好リストを新しい順に返す。
// GET /api/preferences
func (h *PreferenceHandler) ListPreferences(w http.ResponseWriter, r *http.Request) {
	clientID, ok := h.clientID(w, r)
	if !ok {
		return
	}

	prefs, err := h.service.List(r.Context(), clientID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if prefs == nil {
		prefs = []model.UserPreference{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"preferences": prefs})
}

// AddPreference は記事を嗜好リストに追加する。
// POST /api/preferences
func (h *PreferenceHandler) AddPreference(w http.ResponseWriter, r *http.Request) {
	clientID, ok := h.clientID(w, r)
	if !ok {
		return
	}

	var req addPreferenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, invalidRequestBody())
		return
	}
	articleID := strings.TrimSpace(req.ArticleID)
	if articleID == "" {
		handleServiceError(w, model.NewInvalidParameterError("articleId", "必須です"))
		return
	}
	if !isArticleID(articleID) {
		handleServiceError(w, model.NewArticleNotFoundError(articleID))
		return
	}

	article, err := h.articles.FindByID(r.Context(), articleID)
	if err != nil {
		handleServiceError(w, model.NewUpstreamFetchError(err.Error()))
		return
	}
	if article == nil {
		handleServiceError(w, model.NewArticleNotFoundError(articleID))
		return
	}

	pref, err := h.service.Add(r.Context(), clientID, *article)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	h.invalidate(clientID)
	writeJSON(w, http.StatusCreated, pref)
}

// RemovePreference は指定記事を嗜好リストから削除する。
// DELETE /api/preferences/{articleID}
func (h *PreferenceHandler) RemovePreference(w http.ResponseWriter, r *http.Request) {
	clientID, ok := h.clientID(w, r)
	if !ok {
		return
	}

	if err := h.service.Remove(r.Context(), clientID, chi.URLParam(r, "articleID")); err != nil {
		handleServiceError(w, err)
		return
	}
	h.invalidate(clientID)
	w.WriteHeader(http.StatusNoContent)
}

// ClearPreferences はクライアントの嗜好リストをすべて削除する。
// DELETE /api/preferences
func (h *PreferenceHandler) ClearPreferences(w http.ResponseWriter, r *http.Request) {
	clientID, ok := h.clientID(w, r)
	if !ok {
		return
	}

	if err := h.service.Clear(r.Context(), clientID); err != nil {
		handleServiceError(w, err)
		return
	}
	h.invalidate(clientID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *PreferenceHandler) clientID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := middleware.ClientIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewMissingClientIDError())
		return "", false
	}
	return id, true
}

func (h *PreferenceHandler) invalidate(clientID string) {
	if h.invalidator != nil {
		h.invalidator.InvalidateClient(clientID)
	}
}
