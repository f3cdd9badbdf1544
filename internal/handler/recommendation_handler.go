package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/hitoshi/newspulse/internal/middleware"
	"github.com/hitoshi/newspulse/internal/model"
	"github.com/hitoshi/newspulse/internal/recommend"
)

// maxRecommendationLimit はlimitパラメータの上限。
const maxRecommendationLimit = 20

// RecommendationServiceInterface はおすすめハンドラーが必要とするサービスインターフェース。
type RecommendationServiceInterface interface {
	// Request はクライアントのおすすめ記事を取得する。
	// 同じクライアントの新しいリクエストに置き換えられた場合はrecommend.ErrSupersededを返す。
	Request(ctx context.Context, clientID string, req recommend.Request) (recommend.Result, error)
}

// RecommendationHandler はおすすめ記事のHTTPハンドラー。
type RecommendationHandler struct {
	service RecommendationServiceInterface
}

// NewRecommendationHandler はRecommendationHandlerを生成する。
func NewRecommendationHandler(service RecommendationServiceInterface) *RecommendationHandler {
	return &RecommendationHandler{service: service}
}

// recommendationResponse はおすすめ記事1件のAPIレスポンス。
type recommendationResponse struct {
	Article articleSummary `json:"article"`
	Score   int            `json:"score"`
	Reasons []string       `json:"reasons"`
}

// articleSummary はおすすめに含める記事の概要。
type articleSummary struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	URL         string    `json:"url"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	Source      string    `json:"source"`
	Category    string    `json:"category"`
	Region      string    `json:"region,omitempty"`
	PublishedAt time.Time `json:"publishedAt"`
}

// recommendationsResponse はおすすめ一覧のAPIレスポンス。
type recommendationsResponse struct {
	Recommendations    []recommendationResponse `json:"recommendations"`
	HasRecommendations bool                     `json:"hasRecommendations"`
	CacheStatus        string                   `json:"cacheStatus"`
	Timestamp          time.Time                `json:"timestamp"`
	LastUpdate         time.Time                `json:"lastUpdate"`
	Error              string                   `json:"error,omitempty"`
}

// GetRecommendations はクライアントの嗜好に基づくおすすめ記事を返す。
// タイムアウトや取得失敗はerrorフィールドに設定し、200で空の一覧を返す。
// GET /api/recommendations?category=&exclude=&limit=&refresh=
func (h *RecommendationHandler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	clientID, err := middleware.ClientIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewMissingClientIDError())
		return
	}

	limit, err := queryInt(r, "limit", recommend.DefaultLimit)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if limit == 0 || limit > maxRecommendationLimit {
		handleServiceError(w, model.NewInvalidParameterError("limit", "1〜20の範囲で指定してください"))
		return
	}
	refresh, err := queryBool(r, "refresh")
	if err != nil {
		handleServiceError(w, err)
		return
	}

	result, err := h.service.Request(r.Context(), clientID, recommend.Request{
		Category:     strings.TrimSpace(r.URL.Query().Get("category")),
		ExcludeIDs:   queryIDList(r, "exclude"),
		Limit:        limit,
		ForceRefresh: refresh,
	})
	if errors.Is(err, recommend.ErrSuperseded) {
		handleServiceError(w, model.NewRequestSupersededError())
		return
	}
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := recommendationsResponse{
		Recommendations:    make([]recommendationResponse, 0, len(result.Recommendations)),
		HasRecommendations: result.HasRecommendations,
		CacheStatus:        string(result.CacheStatus),
		Timestamp:          result.Timestamp,
		LastUpdate:         result.LastUpdate,
		Error:              result.Error,
	}
	for _, rec := range result.Recommendations {
		resp.Recommendations = append(resp.Recommendations, recommendationResponse{
			Article: toArticleSummary(rec.Article),
			Score:   rec.Score,
			Reasons: rec.Reasons,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func toArticleSummary(a model.Article) articleSummary {
	return articleSummary{
		ID:          a.ID,
		Title:       a.Title,
		Description: a.Description,
		URL:         a.URL,
		ImageURL:    a.ImageURL,
		Source:      a.Source,
		Category:    a.Category,
		Region:      a.Region,
		PublishedAt: a.PublishedAt,
	}
}
