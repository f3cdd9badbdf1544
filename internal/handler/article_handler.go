package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/hitoshi/newspulse/internal/feed"
	"github.com/hitoshi/newspulse/internal/model"
)

// ArticleServiceInterface は記事一覧ハンドラーが必要とするサービスインターフェース。
type ArticleServiceInterface interface {
	// ListPage は条件に合う記事をランク付けして1ページ分返す。
	ListPage(ctx context.Context, req feed.Request) (feed.Page, error)
}

// ArticleHandler は記事一覧のHTTPハンドラー。
type ArticleHandler struct {
	service ArticleServiceInterface
}

// NewArticleHandler はArticleHandlerを生成する。
func NewArticleHandler(service ArticleServiceInterface) *ArticleHandler {
	return &ArticleHandler{service: service}
}

// articleResponse は記事のAPIレスポンス。
type articleResponse struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description,omitempty"`
	URL            string    `json:"url"`
	ImageURL       string    `json:"imageUrl,omitempty"`
	Source         string    `json:"source"`
	Category       string    `json:"category"`
	Region         string    `json:"region,omitempty"`
	Tags           []string  `json:"tags,omitempty"`
	PublishedAt    time.Time `json:"publishedAt"`
	PriorityScore  float64   `json:"priorityScore"`
	SecondaryScore float64   `json:"secondaryScore,omitempty"`
	SourceTier     string    `json:"sourceTier"`
}

// articlePageResponse は記事一覧のAPIレスポンス。
type articlePageResponse struct {
	Articles []articleResponse `json:"articles"`
	Page     int               `json:"page"`
	PageSize int               `json:"pageSize"`
	Total    int               `json:"total"`
	HasMore  bool              `json:"hasMore"`
}

// ListArticles はランク付けされた記事一覧を返す。
// GET /api/articles?category=&search=&region=&page=&profile=
func (h *ArticleHandler) ListArticles(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page", 0)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	q := r.URL.Query()
	result, err := h.service.ListPage(r.Context(), feed.Request{
		Category:  strings.TrimSpace(q.Get("category")),
		Search:    strings.TrimSpace(q.Get("search")),
		Region:    strings.TrimSpace(q.Get("region")),
		Profile:   strings.TrimSpace(q.Get("profile")),
		PageIndex: page,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := articlePageResponse{
		Articles: make([]articleResponse, 0, len(result.Items)),
		Page:     result.PageIndex,
		PageSize: result.PageSize,
		Total:    result.Total,
		HasMore:  result.HasMore,
	}
	for _, a := range result.Items {
		resp.Articles = append(resp.Articles, toArticleResponse(a))
	}
	writeJSON(w, http.StatusOK, resp)
}

func toArticleResponse(a model.ScoredArticle) articleResponse {
	return articleResponse{
		ID:             a.ID,
		Title:          a.Title,
		Description:    a.Description,
		URL:            a.URL,
		ImageURL:       a.ImageURL,
		Source:         a.Source,
		Category:       a.Category,
		Region:         a.Region,
		Tags:           a.Tags,
		PublishedAt:    a.PublishedAt,
		PriorityScore:  a.PriorityScore,
		SecondaryScore: a.SecondaryScore,
		SourceTier:     string(a.SourceTier),
	}
}
