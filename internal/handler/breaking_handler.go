package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/hitoshi/newspulse/internal/breaking"
)

// BreakingServiceInterface は速報ハンドラーが必要とするサービスインターフェース。
type BreakingServiceInterface interface {
	ListActive(ctx context.Context, limit int) ([]breaking.ActiveItem, error)
}

// BreakingHandler は速報一覧のHTTPハンドラー。
type BreakingHandler struct {
	service BreakingServiceInterface
	limit   int
}

// NewBreakingHandler はBreakingHandlerを生成する。limitが0以下の場合はbreaking.DisplayLimitを使う。
func NewBreakingHandler(service BreakingServiceInterface, limit int) *BreakingHandler {
	if limit <= 0 {
		limit = breaking.DisplayLimit
	}
	return &BreakingHandler{service: service, limit: limit}
}

// breakingResponse は速報のAPIレスポンス。
type breakingResponse struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description,omitempty"`
	ArticleURL    string    `json:"articleUrl"`
	ImageURL      string    `json:"imageUrl,omitempty"`
	Source        string    `json:"source"`
	SourceTier    string    `json:"sourceTier"`
	PriorityLevel string    `json:"priorityLevel"`
	UrgencyScore  int       `json:"urgencyScore"`
	Keywords      []string  `json:"keywords,omitempty"`
	PublishedAt   time.Time `json:"publishedAt"`
	ExpiresAt     time.Time `json:"expiresAt"`
}

// ListBreaking は表示対象の速報を返す。
// GET /api/breaking
func (h *BreakingHandler) ListBreaking(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListActive(r.Context(), h.limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]breakingResponse, 0, len(items))
	for _, it := range items {
		resp = append(resp, breakingResponse{
			ID:            it.ID,
			Title:         it.Title,
			Description:   it.Description,
			ArticleURL:    it.ArticleURL,
			ImageURL:      it.ImageURL,
			Source:        it.Source,
			SourceTier:    string(it.SourceTier),
			PriorityLevel: string(it.PriorityLevel),
			UrgencyScore:  it.UrgencyScore,
			Keywords:      it.Keywords,
			PublishedAt:   it.PublishedAt,
			ExpiresAt:     it.ExpiresAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"breakingNews": resp})
}
