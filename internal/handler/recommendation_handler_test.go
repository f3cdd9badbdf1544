package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"

	"github.com/hitoshi/newspulse/internal/model"
	"github.com/hitoshi/newspulse/internal/recommend"
)

const (
	excludeA = "3f2b8c1d-4e5a-4b6c-8d7e-9f0a1b2c3d4e"
	excludeB = "7a6b5c4d-3e2f-4a1b-9c8d-7e6f5a4b3c2d"
	excludeC = "c0ffee00-1234-4abc-8def-0123456789ab"
)

// TestRecommendationHandler_Success はパラメータの解釈とレスポンスの変換を検証する。
func TestRecommendationHandler_Success(t *testing.T) {
	svc := &mockRecommendationService{
		requestFn: func(ctx context.Context, clientID string, req recommend.Request) (recommend.Result, error) {
			if clientID != "client-1" {
				t.Errorf("clientID = %q, want client-1", clientID)
			}
			if req.Category != "Business" || req.Limit != 5 || !req.ForceRefresh {
				t.Errorf("request = %+v", req)
			}
			if !slices.Equal(req.ExcludeIDs, []string{excludeA, excludeB, excludeC}) {
				t.Errorf("ExcludeIDs = %v", req.ExcludeIDs)
			}
			return recommend.Result{
				Recommendations: []model.Recommendation{{
					Article: model.Article{ID: "a9", Title: "Garment exports rise", Source: "Dhaka Tribune"},
					Score:   42,
					Reasons: []string{"Same category: business"},
				}},
				HasRecommendations: true,
				CacheStatus:        recommend.CacheMiss,
			}, nil
		},
	}
	h := NewRecommendationHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/recommendations?category=Business&exclude="+excludeA+","+excludeB+"&exclude="+excludeC+"&limit=5&refresh=true", nil)
	req = withClientID(req, "client-1")
	w := httptest.NewRecorder()
	h.GetRecommendations(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var resp recommendationsResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.HasRecommendations || resp.CacheStatus != "miss" {
		t.Errorf("response = %+v", resp)
	}
	if len(resp.Recommendations) != 1 || resp.Recommendations[0].Article.ID != "a9" || resp.Recommendations[0].Score != 42 {
		t.Errorf("recommendations = %+v", resp.Recommendations)
	}
}

// TestRecommendationHandler_TimeoutIsNotAnHTTPError はタイムアウト結果を200で返すことを検証する。
func TestRecommendationHandler_TimeoutIsNotAnHTTPError(t *testing.T) {
	svc := &mockRecommendationService{
		requestFn: func(ctx context.Context, clientID string, req recommend.Request) (recommend.Result, error) {
			if req.Limit != recommend.DefaultLimit {
				t.Errorf("limit = %d, want default %d", req.Limit, recommend.DefaultLimit)
			}
			return recommend.Result{Error: "Request timeout - recommendations unavailable"}, nil
		},
	}
	h := NewRecommendationHandler(svc)

	w := httptest.NewRecorder()
	h.GetRecommendations(w, withClientID(httptest.NewRequest(http.MethodGet, "/api/recommendations", nil), "client-1"))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var resp recommendationsResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Error == "" || len(resp.Recommendations) != 0 || resp.Recommendations == nil {
		t.Errorf("response = %+v, want empty list with error", resp)
	}
}

// TestRecommendationHandler_Errors はエラー時のステータスコードを検証する。
func TestRecommendationHandler_Errors(t *testing.T) {
	tests := []struct {
		name       string
		clientID   string
		query      string
		serviceErr error
		wantStatus int
		wantCode   string
	}{
		{"クライアントIDなし", "", "", nil, http.StatusBadRequest, model.ErrCodeMissingClientID},
		{"limitが0", "c1", "?limit=0", nil, http.StatusBadRequest, model.ErrCodeInvalidParameter},
		{"limitが上限超過", "c1", "?limit=21", nil, http.StatusBadRequest, model.ErrCodeInvalidParameter},
		{"refreshが不正", "c1", "?refresh=maybe", nil, http.StatusBadRequest, model.ErrCodeInvalidParameter},
		{"新しいリクエストに置き換え", "c1", "", recommend.ErrSuperseded, http.StatusConflict, model.ErrCodeRequestSuperseded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockRecommendationService{
				requestFn: func(ctx context.Context, clientID string, req recommend.Request) (recommend.Result, error) {
					return recommend.Result{}, tt.serviceErr
				},
			}
			h := NewRecommendationHandler(svc)

			req := httptest.NewRequest(http.MethodGet, "/api/recommendations"+tt.query, nil)
			if tt.clientID != "" {
				req = withClientID(req, tt.clientID)
			}
			w := httptest.NewRecorder()
			h.GetRecommendations(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			var body map[string]string
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if body["code"] != tt.wantCode {
				t.Errorf("code = %q, want %q", body["code"], tt.wantCode)
			}
		})
	}
}

// TestRecommendationHandler_DropsMalformedExcludeIDs はUUID形式でない除外IDを取り除いて渡すことを検証する。
func TestRecommendationHandler_DropsMalformedExcludeIDs(t *testing.T) {
	var got []string
	svc := &mockRecommendationService{
		requestFn: func(ctx context.Context, clientID string, req recommend.Request) (recommend.Result, error) {
			got = req.ExcludeIDs
			return recommend.Result{CacheStatus: recommend.CacheMiss}, nil
		},
	}
	h := NewRecommendationHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/recommendations?exclude=x,"+excludeA+",1%27%20OR%201=1", nil)
	w := httptest.NewRecorder()
	h.GetRecommendations(w, withClientID(req, "client-1"))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !slices.Equal(got, []string{excludeA}) {
		t.Errorf("ExcludeIDs = %v, want [%s]", got, excludeA)
	}
}
