package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testLimiterConfig(generalBurst, jobBurst int) RateLimiterConfig {
	return RateLimiterConfig{
		GeneralRate:     1,
		GeneralBurst:    generalBurst,
		JobRate:         0.1,
		JobBurst:        jobBurst,
		CleanupInterval: time.Minute,
	}
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func requestFrom(clientID string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/articles", nil)
	if clientID != "" {
		req = req.WithContext(ContextWithClientID(req.Context(), clientID))
	}
	return req
}

// TestRateLimitMiddleware_BurstThen429 はバースト分を超えると429を返すことを検証する。
func TestRateLimitMiddleware_BurstThen429(t *testing.T) {
	rl := NewRateLimiter(testLimiterConfig(3, 1))
	defer rl.Stop()
	handler := rl.GeneralMiddleware()(okHandler())

	for i := range 3 {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, requestFrom("client-1"))
		if w.Code != http.StatusOK {
			t.Errorf("request %d: status = %d, want 200", i, w.Code)
		}
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, requestFrom("client-1"))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", w.Code)
	}
	if got := w.Header().Get("Retry-After"); got != "1" {
		t.Errorf("Retry-After = %q, want 1", got)
	}
	var body ErrorResponseBody
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("429 body is not JSON: %v", err)
	}
	if body.Code != "RATE_LIMIT_EXCEEDED" {
		t.Errorf("code = %q", body.Code)
	}
}

// TestRateLimitMiddleware_IsolatesClients はクライアントごとに独立して制限されることを検証する。
func TestRateLimitMiddleware_IsolatesClients(t *testing.T) {
	rl := NewRateLimiter(testLimiterConfig(1, 1))
	defer rl.Stop()
	handler := rl.GeneralMiddleware()(okHandler())

	for _, id := range []string{"client-a", "client-b", ""} {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, requestFrom(id))
		if w.Code != http.StatusOK {
			t.Errorf("first request of %q: status = %d, want 200", id, w.Code)
		}
	}
	if got := rl.GeneralLimiterCount(); got != 3 {
		t.Errorf("GeneralLimiterCount() = %d, want 3", got)
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, requestFrom("client-a"))
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("second request of client-a: status = %d, want 429", w.Code)
	}
}

// TestJobMiddleware_IndependentFromGeneral はジョブ起動の制限が全般の制限と独立していることを検証する。
func TestJobMiddleware_IndependentFromGeneral(t *testing.T) {
	rl := NewRateLimiter(testLimiterConfig(5, 1))
	defer rl.Stop()
	handler := rl.GeneralMiddleware()(rl.JobMiddleware()(okHandler()))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, requestFrom("client-1"))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, requestFrom("client-1"))
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", w.Code)
	}
	if got := w.Header().Get("Retry-After"); got != "10" {
		t.Errorf("Retry-After = %q, want 10", got)
	}
	if rl.JobLimiterCount() != 1 || rl.GeneralLimiterCount() != 1 {
		t.Errorf("counts = %d/%d, want 1/1", rl.JobLimiterCount(), rl.GeneralLimiterCount())
	}
}

// TestJobMiddleware_KeysOnRemoteAddress はクライアントIDを変えてもジョブ起動の制限を回避できないことを検証する。
func TestJobMiddleware_KeysOnRemoteAddress(t *testing.T) {
	rl := NewRateLimiter(testLimiterConfig(100, 2))
	defer rl.Stop()
	handler := rl.JobMiddleware()(okHandler())

	for i, id := range []string{"rotating-1", "rotating-2", "rotating-3"} {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, requestFrom(id))
		want := http.StatusOK
		if i >= 2 {
			want = http.StatusTooManyRequests
		}
		if w.Code != want {
			t.Errorf("request %d (%s): status = %d, want %d", i, id, w.Code, want)
		}
	}
	if got := rl.JobLimiterCount(); got != 1 {
		t.Errorf("JobLimiterCount() = %d, want 1", got)
	}

	other := requestFrom("rotating-4")
	other.RemoteAddr = "198.51.100.7:4321"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, other)
	if w.Code != http.StatusOK {
		t.Errorf("other address: status = %d, want 200", w.Code)
	}
}

// TestRateLimiter_CleanupRemovesExpiredEntries は古いエントリがクリーンアップで削除されることを検証する。
func TestRateLimiter_CleanupRemovesExpiredEntries(t *testing.T) {
	cfg := testLimiterConfig(5, 5)
	cfg.CleanupInterval = time.Hour
	rl := NewRateLimiter(cfg)
	defer rl.Stop()

	rl.general.get("client:old")
	rl.general.get("client:new")
	rl.general.mu.Lock()
	rl.general.limiters["client:old"].lastAccess = time.Now().Add(-3 * time.Hour)
	rl.general.mu.Unlock()

	rl.cleanup()

	if got := rl.GeneralLimiterCount(); got != 1 {
		t.Errorf("GeneralLimiterCount() = %d, want 1", got)
	}
}

// TestRateLimiterConfigPerMinute は1分あたりの指定がレートとバーストに反映されることを検証する。
func TestRateLimiterConfigPerMinute(t *testing.T) {
	cfg := RateLimiterConfigPerMinute(60)
	if cfg.GeneralRate != 1 || cfg.GeneralBurst != 60 {
		t.Errorf("rate/burst = %v/%d, want 1/60", cfg.GeneralRate, cfg.GeneralBurst)
	}
	if def := RateLimiterConfigPerMinute(0); def.GeneralBurst != DefaultRateLimiterConfig().GeneralBurst {
		t.Errorf("zero should fall back to default, got %+v", def)
	}
	rl := NewRateLimiter(cfg)
	rl.Stop()
	rl.Stop()
}
