package middleware

import (
	"net/http"
	"slices"
	"strings"
)

// corsAllowedHeaders はプリフライトで許可するリクエストヘッダー。
var corsAllowedHeaders = strings.Join([]string{"Content-Type", ClientIDHeader}, ", ")

// NewCORSMiddleware はカンマ区切りのオリジン指定に対するCORSミドルウェアを返す。
//
// オリジンが1つの場合は常にそのオリジンを返す。複数の場合はリクエストのOriginが
// 一覧にあるときだけそれを返す。"*" を含む場合は任意のオリジンを許可するが、
// client_id Cookieを送らせないためAllow-Credentialsは付けない。
// OPTIONSプリフライトリクエストには204で応答する。
func NewCORSMiddleware(allowedOrigins string) func(next http.Handler) http.Handler {
	origins := parseOrigins(allowedOrigins)
	wildcard := slices.Contains(origins, "*")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			switch origin := r.Header.Get("Origin"); {
			case wildcard:
				h.Set("Access-Control-Allow-Origin", "*")
			case len(origins) == 1:
				h.Set("Access-Control-Allow-Origin", origins[0])
				h.Set("Access-Control-Allow-Credentials", "true")
			case slices.Contains(origins, origin):
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Credentials", "true")
				h.Add("Vary", "Origin")
			default:
				h.Add("Vary", "Origin")
			}
			h.Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			h.Set("Access-Control-Allow-Headers", corsAllowedHeaders)
			h.Set("Access-Control-Max-Age", "86400")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func parseOrigins(s string) []string {
	var origins []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, strings.TrimSuffix(o, "/"))
		}
	}
	return origins
}
