// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"regexp"

	"github.com/hitoshi/newspulse/internal/model"
)

// ClientIDHeader はクライアントIDを送るリクエストヘッダー名。
const ClientIDHeader = "X-Client-ID"

// clientIDCookieName はヘッダーがない場合に参照するCookie名。
const clientIDCookieName = "client_id"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// clientIDContextKey はリクエストコンテキストにクライアントIDを格納するためのキー。
var clientIDContextKey = contextKey("client_id")

// clientIDPattern はクライアントIDとして受け付ける形式（英数字・ハイフン・アンダースコア、1〜64文字）。
var clientIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// NewClientIDMiddleware はX-Client-IDヘッダー（なければclient_id Cookie）から
// クライアントIDを読み取り、リクエストコンテキストに注入するミドルウェアを返す。
// IDがない・形式が不正なリクエストもそのまま通す。拒否はRequireClientIDで行う。
func NewClientIDMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(ClientIDHeader)
			if id == "" {
				if c, err := r.Cookie(clientIDCookieName); err == nil {
					id = c.Value
				}
			}
			if clientIDPattern.MatchString(id) {
				r = r.WithContext(ContextWithClientID(r.Context(), id))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireClientID はクライアントIDのないリクエストに400を返すミドルウェアを返す。
// NewClientIDMiddlewareの後に配置する。
func RequireClientID() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := ClientIDFromContext(r.Context()); err != nil {
				WriteErrorResponse(w, http.StatusBadRequest, model.NewMissingClientIDError())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIDFromContext はリクエストコンテキストからクライアントIDを取得する。
func ClientIDFromContext(ctx context.Context) (string, error) {
	id, ok := ctx.Value(clientIDContextKey).(string)
	if !ok || id == "" {
		return "", fmt.Errorf("client ID not found in context")
	}
	return id, nil
}

// ContextWithClientID はコンテキストにクライアントIDを注入する。
func ContextWithClientID(ctx context.Context, clientID string) context.Context {
	return context.WithValue(ctx, clientIDContextKey, clientID)
}

// rateLimitKey はレート制限のキーを返す。クライアントIDがない場合は接続元IPを使う。
func rateLimitKey(r *http.Request) string {
	if id, err := ClientIDFromContext(r.Context()); err == nil {
		return "client:" + id
	}
	return remoteIPKey(r)
}

// remoteIPKey は接続元IPによるレート制限のキーを返す。
func remoteIPKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}
