// Package handler はHTTPハンドラーとルーティングを提供する。
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/newspulse/internal/middleware"
	"github.com/hitoshi/newspulse/internal/model"
)

// writeJSON はステータスコードとJSONボディを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		middleware.WriteErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeInvalidParameter, model.ErrCodeMissingClientID:
		return http.StatusBadRequest
	case model.ErrCodeArticleNotFound:
		return http.StatusNotFound
	case model.ErrCodeSSRFBlocked:
		return http.StatusForbidden
	case model.ErrCodeRequestSuperseded:
		return http.StatusConflict
	case model.ErrCodeUpstreamFetch:
		return http.StatusBadGateway
	case model.ErrCodeRecommendationTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// invalidRequestBody はリクエストボディを解析できない場合のエラー。
func invalidRequestBody() *model.APIError {
	return &model.APIError{
		Code:     model.ErrCodeInvalidParameter,
		Message:  "リクエストボディの解析に失敗しました。",
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	}
}
