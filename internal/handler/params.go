package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/hitoshi/newspulse/internal/model"
)

// queryInt はクエリパラメータを0以上の整数として読む。未指定の場合はdefを返す。
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, model.NewInvalidParameterError(name, "0以上の整数を指定してください")
	}
	return n, nil
}

// queryBool はクエリパラメータを真偽値として読む。未指定の場合はfalse。
func queryBool(r *http.Request, name string) (bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, model.NewInvalidParameterError(name, "true または false を指定してください")
	}
	return b, nil
}

// queryList はカンマ区切りのクエリパラメータを空要素を除いて返す。
func queryList(r *http.Request, name string) []string {
	var out []string
	for _, v := range r.URL.Query()[name] {
		for _, part := range strings.Split(v, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

// queryIDList はカンマ区切りの記事IDを読み、UUID形式でない要素は除く。
// UUID形式でないIDはどの記事にも一致しない。
func queryIDList(r *http.Request, name string) []string {
	var out []string
	for _, id := range queryList(r, name) {
		if isArticleID(id) {
			out = append(out, id)
		}
	}
	return out
}

// isArticleID は記事IDとして有効なUUIDかを返す。
func isArticleID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
