package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/newspulse/internal/breaking"
	"github.com/hitoshi/newspulse/internal/development"
	"github.com/hitoshi/newspulse/internal/tagging"
	"github.com/hitoshi/newspulse/internal/translate"
)

// MonitorRunner は速報監視パスを実行する。
type MonitorRunner interface {
	Run(ctx context.Context) breaking.MonitorResult
}

// TaggingRunner はタグ付けジョブを実行する。
type TaggingRunner interface {
	Run(ctx context.Context, limit int, force bool) tagging.Result
}

// TranslationRunner は翻訳・分類ジョブを実行する。
type TranslationRunner interface {
	Run(ctx context.Context, limit int, force bool) translate.Result
}

// DevelopmentRunner は紛争記事の動向解析を実行する。
type DevelopmentRunner interface {
	Run(ctx context.Context, limit, hours int) development.Result
}

// JobHandler はバッチジョブの手動トリガーのHTTPハンドラー。
// ジョブの結果はそのままレスポンスボディとして返し、失敗時は500を返す。
type JobHandler struct {
	monitor      MonitorRunner
	tagger       TaggingRunner
	translate    TranslationRunner
	developments DevelopmentRunner
}

// NewJobHandler はJobHandlerを生成する。
func NewJobHandler(monitor MonitorRunner, tagger TaggingRunner, translate TranslationRunner, developments DevelopmentRunner) *JobHandler {
	return &JobHandler{monitor: monitor, tagger: tagger, translate: translate, developments: developments}
}

// RunBreakingMonitor は速報監視パスを1回実行する。
// POST /api/jobs/breaking-monitor
func (h *JobHandler) RunBreakingMonitor(w http.ResponseWriter, r *http.Request) {
	// 呼び出し元が切断してもジョブは最後まで実行する
	result := h.monitor.Run(context.WithoutCancel(r.Context()))
	writeJSON(w, jobStatus(result.Success), result)
}

// RunTagging はタグ付けジョブを実行する。
// POST /api/jobs/tag?limit=&force=
func (h *JobHandler) RunTagging(w http.ResponseWriter, r *http.Request) {
	limit, force, ok := jobParams(w, r, tagging.DefaultLimit)
	if !ok {
		return
	}
	result := h.tagger.Run(context.WithoutCancel(r.Context()), limit, force)
	writeJSON(w, jobStatus(result.Success), result)
}

// RunTranslation は翻訳・分類ジョブを実行する。
// POST /api/jobs/translate?limit=&force=
func (h *JobHandler) RunTranslation(w http.ResponseWriter, r *http.Request) {
	limit, force, ok := jobParams(w, r, translate.DefaultLimit)
	if !ok {
		return
	}
	result := h.translate.Run(context.WithoutCancel(r.Context()), limit, force)
	writeJSON(w, jobStatus(result.Success), result)
}

// RunDevelopments は直近の紛争記事から動向を抽出する。
// POST /api/jobs/developments?limit=&hours=
func (h *JobHandler) RunDevelopments(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", development.DefaultLimit)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	hours, err := queryInt(r, "hours", development.DefaultHours)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	result := h.developments.Run(context.WithoutCancel(r.Context()), limit, hours)
	writeJSON(w, jobStatus(result.Success), result)
}

func jobParams(w http.ResponseWriter, r *http.Request, defaultLimit int) (int, bool, bool) {
	limit, err := queryInt(r, "limit", defaultLimit)
	if err != nil {
		handleServiceError(w, err)
		return 0, false, false
	}
	force, err := queryBool(r, "force")
	if err != nil {
		handleServiceError(w, err)
		return 0, false, false
	}
	return limit, force, true
}

func jobStatus(success bool) int {
	if success {
		return http.StatusOK
	}
	return http.StatusInternalServerError
}
