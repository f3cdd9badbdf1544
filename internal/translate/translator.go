// Package translate はベンガル語記事の翻訳と内容分類を提供する。
package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// Language は記事本文の言語。
type Language string

const (
	Bangla  Language = "bangla"
	English Language = "english"
)

// DetectLanguage はベンガル文字（U+0980〜U+09FF）を含む場合にBangla、それ以外はEnglishを返す。
func DetectLanguage(text string) Language {
	for _, r := range text {
		if r >= 0x0980 && r <= 0x09FF {
			return Bangla
		}
	}
	return English
}

// Translator はテキストを英語に翻訳する。
type Translator interface {
	Translate(ctx context.Context, text string, from Language) (string, error)
}

// MarkerPrefix はMarkerTranslatorが付与する接頭辞。
const MarkerPrefix = "[TRANSLATED] "

// MarkerTranslator は翻訳APIを使わず、原文に接頭辞を付けて返すTranslator。
// APIキーが設定されていない環境で使う。
type MarkerTranslator struct{}

var _ Translator = MarkerTranslator{}

// Translate は原文にMarkerPrefixを付けて返す。
func (MarkerTranslator) Translate(_ context.Context, text string, _ Language) (string, error) {
	return MarkerPrefix + text, nil
}

// DefaultAnthropicModel はAnthropicTranslatorの既定モデル。
const DefaultAnthropicModel = anthropic.ModelClaudeHaiku4_5

const translationPrompt = "You translate Bengali news text into English. " +
	"Reply with the English translation only, without notes or quotation marks."

// AnthropicTranslator はAnthropic Messages APIで翻訳するTranslator。
type AnthropicTranslator struct {
	client    *anthropic.Client
	model     anthropic.Model
	maxTokens int64
}

var _ Translator = (*AnthropicTranslator)(nil)

// NewAnthropicTranslator はAnthropicTranslatorを生成する。modelが空の場合は既定モデルを使う。
func NewAnthropicTranslator(apiKey, model string, opts ...option.RequestOption) *AnthropicTranslator {
	m := DefaultAnthropicModel
	if model != "" {
		m = anthropic.Model(model)
	}
	client := anthropic.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...)
	return &AnthropicTranslator{client: &client, model: m, maxTokens: 2048}
}

// Translate はtextを英語に翻訳する。
func (t *AnthropicTranslator) Translate(ctx context.Context, text string, from Language) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}

	resp, err := t.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     t.model,
		MaxTokens: t.maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: translationPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(fmt.Sprintf("Source language: %s\n\n%s", from, text))),
		},
	})
	if err != nil {
		return "", fmt.Errorf("翻訳APIの呼び出しに失敗しました: %w", err)
	}
	if len(resp.Content) == 0 {
		return "", errors.New("翻訳APIの応答が空です")
	}

	translated := strings.TrimSpace(resp.Content[0].Text)
	if translated == "" {
		return "", errors.New("翻訳APIの応答が空です")
	}
	return translated, nil
}
