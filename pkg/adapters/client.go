package adapters

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"google.golang.org/genai"
)

// NewGeminiClient は Gemini API バックエンドの genai クライアントを初期化します。
// 起動時に一度だけ作成し、各リクエスタに注入します。
// APIキーの有無は呼び出し前に設定の検証で確認済みであることを前提とします。
func NewGeminiClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("AIクライアントの初期化に失敗しました: %w", err)
	}
	return client, nil
}

// logProviderError はプロバイダのエラーを分類してログに残すのだ。
// エラーそのものは呼び出し元にそのまま返すのだ。
func logProviderError(ctx context.Context, op string, err error) {
	var apiErr *genai.APIError
	if errors.As(err, &apiErr) {
		level := slog.LevelError
		if apiErr.Code == 429 || apiErr.Code >= 500 {
			level = slog.LevelWarn
		}
		slog.Log(ctx, level, "Gemini API がエラーを返したのだ",
			"op", op, "code", apiErr.Code, "status", apiErr.Status, "message", apiErr.Message)
		return
	}
	slog.ErrorContext(ctx, "Gemini API 呼び出しに失敗したのだ", "op", op, "error", err)
}
