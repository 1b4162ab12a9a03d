package builder

import (
	"context"
	"fmt"

	"github.com/shouni/go-storyboard-kit/internal/config"
	"github.com/shouni/go-storyboard-kit/pkg/adapters"
	"github.com/shouni/go-storyboard-kit/pkg/prompts"

	"github.com/shouni/go-http-kit/httpkit"
	"google.golang.org/genai"
)

// AppContext は、アプリケーション実行に必要な共通コンテキストを保持する
// これを各Build関数に渡すことで、依存関係の注入を簡素化します。
type AppContext struct {
	Config     *config.Config         // Configは、環境変数から読み込まれたグローバルな設定です（APIキー、モデル名など）。
	Options    config.GenerateOptions // Optionsは、コマンドラインから渡された実行時の設定です。
	Prompts    prompts.PromptBuilder  // Promptsは、埋め込みテンプレートからプロンプトを組み立てます。
	aiClient   *genai.Client          // aiClient はGeminiの通信に使う共通クライアント
	httpClient httpkit.Doer           // httpClient は動画ファイルのダウンロードに使う共通クライアント
}

// NewAppContext は設定を検証し、共通クライアントを一度だけ初期化して AppContext を返します。
func NewAppContext(ctx context.Context, cfg *config.Config) (*AppContext, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	aiClient, err := adapters.NewGeminiClient(ctx, cfg.GeminiAPIKey)
	if err != nil {
		return nil, err
	}

	pb, err := prompts.NewTextPromptBuilder()
	if err != nil {
		return nil, fmt.Errorf("プロンプトビルダーの初期化に失敗しました: %w", err)
	}

	return &AppContext{
		Config:     cfg,
		Options:    cfg.Options,
		Prompts:    pb,
		aiClient:   aiClient,
		httpClient: httpkit.New(config.DefaultHTTPTimeout),
	}, nil
}
