package adapters

import (
	"context"

	"google.golang.org/genai"
)

// ModelsAPI は genai の Models サービスのうち、このパッケージが使う部分なのだ。
// *genai.Models がそのまま満たすのだ。
type ModelsAPI interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	GenerateImages(ctx context.Context, model string, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error)
	GenerateVideos(ctx context.Context, model string, prompt string, image *genai.Image, config *genai.GenerateVideosConfig) (*genai.GenerateVideosOperation, error)
}

// OperationsAPI は長時間ジョブの状態を取得するのだ。*genai.Operations が満たすのだ。
type OperationsAPI interface {
	GetVideosOperation(ctx context.Context, operation *genai.GenerateVideosOperation, config *genai.GetOperationConfig) (*genai.GenerateVideosOperation, error)
}
