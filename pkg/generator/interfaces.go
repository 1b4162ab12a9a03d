package generator

import (
	"context"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

// PlanRequester は、プロンプトとシーン数から絵コンテの構成を取得します。
type PlanRequester interface {
	Plan(ctx context.Context, prompt string, sceneCount int) (*domain.StoryPlan, error)
}

// CharacterImageRequester は、キャラクターの参照画像を base64 で返します。
type CharacterImageRequester interface {
	GenerateCharacter(ctx context.Context, description string) (string, error)
}

// SceneImageRequester は、参照画像に条件づけたシーン画像を base64 で返します。
type SceneImageRequester interface {
	GenerateScene(ctx context.Context, referenceBase64, scenePrompt string) (string, error)
}

// VideoJobRequester は、動画生成ジョブの開始とポーリングを行います。
type VideoJobRequester interface {
	StartVideo(ctx context.Context, prompt, seedImageBase64 string) (*domain.VideoOperation, error)
	PollVideo(ctx context.Context, op *domain.VideoOperation) (*domain.VideoOperation, error)
}

// VideoRequester は、ジョブ操作に加えて完成した動画の取得も行います。
type VideoRequester interface {
	VideoJobRequester
	FetchVideo(ctx context.Context, uri string) ([]byte, error)
}

// VideoSink は、取得した動画バイト列を保存し、ローカルで解決できる URL を返します。
type VideoSink interface {
	Put(ctx context.Context, data []byte) (string, error)
}
