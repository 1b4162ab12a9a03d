package builder

import (
	"github.com/shouni/go-storyboard-kit/pkg/adapters"
	"github.com/shouni/go-storyboard-kit/pkg/generator"
)

// Requesters は生成の各工程を担当するリクエスタの組です。
type Requesters struct {
	Plan      *adapters.PlanRequester
	Character *adapters.CharacterImageRequester
	Scene     *adapters.SceneImageRequester
	Video     *adapters.VideoRequester
}

// BuildRequesters は共通の genai クライアントから各リクエスタを構築します。
func BuildRequesters(appCtx *AppContext) Requesters {
	cfg := appCtx.Config
	models := appCtx.aiClient.Models
	return Requesters{
		Plan:      adapters.NewPlanRequester(models, cfg.PlanModel, appCtx.Prompts),
		Character: adapters.NewCharacterImageRequester(models, cfg.CharacterModel, appCtx.Prompts),
		Scene:     adapters.NewSceneImageRequester(models, cfg.SceneModel, appCtx.Prompts),
		Video: adapters.NewVideoRequester(
			models,
			appCtx.aiClient.Operations,
			appCtx.httpClient,
			cfg.VideoModel,
			cfg.GeminiAPIKey,
			appCtx.Prompts,
		),
	}
}

// BuildGenerator は StoryboardGenerator を構築します。
// sink は取得した動画の保存先です（CLI はファイル、サーバーはメモリ）。
func BuildGenerator(appCtx *AppContext, sink generator.VideoSink) *generator.StoryboardGenerator {
	r := BuildRequesters(appCtx)
	opts := appCtx.Options

	return generator.NewStoryboardGenerator(
		r.Plan,
		r.Character,
		r.Scene,
		r.Video,
		generator.WithVideoSink(sink),
		generator.WithPollInterval(opts.PollInterval),
		generator.WithRateInterval(opts.RateInterval),
		generator.WithVideoTimeout(opts.VideoTimeout),
	)
}
