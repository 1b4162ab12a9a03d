package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shouni/go-storyboard-kit/internal/builder"
	"github.com/shouni/go-storyboard-kit/internal/config"
	"github.com/shouni/go-storyboard-kit/pkg/domain"
	"github.com/shouni/go-storyboard-kit/pkg/generator"
	"github.com/shouni/go-storyboard-kit/pkg/publisher"
)

// Storyboarder は Generate と State を提供する生成器なのだ。
type Storyboarder interface {
	Generate(ctx context.Context, prompt string, sceneCount int, wantVideo bool) error
	State() generator.State
}

// Result は CLI 実行の結果なのだ。
type Result struct {
	State   generator.State
	Publish publisher.PublishResult
}

// Execute は設定に従って絵コンテを1本生成し、成果物を出力ディレクトリに保存するのだ。
func Execute(ctx context.Context, cfg *config.Config) (*Result, error) {
	appCtx, err := builder.NewAppContext(ctx, cfg)
	if err != nil {
		return nil, err
	}

	outputDir := cfg.Options.OutputDir
	gen := builder.BuildGenerator(appCtx, publisher.NewFileVideoSink(outputDir))
	return Run(ctx, gen, publisher.NewStoryboardPublisher(), cfg.Options)
}

// Run は生成と保存を実行するのだ。テストからは偽の生成器を渡せるのだ。
//
// 画像側のエラーで中断しても、表示済みのシーン原稿があれば zip に保存するのだ。
func Run(ctx context.Context, gen Storyboarder, pub *publisher.StoryboardPublisher, opts config.GenerateOptions) (*Result, error) {
	slog.InfoContext(ctx, "Phase 1: 絵コンテ生成を開始するのだ...", "scenes", opts.SceneCount, "video", opts.WantVideo)
	genErr := gen.Generate(ctx, opts.Prompt, opts.SceneCount, opts.WantVideo)

	// 入力エラーは状態が変わっていないのでここで終わりなのだ
	if errors.Is(genErr, domain.ErrInvalidPrompt) || errors.Is(genErr, domain.ErrInvalidSceneCount) {
		return nil, genErr
	}

	result := &Result{State: gen.State()}
	if len(result.State.Items) == 0 {
		return result, genErr
	}

	slog.InfoContext(ctx, "Phase 2: 公開処理を開始するのだ...")
	published, err := pub.Publish(ctx, result.State.Items, publisher.Options{OutputDir: opts.OutputDir})
	if err != nil {
		return result, errors.Join(genErr, fmt.Errorf("公開処理に失敗したのだ: %w", err))
	}
	result.Publish = published

	return result, genErr
}
