package generator

import (
	"context"

	"github.com/shouni/go-storyboard-kit/pkg/domain"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// sceneResult は1シーン分の生成結果です。
type sceneResult struct {
	image string
	err   error
}

// fanOutScenes は全シーンの画像を並列に生成し、すべての完了を待ちます。
// 各ゴルーチンは自分の添字の要素だけに書き込むため、ロックは不要です。
// errgroup.WithContext は使わず、1つの失敗が他のシーンを止めないようにしています。
func (g *StoryboardGenerator) fanOutScenes(ctx context.Context, r run, reference string, items []domain.StoryboardItem) []sceneResult {
	results := make([]sceneResult, len(items))

	var limiter *rate.Limiter
	if g.rateInterval > 0 {
		// Burst 2 により、開始直後に2枚までは同時にリクエストできます
		limiter = rate.NewLimiter(rate.Every(g.rateInterval), 2)
	}

	var eg errgroup.Group
	for i, item := range items {
		eg.Go(func() error {
			if limiter != nil {
				if err := limiter.Wait(ctx); err != nil {
					results[i].err = err
					return nil
				}
			}

			r.logger.DebugContext(ctx, "シーン画像を生成中...", "scene", item.ID)
			image, err := g.scene.GenerateScene(ctx, reference, item.ImagePrompt)
			results[i] = sceneResult{image: image, err: err}
			return nil
		})
	}
	_ = eg.Wait()

	return results
}

// applySceneResults は成功したシーンに画像を設定し、失敗したシーンを SceneFailure として返します。
func applySceneResults(items []domain.StoryboardItem, results []sceneResult) (int, []*domain.GenerationError) {
	succeeded := 0
	var failures []*domain.GenerationError
	for i, res := range results {
		if res.err != nil {
			failures = append(failures, domain.NewSceneError(items[i].ID, res.err))
			continue
		}
		items[i].ImageBase64 = res.image
		succeeded++
	}
	return succeeded, failures
}
