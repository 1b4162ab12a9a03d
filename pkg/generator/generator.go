package generator

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/shouni/go-storyboard-kit/pkg/asset"
	"github.com/shouni/go-storyboard-kit/pkg/domain"

	"github.com/google/uuid"
)

// DefaultPollInterval は動画ジョブのステータス確認間隔です。
const DefaultPollInterval = 10 * time.Second

// Option は StoryboardGenerator の設定を変更します。
type Option func(*StoryboardGenerator)

// WithPollInterval はポーリング間隔を設定します。0 以下の値は無視します。
func WithPollInterval(d time.Duration) Option {
	return func(g *StoryboardGenerator) {
		if d > 0 {
			g.pollInterval = d
		}
	}
}

// WithDelay はポーリング間の待機方法を差し替えます。
func WithDelay(delay DelayFunc) Option {
	return func(g *StoryboardGenerator) {
		if delay != nil {
			g.delay = delay
		}
	}
}

// WithRateInterval はシーン画像リクエストの最小間隔を設定します。0 なら制限しません。
func WithRateInterval(d time.Duration) Option {
	return func(g *StoryboardGenerator) { g.rateInterval = d }
}

// WithVideoTimeout は動画フェーズ全体の上限時間を設定します。0 なら無制限です。
func WithVideoTimeout(d time.Duration) Option {
	return func(g *StoryboardGenerator) { g.videoTimeout = d }
}

// WithVideoSink は取得した動画の保存先を設定します。
func WithVideoSink(sink VideoSink) Option {
	return func(g *StoryboardGenerator) {
		if sink != nil {
			g.sink = sink
		}
	}
}

// StoryboardGenerator は絵コンテ生成の全工程を順に実行し、その状態を公開します。
//
// Start (Generate) が実行中に再度呼ばれた場合は、前回の実行をキャンセルしてから状態をリセットします。
// 古い実行からの状態更新は世代番号によって無視されます。
type StoryboardGenerator struct {
	planner   PlanRequester
	character CharacterImageRequester
	scene     SceneImageRequester
	video     VideoRequester
	sink      VideoSink

	pollInterval time.Duration
	delay        DelayFunc
	rateInterval time.Duration
	videoTimeout time.Duration

	mu     sync.Mutex
	state  State
	gen    uint64
	cancel context.CancelFunc
}

// NewStoryboardGenerator は StoryboardGenerator を作成します。
func NewStoryboardGenerator(
	planner PlanRequester,
	character CharacterImageRequester,
	scene SceneImageRequester,
	video VideoRequester,
	opts ...Option,
) *StoryboardGenerator {
	g := &StoryboardGenerator{
		planner:      planner,
		character:    character,
		scene:        scene,
		video:        video,
		pollInterval: DefaultPollInterval,
		delay:        SleepDelay,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.sink == nil {
		g.sink = asset.NewVideoStore("", asset.DefaultVideoTTL)
	}
	return g
}

// run は1回の Start 呼び出しを表します。
type run struct {
	gen    uint64
	id     string
	logger *slog.Logger
}

// State は現在の状態のスナップショットを返します。
func (g *StoryboardGenerator) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state.clone()
}

// Cancel は実行中の生成を中断します。状態はリセットしません。
func (g *StoryboardGenerator) Cancel() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cancel != nil {
		g.cancel()
	}
}

// Generate は絵コンテを生成します。
//
// 画像側が中断した場合はそのエラーを、動画側だけが失敗した場合は動画のエラーを返します。
// シーン単位の失敗はログに残すだけで、エラーにはなりません。
func (g *StoryboardGenerator) Generate(ctx context.Context, prompt string, sceneCount int, wantVideo bool) error {
	_, exec, err := g.Start(ctx, prompt, sceneCount, wantVideo)
	if err != nil {
		return err
	}
	return exec()
}

// Start は入力を検証し、前回の実行を打ち切って新しい実行を登録します。
//
// 状態のリセットと実行 ID の発行は呼び出し中に同期的に完了します。
// 残りの処理は返される exec を呼び出すまで始まりません。exec は一度だけ呼び出してください。
func (g *StoryboardGenerator) Start(ctx context.Context, prompt string, sceneCount int, wantVideo bool) (string, func() error, error) {
	prompt, err := domain.ValidateRequest(prompt, sceneCount)
	if err != nil {
		return "", nil, err
	}

	ctx, r, done := g.begin(ctx)
	exec := func() error {
		defer done()
		return g.execute(ctx, r, prompt, sceneCount, wantVideo)
	}
	return r.id, exec, nil
}

func (g *StoryboardGenerator) execute(ctx context.Context, r run, prompt string, sceneCount int, wantVideo bool) error {
	r.logger.InfoContext(ctx, "絵コンテ生成を開始します", "scenes", sceneCount, "video", wantVideo)

	items, err := g.runImagePhase(ctx, r, prompt, sceneCount)
	// 成功・失敗にかかわらず画像側のローディングを解除します
	g.update(r, func(s *State) {
		s.IsLoading = false
		s.LoadingMessage = ""
	})
	if err != nil {
		return err
	}

	if !wantVideo {
		r.logger.InfoContext(ctx, "絵コンテ生成が完了しました", "items", len(items))
		return nil
	}
	return g.runVideoPhase(ctx, r, prompt, items)
}

// begin は前回の実行をキャンセルし、状態をリセットして新しい実行を登録します。
func (g *StoryboardGenerator) begin(parent context.Context) (context.Context, run, func()) {
	ctx, cancel := context.WithCancel(parent)

	g.mu.Lock()
	if g.cancel != nil {
		g.cancel()
	}
	g.gen++
	r := run{gen: g.gen, id: uuid.NewString()}
	g.cancel = cancel
	g.state = State{
		RunID:          r.id,
		IsLoading:      true,
		LoadingMessage: MessagePlanning,
	}
	g.mu.Unlock()

	r.logger = slog.With("run", r.id)

	done := func() {
		cancel()
		g.mu.Lock()
		if g.gen == r.gen {
			g.cancel = nil
		}
		g.mu.Unlock()
	}
	return ctx, r, done
}

// update は実行が最新の場合だけ状態を更新します。
func (g *StoryboardGenerator) update(r run, fn func(*State)) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.gen != r.gen {
		return false
	}
	fn(&g.state)
	return true
}

// runImagePhase は構成案、キャラクター参照画像、シーン画像の順に生成します。
// 構成案とキャラクターの失敗は実行全体を中断します。
func (g *StoryboardGenerator) runImagePhase(ctx context.Context, r run, prompt string, sceneCount int) ([]domain.StoryboardItem, error) {
	plan, err := g.planner.Plan(ctx, prompt, sceneCount)
	if err == nil && plan == nil {
		err = errors.New("plan requester returned no plan")
	}
	if err != nil {
		return nil, g.failImage(ctx, r, domain.NewGenerationError(domain.PlanFailure, err))
	}

	items := domain.NewStoryboardItems(plan.Truncate(sceneCount))
	g.update(r, func(s *State) {
		s.Items = append([]domain.StoryboardItem(nil), items...)
		s.LoadingMessage = MessageCharacter
	})
	r.logger.InfoContext(ctx, "構成案を受け取りました", "items", len(items))

	reference, err := g.character.GenerateCharacter(ctx, plan.CharacterSheetPrompt)
	if err != nil {
		return nil, g.failImage(ctx, r, domain.NewGenerationError(domain.CharacterFailure, err))
	}

	g.update(r, func(s *State) { s.LoadingMessage = ScenesMessage(len(items)) })

	results := g.fanOutScenes(ctx, r, reference, items)
	if err := ctx.Err(); err != nil {
		return nil, g.failImage(ctx, r, domain.NewGenerationError(domain.SceneFailure, err))
	}

	succeeded, failures := applySceneResults(items, results)
	for _, f := range failures {
		r.logger.WarnContext(ctx, "シーン画像の生成に失敗しました", "scene", f.ItemID, "kind", f.Kind, "error", f)
	}

	g.update(r, func(s *State) {
		s.Items = append([]domain.StoryboardItem(nil), items...)
	})
	r.logger.InfoContext(ctx, "シーン画像の生成が完了しました", "succeeded", succeeded, "total", len(items))

	return items, nil
}

func (g *StoryboardGenerator) failImage(ctx context.Context, r run, err *domain.GenerationError) error {
	r.logger.ErrorContext(ctx, "画像生成に失敗しました", "kind", err.Kind, "error", err.Err)
	g.update(r, func(s *State) { s.setImageError(err) })
	return err
}

// runVideoPhase は最初の画像付きシーンをシードに動画を生成します。
// 失敗しても画像側の状態には影響しません。
func (g *StoryboardGenerator) runVideoPhase(ctx context.Context, r run, prompt string, items []domain.StoryboardItem) error {
	seed, ok := domain.FirstWithImage(items)
	if !ok {
		err := domain.NewGenerationError(domain.NoValidImageForVideo, nil)
		r.logger.WarnContext(ctx, "画像がないため動画生成をスキップします")
		g.update(r, func(s *State) { s.setVideoError(err) })
		return err
	}

	g.update(r, func(s *State) {
		s.IsVideoLoading = true
		s.VideoLoadingMessage = MessageVideoInit
		s.VideoError = ""
		s.VideoErr = nil
	})
	defer g.update(r, func(s *State) {
		s.IsVideoLoading = false
		s.VideoLoadingMessage = ""
	})

	if g.videoTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.videoTimeout)
		defer cancel()
	}

	url, err := g.produceVideo(ctx, r, prompt, seed)
	if err != nil {
		r.logger.ErrorContext(ctx, "動画生成に失敗しました", "error", err)
		g.update(r, func(s *State) { s.setVideoError(err) })
		return err
	}

	g.update(r, func(s *State) { s.VideoURL = url })
	r.logger.InfoContext(ctx, "動画生成が完了しました", "url", url, "seed_scene", seed.ID)
	return nil
}

func (g *StoryboardGenerator) produceVideo(ctx context.Context, r run, prompt string, seed domain.StoryboardItem) (string, error) {
	poller := NewVideoPoller(g.video, g.pollInterval, g.delay, func(ps PollState) {
		r.logger.DebugContext(ctx, "動画ジョブの状態が変化しました", "state", ps)
		if ps == PollPolling {
			g.update(r, func(s *State) { s.VideoLoadingMessage = MessageVideoProcessing })
		}
	})

	op, err := poller.Run(ctx, prompt, seed.ImageBase64)
	if err != nil {
		return "", err
	}

	uri, ok := op.FirstVideoURI()
	if !ok {
		return "", domain.NewGenerationError(domain.VideoFetchFailure, domain.ErrNoVideoLink)
	}

	g.update(r, func(s *State) { s.VideoLoadingMessage = MessageVideoFetching })
	data, err := g.video.FetchVideo(ctx, uri)
	if err != nil {
		return "", domain.NewGenerationError(domain.VideoFetchFailure, err)
	}

	url, err := g.sink.Put(ctx, data)
	if err != nil {
		return "", domain.NewGenerationError(domain.VideoFetchFailure, err)
	}
	return url, nil
}
