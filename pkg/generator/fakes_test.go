package generator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

// fakePlanner は Plan の結果を関数で決めるのだ。
type fakePlanner struct {
	fn func(prompt string, n int) (*domain.StoryPlan, error)
}

func (f *fakePlanner) Plan(_ context.Context, prompt string, n int) (*domain.StoryPlan, error) {
	return f.fn(prompt, n)
}

// planWithScenes は n 個のシーン (p1..pn) を持つ構成案を返すのだ。
func planWithScenes(prefix string, n int) *domain.StoryPlan {
	plan := &domain.StoryPlan{CharacterSheetPrompt: prefix + " character"}
	for i := 1; i <= n; i++ {
		plan.Scenes = append(plan.Scenes, domain.SceneSpec{
			ImagePrompt:     fmt.Sprintf("%sp%d", prefix, i),
			VoiceoverScript: fmt.Sprintf("%ss%d", prefix, i),
		})
	}
	return plan
}

func exactPlanner() *fakePlanner {
	return &fakePlanner{fn: func(_ string, n int) (*domain.StoryPlan, error) {
		return planWithScenes("", n), nil
	}}
}

type fakeCharacter struct {
	mu    sync.Mutex
	err   error
	calls int
}

func (f *fakeCharacter) GenerateCharacter(_ context.Context, description string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return "ref:" + description, nil
}

// fakeScene は指定したプロンプトだけ失敗させるのだ。
type fakeScene struct {
	mu      sync.Mutex
	fail    map[string]bool
	calls   int
	refs    []string
	barrier *sync.WaitGroup
}

func (f *fakeScene) GenerateScene(ctx context.Context, ref, prompt string) (string, error) {
	f.mu.Lock()
	f.calls++
	f.refs = append(f.refs, ref)
	shouldFail := f.fail[prompt]
	barrier := f.barrier
	f.mu.Unlock()

	if barrier != nil {
		// 全員がここに到達するまで待つことで、同時に実行されていることを確かめるのだ
		barrier.Done()
		waited := make(chan struct{})
		go func() {
			barrier.Wait()
			close(waited)
		}()
		select {
		case <-waited:
		case <-time.After(2 * time.Second):
			return "", errors.New("scene requests were not issued concurrently")
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	if shouldFail {
		return "", errors.New("scene blocked by safety filter")
	}
	return "img:" + prompt, nil
}

func (f *fakeScene) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeVideo はポーリングのたびに ops を順番に返すのだ。
type fakeVideo struct {
	mu       sync.Mutex
	startErr error
	start    *domain.VideoOperation
	ops      []*domain.VideoOperation
	pollErr  error
	fetchErr error

	starts    int
	seeds     []string
	polls     int
	fetches   int
	fetchURIs []string
}

func (f *fakeVideo) StartVideo(_ context.Context, _ string, seed string) (*domain.VideoOperation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts++
	f.seeds = append(f.seeds, seed)
	if f.startErr != nil {
		return nil, f.startErr
	}
	if f.start != nil {
		return f.start, nil
	}
	return &domain.VideoOperation{Name: "operations/test"}, nil
}

func (f *fakeVideo) PollVideo(_ context.Context, _ *domain.VideoOperation) (*domain.VideoOperation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.polls++
	if f.pollErr != nil {
		return nil, f.pollErr
	}
	if len(f.ops) == 0 {
		return nil, errors.New("unexpected poll")
	}
	op := f.ops[0]
	f.ops = f.ops[1:]
	return op, nil
}

func (f *fakeVideo) FetchVideo(_ context.Context, uri string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	f.fetchURIs = append(f.fetchURIs, uri)
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return []byte("mp4"), nil
}

func (f *fakeVideo) counts() (starts, polls, fetches int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.starts, f.polls, f.fetches
}

// pendingThenDone は [not-done, not-done, done-with-uri] の並びなのだ。
func pendingThenDone() []*domain.VideoOperation {
	return []*domain.VideoOperation{
		{Name: "operations/test"},
		{Name: "operations/test"},
		{Name: "operations/test", Done: true, VideoURIs: []string{"https://example.com/video?alt=media"}},
	}
}

// recordingDelay は実時間を使わずに待機回数と間隔を記録するのだ。
type recordingDelay struct {
	mu        sync.Mutex
	durations []time.Duration
}

func (d *recordingDelay) Delay(ctx context.Context, dur time.Duration) error {
	d.mu.Lock()
	d.durations = append(d.durations, dur)
	d.mu.Unlock()
	return ctx.Err()
}

func (d *recordingDelay) Count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.durations)
}

// memorySink は動画を保存したふりをするのだ。
type memorySink struct {
	mu   sync.Mutex
	data [][]byte
}

func (s *memorySink) Put(_ context.Context, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = append(s.data, data)
	return fmt.Sprintf("/videos/%d", len(s.data)), nil
}
