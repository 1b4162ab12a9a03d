package generator

import (
	"context"
	"errors"
	"time"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

var errNilOperation = errors.New("video operation handle is nil")

// PollState は動画ジョブのポーリング状態です。
type PollState int

const (
	PollStarting PollState = iota
	PollPolling
	PollSucceeded
	PollFailed
)

func (s PollState) String() string {
	switch s {
	case PollStarting:
		return "Starting"
	case PollPolling:
		return "Polling"
	case PollSucceeded:
		return "Succeeded"
	case PollFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// DelayFunc はポーリング間の待機を行います。
// テストでは実時間を進めない実装に差し替えます。
type DelayFunc func(ctx context.Context, d time.Duration) error

// SleepDelay は実時間で待機する DelayFunc です。コンテキストがキャンセルされると即座に戻ります。
func SleepDelay(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// VideoPoller は動画ジョブを開始し、完了するまで一定間隔でポーリングする状態機械です。
// Starting → Polling → Succeeded | Failed と遷移します。
type VideoPoller struct {
	requester    VideoJobRequester
	interval     time.Duration
	delay        DelayFunc
	onTransition func(PollState)

	state PollState
	polls int
}

// NewVideoPoller は VideoPoller を作成します。delay が nil の場合は SleepDelay を使います。
func NewVideoPoller(requester VideoJobRequester, interval time.Duration, delay DelayFunc, onTransition func(PollState)) *VideoPoller {
	if delay == nil {
		delay = SleepDelay
	}
	return &VideoPoller{
		requester:    requester,
		interval:     interval,
		delay:        delay,
		onTransition: onTransition,
	}
}

// State は現在の状態を返します。
func (p *VideoPoller) State() PollState { return p.state }

// Polls はポーリングを呼び出した回数を返します。
func (p *VideoPoller) Polls() int { return p.polls }

// Run はジョブを開始し、Done になった最新のハンドルを返します。
// 失敗時は VideoStartFailure または VideoPollFailure の GenerationError を返します。
func (p *VideoPoller) Run(ctx context.Context, prompt, seedImageBase64 string) (*domain.VideoOperation, error) {
	p.transition(PollStarting)

	op, err := p.requester.StartVideo(ctx, prompt, seedImageBase64)
	if err != nil {
		return nil, p.fail(domain.VideoStartFailure, err)
	}
	if op == nil {
		return nil, p.fail(domain.VideoStartFailure, errNilOperation)
	}

	p.transition(PollPolling)
	for !op.Done {
		if err := p.delay(ctx, p.interval); err != nil {
			return nil, p.fail(domain.VideoPollFailure, err)
		}

		next, err := p.requester.PollVideo(ctx, op)
		p.polls++
		if err != nil {
			return nil, p.fail(domain.VideoPollFailure, err)
		}
		if next == nil {
			return nil, p.fail(domain.VideoPollFailure, errNilOperation)
		}
		op = next
	}

	if op.Err != "" {
		return nil, p.fail(domain.VideoPollFailure, errors.New(op.Err))
	}

	p.transition(PollSucceeded)
	return op, nil
}

func (p *VideoPoller) fail(kind domain.ErrorKind, err error) error {
	p.transition(PollFailed)
	return domain.NewGenerationError(kind, err)
}

func (p *VideoPoller) transition(s PollState) {
	p.state = s
	if p.onTransition != nil {
		p.onTransition(s)
	}
}
