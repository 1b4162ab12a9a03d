package adapters

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
	"github.com/shouni/go-storyboard-kit/pkg/prompts"

	"github.com/shouni/go-http-kit/httpkit"
	"google.golang.org/genai"
)

// MaxVideoSize は取得する動画ファイルの上限サイズなのだ。
const MaxVideoSize = int64(512 * 1024 * 1024)

var (
	errNilOperation  = errors.New("video operation handle is nil")
	errVideoTooLarge = fmt.Errorf("video exceeds %d bytes", MaxVideoSize)
)

// VideoRequester は動画生成ジョブの開始、ポーリング、完成ファイルの取得を担当するのだ。
type VideoRequester struct {
	models     ModelsAPI
	operations OperationsAPI
	httpClient httpkit.Doer
	model      string
	apiKey     string
	prompts    prompts.PromptBuilder
}

// NewVideoRequester は VideoRequester を作成するのだ。
// apiKey は完成動画のダウンロード時にも使うのだ。
func NewVideoRequester(models ModelsAPI, operations OperationsAPI, httpClient httpkit.Doer, model, apiKey string, pb prompts.PromptBuilder) *VideoRequester {
	return &VideoRequester{
		models:     models,
		operations: operations,
		httpClient: httpClient,
		model:      model,
		apiKey:     apiKey,
		prompts:    pb,
	}
}

// StartVideo は元のプロンプトとシード画像（base64 PNG）で動画生成ジョブを開始するのだ。
func (r *VideoRequester) StartVideo(ctx context.Context, prompt, seedImageBase64 string) (*domain.VideoOperation, error) {
	img, err := base64.StdEncoding.DecodeString(seedImageBase64)
	if err != nil {
		return nil, fmt.Errorf("シード画像のデコードに失敗しました: %w", err)
	}

	text, err := r.prompts.Build(prompts.KindVideo, prompts.TemplateData{Prompt: prompt})
	if err != nil {
		return nil, err
	}

	op, err := r.models.GenerateVideos(ctx, r.model, text,
		&genai.Image{ImageBytes: img, MIMEType: pngMIMEType},
		&genai.GenerateVideosConfig{NumberOfVideos: 1},
	)
	if err != nil {
		logProviderError(ctx, "video_start", err)
		return nil, fmt.Errorf("failed to start video generation: %w", err)
	}
	if op == nil {
		return nil, fmt.Errorf("failed to start video generation: %w", errNilOperation)
	}
	return toVideoOperation(op), nil
}

// PollVideo は現在のハンドルの最新状態を取得するのだ。
func (r *VideoRequester) PollVideo(ctx context.Context, op *domain.VideoOperation) (*domain.VideoOperation, error) {
	if op == nil {
		return nil, errNilOperation
	}

	latest, err := r.operations.GetVideosOperation(ctx, &genai.GenerateVideosOperation{Name: op.Name}, nil)
	if err != nil {
		logProviderError(ctx, "video_poll", err)
		return nil, fmt.Errorf("failed to poll video generation status: %w", err)
	}
	if latest == nil {
		return nil, fmt.Errorf("failed to poll video generation status: %w", errNilOperation)
	}
	return toVideoOperation(latest), nil
}

// FetchVideo は動画 URI に APIキーを付与してダウンロードするのだ。
// リトライはしないので、Do だけを使うのだ。
func (r *VideoRequester) FetchVideo(ctx context.Context, uri string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, withAPIKey(uri, r.apiKey), nil)
	if err != nil {
		return nil, fmt.Errorf("動画取得リクエストの作成に失敗しました: %w", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch video: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := httpkit.HandleLimitedResponse(resp, httpkit.MaxBodyDisplaySize)
		return nil, fmt.Errorf("failed to fetch video: %w", &httpkit.NonRetryableHTTPError{
			StatusCode: resp.StatusCode,
			Body:       body,
		})
	}

	// 上限を1バイト超えて読めたらサイズ超過なのだ
	data, err := httpkit.HandleLimitedResponse(resp, MaxVideoSize+1)
	if err != nil {
		return nil, fmt.Errorf("動画データの読み込みに失敗しました: %w", err)
	}
	if int64(len(data)) > MaxVideoSize {
		return nil, fmt.Errorf("failed to fetch video: %w", errVideoTooLarge)
	}
	return data, nil
}

// withAPIKey は URI の末尾に key パラメータを追加するのだ。
// 動画 URI は通常クエリ付き（?alt=media）なので & でつなぐのだ。
func withAPIKey(uri, apiKey string) string {
	sep := "&"
	if !strings.Contains(uri, "?") {
		sep = "?"
	}
	return uri + sep + "key=" + apiKey
}

func toVideoOperation(op *genai.GenerateVideosOperation) *domain.VideoOperation {
	out := &domain.VideoOperation{
		Name: op.Name,
		Done: op.Done,
	}
	if len(op.Error) > 0 {
		if msg, ok := op.Error["message"].(string); ok && msg != "" {
			out.Err = msg
		} else {
			out.Err = fmt.Sprint(op.Error)
		}
	}
	if op.Response != nil {
		for _, v := range op.Response.GeneratedVideos {
			if v != nil && v.Video != nil && v.Video.URI != "" {
				out.VideoURIs = append(out.VideoURIs, v.Video.URI)
			}
		}
	}
	return out
}
