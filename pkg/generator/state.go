package generator

import (
	"fmt"
	"slices"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

// 進捗メッセージです。
const (
	MessagePlanning        = "Breaking down your script into scenes..."
	MessageCharacter       = "Creating a consistent character reference..."
	MessageVideoInit       = "Initializing video generation... This can take several minutes."
	MessageVideoProcessing = "Video is processing in the background. Please be patient."
	MessageVideoFetching   = "Fetching final video file..."
)

// ScenesMessage はシーン画像の並列生成中に表示するメッセージを返します。
func ScenesMessage(n int) string {
	return fmt.Sprintf("Generating all %d images in parallel... This may take a moment.", n)
}

// State は表示層に公開する生成状態のスナップショットです。
// 画像側と動画側のエラーは独立したチャネルとして保持します。
type State struct {
	RunID string `json:"runId,omitempty"`

	Items          []domain.StoryboardItem `json:"items"`
	IsLoading      bool                    `json:"isLoading"`
	LoadingMessage string                  `json:"loadingMessage"`
	Error          string                  `json:"error,omitempty"`

	IsVideoLoading      bool   `json:"isVideoLoading"`
	VideoLoadingMessage string `json:"videoLoadingMessage"`
	VideoURL            string `json:"videoUrl,omitempty"`
	VideoError          string `json:"videoError,omitempty"`

	// Err と VideoErr は Error / VideoError の元になった型付きエラーです。
	Err      error `json:"-"`
	VideoErr error `json:"-"`
}

// clone は Items を複製したコピーを返します。
func (s State) clone() State {
	s.Items = slices.Clone(s.Items)
	return s
}

// setImageError は画像側のエラーチャネルを設定します。
func (s *State) setImageError(err error) {
	s.Err = err
	s.Error = err.Error()
}

// setVideoError は動画側のエラーチャネルを設定します。
func (s *State) setVideoError(err error) {
	s.VideoErr = err
	s.VideoError = err.Error()
}
