package domain

import (
	"errors"
	"strings"
)

// シーン数として受け付ける範囲です。
const (
	MinSceneCount = 1
	MaxSceneCount = 20
)

var (
	// ErrInvalidPrompt はプロンプトが空のときに返されます。
	ErrInvalidPrompt = errors.New("prompt must not be empty")
	// ErrInvalidSceneCount はシーン数が範囲外のときに返されます。
	ErrInvalidSceneCount = errors.New("scene count must be between 1 and 20")
)

// StoryPlan は AI モデルから返される絵コンテ全体の構成です。
// 1回の生成につき1つだけ作られ、作成後は変更されません。
type StoryPlan struct {
	CharacterSheetPrompt string      `json:"character_sheet_prompt"`
	Scenes               []SceneSpec `json:"scenes"`
}

// SceneSpec は1シーン分の画像プロンプトとナレーション原稿です。
type SceneSpec struct {
	ImagePrompt     string `json:"image_prompt"`
	VoiceoverScript string `json:"voiceover_script"`
}

// Truncate は要求数を超えたシーンを切り捨てた StoryPlan を返します。
// 要求数に満たない場合はそのまま返します。
func (p StoryPlan) Truncate(count int) StoryPlan {
	if count >= 0 && len(p.Scenes) > count {
		p.Scenes = p.Scenes[:count:count]
	}
	return p
}

// StoryboardItem は画面に並ぶ1シーン分の状態です。
// ImageBase64 が空文字列のときは画像がまだ無い（または生成に失敗した）ことを表します。
type StoryboardItem struct {
	ID              int    `json:"id"`
	ImagePrompt     string `json:"imagePrompt"`
	VoiceoverScript string `json:"voiceoverScript"`
	ImageBase64     string `json:"imageBase64,omitempty"`
}

// HasImage は画像が生成済みかどうかを返します。
func (i StoryboardItem) HasImage() bool {
	return i.ImageBase64 != ""
}

// NewStoryboardItems は StoryPlan のシーン順に、画像なしの StoryboardItem を作成します。
// ID は 1 始まりの連番です。
func NewStoryboardItems(plan StoryPlan) []StoryboardItem {
	items := make([]StoryboardItem, len(plan.Scenes))
	for i, scene := range plan.Scenes {
		items[i] = StoryboardItem{
			ID:              i + 1,
			ImagePrompt:     scene.ImagePrompt,
			VoiceoverScript: scene.VoiceoverScript,
		}
	}
	return items
}

// FirstWithImage は並び順で最初に画像を持つ項目を返します。
func FirstWithImage(items []StoryboardItem) (StoryboardItem, bool) {
	for _, item := range items {
		if item.HasImage() {
			return item, true
		}
	}
	return StoryboardItem{}, false
}

// ValidateRequest は生成リクエストを検証し、前後の空白を除いたプロンプトを返します。
func ValidateRequest(prompt string, sceneCount int) (string, error) {
	trimmed := strings.TrimSpace(prompt)
	if trimmed == "" {
		return "", ErrInvalidPrompt
	}
	if sceneCount < MinSceneCount || sceneCount > MaxSceneCount {
		return "", ErrInvalidSceneCount
	}
	return trimmed, nil
}

// VideoOperation は動画生成ジョブのハンドルです。
// ポーリングのたびに新しい値に置き換えられます。
type VideoOperation struct {
	Name      string
	Done      bool
	VideoURIs []string
	// Err はジョブがサービス側で失敗したときのメッセージです。
	Err string
}

// FirstVideoURI は最初に生成された動画の URI を返します。
func (op *VideoOperation) FirstVideoURI() (string, bool) {
	if op == nil || len(op.VideoURIs) == 0 || op.VideoURIs[0] == "" {
		return "", false
	}
	return op.VideoURIs[0], true
}
