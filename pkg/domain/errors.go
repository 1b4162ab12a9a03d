package domain

import "errors"

// ErrorKind は生成処理のどの段階で失敗したかを表します。
type ErrorKind int

const (
	PlanFailure ErrorKind = iota + 1
	CharacterFailure
	SceneFailure
	VideoStartFailure
	VideoPollFailure
	VideoFetchFailure
	NoValidImageForVideo
)

// 画面に表示するエラーメッセージの接頭辞です。
const (
	ImageErrorPrefix = "Image generation failed: "
	VideoErrorPrefix = "Video generation failed: "
)

var (
	ErrPlanFailure          = errors.New("plan failure")
	ErrCharacterFailure     = errors.New("character failure")
	ErrSceneFailure         = errors.New("scene failure")
	ErrVideoStartFailure    = errors.New("video start failure")
	ErrVideoPollFailure     = errors.New("video poll failure")
	ErrVideoFetchFailure    = errors.New("video fetch failure")
	ErrNoValidImageForVideo = errors.New("Cannot generate video because no images were successfully created.")

	// ErrNoVideoLink はジョブが完了したのに動画 URI が含まれていないときのエラーです。
	ErrNoVideoLink = errors.New("Video generation completed, but no download link was provided.")
)

var kindSentinels = map[ErrorKind]error{
	PlanFailure:          ErrPlanFailure,
	CharacterFailure:     ErrCharacterFailure,
	SceneFailure:         ErrSceneFailure,
	VideoStartFailure:    ErrVideoStartFailure,
	VideoPollFailure:     ErrVideoPollFailure,
	VideoFetchFailure:    ErrVideoFetchFailure,
	NoValidImageForVideo: ErrNoValidImageForVideo,
}

func (k ErrorKind) String() string {
	switch k {
	case PlanFailure:
		return "PlanFailure"
	case CharacterFailure:
		return "CharacterFailure"
	case SceneFailure:
		return "SceneFailure"
	case VideoStartFailure:
		return "VideoStartFailure"
	case VideoPollFailure:
		return "VideoPollFailure"
	case VideoFetchFailure:
		return "VideoFetchFailure"
	case NoValidImageForVideo:
		return "NoValidImageForVideo"
	default:
		return "Unknown"
	}
}

// IsVideo は動画側のエラーチャネルに属する種別かどうかを返します。
func (k ErrorKind) IsVideo() bool {
	return k >= VideoStartFailure
}

// GenerationError は生成処理の失敗を種別つきで保持します。
// Error() は画面表示用のメッセージ（接頭辞 + 原因）を返します。
type GenerationError struct {
	Kind ErrorKind
	// ItemID は SceneFailure のときの対象シーン ID です。
	ItemID int
	Err    error
}

// NewGenerationError は GenerationError を作成します。
func NewGenerationError(kind ErrorKind, err error) *GenerationError {
	return &GenerationError{Kind: kind, Err: err}
}

// NewSceneError は ID 番目のシーン画像の失敗を表す GenerationError を作成します。
func NewSceneError(itemID int, err error) *GenerationError {
	return &GenerationError{Kind: SceneFailure, ItemID: itemID, Err: err}
}

func (e *GenerationError) Error() string {
	if e.Kind == NoValidImageForVideo {
		return ErrNoValidImageForVideo.Error()
	}
	cause := "unknown error"
	if e.Err != nil {
		cause = e.Err.Error()
	}
	if e.Kind.IsVideo() {
		return VideoErrorPrefix + cause
	}
	return ImageErrorPrefix + cause
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Is は種別ごとの番兵エラーとの比較を可能にします。
func (e *GenerationError) Is(target error) bool {
	return kindSentinels[e.Kind] == target
}
