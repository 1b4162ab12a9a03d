package prompts

import (
	"embed"
	"fmt"
	"strings"

	"github.com/shouni/go-prompt-kit/prompts"
	"github.com/shouni/go-prompt-kit/resource"
)

// プロンプトの種類です。テンプレートのファイル名（拡張子なし）と一致します。
const (
	KindPlanSystem = "plan_system"
	KindPlanUser   = "plan_user"
	KindCharacter  = "character"
	KindScene      = "scene"
	KindVideo      = "video"
)

const templateDir = "templates"

//go:embed templates/*.md
var templateFS embed.FS

// TemplateData はプロンプトのテンプレートに渡すデータ構造です。
type TemplateData struct {
	Prompt               string
	SceneCount           int
	CharacterDescription string
	ScenePrompt          string
}

// PromptBuilder は、AIプロンプトを構築する契約です。
type PromptBuilder interface {
	Build(kind string, data TemplateData) (string, error)
}

// TextPromptBuilder は埋め込みテンプレートからプロンプトを組み立てます。
type TextPromptBuilder struct {
	builder *prompts.Builder
}

// NewTextPromptBuilder は TextPromptBuilder を初期化します。
// 必要な種類のテンプレートが1つでも欠けている場合はエラーを返します。
func NewTextPromptBuilder() (*TextPromptBuilder, error) {
	templates, err := resource.Load(templateFS, templateDir, "")
	if err != nil {
		return nil, fmt.Errorf("プロンプトテンプレート (go:embed) の読み込みに失敗しました: %w", err)
	}

	for _, kind := range []string{KindPlanSystem, KindPlanUser, KindCharacter, KindScene, KindVideo} {
		if strings.TrimSpace(templates[kind]) == "" {
			return nil, fmt.Errorf("プロンプトテンプレート '%s' が見つからないか空です", kind)
		}
	}

	b, err := prompts.NewBuilder(templates)
	if err != nil {
		return nil, fmt.Errorf("プロンプトビルダーの初期化に失敗しました: %w", err)
	}
	return &TextPromptBuilder{builder: b}, nil
}

// MustNewTextPromptBuilder は埋め込みテンプレートが壊れているときに panic します。
func MustNewTextPromptBuilder() *TextPromptBuilder {
	b, err := NewTextPromptBuilder()
	if err != nil {
		panic(err)
	}
	return b
}

// Build は、要求された種類に応じて適切なテンプレートを実行します。
func (b *TextPromptBuilder) Build(kind string, data TemplateData) (string, error) {
	text, err := b.builder.Build(kind, data)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}
