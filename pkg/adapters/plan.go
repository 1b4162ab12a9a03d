package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
	"github.com/shouni/go-storyboard-kit/pkg/prompts"

	"google.golang.org/genai"
)

var errEmptyPlan = errors.New("model returned an empty response")

// jsonBlockRegex はコードフェンスで囲まれた JSON を取り出すのだ。
var jsonBlockRegex = regexp.MustCompile("(?s)```(?:json)?\\s*(.*\\S)\\s*```")

// storyPlanSchema は構造化出力のスキーマなのだ。
var storyPlanSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"character_sheet_prompt": {
			Type:        genai.TypeString,
			Description: "A highly detailed visual description of the main character(s). Include appearance, clothing, style, and key features. This will be used to generate a consistent character reference image.",
		},
		"scenes": {
			Type:        genai.TypeArray,
			Description: "An array of scenes that make up the story.",
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"image_prompt": {
						Type:        genai.TypeString,
						Description: "A detailed, vivid, and cinematic prompt for an AI image generator to create this scene. This prompt should explicitly reference the main character's description to ensure consistency.",
					},
					"voiceover_script": {
						Type:        genai.TypeString,
						Description: "A short, engaging voiceover script for this scene, 1-2 sentences long.",
					},
				},
				Required: []string{"image_prompt", "voiceover_script"},
			},
		},
	},
	Required: []string{"character_sheet_prompt", "scenes"},
}

// PlanRequester はプロンプトとシーン数から StoryPlan を生成するのだ。
type PlanRequester struct {
	models  ModelsAPI
	model   string
	prompts prompts.PromptBuilder
}

// NewPlanRequester は PlanRequester を作成するのだ。
func NewPlanRequester(models ModelsAPI, model string, pb prompts.PromptBuilder) *PlanRequester {
	return &PlanRequester{models: models, model: model, prompts: pb}
}

// Plan は構造化出力で絵コンテの構成を取得するのだ。
// 要求より多いシーンは切り捨て、少ない場合は警告だけ出してそのまま返すのだ。
func (r *PlanRequester) Plan(ctx context.Context, prompt string, sceneCount int) (*domain.StoryPlan, error) {
	data := prompts.TemplateData{Prompt: prompt, SceneCount: sceneCount}
	systemInstruction, err := r.prompts.Build(prompts.KindPlanSystem, data)
	if err != nil {
		return nil, err
	}
	userPrompt, err := r.prompts.Build(prompts.KindPlanUser, data)
	if err != nil {
		return nil, err
	}

	resp, err := r.models.GenerateContent(ctx, r.model, genai.Text(userPrompt), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    storyPlanSchema,
	})
	if err != nil {
		logProviderError(ctx, "plan", err)
		return nil, fmt.Errorf("failed to generate storyboard plan from Gemini: %w", err)
	}
	if resp == nil {
		return nil, fmt.Errorf("failed to generate storyboard plan from Gemini: %w", errEmptyPlan)
	}

	plan, err := parseStoryPlan(resp.Text())
	if err != nil {
		return nil, fmt.Errorf("failed to generate storyboard plan from Gemini: %w", err)
	}

	if got := len(plan.Scenes); got != sceneCount {
		slog.WarnContext(ctx, "要求と異なるシーン数が返されたのだ", "expected", sceneCount, "got", got)
	}
	truncated := plan.Truncate(sceneCount)
	return &truncated, nil
}

func parseStoryPlan(text string) (domain.StoryPlan, error) {
	raw := strings.TrimSpace(text)
	if raw == "" {
		return domain.StoryPlan{}, errEmptyPlan
	}

	jsonText := raw
	if matches := jsonBlockRegex.FindStringSubmatch(raw); len(matches) > 1 {
		jsonText = matches[1]
	} else if first, last := strings.Index(raw, "{"), strings.LastIndex(raw, "}"); first != -1 && last > first {
		// 前後に説明文が付いていても一番外側のオブジェクトだけを読むのだ
		jsonText = raw[first : last+1]
	}

	var plan domain.StoryPlan
	if err := json.Unmarshal([]byte(jsonText), &plan); err != nil {
		return domain.StoryPlan{}, fmt.Errorf("プランJSONのパースに失敗しました: %w", err)
	}
	return plan, nil
}
