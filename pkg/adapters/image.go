package adapters

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/shouni/go-storyboard-kit/pkg/prompts"

	"google.golang.org/genai"
)

const pngMIMEType = "image/png"

var (
	errNoImages      = errors.New("image generation returned no images")
	errNoSceneImage  = errors.New("model did not return an image")
	errEmptyRefImage = errors.New("reference image is empty")
)

// CharacterImageRequester はキャラクターの参照画像（キャラクターシート）を生成するのだ。
type CharacterImageRequester struct {
	models  ModelsAPI
	model   string
	prompts prompts.PromptBuilder
}

// NewCharacterImageRequester は CharacterImageRequester を作成するのだ。
func NewCharacterImageRequester(models ModelsAPI, model string, pb prompts.PromptBuilder) *CharacterImageRequester {
	return &CharacterImageRequester{models: models, model: model, prompts: pb}
}

// GenerateCharacter は1:1のPNG画像を1枚生成し、base64 で返すのだ。
func (r *CharacterImageRequester) GenerateCharacter(ctx context.Context, description string) (string, error) {
	prompt, err := r.prompts.Build(prompts.KindCharacter, prompts.TemplateData{CharacterDescription: description})
	if err != nil {
		return "", err
	}

	resp, err := r.models.GenerateImages(ctx, r.model, prompt, &genai.GenerateImagesConfig{
		NumberOfImages: 1,
		OutputMIMEType: pngMIMEType,
		AspectRatio:    "1:1",
	})
	if err != nil {
		logProviderError(ctx, "character", err)
		return "", fmt.Errorf("failed to generate character reference image: %w", err)
	}
	if resp == nil || len(resp.GeneratedImages) == 0 {
		return "", fmt.Errorf("failed to generate character reference image: %w", errNoImages)
	}

	img := resp.GeneratedImages[0].Image
	if img == nil || len(img.ImageBytes) == 0 {
		return "", fmt.Errorf("failed to generate character reference image: %w", errNoImages)
	}
	return base64.StdEncoding.EncodeToString(img.ImageBytes), nil
}

// SceneImageRequester は参照画像を元に、同じキャラクターのシーン画像を生成するのだ。
type SceneImageRequester struct {
	models  ModelsAPI
	model   string
	prompts prompts.PromptBuilder
}

// NewSceneImageRequester は SceneImageRequester を作成するのだ。
func NewSceneImageRequester(models ModelsAPI, model string, pb prompts.PromptBuilder) *SceneImageRequester {
	return &SceneImageRequester{models: models, model: model, prompts: pb}
}

// GenerateScene は参照画像（base64）とシーンのプロンプトから1枚の画像を生成するのだ。
func (r *SceneImageRequester) GenerateScene(ctx context.Context, referenceBase64, scenePrompt string) (string, error) {
	ref, err := base64.StdEncoding.DecodeString(referenceBase64)
	if err != nil {
		return "", fmt.Errorf("参照画像のデコードに失敗しました: %w", err)
	}
	if len(ref) == 0 {
		return "", errEmptyRefImage
	}

	text, err := r.prompts.Build(prompts.KindScene, prompts.TemplateData{ScenePrompt: scenePrompt})
	if err != nil {
		return "", err
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(ref, pngMIMEType),
			genai.NewPartFromText(text),
		}, genai.RoleUser),
	}
	resp, err := r.models.GenerateContent(ctx, r.model, contents, &genai.GenerateContentConfig{
		ResponseModalities: []string{string(genai.ModalityImage), string(genai.ModalityText)},
	})
	if err != nil {
		logProviderError(ctx, "scene", err)
		return "", fmt.Errorf("failed to generate scene image: %w", err)
	}

	data, ok := firstInlineImage(resp)
	if !ok {
		return "", fmt.Errorf("failed to generate scene image: %w", errNoSceneImage)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// firstInlineImage は最初の候補から inline データを持つパートを探すのだ。
func firstInlineImage(resp *genai.GenerateContentResponse) ([]byte, bool) {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, false
	}
	content := resp.Candidates[0].Content
	if content == nil {
		return nil, false
	}
	for _, part := range content.Parts {
		if part != nil && part.InlineData != nil && len(part.InlineData.Data) > 0 {
			return part.InlineData.Data, true
		}
	}
	return nil, false
}
