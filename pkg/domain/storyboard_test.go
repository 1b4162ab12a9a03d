package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
)

func TestStoryPlan_JSON(t *testing.T) {
	t.Run("AIからのレスポンス形式をパースできるのだ", func(t *testing.T) {
		inputJSON := `{
			"character_sheet_prompt": "a young knight in silver armor",
			"scenes": [
				{"image_prompt": "castle gate at dawn", "voiceover_script": "The journey begins."},
				{"image_prompt": "dark forest", "voiceover_script": "Danger lurks."}
			]
		}`

		var plan StoryPlan
		if err := json.Unmarshal([]byte(inputJSON), &plan); err != nil {
			t.Fatalf("パース失敗なのだ: %v", err)
		}
		if plan.CharacterSheetPrompt != "a young knight in silver armor" {
			t.Errorf("キャラクター説明が違うのだ: %s", plan.CharacterSheetPrompt)
		}
		if len(plan.Scenes) != 2 || plan.Scenes[1].VoiceoverScript != "Danger lurks." {
			t.Error("シーン内容が正しくパースされていないのだ")
		}
	})
}

func TestStoryPlan_Truncate(t *testing.T) {
	plan := StoryPlan{Scenes: make([]SceneSpec, 5)}

	tests := []struct {
		name  string
		count int
		want  int
	}{
		{"超過分は切り捨てるのだ", 3, 3},
		{"同数ならそのままなのだ", 5, 5},
		{"不足分は補わないのだ", 8, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := len(plan.Truncate(tt.count).Scenes); got != tt.want {
				t.Errorf("シーン数 = %d, want %d", got, tt.want)
			}
		})
	}
	if len(plan.Scenes) != 5 {
		t.Error("元の StoryPlan が変更されてはいけないのだ")
	}
}

func TestNewStoryboardItems(t *testing.T) {
	plan := StoryPlan{Scenes: []SceneSpec{
		{ImagePrompt: "a", VoiceoverScript: "1"},
		{ImagePrompt: "b", VoiceoverScript: "2"},
	}}

	items := NewStoryboardItems(plan)
	if len(items) != 2 {
		t.Fatalf("項目数が違うのだ: %d", len(items))
	}
	for i, item := range items {
		if item.ID != i+1 {
			t.Errorf("ID は1始まりの連番であるべきなのだ: got %d", item.ID)
		}
		if item.HasImage() {
			t.Error("作成直後は画像なしであるべきなのだ")
		}
	}

	if _, ok := FirstWithImage(items); ok {
		t.Error("画像がないのに見つかってはいけないのだ")
	}
	items[1].ImageBase64 = "aW1n"
	first, ok := FirstWithImage(items)
	if !ok || first.ID != 2 {
		t.Errorf("最初の画像付き項目は ID 2 のはずなのだ: %+v", first)
	}
}

func TestValidateRequest(t *testing.T) {
	tests := []struct {
		name    string
		prompt  string
		count   int
		want    string
		wantErr error
	}{
		{"前後の空白を除くのだ", "  knight  ", 3, "knight", nil},
		{"空のプロンプトはエラーなのだ", "   ", 3, "", ErrInvalidPrompt},
		{"0シーンはエラーなのだ", "knight", 0, "", ErrInvalidSceneCount},
		{"21シーンはエラーなのだ", "knight", 21, "", ErrInvalidSceneCount},
		{"20シーンは許可なのだ", "knight", 20, "knight", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateRequest(tt.prompt, tt.count)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("エラーが違うのだ: got %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("プロンプトが違うのだ: got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGenerationError(t *testing.T) {
	cause := errors.New("quota exceeded")

	t.Run("画像側は Image 接頭辞なのだ", func(t *testing.T) {
		err := NewGenerationError(PlanFailure, cause)
		if err.Error() != "Image generation failed: quota exceeded" {
			t.Errorf("メッセージが違うのだ: %s", err.Error())
		}
		if !errors.Is(err, ErrPlanFailure) || errors.Is(err, ErrCharacterFailure) {
			t.Error("種別の判定が違うのだ")
		}
		if !errors.Is(err, cause) {
			t.Error("原因エラーまで辿れるべきなのだ")
		}
	})

	t.Run("動画側は Video 接頭辞なのだ", func(t *testing.T) {
		wrapped := fmt.Errorf("run: %w", NewGenerationError(VideoPollFailure, cause))
		if !errors.Is(wrapped, ErrVideoPollFailure) {
			t.Error("ラップされても種別を判定できるべきなのだ")
		}
		var genErr *GenerationError
		if !errors.As(wrapped, &genErr) || genErr.Error() != "Video generation failed: quota exceeded" {
			t.Errorf("メッセージが違うのだ: %v", genErr)
		}
	})

	t.Run("シーンの失敗は ID を持つのだ", func(t *testing.T) {
		err := NewSceneError(2, cause)
		if err.ItemID != 2 || err.Kind != SceneFailure {
			t.Errorf("ID か種別が違うのだ: %+v", err)
		}
		if !errors.Is(err, ErrSceneFailure) || !errors.Is(err, cause) {
			t.Error("種別と原因を辿れるべきなのだ")
		}
		if err.Error() != "Image generation failed: quota exceeded" {
			t.Errorf("メッセージが違うのだ: %s", err.Error())
		}
	})

	t.Run("画像なしエラーは接頭辞なしなのだ", func(t *testing.T) {
		err := NewGenerationError(NoValidImageForVideo, nil)
		if err.Error() != "Cannot generate video because no images were successfully created." {
			t.Errorf("メッセージが違うのだ: %s", err.Error())
		}
	})
}
