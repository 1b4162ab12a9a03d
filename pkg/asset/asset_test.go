package asset

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestSceneFileNames(t *testing.T) {
	if got := SceneScriptName(1); got != "scene_1_script.txt" {
		t.Errorf("SceneScriptName(1) = %s", got)
	}
	if got := SceneImageName(12); got != "scene_12_image.png" {
		t.Errorf("SceneImageName(12) = %s", got)
	}
}

func TestResolveOutputPath(t *testing.T) {
	got, err := ResolveOutputPath("output", DefaultArchiveName)
	if err != nil {
		t.Fatalf("予期せぬエラー: %v", err)
	}
	if want := filepath.Join("output", DefaultArchiveName); got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestVideoStore(t *testing.T) {
	ctx := context.Background()

	t.Run("保存した動画をURLから取り出せる", func(t *testing.T) {
		store := NewVideoStore("http://localhost:8080/", time.Minute)
		url, err := store.Put(ctx, []byte("mp4"))
		if err != nil {
			t.Fatalf("保存に失敗しました: %v", err)
		}

		id, ok := strings.CutPrefix(url, "http://localhost:8080/videos/")
		if !ok || id == "" || store.URLFor(id) != url {
			t.Fatalf("URL の形式が正しくありません: %s", url)
		}
		data, ok := store.Get(id)
		if !ok || string(data) != "mp4" {
			t.Errorf("取り出したデータが違います: %q", data)
		}
	})

	t.Run("空データはエラー", func(t *testing.T) {
		store := NewVideoStore("", 0)
		if _, err := store.Put(ctx, nil); !errors.Is(err, ErrEmptyVideo) {
			t.Errorf("ErrEmptyVideo であるべきです: %v", err)
		}
	})

	t.Run("未知のIDは見つからない", func(t *testing.T) {
		store := NewVideoStore("", time.Minute)
		if _, ok := store.Get("missing"); ok {
			t.Error("見つかってはいけません")
		}
	})
}
