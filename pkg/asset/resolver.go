package asset

import (
	"fmt"
	"strings"

	"github.com/shouni/go-utils/urlpath"
)

const (
	// DefaultArchiveName はダウンロード用 zip のファイル名です。
	DefaultArchiveName = "ai_storyboard.zip"
	// DefaultVideoName はダウンロード用動画のファイル名です。
	DefaultVideoName = "ai_storyboard_video.mp4"
	// DefaultSceneScriptName はシーン原稿の共通のベースファイル名です。
	DefaultSceneScriptName = "scene_script.txt"
	// DefaultSceneImageName はシーン画像の共通のベースファイル名です。
	DefaultSceneImageName = "scene_image.png"
)

// ResolveOutputPath は、ベースとなるディレクトリパスとファイル名から、
// 最終的な出力パスを生成します。
func ResolveOutputPath(baseDir, fileName string) (string, error) {
	return urlpath.ResolvePath(baseDir, fileName)
}

// SceneScriptName は ID 番目のシーン原稿のファイル名を返します。
// 例: 1 -> "scene_1_script.txt"
func SceneScriptName(id int) string {
	return indexedName(DefaultSceneScriptName, id)
}

// SceneImageName は ID 番目のシーン画像のファイル名を返します。
// 例: 1 -> "scene_1_image.png"
func SceneImageName(id int) string {
	return indexedName(DefaultSceneImageName, id)
}

// indexedName は "scene_xxx.ext" の "scene_" の直後に連番を挿入します。
func indexedName(fileName string, id int) string {
	prefix, rest, _ := strings.Cut(fileName, "_")
	return fmt.Sprintf("%s_%d_%s", prefix, id, rest)
}
