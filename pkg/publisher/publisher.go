package publisher

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shouni/go-storyboard-kit/pkg/asset"
	"github.com/shouni/go-storyboard-kit/pkg/domain"

	"github.com/klauspost/compress/zip"
)

// ErrNoItems は保存する絵コンテがないときのエラーです。
var ErrNoItems = errors.New("storyboard has no items")

// Options はパブリッシュ動作を制御する設定項目です。
type Options struct {
	OutputDir string
}

// PublishResult はパブリッシュ処理の結果として生成されたファイルの情報を保持します。
type PublishResult struct {
	ArchivePath string // 生成された ai_storyboard.zip のパス
	SceneCount  int    // zip に含めたシーン数
	ImageCount  int    // zip に含めた画像数
}

// WriteArchive は各シーンの原稿と画像を zip としてまとめます。
// 原稿は scene_N_script.txt、画像は scene_N_image.png として格納し、画像のないシーンは原稿だけを含めます。
func WriteArchive(w io.Writer, items []domain.StoryboardItem) (images int, err error) {
	if len(items) == 0 {
		return 0, ErrNoItems
	}

	zw := zip.NewWriter(w)
	modified := time.Now()

	for _, item := range items {
		if err := writeEntry(zw, asset.SceneScriptName(item.ID), zip.Deflate, modified, []byte(item.VoiceoverScript)); err != nil {
			return images, err
		}

		if !item.HasImage() {
			continue
		}
		data, err := base64.StdEncoding.DecodeString(item.ImageBase64)
		if err != nil {
			return images, fmt.Errorf("シーン %d の画像のデコードに失敗しました: %w", item.ID, err)
		}
		// PNG は圧縮済みなので無圧縮で格納します
		if err := writeEntry(zw, asset.SceneImageName(item.ID), zip.Store, modified, data); err != nil {
			return images, err
		}
		images++
	}

	if err := zw.Close(); err != nil {
		return images, fmt.Errorf("zip の書き込みに失敗しました: %w", err)
	}
	return images, nil
}

// ArchiveBytes は WriteArchive の結果をバイト列で返します。
func ArchiveBytes(items []domain.StoryboardItem) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := WriteArchive(&buf, items); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeEntry(zw *zip.Writer, name string, method uint16, modified time.Time, data []byte) error {
	header := &zip.FileHeader{
		Name:     name,
		Method:   method,
		Modified: modified,
	}
	fw, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("zip エントリ %s の作成に失敗しました: %w", name, err)
	}
	if _, err := fw.Write(data); err != nil {
		return fmt.Errorf("zip エントリ %s の書き込みに失敗しました: %w", name, err)
	}
	return nil
}

// StoryboardPublisher は成果物をローカルディレクトリに保存します。
type StoryboardPublisher struct{}

// NewStoryboardPublisher は StoryboardPublisher を作成します。
func NewStoryboardPublisher() *StoryboardPublisher {
	return &StoryboardPublisher{}
}

// Publish は絵コンテを ai_storyboard.zip として保存し、結果を返却します。
func (p *StoryboardPublisher) Publish(ctx context.Context, items []domain.StoryboardItem, opts Options) (PublishResult, error) {
	result := PublishResult{}

	archivePath, err := asset.ResolveOutputPath(opts.OutputDir, asset.DefaultArchiveName)
	if err != nil {
		return result, err
	}
	if err := os.MkdirAll(filepath.Dir(archivePath), 0o755); err != nil {
		return result, fmt.Errorf("出力ディレクトリの作成に失敗しました: %w", err)
	}

	f, err := os.Create(archivePath)
	if err != nil {
		return result, fmt.Errorf("zip ファイルの作成に失敗しました (%s): %w", archivePath, err)
	}
	defer f.Close()

	images, err := WriteArchive(f, items)
	if err != nil {
		return result, err
	}
	if err := f.Close(); err != nil {
		return result, fmt.Errorf("zip ファイルのクローズに失敗しました: %w", err)
	}

	result.ArchivePath = archivePath
	result.SceneCount = len(items)
	result.ImageCount = images

	slog.InfoContext(ctx, "絵コンテを保存しました", "path", archivePath, "scenes", result.SceneCount, "images", images)
	return result, nil
}
