package publisher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/shouni/go-storyboard-kit/pkg/asset"
)

// FileVideoSink は取得した動画を ai_storyboard_video.mp4 として保存し、
// file:// URL を返します。CLI から使います。
type FileVideoSink struct {
	outputDir string
}

// NewFileVideoSink は FileVideoSink を作成します。
func NewFileVideoSink(outputDir string) *FileVideoSink {
	return &FileVideoSink{outputDir: outputDir}
}

// Put は動画を保存します。
func (s *FileVideoSink) Put(ctx context.Context, data []byte) (string, error) {
	if len(data) == 0 {
		return "", asset.ErrEmptyVideo
	}

	path, err := asset.ResolveOutputPath(s.outputDir, asset.DefaultVideoName)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("出力ディレクトリの作成に失敗しました: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("動画ファイルの保存に失敗しました (%s): %w", path, err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	slog.InfoContext(ctx, "動画を保存しました", "path", abs, "bytes", len(data))
	return "file://" + filepath.ToSlash(abs), nil
}
