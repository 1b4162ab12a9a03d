package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/shouni/go-storyboard-kit/examples"
	"github.com/shouni/go-storyboard-kit/internal/config"
	"github.com/shouni/go-storyboard-kit/internal/pipeline"

	"github.com/spf13/cobra"
)

var useExample bool

// generateCmd は、プロンプトから絵コンテを1本生成して保存するのだ。
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "AIに絵コンテ（と動画）を生成させるのだ。",
	Long: `プロンプトをシーンに分解し、画像付きの絵コンテを ZIP で保存するのだ。
--video を付けると最初の画像付きシーンから動画も作るのだよ。
--prompt を省略した場合は標準入力から読み込むのだ。`,
	RunE: generateCommand,
}

func init() {
	generateCmd.Flags().StringVarP(&opts.Prompt, "prompt", "p", "", "物語のプロンプトなのだ。")
	generateCmd.Flags().IntVarP(&opts.SceneCount, "scenes", "n", config.DefaultSceneCount, "生成するシーン数なのだ（1〜20）。")
	generateCmd.Flags().BoolVar(&opts.WantVideo, "video", false, "動画も生成するのだ。")
	generateCmd.Flags().BoolVar(&useExample, "example", false, "同梱のサンプルプロンプトで試すのだ。")
	generateCmd.Flags().StringVarP(&opts.OutputDir, "output-dir", "o", config.DefaultOutputDir, "ZIP と動画の保存先ディレクトリなのだ。")
	generateCmd.MarkFlagsMutuallyExclusive("prompt", "example")
}

func generateCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	// 1. プロンプトの取得
	if useExample {
		cfg.Options.Prompt = examples.SamplePrompt()
	}
	if strings.TrimSpace(cfg.Options.Prompt) == "" {
		if !isStdin() {
			return fmt.Errorf("プロンプト（--prompt または標準入力）を指定してほしいのだ")
		}
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("標準入力の読み込みに失敗したのだ: %w", err)
		}
		cfg.Options.Prompt = string(data)
	}

	slog.Info("絵コンテ生成パイプラインを起動するのだ！",
		"plan_model", cfg.PlanModel,
		"scene_model", cfg.SceneModel,
		"scenes", cfg.Options.SceneCount,
		"video", cfg.Options.WantVideo,
		"output", cfg.Options.OutputDir)

	// 2. 実行
	result, err := pipeline.Execute(ctx, cfg)
	if result != nil {
		printSummary(cmd.OutOrStdout(), result)
	}
	if err != nil {
		return fmt.Errorf("パイプライン実行中にエラーが発生したのだ: %w", err)
	}

	slog.Info("すべての生成工程が完了したのだ！")
	return nil
}

// printSummary は生成結果の要約を表示するのだ。
func printSummary(w io.Writer, result *pipeline.Result) {
	state := result.State
	images := 0
	for _, item := range state.Items {
		if item.HasImage() {
			images++
		}
	}
	fmt.Fprintf(w, "scenes: %d (images: %d)\n", len(state.Items), images)
	if result.Publish.ArchivePath != "" {
		fmt.Fprintf(w, "archive: %s\n", result.Publish.ArchivePath)
	}
	if state.VideoURL != "" {
		fmt.Fprintf(w, "video: %s\n", state.VideoURL)
	}
	if state.Error != "" {
		fmt.Fprintf(w, "error: %s\n", state.Error)
	}
	if state.VideoError != "" {
		fmt.Fprintf(w, "video error: %s\n", state.VideoError)
	}
}

func isStdin() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}
