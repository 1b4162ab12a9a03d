package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/shouni/go-storyboard-kit/internal/config"

	clibase "github.com/shouni/go-cli-base"
	"github.com/spf13/cobra"
)

const appName = "storyboard-go"

var (
	// opts はフラグから組み立てる実行時オプションなのだ
	opts = config.DefaultOptions()
	// cfg は PersistentPreRunE で読み込んだ環境設定なのだ
	cfg *config.Config
)

const (
	rootShort = "AIでプロンプトから絵コンテと短い動画を生成するのだ。"
	rootLong  = `物語のプロンプトからシーン構成案を作り、キャラクター参照画像と
各シーンの画像を生成するのだ。必要なら最初のシーンをもとに動画も作るのだよ。`
)

// newRootCmd は clibase の共通ルートコマンドにアプリ固有の設定を載せるのだ。
// --verbose (-V) と --config (-C) は clibase が定義するのだ。
func newRootCmd() *cobra.Command {
	rootCmd := clibase.NewRootCmd(appName, addAppFlags, preRunAppE)
	rootCmd.Short = rootShort
	rootCmd.Long = rootLong
	rootCmd.SilenceUsage = true
	rootCmd.AddCommand(generateCmd, serveCmd)
	return rootCmd
}

// addAppFlags は、すべてのサブコマンドに適用されるグローバルフラグを定義するのだ。
func addAppFlags(rootCmd *cobra.Command) {
	rootCmd.PersistentFlags().DurationVar(&opts.PollInterval, "poll-interval", config.DefaultPollInterval, "動画ジョブのステータス確認間隔なのだ。")
	rootCmd.PersistentFlags().DurationVar(&opts.RateInterval, "rate-interval", config.DefaultRateInterval, "シーン画像リクエストの最小間隔なのだ（0 で制限なし）。")
	rootCmd.PersistentFlags().DurationVar(&opts.VideoTimeout, "video-timeout", config.DefaultVideoTimeout, "動画生成全体のタイムアウトなのだ（0 で無制限）。")
}

// preRunAppE は、コマンド実行前にロガーと環境設定を準備するのだ。
// APIキーがない場合はどのコマンドも走らせないのだ。
func preRunAppE(cmd *cobra.Command, args []string) error {
	opts.Verbose = clibase.Flags.Verbose
	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg = config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		return err
	}
	if !cmd.Flags().Changed("output-dir") && cmd.Flags().Lookup("output-dir") != nil {
		opts.OutputDir = cfg.OutputDir
	}
	cfg.Options = opts
	return nil
}

// Execute は、アプリケーションのメインエントリポイントなのだ。
// SIGINT / SIGTERM を受けたら実行中の生成をキャンセルするのだよ。
func Execute() {
	rootCmd := newRootCmd()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.Error("コマンドの実行に失敗したのだ", "error", err)
		stop()
		os.Exit(1)
	}
}
