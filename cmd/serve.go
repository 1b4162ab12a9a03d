package cmd

import (
	"log/slog"

	"github.com/shouni/go-storyboard-kit/internal/builder"
	"github.com/shouni/go-storyboard-kit/internal/config"
	"github.com/shouni/go-storyboard-kit/internal/server"
	"github.com/shouni/go-storyboard-kit/pkg/asset"

	"github.com/spf13/cobra"
)

var addrFlag string

// serveCmd は、絵コンテ生成の HTTP API を起動するのだ。
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "絵コンテ生成の HTTP API を起動するのだ。",
	Long: `POST /api/storyboard で生成を始め、GET /api/storyboard で進捗をポーリングするのだ。
完成した絵コンテは GET /api/storyboard/zip でダウンロードできるのだよ。`,
	RunE: serveCommand,
}

func init() {
	serveCmd.Flags().StringVar(&addrFlag, "addr", "", "待ち受けアドレスなのだ（未指定なら STORYBOARD_ADDR か :8080）。")
}

func serveCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	addr := cfg.Addr
	if addrFlag != "" {
		addr = addrFlag
	}

	appCtx, err := builder.NewAppContext(ctx, cfg)
	if err != nil {
		return err
	}

	// 動画はメモリに保持して /videos/:id で配信するのだ
	videos := asset.NewVideoStore("", config.DefaultVideoCacheTTL)
	gen := builder.BuildGenerator(appCtx, videos)

	slog.Info("絵コンテ API を起動するのだ！", "addr", addr, "plan_model", cfg.PlanModel)
	return server.New(ctx, gen, videos).Run(ctx, addr)
}
