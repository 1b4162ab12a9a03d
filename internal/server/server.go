package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/shouni/go-storyboard-kit/pkg/asset"
	"github.com/shouni/go-storyboard-kit/pkg/generator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

const (
	archiveCacheTTL = 10 * time.Minute
	shutdownTimeout = 10 * time.Second
	requestIDHeader = "X-Request-ID"
)

// Generator はサーバーが操作する絵コンテ生成器なのだ。
// Start は実行の登録を同期で済ませ、残りの処理を exec として返すのだ。
type Generator interface {
	Start(ctx context.Context, prompt string, sceneCount int, wantVideo bool) (runID string, exec func() error, err error)
	State() generator.State
	Cancel()
}

// Server は単一ユーザー向けの絵コンテ生成 HTTP API なのだ。
// 生成は1つの StoryboardGenerator を共有し、新しいリクエストは前回の実行を置き換えるのだ。
type Server struct {
	gen      Generator
	videos   *asset.VideoStore
	archives *cache.Cache
	group    singleflight.Group
	// baseCtx はバックグラウンド生成の親コンテキストなのだ。
	baseCtx context.Context
}

// New は Server を作成するのだ。
func New(baseCtx context.Context, gen Generator, videos *asset.VideoStore) *Server {
	return &Server{
		gen:      gen,
		videos:   videos,
		archives: cache.New(archiveCacheTTL, 2*archiveCacheTTL),
		baseCtx:  baseCtx,
	}
}

// Router はルーティングを設定した gin.Engine を返すのだ。
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api/storyboard")
	api.POST("", handleGenerate(s))
	api.GET("", handleState(s))
	api.DELETE("", handleCancel(s))
	api.GET("/zip", handleArchive(s))

	router.GET(asset.VideoRoutePrefix+":id", handleVideo(s))
	return router
}

// Run は addr で待ち受け、ctx がキャンセルされたら穏やかに停止するのだ。
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("サーバーを起動したのだ", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("サーバーの起動に失敗したのだ: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("サーバーを停止するのだ...")
	s.gen.Cancel()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("サーバーの停止に失敗したのだ: %w", err)
	}
	return nil
}

// requestLogger はリクエストごとに slog で1行ログを出すミドルウェアなのだ。
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)

		c.Next()

		slog.InfoContext(c.Request.Context(), "request",
			"request_id", id,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		)
	}
}
