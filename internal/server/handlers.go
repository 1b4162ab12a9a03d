package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/shouni/go-storyboard-kit/pkg/asset"
	"github.com/shouni/go-storyboard-kit/pkg/domain"
	"github.com/shouni/go-storyboard-kit/pkg/publisher"

	"github.com/gin-gonic/gin"
)

// generateRequest は POST /api/storyboard のリクエストボディなのだ。
type generateRequest struct {
	Prompt        string `json:"prompt"`
	SceneCount    int    `json:"sceneCount"`
	GenerateVideo bool   `json:"generateVideo"`
}

// handleGenerate は実行の登録までを同期で済ませ、残りをバックグラウンドに回して 202 を返すのだ。
// 連続した POST では後から届いた方が必ず最新の実行になるのだ。
func handleGenerate(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req generateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		runID, exec, err := s.gen.Start(s.baseCtx, req.Prompt, req.SceneCount, req.GenerateVideo)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, domain.ErrInvalidPrompt) || errors.Is(err, domain.ErrInvalidSceneCount) {
				status = http.StatusBadRequest
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}

		go func() {
			if err := exec(); err != nil && !errors.Is(err, context.Canceled) {
				slog.Warn("バックグラウンド生成がエラーで終了したのだ", "run", runID, "error", err)
			}
		}()

		c.JSON(http.StatusAccepted, gin.H{"status": "accepted", "runId": runID})
	}
}

// handleState は現在の状態を返すのだ。
func handleState(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, s.gen.State())
	}
}

// handleCancel は実行中の生成を中断するのだ。
func handleCancel(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		s.gen.Cancel()
		c.Status(http.StatusNoContent)
	}
}

// handleArchive は現在の絵コンテを ai_storyboard.zip として返すのだ。
// 同じ内容への同時リクエストは singleflight で1回の生成にまとめ、完成後の zip はキャッシュするのだ。
func handleArchive(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		state := s.gen.State()
		if len(state.Items) == 0 {
			c.JSON(http.StatusConflict, gin.H{"error": "storyboard is empty"})
			return
		}

		images := 0
		for _, item := range state.Items {
			if item.HasImage() {
				images++
			}
		}
		key := fmt.Sprintf("%s:%d:%d", state.RunID, len(state.Items), images)

		if cached, ok := s.archives.Get(key); ok {
			writeArchive(c, cached.([]byte))
			return
		}

		val, err, _ := s.group.Do(key, func() (any, error) {
			data, err := publisher.ArchiveBytes(state.Items)
			if err != nil {
				return nil, err
			}
			if !state.IsLoading {
				s.archives.SetDefault(key, data)
			}
			return data, nil
		})
		if err != nil {
			slog.ErrorContext(c.Request.Context(), "zip の作成に失敗したのだ", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build archive"})
			return
		}

		data, ok := val.([]byte)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build archive"})
			return
		}
		writeArchive(c, data)
	}
}

func writeArchive(c *gin.Context, data []byte) {
	c.Header("Content-Disposition", `attachment; filename="`+asset.DefaultArchiveName+`"`)
	c.Data(http.StatusOK, "application/zip", data)
}

// handleVideo は保存済みの動画を返すのだ。
func handleVideo(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.Param("id"))
		data, ok := s.videos.Get(id)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "video not found"})
			return
		}

		disposition := "inline"
		if c.Query("download") != "" {
			disposition = "attachment"
		}
		c.Header("Content-Disposition", disposition+`; filename="`+asset.DefaultVideoName+`"`)
		c.Data(http.StatusOK, "video/mp4", data)
	}
}
