package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/shouni/go-utils/envutil"
)

// デフォルト値の定義なのだ
const (
	DefaultPlanModel      = "gemini-2.5-flash"
	DefaultCharacterModel = "imagen-4.0-generate-001"
	DefaultSceneModel     = "gemini-2.5-flash-image-preview"
	DefaultVideoModel     = "veo-2.0-generate-001"

	DefaultSceneCount    = 5
	MinSceneCount        = 1
	MaxSceneCount        = 20
	DefaultPollInterval  = 10 * time.Second
	DefaultRateInterval  = 0 // 0 のときは流量制限なしなのだ
	DefaultVideoTimeout  = 0 // 0 のときはポーリングを打ち切らないのだ
	DefaultHTTPTimeout   = 5 * time.Minute
	DefaultVideoCacheTTL = 1 * time.Hour
	DefaultOutputDir     = "output"  // generate コマンドの保存先なのだ
	DefaultAddr          = ":8080"   // serve コマンドの待ち受けアドレスなのだ
	APIKeyEnv            = "GEMINI_API_KEY"
)

// ErrMissingAPIKey は API キーが見つからないときの番兵エラーなのだ。
var ErrMissingAPIKey = errors.New("api key is not set")

// ConfigError は設定の不備を表す型付きエラーなのだ。
// 起動時に検出されたら、どのコマンドも実行せずに終了するのだ。
type ConfigError struct {
	Key string
	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("設定エラー: 環境変数 %s が不正です: %v", e.Key, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Config はアプリケーション全体の環境設定（APIキーやモデル名）を保持する構造体なのだ。
type Config struct {
	GeminiAPIKey   string
	PlanModel      string
	CharacterModel string
	SceneModel     string
	VideoModel     string
	OutputDir      string
	Addr           string

	Options GenerateOptions
}

// LoadConfig は環境変数から設定を読み込み、構造体を返すのだ！
func LoadConfig() *Config {
	return &Config{
		GeminiAPIKey:   envutil.GetEnv(APIKeyEnv, ""),
		PlanModel:      envutil.GetEnv("GEMINI_MODEL", DefaultPlanModel),
		CharacterModel: envutil.GetEnv("IMAGEN_MODEL", DefaultCharacterModel),
		SceneModel:     envutil.GetEnv("GEMINI_IMAGE_MODEL", DefaultSceneModel),
		VideoModel:     envutil.GetEnv("VEO_MODEL", DefaultVideoModel),
		OutputDir:      envutil.GetEnv("STORYBOARD_OUTPUT_DIR", DefaultOutputDir),
		Addr:           envutil.GetEnv("STORYBOARD_ADDR", DefaultAddr),
		Options:        DefaultOptions(),
	}
}

// Validate は必須項目をチェックするのだ。APIキーがないと何もできないのだ。
func (c *Config) Validate() error {
	if c.GeminiAPIKey == "" {
		return &ConfigError{Key: APIKeyEnv, Err: ErrMissingAPIKey}
	}
	return nil
}

// GenerateOptions は CLI フラグから渡される実行時のパラメータなのだ。
type GenerateOptions struct {
	Prompt     string // --prompt
	SceneCount int    // --scenes
	WantVideo  bool   // --video
	OutputDir  string // --output-dir

	// 実行制御
	PollInterval time.Duration // --poll-interval: 動画ステータスの確認間隔
	RateInterval time.Duration // --rate-interval: シーン画像リクエストの間隔
	VideoTimeout time.Duration // --video-timeout
	Verbose      bool          // --verbose
}

// DefaultOptions はフラグ未指定時のオプションを返すのだ。
func DefaultOptions() GenerateOptions {
	return GenerateOptions{
		SceneCount:   DefaultSceneCount,
		OutputDir:    DefaultOutputDir,
		PollInterval: DefaultPollInterval,
		RateInterval: DefaultRateInterval,
		VideoTimeout: DefaultVideoTimeout,
	}
}

// ClampSceneCount はシーン数を [MinSceneCount, MaxSceneCount] に丸めるのだ。
// 入力フォームと同じ振る舞いなのだ。
func ClampSceneCount(n int) int {
	return min(max(n, MinSceneCount), MaxSceneCount)
}
