package asset

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

const (
	// DefaultVideoTTL は保存した動画の保持期間です。
	DefaultVideoTTL = 1 * time.Hour
	// VideoRoutePrefix は動画を配信するパスの接頭辞です。
	VideoRoutePrefix = "/videos/"
)

// ErrEmptyVideo は空のデータを保存しようとしたときのエラーです。
var ErrEmptyVideo = errors.New("video data is empty")

// VideoStore は取得した動画をメモリ上に一定時間保持し、
// ローカルで解決できる URL を払い出します。
type VideoStore struct {
	baseURL string
	cache   *cache.Cache
}

// NewVideoStore は VideoStore を作成します。
// baseURL が空の場合は "/videos/<id>" 形式の相対 URL を返します。
func NewVideoStore(baseURL string, ttl time.Duration) *VideoStore {
	if ttl <= 0 {
		ttl = DefaultVideoTTL
	}
	return &VideoStore{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		cache:   cache.New(ttl, 2*ttl),
	}
}

// Put は動画を保存し、その URL を返します。
func (s *VideoStore) Put(_ context.Context, data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyVideo
	}
	id := uuid.NewString()
	s.cache.SetDefault(id, data)
	return s.URLFor(id), nil
}

// Get は ID に対応する動画を返します。期限切れの場合は false を返します。
func (s *VideoStore) Get(id string) ([]byte, bool) {
	v, ok := s.cache.Get(id)
	if !ok {
		return nil, false
	}
	data, ok := v.([]byte)
	return data, ok
}

// URLFor は ID に対応する URL を返します。
func (s *VideoStore) URLFor(id string) string {
	return s.baseURL + VideoRoutePrefix + id
}
