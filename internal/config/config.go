package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// API
	APIBaseURL     string        // リモートブログAPIのベースアドレス（必須）
	APIPrefix      string        // バージョン付きパスプレフィックス
	RequestTimeout time.Duration // HTTPリクエストのタイムアウト

	// Rate Limit
	RateLimitPerMin int // API呼び出しのレート（req/min）
	RateLimitBurst  int // バーストサイズ

	// Session
	StateFilePath string // セッションスナップショットの保存先

	// Security
	AllowPrivateAPI bool // プライベートネットワーク上のAPIアドレスを許可するか
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	var missing []string

	cfg.APIBaseURL = strings.TrimSuffix(os.Getenv("PENMAN_API_BASE_URL"), "/")
	if cfg.APIBaseURL == "" {
		missing = append(missing, "PENMAN_API_BASE_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	cfg.APIPrefix = getEnvString("PENMAN_API_PREFIX", "/api/v1")
	if !strings.HasPrefix(cfg.APIPrefix, "/") {
		cfg.APIPrefix = "/" + cfg.APIPrefix
	}
	cfg.RequestTimeout = getEnvDuration("PENMAN_REQUEST_TIMEOUT", 15*time.Second)
	cfg.RateLimitPerMin = getEnvInt("PENMAN_RATE_LIMIT", 120)
	cfg.RateLimitBurst = getEnvInt("PENMAN_RATE_LIMIT_BURST", 20)
	cfg.StateFilePath = getEnvString("PENMAN_STATE_FILE", defaultStateFilePath())
	// ローカル開発（httpのベースアドレス）ではプライベートAPIを既定で許可する
	cfg.AllowPrivateAPI = getEnvBool("PENMAN_ALLOW_PRIVATE_API", strings.HasPrefix(cfg.APIBaseURL, "http://"))

	return cfg, nil
}

// defaultStateFilePath はセッションスナップショットの既定の保存先を返す。
// ユーザー設定ディレクトリが解決できない場合はカレントディレクトリに置く。
func defaultStateFilePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "penman-session.json"
	}
	return filepath.Join(dir, "penman", "session.json")
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
