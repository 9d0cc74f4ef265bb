// Package app は全依存関係のワイヤリングとライフサイクルを提供する。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/penman/internal/admin"
	"github.com/hitoshi/penman/internal/api"
	"github.com/hitoshi/penman/internal/comment"
	"github.com/hitoshi/penman/internal/config"
	"github.com/hitoshi/penman/internal/logger"
	"github.com/hitoshi/penman/internal/metrics"
	"github.com/hitoshi/penman/internal/notify"
	"github.com/hitoshi/penman/internal/persist"
	"github.com/hitoshi/penman/internal/post"
	"github.com/hitoshi/penman/internal/security"
	"github.com/hitoshi/penman/internal/session"
	"github.com/hitoshi/penman/internal/taxonomy"
)

// Init はアプリケーションの初期化を行う。
// JSON構造化ログをセットアップし、環境変数からConfigを読み込む。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// App は状態同期コア全体を束ねる。
// ストアへの反映はすべて各サービスのディスパッチ経由で行われる。
type App struct {
	Config   *config.Config
	Client   *api.Client
	Notifier *notify.Center
	Registry *prometheus.Registry

	Session  *session.Service
	Posts    *post.Service
	Comments *comment.Service
	Taxonomy *taxonomy.Service
	Admin    *admin.Service
}

// New は設定から全依存関係をワイヤリングしたAppを生成する。
func New(cfg *config.Config, log *slog.Logger) (*App, error) {
	if log == nil {
		log = slog.Default()
	}

	// 1. セキュリティガード
	// プライベートAPIを許可しない運用ではベースアドレスを事前検証し、
	// SSRF防止トランスポートに差し替える。
	guard := security.NewAPIGuard()
	var transport *http.Client
	if !cfg.AllowPrivateAPI {
		if err := guard.ValidateBaseURL(cfg.APIBaseURL); err != nil {
			return nil, fmt.Errorf("unsafe API base URL: %w", err)
		}
		transport = guard.NewSafeClient(cfg.RequestTimeout)
	}

	// 2. メトリクス
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 3. HTTPクライアントアダプタ
	client, err := api.New(api.Options{
		BaseURL:    cfg.APIBaseURL,
		Prefix:     cfg.APIPrefix,
		Timeout:    cfg.RequestTimeout,
		Transport:  transport,
		RatePerMin: cfg.RateLimitPerMin,
		Burst:      cfg.RateLimitBurst,
		Logger:     log,
		Recorder:   collector,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build API client: %w", err)
	}

	// 4. 通知と永続化
	notifier := notify.NewCenter(log)
	snap := persist.NewFileStore(cfg.StateFilePath, log)

	// 5. ストアとサービス
	sanitizer := security.NewContentSanitizer()
	sessionSvc := session.NewService(client, session.NewStore(snap), notifier)
	postSvc := post.NewService(client, post.NewStore(sanitizer), notifier)
	commentSvc := comment.NewService(client, comment.NewStore(), notifier)
	taxonomySvc := taxonomy.NewService(client, taxonomy.NewStore(), notifier)
	adminSvc := admin.NewService(client, admin.NewStore(), notifier)

	return &App{
		Config:   cfg,
		Client:   client,
		Notifier: notifier,
		Registry: registry,
		Session:  sessionSvc,
		Posts:    postSvc,
		Comments: commentSvc,
		Taxonomy: taxonomySvc,
		Admin:    adminSvc,
	}, nil
}

// Start はセッションの継続を試みる。
// スナップショットから復元した推測をまず反映し、その後サーバーの
// 権威ある識別情報と突き合わせる。突き合わせの失敗は静かに扱われる。
func (a *App) Start(ctx context.Context) {
	a.Session.Hydrate()

	if a.Session.Store().State().IsAuthenticated {
		if err := a.Session.Reconcile(ctx); err != nil {
			slog.Debug("session reconcile failed",
				slog.String("error", err.Error()),
			)
		}
	}
}

// MetricsHandler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func (a *App) MetricsHandler() http.Handler {
	return metrics.Handler(a.Registry)
}
