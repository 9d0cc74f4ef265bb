// Package api はリモートブログAPIへのHTTPクライアントアダプタを提供する。
//
// 固定のベースアドレス＋バージョンプレフィックスに対してリクエストを行い、
// クッキーによる資格情報を常に同送し、成功ペイロードのデコードと
// 失敗理由の正規化（サーバーのmessageフィールド、無ければ操作ごとの
// 既定文言）を行う。状態ストアには一切触れない。
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/hitoshi/penman/internal/model"
)

// maxResponseSize はレスポンスボディの読み取り上限。
const maxResponseSize = 10 << 20

// Recorder はAPI呼び出しのメトリクス記録インターフェース。
type Recorder interface {
	RecordRequest(op string, status int, elapsed time.Duration)
	RecordFailure(op string, code string)
}

// Options はClientの構成を表す。
type Options struct {
	BaseURL string // ベースアドレス（例: http://localhost:8000）
	Prefix  string // パスプレフィックス（例: /api/v1）
	Timeout time.Duration

	// Transport が指定された場合はそのクライアントを下敷きにする
	// （safeurlの安全クライアント差し替え用）。nilなら新規生成する。
	Transport *http.Client

	// RatePerMin が正の場合、クライアント側レート制限を有効にする。
	RatePerMin int
	Burst      int

	Logger   *slog.Logger
	Recorder Recorder
}

// Client はリモートブログAPIのクライアント。
// クッキージャーを保持し、ログインで受け取ったセッションクッキーを
// 以降の全リクエストに同送する。
type Client struct {
	base       *url.URL
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
	recorder   Recorder
}

// New はClientの新しいインスタンスを生成する。
func New(opts Options) (*Client, error) {
	base, err := url.Parse(opts.BaseURL + opts.Prefix)
	if err != nil {
		return nil, fmt.Errorf("ベースアドレスのパースに失敗しました: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("ベースアドレスが不完全です: %s", opts.BaseURL)
	}

	httpClient := opts.Transport
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if httpClient.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("クッキージャーの生成に失敗しました: %w", err)
		}
		httpClient.Jar = jar
	}
	if opts.Timeout > 0 {
		httpClient.Timeout = opts.Timeout
	}

	var limiter *rate.Limiter
	if opts.RatePerMin > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(float64(opts.RatePerMin)/60.0), burst)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		base:       base,
		httpClient: httpClient,
		limiter:    limiter,
		logger:     logger,
		recorder:   opts.Recorder,
	}, nil
}

// File はmultipartペイロードの添付ファイルを表す。
type File struct {
	Field   string // フォームフィールド名
	Name    string // ファイル名
	Content []byte
}

// Form はmultipartペイロードを表す。
type Form struct {
	Fields url.Values
	Files  []File
}

// Call は1回のAPI呼び出しを表す。
type Call struct {
	Op       string     // メトリクス・ログ用の操作名
	Method   string
	Path     string     // プレフィックス配下のパス（例: /post/all）
	Query    url.Values
	Body     any        // 非nilの場合JSONエンコードして送信する
	Form     *Form      // 非nilの場合multipartで送信する（Bodyより優先）
	Fallback string     // サーバーがmessageを返さない場合の既定の失敗文言
	Out      any        // 成功ペイロードのデコード先（nil可）
}

// Do はAPI呼び出しを実行する。
// 失敗はすべて*model.APIErrorに正規化して返す。401は診断ログを残すが、
// 呼び出し元には他の失敗と同じ形で返す（リダイレクト等はビュー層の責務）。
func (c *Client) Do(ctx context.Context, call Call) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return model.NewNetworkError(call.Fallback)
		}
	}

	reqURL := *c.base
	reqURL.Path = c.base.Path + call.Path
	if call.Query != nil {
		reqURL.RawQuery = call.Query.Encode()
	}

	var body io.Reader
	contentType := ""
	switch {
	case call.Form != nil:
		buf, ct, err := encodeForm(call.Form)
		if err != nil {
			return model.NewNetworkError(call.Fallback)
		}
		body = buf
		contentType = ct
	case call.Body != nil:
		encoded, err := json.Marshal(call.Body)
		if err != nil {
			return model.NewNetworkError(call.Fallback)
		}
		body = bytes.NewReader(encoded)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, call.Method, reqURL.String(), body)
	if err != nil {
		return model.NewNetworkError(call.Fallback)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		c.logger.Error("APIリクエストの送信に失敗しました",
			slog.String("op", call.Op),
			slog.String("path", call.Path),
			slog.String("error", err.Error()),
		)
		c.recordFailure(call.Op, model.ErrCodeNetwork)
		return model.NewNetworkError(call.Fallback)
	}
	defer resp.Body.Close()

	if c.recorder != nil {
		c.recorder.RecordRequest(call.Op, resp.StatusCode, elapsed)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		c.recordFailure(call.Op, model.ErrCodeNetwork)
		return model.NewNetworkError(call.Fallback)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := serverMessage(raw)
		if resp.StatusCode == http.StatusUnauthorized {
			// 401はログのみ。呼び出し元には通常の失敗として返す。
			c.logger.Warn("APIが401を返しました",
				slog.String("op", call.Op),
				slog.String("path", call.Path),
			)
		}
		apiErr := model.NewServerError(resp.StatusCode, msg, call.Fallback)
		c.recordFailure(call.Op, apiErr.Code)
		return apiErr
	}

	if call.Out != nil {
		if err := json.Unmarshal(raw, call.Out); err != nil {
			c.logger.Error("APIレスポンスのデコードに失敗しました",
				slog.String("op", call.Op),
				slog.String("error", err.Error()),
			)
			c.recordFailure(call.Op, model.ErrCodeMalformedResponse)
			return model.NewMalformedResponseError(call.Fallback)
		}
	}

	return nil
}

func (c *Client) recordFailure(op, code string) {
	if c.recorder != nil {
		c.recorder.RecordFailure(op, code)
	}
}

// serverMessage は失敗レスポンスボディからmessageフィールドを取り出す。
// デコードできない場合は空文字列を返し、呼び出し側で既定文言に落とす。
func serverMessage(raw []byte) string {
	var envelope struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return ""
	}
	return envelope.Message
}
