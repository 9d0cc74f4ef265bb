// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// すべての操作失敗はこの型に正規化され、ストアのエラースロットと
// 通知にはMessage（正規化済みの失敗理由）がそのまま表示される。
type APIError struct {
	Code    string // エラーコード
	Message string // 正規化済みの失敗理由（サーバーのmessageフィールド、無ければ操作ごとの既定文言）
	Status  int    // HTTPステータスコード（トランスポート失敗時は0）
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	// ErrCodeNetwork はレスポンスを受信できなかったトランスポート失敗。
	ErrCodeNetwork = "NETWORK_FAILURE"
	// ErrCodeServerRejected はサーバーがmessage付きで返した非2xx失敗。
	ErrCodeServerRejected = "SERVER_REJECTED"
	// ErrCodeUnauthorized は401失敗。コアはログに残すのみでリダイレクトしない。
	ErrCodeUnauthorized = "UNAUTHORIZED"
	// ErrCodeMalformedResponse は2xxだがボディをデコードできなかった失敗。
	ErrCodeMalformedResponse = "MALFORMED_RESPONSE"
)

// NewNetworkError はトランスポート失敗エラーを生成する。
func NewNetworkError(fallback string) *APIError {
	return &APIError{
		Code:    ErrCodeNetwork,
		Message: fallback,
	}
}

// NewServerError はサーバー申告の失敗エラーを生成する。
// messageが空の場合は操作ごとの既定文言にフォールバックする。
func NewServerError(status int, message, fallback string) *APIError {
	code := ErrCodeServerRejected
	if status == 401 {
		code = ErrCodeUnauthorized
	}
	if message == "" {
		message = fallback
	}
	return &APIError{
		Code:    code,
		Message: message,
		Status:  status,
	}
}

// NewMalformedResponseError はデコード不能なレスポンスのエラーを生成する。
func NewMalformedResponseError(fallback string) *APIError {
	return &APIError{
		Code:    ErrCodeMalformedResponse,
		Message: fallback,
	}
}

// Reason はエラーから通知・エラースロット用の失敗理由を取り出す。
// APIErrorであれば正規化済みMessageを、それ以外はError()をそのまま返す。
func Reason(err error) string {
	if err == nil {
		return ""
	}
	if apiErr, ok := err.(*APIError); ok {
		return apiErr.Message
	}
	return err.Error()
}
