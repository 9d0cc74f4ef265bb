// Package action はアクションディスパッチの共通契約を定義する。
//
// 各操作は pending → success(payload) / failure(reason) のタグ付き結果
// （Event）としてストアのリデューサと通知シンクに届けられる。
// 命名規則によるフェーズ振り分けは行わず、契約はすべてこの型で明示する。
package action

import (
	"context"

	"github.com/google/uuid"
	"github.com/hitoshi/penman/internal/model"
)

// Op は操作の識別子を表す（例: "post.create"）。
type Op string

// Phase は操作ライフサイクルのフェーズを表す。
type Phase int

const (
	// PhasePending はリクエスト送信から決着までの間。
	PhasePending Phase = iota
	// PhaseSuccess は成功決着。
	PhaseSuccess
	// PhaseFailure は失敗決着。
	PhaseFailure
)

// String はフェーズ名を返す。
func (p Phase) String() string {
	switch p {
	case PhasePending:
		return "pending"
	case PhaseSuccess:
		return "success"
	case PhaseFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// Event は1操作の1フェーズ分の結果を表す。
// IDは操作ライフサイクルごとに一意で、pendingとその決着を対応付ける。
type Event struct {
	ID      string
	Op      Op
	Phase   Phase
	Payload any    // successのみ。デコード済みレスポンスエンベロープ。
	Reason  string // failureのみ。正規化済みの失敗理由。
}

// Applier はイベントを状態に反映するリデューサを表す。
// 関知しないOp/Phaseのイベントは無視する。
type Applier interface {
	Apply(Event)
}

// Sink は操作の経過を利用者向けメッセージとして受け取る通知先を表す。
// 状態の正しさには一切関与しない。
type Sink interface {
	Publish(ev Event, text string)
}

// Spec は1回のディスパッチの構成を表す。
type Spec struct {
	Op    Op
	Store Applier // nilの場合は状態反映なし
	Sink  Sink    // nilの場合は通知なし

	// Quiet は通知を一切出さないフェッチ系操作を表す。
	Quiet bool
	// PendingText は空でない場合にpending通知として表示される。
	PendingText string

	// Call は実際のネットワーク呼び出しを行う。
	// 戻り値noteは成功通知の文言（空なら成功通知なし）。
	Call func(ctx context.Context) (payload any, note string, err error)
}

// Dispatch は操作の3フェーズ契約を実行する。
// pendingイベント適用 → 呼び出し → 決着イベント適用と通知。
// 失敗時は呼び出しのエラーをそのまま返す（ストアにはReasonのみが残る）。
func Dispatch(ctx context.Context, sp Spec) error {
	id := uuid.NewString()

	pending := Event{ID: id, Op: sp.Op, Phase: PhasePending}
	if sp.Store != nil {
		sp.Store.Apply(pending)
	}
	if sp.Sink != nil && !sp.Quiet && sp.PendingText != "" {
		sp.Sink.Publish(pending, sp.PendingText)
	}

	payload, note, err := sp.Call(ctx)
	if err != nil {
		reason := model.Reason(err)
		ev := Event{ID: id, Op: sp.Op, Phase: PhaseFailure, Reason: reason}
		if sp.Store != nil {
			sp.Store.Apply(ev)
		}
		if sp.Sink != nil && !sp.Quiet {
			sp.Sink.Publish(ev, reason)
		}
		return err
	}

	ev := Event{ID: id, Op: sp.Op, Phase: PhaseSuccess, Payload: payload}
	if sp.Store != nil {
		sp.Store.Apply(ev)
	}
	if sp.Sink != nil && !sp.Quiet && note != "" {
		sp.Sink.Publish(ev, note)
	}
	return nil
}
