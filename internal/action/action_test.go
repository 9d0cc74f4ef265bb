package action

import (
	"context"
	"errors"
	"testing"

	"github.com/hitoshi/penman/internal/model"
)

// --- モック ---

type recordingApplier struct {
	events []Event
}

func (r *recordingApplier) Apply(ev Event) {
	r.events = append(r.events, ev)
}

type recordingSink struct {
	published []Event
	texts     []string
}

func (r *recordingSink) Publish(ev Event, text string) {
	r.published = append(r.published, ev)
	r.texts = append(r.texts, text)
}

// --- テスト ---

// TestDispatch_SuccessLifecycle は成功時にpending→successの順で
// イベントが適用されることを検証する。
func TestDispatch_SuccessLifecycle(t *testing.T) {
	store := &recordingApplier{}
	sink := &recordingSink{}
	payload := map[string]string{"key": "value"}

	err := Dispatch(context.Background(), Spec{
		Op:          "test.op",
		Store:       store,
		Sink:        sink,
		PendingText: "working",
		Call: func(ctx context.Context) (any, string, error) {
			return payload, "done", nil
		},
	})
	if err != nil {
		t.Fatalf("Dispatch returned error: %v", err)
	}

	if len(store.events) != 2 {
		t.Fatalf("store received %d events, want 2", len(store.events))
	}
	if store.events[0].Phase != PhasePending {
		t.Errorf("first event phase = %v, want pending", store.events[0].Phase)
	}
	if store.events[1].Phase != PhaseSuccess {
		t.Errorf("second event phase = %v, want success", store.events[1].Phase)
	}
	if store.events[1].Payload == nil {
		t.Error("success event should carry the payload")
	}
	// pendingと決着は同じライフサイクルIDを持つ
	if store.events[0].ID != store.events[1].ID {
		t.Error("pending and settlement should share the lifecycle ID")
	}
	if len(sink.published) != 2 || sink.texts[1] != "done" {
		t.Errorf("sink should receive pending + success notification, got %v", sink.texts)
	}
}

// TestDispatch_FailureLifecycle は失敗時にエラー理由が正規化されて
// ストアと通知に届くことを検証する。
func TestDispatch_FailureLifecycle(t *testing.T) {
	store := &recordingApplier{}
	sink := &recordingSink{}

	err := Dispatch(context.Background(), Spec{
		Op:    "test.op",
		Store: store,
		Sink:  sink,
		Call: func(ctx context.Context) (any, string, error) {
			return nil, "", model.NewServerError(400, "Invalid credentials", "failed")
		},
	})
	if err == nil {
		t.Fatal("Dispatch should return the call error")
	}

	last := store.events[len(store.events)-1]
	if last.Phase != PhaseFailure {
		t.Fatalf("last event phase = %v, want failure", last.Phase)
	}
	if last.Reason != "Invalid credentials" {
		t.Errorf("reason = %q, want server message verbatim", last.Reason)
	}
	if sink.texts[len(sink.texts)-1] != "Invalid credentials" {
		t.Errorf("failure notification = %q, want reason", sink.texts[len(sink.texts)-1])
	}
}

// TestDispatch_Quiet はQuiet指定で通知が一切出ないことを検証する。
func TestDispatch_Quiet(t *testing.T) {
	sink := &recordingSink{}

	_ = Dispatch(context.Background(), Spec{
		Op:          "test.op",
		Sink:        sink,
		Quiet:       true,
		PendingText: "should not appear",
		Call: func(ctx context.Context) (any, string, error) {
			return nil, "", errors.New("boom")
		},
	})

	if len(sink.published) != 0 {
		t.Errorf("quiet dispatch published %d notifications, want 0", len(sink.published))
	}
}

// TestDispatch_NoPendingText はPendingText未指定でpending通知が出ないことを検証する。
func TestDispatch_NoPendingText(t *testing.T) {
	sink := &recordingSink{}

	err := Dispatch(context.Background(), Spec{
		Op:   "test.op",
		Sink: sink,
		Call: func(ctx context.Context) (any, string, error) {
			return nil, "saved", nil
		},
	})
	if err != nil {
		t.Fatalf("Dispatch returned error: %v", err)
	}
	if len(sink.published) != 1 || sink.published[0].Phase != PhaseSuccess {
		t.Errorf("expected only the success notification, got %d", len(sink.published))
	}
}
