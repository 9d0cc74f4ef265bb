package comment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/hitoshi/penman/internal/action"
	"github.com/hitoshi/penman/internal/api"
	"github.com/hitoshi/penman/internal/model"
)

// TestApply_AddPrepends はコメント追加成功で一覧の先頭に追加されることを検証する。
func TestApply_AddPrepends(t *testing.T) {
	s := NewStore()
	s.Apply(action.Event{Op: OpGetByPost, Phase: action.PhaseSuccess, Payload: &listEnvelope{
		Comments: []model.Comment{{ID: "old"}},
	}})

	s.Apply(action.Event{Op: OpAdd, Phase: action.PhasePending})
	s.Apply(action.Event{Op: OpAdd, Phase: action.PhaseSuccess, Payload: &commentEnvelope{
		Comment: &model.Comment{ID: "new", Content: "hi"},
	}})

	st := s.State()
	if st.Loading {
		t.Error("loading should settle to false")
	}
	if len(st.Comments) != 2 || st.Comments[0].ID != "new" {
		t.Errorf("comments = %+v, want new comment prepended", st.Comments)
	}
}

// TestApply_GetByPostReplaces は取得成功で一覧が丸ごと置き換わることを検証する。
func TestApply_GetByPostReplaces(t *testing.T) {
	s := NewStore()
	s.Apply(action.Event{Op: OpGetByPost, Phase: action.PhaseSuccess, Payload: &listEnvelope{
		Comments: []model.Comment{{ID: "a"}, {ID: "b"}},
	}})

	s.Apply(action.Event{Op: OpGetByPost, Phase: action.PhaseSuccess, Payload: &listEnvelope{
		Comments: []model.Comment{{ID: "c"}},
	}})

	st := s.State()
	if len(st.Comments) != 1 || st.Comments[0].ID != "c" {
		t.Errorf("comments = %+v, want wholesale replacement", st.Comments)
	}
}

// TestApply_PartialPayloadNoOp はcommentsフィールドを欠いた成功が
// 既存一覧を壊さないことを検証する。
func TestApply_PartialPayloadNoOp(t *testing.T) {
	s := NewStore()
	s.Apply(action.Event{Op: OpGetByPost, Phase: action.PhaseSuccess, Payload: &listEnvelope{
		Comments: []model.Comment{{ID: "a"}},
	}})
	before := s.State().Comments

	s.Apply(action.Event{Op: OpGetByPost, Phase: action.PhaseSuccess, Payload: &listEnvelope{Message: "ok"}})
	s.Apply(action.Event{Op: OpAdd, Phase: action.PhaseSuccess, Payload: &commentEnvelope{Message: "ok"}})

	if !reflect.DeepEqual(s.State().Comments, before) {
		t.Error("partial payloads should leave the list intact")
	}
}

// TestApply_FailureSetsError は失敗決着でエラースロットが埋まり、
// 一覧が保たれることを検証する。
func TestApply_FailureSetsError(t *testing.T) {
	s := NewStore()
	s.Apply(action.Event{Op: OpGetByPost, Phase: action.PhaseSuccess, Payload: &listEnvelope{
		Comments: []model.Comment{{ID: "a"}},
	}})

	s.Apply(action.Event{Op: OpAdd, Phase: action.PhasePending})
	s.Apply(action.Event{Op: OpAdd, Phase: action.PhaseFailure, Reason: "boom"})

	st := s.State()
	if st.Err != "boom" || st.Loading {
		t.Errorf("loading=%v err=%q, want false/boom", st.Loading, st.Err)
	}
	if len(st.Comments) != 1 {
		t.Error("prior list should be intact after failure")
	}
}

// TestAdd_PostsContentAndPrepends は投稿がJSONボディで送信され、
// サーバーのエコーが先頭に入ることを検証する。
func TestAdd_PostsContentAndPrepends(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/comment/p1" {
			t.Errorf("path = %q", r.URL.Path)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("body decode: %v", err)
		}
		if body["content"] != "nice post" {
			t.Errorf("content = %q", body["content"])
		}
		json.NewEncoder(w).Encode(map[string]any{
			"message": "created",
			"comment": map[string]any{"_id": "c1", "content": body["content"]},
		})
	}))
	t.Cleanup(srv.Close)

	client, err := api.New(api.Options{BaseURL: srv.URL, Prefix: "/api/v1"})
	if err != nil {
		t.Fatalf("api.New returned error: %v", err)
	}
	svc := NewService(client, NewStore(), nil)

	if err := svc.Add(context.Background(), "p1", "nice post"); err != nil {
		t.Fatalf("Add returned error: %v", err)
	}

	st := svc.Store().State()
	if len(st.Comments) != 1 || st.Comments[0].Content != "nice post" {
		t.Errorf("comments = %+v, want echoed comment", st.Comments)
	}
}
