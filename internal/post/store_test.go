package post

import (
	"reflect"
	"strings"
	"testing"

	"github.com/hitoshi/penman/internal/action"
	"github.com/hitoshi/penman/internal/model"
	"github.com/hitoshi/penman/internal/security"
)

// TestApply_CreatePrepends は作成成功で記事が一覧の先頭に追加されることを検証する。
func TestApply_CreatePrepends(t *testing.T) {
	s := NewStore(nil)
	s.Apply(action.Event{Op: OpGetAll, Phase: action.PhaseSuccess, Payload: &listEnvelope{
		Posts: []model.Post{{ID: "old"}}, CurrentPage: 1, TotalPages: 1, TotalPosts: 1,
	}})

	echoed := &model.Post{ID: "1", Title: "T", Content: "C", Likes: []string{}, Views: 0}
	s.Apply(action.Event{Op: OpCreate, Phase: action.PhasePending})
	s.Apply(action.Event{Op: OpCreate, Phase: action.PhaseSuccess, Payload: &postEnvelope{Post: echoed}})

	st := s.State()
	if st.Loading {
		t.Error("loading should settle to false")
	}
	if len(st.Posts) != 2 {
		t.Fatalf("posts = %d, want 2", len(st.Posts))
	}
	if !reflect.DeepEqual(st.Posts[0], *echoed) {
		t.Errorf("first post = %+v, want the echoed post", st.Posts[0])
	}
}

// TestApply_DeleteRemovesOnlyMatch は削除が同一IDの記事のみを除くことを検証する。
func TestApply_DeleteRemovesOnlyMatch(t *testing.T) {
	s := NewStore(nil)
	s.Apply(action.Event{Op: OpGetAll, Phase: action.PhaseSuccess, Payload: &listEnvelope{
		Posts: []model.Post{{ID: "1"}, {ID: "2"}, {ID: "3"}}, CurrentPage: 1, TotalPages: 1, TotalPosts: 3,
	}})

	s.Apply(action.Event{Op: OpDelete, Phase: action.PhaseSuccess, Payload: &deleteResult{PostID: "1"}})

	st := s.State()
	if len(st.Posts) != 2 || st.Posts[0].ID != "2" || st.Posts[1].ID != "3" {
		t.Errorf("posts after delete = %+v, want 2 and 3 only", st.Posts)
	}
}

// TestApply_GetAllIdempotent は同一ペイロードの再取得が同一状態になることを検証する。
func TestApply_GetAllIdempotent(t *testing.T) {
	payload := func() *listEnvelope {
		return &listEnvelope{
			Posts:       []model.Post{{ID: "1", Title: "A"}, {ID: "2", Title: "B"}},
			CurrentPage: 2, TotalPages: 5, TotalPosts: 42,
		}
	}
	s := NewStore(nil)

	s.Apply(action.Event{Op: OpGetAll, Phase: action.PhaseSuccess, Payload: payload()})
	first := s.State()
	s.Apply(action.Event{Op: OpGetAll, Phase: action.PhaseSuccess, Payload: payload()})
	second := s.State()

	if !reflect.DeepEqual(first.Posts, second.Posts) || first.Pagination != second.Pagination {
		t.Error("fetching twice with identical server state should yield identical client state")
	}
	if second.Pagination.TotalPosts != 42 {
		t.Errorf("pagination = %+v, want payload values", second.Pagination)
	}
}

// TestApply_UpdateInPlace は更新が同一IDの記事をその場で置き換え、
// 一覧に無い記事では何もしないことを検証する。
func TestApply_UpdateInPlace(t *testing.T) {
	s := NewStore(nil)
	s.Apply(action.Event{Op: OpGetAll, Phase: action.PhaseSuccess, Payload: &listEnvelope{
		Posts: []model.Post{{ID: "1", Title: "old"}, {ID: "2"}},
	}})

	s.Apply(action.Event{Op: OpUpdate, Phase: action.PhaseSuccess, Payload: &postEnvelope{
		Post: &model.Post{ID: "1", Title: "new"},
	}})
	st := s.State()
	if st.Posts[0].Title != "new" || st.Posts[1].ID != "2" {
		t.Errorf("posts = %+v, want in-place replacement of 1", st.Posts)
	}

	before := s.State().Posts
	s.Apply(action.Event{Op: OpUpdate, Phase: action.PhaseSuccess, Payload: &postEnvelope{
		Post: &model.Post{ID: "missing", Title: "x"},
	}})
	if !reflect.DeepEqual(s.State().Posts, before) {
		t.Error("updating a post absent from the list should be a no-op")
	}
}

// TestApply_LikeDoesNotTouchState はいいね決着が状態を変更しないことを検証する。
func TestApply_LikeDoesNotTouchState(t *testing.T) {
	s := NewStore(nil)
	s.Apply(action.Event{Op: OpGetAll, Phase: action.PhaseSuccess, Payload: &listEnvelope{
		Posts: []model.Post{{ID: "1", Likes: []string{}}},
	}})
	before := s.State()

	s.Apply(action.Event{Op: OpLike, Phase: action.PhaseSuccess, Payload: &messageEnvelope{Message: "Post liked"}})

	after := s.State()
	if !reflect.DeepEqual(before.Posts, after.Posts) || before.Loading != after.Loading {
		t.Error("like settlement must not patch cached state; observation requires a re-fetch")
	}
}

// TestApply_PartialListPayloadNoOp はpostsフィールドを欠いた成功が
// 既存一覧を壊さないことを検証する。
func TestApply_PartialListPayloadNoOp(t *testing.T) {
	s := NewStore(nil)
	s.Apply(action.Event{Op: OpGetAll, Phase: action.PhaseSuccess, Payload: &listEnvelope{
		Posts: []model.Post{{ID: "1"}},
	}})

	s.Apply(action.Event{Op: OpGetAll, Phase: action.PhasePending})
	s.Apply(action.Event{Op: OpGetAll, Phase: action.PhaseSuccess, Payload: &listEnvelope{Message: "ok"}})

	st := s.State()
	if len(st.Posts) != 1 {
		t.Errorf("posts = %d, want prior list intact after partial payload", len(st.Posts))
	}
	if st.Loading {
		t.Error("loading should still settle to false")
	}
}

// TestApply_FailureKeepsPriorState は失敗決着がloadingとエラースロット以外の
// 事前状態を保つことを検証する。
func TestApply_FailureKeepsPriorState(t *testing.T) {
	s := NewStore(nil)
	s.Apply(action.Event{Op: OpGetAll, Phase: action.PhaseSuccess, Payload: &listEnvelope{
		Posts: []model.Post{{ID: "1"}}, CurrentPage: 1, TotalPages: 1, TotalPosts: 1,
	}})

	s.Apply(action.Event{Op: OpGetAll, Phase: action.PhasePending})
	s.Apply(action.Event{Op: OpGetAll, Phase: action.PhaseFailure, Reason: "boom"})

	st := s.State()
	if len(st.Posts) != 1 {
		t.Error("prior list should be intact after failure")
	}
	if st.Err != "boom" || st.Loading {
		t.Errorf("loading=%v err=%q, want false/boom", st.Loading, st.Err)
	}
}

// TestSetFilter_ResetsPagination はフィルタ変更時のみページネーションが
// 1ページ目にリセットされることを検証する。
func TestSetFilter_ResetsPagination(t *testing.T) {
	s := NewStore(nil)
	s.Apply(action.Event{Op: OpGetAll, Phase: action.PhaseSuccess, Payload: &listEnvelope{
		Posts: []model.Post{}, CurrentPage: 3, TotalPages: 5, TotalPosts: 41,
	}})

	// 同一フィルタの再設定ではリセットされない
	s.SetFilter(Filter{})
	if got := s.State().Pagination.CurrentPage; got != 3 {
		t.Errorf("currentPage = %d, want 3 (same filter keeps pagination)", got)
	}

	s.SetFilter(Filter{Search: "golang"})
	if got := s.State().Pagination; got != model.DefaultPagination() {
		t.Errorf("pagination = %+v, want reset to page 1 on filter change", got)
	}
}

// TestApply_ContentSanitizedOnSettle は取り込み時に本文が
// サニタイズされることを検証する。
func TestApply_ContentSanitizedOnSettle(t *testing.T) {
	s := NewStore(security.NewContentSanitizer())

	s.Apply(action.Event{Op: OpGetByID, Phase: action.PhaseSuccess, Payload: &postEnvelope{
		Post: &model.Post{ID: "1", Content: `<p>ok</p><script>alert(1)</script>`},
	}})

	st := s.State()
	if st.Current == nil {
		t.Fatal("current post should be set")
	}
	if strings.Contains(st.Current.Content, "script") {
		t.Errorf("content should be sanitized before caching, got %q", st.Current.Content)
	}
	if !strings.Contains(st.Current.Content, "<p>ok</p>") {
		t.Errorf("safe markup should survive, got %q", st.Current.Content)
	}
}

// TestClearCurrent は表示中シングルトンの消去を検証する。
func TestClearCurrent(t *testing.T) {
	s := NewStore(nil)
	s.Apply(action.Event{Op: OpGetByID, Phase: action.PhaseSuccess, Payload: &postEnvelope{
		Post: &model.Post{ID: "1"},
	}})

	s.ClearCurrent()

	if s.State().Current != nil {
		t.Error("current should be nil after ClearCurrent")
	}
}
