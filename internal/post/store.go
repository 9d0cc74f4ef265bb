// Package post は記事の状態コンテナとアクションディスパッチャを提供する。
package post

import (
	"sync"

	"github.com/hitoshi/penman/internal/action"
	"github.com/hitoshi/penman/internal/model"
	"github.com/hitoshi/penman/internal/security"
)

// 操作識別子
const (
	OpCreate        action.Op = "post.create"
	OpGetAll        action.Op = "post.getAll"
	OpGetByID       action.Op = "post.getById"
	OpUpdate        action.Op = "post.update"
	OpDelete        action.Op = "post.delete"
	OpLike          action.Op = "post.like"
	OpGetRelated    action.Op = "post.getRelated"
	OpIncrementView action.Op = "post.incrementView"
	OpSearch        action.Op = "post.search"
)

// Filter は記事一覧のアクティブなフィルタを表す。
// フィルタが変わるとページネーションは1ページ目にリセットされる。
type Filter struct {
	Search   string
	Category string
	Tag      string
}

// State は記事ストアの観測可能な状態を表す。
type State struct {
	Posts      []model.Post
	Current    *model.Post
	Related    []model.Post
	Pagination model.Pagination
	Loading    bool
	Err        string
}

// Store は記事の状態コンテナ。
// 取り込まれる記事本文はサニタイズされてからキャッシュされる。
// 同一リソースへの同時リクエストは合流も取り消しもされず、
// 決着が遅く届いた方が勝つ（後勝ち）。
type Store struct {
	mu        sync.RWMutex
	state     State
	filter    Filter
	sanitizer security.ContentSanitizerService // nil可
}

// NewStore はStoreの新しいインスタンスを生成する。
// sanitizerがnilの場合は本文をそのままキャッシュする。
func NewStore(sanitizer security.ContentSanitizerService) *Store {
	return &Store{
		state:     State{Pagination: model.DefaultPagination()},
		sanitizer: sanitizer,
	}
}

// State は現在の状態のコピーを返す。
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.state
	st.Posts = append([]model.Post(nil), s.state.Posts...)
	st.Related = append([]model.Post(nil), s.state.Related...)
	if s.state.Current != nil {
		p := *s.state.Current
		st.Current = &p
	}
	return st
}

// ClearError はエラースロットを明示的に消去する。
func (s *Store) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Err = ""
}

// ClearCurrent は表示中の記事シングルトンを消去する。
func (s *Store) ClearCurrent() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Current = nil
}

// SetFilter はアクティブなフィルタを設定する。
// フィルタが変わった場合のみページネーションを1ページ目にリセットする。
func (s *Store) SetFilter(f Filter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.filter == f {
		return
	}
	s.filter = f
	s.state.Pagination = model.DefaultPagination()
}

// Filter は現在のアクティブなフィルタを返す。
func (s *Store) Filter() Filter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter
}

// Apply はイベントを状態に反映するリデューサ。
func (s *Store) Apply(ev action.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch ev.Phase {
	case action.PhasePending:
		switch ev.Op {
		case OpCreate, OpGetAll, OpGetByID, OpSearch:
			s.state.Loading = true
			s.state.Err = ""
		}

	case action.PhaseSuccess:
		switch ev.Op {
		case OpCreate:
			s.state.Loading = false
			payload, ok := ev.Payload.(*postEnvelope)
			if !ok || payload.Post == nil {
				return
			}
			created := s.sanitized(*payload.Post)
			s.state.Posts = append([]model.Post{created}, s.state.Posts...)
		case OpGetAll:
			s.state.Loading = false
			payload, ok := ev.Payload.(*listEnvelope)
			if !ok || payload.Posts == nil {
				return
			}
			s.state.Posts = s.sanitizedAll(payload.Posts)
			s.state.Pagination = model.Pagination{
				CurrentPage: payload.CurrentPage,
				TotalPages:  payload.TotalPages,
				TotalPosts:  payload.TotalPosts,
			}
		case OpGetByID:
			s.state.Loading = false
			payload, ok := ev.Payload.(*postEnvelope)
			if !ok || payload.Post == nil {
				return
			}
			current := s.sanitized(*payload.Post)
			s.state.Current = &current
		case OpUpdate:
			payload, ok := ev.Payload.(*postEnvelope)
			if !ok || payload.Post == nil {
				return
			}
			updated := s.sanitized(*payload.Post)
			// 一覧に無い記事の更新は何もしない
			for i := range s.state.Posts {
				if s.state.Posts[i].ID == updated.ID {
					s.state.Posts[i] = updated
					break
				}
			}
		case OpDelete:
			payload, ok := ev.Payload.(*deleteResult)
			if !ok {
				return
			}
			kept := s.state.Posts[:0]
			for _, p := range s.state.Posts {
				if p.ID != payload.PostID {
					kept = append(kept, p)
				}
			}
			s.state.Posts = kept
		case OpGetRelated:
			payload, ok := ev.Payload.(*relatedEnvelope)
			if !ok || payload.Data == nil {
				return
			}
			s.state.Related = s.sanitizedAll(payload.Data)
		case OpSearch:
			s.state.Loading = false
			payload, ok := ev.Payload.(*searchEnvelope)
			if !ok || payload.Data == nil {
				return
			}
			s.state.Posts = s.sanitizedAll(payload.Data)
			s.state.Pagination = payload.Pagination
		case OpLike, OpIncrementView:
			// 状態には反映しない。いいねの観測は再取得で行う
			// （楽観的更新にしない）。
		}

	case action.PhaseFailure:
		switch ev.Op {
		case OpCreate, OpGetAll, OpGetByID, OpSearch:
			s.state.Loading = false
			s.state.Err = ev.Reason
		}
	}
}

// sanitized は記事本文をサニタイズした記事を返す。
func (s *Store) sanitized(p model.Post) model.Post {
	if s.sanitizer != nil {
		p.Content = s.sanitizer.Sanitize(p.Content)
	}
	return p
}

// sanitizedAll は記事スライスの全本文をサニタイズして返す。
func (s *Store) sanitizedAll(posts []model.Post) []model.Post {
	out := make([]model.Post, len(posts))
	for i, p := range posts {
		out[i] = s.sanitized(p)
	}
	return out
}
