// Package comment はコメントの状態コンテナとアクションディスパッチャを提供する。
package comment

import (
	"context"
	"net/http"
	"sync"

	"github.com/hitoshi/penman/internal/action"
	"github.com/hitoshi/penman/internal/api"
	"github.com/hitoshi/penman/internal/model"
)

// 操作識別子
const (
	OpAdd       action.Op = "comment.add"
	OpGetByPost action.Op = "comment.getByPost"
)

// commentEnvelope は単一コメントを含む成功レスポンスのエンベロープ。
type commentEnvelope struct {
	Message string         `json:"message"`
	Comment *model.Comment `json:"comment"`
}

// listEnvelope はコメント一覧を含むエンベロープ。
type listEnvelope struct {
	Message  string          `json:"message"`
	Comments []model.Comment `json:"comments"`
}

// State はコメントストアの観測可能な状態を表す。
type State struct {
	Comments []model.Comment
	Loading  bool
	Err      string
}

// Store はコメントの状態コンテナ。
// 一覧は取得のたびに丸ごと置き換えられる（マージしない）。
type Store struct {
	mu    sync.RWMutex
	state State
}

// NewStore はStoreの新しいインスタンスを生成する。
func NewStore() *Store {
	return &Store{}
}

// State は現在の状態のコピーを返す。
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.state
	st.Comments = append([]model.Comment(nil), s.state.Comments...)
	return st
}

// Clear は表示中のコメント一覧を消去する（記事遷移時に使う）。
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Comments = nil
}

// Apply はイベントを状態に反映するリデューサ。
func (s *Store) Apply(ev action.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch ev.Phase {
	case action.PhasePending:
		switch ev.Op {
		case OpAdd, OpGetByPost:
			s.state.Loading = true
			s.state.Err = ""
		}

	case action.PhaseSuccess:
		switch ev.Op {
		case OpAdd:
			s.state.Loading = false
			payload, ok := ev.Payload.(*commentEnvelope)
			if !ok || payload.Comment == nil {
				return
			}
			s.state.Comments = append([]model.Comment{*payload.Comment}, s.state.Comments...)
		case OpGetByPost:
			s.state.Loading = false
			payload, ok := ev.Payload.(*listEnvelope)
			if !ok || payload.Comments == nil {
				return
			}
			s.state.Comments = payload.Comments
		}

	case action.PhaseFailure:
		switch ev.Op {
		case OpAdd, OpGetByPost:
			s.state.Loading = false
			s.state.Err = ev.Reason
		}
	}
}

// Service はコメント操作のアクションディスパッチャ。
type Service struct {
	client *api.Client
	store  *Store
	sink   action.Sink
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(client *api.Client, store *Store, sink action.Sink) *Service {
	return &Service{client: client, store: store, sink: sink}
}

// Store は保有する状態コンテナを返す。
func (s *Service) Store() *Store {
	return s.store
}

// Add は記事にコメントを投稿する。成功すると一覧の先頭に追加される。
func (s *Service) Add(ctx context.Context, postID, content string) error {
	return action.Dispatch(ctx, action.Spec{
		Op:          OpAdd,
		Store:       s.store,
		Sink:        s.sink,
		PendingText: "コメントを投稿しています...",
		Call: func(ctx context.Context) (any, string, error) {
			var env commentEnvelope
			err := s.client.Do(ctx, api.Call{
				Op: string(OpAdd), Method: http.MethodPost, Path: "/comment/" + postID,
				Body:     map[string]string{"content": content},
				Fallback: "コメントの投稿に失敗しました", Out: &env,
			})
			if err != nil {
				return nil, "", err
			}
			return &env, "コメントを投稿しました", nil
		},
	})
}

// GetByPost は記事のコメント一覧を取得する。一覧は丸ごと置き換えられる。
func (s *Service) GetByPost(ctx context.Context, postID string) error {
	return action.Dispatch(ctx, action.Spec{
		Op:    OpGetByPost,
		Store: s.store,
		Sink:  s.sink,
		Quiet: true,
		Call: func(ctx context.Context) (any, string, error) {
			var env listEnvelope
			err := s.client.Do(ctx, api.Call{
				Op: string(OpGetByPost), Method: http.MethodGet, Path: "/post/" + postID + "/comment",
				Fallback: "コメントの取得に失敗しました", Out: &env,
			})
			if err != nil {
				return nil, "", err
			}
			return &env, "", nil
		},
	})
}
