// Package admin は管理者ビューの状態コンテナとアクションディスパッチャを提供する。
// 権限の判定はサーバーに委ね、クライアントは応答をそのまま取り込む。
package admin

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
	OpGetAllUsers    action.Op = "admin.getAllUsers"
	OpGetUserByID    action.Op = "admin.getUserById"
	OpDeleteUser     action.Op = "admin.deleteUser"
	OpGetAllComments action.Op = "admin.getAllComments"
)

// usersEnvelope はユーザー一覧のエンベロープ。
type usersEnvelope struct {
	Message string       `json:"message"`
	Data    []model.User `json:"data"`
}

// userEnvelope は単一ユーザーのエンベロープ。
type userEnvelope struct {
	Message string      `json:"message"`
	Data    *model.User `json:"data"`
}

// commentsEnvelope はコメント一覧のエンベロープ。
type commentsEnvelope struct {
	Message string          `json:"message"`
	Data    []model.Comment `json:"data"`
}

// messageEnvelope はmessageのみのエンベロープ。
type messageEnvelope struct {
	Message string `json:"message"`
}

// deleteResult は削除決着のペイロード。対象IDをリデューサに伝える。
type deleteResult struct {
	UserID  string
	Message string
}

// State は管理者ストアの観測可能な状態を表す。
type State struct {
	Users    []model.User
	Current  *model.User
	Comments []model.Comment
	Loading  bool
	Err      string
}

// Store は管理者ビューの状態コンテナ。
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
	st.Users = append([]model.User(nil), s.state.Users...)
	st.Comments = append([]model.Comment(nil), s.state.Comments...)
	if s.state.Current != nil {
		u := *s.state.Current
		st.Current = &u
	}
	return st
}

// Apply はイベントを状態に反映するリデューサ。
// ユーザー1件取得はloadingを駆動しない（シングルトンのみ置き換える）。
func (s *Store) Apply(ev action.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch ev.Phase {
	case action.PhasePending:
		switch ev.Op {
		case OpGetAllUsers, OpDeleteUser, OpGetAllComments:
			s.state.Loading = true
			s.state.Err = ""
		}

	case action.PhaseSuccess:
		switch ev.Op {
		case OpGetAllUsers:
			s.state.Loading = false
			payload, ok := ev.Payload.(*usersEnvelope)
			if !ok || payload.Data == nil {
				return
			}
			s.state.Users = payload.Data
		case OpGetUserByID:
			payload, ok := ev.Payload.(*userEnvelope)
			if !ok || payload.Data == nil {
				return
			}
			u := *payload.Data
			s.state.Current = &u
		case OpDeleteUser:
			s.state.Loading = false
			payload, ok := ev.Payload.(*deleteResult)
			if !ok {
				return
			}
			kept := s.state.Users[:0]
			for _, u := range s.state.Users {
				if u.ID != payload.UserID {
					kept = append(kept, u)
				}
			}
			s.state.Users = kept
		case OpGetAllComments:
			s.state.Loading = false
			payload, ok := ev.Payload.(*commentsEnvelope)
			if !ok || payload.Data == nil {
				return
			}
			s.state.Comments = payload.Data
		}

	case action.PhaseFailure:
		switch ev.Op {
		case OpGetAllUsers, OpDeleteUser, OpGetAllComments:
			s.state.Loading = false
			s.state.Err = ev.Reason
		}
	}
}

// Service は管理者操作のアクションディスパッチャ。
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

// GetAllUsers は全ユーザー一覧を取得する。一覧は丸ごと置き換えられる。
func (s *Service) GetAllUsers(ctx context.Context) error {
	return action.Dispatch(ctx, action.Spec{
		Op: OpGetAllUsers, Store: s.store, Sink: s.sink, Quiet: true,
		Call: func(ctx context.Context) (any, string, error) {
			var env usersEnvelope
			err := s.client.Do(ctx, api.Call{
				Op: string(OpGetAllUsers), Method: http.MethodGet, Path: "/admin/all",
				Fallback: "ユーザー一覧の取得に失敗しました", Out: &env,
			})
			if err != nil {
				return nil, "", err
			}
			return &env, "", nil
		},
	})
}

// GetUserByID はユーザーを1件取得し、表示中シングルトンを置き換える。
func (s *Service) GetUserByID(ctx context.Context, userID string) error {
	return action.Dispatch(ctx, action.Spec{
		Op: OpGetUserByID, Store: s.store, Sink: s.sink, Quiet: true,
		Call: func(ctx context.Context) (any, string, error) {
			var env userEnvelope
			err := s.client.Do(ctx, api.Call{
				Op: string(OpGetUserByID), Method: http.MethodGet, Path: "/admin/get/" + userID,
				Fallback: "ユーザーの取得に失敗しました", Out: &env,
			})
			if err != nil {
				return nil, "", err
			}
			return &env, "", nil
		},
	})
}

// DeleteUser はユーザーを削除する。一覧から同一IDのみが除かれる。
func (s *Service) DeleteUser(ctx context.Context, userID string) error {
	return action.Dispatch(ctx, action.Spec{
		Op: OpDeleteUser, Store: s.store, Sink: s.sink,
		Call: func(ctx context.Context) (any, string, error) {
			var env messageEnvelope
			err := s.client.Do(ctx, api.Call{
				Op: string(OpDeleteUser), Method: http.MethodDelete, Path: "/admin/delete/" + userID,
				Fallback: "ユーザーの削除に失敗しました", Out: &env,
			})
			if err != nil {
				return nil, "", err
			}
			return &deleteResult{UserID: userID, Message: env.Message}, "ユーザーを削除しました", nil
		},
	})
}

// GetAllComments は全コメント一覧を取得する。一覧は丸ごと置き換えられる。
func (s *Service) GetAllComments(ctx context.Context) error {
	return action.Dispatch(ctx, action.Spec{
		Op: OpGetAllComments, Store: s.store, Sink: s.sink, Quiet: true,
		Call: func(ctx context.Context) (any, string, error) {
			var env commentsEnvelope
			err := s.client.Do(ctx, api.Call{
				Op: string(OpGetAllComments), Method: http.MethodGet, Path: "/admin/allcomment",
				Fallback: "コメント一覧の取得に失敗しました", Out: &env,
			})
			if err != nil {
				return nil, "", err
			}
			return &env, "", nil
		},
	})
}
