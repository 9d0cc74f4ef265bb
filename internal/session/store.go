// Package session は認証セッションの状態コンテナとアクションディスパッチャを提供する。
package session

import (
	"sync"

	"github.com/hitoshi/penman/internal/action"
	"github.com/hitoshi/penman/internal/model"
	"github.com/hitoshi/penman/internal/persist"
)

// 操作識別子
const (
	OpRegister       action.Op = "session.register"
	OpLogin          action.Op = "session.login"
	OpLogout         action.Op = "session.logout"
	OpGetProfile     action.Op = "session.getProfile"
	OpForgotPassword action.Op = "session.forgotPassword"
	OpResetPassword  action.Op = "session.resetPassword"
	OpChangePassword action.Op = "session.changePassword"
	OpUpdateProfile  action.Op = "session.updateProfile"
	OpBookmarkPost   action.Op = "session.bookmarkPost"
	OpGetBookmarks   action.Op = "session.getBookmarks"
)

// State はセッションストアの観測可能な状態を表す。
// 不変条件: IsAuthenticatedとUserは常に同時に設定・解除される。
type State struct {
	User            *model.User
	IsAuthenticated bool
	Role            string
	Bookmarks       []model.Post
	Loading         bool
	Err             string
}

// Store はセッションの状態コンテナ。
// リデューサ（Apply）経由でのみ書き換えられ、スナップショットの
// 永続化は成功決着の反映と同時に同期的に行われる。
type Store struct {
	mu    sync.RWMutex
	state State
	snap  persist.Store // nil可
}

// NewStore はStoreの新しいインスタンスを生成する。
// snapがnilの場合は永続化を行わない。
func NewStore(snap persist.Store) *Store {
	return &Store{snap: snap}
}

// State は現在の状態のコピーを返す。
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.state
	if s.state.User != nil {
		u := *s.state.User
		st.User = &u
	}
	st.Bookmarks = append([]model.Post(nil), s.state.Bookmarks...)
	return st
}

// ClearError はエラースロットを明示的に消去する。
func (s *Store) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Err = ""
}

// Hydrate は永続スナップショットから状態を復元する。
// 不在・破損は未認証の既定にフォールバックする。サーバーとの突き合わせは
// 呼び出し側（Service.Reconcile）が行い、サーバーの応答が常に優先される。
func (s *Store) Hydrate() {
	if s.snap == nil {
		return
	}
	snap, ok := s.snap.Load()
	if !ok || !snap.IsLoggedIn || snap.User == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.User = snap.User
	s.state.IsAuthenticated = true
	s.state.Role = snap.Role
}

// Apply はイベントを状態に反映するリデューサ。
// 期待するネストフィールドを欠いたペイロードは状態を変更しない
// （部分的なレスポンスでセッションを壊さないため）。
func (s *Store) Apply(ev action.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch ev.Phase {
	case action.PhasePending:
		switch ev.Op {
		case OpRegister, OpLogin, OpGetProfile:
			s.state.Loading = true
			s.state.Err = ""
		}

	case action.PhaseSuccess:
		switch ev.Op {
		case OpRegister, OpLogin, OpGetProfile:
			s.state.Loading = false
			payload, ok := ev.Payload.(*userEnvelope)
			if !ok || payload.User == nil {
				return
			}
			s.state.User = payload.User
			s.state.IsAuthenticated = true
			s.state.Role = payload.User.Role
			s.persistLocked()
		case OpLogout:
			s.state.User = nil
			s.state.IsAuthenticated = false
			s.state.Role = ""
			s.state.Bookmarks = nil
			if s.snap != nil {
				s.snap.Clear()
			}
		case OpGetBookmarks:
			payload, ok := ev.Payload.(*bookmarksEnvelope)
			if !ok {
				return
			}
			if payload.Bookmarks == nil {
				s.state.Bookmarks = []model.Post{}
				return
			}
			s.state.Bookmarks = payload.Bookmarks
		case OpBookmarkPost:
			// ブックマーク一覧を返すバックエンドのみ取り込む
			payload, ok := ev.Payload.(*bookmarksEnvelope)
			if !ok || payload.Bookmarks == nil {
				return
			}
			s.state.Bookmarks = payload.Bookmarks
		}

	case action.PhaseFailure:
		switch ev.Op {
		case OpRegister, OpLogin:
			s.state.Loading = false
			s.state.Err = ev.Reason
		case OpGetProfile:
			// 起動時の突き合わせプローブは静かに失敗させる
			s.state.Loading = false
		}
	}
}

// persistLocked は現在の識別情報をスナップショットに書き出す。
// 呼び出し元がロックを保持していること。
func (s *Store) persistLocked() {
	if s.snap == nil {
		return
	}
	s.snap.Save(persist.Snapshot{
		User:       s.state.User,
		IsLoggedIn: s.state.IsAuthenticated,
		Role:       s.state.Role,
	})
}
