package session

import (
	"context"
	"net/http"
	"net/url"

	"github.com/hitoshi/penman/internal/action"
	"github.com/hitoshi/penman/internal/api"
	"github.com/hitoshi/penman/internal/model"
)

// userEnvelope は識別情報を含む成功レスポンスのエンベロープ。
type userEnvelope struct {
	Message string      `json:"message"`
	User    *model.User `json:"user"`
}

// bookmarksEnvelope はブックマーク一覧を含む成功レスポンスのエンベロープ。
type bookmarksEnvelope struct {
	Message   string       `json:"message"`
	Bookmarks []model.Post `json:"bookmarks"`
}

// messageEnvelope はmessageのみの成功レスポンスのエンベロープ。
type messageEnvelope struct {
	Message string `json:"message"`
}

// Service はセッション操作のアクションディスパッチャ。
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

// RegisterInput は新規登録の入力を表す。
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Avatar   *api.File
}

// Register は新規アカウントを登録する。multipartで送信される。
func (s *Service) Register(ctx context.Context, in RegisterInput) error {
	return action.Dispatch(ctx, action.Spec{
		Op:          OpRegister,
		Store:       s.store,
		Sink:        s.sink,
		PendingText: "アカウントを作成しています...",
		Call: func(ctx context.Context) (any, string, error) {
			form := &api.Form{Fields: url.Values{
				"name":     {in.Name},
				"email":    {in.Email},
				"password": {in.Password},
			}}
			if in.Avatar != nil {
				form.Files = append(form.Files, *in.Avatar)
			}
			var env userEnvelope
			err := s.client.Do(ctx, api.Call{
				Op: string(OpRegister), Method: http.MethodPost, Path: "/user/register",
				Form: form, Fallback: "アカウントの作成に失敗しました", Out: &env,
			})
			if err != nil {
				return nil, "", err
			}
			return &env, "アカウントを作成しました", nil
		},
	})
}

// Login は資格情報でログインする。
// 成功するとセッションクッキーがクライアントに保持され、
// 識別情報がスナップショットに永続化される。
func (s *Service) Login(ctx context.Context, email, password string) error {
	return action.Dispatch(ctx, action.Spec{
		Op:          OpLogin,
		Store:       s.store,
		Sink:        s.sink,
		PendingText: "ログインしています...",
		Call: func(ctx context.Context) (any, string, error) {
			var env userEnvelope
			err := s.client.Do(ctx, api.Call{
				Op: string(OpLogin), Method: http.MethodPost, Path: "/user/login",
				Body:     map[string]string{"email": email, "password": password},
				Fallback: "ログインに失敗しました", Out: &env,
			})
			if err != nil {
				return nil, "", err
			}
			return &env, "ログインしました", nil
		},
	})
}

// Logout はログアウトする。成功すると識別情報・認証フラグ・
// ブックマークがすべて初期化され、スナップショットも消去される。
func (s *Service) Logout(ctx context.Context) error {
	return action.Dispatch(ctx, action.Spec{
		Op:    OpLogout,
		Store: s.store,
		Sink:  s.sink,
		Call: func(ctx context.Context) (any, string, error) {
			var env messageEnvelope
			err := s.client.Do(ctx, api.Call{
				Op: string(OpLogout), Method: http.MethodGet, Path: "/user/logout",
				Fallback: "ログアウトに失敗しました", Out: &env,
			})
			if err != nil {
				return nil, "", err
			}
			return &env, "ログアウトしました", nil
		},
	})
}

// GetProfile はサーバーの権威ある識別情報を取得して突き合わせる。
// 失敗は静かに扱われる（エラースロットを汚さない）。
func (s *Service) GetProfile(ctx context.Context) error {
	return action.Dispatch(ctx, action.Spec{
		Op:    OpGetProfile,
		Store: s.store,
		Sink:  s.sink,
		Quiet: true,
		Call: func(ctx context.Context) (any, string, error) {
			var env userEnvelope
			err := s.client.Do(ctx, api.Call{
				Op: string(OpGetProfile), Method: http.MethodGet, Path: "/user/me",
				Fallback: "プロフィールの取得に失敗しました", Out: &env,
			})
			if err != nil {
				return nil, "", err
			}
			return &env, "", nil
		},
	})
}

// ForgotPassword はパスワード再設定メールの送信を要求する。
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	return action.Dispatch(ctx, action.Spec{
		Op:    OpForgotPassword,
		Store: s.store,
		Sink:  s.sink,
		Call: func(ctx context.Context) (any, string, error) {
			var env messageEnvelope
			err := s.client.Do(ctx, api.Call{
				Op: string(OpForgotPassword), Method: http.MethodPost, Path: "/user/forgot-password",
				Body:     map[string]string{"email": email},
				Fallback: "再設定メールの送信に失敗しました", Out: &env,
			})
			if err != nil {
				return nil, "", err
			}
			return &env, "再設定メールを送信しました", nil
		},
	})
}

// ResetPassword は再設定トークンで新しいパスワードを設定する。
func (s *Service) ResetPassword(ctx context.Context, token, password string) error {
	return action.Dispatch(ctx, action.Spec{
		Op:    OpResetPassword,
		Store: s.store,
		Sink:  s.sink,
		Call: func(ctx context.Context) (any, string, error) {
			var env messageEnvelope
			err := s.client.Do(ctx, api.Call{
				Op: string(OpResetPassword), Method: http.MethodPost, Path: "/user/reset-password/" + token,
				Body:     map[string]string{"password": password},
				Fallback: "パスワードの再設定に失敗しました", Out: &env,
			})
			if err != nil {
				return nil, "", err
			}
			return &env, "パスワードを再設定しました", nil
		},
	})
}

// ChangePassword はログイン中のユーザーのパスワードを変更する。
func (s *Service) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	return action.Dispatch(ctx, action.Spec{
		Op:    OpChangePassword,
		Store: s.store,
		Sink:  s.sink,
		Call: func(ctx context.Context) (any, string, error) {
			var env messageEnvelope
			err := s.client.Do(ctx, api.Call{
				Op: string(OpChangePassword), Method: http.MethodPost, Path: "/user/changepassword",
				Body:     map[string]string{"oldpassword": oldPassword, "newpassword": newPassword},
				Fallback: "パスワードの変更に失敗しました", Out: &env,
			})
			if err != nil {
				return nil, "", err
			}
			return &env, "パスワードを変更しました", nil
		},
	})
}

// UpdateProfileInput はプロフィール更新の入力を表す。空フィールドは送信しない。
type UpdateProfileInput struct {
	FullName string
	Avatar   *api.File
}

// UpdateProfile はプロフィールを更新する。multipartで送信される。
// 表示中の識別情報は次回のGetProfileで更新される（このアクションは通知のみ）。
func (s *Service) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) error {
	return action.Dispatch(ctx, action.Spec{
		Op:    OpUpdateProfile,
		Store: s.store,
		Sink:  s.sink,
		Call: func(ctx context.Context) (any, string, error) {
			form := &api.Form{Fields: url.Values{}}
			if in.FullName != "" {
				form.Fields.Set("fullName", in.FullName)
			}
			if in.Avatar != nil {
				form.Files = append(form.Files, *in.Avatar)
			}
			var env userEnvelope
			err := s.client.Do(ctx, api.Call{
				Op: string(OpUpdateProfile), Method: http.MethodPut, Path: "/user/update/" + userID,
				Form: form, Fallback: "プロフィールの更新に失敗しました", Out: &env,
			})
			if err != nil {
				return nil, "", err
			}
			return &env, "プロフィールを更新しました", nil
		},
	})
}

// BookmarkPost は記事のブックマークをトグルする。
// 成功通知はサーバーのmessageをそのまま表示する。
func (s *Service) BookmarkPost(ctx context.Context, postID string) error {
	return action.Dispatch(ctx, action.Spec{
		Op:    OpBookmarkPost,
		Store: s.store,
		Sink:  s.sink,
		Call: func(ctx context.Context) (any, string, error) {
			var env bookmarksEnvelope
			err := s.client.Do(ctx, api.Call{
				Op: string(OpBookmarkPost), Method: http.MethodPost, Path: "/user/bookmark/" + postID,
				Fallback: "ブックマークに失敗しました", Out: &env,
			})
			if err != nil {
				return nil, "", err
			}
			note := env.Message
			if note == "" {
				note = "ブックマークを更新しました"
			}
			return &env, note, nil
		},
	})
}

// GetBookmarks はブックマーク一覧を取得する。一覧は丸ごと置き換えられる。
func (s *Service) GetBookmarks(ctx context.Context) error {
	return action.Dispatch(ctx, action.Spec{
		Op:    OpGetBookmarks,
		Store: s.store,
		Sink:  s.sink,
		Quiet: true,
		Call: func(ctx context.Context) (any, string, error) {
			var env bookmarksEnvelope
			err := s.client.Do(ctx, api.Call{
				Op: string(OpGetBookmarks), Method: http.MethodGet, Path: "/user/getbookmarkpost",
				Fallback: "ブックマークの取得に失敗しました", Out: &env,
			})
			if err != nil {
				return nil, "", err
			}
			return &env, "", nil
		},
	})
}

// Hydrate は永続スナップショットからセッションを復元する。
func (s *Service) Hydrate() {
	s.store.Hydrate()
}

// Reconcile は復元した推測をサーバーの権威ある状態と突き合わせる。
// サーバーの応答が常に優先される。
func (s *Service) Reconcile(ctx context.Context) error {
	return s.GetProfile(ctx)
}
