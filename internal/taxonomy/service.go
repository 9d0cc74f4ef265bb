package taxonomy

import (
	"context"
	"net/http"

	"github.com/hitoshi/penman/internal/action"
	"github.com/hitoshi/penman/internal/api"
	"github.com/hitoshi/penman/internal/model"
)

// categoriesEnvelope はカテゴリ一覧のエンベロープ。
type categoriesEnvelope struct {
	Message string           `json:"message"`
	Data    []model.Category `json:"data"`
}

// categoryEnvelope は単一カテゴリのエンベロープ。
type categoryEnvelope struct {
	Message string          `json:"message"`
	Data    *model.Category `json:"data"`
}

// tagsEnvelope はタグ一覧のエンベロープ。
type tagsEnvelope struct {
	Message string      `json:"message"`
	Data    []model.Tag `json:"data"`
}

// tagEnvelope は単一タグのエンベロープ。
type tagEnvelope struct {
	Message string     `json:"message"`
	Data    *model.Tag `json:"data"`
}

// messageEnvelope はmessageのみのエンベロープ。
type messageEnvelope struct {
	Message string `json:"message"`
}

// deleteResult は削除決着のペイロード。対象IDをリデューサに伝える。
type deleteResult struct {
	ID      string
	Message string
}

// Input はカテゴリ/タグの作成・更新の入力を表す。
type Input struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Service はカテゴリ/タグ操作のアクションディスパッチャ。
// 読み取りは公開エンドポイント、書き込みは管理者エンドポイントを使う。
// 権限の判定はサーバーに委ねる。
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

// GetAllCategories はカテゴリ一覧を取得する。一覧は丸ごと置き換えられる。
func (s *Service) GetAllCategories(ctx context.Context) error {
	return action.Dispatch(ctx, action.Spec{
		Op: OpGetAllCategories, Store: s.store, Sink: s.sink, Quiet: true,
		Call: func(ctx context.Context) (any, string, error) {
			var env categoriesEnvelope
			err := s.client.Do(ctx, api.Call{
				Op: string(OpGetAllCategories), Method: http.MethodGet, Path: "/category/all",
				Fallback: "カテゴリの取得に失敗しました", Out: &env,
			})
			if err != nil {
				return nil, "", err
			}
			return &env, "", nil
		},
	})
}

// GetCategoryByID はカテゴリを1件取得し、表示中シングルトンを置き換える。
// 一覧のloadingには関与しない。
func (s *Service) GetCategoryByID(ctx context.Context, id string) error {
	return action.Dispatch(ctx, action.Spec{
		Op: OpGetCategoryByID, Store: s.store, Sink: s.sink, Quiet: true,
		Call: func(ctx context.Context) (any, string, error) {
			var env categoryEnvelope
			err := s.client.Do(ctx, api.Call{
				Op: string(OpGetCategoryByID), Method: http.MethodGet, Path: "/category/get/" + id,
				Fallback: "カテゴリの取得に失敗しました", Out: &env,
			})
			if err != nil {
				return nil, "", err
			}
			return &env, "", nil
		},
	})
}

// CreateCategory はカテゴリを作成する。成功すると一覧の末尾に追加される。
// 名前の重複はサーバーが拒否し、そのmessageがそのまま通知される。
func (s *Service) CreateCategory(ctx context.Context, in Input) error {
	return action.Dispatch(ctx, action.Spec{
		Op: OpCreateCategory, Store: s.store, Sink: s.sink,
		Call: func(ctx context.Context) (any, string, error) {
			var env categoryEnvelope
			err := s.client.Do(ctx, api.Call{
				Op: string(OpCreateCategory), Method: http.MethodPost, Path: "/admin/createcategory",
				Body: in, Fallback: "カテゴリの作成に失敗しました", Out: &env,
			})
			if err != nil {
				return nil, "", err
			}
			return &env, "カテゴリを作成しました", nil
		},
	})
}

// UpdateCategory はカテゴリを更新する。一覧中の同一IDがその場で置き換えられる。
func (s *Service) UpdateCategory(ctx context.Context, id string, in Input) error {
	return action.Dispatch(ctx, action.Spec{
		Op: OpUpdateCategory, Store: s.store, Sink: s.sink,
		Call: func(ctx context.Context) (any, string, error) {
			var env categoryEnvelope
			err := s.client.Do(ctx, api.Call{
				Op: string(OpUpdateCategory), Method: http.MethodPut, Path: "/admin/updatecategory/" + id,
				Body: in, Fallback: "カテゴリの更新に失敗しました", Out: &env,
			})
			if err != nil {
				return nil, "", err
			}
			return &env, "カテゴリを更新しました", nil
		},
	})
}

// DeleteCategory はカテゴリを削除する。一覧から同一IDのみが除かれる。
func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	return action.Dispatch(ctx, action.Spec{
		Op: OpDeleteCategory, Store: s.store, Sink: s.sink,
		Call: func(ctx context.Context) (any, string, error) {
			var env messageEnvelope
			err := s.client.Do(ctx, api.Call{
				Op: string(OpDeleteCategory), Method: http.MethodDelete, Path: "/admin/deletecategory/" + id,
				Fallback: "カテゴリの削除に失敗しました", Out: &env,
			})
			if err != nil {
				return nil, "", err
			}
			return &deleteResult{ID: id, Message: env.Message}, "カテゴリを削除しました", nil
		},
	})
}

// GetAllTags はタグ一覧を取得する。一覧は丸ごと置き換えられる。
func (s *Service) GetAllTags(ctx context.Context) error {
	return action.Dispatch(ctx, action.Spec{
		Op: OpGetAllTags, Store: s.store, Sink: s.sink, Quiet: true,
		Call: func(ctx context.Context) (any, string, error) {
			var env tagsEnvelope
			err := s.client.Do(ctx, api.Call{
				Op: string(OpGetAllTags), Method: http.MethodGet, Path: "/tag/all",
				Fallback: "タグの取得に失敗しました", Out: &env,
			})
			if err != nil {
				return nil, "", err
			}
			return &env, "", nil
		},
	})
}

// GetTagByID はタグを1件取得し、表示中シングルトンを置き換える。
func (s *Service) GetTagByID(ctx context.Context, id string) error {
	return action.Dispatch(ctx, action.Spec{
		Op: OpGetTagByID, Store: s.store, Sink: s.sink, Quiet: true,
		Call: func(ctx context.Context) (any, string, error) {
			var env tagEnvelope
			err := s.client.Do(ctx, api.Call{
				Op: string(OpGetTagByID), Method: http.MethodGet, Path: "/tag/" + id,
				Fallback: "タグの取得に失敗しました", Out: &env,
			})
			if err != nil {
				return nil, "", err
			}
			return &env, "", nil
		},
	})
}

// CreateTag はタグを作成する。成功すると一覧の末尾に追加される。
func (s *Service) CreateTag(ctx context.Context, in Input) error {
	return action.Dispatch(ctx, action.Spec{
		Op: OpCreateTag, Store: s.store, Sink: s.sink,
		Call: func(ctx context.Context) (any, string, error) {
			var env tagEnvelope
			err := s.client.Do(ctx, api.Call{
				Op: string(OpCreateTag), Method: http.MethodPost, Path: "/admin/createtag",
				Body: in, Fallback: "タグの作成に失敗しました", Out: &env,
			})
			if err != nil {
				return nil, "", err
			}
			return &env, "タグを作成しました", nil
		},
	})
}

// UpdateTag はタグを更新する。一覧中の同一IDがその場で置き換えられる。
func (s *Service) UpdateTag(ctx context.Context, id string, in Input) error {
	return action.Dispatch(ctx, action.Spec{
		Op: OpUpdateTag, Store: s.store, Sink: s.sink,
		Call: func(ctx context.Context) (any, string, error) {
			var env tagEnvelope
			err := s.client.Do(ctx, api.Call{
				Op: string(OpUpdateTag), Method: http.MethodPut, Path: "/admin/updatetag/" + id,
				Body: in, Fallback: "タグの更新に失敗しました", Out: &env,
			})
			if err != nil {
				return nil, "", err
			}
			return &env, "タグを更新しました", nil
		},
	})
}

// DeleteTag はタグを削除する。一覧から同一IDのみが除かれる。
func (s *Service) DeleteTag(ctx context.Context, id string) error {
	return action.Dispatch(ctx, action.Spec{
		Op: OpDeleteTag, Store: s.store, Sink: s.sink,
		Call: func(ctx context.Context) (any, string, error) {
			var env messageEnvelope
			err := s.client.Do(ctx, api.Call{
				Op: string(OpDeleteTag), Method: http.MethodDelete, Path: "/admin/deletetag/" + id,
				Fallback: "タグの削除に失敗しました", Out: &env,
			})
			if err != nil {
				return nil, "", err
			}
			return &deleteResult{ID: id, Message: env.Message}, "タグを削除しました", nil
		},
	})
}
