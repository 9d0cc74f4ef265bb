package post

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/hitoshi/penman/internal/action"
	"github.com/hitoshi/penman/internal/api"
	"github.com/hitoshi/penman/internal/model"
)

// postEnvelope は単一記事を含む成功レスポンスのエンベロープ。
type postEnvelope struct {
	Message string      `json:"message"`
	Post    *model.Post `json:"post"`
}

// listEnvelope は記事一覧とページネーションを含むエンベロープ。
type listEnvelope struct {
	Message     string       `json:"message"`
	Posts       []model.Post `json:"posts"`
	CurrentPage int          `json:"currentPage"`
	TotalPages  int          `json:"totalPages"`
	TotalPosts  int          `json:"totalPosts"`
}

// searchEnvelope は検索結果のエンベロープ。一覧取得とは形が異なる。
type searchEnvelope struct {
	Message    string           `json:"message"`
	Data       []model.Post     `json:"data"`
	Pagination model.Pagination `json:"pagination"`
}

// relatedEnvelope は関連記事一覧のエンベロープ。
type relatedEnvelope struct {
	Message string       `json:"message"`
	Data    []model.Post `json:"data"`
}

// messageEnvelope はmessageのみのエンベロープ。
type messageEnvelope struct {
	Message string `json:"message"`
}

// deleteResult は削除決着のペイロード。対象IDをリデューサに伝える。
type deleteResult struct {
	PostID  string
	Message string
}

// Service は記事操作のアクションディスパッチャ。
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

// CreateInput は記事作成の入力を表す。
type CreateInput struct {
	Title       string
	Content     string
	Cover       *api.File  // フォームフィールド名はavatar
	Media       []api.File
	Categories  []string
	Tags        []string
	IsPublished *bool
}

// form はCreateInputをmultipartペイロードに変換する。
func (in CreateInput) form() *api.Form {
	form := &api.Form{Fields: url.Values{
		"title":   {in.Title},
		"content": {in.Content},
	}}
	if in.Cover != nil {
		cover := *in.Cover
		cover.Field = "avatar"
		form.Files = append(form.Files, cover)
	}
	for _, m := range in.Media {
		m.Field = "media"
		form.Files = append(form.Files, m)
	}
	if len(in.Categories) > 0 {
		form.Fields.Set("categories", strings.Join(in.Categories, ","))
	}
	if len(in.Tags) > 0 {
		form.Fields.Set("tags", strings.Join(in.Tags, ","))
	}
	if in.IsPublished != nil {
		form.Fields.Set("isPublished", strconv.FormatBool(*in.IsPublished))
	}
	return form
}

// Create は記事を作成する。成功すると一覧の先頭に追加される。
func (s *Service) Create(ctx context.Context, in CreateInput) error {
	return action.Dispatch(ctx, action.Spec{
		Op:          OpCreate,
		Store:       s.store,
		Sink:        s.sink,
		PendingText: "記事を作成しています...",
		Call: func(ctx context.Context) (any, string, error) {
			var env postEnvelope
			err := s.client.Do(ctx, api.Call{
				Op: string(OpCreate), Method: http.MethodPost, Path: "/post/create",
				Form: in.form(), Fallback: "記事の作成に失敗しました", Out: &env,
			})
			if err != nil {
				return nil, "", err
			}
			return &env, "記事を作成しました", nil
		},
	})
}

// ListOptions は一覧取得のパラメータを表す。
type ListOptions struct {
	Page      int
	Limit     int
	Category  string
	Published *bool
}

// GetAll は記事一覧を取得する。一覧とページネーションは丸ごと置き換えられる。
// カテゴリフィルタが変わるとページネーションは先に1ページ目へリセットされる。
func (s *Service) GetAll(ctx context.Context, opts ListOptions) error {
	s.store.SetFilter(Filter{Category: opts.Category})

	return action.Dispatch(ctx, action.Spec{
		Op:    OpGetAll,
		Store: s.store,
		Sink:  s.sink,
		Quiet: true,
		Call: func(ctx context.Context) (any, string, error) {
			query := url.Values{
				"page":  {strconv.Itoa(pageOrDefault(opts.Page))},
				"limit": {strconv.Itoa(limitOrDefault(opts.Limit))},
			}
			if opts.Category != "" {
				query.Set("category", opts.Category)
			}
			if opts.Published != nil {
				query.Set("published", strconv.FormatBool(*opts.Published))
			}
			var env listEnvelope
			err := s.client.Do(ctx, api.Call{
				Op: string(OpGetAll), Method: http.MethodGet, Path: "/post/all",
				Query: query, Fallback: "投稿の取得に失敗しました", Out: &env,
			})
			if err != nil {
				return nil, "", err
			}
			return &env, "", nil
		},
	})
}

// GetByID は記事を1件取得し、表示中シングルトンを置き換える。
func (s *Service) GetByID(ctx context.Context, postID string) error {
	return action.Dispatch(ctx, action.Spec{
		Op:    OpGetByID,
		Store: s.store,
		Sink:  s.sink,
		Quiet: true,
		Call: func(ctx context.Context) (any, string, error) {
			var env postEnvelope
			err := s.client.Do(ctx, api.Call{
				Op: string(OpGetByID), Method: http.MethodGet, Path: "/post/getpost/" + postID,
				Fallback: "記事の取得に失敗しました", Out: &env,
			})
			if err != nil {
				return nil, "", err
			}
			return &env, "", nil
		},
	})
}

// Update は記事を更新する。一覧中の同一IDの記事がその場で置き換えられる。
func (s *Service) Update(ctx context.Context, postID string, in CreateInput) error {
	return action.Dispatch(ctx, action.Spec{
		Op:    OpUpdate,
		Store: s.store,
		Sink:  s.sink,
		Call: func(ctx context.Context) (any, string, error) {
			var env postEnvelope
			err := s.client.Do(ctx, api.Call{
				Op: string(OpUpdate), Method: http.MethodPut, Path: "/post/" + postID,
				Form: in.form(), Fallback: "記事の更新に失敗しました", Out: &env,
			})
			if err != nil {
				return nil, "", err
			}
			return &env, "記事を更新しました", nil
		},
	})
}

// Delete は記事を削除する。一覧から同一IDの記事のみが除かれる。
func (s *Service) Delete(ctx context.Context, postID string) error {
	return action.Dispatch(ctx, action.Spec{
		Op:    OpDelete,
		Store: s.store,
		Sink:  s.sink,
		Call: func(ctx context.Context) (any, string, error) {
			var env messageEnvelope
			err := s.client.Do(ctx, api.Call{
				Op: string(OpDelete), Method: http.MethodDelete, Path: "/post/" + postID,
				Fallback: "記事の削除に失敗しました", Out: &env,
			})
			if err != nil {
				return nil, "", err
			}
			return &deleteResult{PostID: postID, Message: env.Message}, "記事を削除しました", nil
		},
	})
}

// Like は記事のいいねをトグルする。状態は直接更新されず、
// 新しいいいね数の観測には記事または一覧の再取得が必要。
// 成功通知はサーバーのmessageをそのまま表示する。
func (s *Service) Like(ctx context.Context, postID string) error {
	return action.Dispatch(ctx, action.Spec{
		Op:    OpLike,
		Store: s.store,
		Sink:  s.sink,
		Call: func(ctx context.Context) (any, string, error) {
			var env messageEnvelope
			err := s.client.Do(ctx, api.Call{
				Op: string(OpLike), Method: http.MethodPost, Path: "/post/" + postID + "/like",
				Fallback: "いいねに失敗しました", Out: &env,
			})
			if err != nil {
				return nil, "", err
			}
			note := env.Message
			if note == "" {
				note = "いいねを更新しました"
			}
			return &env, note, nil
		},
	})
}

// GetRelated は関連記事一覧を取得する。
func (s *Service) GetRelated(ctx context.Context, postID string) error {
	return action.Dispatch(ctx, action.Spec{
		Op:    OpGetRelated,
		Store: s.store,
		Sink:  s.sink,
		Quiet: true,
		Call: func(ctx context.Context) (any, string, error) {
			var env relatedEnvelope
			err := s.client.Do(ctx, api.Call{
				Op: string(OpGetRelated), Method: http.MethodGet, Path: "/post/related/" + postID,
				Fallback: "関連記事の取得に失敗しました", Out: &env,
			})
			if err != nil {
				return nil, "", err
			}
			return &env, "", nil
		},
	})
}

// IncrementView は閲覧数を加算する。撃ちっぱなしで状態には反映しない。
func (s *Service) IncrementView(ctx context.Context, postID string) error {
	return action.Dispatch(ctx, action.Spec{
		Op:    OpIncrementView,
		Store: s.store,
		Sink:  s.sink,
		Quiet: true,
		Call: func(ctx context.Context) (any, string, error) {
			var env messageEnvelope
			err := s.client.Do(ctx, api.Call{
				Op: string(OpIncrementView), Method: http.MethodPut, Path: "/post/" + postID + "/views",
				Fallback: "閲覧数の更新に失敗しました", Out: &env,
			})
			if err != nil {
				return nil, "", err
			}
			return &env, "", nil
		},
	})
}

// SearchOptions は検索のパラメータを表す。
type SearchOptions struct {
	Search   string
	Tag      string
	Category string
	Page     int
	Limit    int
}

// Search は記事を検索する。一覧とページネーションは丸ごと置き換えられる。
// 検索語・タグ・カテゴリが変わるとページネーションは先に1ページ目へリセットされる。
func (s *Service) Search(ctx context.Context, opts SearchOptions) error {
	s.store.SetFilter(Filter{Search: opts.Search, Category: opts.Category, Tag: opts.Tag})

	return action.Dispatch(ctx, action.Spec{
		Op:    OpSearch,
		Store: s.store,
		Sink:  s.sink,
		Quiet: true,
		Call: func(ctx context.Context) (any, string, error) {
			query := url.Values{
				"search": {opts.Search},
				"page":   {strconv.Itoa(pageOrDefault(opts.Page))},
				"limit":  {strconv.Itoa(limitOrDefault(opts.Limit))},
			}
			if opts.Tag != "" {
				query.Set("tag", opts.Tag)
			}
			if opts.Category != "" {
				query.Set("category", opts.Category)
			}
			var env searchEnvelope
			err := s.client.Do(ctx, api.Call{
				Op: string(OpSearch), Method: http.MethodGet, Path: "/post/filtersearch",
				Query: query, Fallback: "検索に失敗しました", Out: &env,
			})
			if err != nil {
				return nil, "", err
			}
			return &env, "", nil
		},
	})
}

func pageOrDefault(page int) int {
	if page <= 0 {
		return 1
	}
	return page
}

func limitOrDefault(limit int) int {
	if limit <= 0 {
		return 10
	}
	return limit
}
