// Package model はドメインモデルを定義する。
package model

import "time"

// Post はブログ記事を表す。
// Contentはストアに取り込まれる前にサニタイズされるため、
// ストアから読み出した時点ではサニタイズ済みHTMLである。
type Post struct {
	ID           string     `json:"_id"`
	Title        string     `json:"title"`
	Content      string     `json:"content"`
	CoverImage   string     `json:"coverImage"`
	Media        []string   `json:"media"`
	Author       User       `json:"author"`
	Categories   []Category `json:"categories"`
	Tags         []Tag      `json:"tags"`
	Likes        []string   `json:"likes"`
	Views        int        `json:"views"`
	CommentCount int        `json:"commentCount"`
	IsPublished  bool       `json:"isPublished"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// LikedBy は指定ユーザーが記事にいいね済みかを返す。
func (p *Post) LikedBy(userID string) bool {
	for _, id := range p.Likes {
		if id == userID {
			return true
		}
	}
	return false
}

// Pagination は記事一覧のページネーション情報を表す。
// アクティブなフィルタ（検索語・カテゴリ・タグ）が変わると1ページ目にリセットされる。
type Pagination struct {
	CurrentPage int `json:"currentPage"`
	TotalPages  int `json:"totalPages"`
	TotalPosts  int `json:"totalPosts"`
}

// DefaultPagination はフィルタ変更時にリセットされる初期ページネーション。
func DefaultPagination() Pagination {
	return Pagination{CurrentPage: 1, TotalPages: 1, TotalPosts: 0}
}
