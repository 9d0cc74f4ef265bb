// Package model はドメインモデルを定義する。
package model

// Category は記事のカテゴリを表す。
// 名前の一意性はサーバー側で強制され、クライアントは検証しない。
type Category struct {
	ID          string `json:"_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Tag は記事のタグを表す。
// 名前の一意性はサーバー側で強制され、クライアントは検証しない。
type Tag struct {
	ID          string `json:"_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}
