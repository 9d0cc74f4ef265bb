// Package model はドメインモデルを定義する。
package model

import "time"

// Comment は記事へのコメントを表す。
// Authorはサーバー側でpopulateされたユーザーオブジェクト。
type Comment struct {
	ID        string    `json:"_id"`
	PostID    string    `json:"post"`
	Author    User      `json:"user"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}
