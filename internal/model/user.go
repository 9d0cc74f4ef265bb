// Package model はドメインモデルを定義する。
package model

import "time"

// User はブログサービスの利用ユーザーを表す。
// リモートAPIのレスポンス（MongoDB由来の_idフィールド）をそのままデコードする。
type User struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Avatar    string    `json:"avatar"`
	Role      string    `json:"role"`
	Bookmarks []string  `json:"bookmarks"`
	CreatedAt time.Time `json:"createdAt"`
}

// RoleAdmin は管理者権限を表すロール値。
const RoleAdmin = "admin"

// IsAdmin はユーザーが管理者権限を持つかを返す。
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
