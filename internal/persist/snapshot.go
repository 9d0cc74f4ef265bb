// Package persist はセッションの永続スナップショットを提供する。
//
// ブラウザのローカルストレージに相当する、再起動をまたぐ
// ベストエフォートのキー/バリュー保存。書き込みは同期的に行い、
// 失敗はログに残して握りつぶす（操作の成否には影響しない）。
package persist

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/hitoshi/penman/internal/model"
)

// Snapshot は永続化されるセッションの写しを表す。
// フィールド名は保存ファイル上のキーで、{識別情報, 認証フラグ, ロール}を持つ。
type Snapshot struct {
	User       *model.User `json:"data"`
	IsLoggedIn bool        `json:"isLoggedIn"`
	Role       string      `json:"role"`
}

// Store はスナップショットの保存先インターフェース。
type Store interface {
	// Save はスナップショットを保存する。失敗は握りつぶされる。
	Save(snap Snapshot)
	// Load はスナップショットを読み込む。
	// ファイルが無い・壊れている場合はfalseを返す。
	Load() (Snapshot, bool)
	// Clear はスナップショットを削除する。失敗は握りつぶされる。
	Clear()
}

// FileStore はJSONファイルによるStoreの実装。
type FileStore struct {
	path   string
	logger *slog.Logger
}

// NewFileStore はFileStoreの新しいインスタンスを生成する。
func NewFileStore(path string, logger *slog.Logger) *FileStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileStore{path: path, logger: logger}
}

// Save はスナップショットをファイルに書き込む。
// ディレクトリが無ければ作成する。失敗はWarnログのみで握りつぶす。
func (s *FileStore) Save(snap Snapshot) {
	data, err := json.Marshal(snap)
	if err != nil {
		s.logger.Warn("セッションスナップショットのエンコードに失敗しました",
			slog.String("error", err.Error()),
		)
		return
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			s.logger.Warn("スナップショットディレクトリの作成に失敗しました",
				slog.String("path", dir),
				slog.String("error", err.Error()),
			)
			return
		}
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		s.logger.Warn("セッションスナップショットの書き込みに失敗しました",
			slog.String("path", s.path),
			slog.String("error", err.Error()),
		)
	}
}

// Load はファイルからスナップショットを読み込む。
// 不在・破損は未認証の既定へのフォールバックを意味するfalseで返す。
func (s *FileStore) Load() (Snapshot, bool) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return Snapshot{}, false
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		s.logger.Warn("セッションスナップショットが破損しています",
			slog.String("path", s.path),
			slog.String("error", err.Error()),
		)
		return Snapshot{}, false
	}
	return snap, true
}

// Clear はスナップショットファイルを削除する。
func (s *FileStore) Clear() {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("セッションスナップショットの削除に失敗しました",
			slog.String("path", s.path),
			slog.String("error", err.Error()),
		)
	}
}
