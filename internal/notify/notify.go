// Package notify は操作の経過を利用者向けの一時メッセージとして中継する。
//
// 1操作ライフサイクルにつき可視メッセージは常に1件で、pendingの表示は
// 決着（success/failure）で同じ位置に置き換えられ、積み上がらない。
// 状態の正しさには一切関与しない純粋な観測者である。
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hitoshi/penman/internal/action"
)

// Message は表示中の1件の通知を表す。
type Message struct {
	ID    string // 操作ライフサイクルID
	Op    action.Op
	Phase action.Phase
	Text  string
	At    time.Time
}

// Center は通知の受け口。action.Sinkを実装する。
type Center struct {
	mu       sync.Mutex
	logger   *slog.Logger
	messages []Message
	index    map[string]int // ライフサイクルID → messagesの位置
}

// NewCenter はCenterの新しいインスタンスを生成する。
func NewCenter(logger *slog.Logger) *Center {
	if logger == nil {
		logger = slog.Default()
	}
	return &Center{
		logger: logger,
		index:  make(map[string]int),
	}
}

// Publish はイベントを通知として取り込む。
// 同じライフサイクルIDの表示が既にある場合はその場で置き換える。
func (c *Center) Publish(ev action.Event, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	msg := Message{
		ID:    ev.ID,
		Op:    ev.Op,
		Phase: ev.Phase,
		Text:  text,
		At:    time.Now(),
	}

	if i, ok := c.index[ev.ID]; ok {
		c.messages[i] = msg
	} else {
		c.index[ev.ID] = len(c.messages)
		c.messages = append(c.messages, msg)
	}

	level := slog.LevelInfo
	if ev.Phase == action.PhaseFailure {
		level = slog.LevelWarn
	}
	c.logger.Log(context.Background(), level, "notification",
		slog.String("op", string(ev.Op)),
		slog.String("phase", ev.Phase.String()),
		slog.String("text", text),
	)
}

// Messages は表示中の通知のコピーを返す。
func (c *Center) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Dismiss は指定ライフサイクルIDの通知を取り下げる。
func (c *Center) Dismiss(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i, ok := c.index[id]
	if !ok {
		return
	}
	c.messages = append(c.messages[:i], c.messages[i+1:]...)
	delete(c.index, id)
	// 後続メッセージの位置を詰める
	for mid, pos := range c.index {
		if pos > i {
			c.index[mid] = pos - 1
		}
	}
}
