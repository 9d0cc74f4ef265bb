// Package taxonomy はカテゴリとタグの状態コンテナとアクションディスパッチャを提供する。
// 両者は構造が同一なので1つのストアで併置して管理する。
package taxonomy

import (
	"sync"

	"github.com/hitoshi/penman/internal/action"
	"github.com/hitoshi/penman/internal/model"
)

// 操作識別子
const (
	OpGetAllCategories action.Op = "taxonomy.getAllCategories"
	OpGetCategoryByID  action.Op = "taxonomy.getCategoryById"
	OpCreateCategory   action.Op = "taxonomy.createCategory"
	OpUpdateCategory   action.Op = "taxonomy.updateCategory"
	OpDeleteCategory   action.Op = "taxonomy.deleteCategory"

	OpGetAllTags action.Op = "taxonomy.getAllTags"
	OpGetTagByID action.Op = "taxonomy.getTagById"
	OpCreateTag  action.Op = "taxonomy.createTag"
	OpUpdateTag  action.Op = "taxonomy.updateTag"
	OpDeleteTag  action.Op = "taxonomy.deleteTag"
)

// State はタクソノミーストアの観測可能な状態を表す。
type State struct {
	Categories      []model.Category
	CurrentCategory *model.Category
	Tags            []model.Tag
	CurrentTag      *model.Tag
	Loading         bool
	Err             string
}

// Store はカテゴリとタグの状態コンテナ。
// 作成は末尾追加、更新は同一IDのその場置換、削除は同一IDの除去。
// 名前の重複はサーバーが拒否し、一覧は変化しない。
type Store struct {
	mu    sync.RWMutex
	state State
}

// NewStore はStoreの新しいインスタンスを生成する。
func NewStore() *Store {
	return &Store{}
}

// State は現在の状態のコピーを返す。
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.state
	st.Categories = append([]model.Category(nil), s.state.Categories...)
	st.Tags = append([]model.Tag(nil), s.state.Tags...)
	if s.state.CurrentCategory != nil {
		c := *s.state.CurrentCategory
		st.CurrentCategory = &c
	}
	if s.state.CurrentTag != nil {
		tg := *s.state.CurrentTag
		st.CurrentTag = &tg
	}
	return st
}

// ClearError はエラースロットを明示的に消去する。
func (s *Store) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Err = ""
}

// Apply はイベントを状態に反映するリデューサ。
func (s *Store) Apply(ev action.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch ev.Phase {
	case action.PhasePending:
		switch ev.Op {
		case OpGetAllCategories, OpCreateCategory, OpUpdateCategory, OpDeleteCategory,
			OpGetAllTags, OpCreateTag, OpUpdateTag, OpDeleteTag:
			s.state.Loading = true
			s.state.Err = ""
		}

	case action.PhaseSuccess:
		s.applySuccessLocked(ev)

	case action.PhaseFailure:
		switch ev.Op {
		case OpGetAllCategories, OpCreateCategory, OpUpdateCategory, OpDeleteCategory,
			OpGetAllTags, OpCreateTag, OpUpdateTag, OpDeleteTag:
			s.state.Loading = false
			s.state.Err = ev.Reason
		}
	}
}

func (s *Store) applySuccessLocked(ev action.Event) {
	switch ev.Op {
	case OpGetAllCategories:
		s.state.Loading = false
		payload, ok := ev.Payload.(*categoriesEnvelope)
		if !ok || payload.Data == nil {
			return
		}
		s.state.Categories = payload.Data
	case OpGetCategoryByID:
		payload, ok := ev.Payload.(*categoryEnvelope)
		if !ok || payload.Data == nil {
			return
		}
		c := *payload.Data
		s.state.CurrentCategory = &c
	case OpCreateCategory:
		s.state.Loading = false
		payload, ok := ev.Payload.(*categoryEnvelope)
		if !ok || payload.Data == nil {
			return
		}
		s.state.Categories = append(s.state.Categories, *payload.Data)
	case OpUpdateCategory:
		s.state.Loading = false
		payload, ok := ev.Payload.(*categoryEnvelope)
		if !ok || payload.Data == nil {
			return
		}
		for i := range s.state.Categories {
			if s.state.Categories[i].ID == payload.Data.ID {
				s.state.Categories[i] = *payload.Data
				break
			}
		}
	case OpDeleteCategory:
		s.state.Loading = false
		payload, ok := ev.Payload.(*deleteResult)
		if !ok {
			return
		}
		kept := s.state.Categories[:0]
		for _, c := range s.state.Categories {
			if c.ID != payload.ID {
				kept = append(kept, c)
			}
		}
		s.state.Categories = kept

	case OpGetAllTags:
		s.state.Loading = false
		payload, ok := ev.Payload.(*tagsEnvelope)
		if !ok || payload.Data == nil {
			return
		}
		s.state.Tags = payload.Data
	case OpGetTagByID:
		payload, ok := ev.Payload.(*tagEnvelope)
		if !ok || payload.Data == nil {
			return
		}
		tg := *payload.Data
		s.state.CurrentTag = &tg
	case OpCreateTag:
		s.state.Loading = false
		payload, ok := ev.Payload.(*tagEnvelope)
		if !ok || payload.Data == nil {
			return
		}
		s.state.Tags = append(s.state.Tags, *payload.Data)
	case OpUpdateTag:
		s.state.Loading = false
		payload, ok := ev.Payload.(*tagEnvelope)
		if !ok || payload.Data == nil {
			return
		}
		for i := range s.state.Tags {
			if s.state.Tags[i].ID == payload.Data.ID {
				s.state.Tags[i] = *payload.Data
				break
			}
		}
	case OpDeleteTag:
		s.state.Loading = false
		payload, ok := ev.Payload.(*deleteResult)
		if !ok {
			return
		}
		kept := s.state.Tags[:0]
		for _, tg := range s.state.Tags {
			if tg.ID != payload.ID {
				kept = append(kept, tg)
			}
		}
		s.state.Tags = kept
	}
}
