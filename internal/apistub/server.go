// Package apistub はリモートブログAPIのインメモリスタブを提供する。
// 結合テストとローカル動作確認で本物のAPIの代わりに使う。
// 認証はクッキーのセッショントークンで行い、永続化はしない。
package apistub

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hitoshi/penman/internal/model"
)

const sessionCookieName = "token"

// Server はスタブAPIの全状態を保持する。
type Server struct {
	mu sync.Mutex

	users      map[string]*model.User // id → user
	passwords  map[string]string      // email → password
	emails     map[string]string      // email → id
	sessions   map[string]string      // token → user id
	posts      []model.Post
	comments   []model.Comment
	categories []model.Category
	tags       []model.Tag
}

// New はServerの新しいインスタンスを生成する。
func New() *Server {
	return &Server{
		users:     make(map[string]*model.User),
		passwords: make(map[string]string),
		emails:    make(map[string]string),
		sessions:  make(map[string]string),
	}
}

// SeedUser はテスト用のユーザーを登録し、そのIDを返す。
func (s *Server) SeedUser(name, email, password, role string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	s.users[id] = &model.User{
		ID: id, Name: name, Email: email, Role: role,
		Bookmarks: []string{}, CreatedAt: time.Now(),
	}
	s.passwords[email] = password
	s.emails[email] = id
	return id
}

// SeedPost はテスト用の記事を追加し、そのIDを返す。
func (s *Server) SeedPost(p model.Post) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Likes == nil {
		p.Likes = []string{}
	}
	s.posts = append(s.posts, p)
	return p.ID
}

// SeedCategory はテスト用のカテゴリを追加し、そのIDを返す。
func (s *Server) SeedCategory(name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	s.categories = append(s.categories, model.Category{ID: id, Name: name})
	return id
}

// Handler は/api/v1配下のルーティングを構成したchi.Routerを返す。
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Route("/api/v1", func(r chi.Router) {
		// --- 認証不要のルート ---
		r.Post("/user/register", s.register)
		r.Post("/user/login", s.login)
		r.Get("/user/logout", s.logout)
		r.Post("/user/forgot-password", s.messageOnly("Reset email sent"))
		r.Post("/user/reset-password/{token}", s.messageOnly("Password has been reset"))

		r.Get("/post/all", s.listPosts)
		r.Get("/post/getpost/{id}", s.getPost)
		r.Get("/post/related/{id}", s.relatedPosts)
		r.Get("/post/filtersearch", s.searchPosts)
		r.Get("/post/{id}/comment", s.listComments)

		r.Get("/category/all", s.listCategories)
		r.Get("/category/get/{id}", s.getCategory)
		r.Get("/tag/all", s.listTags)
		r.Get("/tag/{id}", s.getTag)

		// --- 認証が必要なルート ---
		r.Group(func(r chi.Router) {
			r.Use(s.requireSession)

			r.Get("/user/me", s.profile)
			r.Post("/user/changepassword", s.changePassword)
			r.Put("/user/update/{id}", s.updateProfile)
			r.Post("/user/bookmark/{postId}", s.bookmarkPost)
			r.Get("/user/getbookmarkpost", s.getBookmarks)

			r.Post("/post/create", s.createPost)
			r.Put("/post/{id}", s.updatePost)
			r.Delete("/post/{id}", s.deletePost)
			r.Post("/post/{id}/like", s.likePost)
			r.Put("/post/{id}/views", s.incrementViews)

			r.Post("/comment/{postId}", s.addComment)

			// 管理者専用
			r.Group(func(r chi.Router) {
				r.Use(s.requireAdmin)

				r.Get("/admin/all", s.allUsers)
				r.Get("/admin/get/{id}", s.userByID)
				r.Delete("/admin/delete/{id}", s.deleteUser)
				r.Get("/admin/allcomment", s.allComments)

				r.Post("/admin/createcategory", s.createCategory)
				r.Put("/admin/updatecategory/{id}", s.updateCategory)
				r.Delete("/admin/deletecategory/{id}", s.deleteCategory)
				r.Post("/admin/createtag", s.createTag)
				r.Put("/admin/updatetag/{id}", s.updateTag)
				r.Delete("/admin/deletetag/{id}", s.deleteTag)
			})
		})
	})

	return r
}

// --- ミドルウェア ---

func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.currentUser(r) == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.currentUser(r).IsAdmin() {
			writeJSON(w, http.StatusForbidden, map[string]string{"message": "Admin access required"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// currentUser はセッションクッキーからログイン中のユーザーを引く。
func (s *Server) currentUser(r *http.Request) *model.User {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.sessions[cookie.Value]
	if !ok {
		return nil
	}
	return s.users[id]
}

// --- 認証 ---

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid form data"})
		return
	}
	email := r.FormValue("email")

	s.mu.Lock()
	if _, exists := s.emails[email]; exists {
		s.mu.Unlock()
		writeJSON(w, http.StatusConflict, map[string]string{"message": "User already exists"})
		return
	}
	id := uuid.NewString()
	user := &model.User{
		ID: id, Name: r.FormValue("name"), Email: email,
		Role: "user", Bookmarks: []string{}, CreatedAt: time.Now(),
	}
	s.users[id] = user
	s.passwords[email] = r.FormValue("password")
	s.emails[email] = id
	s.mu.Unlock()

	s.issueSession(w, id)
	writeJSON(w, http.StatusCreated, map[string]any{"message": "Registered successfully", "user": user})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
		return
	}

	s.mu.Lock()
	id, ok := s.emails[body.Email]
	valid := ok && s.passwords[body.Email] == body.Password
	var user *model.User
	if valid {
		user = s.users[id]
	}
	s.mu.Unlock()

	if !valid {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid credentials"})
		return
	}

	s.issueSession(w, id)
	writeJSON(w, http.StatusOK, map[string]any{"message": "Logged in successfully", "user": user})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		s.mu.Lock()
		delete(s.sessions, cookie.Value)
		s.mu.Unlock()
	}
	http.SetCookie(w, &http.Cookie{
		Name: sessionCookieName, Value: "", Path: "/", MaxAge: -1, HttpOnly: true,
	})
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

func (s *Server) issueSession(w http.ResponseWriter, userID string) {
	token := uuid.NewString()
	s.mu.Lock()
	s.sessions[token] = userID
	s.mu.Unlock()
	http.SetCookie(w, &http.Cookie{
		Name: sessionCookieName, Value: token, Path: "/", HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// --- ユーザー ---

func (s *Server) profile(w http.ResponseWriter, r *http.Request) {
	user := s.currentUser(r)
	writeJSON(w, http.StatusOK, map[string]any{"message": "Profile fetched", "user": user})
}

func (s *Server) changePassword(w http.ResponseWriter, r *http.Request) {
	user := s.currentUser(r)
	var body struct {
		Old string `json:"oldpassword"`
		New string `json:"newpassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.passwords[user.Email] != body.Old {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Old password is incorrect"})
		return
	}
	s.passwords[user.Email] = body.New
	writeJSON(w, http.StatusOK, map[string]string{"message": "Password changed successfully"})
}

func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid form data"})
		return
	}
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "User not found"})
		return
	}
	if name := r.FormValue("fullName"); name != "" {
		user.Name = name
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Profile updated", "user": user})
}

func (s *Server) bookmarkPost(w http.ResponseWriter, r *http.Request) {
	user := s.currentUser(r)
	postID := chi.URLParam(r, "postId")

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findPostLocked(postID) == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Post not found"})
		return
	}

	removed := false
	kept := user.Bookmarks[:0]
	for _, id := range user.Bookmarks {
		if id == postID {
			removed = true
			continue
		}
		kept = append(kept, id)
	}
	user.Bookmarks = kept
	message := "Post removed from bookmarks"
	if !removed {
		user.Bookmarks = append(user.Bookmarks, postID)
		message = "Post bookmarked"
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": message, "bookmarks": s.bookmarkedPostsLocked(user),
	})
}

func (s *Server) getBookmarks(w http.ResponseWriter, r *http.Request) {
	user := s.currentUser(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"bookmarks": s.bookmarkedPostsLocked(user)})
}

func (s *Server) bookmarkedPostsLocked(user *model.User) []model.Post {
	out := []model.Post{}
	for _, id := range user.Bookmarks {
		if p := s.findPostLocked(id); p != nil {
			out = append(out, *p)
		}
	}
	return out
}

// --- 記事 ---

func (s *Server) findPostLocked(id string) *model.Post {
	for i := range s.posts {
		if s.posts[i].ID == id {
			return &s.posts[i]
		}
	}
	return nil
}

func (s *Server) createPost(w http.ResponseWriter, r *http.Request) {
	user := s.currentUser(r)
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid form data"})
		return
	}

	post := model.Post{
		ID:      uuid.NewString(),
		Title:   r.FormValue("title"),
		Content: r.FormValue("content"),
		Author:  *user,
		Likes:   []string{}, CreatedAt: time.Now(),
	}
	if v := r.FormValue("isPublished"); v != "" {
		post.IsPublished, _ = strconv.ParseBool(v)
	}
	for _, name := range splitCSV(r.FormValue("categories")) {
		post.Categories = append(post.Categories, model.Category{ID: name, Name: name})
	}
	for _, name := range splitCSV(r.FormValue("tags")) {
		post.Tags = append(post.Tags, model.Tag{ID: name, Name: name})
	}

	s.mu.Lock()
	s.posts = append(s.posts, post)
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, map[string]any{"message": "Post created successfully", "post": post})
}

func (s *Server) listPosts(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	published := r.URL.Query().Get("published")
	page, limit := pageParams(r)

	s.mu.Lock()
	matched := []model.Post{}
	for _, p := range s.posts {
		if category != "" && !hasCategory(p, category) {
			continue
		}
		if published != "" {
			want, err := strconv.ParseBool(published)
			if err == nil && p.IsPublished != want {
				continue
			}
		}
		matched = append(matched, p)
	}
	s.mu.Unlock()

	// 新しい順
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	pageItems, pg := paginate(matched, page, limit)
	writeJSON(w, http.StatusOK, map[string]any{
		"posts":       pageItems,
		"currentPage": pg.CurrentPage,
		"totalPages":  pg.TotalPages,
		"totalPosts":  pg.TotalPosts,
	})
}

func (s *Server) getPost(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	post := s.findPostLocked(chi.URLParam(r, "id"))
	if post == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Post not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"post": post})
}

func (s *Server) updatePost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid form data"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	post := s.findPostLocked(chi.URLParam(r, "id"))
	if post == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Post not found"})
		return
	}
	if title := r.FormValue("title"); title != "" {
		post.Title = title
	}
	if content := r.FormValue("content"); content != "" {
		post.Content = content
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Post updated successfully", "post": post})
}

func (s *Server) deletePost(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.posts[:0]
	found := false
	for _, p := range s.posts {
		if p.ID == id {
			found = true
			continue
		}
		kept = append(kept, p)
	}
	s.posts = kept
	if !found {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Post not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Post deleted successfully"})
}

func (s *Server) likePost(w http.ResponseWriter, r *http.Request) {
	user := s.currentUser(r)

	s.mu.Lock()
	defer s.mu.Unlock()
	post := s.findPostLocked(chi.URLParam(r, "id"))
	if post == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Post not found"})
		return
	}

	kept := post.Likes[:0]
	removed := false
	for _, id := range post.Likes {
		if id == user.ID {
			removed = true
			continue
		}
		kept = append(kept, id)
	}
	post.Likes = kept
	message := "Post unliked"
	if !removed {
		post.Likes = append(post.Likes, user.ID)
		message = "Post liked"
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": message})
}

func (s *Server) relatedPosts(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()
	base := s.findPostLocked(id)
	related := []model.Post{}
	if base != nil {
		for _, p := range s.posts {
			if p.ID != id && shareCategory(*base, p) {
				related = append(related, p)
			}
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": related})
}

func (s *Server) incrementViews(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	post := s.findPostLocked(chi.URLParam(r, "id"))
	if post == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Post not found"})
		return
	}
	post.Views++
	writeJSON(w, http.StatusOK, map[string]string{"message": "View counted"})
}

func (s *Server) searchPosts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	search := strings.ToLower(query.Get("search"))
	tag := query.Get("tag")
	category := query.Get("category")
	page, limit := pageParams(r)

	s.mu.Lock()
	matched := []model.Post{}
	for _, p := range s.posts {
		if search != "" && !strings.Contains(strings.ToLower(p.Title), search) &&
			!strings.Contains(strings.ToLower(p.Content), search) {
			continue
		}
		if category != "" && !hasCategory(p, category) {
			continue
		}
		if tag != "" && !hasTag(p, tag) {
			continue
		}
		matched = append(matched, p)
	}
	s.mu.Unlock()

	pageItems, pg := paginate(matched, page, limit)
	writeJSON(w, http.StatusOK, map[string]any{"data": pageItems, "pagination": pg})
}

// --- コメント ---

func (s *Server) addComment(w http.ResponseWriter, r *http.Request) {
	user := s.currentUser(r)
	postID := chi.URLParam(r, "postId")
	var body struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Content == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Comment content is required"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	post := s.findPostLocked(postID)
	if post == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Post not found"})
		return
	}

	comment := model.Comment{
		ID: uuid.NewString(), PostID: postID, Author: *user,
		Content: body.Content, CreatedAt: time.Now(),
	}
	s.comments = append(s.comments, comment)
	post.CommentCount++
	writeJSON(w, http.StatusCreated, map[string]any{"message": "Comment added", "comment": comment})
}

func (s *Server) listComments(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Comment{}
	for _, c := range s.comments {
		if c.PostID == postID {
			out = append(out, c)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"comments": out})
}

// --- タクソノミー ---

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"data": append([]model.Category{}, s.categories...)})
}

func (s *Server) getCategory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.categories {
		if c.ID == id {
			writeJSON(w, http.StatusOK, map[string]any{"data": c})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"message": "Category not found"})
}

func (s *Server) createCategory(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Category name is required"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.categories {
		if c.Name == in.Name {
			writeJSON(w, http.StatusConflict, map[string]string{"message": "Category already exists"})
			return
		}
	}
	category := model.Category{ID: uuid.NewString(), Name: in.Name, Description: in.Description}
	s.categories = append(s.categories, category)
	writeJSON(w, http.StatusCreated, map[string]any{"message": "Category created", "data": category})
}

func (s *Server) updateCategory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var in struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.categories {
		if s.categories[i].ID == id {
			if in.Name != "" {
				s.categories[i].Name = in.Name
			}
			s.categories[i].Description = in.Description
			writeJSON(w, http.StatusOK, map[string]any{"message": "Category updated", "data": s.categories[i]})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"message": "Category not found"})
}

func (s *Server) deleteCategory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.categories[:0]
	found := false
	for _, c := range s.categories {
		if c.ID == id {
			found = true
			continue
		}
		kept = append(kept, c)
	}
	s.categories = kept
	if !found {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Category not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Category deleted"})
}

func (s *Server) listTags(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"data": append([]model.Tag{}, s.tags...)})
}

func (s *Server) getTag(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tg := range s.tags {
		if tg.ID == id {
			writeJSON(w, http.StatusOK, map[string]any{"data": tg})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"message": "Tag not found"})
}

func (s *Server) createTag(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Tag name is required"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tg := range s.tags {
		if tg.Name == in.Name {
			writeJSON(w, http.StatusConflict, map[string]string{"message": "Tag already exists"})
			return
		}
	}
	tag := model.Tag{ID: uuid.NewString(), Name: in.Name, Description: in.Description}
	s.tags = append(s.tags, tag)
	writeJSON(w, http.StatusCreated, map[string]any{"message": "Tag created", "data": tag})
}

func (s *Server) updateTag(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var in struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tags {
		if s.tags[i].ID == id {
			if in.Name != "" {
				s.tags[i].Name = in.Name
			}
			s.tags[i].Description = in.Description
			writeJSON(w, http.StatusOK, map[string]any{"message": "Tag updated", "data": s.tags[i]})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"message": "Tag not found"})
}

func (s *Server) deleteTag(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.tags[:0]
	found := false
	for _, tg := range s.tags {
		if tg.ID == id {
			found = true
			continue
		}
		kept = append(kept, tg)
	}
	s.tags = kept
	if !found {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Tag not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Tag deleted"})
}

// --- 管理者 ---

func (s *Server) allUsers(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	users := []model.User{}
	for _, u := range s.users {
		users = append(users, *u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	writeJSON(w, http.StatusOK, map[string]any{"data": users})
}

func (s *Server) userByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "User not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": user})
}

func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "User not found"})
		return
	}
	delete(s.users, id)
	delete(s.emails, user.Email)
	delete(s.passwords, user.Email)
	writeJSON(w, http.StatusOK, map[string]string{"message": "User deleted successfully"})
}

func (s *Server) allComments(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"data": append([]model.Comment{}, s.comments...)})
}

// --- ヘルパー ---

func (s *Server) messageOnly(message string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": message})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func pageParams(r *http.Request) (page, limit int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}
	return page, limit
}

func paginate(posts []model.Post, page, limit int) ([]model.Post, model.Pagination) {
	total := len(posts)
	totalPages := (total + limit - 1) / limit
	if totalPages == 0 {
		totalPages = 1
	}
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}
	return posts[start:end], model.Pagination{
		CurrentPage: page, TotalPages: totalPages, TotalPosts: total,
	}
}

func splitCSV(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := parts[:0]
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func hasCategory(p model.Post, name string) bool {
	for _, c := range p.Categories {
		if c.Name == name || c.ID == name {
			return true
		}
	}
	return false
}

func hasTag(p model.Post, name string) bool {
	for _, tg := range p.Tags {
		if tg.Name == name || tg.ID == name {
			return true
		}
	}
	return false
}

func shareCategory(a, b model.Post) bool {
	for _, c := range a.Categories {
		if hasCategory(b, c.Name) {
			return true
		}
	}
	return false
}
