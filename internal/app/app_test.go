package app

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hitoshi/penman/internal/action"
	"github.com/hitoshi/penman/internal/apistub"
	"github.com/hitoshi/penman/internal/config"
	"github.com/hitoshi/penman/internal/post"
)

func newAppAgainstStub(t *testing.T, stub *apistub.Server) *App {
	t.Helper()
	srv := httptest.NewServer(stub.Handler())
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		APIBaseURL:      srv.URL,
		APIPrefix:       "/api/v1",
		RequestTimeout:  5 * time.Second,
		StateFilePath:   filepath.Join(t.TempDir(), "session.json"),
		AllowPrivateAPI: true,
	}
	a, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return a
}

// TestLifecycle_LoginPostBookmarkLogout はログインから投稿・ブックマーク・
// ログアウトまでの一連の流れを結合レベルで検証する。
func TestLifecycle_LoginPostBookmarkLogout(t *testing.T) {
	ctx := context.Background()
	stub := apistub.New()
	stub.SeedUser("Alice", "alice@example.com", "secret", "user")
	a := newAppAgainstStub(t, stub)

	if err := a.Session.Login(ctx, "alice@example.com", "secret"); err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if st := a.Session.Store().State(); !st.IsAuthenticated || st.User == nil {
		t.Fatal("session should be authenticated after login")
	}

	// スナップショットが同期的に書かれていること
	if _, err := os.Stat(a.Config.StateFilePath); err != nil {
		t.Fatalf("snapshot should exist after login: %v", err)
	}

	published := true
	err := a.Posts.Create(ctx, post.CreateInput{
		Title: "First", Content: "<p>hello</p>", IsPublished: &published,
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if err := a.Posts.GetAll(ctx, post.ListOptions{}); err != nil {
		t.Fatalf("GetAll returned error: %v", err)
	}
	posts := a.Posts.Store().State().Posts
	if len(posts) != 1 || posts[0].Title != "First" {
		t.Fatalf("posts = %+v, want the created post", posts)
	}

	if err := a.Session.BookmarkPost(ctx, posts[0].ID); err != nil {
		t.Fatalf("BookmarkPost returned error: %v", err)
	}
	if err := a.Session.GetBookmarks(ctx); err != nil {
		t.Fatalf("GetBookmarks returned error: %v", err)
	}
	if bm := a.Session.Store().State().Bookmarks; len(bm) != 1 || bm[0].ID != posts[0].ID {
		t.Fatalf("bookmarks = %+v, want the bookmarked post", bm)
	}

	if err := a.Session.Logout(ctx); err != nil {
		t.Fatalf("Logout returned error: %v", err)
	}
	st := a.Session.Store().State()
	if st.IsAuthenticated || st.User != nil || len(st.Bookmarks) != 0 {
		t.Errorf("state after logout = %+v, want everything cleared", st)
	}
	if _, err := os.Stat(a.Config.StateFilePath); !os.IsNotExist(err) {
		t.Error("snapshot should be removed on logout")
	}
}

// TestStart_HydratesAndReconciles は再起動後のStartがスナップショットから
// 復元し、サーバーとの突き合わせで識別情報を上書きすることを検証する。
func TestStart_HydratesAndReconciles(t *testing.T) {
	ctx := context.Background()
	stub := apistub.New()
	stub.SeedUser("Alice", "alice@example.com", "secret", "user")
	a := newAppAgainstStub(t, stub)

	if err := a.Session.Login(ctx, "alice@example.com", "secret"); err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	// 同じスナップショットを共有する「再起動後」のApp。
	// クッキーは失われているため突き合わせは失敗し、静かに扱われる。
	cfg2 := *a.Config
	restarted, err := New(&cfg2, nil)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	restarted.Start(ctx)

	st := restarted.Session.Store().State()
	if !st.IsAuthenticated || st.User == nil || st.User.Name != "Alice" {
		t.Errorf("state after hydrate = %+v, want restored identity", st)
	}
	if st.Err != "" {
		t.Errorf("err = %q, reconcile failure must stay silent", st.Err)
	}
}

// TestLifecycle_AdminDeniedForRegularUser は一般ユーザーの管理者操作が
// サーバーのmessageで拒否されることを検証する。
func TestLifecycle_AdminDeniedForRegularUser(t *testing.T) {
	ctx := context.Background()
	stub := apistub.New()
	stub.SeedUser("Bob", "bob@example.com", "secret", "user")
	a := newAppAgainstStub(t, stub)

	if err := a.Session.Login(ctx, "bob@example.com", "secret"); err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	if err := a.Admin.GetAllUsers(ctx); err == nil {
		t.Fatal("admin fetch should fail for a regular user")
	}
	if got := a.Admin.Store().State().Err; got != "Admin access required" {
		t.Errorf("err = %q, want the server message verbatim", got)
	}
}

// TestNotifier_ReplacesPendingInPlace はpending通知が決着で同じ位置に
// 置き換えられ、積み上がらないことを検証する。
func TestNotifier_ReplacesPendingInPlace(t *testing.T) {
	ctx := context.Background()
	stub := apistub.New()
	stub.SeedUser("Alice", "alice@example.com", "secret", "user")
	a := newAppAgainstStub(t, stub)

	if err := a.Session.Login(ctx, "alice@example.com", "secret"); err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	msgs := a.Notifier.Messages()
	if len(msgs) != 1 {
		t.Fatalf("messages = %d, want exactly one per lifecycle", len(msgs))
	}
	if msgs[0].Phase != action.PhaseSuccess {
		t.Errorf("phase = %v, want the settlement to replace pending", msgs[0].Phase)
	}
}
