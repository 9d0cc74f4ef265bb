package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/penman/internal/api"
)

func newServiceAgainst(t *testing.T, handler http.Handler) *Service {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := api.New(api.Options{BaseURL: srv.URL, Prefix: "/api/v1"})
	if err != nil {
		t.Fatalf("api.New returned error: %v", err)
	}
	return NewService(client, NewStore(nil), nil)
}

// TestLogin_FailureLeavesUnauthenticated はログイン失敗で認証フラグが
// 立たず、サーバーのmessageが理由になることを検証する。
func TestLogin_FailureLeavesUnauthenticated(t *testing.T) {
	svc := newServiceAgainst(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"message": "Invalid credentials"})
	}))

	if err := svc.Login(context.Background(), "alice@example.com", "wrong"); err == nil {
		t.Fatal("Login should surface the server failure")
	}

	st := svc.Store().State()
	if st.IsAuthenticated || st.User != nil {
		t.Error("failed login must not authenticate the session")
	}
	if st.Err != "Invalid credentials" {
		t.Errorf("err = %q, want the server message verbatim", st.Err)
	}
	if st.Loading {
		t.Error("loading should settle to false")
	}
}

// TestChangePassword_SendsExpectedBody はパスワード変更のJSONボディの
// キー名を検証する。
func TestChangePassword_SendsExpectedBody(t *testing.T) {
	svc := newServiceAgainst(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/user/changepassword" {
			t.Errorf("path = %q", r.URL.Path)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("body decode: %v", err)
		}
		if body["oldpassword"] != "old" || body["newpassword"] != "new" {
			t.Errorf("body = %v, want oldpassword/newpassword keys", body)
		}
		json.NewEncoder(w).Encode(map[string]string{"message": "Password changed successfully"})
	}))

	if err := svc.ChangePassword(context.Background(), "old", "new"); err != nil {
		t.Fatalf("ChangePassword returned error: %v", err)
	}
}

// TestRegister_SendsMultipart は新規登録がmultipartで送信され、
// エコーされた識別情報で認証されることを検証する。
func TestRegister_SendsMultipart(t *testing.T) {
	svc := newServiceAgainst(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("register should be multipart: %v", err)
		}
		if r.FormValue("email") != "alice@example.com" {
			t.Errorf("email = %q", r.FormValue("email"))
		}
		json.NewEncoder(w).Encode(map[string]any{
			"message": "Registered successfully",
			"user":    map[string]any{"_id": "1", "name": r.FormValue("name"), "role": "user"},
		})
	}))

	err := svc.Register(context.Background(), RegisterInput{
		Name: "Alice", Email: "alice@example.com", Password: "secret",
	})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	st := svc.Store().State()
	if !st.IsAuthenticated || st.User == nil || st.User.Name != "Alice" {
		t.Errorf("state = %+v, want authenticated with echoed identity", st)
	}
	if st.Role != "user" {
		t.Errorf("role = %q, want mirrored from identity", st.Role)
	}
}
