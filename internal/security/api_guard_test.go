package security

import (
	"testing"
	"time"
)

// TestValidateBaseURL_AllowsPublic は公開アドレスが許可されることを検証する。
func TestValidateBaseURL_AllowsPublic(t *testing.T) {
	g := NewAPIGuard()

	valid := []string{
		"https://blog.example.com",
		"http://api.example.org/api/v1",
		"https://8.8.8.8",
	}
	for _, u := range valid {
		if err := g.ValidateBaseURL(u); err != nil {
			t.Errorf("ValidateBaseURL(%q) = %v, want nil", u, err)
		}
	}
}

// TestValidateBaseURL_BlocksPrivate はプライベート・危険アドレスが拒否されることを検証する。
func TestValidateBaseURL_BlocksPrivate(t *testing.T) {
	g := NewAPIGuard()

	blocked := []string{
		"",
		"ftp://example.com",
		"http://10.0.0.5",
		"http://192.168.1.1:8080",
		"http://127.0.0.1",
		"http://169.254.169.254/latest/meta-data",
		"http://localhost:8000",
		"http://[::1]",
	}
	for _, u := range blocked {
		if err := g.ValidateBaseURL(u); err == nil {
			t.Errorf("ValidateBaseURL(%q) = nil, want error", u)
		}
	}
}

// TestNewSafeClient はsafeurlベースのクライアントが生成されることを検証する。
func TestNewSafeClient(t *testing.T) {
	g := NewAPIGuard()

	client := g.NewSafeClient(5 * time.Second)
	if client == nil {
		t.Fatal("NewSafeClient returned nil")
	}
}
