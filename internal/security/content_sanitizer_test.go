package security

import (
	"strings"
	"testing"
)

// TestSanitize_RemovesScript はscriptタグが除去されることを検証する。
func TestSanitize_RemovesScript(t *testing.T) {
	s := NewContentSanitizer()

	got := s.Sanitize(`<p>hello</p><script>alert("xss")</script>`)

	if strings.Contains(got, "script") || strings.Contains(got, "alert") {
		t.Errorf("script content should be removed, got: %q", got)
	}
	if !strings.Contains(got, "<p>hello</p>") {
		t.Errorf("allowed tags should survive, got: %q", got)
	}
}

// TestSanitize_RemovesEventHandlers はon*イベント属性が除去されることを検証する。
func TestSanitize_RemovesEventHandlers(t *testing.T) {
	s := NewContentSanitizer()

	got := s.Sanitize(`<p onclick="steal()">text</p>`)

	if strings.Contains(got, "onclick") {
		t.Errorf("event handler attributes should be removed, got: %q", got)
	}
}

// TestSanitize_AllowsHeadings は記事本文の見出しタグが通過することを検証する。
func TestSanitize_AllowsHeadings(t *testing.T) {
	s := NewContentSanitizer()

	got := s.Sanitize(`<h2>見出し</h2><blockquote>引用</blockquote><pre><code>x := 1</code></pre>`)

	for _, want := range []string{"<h2>", "<blockquote>", "<pre>", "<code>"} {
		if !strings.Contains(got, want) {
			t.Errorf("%s should survive sanitization, got: %q", want, got)
		}
	}
}

// TestSanitize_ImageSchemePolicy はimgのsrcがhttpsのみ許可されることを検証する。
func TestSanitize_ImageSchemePolicy(t *testing.T) {
	s := NewContentSanitizer()

	tests := []struct {
		name  string
		input string
		kept  bool
	}{
		{"https src kept", `<img src="https://example.com/a.png" alt="a">`, true},
		{"http src dropped", `<img src="http://example.com/a.png">`, false},
		{"javascript src dropped", `<img src="javascript:alert(1)">`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Sanitize(tt.input)
			if tt.kept && !strings.Contains(got, "src=") {
				t.Errorf("src should be kept, got: %q", got)
			}
			if !tt.kept && strings.Contains(got, "src=") {
				t.Errorf("src should be dropped, got: %q", got)
			}
		})
	}
}

// TestSanitize_LinkHardening はリンクにtarget=_blankとrel属性が付与されることを検証する。
func TestSanitize_LinkHardening(t *testing.T) {
	s := NewContentSanitizer()

	got := s.Sanitize(`<a href="https://example.com">link</a>`)

	if !strings.Contains(got, `target="_blank"`) {
		t.Errorf("target=_blank should be added, got: %q", got)
	}
	if !strings.Contains(got, "noopener") || !strings.Contains(got, "noreferrer") {
		t.Errorf("rel=noopener noreferrer should be added, got: %q", got)
	}
}

// TestSanitize_Idempotent は同一入力に対して常に同一出力を返すことを検証する。
func TestSanitize_Idempotent(t *testing.T) {
	s := NewContentSanitizer()

	input := `<h1>T</h1><p>body <strong>bold</strong></p>`
	once := s.Sanitize(input)
	twice := s.Sanitize(once)

	if once != twice {
		t.Errorf("sanitize should be idempotent: %q != %q", once, twice)
	}
}

// TestSanitize_Empty は空文字列が空文字列のまま返ることを検証する。
func TestSanitize_Empty(t *testing.T) {
	s := NewContentSanitizer()

	if got := s.Sanitize(""); got != "" {
		t.Errorf("empty input should return empty, got: %q", got)
	}
}
