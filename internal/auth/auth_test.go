package auth

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
)

func TestLoadOrGenerateTokenPersists(t *testing.T) {
	t.Setenv(TokenEnv, "")
	dir := t.TempDir()

	first, err := LoadOrGenerateToken(dir)
	if err != nil {
		t.Fatalf("LoadOrGenerateToken: %v", err)
	}
	if first == "" {
		t.Fatal("empty token")
	}
	info, err := os.Stat(TokenPath(dir))
	if err != nil {
		t.Fatalf("token file: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("token file mode = %o, want 600", perm)
	}

	second, err := LoadOrGenerateToken(dir)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if second != first {
		t.Errorf("token changed across loads: %q != %q", second, first)
	}
}

func TestLoadOrGenerateTokenFromEnv(t *testing.T) {
	t.Setenv(TokenEnv, " preset ")
	dir := t.TempDir()

	token, err := LoadOrGenerateToken(dir)
	if err != nil {
		t.Fatalf("LoadOrGenerateToken: %v", err)
	}
	if token != "preset" {
		t.Errorf("token = %q, want preset", token)
	}
	if _, err := os.Stat(TokenPath(dir)); !os.IsNotExist(err) {
		t.Errorf("env token should not be written to disk, stat err = %v", err)
	}
}

func TestValid(t *testing.T) {
	if !Valid("abc", "abc") || !Valid("abc", " abc\n") {
		t.Error("matching token rejected")
	}
	if Valid("abc", "abd") || Valid("", "") {
		t.Error("bad token accepted")
	}
}

func TestRequire(t *testing.T) {
	h := Require("secret", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	cases := []struct {
		name   string
		target string
		header string
		want   int
	}{
		{"missing", "/", "", http.StatusUnauthorized},
		{"wrong bearer", "/", "Bearer nope", http.StatusUnauthorized},
		{"bearer", "/", "Bearer secret", http.StatusNoContent},
		{"query", "/?token=secret", "", http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, tc.target, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}
