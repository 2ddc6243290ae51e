// Package auth guards the HTTP MCP endpoint with a shared bearer token.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// TokenEnv pre-sets the token, e.g. in containers.
const TokenEnv = "GH_MCP_TOKEN"

// LoadOrGenerateToken returns the HTTP token using this priority:
//  1. GH_MCP_TOKEN environment variable
//  2. Existing token file in dataDir
//  3. Newly generated token, written to dataDir with permissions 0600
func LoadOrGenerateToken(dataDir string) (string, error) {
	if envToken := strings.TrimSpace(os.Getenv(TokenEnv)); envToken != "" {
		return envToken, nil
	}

	path := TokenPath(dataDir)
	if data, err := os.ReadFile(path); err == nil {
		if token := strings.TrimSpace(string(data)); token != "" {
			return token, nil
		}
	}

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return "", fmt.Errorf("creating data dir: %w", err)
	}
	token := rand.Text()
	if err := os.WriteFile(path, []byte(token), 0o600); err != nil {
		return "", fmt.Errorf("writing token to %s: %w", path, err)
	}
	return token, nil
}

// TokenPath is where the generated token is kept.
func TokenPath(dataDir string) string {
	return filepath.Join(dataDir, "http_token")
}

// Valid compares candidate against token in constant time.
func Valid(token, candidate string) bool {
	candidate = strings.TrimSpace(candidate)
	return token != "" && subtle.ConstantTimeCompare([]byte(token), []byte(candidate)) == 1
}

// Require rejects requests that do not carry token, either as an
// "Authorization: Bearer" header or a token query parameter.
func Require(token string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		candidate := r.URL.Query().Get("token")
		if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
			candidate = strings.TrimPrefix(h, "Bearer ")
		}
		if !Valid(token, candidate) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
