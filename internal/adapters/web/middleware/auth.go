package middleware

import (
	"crypto/sha256"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/MrOplus/NetGuard/internal/adapters/web/handlers"
)

// TokenAuth guards the API with a single shared token. Only the bcrypt hash
// is kept in memory; tokens that already passed are remembered by digest so
// the 1 Hz dashboard polling does not pay the bcrypt cost every request.
type TokenAuth struct {
	hash []byte

	mu       sync.RWMutex
	accepted map[[sha256.Size]byte]struct{}
}

// NewTokenAuth hashes token. An empty token disables authentication.
func NewTokenAuth(token string) (*TokenAuth, error) {
	if token == "" {
		return &TokenAuth{}, nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return &TokenAuth{hash: hash, accepted: make(map[[sha256.Size]byte]struct{})}, nil
}

// Enabled reports whether a token is required.
func (a *TokenAuth) Enabled() bool {
	return a != nil && len(a.hash) > 0
}

// Check validates a presented token.
func (a *TokenAuth) Check(token string) bool {
	if !a.Enabled() {
		return true
	}
	if token == "" {
		return false
	}
	digest := sha256.Sum256([]byte(token))

	a.mu.RLock()
	_, ok := a.accepted[digest]
	a.mu.RUnlock()
	if ok {
		return true
	}

	if bcrypt.CompareHashAndPassword(a.hash, []byte(token)) != nil {
		return false
	}
	a.mu.Lock()
	a.accepted[digest] = struct{}{}
	a.mu.Unlock()
	return true
}

// tokenFrom reads the Bearer header, falling back to ?token= for websocket
// clients that cannot set headers.
func tokenFrom(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

// AuthMiddleware rejects requests without a valid token.
func AuthMiddleware(auth *TokenAuth) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !auth.Check(tokenFrom(r)) {
				handlers.WriteStatus(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
