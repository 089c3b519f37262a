// internal/adapters/in/http/middleware/auth.go
package middleware

import (
	"context"
	"net/http"
	"strings"

	fbauth "firebase.google.com/go/v4/auth"

	usecase "messenger/internal/application/usecase"
	userdom "messenger/internal/domain/user"
)

// FirebaseAuthClient は firebase auth クライアントのエイリアス。
type FirebaseAuthClient = fbauth.Client

// context key は string を使わず、衝突回避のため独自型を使用（SA1029 対策）
type ctxKey struct{ name string }

var ctxKeySession = ctxKey{name: "session"}

// AuthMiddleware verifies Authorization: Bearer <ID_TOKEN>, resolves the
// account record for the token's email, and puts an explicit Session into
// the request context. Every usecase receives that Session; nothing reads
// ambient user state.
type AuthMiddleware struct {
	FirebaseAuth *FirebaseAuthClient
	UserRepo     userdom.Repository
}

func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.FirebaseAuth == nil || m.UserRepo == nil {
			http.Error(w, "auth middleware not initialized", http.StatusServiceUnavailable)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			http.Error(w, "unauthorized: missing bearer token", http.StatusUnauthorized)
			return
		}
		idToken := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if idToken == "" {
			http.Error(w, "unauthorized: empty bearer token", http.StatusUnauthorized)
			return
		}

		token, err := m.FirebaseAuth.VerifyIDToken(r.Context(), idToken)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		email := ""
		if raw, ok := token.Claims["email"]; ok {
			if e, ok2 := raw.(string); ok2 {
				email = strings.TrimSpace(e)
			}
		}
		if email == "" {
			http.Error(w, "invalid email in token", http.StatusUnauthorized)
			return
		}

		sess := usecase.Session{Email: email}
		if u, err := m.UserRepo.Get(r.Context(), userdom.SafeEmail(email)); err == nil {
			sess.Name = u.FullName()
		}

		ctx := context.WithValue(r.Context(), ctxKeySession, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ContextWithSession puts a Session into ctx the same way the middleware
// does. Handler tests use this to skip token verification.
func ContextWithSession(ctx context.Context, sess usecase.Session) context.Context {
	return context.WithValue(ctx, ctxKeySession, sess)
}

// SessionFromContext returns the Session set by AuthMiddleware.
func SessionFromContext(ctx context.Context) (usecase.Session, bool) {
	s, ok := ctx.Value(ctxKeySession).(usecase.Session)
	return s, ok && s.Valid()
}
