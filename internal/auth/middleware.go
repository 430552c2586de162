package auth

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/HanTheDev/complexity-analyzer/internal/respond"
	"github.com/sirupsen/logrus"
)

type contextKey string

const ClaimsContextKey contextKey = "claims"

type Middleware struct {
	jwtSecret string
}

func NewMiddleware(jwtSecret string) *Middleware {
	return &Middleware{jwtSecret: jwtSecret}
}

func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			respond.Detail(w, http.StatusUnauthorized, "Missing authorization header")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			respond.Detail(w, http.StatusUnauthorized, "Invalid authorization header format")
			return
		}

		claims, err := ValidateToken(parts[1], m.jwtSecret)
		if err != nil {
			logrus.Debugf("Rejected admin token: %v", err)
			respond.Detail(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), ClaimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func GetClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(ClaimsContextKey).(*Claims)
	return claims, ok
}

// KeyMatches compares an offered admin key in constant time.
func KeyMatches(offered, expected string) bool {
	if offered == "" || expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(offered), []byte(expected)) == 1
}
