package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// contextKey is a private type so no other package can collide with the
// values this middleware stores in the request context.
type contextKey string

const userIDKey contextKey = "userID"

// Claims is the JWT payload issued by the auth service. The engine only
// cares about UserID; everything else rides along in RegisteredClaims.
type Claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// NewAuthenticator returns a middleware that requires a valid Bearer token
// signed with secret. The token's userId claim is parsed as a UUID and
// stored in the request context; retrieve it with UserID. Requests without
// a valid token are rejected with 401.
func NewAuthenticator(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := actorFromHeader(r, secret)
			if !ok {
				http.Error(w, "missing or invalid token", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, id)))
		})
	}
}

// NewOptionalAuth returns a middleware that parses a Bearer token when one
// is present but lets anonymous requests through. Used on read routes where
// trip privacy, not authentication, decides visibility.
func NewOptionalAuth(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if id, ok := actorFromHeader(r, secret); ok {
				r = r.WithContext(context.WithValue(r.Context(), userIDKey, id))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UserID returns the acting user's ID stored by the auth middleware.
// The second return is false for anonymous requests.
func UserID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(userIDKey).(uuid.UUID)
	return id, ok
}

// actorFromHeader validates the Authorization header and extracts the user ID.
func actorFromHeader(r *http.Request, secret []byte) (uuid.UUID, bool) {
	header := r.Header.Get("Authorization")
	tokenString, found := strings.CutPrefix(header, "Bearer ")
	if !found || tokenString == "" {
		return uuid.Nil, false
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
		return secret, nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, false
	}

	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
