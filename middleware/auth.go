package middleware

import (
	"context"
	"net/http"
	"notes-api/models"

	"github.com/rs/zerolog"
)

// AuthHeader carries the auth token on requests and responses.
const AuthHeader = "x-auth"

type ctxKey string

const (
	userKey  ctxKey = "user"
	tokenKey ctxKey = "token"
)

type TokenResolver interface {
	FindByToken(ctx context.Context, token string) (*models.User, error)
}

// Authenticate resolves the x-auth header to a user. Requests that do not
// resolve are answered with 401 and never reach next.
func Authenticate(resolver TokenResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get(AuthHeader)
			user, err := resolver.FindByToken(r.Context(), token)
			if err != nil {
				zerolog.Ctx(r.Context()).Debug().Err(err).Msg("authentication failed")
				w.WriteHeader(http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user, token)))
		})
	}
}

func UserFromContext(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(userKey).(*models.User)
	return u, ok
}

func TokenFromContext(ctx context.Context) (string, bool) {
	t, ok := ctx.Value(tokenKey).(string)
	return t, ok
}

// WithUser returns a copy of ctx carrying an authenticated user and token.
func WithUser(ctx context.Context, u *models.User, token string) context.Context {
	ctx = context.WithValue(ctx, userKey, u)
	return context.WithValue(ctx, tokenKey, token)
}
