// Package identity reads the signed-in shopper from requests forwarded by the auth gateway.
package identity

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/corray333/backend-labs/checkout/internal/dal/interfaces/iprofilerepo"
	"github.com/corray333/backend-labs/checkout/internal/service/models/identity"
	"github.com/corray333/backend-labs/checkout/pkg/apperr"
	"github.com/corray333/backend-labs/checkout/pkg/http/response"
)

// Header carries the uid of the signed-in user.
const Header = "X-User-ID"

const msgSignIn = "Please sign in to continue."

type (
	userIDKey  struct{}
	profileKey struct{}
)

type profileLoader interface {
	Get(ctx context.Context, uid string) (identity.Profile, error)
}

// NewIdentityMiddleware rejects requests without a user id and stores it in the context.
func NewIdentityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid := strings.TrimSpace(r.Header.Get(Header))
		if uid == "" {
			response.Error(w, apperr.New(apperr.Unauthorized, msgSignIn, nil))

			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey{}, uid)))
	})
}

// NewProfileMiddleware loads the profile of the user and stores it in the context.
// It must run after NewIdentityMiddleware.
func NewProfileMiddleware(profiles profileLoader) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			uid := UserID(r.Context())
			if uid == "" {
				response.Error(w, apperr.New(apperr.Unauthorized, msgSignIn, nil))

				return
			}

			p, err := profiles.Get(r.Context(), uid)
			if errors.Is(err, iprofilerepo.ErrProfileNotFound) {
				response.Error(w, apperr.New(apperr.Unauthorized, msgSignIn, err))

				return
			}
			if err != nil {
				slog.Error("Error loading profile", "user_id", uid, "error", err)
				response.Error(w, apperr.Wrap(err))

				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), profileKey{}, p)))
		})
	}
}

// UserID returns the user id stored by NewIdentityMiddleware.
func UserID(ctx context.Context) string {
	uid, _ := ctx.Value(userIDKey{}).(string)

	return uid
}

// Profile returns the profile stored by NewProfileMiddleware.
func Profile(ctx context.Context) (identity.Profile, bool) {
	p, ok := ctx.Value(profileKey{}).(identity.Profile)

	return p, ok
}

// WithUserID returns a copy of ctx carrying uid.
func WithUserID(ctx context.Context, uid string) context.Context {
	return context.WithValue(ctx, userIDKey{}, uid)
}

// WithProfile returns a copy of ctx carrying p.
func WithProfile(ctx context.Context, p identity.Profile) context.Context {
	return context.WithValue(ctx, profileKey{}, p)
}
