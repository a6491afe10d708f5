package identity

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/corray333/backend-labs/checkout/internal/dal/interfaces/iprofilerepo"
	"github.com/corray333/backend-labs/checkout/internal/service/models/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProfiles struct {
	profiles map[string]identity.Profile
	err      error
}

func (f *fakeProfiles) Get(_ context.Context, uid string) (identity.Profile, error) {
	if f.err != nil {
		return identity.Profile{}, f.err
	}
	p, ok := f.profiles[uid]
	if !ok {
		return identity.Profile{}, iprofilerepo.ErrProfileNotFound
	}

	return p, nil
}

func chain(profiles profileLoader, seen *identity.Profile) http.Handler {
	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, _ := Profile(r.Context())
		*seen = p
		w.WriteHeader(http.StatusNoContent)
	})

	return NewIdentityMiddleware(NewProfileMiddleware(profiles)(final))
}

func TestIdentityMiddleware(t *testing.T) {
	profiles := &fakeProfiles{profiles: map[string]identity.Profile{
		"u1": {UID: "u1", Email: "a@example.com"},
	}}

	tests := []struct {
		name   string
		header string
		err    error
		want   int
	}{
		{name: "missing header", header: "", want: http.StatusUnauthorized},
		{name: "unknown user", header: "u2", want: http.StatusUnauthorized},
		{name: "profile store down", header: "u1", err: errors.New("timeout"), want: http.StatusInternalServerError},
		{name: "known user", header: "u1", want: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profiles.err = tt.err
			var seen identity.Profile

			req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
			if tt.header != "" {
				req.Header.Set(Header, tt.header)
			}
			rec := httptest.NewRecorder()
			chain(profiles, &seen).ServeHTTP(rec, req)

			require.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusNoContent {
				assert.Equal(t, "a@example.com", seen.Email, "profile not propagated")
			}
		})
	}
}
