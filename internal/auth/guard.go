package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Shivanand-hulikatti/eventpulse/internal/model"
)

// Verifier validates a raw credential.
type Verifier interface {
	Verify(token string) (model.Identity, error)
}

type identityContextKey struct{}

// WithIdentity stores an authenticated identity in context.
func WithIdentity(ctx context.Context, id model.Identity) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext returns the identity attached by Guard.
func IdentityFromContext(ctx context.Context) (model.Identity, bool) {
	if ctx == nil {
		return model.Identity{}, false
	}
	id, ok := ctx.Value(identityContextKey{}).(model.Identity)
	return id, ok
}

// Guard rejects requests without a valid credential cookie with 401 and
// otherwise attaches the verified identity to the request context.
func Guard(v Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ck, err := r.Cookie(CookieName)
			if errors.Is(err, http.ErrNoCookie) || (err == nil && ck.Value == "") {
				unauthorized(w, "authentication required")
				return
			}
			if err != nil {
				unauthorized(w, "access denied")
				return
			}
			id, err := v.Verify(ck.Value)
			if err != nil {
				unauthorized(w, "access denied")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(model.ErrorResponse{Error: msg})
}
