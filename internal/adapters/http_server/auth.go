package httpserver

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"kos_service/internal/adapters/observability"
	"kos_service/internal/domain"
)

const InternalTokenHeader = "X-Internal-Token"

// Authenticate resolves the caller's identity before any handler runs.
// First matching branch wins: internal secret, bearer token, anonymous.
// Verification failures stop the request (401 when the token is rejected,
// 500 when the auth service cannot be reached within timeout).
func Authenticate(v domain.TokenVerifier, internalSecret string, timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tok := r.Header.Get(InternalTokenHeader); tok != "" {
				if internalSecret == "" || subtle.ConstantTimeCompare([]byte(tok), []byte(internalSecret)) != 1 {
					observability.ObserveAuth("internal_rejected")
					log.Warn().Str("path", r.URL.Path).Msg("invalid internal token")
					writeJSON(w, http.StatusUnauthorized, "Authentication Failed: Invalid internal token.", nil)
					return
				}
				observability.ObserveAuth("internal")
				p := domain.Principal{ID: domain.InternalPrincipalID, Capabilities: []domain.Capability{domain.CapabilityInternal}}
				next.ServeHTTP(w, r.WithContext(domain.WithPrincipal(r.Context(), p)))
				return
			}

			authz := r.Header.Get("Authorization")
			if !strings.HasPrefix(authz, "Bearer ") {
				observability.ObserveAuth("anonymous")
				next.ServeHTTP(w, r)
				return
			}

			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			p, err := v.Verify(ctx, strings.TrimPrefix(authz, "Bearer "))
			cancel()
			switch {
			case err == nil:
				observability.ObserveAuth("verified")
				log.Debug().Str("user_id", p.ID).Str("path", r.URL.Path).Msg("token verified")
				next.ServeHTTP(w, r.WithContext(domain.WithPrincipal(r.Context(), p)))
			case errors.Is(err, domain.ErrUpstreamUnavailable):
				observability.ObserveAuth("unavailable")
				writeJSON(w, http.StatusInternalServerError, "Authentication Failed: Could not connect to authentication service.", nil)
			default:
				observability.ObserveAuth("rejected")
				writeJSON(w, http.StatusUnauthorized, "Authentication Failed: Token verification unsuccessful", nil)
			}
		})
	}
}

// RequireCapability guards a route: anonymous callers get 401, callers lacking c get 403.
func RequireCapability(c domain.Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := domain.PrincipalFrom(r.Context())
			if !ok {
				writeJSON(w, http.StatusUnauthorized, "Authentication required", nil)
				return
			}
			if !p.Has(c) {
				writeJSON(w, http.StatusForbidden, "Access denied", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// userID returns the caller's account id, which must be a UUID.
func userID(r *http.Request) (string, error) {
	p, ok := domain.PrincipalFrom(r.Context())
	if !ok {
		return "", domain.ErrUnauthenticated
	}
	id, err := uuid.Parse(p.ID)
	if err != nil {
		return "", errInvalidIdentity
	}
	return id.String(), nil
}

var errInvalidIdentity = errors.New("invalid user identifier")
