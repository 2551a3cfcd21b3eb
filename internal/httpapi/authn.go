package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"shopcore.dev/internal/auth"
	"shopcore.dev/internal/obs"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

// Paths reachable without a bearer token. Login and key publication are
// unauthenticated by design.
var publicPaths = []string{
	"/v1/auth/login",
	"/v1/auth/refresh",
	"/.well-known/jwks.json",
	"/metrics",
	"/healthz",
	"/readyz",
	"/v1/info",
	"/",
}

// withAuth verifies the access token on protected paths and attaches the
// claims to the request context. Verification is stateless; no store call.
func (a *API) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions || isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		token, err := extractBearerToken(r.Header.Get(authHeader))
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, err.Error())
			return
		}

		claims, err := a.svc.Tokens().Verify(token, auth.KindAccess)
		if err != nil {
			obs.ObserveTokenVerification(verifyResult(err))
			writeError(w, r, http.StatusUnauthorized, "unauthorized")
			return
		}
		obs.ObserveTokenVerification("ok")

		ctx := auth.ContextWithClaims(r.Context(), claims)
		ctx = auth.ContextWithToken(ctx, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}

func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	return false
}

// verifyResult tags a failed verification for metrics without leaking the
// distinction to the client.
func verifyResult(err error) string {
	switch {
	case errors.Is(err, auth.ErrTokenExpired):
		return "expired"
	case errors.Is(err, auth.ErrTokenWrongKind):
		return "wrong_kind"
	case errors.Is(err, auth.ErrTokenUnknownKey):
		return "unknown_key"
	case errors.Is(err, auth.ErrTokenInvalidSignature):
		return "bad_signature"
	case errors.Is(err, auth.ErrTokenIssuerMismatch):
		return "issuer_mismatch"
	default:
		return "malformed"
	}
}
