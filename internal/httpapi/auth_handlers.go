package httpapi

import (
	"errors"
	"net/http"
	"time"

	"shopcore.dev/internal/audit"
	"shopcore.dev/internal/auth"
	"shopcore.dev/internal/obs"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type userSummary struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

type tokenResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	ExpiresAt    time.Time   `json:"expires_at"`
	User         userSummary `json:"user"`
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	result, err := a.svc.Login(r.Context(), req.Email, req.Password, clientIP(r))
	if err != nil {
		obs.ObserveLogin(loginOutcome(err))
		_ = audit.LogEvent(r.Context(), a.log, "auth.login.failure", map[string]string{
			"remote_addr": clientIP(r),
		})
		writeAuthError(w, r, err)
		return
	}

	obs.ObserveLogin("success")
	_ = audit.LogEvent(r.Context(), a.log, "auth.login.success", map[string]string{
		"user_id":     result.User.ID,
		"remote_addr": clientIP(r),
	})
	writeJSON(w, http.StatusOK, tokenResponseFrom(result))
}

func (a *API) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req refreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.RefreshToken == "" {
		writeError(w, r, http.StatusBadRequest, "refresh_token is required")
		return
	}

	result, err := a.svc.Refresh(r.Context(), req.RefreshToken, clientIP(r))
	if err != nil {
		writeAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponseFrom(result))
}

// handleJWKS publishes public material for every retained signing key so
// holders of tokens signed by a retired key can still verify them offline.
// No authentication required.
func (a *API) handleJWKS(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	writeJSON(w, http.StatusOK, a.svc.Keys().PublicKeySet())
}

func (a *API) handleRotateKeys(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok || !auth.HasScope(claims.Scopes, auth.ScopeAdmin) {
		writeError(w, r, http.StatusForbidden, "forbidden")
		return
	}

	key, err := a.svc.RotateKey(r.Context(), claims.Subject, clientIP(r))
	if err != nil {
		writeAuthError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), a.log, "auth.key.rotate", map[string]string{
		"kid": key.Kid,
	})
	writeJSON(w, http.StatusOK, map[string]any{"kid": key.Kid, "alg": key.Algorithm})
}

func tokenResponseFrom(result *auth.LoginResult) tokenResponse {
	return tokenResponse{
		AccessToken:  result.Tokens.AccessToken,
		RefreshToken: result.Tokens.RefreshToken,
		ExpiresAt:    result.Tokens.AccessExpiresAt,
		User: userSummary{
			ID:          result.User.ID,
			Email:       result.User.Email,
			DisplayName: result.User.DisplayName,
			Role:        string(result.User.Role),
		},
	}
}

func loginOutcome(err error) string {
	switch {
	case errors.Is(err, auth.ErrValidation):
		return "validation"
	case errors.Is(err, auth.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, auth.ErrUnauthorized):
		return "inactive"
	default:
		return "internal"
	}
}
