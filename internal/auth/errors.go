package auth

import "errors"

// Closed error taxonomy. HTTP handlers branch on these sentinels, never on
// message text; the token errors all collapse into a single unauthorized
// response at the boundary and exist for internal diagnostics only.
var (
	ErrValidation         = errors.New("auth: validation failed")
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrUnauthorized       = errors.New("auth: unauthorized")
	ErrInternal           = errors.New("auth: internal error")

	ErrNoKeyConfigured = errors.New("auth: no signing key configured")

	ErrTokenMalformed        = errors.New("auth: token malformed")
	ErrTokenUnknownKey       = errors.New("auth: token signed by unknown key")
	ErrTokenInvalidSignature = errors.New("auth: token signature invalid")
	ErrTokenIssuerMismatch   = errors.New("auth: token issuer mismatch")
	ErrTokenExpired          = errors.New("auth: token expired")
	ErrTokenWrongKind        = errors.New("auth: token kind mismatch")

	// ErrNotFound is returned by stores when a row does not exist.
	ErrNotFound = errors.New("auth: not found")
)
