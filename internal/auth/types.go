package auth

import "time"

// User is an account owned by a merchant. Email is unique within the
// merchant. PasswordHash is empty for externally-authenticated accounts,
// which cannot log in with a password.
type User struct {
	ID           string    `json:"id"`
	MerchantID   string    `json:"merchant_id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	DisplayName  string    `json:"display_name"`
	Role         Role      `json:"role"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Session records one successful login. The id equals the refresh token's
// jti so a token can be correlated back to a revocable row. Sessions are
// written, never consulted during verification.
type Session struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	RemoteAddr string    `json:"remote_addr"`
	ExpiresAt  time.Time `json:"expires_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// AuditEntry is an append-only record of a security event. ActorUserID is
// empty when the acting identity is unknown (failed logins).
type AuditEntry struct {
	ID          string            `json:"id"`
	Action      string            `json:"action"`
	ActorUserID string            `json:"actor_user_id,omitempty"`
	RemoteAddr  string            `json:"remote_addr"`
	OccurredAt  time.Time         `json:"occurred_at"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// TokenKind distinguishes access tokens from refresh tokens.
type TokenKind string

const (
	KindAccess  TokenKind = "access"
	KindRefresh TokenKind = "refresh"
)

// TokenPair carries the tokens minted for one login. RefreshID is the
// refresh token's jti, also used as the session id.
type TokenPair struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
	RefreshID        string    `json:"-"`
}
