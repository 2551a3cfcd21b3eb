package auth

import "context"

// Store describes the persistence required by the auth core.
type Store interface {
	Users(ctx context.Context) UserStore
	Sessions(ctx context.Context) SessionStore
	Audit(ctx context.Context) AuditStore
}

// UserStore is consumed read-mostly by the credential verifier; account
// management writes happen outside this core.
type UserStore interface {
	Create(ctx context.Context, u *User) error
	Find(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
}

// SessionStore records one row per successful login. Append-only; the
// verification path never reads it.
type SessionStore interface {
	Create(ctx context.Context, s *Session) error
}

// AuditStore appends immutable security-event records.
type AuditStore interface {
	Append(ctx context.Context, entry *AuditEntry) error
}
