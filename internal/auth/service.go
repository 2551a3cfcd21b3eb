package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Service wires the auth core into the login pipeline: verify credentials,
// resolve scopes, issue tokens, record the session, record the audit trail.
// Each call is a single deterministic pass; nothing here retries.
type Service struct {
	store    Store
	keys     *KeyStore
	tokens   *TokenService
	verifier *CredentialVerifier
	log      *zap.Logger
	now      func() time.Time
}

// ServiceOption configures Service.
type ServiceOption func(*Service)

// WithHasher overrides the password hasher used for credential checks.
func WithHasher(h PasswordHasher) ServiceOption {
	return func(s *Service) {
		if h != nil {
			s.verifier = NewCredentialVerifier(s.store.Users(context.Background()), h)
		}
	}
}

// WithLogger sets the logger used to report audit-write failures.
func WithLogger(l *zap.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

func NewService(store Store, keys *KeyStore, tokens *TokenService, opts ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, errors.New("auth: store is required")
	}
	if keys == nil || tokens == nil {
		return nil, errors.New("auth: key store and token service are required")
	}
	s := &Service{
		store:    store,
		keys:     keys,
		tokens:   tokens,
		verifier: NewCredentialVerifier(store.Users(context.Background()), BcryptHasher{}),
		log:      zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Keys exposes the key store for publication endpoints.
func (s *Service) Keys() *KeyStore { return s.keys }

// Tokens exposes the token service for verification middleware.
func (s *Service) Tokens() *TokenService { return s.tokens }

// LoginResult is the outcome of a successful login or refresh.
type LoginResult struct {
	User   *User
	Scopes []Scope
	Tokens TokenPair
}

// Login authenticates the pair and mints a token pair. The audit entry is
// written for every outcome; an audit or session-store hiccup never flips
// an otherwise-decided auth result, audit failures are logged and dropped.
func (s *Service) Login(ctx context.Context, email, password, remoteAddr string) (*LoginResult, error) {
	user, err := s.verifier.Verify(ctx, email, password)
	if err != nil {
		s.appendAudit(ctx, &AuditEntry{
			Action:     "auth.login.failure",
			RemoteAddr: remoteAddr,
			Metadata:   map[string]string{"reason": failureReason(err)},
		})
		return nil, err
	}

	scopes := ResolveScopes(user.Role)
	pair, err := s.tokens.Issue(user, scopes)
	if err != nil {
		s.appendAudit(ctx, &AuditEntry{
			Action:      "auth.login.failure",
			ActorUserID: user.ID,
			RemoteAddr:  remoteAddr,
			Metadata:    map[string]string{"reason": "internal"},
		})
		return nil, err
	}

	session := &Session{
		ID:         pair.RefreshID,
		UserID:     user.ID,
		RemoteAddr: remoteAddr,
		ExpiresAt:  pair.RefreshExpiresAt,
	}
	if err := s.store.Sessions(ctx).Create(ctx, session); err != nil {
		return nil, fmt.Errorf("%w: record session: %v", ErrInternal, err)
	}

	s.appendAudit(ctx, &AuditEntry{
		Action:      "auth.login.success",
		ActorUserID: user.ID,
		RemoteAddr:  remoteAddr,
		Metadata:    map[string]string{"session_id": session.ID},
	})

	return &LoginResult{User: user, Scopes: scopes, Tokens: pair}, nil
}

// Refresh exchanges a valid refresh token for a fresh pair. Scopes are
// re-resolved from the stored role so a role change takes effect on the
// next refresh, and a deactivated account stops refreshing immediately.
func (s *Service) Refresh(ctx context.Context, refreshToken, remoteAddr string) (*LoginResult, error) {
	claims, err := s.tokens.Verify(refreshToken, KindRefresh)
	if err != nil {
		s.appendAudit(ctx, &AuditEntry{
			Action:     "auth.refresh.failure",
			RemoteAddr: remoteAddr,
			Metadata:   map[string]string{"reason": failureReason(err)},
		})
		return nil, err
	}

	user, err := s.store.Users(ctx).Find(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("%w: user lookup: %v", ErrInternal, err)
	}
	if !user.Active {
		return nil, ErrUnauthorized
	}

	scopes := ResolveScopes(user.Role)
	pair, err := s.tokens.Issue(user, scopes)
	if err != nil {
		return nil, err
	}

	session := &Session{
		ID:         pair.RefreshID,
		UserID:     user.ID,
		RemoteAddr: remoteAddr,
		ExpiresAt:  pair.RefreshExpiresAt,
	}
	if err := s.store.Sessions(ctx).Create(ctx, session); err != nil {
		return nil, fmt.Errorf("%w: record session: %v", ErrInternal, err)
	}

	s.appendAudit(ctx, &AuditEntry{
		Action:      "auth.token.refresh",
		ActorUserID: user.ID,
		RemoteAddr:  remoteAddr,
		Metadata:    map[string]string{"session_id": session.ID},
	})

	return &LoginResult{User: user, Scopes: scopes, Tokens: pair}, nil
}

// RotateKey generates a fresh signing key and installs it as current.
// Previously-issued tokens keep verifying against the retained keys.
func (s *Service) RotateKey(ctx context.Context, actorUserID, remoteAddr string) (*SigningKey, error) {
	key, err := GenerateSigningKey()
	if err != nil {
		return nil, fmt.Errorf("%w: generate key: %v", ErrInternal, err)
	}
	if err := s.keys.Rotate(key); err != nil {
		return nil, fmt.Errorf("%w: rotate key: %v", ErrInternal, err)
	}
	s.appendAudit(ctx, &AuditEntry{
		Action:      "auth.key.rotate",
		ActorUserID: actorUserID,
		RemoteAddr:  remoteAddr,
		Metadata:    map[string]string{"kid": key.Kid},
	})
	return key, nil
}

func (s *Service) appendAudit(ctx context.Context, entry *AuditEntry) {
	entry.OccurredAt = s.now().UTC()
	if err := s.store.Audit(ctx).Append(ctx, entry); err != nil {
		s.log.Warn("audit append failed",
			zap.String("action", entry.Action),
			zap.Error(err),
		)
	}
}

// failureReason maps a taxonomy error to the tag recorded in the audit
// trail. Never includes submitted credentials or message details.
func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrTokenExpired):
		return "token_expired"
	case errors.Is(err, ErrTokenWrongKind):
		return "token_wrong_kind"
	case errors.Is(err, ErrTokenMalformed),
		errors.Is(err, ErrTokenUnknownKey),
		errors.Is(err, ErrTokenInvalidSignature),
		errors.Is(err, ErrTokenIssuerMismatch):
		return "token_invalid"
	default:
		return "internal"
	}
}
