package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the payload of an issued token. Scopes are only carried by
// access tokens; a refresh token is exchanged for a fresh access token and
// never used for authorization directly.
type Claims struct {
	Email     string    `json:"email"`
	TokenKind TokenKind `json:"token_type"`
	Scopes    []Scope   `json:"scope,omitempty"`
	jwt.RegisteredClaims
}

// TokenService mints and verifies RS256-signed tokens. Verification is a
// pure computation over an immutable key snapshot and is safe to run fully
// in parallel.
type TokenService struct {
	keys       *KeyStore
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// TokenOption configures TokenService.
type TokenOption func(*TokenService)

// WithClock overrides the time source, useful in tests.
func WithClock(fn func() time.Time) TokenOption {
	return func(s *TokenService) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewTokenService constructs a TokenService. The access lifetime must be
// strictly shorter than the refresh lifetime.
func NewTokenService(keys *KeyStore, issuer string, accessTTL, refreshTTL time.Duration, opts ...TokenOption) (*TokenService, error) {
	if keys == nil {
		return nil, errors.New("auth: key store is required")
	}
	issuer = strings.TrimSpace(issuer)
	if issuer == "" {
		return nil, errors.New("auth: issuer is required")
	}
	if accessTTL <= 0 || refreshTTL <= 0 {
		return nil, errors.New("auth: token lifetimes must be positive")
	}
	if accessTTL >= refreshTTL {
		return nil, fmt.Errorf("auth: access lifetime %s must be shorter than refresh lifetime %s", accessTTL, refreshTTL)
	}
	s := &TokenService{
		keys:       keys,
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Issue mints an access/refresh token pair for the user, both signed by
// the current key with its kid embedded in the header. The refresh token
// carries a jti that doubles as the session id.
func (s *TokenService) Issue(user *User, scopes []Scope) (TokenPair, error) {
	key, err := s.keys.Current()
	if err != nil {
		return TokenPair{}, err
	}

	now := s.now().UTC().Truncate(time.Second)
	accessExp := now.Add(s.accessTTL)
	refreshExp := now.Add(s.refreshTTL)
	refreshID := uuid.NewString()

	access, err := s.sign(key, Claims{
		Email:     user.Email,
		TokenKind: KindAccess,
		Scopes:    scopes,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(accessExp),
		},
	})
	if err != nil {
		return TokenPair{}, fmt.Errorf("%w: sign access token: %v", ErrInternal, err)
	}

	refresh, err := s.sign(key, Claims{
		Email:     user.Email,
		TokenKind: KindRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(refreshExp),
			ID:        refreshID,
		},
	})
	if err != nil {
		return TokenPair{}, fmt.Errorf("%w: sign refresh token: %v", ErrInternal, err)
	}

	return TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
		RefreshID:        refreshID,
	}, nil
}

func (s *TokenService) sign(key *SigningKey, claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = key.Kid
	return token.SignedString(key.Private)
}

// Verify checks a token end to end: structure, key id, signature, issuer,
// expiry and kind, in that order. Any failure is terminal for the call.
// Expiry uses whole-second resolution; a token is valid up to and
// including its expiry instant and expired strictly after it.
func (s *TokenService) Verify(tokenString string, kind TokenKind) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, s.keyfunc,
		jwt.WithValidMethods([]string{signingAlgorithm}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		switch {
		case errors.Is(err, ErrTokenUnknownKey):
			return nil, ErrTokenUnknownKey
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrTokenInvalidSignature
		default:
			return nil, ErrTokenMalformed
		}
	}

	if claims.Issuer != s.issuer {
		return nil, ErrTokenIssuerMismatch
	}
	if claims.ExpiresAt == nil || strings.TrimSpace(claims.Subject) == "" {
		return nil, ErrTokenMalformed
	}
	if s.now().Unix() > claims.ExpiresAt.Unix() {
		return nil, ErrTokenExpired
	}
	if claims.TokenKind != kind {
		return nil, ErrTokenWrongKind
	}
	return claims, nil
}

func (s *TokenService) keyfunc(t *jwt.Token) (any, error) {
	kid, _ := t.Header["kid"].(string)
	if kid == "" {
		return nil, ErrTokenMalformed
	}
	key, ok := s.keys.ByID(kid)
	if !ok {
		return nil, ErrTokenUnknownKey
	}
	return key.Public(), nil
}
