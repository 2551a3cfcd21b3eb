package auth

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func newTestTokenService(t *testing.T, opts ...TokenOption) (*TokenService, *KeyStore) {
	t.Helper()
	ks := NewKeyStore()
	if err := ks.Rotate(newTestSigningKey(t, "key-a")); err != nil {
		t.Fatal(err)
	}
	svc, err := NewTokenService(ks, "shopcore", 15*time.Minute, 720*time.Hour, opts...)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return svc, ks
}

func testUser() *User {
	return &User{
		ID:     "user-1",
		Email:  "admin@test-shop.com",
		Role:   RoleAdmin,
		Active: true,
	}
}

func TestNewTokenServiceValidation(t *testing.T) {
	ks := NewKeyStore()
	cases := []struct {
		name    string
		keys    *KeyStore
		issuer  string
		access  time.Duration
		refresh time.Duration
	}{
		{"nil keys", nil, "shopcore", time.Minute, time.Hour},
		{"empty issuer", ks, "  ", time.Minute, time.Hour},
		{"zero access ttl", ks, "shopcore", 0, time.Hour},
		{"negative refresh ttl", ks, "shopcore", time.Minute, -time.Hour},
		{"access not shorter than refresh", ks, "shopcore", time.Hour, time.Hour},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewTokenService(tc.keys, tc.issuer, tc.access, tc.refresh); err == nil {
				t.Error("expected constructor error")
			}
		})
	}
}

func TestIssueRequiresKey(t *testing.T) {
	ks := NewKeyStore()
	svc, err := NewTokenService(ks, "shopcore", time.Minute, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Issue(testUser(), nil); !errors.Is(err, ErrNoKeyConfigured) {
		t.Fatalf("Issue without key = %v, want ErrNoKeyConfigured", err)
	}
}

func TestIssueAndVerifyRoundTrip(t *testing.T) {
	svc, _ := newTestTokenService(t)
	user := testUser()
	scopes := ResolveScopes(user.Role)

	pair, err := svc.Issue(user, scopes)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("empty token strings")
	}
	if pair.AccessToken == pair.RefreshToken {
		t.Fatal("access and refresh tokens are identical")
	}
	if got := pair.RefreshExpiresAt.Sub(pair.AccessExpiresAt); got <= 0 {
		t.Fatalf("refresh expiry %v not after access expiry %v", pair.RefreshExpiresAt, pair.AccessExpiresAt)
	}

	claims, err := svc.Verify(pair.AccessToken, KindAccess)
	if err != nil {
		t.Fatalf("Verify access: %v", err)
	}
	if claims.Subject != user.ID {
		t.Errorf("subject = %q, want %q", claims.Subject, user.ID)
	}
	if claims.Email != user.Email {
		t.Errorf("email = %q, want %q", claims.Email, user.Email)
	}
	if claims.Issuer != "shopcore" {
		t.Errorf("issuer = %q", claims.Issuer)
	}
	if len(claims.Scopes) != len(scopes) {
		t.Errorf("scopes = %v, want %v", claims.Scopes, scopes)
	}

	refresh, err := svc.Verify(pair.RefreshToken, KindRefresh)
	if err != nil {
		t.Fatalf("Verify refresh: %v", err)
	}
	if refresh.ID != pair.RefreshID {
		t.Errorf("refresh jti = %q, want %q", refresh.ID, pair.RefreshID)
	}
	if len(refresh.Scopes) != 0 {
		t.Errorf("refresh token carries scopes: %v", refresh.Scopes)
	}
}

func TestVerifyKindMismatch(t *testing.T) {
	svc, _ := newTestTokenService(t)
	pair, err := svc.Issue(testUser(), ResolveScopes(RoleViewer))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Verify(pair.AccessToken, KindRefresh); !errors.Is(err, ErrTokenWrongKind) {
		t.Errorf("access-as-refresh = %v, want ErrTokenWrongKind", err)
	}
	if _, err := svc.Verify(pair.RefreshToken, KindAccess); !errors.Is(err, ErrTokenWrongKind) {
		t.Errorf("refresh-as-access = %v, want ErrTokenWrongKind", err)
	}
}

func TestVerifyExpiryBoundary(t *testing.T) {
	issuedAt := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	clock := issuedAt
	svc, _ := newTestTokenService(t, WithClock(func() time.Time { return clock }))

	pair, err := svc.Issue(testUser(), nil)
	if err != nil {
		t.Fatal(err)
	}

	// valid at exactly the expiry instant
	clock = issuedAt.Add(15 * time.Minute)
	if _, err := svc.Verify(pair.AccessToken, KindAccess); err != nil {
		t.Errorf("at expiry instant: %v, want valid", err)
	}

	// expired one second past it
	clock = issuedAt.Add(15*time.Minute + time.Second)
	if _, err := svc.Verify(pair.AccessToken, KindAccess); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("past expiry: %v, want ErrTokenExpired", err)
	}

	// the refresh token is still inside its longer lifetime
	if _, err := svc.Verify(pair.RefreshToken, KindRefresh); err != nil {
		t.Errorf("refresh after access expiry: %v, want valid", err)
	}
}

func TestVerifyTamperedToken(t *testing.T) {
	svc, _ := newTestTokenService(t)
	pair, err := svc.Issue(testUser(), nil)
	if err != nil {
		t.Fatal(err)
	}

	// graft the refresh token's signature onto the access token
	accessParts := strings.Split(pair.AccessToken, ".")
	refreshParts := strings.Split(pair.RefreshToken, ".")
	if len(accessParts) != 3 || len(refreshParts) != 3 {
		t.Fatal("unexpected token segment count")
	}
	tampered := strings.Join([]string{accessParts[0], accessParts[1], refreshParts[2]}, ".")
	if _, err := svc.Verify(tampered, KindAccess); !errors.Is(err, ErrTokenInvalidSignature) {
		t.Errorf("tampered token = %v, want ErrTokenInvalidSignature", err)
	}
}

func TestVerifyMalformedToken(t *testing.T) {
	svc, _ := newTestTokenService(t)
	for _, token := range []string{"", "garbage", "a.b", "a.b.c"} {
		if _, err := svc.Verify(token, KindAccess); !errors.Is(err, ErrTokenMalformed) {
			t.Errorf("Verify(%q) = %v, want ErrTokenMalformed", token, err)
		}
	}
}

func TestVerifyUnknownKeyID(t *testing.T) {
	issuing, _ := newTestTokenService(t)
	pair, err := issuing.Issue(testUser(), nil)
	if err != nil {
		t.Fatal(err)
	}

	// a verifier that never saw key-a
	other := NewKeyStore()
	if err := other.Rotate(newTestSigningKey(t, "key-z")); err != nil {
		t.Fatal(err)
	}
	verifying, err := NewTokenService(other, "shopcore", 15*time.Minute, 720*time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := verifying.Verify(pair.AccessToken, KindAccess); !errors.Is(err, ErrTokenUnknownKey) {
		t.Errorf("unknown kid = %v, want ErrTokenUnknownKey", err)
	}
}

func TestVerifyIssuerMismatch(t *testing.T) {
	issuing, ks := newTestTokenService(t)
	pair, err := issuing.Issue(testUser(), nil)
	if err != nil {
		t.Fatal(err)
	}

	verifying, err := NewTokenService(ks, "other-issuer", 15*time.Minute, 720*time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := verifying.Verify(pair.AccessToken, KindAccess); !errors.Is(err, ErrTokenIssuerMismatch) {
		t.Errorf("issuer mismatch = %v, want ErrTokenIssuerMismatch", err)
	}
}

func TestVerifyAfterRotationOldKeyStillValid(t *testing.T) {
	svc, ks := newTestTokenService(t)
	pair, err := svc.Issue(testUser(), nil)
	if err != nil {
		t.Fatal(err)
	}

	if err := ks.Rotate(newTestSigningKey(t, "key-b")); err != nil {
		t.Fatal(err)
	}
	// old token keeps verifying against the retained key
	if _, err := svc.Verify(pair.AccessToken, KindAccess); err != nil {
		t.Errorf("token signed by retired key: %v, want valid", err)
	}

	// new tokens come from the new key
	fresh, err := svc.Issue(testUser(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Verify(fresh.AccessToken, KindAccess); err != nil {
		t.Errorf("token signed by current key: %v", err)
	}
}
