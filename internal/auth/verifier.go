package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// CredentialVerifier decides whether an email/password pair identifies an
// active account. It never retries; callers wrapping the core may retry
// the underlying storage call.
type CredentialVerifier struct {
	users  UserStore
	hasher PasswordHasher
}

func NewCredentialVerifier(users UserStore, hasher PasswordHasher) *CredentialVerifier {
	if hasher == nil {
		hasher = BcryptHasher{}
	}
	return &CredentialVerifier{users: users, hasher: hasher}
}

// Verify checks the pair and returns the account on success.
//
// Unknown email, wrong password and password login against an account
// without a password credential all fail with the same ErrInvalidCredentials
// sentinel so the responses cannot be used to enumerate accounts. Only the
// inactive-with-correct-password case is distinguishable (ErrUnauthorized);
// inactivity is not a secret. A storage failure surfaces as ErrInternal and
// is never folded into not-found.
func (v *CredentialVerifier) Verify(ctx context.Context, email, password string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validation.Validate(email, validation.Required, is.Email); err != nil {
		return nil, fmt.Errorf("%w: email: %v", ErrValidation, err)
	}
	if password == "" {
		return nil, fmt.Errorf("%w: password: cannot be blank", ErrValidation)
	}

	user, err := v.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// Burn the same hashing work as the mismatch path so response
			// timing does not reveal whether the account exists.
			_ = v.hasher.Compare(dummyBcryptHash, password)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%w: credential lookup: %v", ErrInternal, err)
	}

	if user.PasswordHash == "" {
		_ = v.hasher.Compare(dummyBcryptHash, password)
		return nil, ErrInvalidCredentials
	}
	if err := v.hasher.Compare(user.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.Active {
		return nil, ErrUnauthorized
	}
	return user, nil
}
