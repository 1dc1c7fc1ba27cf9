package accounts

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// MinPasswordLength is the minimum accepted password length for
// registration and password reset.
const MinPasswordLength = 5

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	nameRegex  = regexp.MustCompile(`^[a-zA-Z]+(?: [a-zA-Z]+)*$`)
)

// FederatedProfile is the provider-asserted identity handed to the
// resolver after an OAuth exchange. Email is empty when the provider
// did not supply a verified address.
type FederatedProfile struct {
	Provider  string
	SubjectID string
	Email     string
	Name      string
}

// RegisterInput is the validated-on-entry registration payload.
type RegisterInput struct {
	Email    string
	Password string
	Name     string
}

// Resolver maps an inbound identity assertion (password credentials or
// an OAuth profile) to exactly one account. Every authentication
// pathway funnels through here so that the create-vs-link-vs-reject
// policy lives in one place regardless of provider.
type Resolver struct {
	Store  AccountStore
	Hasher *Hasher
	Codes  *CodeIssuer
	Emails EmailSender
	Logger zerolog.Logger
}

// ResolvePassword authenticates an email/password pair. Absent
// account, missing credential and digest mismatch all collapse into
// the same generic rejection so callers cannot probe which emails are
// registered. An unverified account is rejected distinctly.
func (r *Resolver) ResolvePassword(ctx context.Context, email, password string) (*Account, error) {
	acct, err := r.Store.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, NewAuthError(ErrCodeInvalidCreds, "Incorrect username or password", "password")
		}
		return nil, fmt.Errorf("looking up account by email: %w", err)
	}

	if !acct.HasCredential() {
		return nil, NewAuthError(ErrCodeInvalidCreds, "Incorrect username or password", "password")
	}

	ok, err := r.Hasher.Verify(password, acct.Salt, acct.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verifying password: %w", err)
	}
	if !ok {
		return nil, NewAuthError(ErrCodeInvalidCreds, "Incorrect username or password", "password")
	}

	if !acct.Verified {
		return nil, NewAuthError(ErrCodeEmailNotVerified, "Email not verified", "email")
	}

	return acct, nil
}

// ResolveFederated maps a provider-asserted identity to an account.
// Lookup is by federated id first, then by email. A found account gets
// the provider link attached if it is missing (idempotent); otherwise
// the stored link is left alone. When nothing matches, a new account
// is created as verified, since provider-supplied emails are already
// verified by the provider; a profile without an email is rejected.
func (r *Resolver) ResolveFederated(ctx context.Context, profile FederatedProfile) (acct *Account, created bool, err error) {
	acct, err = r.Store.FindByFederatedID(ctx, profile.Provider, profile.SubjectID)
	if errors.Is(err, ErrAccountNotFound) && profile.Email != "" {
		acct, err = r.Store.FindByEmail(ctx, NormalizeEmail(profile.Email))
	}

	switch {
	case err == nil:
		if err := r.attachFederatedID(ctx, acct, profile); err != nil {
			return nil, false, err
		}
		return acct, false, nil
	case !errors.Is(err, ErrAccountNotFound):
		return nil, false, fmt.Errorf("looking up federated account: %w", err)
	}

	if profile.Email == "" {
		return nil, false, NewAuthError(ErrCodeNoProviderEmail,
			fmt.Sprintf("No verified email available from %s", profile.Provider), "email")
	}

	acct = &Account{
		ID:        uuid.NewString(),
		Name:      profile.Name,
		Email:     NormalizeEmail(profile.Email),
		Verified:  true,
		Federated: map[string]string{profile.Provider: profile.SubjectID},
	}
	if err := r.Store.Insert(ctx, acct); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			// Lost a creation race; the row that won is ours to link.
			acct, err = r.Store.FindByEmail(ctx, NormalizeEmail(profile.Email))
			if err != nil {
				return nil, false, fmt.Errorf("re-resolving account after duplicate insert: %w", err)
			}
			if err := r.attachFederatedID(ctx, acct, profile); err != nil {
				return nil, false, err
			}
			return acct, false, nil
		}
		return nil, false, fmt.Errorf("creating federated account: %w", err)
	}

	r.Logger.Info().Str("account_id", acct.ID).Str("provider", profile.Provider).
		Msg("created account from federated login")
	return acct, true, nil
}

func (r *Resolver) attachFederatedID(ctx context.Context, acct *Account, profile FederatedProfile) error {
	if !acct.SetFederatedID(profile.Provider, profile.SubjectID) {
		return nil
	}
	if err := r.Store.Update(ctx, acct); err != nil {
		return fmt.Errorf("attaching %s id to account: %w", profile.Provider, err)
	}
	r.Logger.Info().Str("account_id", acct.ID).Str("provider", profile.Provider).
		Msg("linked federated identity to existing account")
	return nil
}

// Register creates an unverified account with a password credential
// and a pending verification code, then sends the verification email.
// Email uniqueness is enforced by the store's key constraint, not by a
// lookup here, so concurrent registrations cannot both win. A send
// failure is reported as ErrCodeEmailSendFailed with the account
// already persisted; it is deliberately not rolled back.
func (r *Resolver) Register(ctx context.Context, in RegisterInput) (*Account, error) {
	if authErr := validateRegistration(&in); authErr != nil {
		return nil, authErr
	}

	salt, err := r.Hasher.GenerateSalt()
	if err != nil {
		return nil, err
	}
	digest, err := r.Hasher.Hash(in.Password, salt)
	if err != nil {
		return nil, err
	}
	code, err := r.Codes.NewCode()
	if err != nil {
		return nil, err
	}

	acct := &Account{
		ID:                     uuid.NewString(),
		Name:                   in.Name,
		Email:                  in.Email,
		Salt:                   salt,
		PasswordHash:           digest,
		Verified:               false,
		VerificationCode:       code,
		LastVerificationSentAt: time.Now().UTC(),
	}
	if err := r.Store.Insert(ctx, acct); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return nil, NewAuthError(ErrCodeEmailExists, "Email is already in use", "email")
		}
		return nil, fmt.Errorf("creating account: %w", err)
	}

	if err := r.Emails.SendVerificationEmail(acct.Email, acct.Name, code); err != nil {
		r.Logger.Error().Err(err).Str("account_id", acct.ID).Msg("failed to send verification email")
		return acct, NewAuthError(ErrCodeEmailSendFailed, "Failed to send verification email", "")
	}

	return acct, nil
}

// validateRegistration normalizes and validates the payload in place.
func validateRegistration(in *RegisterInput) *AuthError {
	in.Email = NormalizeEmail(in.Email)
	in.Name = normalizeName(in.Name)

	if in.Email == "" {
		return NewAuthError(ErrCodeMissingField, "Email is required", "email")
	}
	if !emailRegex.MatchString(in.Email) {
		return NewAuthError(ErrCodeInvalidEmail, "Invalid email format", "email")
	}
	if len(in.Password) < MinPasswordLength {
		return NewAuthError(ErrCodeWeakPassword,
			fmt.Sprintf("Password must be at least %d characters", MinPasswordLength), "password")
	}
	if in.Name == "" {
		return NewAuthError(ErrCodeMissingField, "Name is required", "name")
	}
	if !nameRegex.MatchString(in.Name) {
		return NewAuthError(ErrCodeInvalidName, "Name may only contain letters and spaces", "name")
	}
	return nil
}

func normalizeName(name string) string {
	return trimInnerSpace(name)
}

// trimInnerSpace trims the ends and collapses runs of spaces so the
// letters-and-spaces check is not defeated by stray whitespace.
func trimInnerSpace(s string) string {
	fields := make([]byte, 0, len(s))
	space := true
	for i := 0; i < len(s); i++ {
		if s[i] == ' ' || s[i] == '\t' {
			if !space {
				fields = append(fields, ' ')
				space = true
			}
			continue
		}
		fields = append(fields, s[i])
		space = false
	}
	if n := len(fields); n > 0 && fields[n-1] == ' ' {
		fields = fields[:n-1]
	}
	return string(fields)
}
