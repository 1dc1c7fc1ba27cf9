package accounts

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Federated identity providers supported by the service.
const (
	ProviderFacebook = "facebook"
	ProviderGoogle   = "google"
)

// Store-level sentinel errors. Stores translate their backend's errors
// into these so that callers never depend on driver error types.
var (
	ErrAccountNotFound = errors.New("account not found")
	ErrDuplicateEmail  = errors.New("email is already in use")
)

// Account is a user identity record, the unit of authentication.
//
// Salt and PasswordHash are hex encoded and empty for accounts created
// purely through an OAuth provider. VerificationCode is non-empty only
// while an email-verification or password-reset flow is outstanding;
// the same code field serves both flows and issuing a new code
// supersedes the previous one.
type Account struct {
	ID    string
	Name  string
	Email string

	Salt         string
	PasswordHash string

	Verified               bool
	VerificationCode       string
	LastVerificationSentAt time.Time

	// Federated maps a provider name to the provider-assigned subject
	// id. At most one subject id per provider.
	Federated map[string]string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasCredential reports whether a password credential is set.
func (a *Account) HasCredential() bool {
	return a.Salt != "" && a.PasswordHash != ""
}

// FederatedID returns the subject id linked for provider, or "".
func (a *Account) FederatedID(provider string) string {
	if a.Federated == nil {
		return ""
	}
	return a.Federated[provider]
}

// SetFederatedID links a provider subject id. It reports whether the
// account changed; an already-linked provider is left untouched so the
// link is idempotent and never silently re-pointed at another subject.
func (a *Account) SetFederatedID(provider, subjectID string) bool {
	if a.FederatedID(provider) != "" {
		return false
	}
	if a.Federated == nil {
		a.Federated = make(map[string]string)
	}
	a.Federated[provider] = subjectID
	return true
}

// PublicAccount is the sanitized view of an account that may be
// returned to callers. Credential material never leaves the store.
type PublicAccount struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Verified bool   `json:"verified"`
}

// Sanitized returns the externally visible fields of the account.
func (a *Account) Sanitized() PublicAccount {
	return PublicAccount{
		ID:       a.ID,
		Name:     a.Name,
		Email:    a.Email,
		Verified: a.Verified,
	}
}

// NormalizeEmail lowercases and trims an email address. Email is the
// unique join key across all identity sources, so every lookup and
// insert goes through this first.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// AccountStore is the persistent account store. Implementations must
// enforce email uniqueness at the storage layer; Insert reports a
// violation as ErrDuplicateEmail. Lookups report a missing account as
// ErrAccountNotFound.
type AccountStore interface {
	FindByID(ctx context.Context, id string) (*Account, error)
	FindByEmail(ctx context.Context, email string) (*Account, error)
	FindByFederatedID(ctx context.Context, provider, subjectID string) (*Account, error)
	FindByVerificationCode(ctx context.Context, code string) (*Account, error)
	Insert(ctx context.Context, account *Account) error
	Update(ctx context.Context, account *Account) error
}
