package accounts_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/panyam/accounts"
	"github.com/panyam/accounts/stores"
)

// captureSender records outgoing emails instead of sending them. Fail
// makes every send error, for exercising the send-failure policy.
type captureSender struct {
	mu            sync.Mutex
	Fail          error
	Verifications []capturedEmail
	Resets        []capturedEmail
}

type capturedEmail struct {
	To   string
	Name string
	Code string
}

func (c *captureSender) SendVerificationEmail(to, name, code string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Fail != nil {
		return c.Fail
	}
	c.Verifications = append(c.Verifications, capturedEmail{To: to, Name: name, Code: code})
	return nil
}

func (c *captureSender) SendPasswordResetEmail(to, name, code string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Fail != nil {
		return c.Fail
	}
	c.Resets = append(c.Resets, capturedEmail{To: to, Name: name, Code: code})
	return nil
}

func (c *captureSender) lastVerification(t *testing.T) capturedEmail {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	require.NotEmpty(t, c.Verifications, "expected a verification email")
	return c.Verifications[len(c.Verifications)-1]
}

func (c *captureSender) lastReset(t *testing.T) capturedEmail {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	require.NotEmpty(t, c.Resets, "expected a password reset email")
	return c.Resets[len(c.Resets)-1]
}

// harness bundles the core wired against the in-memory store.
type harness struct {
	Store     *stores.MemoryStore
	Hasher    *accounts.Hasher
	Codes     *accounts.CodeIssuer
	Sender    *captureSender
	Resolver  *accounts.Resolver
	Lifecycle *accounts.Lifecycle
}

func newHarness() *harness {
	store := stores.NewMemoryStore()
	hasher := testHasher()
	codes := &accounts.CodeIssuer{Cooldown: 2 * time.Minute, TTL: 24 * time.Hour}
	sender := &captureSender{}
	logger := zerolog.Nop()

	return &harness{
		Store:  store,
		Hasher: hasher,
		Codes:  codes,
		Sender: sender,
		Resolver: &accounts.Resolver{
			Store:  store,
			Hasher: hasher,
			Codes:  codes,
			Emails: sender,
			Logger: logger,
		},
		Lifecycle: &accounts.Lifecycle{
			Store:  store,
			Hasher: hasher,
			Codes:  codes,
			Emails: sender,
			Logger: logger,
		},
	}
}

// register creates an account through the real registration flow.
func (h *harness) register(t *testing.T, email, password, name string) *accounts.Account {
	t.Helper()
	acct, err := h.Resolver.Register(context.Background(), accounts.RegisterInput{
		Email:    email,
		Password: password,
		Name:     name,
	})
	require.NoError(t, err)
	return acct
}

// registerVerified registers and then verifies via the emailed code.
func (h *harness) registerVerified(t *testing.T, email, password, name string) *accounts.Account {
	t.Helper()
	acct := h.register(t, email, password, name)
	code := h.Sender.lastVerification(t).Code
	require.NoError(t, h.Lifecycle.VerifyEmail(context.Background(), code))
	// Clear the registration-time cooldown so tests can issue a reset
	// code right away.
	h.backdate(t, acct.ID, 3*time.Minute)
	return h.reload(t, acct.ID)
}

// backdate shifts an account's issuance timestamp, the lever for
// exercising cooldown and expiry without a clock abstraction.
func (h *harness) backdate(t *testing.T, accountID string, by time.Duration) {
	t.Helper()
	acct := h.reload(t, accountID)
	acct.LastVerificationSentAt = acct.LastVerificationSentAt.Add(-by)
	require.NoError(t, h.Store.Update(context.Background(), acct))
}

func (h *harness) reload(t *testing.T, accountID string) *accounts.Account {
	t.Helper()
	acct, err := h.Store.FindByID(context.Background(), accountID)
	require.NoError(t, err)
	return acct
}

// requireAuthCode asserts err is an AuthError with the given code.
func requireAuthCode(t *testing.T, err error, code string) *accounts.AuthError {
	t.Helper()
	require.Error(t, err)
	authErr, ok := err.(*accounts.AuthError)
	require.True(t, ok, "expected *AuthError, got %T: %v", err, err)
	require.Equal(t, code, authErr.Code, "unexpected error code, message: %s", authErr.Message)
	return authErr
}
