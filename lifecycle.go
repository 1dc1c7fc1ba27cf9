package accounts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Lifecycle drives the verified/unverified state machine and the
// one-time-code flows hanging off it. Verified only ever transitions
// false to true. All operations are read-modify-write against the
// store; the store is the only synchronization point.
type Lifecycle struct {
	Store  AccountStore
	Hasher *Hasher
	Codes  *CodeIssuer
	Emails EmailSender
	Logger zerolog.Logger
}

// ResendVerification rotates the pending verification code and re-sends
// the verification email. Only valid while the account is unverified,
// and throttled by the issuance cooldown.
func (l *Lifecycle) ResendVerification(ctx context.Context, email string) error {
	acct, err := l.Store.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return NewAuthError(ErrCodeNotFound, "Account not found", "email")
		}
		return fmt.Errorf("looking up account by email: %w", err)
	}

	if acct.Verified {
		return NewAuthError(ErrCodeAlreadyVerified, "Account is already verified", "")
	}
	if l.Codes.RateLimited(acct.LastVerificationSentAt, time.Now()) {
		return NewAuthError(ErrCodeRateLimited, "Verification email sent recently", "")
	}

	if err := l.rotateCode(ctx, acct); err != nil {
		return err
	}

	if err := l.Emails.SendVerificationEmail(acct.Email, acct.Name, acct.VerificationCode); err != nil {
		l.Logger.Error().Err(err).Str("account_id", acct.ID).Msg("failed to send verification email")
		return NewAuthError(ErrCodeEmailSendFailed, "Failed to send verification email", "")
	}
	return nil
}

// VerifyEmail consumes a verification code and marks the account
// verified. The code is looked up globally; codes are high-entropy
// random values with only one outstanding per account. A consumed
// code is cleared so it cannot be replayed inside its TTL.
func (l *Lifecycle) VerifyEmail(ctx context.Context, code string) error {
	acct, err := l.findByCode(ctx, code)
	if err != nil {
		return err
	}

	if l.Codes.Expired(acct.LastVerificationSentAt, time.Now()) {
		return NewAuthError(ErrCodeCodeExpired, "Verification code expired", "")
	}

	acct.Verified = true
	acct.VerificationCode = ""
	if err := l.Store.Update(ctx, acct); err != nil {
		return fmt.Errorf("marking account verified: %w", err)
	}

	l.Logger.Info().Str("account_id", acct.ID).Msg("email verified")
	return nil
}

// ForgotPassword issues a password-reset code and emails it. The
// account does not have to be verified yet; the reset itself insists
// on that. Shares the issuance cooldown with resend-verification
// because both flows write the same code slot.
func (l *Lifecycle) ForgotPassword(ctx context.Context, email string) error {
	acct, err := l.Store.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return NewAuthError(ErrCodeNotFound, "Account not found", "email")
		}
		return fmt.Errorf("looking up account by email: %w", err)
	}

	if l.Codes.RateLimited(acct.LastVerificationSentAt, time.Now()) {
		return NewAuthError(ErrCodeRateLimited, "Password reset email sent recently", "")
	}

	if err := l.rotateCode(ctx, acct); err != nil {
		return err
	}

	if err := l.Emails.SendPasswordResetEmail(acct.Email, acct.Name, acct.VerificationCode); err != nil {
		l.Logger.Error().Err(err).Str("account_id", acct.ID).Msg("failed to send password reset email")
		return NewAuthError(ErrCodeEmailSendFailed, "Failed to send password reset email", "")
	}
	return nil
}

// ResetPassword consumes a reset code and replaces the credential.
// Reset requires a previously verified identity, so unverified
// accounts are rejected even with a correct code. The replacement is
// hashed under a fresh salt and the code is cleared on success.
func (l *Lifecycle) ResetPassword(ctx context.Context, code, newPassword string) error {
	if len(newPassword) < MinPasswordLength {
		return NewAuthError(ErrCodeWeakPassword,
			fmt.Sprintf("Password must be at least %d characters", MinPasswordLength), "password")
	}

	acct, err := l.findByCode(ctx, code)
	if err != nil {
		return err
	}

	if !acct.Verified {
		return NewAuthError(ErrCodeAccountUnverified, "Account email is not verified", "")
	}
	if l.Codes.Expired(acct.LastVerificationSentAt, time.Now()) {
		return NewAuthError(ErrCodeCodeExpired, "Verification code expired", "")
	}

	salt, err := l.Hasher.GenerateSalt()
	if err != nil {
		return err
	}
	digest, err := l.Hasher.Hash(newPassword, salt)
	if err != nil {
		return err
	}

	acct.Salt = salt
	acct.PasswordHash = digest
	acct.VerificationCode = ""
	if err := l.Store.Update(ctx, acct); err != nil {
		return fmt.Errorf("saving new credential: %w", err)
	}

	l.Logger.Info().Str("account_id", acct.ID).Msg("password reset")
	return nil
}

func (l *Lifecycle) findByCode(ctx context.Context, code string) (*Account, error) {
	if code == "" {
		return nil, NewAuthError(ErrCodeMissingField, "Verification code is required", "verificationCode")
	}
	acct, err := l.Store.FindByVerificationCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, NewAuthError(ErrCodeInvalidCode, "Verification code invalid", "verificationCode")
		}
		return nil, fmt.Errorf("looking up account by code: %w", err)
	}
	return acct, nil
}

// rotateCode issues a fresh code, implicitly invalidating the previous
// one, and stamps the issuance time used by both cooldown and expiry.
func (l *Lifecycle) rotateCode(ctx context.Context, acct *Account) error {
	code, err := l.Codes.NewCode()
	if err != nil {
		return err
	}
	acct.VerificationCode = code
	acct.LastVerificationSentAt = time.Now().UTC()
	if err := l.Store.Update(ctx, acct); err != nil {
		return fmt.Errorf("saving rotated code: %w", err)
	}
	return nil
}
