package accounts

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
)

type contextKey string

const accountContextKey contextKey = "account"

// Middleware authenticates requests carrying a bearer token. A token
// is only as good as the account behind it: after signature checks the
// account is re-resolved from the store and rejected if it no longer
// exists or is unverified. That re-resolution is what bounds the blast
// radius of the tokens' indefinite validity.
type Middleware struct {
	Tokens *TokenIssuer
	Store  AccountStore
	Logger zerolog.Logger

	// Header the bearer token is read from. Defaults to Authorization.
	HeaderName string
}

func (m *Middleware) headerName() string {
	if m.HeaderName != "" {
		return m.HeaderName
	}
	return "Authorization"
}

// RequireAccount wraps next so it only runs for requests presenting a
// valid bearer token for a verified account. The account is placed on
// the request context for AccountFromContext.
func (m *Middleware) RequireAccount(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimSpace(r.Header.Get(m.headerName()))
		raw = strings.TrimPrefix(raw, "Bearer ")
		if raw == "" {
			writeAuthError(w, NewAuthError(ErrCodeInvalidToken, "Missing bearer token", ""))
			return
		}

		accountID, err := m.Tokens.Validate(raw)
		if err != nil {
			m.Logger.Debug().Err(err).Msg("rejected bearer token")
			writeAuthError(w, NewAuthError(ErrCodeInvalidToken, "Invalid token", ""))
			return
		}

		acct, err := m.Store.FindByID(r.Context(), accountID)
		if err != nil {
			writeAuthError(w, NewAuthError(ErrCodeInvalidToken, "Invalid token", ""))
			return
		}
		if !acct.Verified {
			writeAuthError(w, NewAuthError(ErrCodeEmailNotVerified, "Email not verified", ""))
			return
		}

		next.ServeHTTP(w, r.WithContext(withAccount(r.Context(), acct)))
	})
}

func withAccount(ctx context.Context, acct *Account) context.Context {
	return context.WithValue(ctx, accountContextKey, acct)
}

// AccountFromContext returns the authenticated account placed on the
// context by RequireAccount, or nil.
func AccountFromContext(ctx context.Context) *Account {
	acct, _ := ctx.Value(accountContextKey).(*Account)
	return acct
}
