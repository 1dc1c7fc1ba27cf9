package accounts

import "net/http"

// Error codes carried by AuthError. Handlers map these onto HTTP
// statuses; the codes themselves are part of the JSON error body so
// API clients can branch without parsing messages.
const (
	ErrCodeMissingField       = "missing_field"
	ErrCodeInvalidEmail       = "invalid_email"
	ErrCodeInvalidName        = "invalid_name"
	ErrCodeWeakPassword       = "weak_password"
	ErrCodeInvalidCreds       = "invalid_credentials"
	ErrCodeEmailNotVerified   = "email_not_verified"
	ErrCodeEmailExists        = "email_exists"
	ErrCodeNotFound           = "not_found"
	ErrCodeAlreadyVerified    = "already_verified"
	ErrCodeRateLimited        = "rate_limited"
	ErrCodeInvalidCode        = "invalid_code"
	ErrCodeCodeExpired        = "code_expired"
	ErrCodeAccountUnverified  = "account_unverified"
	ErrCodeNoProviderEmail    = "no_provider_email"
	ErrCodeEmailSendFailed    = "email_send_failed"
	ErrCodeInvalidToken       = "invalid_token"
	ErrCodeUnknownProvider    = "unknown_provider"
	ErrCodeServerError        = "server_error"
)

// AuthError is a policy rejection with a stable code and the form
// field it refers to (if any). Infrastructure failures are ordinary
// wrapped errors, never AuthErrors; handlers surface those as opaque
// server errors.
type AuthError struct {
	Code    string `json:"code"`
	Message string `json:"error"`
	Field   string `json:"field,omitempty"`
}

func (e *AuthError) Error() string {
	return e.Message
}

// NewAuthError creates an AuthError with the given code, message and field.
func NewAuthError(code, message, field string) *AuthError {
	return &AuthError{Code: code, Message: message, Field: field}
}

// StatusForAuthError maps an error code onto its HTTP status.
func StatusForAuthError(err *AuthError) int {
	switch err.Code {
	case ErrCodeMissingField, ErrCodeInvalidEmail, ErrCodeInvalidName, ErrCodeWeakPassword:
		return http.StatusBadRequest
	case ErrCodeInvalidCreds, ErrCodeEmailNotVerified, ErrCodeNoProviderEmail, ErrCodeInvalidToken:
		return http.StatusUnauthorized
	case ErrCodeInvalidCode, ErrCodeAccountUnverified:
		return http.StatusForbidden
	case ErrCodeNotFound, ErrCodeUnknownProvider:
		return http.StatusNotFound
	case ErrCodeEmailExists:
		return http.StatusConflict
	case ErrCodeAlreadyVerified:
		return http.StatusNotModified
	case ErrCodeCodeExpired:
		return http.StatusGone
	case ErrCodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
