package accounts

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// OAuthProvider is one configured third-party sign-in flow. The
// concrete implementations live in the oauth2 subpackage; the server
// only needs the redirect leg and the callback exchange.
type OAuthProvider interface {
	// HandleRedirect sends the user agent to the provider's consent page.
	HandleRedirect(w http.ResponseWriter, r *http.Request)

	// Exchange handles the provider callback: state check, code
	// exchange and profile fetch.
	Exchange(r *http.Request) (FederatedProfile, error)
}

// Server assembles the HTTP surface of the account service. All
// pathways funnel through the Resolver and Lifecycle; the handlers
// themselves only parse, dispatch and translate errors.
type Server struct {
	Resolver   *Resolver
	Lifecycle  *Lifecycle
	Tokens     *TokenIssuer
	Middleware *Middleware
	Store      AccountStore
	Providers  map[string]OAuthProvider
	Logger     zerolog.Logger

	// TokenCallbackURL is where OAuth callbacks redirect with the
	// freshly issued token appended as ?token=.
	TokenCallbackURL string
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/auth/register", s.handleRegister).Methods(http.MethodPost)
	r.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/auth/oauth/{provider}", s.handleOAuthStart).Methods(http.MethodGet)
	r.HandleFunc("/auth/oauth/{provider}/callback", s.handleOAuthCallback).Methods(http.MethodGet)

	r.HandleFunc("/users/id", s.handleGetByID).Methods(http.MethodGet)
	r.HandleFunc("/users/email", s.handleGetByEmail).Methods(http.MethodGet)
	r.HandleFunc("/users/resend-verification", s.handleResendVerification).Methods(http.MethodPost)
	r.HandleFunc("/users/verify-email", s.handleVerifyEmail).Methods(http.MethodPost)
	r.HandleFunc("/users/forgot-password", s.handleForgotPassword).Methods(http.MethodPost)
	r.HandleFunc("/users/reset-password", s.handleResetPassword).Methods(http.MethodPost)
	r.Handle("/users/me", s.Middleware.RequireAccount(http.HandlerFunc(s.handleMe))).Methods(http.MethodGet)

	return r
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}
	if !s.decode(w, r, &body) {
		return
	}

	_, err := s.Resolver.Register(r.Context(), RegisterInput{
		Email:    body.Email,
		Password: body.Password,
		Name:     body.Name,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Account created. Please check your email to verify your account.",
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !s.decode(w, r, &body) {
		return
	}
	if body.Email == "" || body.Password == "" {
		s.writeError(w, NewAuthError(ErrCodeMissingField, "Email and password are required", ""))
		return
	}

	acct, err := s.Resolver.ResolvePassword(r.Context(), body.Email, body.Password)
	if err != nil {
		s.writeError(w, err)
		return
	}

	token, err := s.Tokens.Issue(acct.ID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": token})
}

func (s *Server) handleOAuthStart(w http.ResponseWriter, r *http.Request) {
	provider, ok := s.Providers[mux.Vars(r)["provider"]]
	if !ok {
		s.writeError(w, NewAuthError(ErrCodeUnknownProvider, "Unknown provider", "provider"))
		return
	}
	provider.HandleRedirect(w, r)
}

func (s *Server) handleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["provider"]
	provider, ok := s.Providers[name]
	if !ok {
		s.writeError(w, NewAuthError(ErrCodeUnknownProvider, "Unknown provider", "provider"))
		return
	}

	profile, err := provider.Exchange(r)
	if err != nil {
		s.Logger.Warn().Err(err).Str("provider", name).Msg("oauth exchange failed")
		s.writeError(w, NewAuthError(ErrCodeInvalidCreds, "Authentication failed", ""))
		return
	}

	acct, _, err := s.Resolver.ResolveFederated(r.Context(), profile)
	if err != nil {
		s.writeError(w, err)
		return
	}

	token, err := s.Tokens.Issue(acct.ID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	http.Redirect(w, r, fmt.Sprintf("%s?token=%s", s.TokenCallbackURL, token), http.StatusFound)
}

func (s *Server) handleResendVerification(w http.ResponseWriter, r *http.Request) {
	email, ok := s.decodeEmail(w, r)
	if !ok {
		return
	}
	if err := s.Lifecycle.ResendVerification(r.Context(), email); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Verification email sent"})
}

func (s *Server) handleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	var body struct {
		VerificationCode string `json:"verificationCode"`
	}
	if !s.decode(w, r, &body) {
		return
	}
	if err := s.Lifecycle.VerifyEmail(r.Context(), body.VerificationCode); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Email verified"})
}

func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	email, ok := s.decodeEmail(w, r)
	if !ok {
		return
	}
	if err := s.Lifecycle.ForgotPassword(r.Context(), email); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Password reset email sent"})
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var body struct {
		VerificationCode string `json:"verificationCode"`
		Password         string `json:"password"`
	}
	if !s.decode(w, r, &body) {
		return
	}
	if err := s.Lifecycle.ResetPassword(r.Context(), body.VerificationCode, body.Password); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Password reset"})
}

func (s *Server) handleGetByID(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		s.writeError(w, NewAuthError(ErrCodeMissingField, "id is required", "id"))
		return
	}
	acct, err := s.Store.FindByID(r.Context(), id)
	if err != nil {
		s.writeNotFoundOr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, acct.Sanitized())
}

func (s *Server) handleGetByEmail(w http.ResponseWriter, r *http.Request) {
	email := NormalizeEmail(r.URL.Query().Get("email"))
	if email == "" {
		s.writeError(w, NewAuthError(ErrCodeMissingField, "email is required", "email"))
		return
	}
	acct, err := s.Store.FindByEmail(r.Context(), email)
	if err != nil {
		s.writeNotFoundOr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, acct.Sanitized())
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	acct := AccountFromContext(r.Context())
	if acct == nil {
		s.writeError(w, NewAuthError(ErrCodeInvalidToken, "Not authenticated", ""))
		return
	}
	writeJSON(w, http.StatusOK, acct.Sanitized())
}

// decode parses a JSON request body, answering 400 on garbage.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.writeError(w, NewAuthError(ErrCodeMissingField, "Invalid request body", ""))
		return false
	}
	return true
}

func (s *Server) decodeEmail(w http.ResponseWriter, r *http.Request) (string, bool) {
	var body struct {
		Email string `json:"email"`
	}
	if !s.decode(w, r, &body) {
		return "", false
	}
	if body.Email == "" {
		s.writeError(w, NewAuthError(ErrCodeMissingField, "Email is required", "email"))
		return "", false
	}
	return body.Email, true
}

func (s *Server) writeNotFoundOr(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrAccountNotFound) {
		s.writeError(w, NewAuthError(ErrCodeNotFound, "Account not found", ""))
		return
	}
	s.writeError(w, err)
}

// writeError translates policy rejections into their HTTP shape and
// hides everything else behind an opaque 500. Infrastructure detail is
// logged here, once, with context.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		writeAuthError(w, authErr)
		return
	}
	s.Logger.Error().Err(err).Msg("internal error")
	writeJSON(w, http.StatusInternalServerError, map[string]any{
		"error": "Internal server error",
		"code":  ErrCodeServerError,
	})
}

func writeAuthError(w http.ResponseWriter, authErr *AuthError) {
	status := StatusForAuthError(authErr)
	if status == http.StatusNotModified {
		// 304 responses carry no body.
		w.WriteHeader(status)
		return
	}
	writeJSON(w, status, authErr)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
