package oauth2

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	xoauth2 "golang.org/x/oauth2"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panyam/accounts"
)

// fakeIDP serves the token and userinfo endpoints of a provider.
func fakeIDP(t *testing.T, userInfo map[string]any) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.PostFormValue("code") != "good-code" {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "fake-access-token",
			"token_type":   "Bearer",
		})
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer fake-access-token" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(userInfo)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// testProvider wires a Provider against the fake IDP.
func testProvider(idp *httptest.Server, parse func(map[string]any) accounts.FederatedProfile) *Provider {
	return &Provider{
		name: accounts.ProviderGoogle,
		config: xoauth2.Config{
			ClientID:     "client-id",
			ClientSecret: "client-secret",
			RedirectURL:  "https://svc.example/auth/oauth/google/callback",
			Endpoint: xoauth2.Endpoint{
				AuthURL:  idp.URL + "/auth",
				TokenURL: idp.URL + "/token",
			},
		},
		userInfoURL: idp.URL + "/userinfo",
		parse:       parse,
		HTTPClient:  idp.Client(),
	}
}

// callbackRequest builds the provider callback request with a matching
// state cookie, the way a browser would replay it.
func callbackRequest(code, state, cookieState string) *http.Request {
	q := url.Values{"code": {code}, "state": {state}}
	r := httptest.NewRequest(http.MethodGet, "/auth/oauth/google/callback?"+q.Encode(), nil)
	if cookieState != "" {
		r.AddCookie(&http.Cookie{Name: stateCookieName, Value: cookieState})
	}
	return r
}

func TestHandleRedirect(t *testing.T) {
	idp := fakeIDP(t, nil)
	p := testProvider(idp, parseGoogleProfile)

	w := httptest.NewRecorder()
	p.HandleRedirect(w, httptest.NewRequest(http.MethodGet, "/auth/oauth/google", nil))

	resp := w.Result()
	require.Equal(t, http.StatusFound, resp.StatusCode)

	loc, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(loc.String(), idp.URL+"/auth"), "redirects to the consent endpoint")
	assert.Equal(t, "client-id", loc.Query().Get("client_id"))
	state := loc.Query().Get("state")
	require.NotEmpty(t, state)

	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == stateCookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie, "state cookie must be set")
	assert.Equal(t, state, cookie.Value, "cookie pins the state sent to the provider")
	assert.True(t, cookie.HttpOnly)
}

func TestExchange(t *testing.T) {
	idp := fakeIDP(t, map[string]any{
		"id":             "g-123",
		"name":           "Jane Doe",
		"email":          "jane@example.com",
		"verified_email": true,
	})
	p := testProvider(idp, parseGoogleProfile)

	t.Run("success", func(t *testing.T) {
		profile, err := p.Exchange(callbackRequest("good-code", "st", "st"))
		require.NoError(t, err)
		assert.Equal(t, accounts.FederatedProfile{
			Provider:  accounts.ProviderGoogle,
			SubjectID: "g-123",
			Email:     "jane@example.com",
			Name:      "Jane Doe",
		}, profile)
	})

	t.Run("missing state cookie", func(t *testing.T) {
		_, err := p.Exchange(callbackRequest("good-code", "st", ""))
		assert.ErrorContains(t, err, "state")
	})

	t.Run("state mismatch", func(t *testing.T) {
		_, err := p.Exchange(callbackRequest("good-code", "st", "other"))
		assert.ErrorContains(t, err, "state")
	})

	t.Run("missing code", func(t *testing.T) {
		_, err := p.Exchange(callbackRequest("", "st", "st"))
		assert.ErrorContains(t, err, "code")
	})

	t.Run("rejected code", func(t *testing.T) {
		_, err := p.Exchange(callbackRequest("bad-code", "st", "st"))
		assert.ErrorContains(t, err, "exchange")
	})
}

func TestExchangeRejectsProfileWithoutSubject(t *testing.T) {
	idp := fakeIDP(t, map[string]any{"name": "No Id"})
	p := testProvider(idp, parseGoogleProfile)

	_, err := p.Exchange(callbackRequest("good-code", "st", "st"))
	assert.ErrorContains(t, err, "subject")
}

func TestParseGoogleProfile(t *testing.T) {
	t.Run("unverified email is dropped", func(t *testing.T) {
		profile := parseGoogleProfile(map[string]any{
			"id":             "g-1",
			"name":           "Jane Doe",
			"email":          "jane@example.com",
			"verified_email": false,
		})
		assert.Empty(t, profile.Email)
		assert.Equal(t, "g-1", profile.SubjectID)
	})
}

func TestParseFacebookProfile(t *testing.T) {
	profile := parseFacebookProfile(map[string]any{
		"id":    "fb-1",
		"name":  "Jane Doe",
		"email": "jane@example.com",
	})
	assert.Equal(t, accounts.FederatedProfile{
		Provider:  accounts.ProviderFacebook,
		SubjectID: "fb-1",
		Email:     "jane@example.com",
		Name:      "Jane Doe",
	}, profile)

	t.Run("email absent", func(t *testing.T) {
		profile := parseFacebookProfile(map[string]any{"id": "fb-2", "name": "No Email"})
		assert.Empty(t, profile.Email)
	})
}
