package oauth2

import (
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/panyam/accounts"
)

// NewGoogle builds the Google sign-in provider. Google marks the
// userinfo email as verified via verified_email; an unverified address
// is treated the same as no address at all.
func NewGoogle(clientID, clientSecret, callbackURL string) *Provider {
	return &Provider{
		name: accounts.ProviderGoogle,
		config: oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Endpoint:     google.Endpoint,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
		},
		userInfoURL: "https://www.googleapis.com/oauth2/v2/userinfo",
		parse:       parseGoogleProfile,
	}
}

func parseGoogleProfile(info map[string]any) accounts.FederatedProfile {
	profile := accounts.FederatedProfile{
		Provider:  accounts.ProviderGoogle,
		SubjectID: stringField(info, "id"),
		Name:      stringField(info, "name"),
	}
	if verified, _ := info["verified_email"].(bool); verified {
		profile.Email = stringField(info, "email")
	}
	return profile
}
