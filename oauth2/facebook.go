package oauth2

import (
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"

	"github.com/panyam/accounts"
)

// NewFacebook builds the Facebook sign-in provider. The Graph API only
// returns an email when the user has a confirmed one, so presence in
// the response implies it is verified.
func NewFacebook(clientID, clientSecret, callbackURL string) *Provider {
	return &Provider{
		name: accounts.ProviderFacebook,
		config: oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Endpoint:     facebook.Endpoint,
			Scopes:       []string{"email", "public_profile"},
		},
		userInfoURL: "https://graph.facebook.com/me?fields=id,name,email",
		parse:       parseFacebookProfile,
	}
}

func parseFacebookProfile(info map[string]any) accounts.FederatedProfile {
	return accounts.FederatedProfile{
		Provider:  accounts.ProviderFacebook,
		SubjectID: stringField(info, "id"),
		Name:      stringField(info, "name"),
		Email:     stringField(info, "email"),
	}
}
