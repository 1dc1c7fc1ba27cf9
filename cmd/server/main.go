package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/panyam/accounts"
	"github.com/panyam/accounts/emails"
	oauthproviders "github.com/panyam/accounts/oauth2"
	"github.com/panyam/accounts/stores"
	gormstores "github.com/panyam/accounts/stores/gorm"
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	cfg, err := accounts.LoadConfig()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	store, err := buildStore(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open account store")
	}

	sender := buildEmailSender(cfg, logger)

	hasher := &accounts.Hasher{
		Iterations: cfg.HashIterations,
		KeyLength:  cfg.HashKeyLength,
		SaltLength: cfg.SaltLength,
	}
	codes := &accounts.CodeIssuer{
		Cooldown: cfg.CodeCooldown,
		TTL:      cfg.CodeTTL,
	}
	tokens := &accounts.TokenIssuer{
		SigningKey: cfg.JWTSigningKey,
		Issuer:     cfg.AppName,
	}

	srv := &accounts.Server{
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
		Tokens: tokens,
		Middleware: &accounts.Middleware{
			Tokens: tokens,
			Store:  store,
			Logger: logger,
		},
		Store:            store,
		Providers:        buildProviders(cfg, logger),
		Logger:           logger,
		TokenCallbackURL: cfg.TokenCallbackURL,
	}

	addr := ":" + cfg.Port
	logger.Info().Str("addr", addr).Msg("server starting")
	if err := http.ListenAndServe(addr, srv.Handler()); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}

func buildStore(cfg accounts.Config, logger zerolog.Logger) (accounts.AccountStore, error) {
	if cfg.DatabaseURL == "" {
		logger.Warn().Msg("DATABASE_URL not set, using in-memory account store")
		return stores.NewMemoryStore(), nil
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}
	if err := gormstores.AutoMigrate(db); err != nil {
		return nil, err
	}
	logger.Info().Msg("connected to the database")
	return gormstores.NewAccountStore(db), nil
}

func buildEmailSender(cfg accounts.Config, logger zerolog.Logger) accounts.EmailSender {
	if !cfg.SMTP.Enabled() {
		logger.Warn().Msg("SMTP not configured, emails go to the console")
		return &accounts.ConsoleEmailSender{}
	}
	return emails.NewSender(emails.Config{
		Host:        cfg.SMTP.Host,
		Port:        cfg.SMTP.Port,
		Username:    cfg.SMTP.Username,
		Password:    cfg.SMTP.Password,
		From:        cfg.SMTP.From,
		AppName:     cfg.AppName,
		RedirectURL: cfg.RedirectURL,
	})
}

func buildProviders(cfg accounts.Config, logger zerolog.Logger) map[string]accounts.OAuthProvider {
	providers := make(map[string]accounts.OAuthProvider)
	callback := func(name string) string {
		return fmt.Sprintf("%s/auth/oauth/%s/callback", cfg.BaseURL, name)
	}

	if cfg.Facebook.Enabled() {
		providers[accounts.ProviderFacebook] = oauthproviders.NewFacebook(
			cfg.Facebook.ClientID, cfg.Facebook.ClientSecret, callback(accounts.ProviderFacebook))
	}
	if cfg.Google.Enabled() {
		providers[accounts.ProviderGoogle] = oauthproviders.NewGoogle(
			cfg.Google.ClientID, cfg.Google.ClientSecret, callback(accounts.ProviderGoogle))
	}
	if len(providers) == 0 {
		logger.Info().Msg("no oauth providers configured")
	}
	return providers
}
