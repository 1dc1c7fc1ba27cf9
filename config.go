package accounts

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the full set of recognized options, loaded from the
// environment. Hashing parameters are effectively constants for a
// deployment: changing them invalidates all stored digests.
type Config struct {
	Port    string `env:"PORT" envDefault:"8080"`
	AppName string `env:"APP_NAME" envDefault:"accounts"`

	// BaseURL is this service's externally visible address, used to
	// build OAuth callback URLs.
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:8080"`

	// RedirectURL is the frontend address that verification and reset
	// links point at.
	RedirectURL string `env:"REDIRECT_URL" envDefault:"http://localhost:3000"`

	// TokenCallbackURL receives ?token= after a successful OAuth login.
	TokenCallbackURL string `env:"TOKEN_CALLBACK_URL" envDefault:"http://localhost:3000/oauth"`

	JWTSigningKey string `env:"JWT_SIGNING_KEY,required"`

	HashIterations int `env:"HASH_ITERATIONS" envDefault:"100000"`
	HashKeyLength  int `env:"HASH_KEY_LENGTH" envDefault:"64"`
	SaltLength     int `env:"SALT_LENGTH" envDefault:"32"`

	CodeCooldown time.Duration `env:"CODE_COOLDOWN" envDefault:"2m"`
	CodeTTL      time.Duration `env:"CODE_TTL" envDefault:"24h"`

	// DatabaseURL selects the postgres store; when empty the server
	// falls back to the in-memory store.
	DatabaseURL string `env:"DATABASE_URL"`

	SMTP     SMTPConfig        `envPrefix:"SMTP_"`
	Facebook OAuthClientConfig `envPrefix:"FACEBOOK_"`
	Google   OAuthClientConfig `envPrefix:"GOOGLE_"`
}

// SMTPConfig configures the gomail dispatcher. The dispatcher is only
// wired when Enabled reports true; otherwise emails go to the console.
type SMTPConfig struct {
	Host     string `env:"HOST"`
	Port     int    `env:"PORT" envDefault:"587"`
	Username string `env:"USERNAME"`
	Password string `env:"PASSWORD"`
	From     string `env:"FROM"`
}

func (c SMTPConfig) Enabled() bool {
	return c.Host != "" && c.Port != 0 && c.From != ""
}

// OAuthClientConfig holds one provider's client registration.
type OAuthClientConfig struct {
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
}

func (c OAuthClientConfig) Enabled() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// LoadConfig parses the environment into a Config.
func LoadConfig() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parsing environment: %w", err)
	}
	return cfg, nil
}
