package accounts

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// TokenIssuer mints and validates the bearer tokens handed out after a
// successful authentication. Tokens are HS256 JWTs whose only claim of
// substance is the account id; they carry no expiry, so possession is
// authorization until the signing key rotates. Revocation therefore
// happens at validation time, by re-resolving the account (see
// Middleware).
type TokenIssuer struct {
	// SigningKey is the process-wide HMAC secret.
	SigningKey string

	// Issuer is an optional iss claim.
	Issuer string
}

// Issue signs a bearer token for the given account id.
func (t *TokenIssuer) Issue(accountID string) (string, error) {
	claims := jwt.MapClaims{"sub": accountID}
	if t.Issuer != "" {
		claims["iss"] = t.Issuer
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(t.SigningKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Validate checks signature and shape and returns the embedded account
// id. Rejection reasons collapse into a single error; callers treat
// any failure as an unauthenticated request.
func (t *TokenIssuer) Validate(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(t.SigningKey), nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid claims")
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return "", err
	}
	if sub == "" {
		return "", fmt.Errorf("missing subject")
	}
	return sub, nil
}
