package services

import (
	"fmt"
	"time"

	"talkpoint-backend/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

// TokenTTL is the fixed validity window of an issued credential
const TokenTTL = 7 * 24 * time.Hour

// Identity is the caller recovered from a bearer token
type Identity struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

// Claims is the JWT payload
type Claims struct {
	Identity
	jwt.RegisteredClaims
}

// TokenIssuer signs and validates bearer credentials
type TokenIssuer struct {
	secret []byte
	now    func() time.Time
}

// NewTokenIssuer creates a token issuer using HS256 with the given secret
func NewTokenIssuer(secret string) *TokenIssuer {
	return &TokenIssuer{
		secret: []byte(secret),
		now:    time.Now,
	}
}

// Issue signs a credential for the user
func (t *TokenIssuer) Issue(user *models.User) (string, error) {
	now := t.now()
	claims := Claims{
		Identity: Identity{
			ID:       user.ID,
			Email:    user.Email,
			Username: user.Username,
		},
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// Validate checks signature and expiry and returns the identity the token carries
func (t *TokenIssuer) Validate(tokenString string) (*Identity, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Identity.ID == "" {
		return nil, ErrInvalidToken
	}

	identity := claims.Identity
	return &identity, nil
}
