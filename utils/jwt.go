package utils

import (
	"errors"
	"time"

	"outlandish/models"

	"github.com/golang-jwt/jwt"
)

// SessionClaims is the payload the identity provider signs into the session token.
type SessionClaims struct {
	Email   string `json:"email"`
	Name    string `json:"name,omitempty"`
	IsAdmin bool   `json:"isAdmin,omitempty"`
	IsGuide bool   `json:"isGuide,omitempty"`
	jwt.StandardClaims
}

// GenerateSessionToken signs a session token for the given user. Used by the identity
// bridge and by tests.
func GenerateSessionToken(user models.SessionUser, secret string, duration time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("session secret not configured")
	}
	now := time.Now()
	claims := SessionClaims{
		Email:   user.Email,
		Name:    user.Name,
		IsAdmin: user.IsAdmin,
		IsGuide: user.IsGuide,
		StandardClaims: jwt.StandardClaims{
			Subject:   user.ID,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(duration).Unix(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseSessionToken validates the signature and expiry and returns the session user.
func ParseSessionToken(tokenString, secret string) (*models.SessionUser, error) {
	if secret == "" {
		return nil, errors.New("session secret not configured")
	}
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// Ensure that the token's signing method is HMAC.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Subject == "" {
		return nil, errors.New("token does not contain a valid 'sub' claim")
	}

	return &models.SessionUser{
		ID:      claims.Subject,
		Email:   claims.Email,
		Name:    claims.Name,
		IsAdmin: claims.IsAdmin,
		IsGuide: claims.IsGuide,
	}, nil
}
