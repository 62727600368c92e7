package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

const profileIssuer = "cpd-portal"

// ProfileClaims identifies one browser profile.
type ProfileClaims struct {
	ProfileID string `json:"pid"`
	jwt.RegisteredClaims
}

// ProfileTokens signs and verifies the browser-profile cookie.
type ProfileTokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewProfileTokens(secret []byte, ttl time.Duration) *ProfileTokens {
	return &ProfileTokens{secret: secret, ttl: ttl, now: time.Now}
}

func (p *ProfileTokens) TTL() time.Duration {
	return p.ttl
}

// NewProfileID mints a fresh random profile identifier.
func NewProfileID() string {
	return uuid.New().String()
}

func (p *ProfileTokens) Issue(profileID string) (string, error) {
	now := p.now()
	claims := &ProfileClaims{
		ProfileID: profileID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    profileIssuer,
			Subject:   profileID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(p.secret)
	if err != nil {
		return "", fmt.Errorf("sign profile token: %w", err)
	}
	return signed, nil
}

// Verify returns the profile ID of a valid token.
func (p *ProfileTokens) Verify(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &ProfileClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return p.secret, nil
	}, jwt.WithIssuer(profileIssuer), jwt.WithTimeFunc(p.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(*ProfileClaims)
	if !ok || !token.Valid || claims.ProfileID == "" {
		return "", ErrInvalidToken
	}
	return claims.ProfileID, nil
}
