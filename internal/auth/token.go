// ABOUTME: Signed session descriptors binding identity and channel grants to a connection
// ABOUTME: Uses HS256 JWTs with sub, cid, and channels claims

package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token errors
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrMissingClaim = errors.New("missing required claim")
)

// GrantedChannels is the channel whitelist issued at every successful
// login. It is a policy constant, not a per-user attribute.
var GrantedChannels = []string{"saveNote", "createNote"}

// SessionToken is the decoded session descriptor: who the connection is,
// which connection it was issued to, and which channels it may use.
// Immutable after issuance.
type SessionToken struct {
	Username string
	ConnID   string
	Channels []string
}

// Allows reports whether the token's whitelist includes the channel.
func (t *SessionToken) Allows(channel string) bool {
	for _, c := range t.Channels {
		if c == channel {
			return true
		}
	}
	return false
}

// TokenIssuer signs and parses session descriptors using HS256.
type TokenIssuer struct {
	secret []byte
}

// NewTokenIssuer creates an issuer with the given signing secret.
func NewTokenIssuer(secret []byte) (*TokenIssuer, error) {
	if len(secret) == 0 {
		return nil, errors.New("token secret must not be empty")
	}
	return &TokenIssuer{secret: secret}, nil
}

// Issue creates a signed session descriptor for the given identity,
// bound to the connection identified by connID.
func (i *TokenIssuer) Issue(username, connID string, channels []string) (string, error) {
	claims := jwt.MapClaims{
		"sub":      username,
		"cid":      connID,
		"channels": channels,
		"iat":      time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// Parse validates the signature and extracts the session descriptor.
func (i *TokenIssuer) Parse(tokenString string) (*SessionToken, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Validate the signing method is HS256
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return nil, fmt.Errorf("%w: sub", ErrMissingClaim)
	}
	cid, ok := claims["cid"].(string)
	if !ok || cid == "" {
		return nil, fmt.Errorf("%w: cid", ErrMissingClaim)
	}

	rawChannels, ok := claims["channels"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: channels", ErrMissingClaim)
	}
	channels := make([]string, 0, len(rawChannels))
	for _, c := range rawChannels {
		s, ok := c.(string)
		if !ok {
			return nil, fmt.Errorf("%w: channels", ErrMissingClaim)
		}
		channels = append(channels, s)
	}

	return &SessionToken{
		Username: sub,
		ConnID:   cid,
		Channels: channels,
	}, nil
}
