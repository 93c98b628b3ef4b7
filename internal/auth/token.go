// Package auth issues and verifies stateless session credentials and guards
// HTTP handlers with them.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Shivanand-hulikatti/eventpulse/internal/model"
)

// TokenTTL is the fixed lifetime of every issued credential.
const TokenTTL = 24 * time.Hour

// ErrUnauthenticated is returned for missing, malformed, tampered or expired
// credentials.
var ErrUnauthenticated = errors.New("unauthenticated")

type claims struct {
	jwt.RegisteredClaims
	Email    string `json:"email"`
	Name     string `json:"name,omitempty"`
	PhotoURL string `json:"photoURL,omitempty"`
}

// Issuer signs and verifies HS256 session credentials. The server keeps no
// session state: validity is signature plus expiry.
type Issuer struct {
	secret []byte
	now    func() time.Time
}

// NewIssuer constructs an Issuer. A nil now defaults to time.Now.
func NewIssuer(secret string, now func() time.Time) (*Issuer, error) {
	if secret == "" {
		return nil, errors.New("signing secret is required")
	}
	if now == nil {
		now = time.Now
	}
	return &Issuer{secret: []byte(secret), now: now}, nil
}

// Issue signs id with a fixed TokenTTL expiry.
func (i *Issuer) Issue(id model.Identity) (string, time.Time, error) {
	now := i.now()
	exp := now.Add(TokenTTL)
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Email:    id.Email,
		Name:     id.Name,
		PhotoURL: id.PhotoURL,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return token, exp, nil
}

// Verify checks the signature and expiry of token and returns the identity
// it carries.
func (i *Issuer) Verify(token string) (model.Identity, error) {
	if token == "" {
		return model.Identity{}, ErrUnauthenticated
	}
	var c claims
	_, err := jwt.ParseWithClaims(token, &c, func(*jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return model.Identity{}, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}
	if c.Email == "" {
		return model.Identity{}, fmt.Errorf("%w: token has no email", ErrUnauthenticated)
	}
	return model.Identity{Email: c.Email, Name: c.Name, PhotoURL: c.PhotoURL}, nil
}
