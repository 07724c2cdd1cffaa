// Package rolecookie encodes the role side-channel cookie.
//
// PlainCodec writes the bare role name. SignedCodec writes a compact HS256
// JWT bound to the session, so a client cannot promote itself by editing the
// cookie and a cookie copied from another session reads as no role.
package rolecookie

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	domainauth "github.com/target/coffeehouse/internal/domain/auth"
)

// MinKeyLength is the shortest accepted HMAC key, in bytes.
const MinKeyLength = 32

// ErrUnencodableRole is returned when asked to encode RoleUnknown.
var ErrUnencodableRole = errors.New("role cookie: role must be admin, cashier or customer")

// PlainCodec stores the role name as the cookie value.
type PlainCodec struct{}

func (PlainCodec) Encode(role domainauth.Role, _ domainauth.Session) (string, error) {
	if !role.Valid() {
		return "", ErrUnencodableRole
	}
	return string(role), nil
}

func (PlainCodec) Decode(value, _ string) (domainauth.Role, error) {
	return domainauth.ParseRole(value), nil
}

type roleClaims struct {
	Role string `json:"role"`
	SID  string `json:"sid"`
	jwt.RegisteredClaims
}

// SignedCodec stores the role as an HS256 token carrying the role, a hash of
// the session id, and the session expiry. No issued-at claim is set, so the
// same session and role always produce the same token.
type SignedCodec struct {
	key []byte
	now func() time.Time
}

// NewSignedCodec returns a codec keyed with key.
func NewSignedCodec(key []byte) (*SignedCodec, error) {
	if len(key) < MinKeyLength {
		return nil, fmt.Errorf("role cookie signing key must be at least %d bytes", MinKeyLength)
	}
	return &SignedCodec{key: append([]byte(nil), key...), now: time.Now}, nil
}

func (c *SignedCodec) Encode(role domainauth.Role, sess domainauth.Session) (string, error) {
	if !role.Valid() {
		return "", ErrUnencodableRole
	}
	if sess.ID == "" {
		return "", errors.New("role cookie: session id is required")
	}
	claims := roleClaims{
		Role: string(role),
		SID:  sessionHash(sess.ID),
	}
	if !sess.ExpiresAt.IsZero() {
		claims.ExpiresAt = jwt.NewNumericDate(sess.ExpiresAt)
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("sign role cookie: %w", err)
	}
	return tok, nil
}

// Decode verifies value. A bad signature or malformed token is an error; an
// expired token or one issued for another session decodes to RoleUnknown.
func (c *SignedCodec) Decode(value, sessionID string) (domainauth.Role, error) {
	if value == "" {
		return domainauth.RoleUnknown, nil
	}
	var claims roleClaims
	_, err := jwt.ParseWithClaims(value, &claims, func(*jwt.Token) (any, error) {
		return c.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(c.now))
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return domainauth.RoleUnknown, nil
	case err != nil:
		return domainauth.RoleUnknown, fmt.Errorf("verify role cookie: %w", err)
	}
	if sessionID == "" || claims.SID != sessionHash(sessionID) {
		return domainauth.RoleUnknown, nil
	}
	return domainauth.ParseRole(claims.Role), nil
}

func sessionHash(id string) string {
	sum := sha256.Sum256([]byte(id))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
