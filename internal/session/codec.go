// Package session implements the stateless cookie session: a signed
// HS256 token carrying the user's identity and role, its cookie
// lifecycle, and optional revocation marks kept in Redis.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iliyamo/efarm/internal/model"
)

// DefaultTTL is the lifetime of a session token and its cookie.
const DefaultTTL = 2 * time.Hour

// MinSecretLen mirrors the configuration requirement on JWT_SECRET.
const MinSecretLen = 32

var (
	// ErrInvalidSession covers bad signatures, unexpected algorithms,
	// expired tokens and malformed claims.  Callers treat it as "no session".
	ErrInvalidSession = errors.New("invalid session")
	// ErrWeakSecret is returned by NewCodec for missing or short secrets.
	ErrWeakSecret = errors.New("session secret missing or too short")
)

// User is the identity embedded in a session.
type User struct {
	ID       string     `json:"id"`
	Email    string     `json:"email"`
	FullName *string    `json:"full_name"`
	Role     model.Role `json:"role"`
}

// Payload is what a session token carries.  IssuedAt is filled in by
// Decrypt from the token's iat claim and ignored by Encrypt.
type Payload struct {
	User     User      `json:"user"`
	Expires  time.Time `json:"expires"`
	IssuedAt time.Time `json:"-"`
}

// claims is the JWT body: the payload plus the registered iat/exp.
type claims struct {
	User    User      `json:"user"`
	Expires time.Time `json:"expires"`
	jwt.RegisteredClaims
}

// Codec signs and verifies session tokens with a server-held secret.
type Codec struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// NewCodec builds a codec.  There is no fallback secret: an empty or
// short secret is an error.
func NewCodec(secret string, ttl time.Duration) (*Codec, error) {
	if len(secret) < MinSecretLen {
		return nil, ErrWeakSecret
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Codec{key: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// TTL returns the token lifetime.
func (c *Codec) TTL() time.Duration { return c.ttl }

// Encrypt signs p with HS256, adding iat = now and exp = now + TTL.
func (c *Codec) Encrypt(p Payload) (string, error) {
	now := c.now().UTC()
	cl := claims{
		User:    p.User,
		Expires: p.Expires,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, cl).SignedString(c.key)
}

// Decrypt verifies signature, algorithm and expiry and returns the
// payload.  A token whose embedded expires is already past is rejected
// even if its exp claim is not.
func (c *Codec) Decrypt(token string) (Payload, error) {
	var cl claims
	tok, err := jwt.ParseWithClaims(token, &cl,
		func(t *jwt.Token) (interface{}, error) { return c.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	if !tok.Valid {
		return Payload{}, ErrInvalidSession
	}
	if cl.User.ID == "" || !cl.User.Role.Valid() {
		return Payload{}, fmt.Errorf("%w: missing identity", ErrInvalidSession)
	}
	if !cl.Expires.IsZero() && !cl.Expires.After(c.now()) {
		return Payload{}, fmt.Errorf("%w: session expired", ErrInvalidSession)
	}
	p := Payload{User: cl.User, Expires: cl.Expires}
	if cl.IssuedAt != nil {
		p.IssuedAt = cl.IssuedAt.Time
	}
	return p, nil
}
