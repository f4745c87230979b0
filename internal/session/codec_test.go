package session

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/efarm/internal/model"
)

const testSecret = "test-secret-that-is-long-enough-for-hs256"

func newTestCodec(t *testing.T, now *time.Time) *Codec {
	t.Helper()
	c, err := NewCodec(testSecret, DefaultTTL)
	require.NoError(t, err)
	if now != nil {
		c.now = func() time.Time { return *now }
	}
	return c
}

func farmer() User {
	name := "Amina Farmer"
	return User{ID: "0b8a6a7e-6a51-4c59-9d0f-4f1c0f7e1a11", Email: "amina@example.com", FullName: &name, Role: model.RoleUser}
}

func TestNewCodecRejectsWeakSecret(t *testing.T) {
	_, err := NewCodec("", DefaultTTL)
	assert.ErrorIs(t, err, ErrWeakSecret)
	_, err = NewCodec("short", DefaultTTL)
	assert.ErrorIs(t, err, ErrWeakSecret)
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	c := newTestCodec(t, &now)

	in := Payload{User: farmer(), Expires: now.Add(DefaultTTL)}
	token, err := c.Encrypt(in)
	require.NoError(t, err)

	out, err := c.Decrypt(token)
	require.NoError(t, err)
	assert.Equal(t, in.User, out.User)
	assert.True(t, in.Expires.Equal(out.Expires))
	assert.True(t, now.Equal(out.IssuedAt))
}

func TestDecryptRoundTripAdmin(t *testing.T) {
	c := newTestCodec(t, nil)
	admin := User{ID: "a1", Email: "root@example.com", Role: model.RoleAdmin}

	token, err := c.Encrypt(Payload{User: admin, Expires: time.Now().Add(time.Hour)})
	require.NoError(t, err)
	out, err := c.Decrypt(token)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, out.User.Role)
}

func TestDecryptExpiredToken(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	c := newTestCodec(t, &now)
	token, err := c.Encrypt(Payload{User: farmer(), Expires: now.Add(DefaultTTL)})
	require.NoError(t, err)

	now = now.Add(DefaultTTL + time.Second)
	_, err = c.Decrypt(token)
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestDecryptPastExpiresClaim(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	c := newTestCodec(t, &now)
	token, err := c.Encrypt(Payload{User: farmer(), Expires: now.Add(-time.Minute)})
	require.NoError(t, err)

	_, err = c.Decrypt(token)
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestDecryptTamperedToken(t *testing.T) {
	c := newTestCodec(t, nil)
	token, err := c.Encrypt(Payload{User: farmer(), Expires: time.Now().Add(time.Hour)})
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	_, err = c.Decrypt(parts[0] + "." + parts[1] + "." + string(sig))
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestDecryptWrongSecret(t *testing.T) {
	c := newTestCodec(t, nil)
	other, err := NewCodec("another-secret-that-is-long-enough-xx", DefaultTTL)
	require.NoError(t, err)

	token, err := other.Encrypt(Payload{User: farmer(), Expires: time.Now().Add(time.Hour)})
	require.NoError(t, err)
	_, err = c.Decrypt(token)
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestDecryptRejectsOtherAlgorithms(t *testing.T) {
	c := newTestCodec(t, nil)
	cl := claims{
		User:    farmer(),
		Expires: time.Now().Add(time.Hour),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, cl).SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = c.Decrypt(hs512)
	assert.ErrorIs(t, err, ErrInvalidSession)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, cl).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = c.Decrypt(none)
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestDecryptRejectsUnknownRole(t *testing.T) {
	c := newTestCodec(t, nil)
	body := jwt.MapClaims{
		"user":    map[string]any{"id": "u1", "email": "x@example.com", "role": "superuser"},
		"expires": time.Now().Add(time.Hour).Format(time.RFC3339),
		"iat":     time.Now().Unix(),
		"exp":     time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, body).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = c.Decrypt(token)
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestDecryptGarbage(t *testing.T) {
	c := newTestCodec(t, nil)
	_, err := c.Decrypt("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidSession)
	_, err = c.Decrypt("")
	assert.ErrorIs(t, err, ErrInvalidSession)
}
