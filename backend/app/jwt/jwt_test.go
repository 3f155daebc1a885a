package jwtutil

import (
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSigner_RoundTrip(t *testing.T) {
	s := &Signer{Secret: []byte("k"), Issuer: "fleet-relay", ExpMin: 5}
	tok, err := s.Sign(7, "alice", "admin")
	require.NoError(t, err)

	c, err := s.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, uint(7), c.UserID)
	assert.Equal(t, "alice", c.Username)
	assert.Equal(t, "admin", c.Role)
}

func TestSigner_RejectsExpiredAndForeign(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	old := &Signer{Secret: []byte("k"), Issuer: "fleet-relay", ExpMin: 1, Now: func() time.Time { return past }}
	tok, err := old.Sign(1, "bob", "operator")
	require.NoError(t, err)

	s := &Signer{Secret: []byte("k"), Issuer: "fleet-relay", ExpMin: 1}
	_, err = s.Parse(tok)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	other := &Signer{Secret: []byte("other"), Issuer: "fleet-relay", ExpMin: 1}
	tok, err = other.Sign(1, "bob", "operator")
	require.NoError(t, err)
	_, err = s.Parse(tok)
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)

	wrongIss := &Signer{Secret: []byte("k"), Issuer: "someone", ExpMin: 1}
	tok, err = wrongIss.Sign(1, "bob", "operator")
	require.NoError(t, err)
	_, err = s.Parse(tok)
	assert.ErrorIs(t, err, jwt.ErrTokenInvalidIssuer)
}

func TestSigner_EmptySecret(t *testing.T) {
	_, err := (&Signer{}).Sign(1, "x", "admin")
	assert.ErrorIs(t, err, ErrNoSecret)
}
