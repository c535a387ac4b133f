package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJWTer(ttl time.Duration) *JWTer {
	return &JWTer{Secret: []byte("test-secret"), Issuer: "test", TTL: ttl}
}

func TestIssueAndParse(t *testing.T) {
	j := newJWTer(time.Minute)

	tok, err := j.Issue("u1", "user")
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	claims, err := j.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UID)
	assert.Equal(t, "user", claims.Role)
}

func TestParseWrongSecret(t *testing.T) {
	j := newJWTer(time.Minute)
	tok, err := j.Issue("u1", "user")
	require.NoError(t, err)

	other := &JWTer{Secret: []byte("another"), Issuer: "test", TTL: time.Minute}
	_, err = other.Parse(tok)
	assert.Error(t, err)
}

func TestParseWrongIssuer(t *testing.T) {
	j := newJWTer(time.Minute)
	tok, err := j.Issue("u1", "user")
	require.NoError(t, err)

	other := &JWTer{Secret: []byte("test-secret"), Issuer: "someone-else", TTL: time.Minute}
	_, err = other.Parse(tok)
	assert.Error(t, err)
}

func TestParseExpired(t *testing.T) {
	j := newJWTer(-2 * time.Minute)
	j.Leeway = time.Millisecond

	tok, err := j.Issue("u1", "user")
	require.NoError(t, err)

	_, err = j.Parse(tok)
	assert.Error(t, err)
}
