package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"go-classifieds/internal/core/auth"
	"go-classifieds/internal/domain"
	"go-classifieds/internal/repo"
)

func newTestSession(t *testing.T) (*Session, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	jwter := &auth.JWTer{Secret: []byte("s"), Issuer: "test", TTL: time.Minute}
	return NewSession(db, jwter, time.Hour, testLogger()), db
}

func TestRegisterAndLogin(t *testing.T) {
	s, _ := newTestSession(t)

	u, pair, err := s.Register("Alice", "alice@example.com", "secret1")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.False(t, u.Activated)
	assert.Equal(t, domain.RoleUser, u.Role)
	assert.NotEmpty(t, u.ActivationCode)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)

	u2, pair2, err := s.Login("alice@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, u2.ID)
	assert.NotEqual(t, pair.RefreshToken, pair2.RefreshToken)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	s, _ := newTestSession(t)

	_, _, err := s.Register("Alice", "alice@example.com", "secret1")
	require.NoError(t, err)

	_, _, err = s.Register("Bob", "alice@example.com", "secret2")
	require.Error(t, err)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
	var de *domain.Error
	require.ErrorAs(t, err, &de)
	assert.Contains(t, de.Fields, "email")
}

func TestRegisterFieldValidation(t *testing.T) {
	s, _ := newTestSession(t)

	_, _, err := s.Register("", "not-an-email", "123")
	require.Error(t, err)
	var de *domain.Error
	require.ErrorAs(t, err, &de)
	assert.Contains(t, de.Fields, "name")
	assert.Contains(t, de.Fields, "email")
	assert.Contains(t, de.Fields, "password")
}

func TestLoginBadCredentials(t *testing.T) {
	s, _ := newTestSession(t)
	_, _, err := s.Register("Alice", "alice@example.com", "secret1")
	require.NoError(t, err)

	_, _, err = s.Login("alice@example.com", "wrong")
	assert.Equal(t, domain.KindAuth, domain.KindOf(err))

	// 未知邮箱与密码错误不可区分
	_, _, err2 := s.Login("ghost@example.com", "whatever")
	assert.Equal(t, domain.KindAuth, domain.KindOf(err2))
}

func TestRefreshRotates(t *testing.T) {
	s, db := newTestSession(t)
	_, pair, err := s.Register("Alice", "alice@example.com", "secret1")
	require.NoError(t, err)

	next, err := s.Refresh(pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, next.RefreshToken)

	// 旧 token 已旋转，二次使用必须失败
	_, err = s.Refresh(pair.RefreshToken)
	assert.Equal(t, domain.KindAuth, domain.KindOf(err))

	// 新 token 仍然有效
	_, err = s.Refresh(next.RefreshToken)
	require.NoError(t, err)

	tokens := repo.NewRefreshTokenRepo(db)
	old, err := tokens.Find(pair.RefreshToken)
	require.NoError(t, err)
	assert.Nil(t, old)
}

func TestRefreshExpired(t *testing.T) {
	db := newTestDB(t)
	jwter := &auth.JWTer{Secret: []byte("s"), Issuer: "test", TTL: time.Minute}
	s := NewSession(db, jwter, -time.Hour, testLogger()) // 签出即过期

	_, pair, err := s.Register("Alice", "alice@example.com", "secret1")
	require.NoError(t, err)

	_, err = s.Refresh(pair.RefreshToken)
	assert.Equal(t, domain.KindAuth, domain.KindOf(err))
}

func TestRefreshMissing(t *testing.T) {
	s, _ := newTestSession(t)
	_, err := s.Refresh("")
	assert.Equal(t, domain.KindAuth, domain.KindOf(err))
	_, err = s.Refresh("never-issued")
	assert.Equal(t, domain.KindAuth, domain.KindOf(err))
}

func TestLogoutRevokesToken(t *testing.T) {
	s, _ := newTestSession(t)
	_, pair, err := s.Register("Alice", "alice@example.com", "secret1")
	require.NoError(t, err)

	require.NoError(t, s.Logout(pair.RefreshToken))
	_, err = s.Refresh(pair.RefreshToken)
	assert.Equal(t, domain.KindAuth, domain.KindOf(err))

	// 幂等
	require.NoError(t, s.Logout(pair.RefreshToken))
	require.NoError(t, s.Logout(""))
}

func TestActivate(t *testing.T) {
	s, _ := newTestSession(t)
	u, _, err := s.Register("Alice", "alice@example.com", "secret1")
	require.NoError(t, err)

	activated, err := s.Activate(u.ActivationCode)
	require.NoError(t, err)
	assert.True(t, activated.Activated)
	assert.Empty(t, activated.ActivationCode)

	// 码一次性
	_, err = s.Activate(u.ActivationCode)
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))

	_, err = s.Activate("bogus")
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
}
