package service

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"go-classifieds/internal/core/auth"
	"go-classifieds/internal/domain"
	"go-classifieds/internal/repo"
	"go-classifieds/pkg/utils"
)

var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Session 注册/登录/登出/激活/续期；refresh token 落库并在续期时旋转
type Session struct {
	db         *gorm.DB
	users      domain.UserRepository
	tokens     domain.RefreshTokenRepository
	jwter      *auth.JWTer
	refreshTTL time.Duration
	log        *zap.Logger
}

func NewSession(db *gorm.DB, jwter *auth.JWTer, refreshTTL time.Duration, log *zap.Logger) *Session {
	return &Session{
		db:         db,
		users:      repo.NewUserRepo(db),
		tokens:     repo.NewRefreshTokenRepo(db),
		jwter:      jwter,
		refreshTTL: refreshTTL,
		log:        log,
	}
}

func (s *Session) Register(name, email, password string) (*domain.User, *domain.TokenPair, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))

	fields := map[string]string{}
	if name == "" || utf8.RuneCountInString(name) > 64 {
		fields["name"] = "Please provide name"
	}
	if !emailRe.MatchString(email) {
		fields["email"] = "Please provide a valid email"
	}
	if len(password) < 6 {
		fields["password"] = "Min length: 6"
	}
	if len(fields) > 0 {
		return nil, nil, domain.NewValidation(fields)
	}

	if existing, err := s.users.FindByEmail(email); err != nil {
		return nil, nil, domain.NewInternal(err)
	} else if existing != nil {
		return nil, nil, domain.NewValidation(map[string]string{"email": "Email already registered"})
	}

	u := &domain.User{
		ID:             utils.NewID(),
		Email:          email,
		Name:           name,
		PasswordHash:   utils.HashPassword(password),
		Activated:      false,
		ActivationCode: uuid.NewString(),
		Role:           domain.RoleUser,
	}
	if err := s.users.Create(u); err != nil {
		return nil, nil, domain.NewInternal(err)
	}
	// 无邮件通道，激活链接进日志（开发行为，与原站一致）
	s.log.Info("activation link issued",
		zap.String("email", u.Email),
		zap.String("path", "/user/activate/"+u.ActivationCode),
	)

	pair, err := s.issuePair(u)
	if err != nil {
		return nil, nil, err
	}
	return u, pair, nil
}

func (s *Session) Login(email, password string) (*domain.User, *domain.TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := s.users.FindByEmail(email)
	if err != nil {
		return nil, nil, domain.NewInternal(err)
	}
	// 未知邮箱与错误密码返回同一错误，避免探测
	if u == nil || !utils.CheckPassword(password, u.PasswordHash) {
		return nil, nil, domain.NewAuth("invalid credentials")
	}
	pair, err := s.issuePair(u)
	if err != nil {
		return nil, nil, err
	}
	return u, pair, nil
}

// Logout 幂等：token 不存在也返回成功
func (s *Session) Logout(refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	if err := s.tokens.Delete(refreshToken); err != nil {
		return domain.NewInternal(err)
	}
	return nil
}

// Refresh 校验并旋转 refresh token，失败均为 AuthError（终态，客户端不得重试）
func (s *Session) Refresh(refreshToken string) (*domain.TokenPair, error) {
	if refreshToken == "" {
		return nil, domain.NewAuth("missing refresh token")
	}
	t, err := s.tokens.Find(refreshToken)
	if err != nil {
		return nil, domain.NewInternal(err)
	}
	if t == nil {
		return nil, domain.NewAuth("refresh token revoked")
	}
	if t.ExpiresAt.Before(time.Now()) {
		return nil, domain.NewAuth("refresh token expired")
	}
	u, err := s.users.FindByID(t.UserID)
	if err != nil {
		return nil, domain.NewInternal(err)
	}
	if u == nil {
		return nil, domain.NewAuth("user gone")
	}

	var pair *domain.TokenPair
	err = s.db.Transaction(func(tx *gorm.DB) error {
		tokens := repo.NewRefreshTokenRepo(tx)
		if e := tokens.Delete(refreshToken); e != nil {
			return e
		}
		p, e := s.issuePairWith(tokens, u)
		pair = p
		return e
	})
	if err != nil {
		return nil, domain.NewInternal(err)
	}
	return pair, nil
}

func (s *Session) Activate(code string) (*domain.User, error) {
	u, err := s.users.FindByActivationCode(code)
	if err != nil {
		return nil, domain.NewInternal(err)
	}
	if u == nil {
		return nil, domain.NewNotFound("invalid activation code")
	}
	u.Activated = true
	u.ActivationCode = ""
	if err := s.users.Update(u); err != nil {
		return nil, domain.NewInternal(err)
	}
	return u, nil
}

func (s *Session) ListUsers(offset, limit int) ([]domain.User, int64, error) {
	users, total, err := s.users.List(offset, limit)
	if err != nil {
		return nil, 0, domain.NewInternal(err)
	}
	return users, total, nil
}

func (s *Session) issuePair(u *domain.User) (*domain.TokenPair, error) {
	return s.issuePairWith(s.tokens, u)
}

func (s *Session) issuePairWith(tokens domain.RefreshTokenRepository, u *domain.User) (*domain.TokenPair, error) {
	access, err := s.jwter.Issue(u.ID, u.Role)
	if err != nil {
		return nil, domain.NewInternal(err)
	}
	rt := &domain.RefreshToken{
		Token:     uuid.NewString(),
		UserID:    u.ID,
		ExpiresAt: time.Now().Add(s.refreshTTL),
	}
	if err := tokens.Create(rt); err != nil {
		return nil, domain.NewInternal(err)
	}
	return &domain.TokenPair{AccessToken: access, RefreshToken: rt.Token}, nil
}
